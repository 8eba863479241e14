package pdf

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// kerningSpace is the TJ displacement (in thousandths of an em) below which a
// gap between two string segments is read as a word break.
const kerningSpace = -200

type operandKind int

const (
	operandOther operandKind = iota
	operandString
	operandNumber
	operandArray
	operandName
)

type operand struct {
	kind  operandKind
	text  string
	num   float64
	items []operand
}

// TextFromContent pulls the visible text out of a decoded page content stream.
// It understands the text showing operators (Tj, TJ, ' and ") and turns line
// moves (Td, TD, T*) and the end of a text object into line breaks.
func TextFromContent(stream string) string {
	lx := &lexer{src: stream}
	var out strings.Builder
	var stack []operand

	newline := func() {
		if out.Len() == 0 {
			return
		}
		s := out.String()
		if s[len(s)-1] != '\n' {
			out.WriteByte('\n')
		}
	}
	lastString := func() (string, bool) {
		if len(stack) == 0 {
			return "", false
		}
		top := stack[len(stack)-1]
		return top.text, top.kind == operandString
	}

	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		if tok.kind != operandOther {
			stack = append(stack, tok)
			continue
		}

		switch tok.text {
		case "Tj":
			if s, ok := lastString(); ok {
				out.WriteString(s)
			}
		case "'", "\"":
			newline()
			if s, ok := lastString(); ok {
				out.WriteString(s)
			}
		case "TJ":
			if len(stack) > 0 && stack[len(stack)-1].kind == operandArray {
				for _, item := range stack[len(stack)-1].items {
					switch item.kind {
					case operandString:
						out.WriteString(item.text)
					case operandNumber:
						if item.num < kerningSpace {
							out.WriteByte(' ')
						}
					}
				}
			}
		case "Td", "TD", "T*", "ET":
			newline()
		}
		stack = stack[:0]
	}

	return strings.TrimSpace(out.String())
}

type lexer struct {
	src string
	pos int
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return isSpace(c)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func (l *lexer) next() (operand, bool) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
				l.pos++
			}
		case c == '(':
			l.pos++
			return operand{kind: operandString, text: decodeBytes(l.literal())}, true
		case c == '<':
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '<' {
				l.pos += 2
				continue
			}
			l.pos++
			return operand{kind: operandString, text: decodeBytes(l.hex())}, true
		case c == '>':
			l.pos++
		case c == '[':
			l.pos++
			return operand{kind: operandArray, items: l.array()}, true
		case c == ']' || c == '{' || c == '}' || c == ')':
			l.pos++
		case c == '/':
			l.pos++
			return operand{kind: operandName, text: "/" + l.word()}, true
		default:
			w := l.word()
			if n, err := strconv.ParseFloat(w, 64); err == nil {
				return operand{kind: operandNumber, num: n}, true
			}
			return operand{kind: operandOther, text: w}, true
		}
	}
	return operand{}, false
}

func (l *lexer) word() string {
	start := l.pos
	for l.pos < len(l.src) && !isDelimiter(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == start && l.pos < len(l.src) {
		l.pos++
	}
	return l.src[start:l.pos]
}

func (l *lexer) array() []operand {
	var items []operand
	for l.pos < len(l.src) {
		// skip whitespace before checking for the closing bracket
		for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
			l.pos++
		}
		if l.pos < len(l.src) && l.src[l.pos] == ']' {
			l.pos++
			return items
		}
		tok, ok := l.next()
		if !ok {
			break
		}
		items = append(items, tok)
	}
	return items
}

// literal reads a parenthesised string; the opening paren is already consumed.
func (l *lexer) literal() []byte {
	var buf []byte
	depth := 1
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
			buf = append(buf, c)
		case ')':
			depth--
			if depth == 0 {
				return buf
			}
			buf = append(buf, c)
		case '\\':
			if l.pos >= len(l.src) {
				return buf
			}
			e := l.src[l.pos]
			l.pos++
			switch e {
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case '\r':
				if l.pos < len(l.src) && l.src[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '7'; i++ {
						v = v*8 + int(l.src[l.pos]-'0')
						l.pos++
					}
					buf = append(buf, byte(v))
				} else {
					buf = append(buf, e)
				}
			}
		default:
			buf = append(buf, c)
		}
	}
	return buf
}

// hex reads a hex string; the opening angle bracket is already consumed.
func (l *lexer) hex() []byte {
	var digits []byte
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		l.pos++
		if c == '>' {
			break
		}
		if _, ok := hexValue(c); ok {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		hi, _ := hexValue(digits[i])
		lo, _ := hexValue(digits[i+1])
		out = append(out, hi<<4|lo)
	}
	return out
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// decodeBytes reads UTF-16BE strings (with byte order mark) as such and
// everything else as single byte text.
func decodeBytes(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		b = b[2:]
		units := make([]uint16, 0, len(b)/2)
		for i := 0; i+1 < len(b); i += 2 {
			units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(units))
	}
	runes := make([]rune, 0, len(b))
	for _, c := range b {
		runes = append(runes, rune(c))
	}
	return string(runes)
}
