package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pageFilePattern = regexp.MustCompile(`Content_page_(\d+)`)

// Result is the text of a PDF in page order.
type Result struct {
	Text      string
	PageCount int
}

// Extractor reads text out of PDF bytes with pdfcpu.
type Extractor struct {
	tempDir string
}

func NewExtractor(tempDir string) *Extractor {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Extractor{tempDir: tempDir}
}

// PageCount validates the PDF and reports its number of pages.
func (e *Extractor) PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	return pdfCtx.PageCount, nil
}

// ExtractText returns the text of every page, separated by blank lines.
func (e *Extractor) ExtractText(ctx context.Context, data []byte) (*Result, error) {
	workDir, err := os.MkdirTemp(e.tempDir, "pdf-extract-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	tempFile := filepath.Join(workDir, "source.pdf")
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF file: %w", err)
	}

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outDir := filepath.Join(workDir, "pages")
	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract PDF content: %w", err)
	}

	pageTexts, err := readPageFiles(outDir)
	if err != nil {
		return nil, err
	}

	return &Result{
		Text:      joinPages(pageTexts),
		PageCount: pdfCtx.PageCount,
	}, nil
}

func readPageFiles(dir string) (map[int]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted content: %w", err)
	}

	pageTexts := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pageFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		pageNum, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d content: %w", pageNum, err)
		}
		pageTexts[pageNum] += TextFromContent(string(content))
	}
	return pageTexts, nil
}

func joinPages(pageTexts map[int]string) string {
	pages := make([]int, 0, len(pageTexts))
	for p := range pageTexts {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if text := strings.TrimSpace(pageTexts[p]); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}
