package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTextRejectsNonPDF(t *testing.T) {
	e := NewExtractor(t.TempDir())

	_, err := e.ExtractText(context.Background(), []byte("this is not a pdf"))

	assert.Error(t, err)
}

func TestPageCountRejectsNonPDF(t *testing.T) {
	_, err := NewExtractor("").PageCount([]byte("%PDF-garbage"))

	assert.Error(t, err)
}
