package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor converts PDF bytes into plain text.
type PDFExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// PlainTextPDF extracts the text layer with ledongthuc/pdf.
type PlainTextPDF struct{}

// Extract implements PDFExtractor. Malformed documents can panic inside the
// parser; the panic is returned as an error.
func (PlainTextPDF) Extract(ctx context.Context, data []byte) (text string, err error) {
	metrics.PDFExtractions.Add(1)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
		if err != nil {
			metrics.PDFErrors.Add(1)
		}
	}()

	if len(data) == 0 {
		return "", errors.New("empty pdf")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}
	return buf.String(), nil
}
