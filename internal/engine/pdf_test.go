package engine

import (
	"context"
	"testing"
)

func TestPlainTextPDF_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("hello, this is plain text")},
		{"truncated header", []byte("%PDF-1.4\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := (PlainTextPDF{}).Extract(context.Background(), tt.data); err == nil {
				t.Error("Extract() error = nil, want error")
			}
		})
	}
}

func TestPlainTextPDF_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (PlainTextPDF{}).Extract(ctx, []byte("%PDF-1.4")); err == nil {
		t.Error("Extract() error = nil, want context error")
	}
}
