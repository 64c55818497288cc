package jdtext

import (
	"testing"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

func TestExtractPlainText(t *testing.T) {
	got, err := NewExtractor().Extract([]byte("  Senior Backend Engineer\n\n- Go\n"), "posting.txt")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != "Senior Backend Engineer\n\n- Go" {
		t.Fatalf("text = %q", got)
	}
}

func TestExtractRejectsBinaryAsPlain(t *testing.T) {
	_, err := NewExtractor().Extract([]byte{0xff, 0xfe, 0x00, 0x01}, "posting.docx")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestExtractRejectsCorruptPDF(t *testing.T) {
	_, err := NewExtractor().Extract([]byte("not a pdf"), "posting.pdf")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}
