package jdtext

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/mkravets/resume-tailor/internal/core/domain"
)

// Extractor pulls plain JD text out of an uploaded posting. Plain text
// passes through; PDFs are unpacked page by page.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(data []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(data)
	default:
		return extractPlain(data, filename)
	}
}

func extractPlain(data []byte, filename string) (string, error) {
	if !utf8.Valid(data) {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract jd text",
			fmt.Errorf("unsupported binary format: %s", filename))
	}
	return strings.TrimSpace(string(data)), nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract jd text",
			fmt.Errorf("open pdf: %w", err))
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract jd text",
			fmt.Errorf("read pdf text: %w", err))
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf stream: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
