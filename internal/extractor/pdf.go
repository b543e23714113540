package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// pdfcpu would otherwise create a config directory under $HOME.
	api.DisableConfigDir()
}

type PDFExtractor struct {
	maxPages int
}

func NewPDFExtractor(maxPages int) *PDFExtractor {
	return &PDFExtractor{maxPages: maxPages}
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrInvalidPDF
	}

	// pdfcpu is stricter than the text parser, so an ordinary count error
	// falls through. A panic while counting means the file is unusable.
	n, err := CountPages(data)
	switch {
	case errors.Is(err, ErrInvalidPDF):
		return "", err
	case err == nil && e.maxPages > 0 && n > e.maxPages:
		return "", fmt.Errorf("%w: %d pages, limit %d", ErrTooManyPages, n, e.maxPages)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := ExtractPDF(data, e.maxPages)
	if err != nil {
		return "", err
	}
	return text, nil
}

var pageCount = api.PageCount

// CountPages reads the page tree with pdfcpu in relaxed validation mode.
// A parser panic is reported as ErrInvalidPDF.
func CountPages(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return pageCount(bytes.NewReader(data), cfg)
}

// ExtractPDF returns the cleaned plain text of every page. maxPages <= 0
// means no limit.
func ExtractPDF(data []byte, maxPages int) (text string, err error) {
	// The PDF parser panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	reader := bytes.NewReader(data)

	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	numPages := pdfReader.NumPage()
	if maxPages > 0 && numPages > maxPages {
		return "", fmt.Errorf("%w: %d pages, limit %d", ErrTooManyPages, numPages, maxPages)
	}

	var textBuilder strings.Builder
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n")
	}

	extractedText := cleanText(textBuilder.String())
	if extractedText == "" {
		return "", ErrNoText
	}

	return extractedText, nil
}
