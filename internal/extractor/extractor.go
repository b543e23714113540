// Package extractor turns uploaded documents into plain text.
package extractor

import (
	"context"
	"errors"
)

var (
	ErrInvalidPDF   = errors.New("failed to parse PDF")
	ErrNoText       = errors.New("could not extract text from PDF")
	ErrTooManyPages = errors.New("PDF exceeds the page limit")
)

type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}
