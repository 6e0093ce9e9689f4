// Package resume ingests candidate resumes: format validation, text
// extraction and chunking for embedding.
package resume

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rotisserie/eris"
)

// ErrUnsupportedFormat is returned for uploads that are neither PDF nor
// plain text.
var ErrUnsupportedFormat = errors.New("resume: only PDF and plain text files are supported")

// ErrEmptyResume is returned when no usable text could be extracted.
var ErrEmptyResume = errors.New("resume: no extractable text")

// Document is an ingested resume ready for chunking.
type Document struct {
	Filename  string
	Text      string
	PageCount int
}

// Ingest validates the uploaded file and extracts its text. PDFs are
// checked with pdfcpu before extraction; anything unreadable fails here
// rather than surfacing later as a broken interview context.
func Ingest(filename string, data []byte) (*Document, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ingestPDF(filename, data)
	case ".txt", ".md":
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, ErrEmptyResume
		}
		return &Document{Filename: filename, Text: text, PageCount: 1}, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

func ingestPDF(filename string, data []byte) (*Document, error) {
	pageCount, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, eris.Wrap(err, "resume: invalid pdf")
	}

	text, err := extractPDFText(data)
	if err != nil {
		return nil, eris.Wrap(err, "resume: extract pdf text")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResume
	}

	return &Document{Filename: filename, Text: text, PageCount: pageCount}, nil
}
