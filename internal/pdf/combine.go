// Package pdf assembles uploaded identity documents into a single PDF.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrEmptySource     = errors.New("document is empty")
)

func init() {
	// Keep pdfcpu from creating a configuration directory under $HOME.
	model.ConfigPath = "disable"
}

// Source is one input document. Name is only used for its extension.
type Source struct {
	Name string
	Data []byte
}

// FileType is the input family derived from the extension.
type FileType int

const (
	TypeUnknown FileType = iota
	TypePDF
	TypeImage
)

// TypeOf classifies name by extension.
func TypeOf(name string) FileType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return TypePDF
	case ".jpg", ".jpeg", ".png":
		return TypeImage
	}
	return TypeUnknown
}

func newConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Combine turns each source into a single page and merges them, in order,
// into one PDF. Images become a page of their own; PDFs contribute their
// first page.
func Combine(sources ...Source) ([]byte, error) {
	if len(sources) == 0 {
		return nil, ErrEmptySource
	}

	pages := make([]io.ReadSeeker, 0, len(sources))
	for _, src := range sources {
		page, err := SinglePage(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name, err)
		}
		pages = append(pages, bytes.NewReader(page))
	}

	var out bytes.Buffer
	if err := api.MergeRaw(pages, &out, false, newConf()); err != nil {
		return nil, fmt.Errorf("merge pages: %w", err)
	}

	n, err := PageCount(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("verify merged document: %w", err)
	}
	if n != len(sources) {
		return nil, fmt.Errorf("merged document has %d pages, want %d", n, len(sources))
	}
	return out.Bytes(), nil
}

// SinglePage returns src as a one-page PDF.
func SinglePage(src Source) ([]byte, error) {
	if len(src.Data) == 0 {
		return nil, ErrEmptySource
	}
	switch TypeOf(src.Name) {
	case TypeImage:
		return FromImage(src.Data)
	case TypePDF:
		return FirstPage(src.Data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(src.Name))
}

// FromImage renders a JPEG or PNG onto a new single-page PDF.
func FromImage(img []byte) ([]byte, error) {
	var out bytes.Buffer
	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImages(nil, &out, []io.Reader{bytes.NewReader(img)}, imp, newConf()); err != nil {
		return nil, fmt.Errorf("import image: %w", err)
	}
	return out.Bytes(), nil
}

// FirstPage returns doc trimmed to its first page. Single-page documents are
// returned unchanged after validation.
func FirstPage(doc []byte) ([]byte, error) {
	n, err := PageCount(doc)
	if err != nil {
		return nil, err
	}
	if n == 1 {
		return doc, nil
	}
	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(doc), &out, []string{"1"}, newConf()); err != nil {
		return nil, fmt.Errorf("extract first page: %w", err)
	}
	return out.Bytes(), nil
}

// PageCount reads the number of pages of doc.
func PageCount(doc []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(doc), newConf())
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("read pdf: no pages")
	}
	return n, nil
}
