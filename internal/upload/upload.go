// Package upload decodes and validates identity documents submitted by the
// onboarding form, either as multipart files or as base64 data URLs.
package upload

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

var (
	ErrEmpty           = errors.New("file is empty")
	ErrTooLarge        = errors.New("file exceeds size limit")
	ErrUnsupportedType = errors.New("only jpg, png and pdf files are accepted")
	ErrTypeMismatch    = errors.New("file content does not match its extension")
	ErrInvalidDataURL  = errors.New("invalid data url")
	ErrInvalidName     = errors.New("invalid filename")
)

// contentTypes maps accepted extensions to the type sniffed from the bytes.
var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// File is a validated document ready for storage.
type File struct {
	Name        string
	Ext         string
	ContentType string
	Data        []byte
}

// Size returns the length of the payload in bytes.
func (f File) Size() int64 { return int64(len(f.Data)) }

// New validates data uploaded as name. The content type is derived from the
// bytes and must agree with the extension.
func New(name string, data []byte, maxBytes int64) (File, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return File{}, ErrInvalidName
	}
	if len(data) == 0 {
		return File{}, ErrEmpty
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return File{}, ErrTooLarge
	}

	ext := strings.ToLower(filepath.Ext(name))
	want, ok := contentTypes[ext]
	if !ok {
		return File{}, ErrUnsupportedType
	}
	got := sniff(data)
	if got != want {
		return File{}, fmt.Errorf("%w: %s is %s", ErrTypeMismatch, ext, got)
	}
	return File{Name: name, Ext: ext, ContentType: want, Data: data}, nil
}

// FromDataURL decodes a "data:<mime>;base64,<payload>" string as produced by
// FileReader.readAsDataURL and validates it like New. A bare base64 payload
// without the data: header is accepted as well.
func FromDataURL(name, dataURL string, maxBytes int64) (File, error) {
	payload, declared, err := splitDataURL(dataURL)
	if err != nil {
		return File{}, err
	}
	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return File{}, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}

	f, err := New(name, data, maxBytes)
	if err != nil {
		return File{}, err
	}
	if declared != "" && declared != "application/octet-stream" && normalizeMIME(declared) != f.ContentType {
		return File{}, fmt.Errorf("%w: declared %s", ErrTypeMismatch, declared)
	}
	return f, nil
}

func splitDataURL(s string) (payload, mime string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", ErrEmpty
	}
	if strings.HasPrefix(s, "data:") {
		header, rest, ok := strings.Cut(s, ",")
		if !ok {
			return "", "", ErrInvalidDataURL
		}
		meta := strings.TrimPrefix(header, "data:")
		params := strings.Split(meta, ";")
		if params[len(params)-1] != "base64" {
			return "", "", fmt.Errorf("%w: payload must be base64 encoded", ErrInvalidDataURL)
		}
		mime = strings.ToLower(params[0])
		s = rest
	}
	// Some clients wrap long payloads.
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return "", "", ErrEmpty
	}
	return s, mime, nil
}

func sniff(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

func normalizeMIME(m string) string {
	if m == "image/jpg" || m == "image/pjpeg" {
		return "image/jpeg"
	}
	return m
}
