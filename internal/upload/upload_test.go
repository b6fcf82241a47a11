package upload

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01")
	pdfHeader  = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		wantCT   string
		wantErr  error
	}{
		{"png", "front.png", pngHeader, "image/png", nil},
		{"jpeg upper ext", "front.JPEG", jpegHeader, "image/jpeg", nil},
		{"pdf", "scan.pdf", pdfHeader, "application/pdf", nil},
		{"path stripped", "../../etc/front.png", pngHeader, "image/png", nil},
		{"unsupported ext", "front.gif", []byte("GIF89a....."), "", ErrUnsupportedType},
		{"mismatch", "front.pdf", pngHeader, "", ErrTypeMismatch},
		{"empty", "front.png", nil, "", ErrEmpty},
		{"no name", "  ", pngHeader, "", ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.filename, tt.data, 1<<20)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCT, f.ContentType)
			assert.NotContains(t, f.Name, "/")
			assert.Equal(t, int64(len(tt.data)), f.Size())
		})
	}
}

func TestNew_TooLarge(t *testing.T) {
	_, err := New("front.png", pngHeader, 4)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFromDataURL(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString(pngHeader)

	f, err := FromDataURL("front.png", "data:image/png;base64,"+enc, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, f.Data)
	assert.Equal(t, ".png", f.Ext)

	f, err = FromDataURL("front.png", enc, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.ContentType)

	wrapped := enc[:8] + "\n" + enc[8:]
	_, err = FromDataURL("front.png", "data:image/png;base64,"+wrapped, 1<<20)
	assert.NoError(t, err)
}

func TestFromDataURL_Errors(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString(pngHeader)

	_, err := FromDataURL("front.png", "data:image/png,"+enc, 1<<20)
	assert.ErrorIs(t, err, ErrInvalidDataURL)

	_, err = FromDataURL("front.png", "data:image/png;base64", 1<<20)
	assert.ErrorIs(t, err, ErrInvalidDataURL)

	_, err = FromDataURL("front.png", "data:image/png;base64,!!!notbase64", 1<<20)
	assert.ErrorIs(t, err, ErrInvalidDataURL)

	_, err = FromDataURL("front.png", "data:application/pdf;base64,"+enc, 1<<20)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = FromDataURL("front.png", "", 1<<20)
	assert.ErrorIs(t, err, ErrEmpty)

	big := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 4096)))
	_, err = FromDataURL("front.png", "data:image/png;base64,"+big, 1024)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFromDataURL_JPGAlias(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString(jpegHeader)
	_, err := FromDataURL("front.jpg", "data:image/jpg;base64,"+enc, 1<<20)
	assert.NoError(t, err)
}
