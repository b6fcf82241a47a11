package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 40, 25))
	for x := 0; x < 40; x++ {
		for y := 0; y < 25; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 10), B: 120, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(), nil))
	return buf.Bytes()
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, TypePDF, TypeOf("scan.PDF"))
	assert.Equal(t, TypeImage, TypeOf("front.jpeg"))
	assert.Equal(t, TypeImage, TypeOf("front.JPG"))
	assert.Equal(t, TypeImage, TypeOf("back.png"))
	assert.Equal(t, TypeUnknown, TypeOf("back.gif"))
	assert.Equal(t, TypeUnknown, TypeOf("noext"))
}

func TestFromImage(t *testing.T) {
	doc, err := FromImage(pngBytes(t))
	require.NoError(t, err)

	n, err := PageCount(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCombine_TwoImages(t *testing.T) {
	out, err := Combine(
		Source{Name: "front.png", Data: pngBytes(t)},
		Source{Name: "back.jpg", Data: jpegBytes(t)},
	)
	require.NoError(t, err)

	n, err := PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCombine_PDFAndImage(t *testing.T) {
	front, err := FromImage(jpegBytes(t))
	require.NoError(t, err)

	out, err := Combine(
		Source{Name: "front.pdf", Data: front},
		Source{Name: "back.png", Data: pngBytes(t)},
	)
	require.NoError(t, err)

	n, err := PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCombine_MultiPagePDFContributesFirstPage(t *testing.T) {
	twoPages, err := Combine(
		Source{Name: "a.png", Data: pngBytes(t)},
		Source{Name: "b.png", Data: pngBytes(t)},
	)
	require.NoError(t, err)

	out, err := Combine(
		Source{Name: "front.pdf", Data: twoPages},
		Source{Name: "back.png", Data: pngBytes(t)},
	)
	require.NoError(t, err)

	n, err := PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCombine_UnsupportedType(t *testing.T) {
	_, err := Combine(
		Source{Name: "front.gif", Data: []byte("GIF89a")},
		Source{Name: "back.png", Data: pngBytes(t)},
	)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestCombine_EmptyInput(t *testing.T) {
	_, err := Combine()
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = Combine(Source{Name: "front.png"})
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestCombine_CorruptPDF(t *testing.T) {
	_, err := Combine(
		Source{Name: "front.pdf", Data: []byte("not a pdf")},
		Source{Name: "back.png", Data: pngBytes(t)},
	)
	assert.Error(t, err)
}
