package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixedWidth measures every rune as 5pt regardless of style.
type fixedWidth struct{}

func (fixedWidth) StringWidth(s string, _ TextStyle) float64 {
	return float64(len([]rune(s))) * 5
}

// stubResolver serves images by reference; unknown references fail.
type stubResolver map[string]ImageResult

func (s stubResolver) Resolve(_ context.Context, ref string) ImageResult {
	if res, ok := s[ref]; ok {
		return res
	}
	return ImageResult{Err: errEmptyRef}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: 80, B: uint8(y * 10), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testImage(t *testing.T, w, h int) *Image {
	t.Helper()
	img, err := decodeImage(pngBytes(t, w, h), 0)
	require.NoError(t, err)
	return img
}
