package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"
)

// mockRenditionStore implements the consumer interface for tests.
type mockRenditionStore struct {
	saveFn   func(ctx context.Context, name string, data []byte) error
	removeFn func(ctx context.Context, names ...string) error
}

func (m *mockRenditionStore) Save(ctx context.Context, name string, data []byte) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, name, data)
	}
	return nil
}

func (m *mockRenditionStore) Remove(ctx context.Context, names ...string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, names...)
	}
	return nil
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func encodeGIF(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}
