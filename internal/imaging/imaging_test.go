package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/erazemk/katalog/internal/model"
)

// 1x1 lossless WebP.
const tinyWebP = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestProcessJPEG(t *testing.T) {
	result, err := Processor{}.Process(bytes.NewReader(createTestJPEG(100, 100)))
	if err != nil {
		t.Fatalf("Process JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty data")
	}
	if result.Width != 100 || result.Height != 100 {
		t.Errorf("expected 100x100, got %dx%d", result.Width, result.Height)
	}
}

func TestProcessPNG(t *testing.T) {
	result, err := Processor{}.Process(bytes.NewReader(createTestPNG(100, 100)))
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg (always outputs JPEG), got %s", result.MIME)
	}
}

func TestProcessWebP(t *testing.T) {
	data, err := base64.StdEncoding.DecodeString(tinyWebP)
	if err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	result, err := Processor{}.Process(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Process WebP: %v", err)
	}
	if result.Width != 1 || result.Height != 1 {
		t.Errorf("expected 1x1, got %dx%d", result.Width, result.Height)
	}
}

func TestProcessDownscale(t *testing.T) {
	data := createTestJPEG(2048, 1024)
	result, err := Processor{MaxDimension: 512}.Process(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Process large image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 512 || bounds.Dy() != 256 {
		t.Errorf("expected 512x256, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestProcessDefaultMaxDimension(t *testing.T) {
	result, err := Processor{}.Process(bytes.NewReader(createTestJPEG(2048, 2048)))
	if err != nil {
		t.Fatalf("Process large image: %v", err)
	}
	if result.Width > DefaultMaxDimension || result.Height > DefaultMaxDimension {
		t.Errorf("expected max %d, got %dx%d", DefaultMaxDimension, result.Width, result.Height)
	}
}

func TestProcessSmallImageNotUpscaled(t *testing.T) {
	result, err := Processor{}.Process(bytes.NewReader(createTestJPEG(50, 50)))
	if err != nil {
		t.Fatalf("Process small image: %v", err)
	}
	if result.Width != 50 || result.Height != 50 {
		t.Errorf("small image should not be resized: got %dx%d", result.Width, result.Height)
	}
}

func TestProcessInvalidFormat(t *testing.T) {
	_, err := Processor{}.Process(bytes.NewReader([]byte("not an image")))
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProcessGIFRejected(t *testing.T) {
	_, err := Processor{}.Process(bytes.NewReader([]byte("GIF89a...")))
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for GIF, got %v", err)
	}
}

func TestProcessTooLarge(t *testing.T) {
	data := createTestPNG(64, 64)
	_, err := Processor{MaxBytes: 16}.Process(bytes.NewReader(data))
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for oversized upload, got %v", err)
	}
}
