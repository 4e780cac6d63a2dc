//go:build ocr

package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// captionPNG renders a rough caption-like band of dark pixels on a white
// page crop. Recognition output is not asserted; the image only has to be
// valid input.
func captionPNG(width, height int) []byte {
	img := image.NewGray(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}

	for x := 10; x < width-10; x++ {
		for y := height/2 - 4; y < height/2+4; y++ {
			img.Set(x, y, color.Black)
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func TestNew(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer client.Close()

	if client == nil {
		t.Error("Expected non-nil client")
	}
}

func TestRecognizeImage(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer client.Close()

	// The test image is an abstract bar, so only the call path is checked,
	// not the recognized text.
	_, err = client.RecognizeImage(captionPNG(200, 60))
	if err != nil {
		t.Errorf("RecognizeImage failed: %v", err)
	}
}

func TestRecognizeLines(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer client.Close()

	lines, err := client.RecognizeLines(captionPNG(200, 60))
	if err != nil {
		t.Errorf("RecognizeLines failed: %v", err)
	}

	for _, line := range lines {
		if line.Text == "" {
			t.Error("RecognizeLines returned an empty line")
		}
		if line.Width <= 0 || line.Height <= 0 {
			t.Errorf("line %q has degenerate box %gx%g", line.Text, line.Width, line.Height)
		}
	}
}

func TestSetLanguage(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer client.Close()

	// English should always be available.
	if err := client.SetLanguage("eng"); err != nil {
		t.Errorf("SetLanguage failed: %v", err)
	}
}

func TestSetPageSegMode(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer client.Close()

	if err := client.SetPageSegMode(PSM_SPARSE_TEXT); err != nil {
		t.Errorf("SetPageSegMode failed: %v", err)
	}
}

func TestClose(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	client.client = nil
	if err := client.Close(); err != nil {
		t.Errorf("Close on nil inner client failed: %v", err)
	}
}
