package preprocess_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savemymoney/internal/config"
	"savemymoney/internal/preprocess"
)

func enabledConfig() config.PreprocessConfig {
	return config.PreprocessConfig{
		Enabled:        true,
		MaxDimension:   2000,
		ContrastFactor: 30,
		BlurSigma:      0.5,
		UpscaleFactor:  2,
	}
}

// receiptImage draws dark "text" stripes on a light background.
func receiptImage(w, h int) *image.NRGBA {
	img := imaging.New(w, h, color.NRGBA{R: 230, G: 225, B: 220, A: 255})
	for y := 0; y < h; y++ {
		if (y/4)%3 != 0 {
			continue
		}
		for x := 2; x < w-2; x++ {
			img.Set(x, y, color.NRGBA{R: 30, G: 30, B: 40, A: 255})
		}
	}
	return img
}

func encode(t *testing.T, img image.Image, format imaging.Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func TestOtsuThreshold_Bimodal(t *testing.T) {
	var hist [256]int
	hist[20] = 500
	hist[30] = 300
	hist[200] = 400
	hist[220] = 600

	threshold := preprocess.OtsuThreshold(hist)

	assert.GreaterOrEqual(t, threshold, uint8(30))
	assert.Less(t, threshold, uint8(200))
}

func TestOtsuThreshold_EmptyHistogram(t *testing.T) {
	var hist [256]int
	assert.Equal(t, uint8(127), preprocess.OtsuThreshold(hist))
}

func TestOtsuThreshold_SingleValue(t *testing.T) {
	var hist [256]int
	hist[90] = 1000
	assert.Equal(t, uint8(127), preprocess.OtsuThreshold(hist))
}

func TestBinarize_SplitsOnThreshold(t *testing.T) {
	img := imaging.New(2, 1, color.NRGBA{A: 255})
	img.Set(0, 0, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	img.Set(1, 0, color.NRGBA{R: 101, G: 101, B: 101, A: 255})

	out := preprocess.Binarize(img, 100)

	assert.Equal(t, color.NRGBA{A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(1, 0))
}

func TestHistogram_CountsPixels(t *testing.T) {
	img := imaging.New(3, 2, color.NRGBA{R: 10, G: 10, B: 10, A: 255})

	hist := preprocess.Histogram(img)

	assert.Equal(t, 6, hist[10])
	assert.InDelta(t, 10.0, preprocess.MeanLuminance(img), 0.001)
}

func TestProcess_PNGIsUpscaledAndStaysPNG(t *testing.T) {
	p := preprocess.NewPreprocessor(enabledConfig())
	data := encode(t, receiptImage(60, 40), imaging.PNG)

	out, mimeType := p.Process(context.Background(), data)

	assert.Equal(t, "image/png", mimeType)
	decoded, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 120, decoded.Bounds().Dx())
	assert.Equal(t, 80, decoded.Bounds().Dy())
}

func TestProcess_JPEGInputEncodesJPEG(t *testing.T) {
	p := preprocess.NewPreprocessor(enabledConfig())
	data := encode(t, receiptImage(40, 40), imaging.JPEG)

	out, mimeType := p.Process(context.Background(), data)

	assert.Equal(t, "image/jpeg", mimeType)
	assert.NotEqual(t, data, out)
}

func TestProcess_BoundsLongestSide(t *testing.T) {
	cfg := enabledConfig()
	cfg.MaxDimension = 50
	cfg.UpscaleFactor = 1
	p := preprocess.NewPreprocessor(cfg)
	data := encode(t, receiptImage(100, 20), imaging.PNG)

	out, _ := p.Process(context.Background(), data)

	decoded, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, decoded.Bounds().Dx())
	assert.Equal(t, 10, decoded.Bounds().Dy())
}

func TestProcess_UndecodableReturnsOriginal(t *testing.T) {
	p := preprocess.NewPreprocessor(enabledConfig())
	data := []byte("definitely not an image")

	out, mimeType := p.Process(context.Background(), data)

	assert.Equal(t, data, out)
	assert.Equal(t, "text/plain; charset=utf-8", mimeType)
}

func TestProcess_DisabledReturnsOriginal(t *testing.T) {
	cfg := enabledConfig()
	cfg.Enabled = false
	p := preprocess.NewPreprocessor(cfg)
	data := encode(t, receiptImage(10, 10), imaging.PNG)

	out, mimeType := p.Process(context.Background(), data)

	assert.Equal(t, data, out)
	assert.Equal(t, "image/png", mimeType)
}

func TestProcess_CancelledContextReturnsOriginal(t *testing.T) {
	p := preprocess.NewPreprocessor(enabledConfig())
	data := encode(t, receiptImage(20, 20), imaging.PNG)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, _ := p.Process(ctx, data)

	assert.Equal(t, data, out)
}
