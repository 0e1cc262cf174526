// Package preprocess prepares receipt photos for local OCR.
package preprocess

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"net/http"

	"github.com/disintegration/imaging"

	"savemymoney/internal/config"
)

// sharpenKernel is the 3x3 convolution applied before binarization.
var sharpenKernel = [9]float64{
	0, -1, 0,
	-1, 5, -1,
	0, -1, 0,
}

// Preprocessor implements port.ImagePreprocessor using the imaging library.
type Preprocessor struct {
	cfg config.PreprocessConfig
}

// NewPreprocessor creates a Preprocessor. Zero values in cfg fall back to defaults.
func NewPreprocessor(cfg config.PreprocessConfig) *Preprocessor {
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = 2000
	}
	if cfg.ContrastFactor == 0 {
		cfg.ContrastFactor = 30
	}
	if cfg.BlurSigma < 0 {
		cfg.BlurSigma = 0
	}
	if cfg.UpscaleFactor < 1 {
		cfg.UpscaleFactor = 2
	}
	return &Preprocessor{cfg: cfg}
}

// Process cleans the image for OCR and returns the encoded bytes with their MIME
// type. It never fails: on any error the original bytes are returned.
func (p *Preprocessor) Process(ctx context.Context, data []byte) (out []byte, mimeType string) {
	original := DetectContentType(data)
	if !p.cfg.Enabled || len(data) == 0 {
		return data, original
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("preprocess.Process: recovered from panic: %v", r)
			out, mimeType = data, original
		}
	}()

	processed, mt, err := p.process(ctx, data, original)
	if err != nil {
		log.Printf("preprocess.Process: falling back to original image: %v", err)
		return data, original
	}
	return processed, mt
}

func (p *Preprocessor) process(ctx context.Context, data []byte, original string) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	img = fitWithin(img, p.cfg.MaxDimension)

	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, p.cfg.ContrastFactor)
	gray = normalizeBrightness(gray)
	gray = imaging.Convolve3x3(gray, sharpenKernel, nil)

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	threshold := OtsuThreshold(Histogram(gray))
	gray = Binarize(gray, threshold)

	if p.cfg.BlurSigma > 0 {
		gray = imaging.Blur(gray, p.cfg.BlurSigma)
	}

	b := gray.Bounds()
	w := int(float64(b.Dx()) * p.cfg.UpscaleFactor)
	h := int(float64(b.Dy()) * p.cfg.UpscaleFactor)
	if w > b.Dx() && h > b.Dy() {
		gray = imaging.Resize(gray, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	format, mimeType := imaging.JPEG, "image/jpeg"
	if original == "image/png" {
		format, mimeType = imaging.PNG, "image/png"
	}
	if err := imaging.Encode(&buf, gray, format, imaging.JPEGQuality(95)); err != nil {
		return nil, "", fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), mimeType, nil
}

// fitWithin bounds the longest side of img to maxDim, keeping the aspect ratio.
func fitWithin(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return img
	}
	if b.Dx() >= b.Dy() {
		return imaging.Resize(img, maxDim, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDim, imaging.Lanczos)
}

// normalizeBrightness shifts the mean luminance of a grayscale image toward mid-gray.
func normalizeBrightness(img *image.NRGBA) *image.NRGBA {
	mean := MeanLuminance(img)
	if mean == 0 {
		return img
	}
	shift := (128 - mean) / 255 * 100
	if shift > -1 && shift < 1 {
		return img
	}
	return imaging.AdjustBrightness(img, shift)
}

// MeanLuminance returns the average red channel value of a grayscale image.
func MeanLuminance(img *image.NRGBA) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum int
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			sum += int(row[x])
		}
	}
	return float64(sum) / float64(n)
}

// Histogram builds a 256-bin histogram from the red channel of a grayscale image.
func Histogram(img *image.NRGBA) [256]int {
	var hist [256]int
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			hist[row[x]]++
		}
	}
	return hist
}

// OtsuThreshold returns the threshold that maximizes between-class variance.
// Pixels with a value above the threshold belong to the foreground class.
func OtsuThreshold(hist [256]int) uint8 {
	total := 0
	var sumAll float64
	for i, c := range hist {
		total += c
		sumAll += float64(i * c)
	}
	if total == 0 {
		return 127
	}

	var (
		sumB     float64
		wB       int
		best     float64
		bestT    int
		foundAny bool
	)
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sumAll - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if !foundAny || between > best {
			best = between
			bestT = t
			foundAny = true
		}
	}
	if !foundAny {
		return 127
	}
	return uint8(bestT)
}

// Binarize maps every pixel above threshold to white and the rest to black.
func Binarize(img *image.NRGBA, threshold uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if c.R > threshold {
			return color.NRGBA{R: 255, G: 255, B: 255, A: c.A}
		}
		return color.NRGBA{A: c.A}
	})
}

// DetectContentType sniffs the MIME type of an image buffer.
func DetectContentType(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(data)
}
