// Package tesseract adapts gosseract to the ocr.Engine interface.
package tesseract

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Whitelist restricts recognition to characters that appear on Brazilian receipts.
const Whitelist = "0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz" +
	"ÁÀÂÃÉÊÍÓÔÕÚÇáàâãéêíóôõúç" +
	"R$%,.-/:*x=() "

// Engine runs Tesseract through gosseract. A new client is created for every
// call and closed before returning.
type Engine struct {
	language string
}

// NewEngine creates an Engine for the given Tesseract language code.
func NewEngine(language string) *Engine {
	if language == "" {
		language = "por"
	}
	return &Engine{language: language}
}

// Recognize implements ocr.Engine.
func (e *Engine) Recognize(image []byte) (string, float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return "", 0, fmt.Errorf("setting language %q: %w", e.language, err)
	}
	if err := client.SetVariable("tessedit_char_whitelist", Whitelist); err != nil {
		return "", 0, fmt.Errorf("setting whitelist: %w", err)
	}
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		return "", 0, fmt.Errorf("setting interword spaces: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", 0, fmt.Errorf("setting page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", 0, fmt.Errorf("loading image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("recognizing text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return text, 0, nil
	}
	return text, meanConfidence(boxes), nil
}

func meanConfidence(boxes []gosseract.BoundingBox) float64 {
	if len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}
