package tesseract

import (
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"github.com/stretchr/testify/assert"
)

func TestMeanConfidence(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Word: "ARROZ", Confidence: 90},
		{Word: "5,49", Confidence: 70},
	}

	assert.InDelta(t, 80.0, meanConfidence(boxes), 0.001)
	assert.Equal(t, 0.0, meanConfidence(nil))
}

func TestWhitelist_CoversReceiptCharacters(t *testing.T) {
	for _, r := range "R$ 1.234,56 AÇÚCAR ção 12/10/2024 10:30 x = (%)" {
		assert.True(t, strings.ContainsRune(Whitelist, r), "missing %q", r)
	}
}

func TestNewEngine_DefaultLanguage(t *testing.T) {
	assert.Equal(t, "por", NewEngine("").language)
	assert.Equal(t, "eng", NewEngine("eng").language)
}
