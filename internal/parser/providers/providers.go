// Package providers wires the concrete vision model clients into the parser registry.
package providers

import (
	"fmt"
	"log"
	"sync"

	"savemymoney/internal/config"
	"savemymoney/internal/parser"
	"savemymoney/internal/parser/claude"
	"savemymoney/internal/parser/gemini"
	"savemymoney/internal/parser/openai"
	"savemymoney/internal/port"
)

var registerOnce sync.Once

// RegisterAll registers the built-in vision providers. Safe to call more than once.
func RegisterAll() {
	registerOnce.Do(func() {
		parser.RegisterProvider("openai", func(cfg *config.ParserProviderConfig) (port.VisionExtractor, error) {
			return openai.NewExtractor(cfg), nil
		})
		parser.RegisterProvider("gemini", func(cfg *config.ParserProviderConfig) (port.VisionExtractor, error) {
			return gemini.NewExtractor(cfg), nil
		})
		parser.RegisterProvider("claude", func(cfg *config.ParserProviderConfig) (port.VisionExtractor, error) {
			return claude.NewExtractor(cfg), nil
		})
	})
}

// BuildVisionExtractor assembles the vision extractor chain from configuration.
// It returns nil when no provider has a credential, in which case the vision
// leg is skipped entirely.
func BuildVisionExtractor(cfg *config.VisionConfig) (port.VisionExtractor, error) {
	RegisterAll()

	configured := cfg.Providers()
	if len(configured) == 0 {
		log.Println("providers.BuildVisionExtractor: no vision provider configured, using OCR parser only")
		return nil, nil
	}

	extractors := make([]port.VisionExtractor, 0, len(configured))
	for _, pc := range configured {
		ex, err := parser.NewExtractor(pc)
		if err != nil {
			return nil, fmt.Errorf("creating %s vision extractor: %w", pc.Provider, err)
		}
		extractors = append(extractors, ex)
	}

	var chain port.VisionExtractor
	if len(extractors) == 1 {
		chain = extractors[0]
	} else {
		chain = parser.NewFallbackExtractor(extractors)
	}
	log.Printf("providers.BuildVisionExtractor: using %s", chain.Name())
	return parser.NewThrottledExtractor(chain, cfg.RequestsPerMinute), nil
}
