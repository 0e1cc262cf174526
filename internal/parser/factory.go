package parser

import (
	"fmt"

	"savemymoney/internal/config"
	"savemymoney/internal/port"
)

// ProviderFactory is a function that creates a VisionExtractor from a provider config.
type ProviderFactory func(cfg *config.ParserProviderConfig) (port.VisionExtractor, error)

// registry of vision provider factories, populated via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a vision provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates a VisionExtractor from a provider config using the registered factory.
func NewExtractor(cfg *config.ParserProviderConfig) (port.VisionExtractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown vision provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
