package parser

import (
	"fmt"

	"agroprice/internal/config"
	"agroprice/internal/port"
)

// ProviderFactory is a function that creates a PriceExtractor from the vision config.
type ProviderFactory func(cfg *config.VisionConfig) (port.PriceExtractor, error)

// registry of vision provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a vision provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates a PriceExtractor from the vision config using the registered factory.
func NewExtractor(cfg *config.VisionConfig) (port.PriceExtractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown vision provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
