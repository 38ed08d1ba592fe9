package scraper

import (
	"fmt"

	"marktscan/internal/config"
	"marktscan/pkg/utils"
)

// DefaultFetcherFactory implements FetcherFactory over the registered engines
type DefaultFetcherFactory struct {
	config   *config.Config
	fetchers map[string]PageFetcher
}

// NewFetcherFactory creates a new fetcher factory. Engines are registered by
// the caller so the factory stays free of engine package imports.
func NewFetcherFactory(cfg *config.Config) *DefaultFetcherFactory {
	return &DefaultFetcherFactory{
		config:   cfg,
		fetchers: make(map[string]PageFetcher),
	}
}

// Register makes an engine available under the given name
func (f *DefaultFetcherFactory) Register(engine string, fetcher PageFetcher) {
	f.fetchers[engine] = fetcher
}

// CreateFetcher returns the fetcher for the given engine name, falling back
// to the configured default when engine is empty.
func (f *DefaultFetcherFactory) CreateFetcher(engine string) (PageFetcher, error) {
	engine = utils.GetStringOrDefault(engine, f.config.Scraper.DefaultEngine)

	fetcher, ok := f.fetchers[engine]
	if !ok {
		return nil, fmt.Errorf("unsupported engine: %s (supported: %v)", engine, f.GetSupportedEngines())
	}
	return fetcher, nil
}

// GetSupportedEngines returns a list of supported engine types
func (f *DefaultFetcherFactory) GetSupportedEngines() []string {
	engines := make([]string, 0, len(f.fetchers))
	for name := range f.fetchers {
		engines = append(engines, name)
	}
	return engines
}
