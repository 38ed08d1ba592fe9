package pipeline

import (
	"context"

	"marktscan/internal/cache"
	"marktscan/internal/config"
	"marktscan/internal/logging"
	"marktscan/internal/logging/types"
	"marktscan/internal/scraper"
	"marktscan/internal/scraper/enrich"
	"marktscan/internal/scraper/listing"
	"marktscan/pkg/models"
	"marktscan/pkg/utils"
)

// Pipeline runs the full scrape for one request: walk the result pages,
// enrich the items that came back without a price, then reconcile the batch
// against the advertised total.
type Pipeline struct {
	config  *config.Config
	factory scraper.FetcherFactory
	cache   *cache.ResultCache
	logger  types.Logger
}

// New creates a pipeline over the given fetcher factory and result cache.
func New(cfg *config.Config, factory scraper.FetcherFactory, resultCache *cache.ResultCache) *Pipeline {
	return &Pipeline{
		config:  cfg,
		factory: factory,
		cache:   resultCache,
		logger:  logging.GetGlobalLogger().WithField("component", "pipeline"),
	}
}

// Run executes the scrape and reports whether the result came from cache.
// Inconsistent batches surface as *listing.InconsistentCountError.
func (p *Pipeline) Run(ctx context.Context, req *models.ScrapeListingsRequest) (*models.ScrapeResult, bool, error) {
	pageSize := utils.IntOrDefault(req.PageSize, p.config.Walker.PageSize)
	maxPages := utils.IntOrDefault(req.MaxPages, p.config.Walker.MaxPages)

	key := cache.Key(req.URL, pageSize, maxPages)
	if !req.NoCache {
		if cached := p.cache.Get(key); cached != nil {
			p.logger.Debug("Cache hit", map[string]interface{}{
				"url": req.URL,
			})
			return cached, true, nil
		}
	}

	engine := ""
	if req.Options != nil {
		engine = req.Options.Engine
	}
	fetcher, err := p.factory.CreateFetcher(engine)
	if err != nil {
		return nil, false, err
	}

	scanner := listing.NewScanner(fetcher, p.config.Scraper.RequestTimeout)
	walker := listing.NewWalker(scanner, p.config)

	result, err := walker.Walk(ctx, req.URL, pageSize, maxPages)
	if err != nil {
		return nil, false, err
	}

	scheduler := enrich.NewScheduler(fetcher, p.config)
	scheduler.EnrichAll(ctx, result.Items, nil)

	outcome, err := listing.Reconcile(result)
	if err != nil {
		return nil, false, err
	}

	p.logger.Info("Scrape pipeline finished", map[string]interface{}{
		"url":     req.URL,
		"items":   result.Count,
		"outcome": string(outcome),
	})

	p.cache.Set(key, result)
	return result, false, nil
}
