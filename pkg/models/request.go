package models

import "time"

// ScrapeListingsRequest is the request payload for scraping a paginated
// marketplace search feed.
type ScrapeListingsRequest struct {
	URL      string         `json:"url" validate:"required,url"`
	PageSize int            `json:"pageSize" validate:"omitempty,min=1,max=100"`
	MaxPages int            `json:"maxPages" validate:"omitempty,min=1,max=50"`
	NoCache  bool           `json:"noCache"`
	Options  *ScrapeOptions `json:"options,omitempty"`
}

// ScrapeOptions provides additional configuration for scraping requests
type ScrapeOptions struct {
	Engine  string        `json:"engine,omitempty"` // "headed", "firecrawl"
	Timeout time.Duration `json:"timeout,omitempty"`
}

// EnrichListingsRequest is the request payload for a standalone asynchronous
// price-enrichment pass over previously scraped records.
type EnrichListingsRequest struct {
	Items   []*ListingRecord `json:"items" validate:"required,min=1"`
	Options *ScrapeOptions   `json:"options,omitempty"`
}
