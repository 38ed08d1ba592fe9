package models

// PriceSource records which extraction strategy produced a listing's price,
// or why none was found.
type PriceSource string

const (
	PriceSourceCardMeta      PriceSource = "card-meta"
	PriceSourceCardDOM       PriceSource = "card-dom"
	PriceSourceDetailMeta    PriceSource = "detail-meta"
	PriceSourceDetailJSON    PriceSource = "detail-jsonld"
	PriceSourceDetailDOM     PriceSource = "detail-dom"
	PriceSourceOnRequest     PriceSource = "on-request"
	PriceSourceMissing       PriceSource = "missing"
	PriceSourceDetailTimeout PriceSource = "detail-timeout"
	PriceSourceDetailError   PriceSource = "detail-error"
)

// HasPrice reports whether this source tag corresponds to a known price.
// A record's Price is non-nil exactly when its source HasPrice.
func (s PriceSource) HasPrice() bool {
	switch s {
	case PriceSourceCardMeta, PriceSourceCardDOM, PriceSourceDetailMeta, PriceSourceDetailJSON, PriceSourceDetailDOM:
		return true
	}
	return false
}

// Terminal reports whether enrichment should never revisit this record.
// Only "missing" records are eligible for a detail-page lookup.
func (s PriceSource) Terminal() bool {
	return s != PriceSourceMissing
}

// ListingRecord is one marketplace listing, deduplicated by ID within a
// scrape session. Created by the list page scanner; the detail enrichment
// scheduler mutates Price, PriceSource and Country in place. Records are
// never deleted once created.
type ListingRecord struct {
	ID          string      `json:"id"`
	URL         string      `json:"url"`
	Title       string      `json:"title"`
	Price       *int        `json:"price"`
	PriceSource PriceSource `json:"price_source"`
	Country     *string     `json:"country"`
	IsSponsored bool        `json:"is_sponsored"`
}

// SetPrice records a successfully extracted price together with its
// provenance tag, preserving the price/source invariant.
func (r *ListingRecord) SetPrice(amount int, source PriceSource) {
	r.Price = &amount
	r.PriceSource = source
}

// PageResult is the transient output of scanning a single result page.
type PageResult struct {
	ExpectedCount *int
	Items         []*ListingRecord
}

// ScrapeResult is the externally visible aggregate of a full pagination walk.
// Count is always len(Items) after dedup; Partial is true exactly when fewer
// pages were walked than the expected count required.
type ScrapeResult struct {
	ExpectedCount *int             `json:"expected_count"`
	Count         int              `json:"count"`
	PageSize      int              `json:"page_size"`
	PagesScraped  int              `json:"pages_scraped"`
	TotalPages    int              `json:"total_pages"`
	Partial       bool             `json:"partial"`
	Warning       *string          `json:"warning"`
	Items         []*ListingRecord `json:"items"`
}
