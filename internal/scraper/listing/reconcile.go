package listing

import (
	"fmt"

	"marktscan/pkg/models"
)

// Outcome classifies a finished walk against the advertised total.
type Outcome string

const (
	OutcomeComplete     Outcome = "complete"
	OutcomePartial      Outcome = "partial"
	OutcomeInconsistent Outcome = "inconsistent"
)

// InconsistentCountError reports a full walk whose merged item count does
// not match the advertised total. The sample carries the first few records
// collected so callers can expose diagnostic context.
type InconsistentCountError struct {
	ExpectedCount int
	Got           int
	PagesScraped  int
	PageSize      int
	Sample        []*models.ListingRecord
}

func (e *InconsistentCountError) Error() string {
	return fmt.Sprintf("inconsistent batch: expected %d listings, got %d across %d pages (page size %d)",
		e.ExpectedCount, e.Got, e.PagesScraped, e.PageSize)
}

// Meta returns the structured diagnostic payload for error responses.
func (e *InconsistentCountError) Meta() map[string]interface{} {
	return map[string]interface{}{
		"expectedCount": e.ExpectedCount,
		"got":           e.Got,
		"pagesScraped":  e.PagesScraped,
		"pageSize":      e.PageSize,
		"sample":        e.Sample,
	}
}

const sampleSize = 5

// Reconcile judges a walk result. Partial walks pass with a warning;
// a full walk that disagrees with the advertised count is rejected.
// Pages that never advertised a total are accepted as complete.
func Reconcile(res *models.ScrapeResult) (Outcome, error) {
	if res.Partial {
		if res.Warning == nil {
			msg := fmt.Sprintf("partial result: scraped %d of %d pages", res.PagesScraped, res.TotalPages)
			res.Warning = &msg
		}
		return OutcomePartial, nil
	}

	if res.ExpectedCount != nil && res.Count != *res.ExpectedCount {
		sample := res.Items
		if len(sample) > sampleSize {
			sample = sample[:sampleSize]
		}
		return OutcomeInconsistent, &InconsistentCountError{
			ExpectedCount: *res.ExpectedCount,
			Got:           res.Count,
			PagesScraped:  res.PagesScraped,
			PageSize:      res.PageSize,
			Sample:        sample,
		}
	}

	return OutcomeComplete, nil
}
