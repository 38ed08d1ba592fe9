package listing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marktscan/pkg/models"
)

func makeItems(n int) []*models.ListingRecord {
	items := make([]*models.ListingRecord, n)
	for i := range items {
		items[i] = &models.ListingRecord{
			ID:          fmt.Sprintf("%d", i+1),
			URL:         fmt.Sprintf("https://example.com/machine--id%d.htm", i+1),
			Title:       fmt.Sprintf("Machine %d", i+1),
			PriceSource: models.PriceSourceMissing,
		}
	}
	return items
}

func TestReconcileComplete(t *testing.T) {
	expected := 48
	res := &models.ScrapeResult{
		ExpectedCount: &expected,
		Count:         48,
		PageSize:      30,
		PagesScraped:  2,
		TotalPages:    2,
		Items:         makeItems(48),
	}

	outcome, err := Reconcile(res)

	require.NoError(t, err)
	assert.Equal(t, OutcomeComplete, outcome)
	assert.Nil(t, res.Warning)
}

func TestReconcileCompleteWithoutAdvertisedTotal(t *testing.T) {
	res := &models.ScrapeResult{
		Count:        12,
		PageSize:     30,
		PagesScraped: 1,
		TotalPages:   1,
		Items:        makeItems(12),
	}

	outcome, err := Reconcile(res)

	require.NoError(t, err)
	assert.Equal(t, OutcomeComplete, outcome)
}

func TestReconcilePartialPassesWithWarning(t *testing.T) {
	expected := 250
	res := &models.ScrapeResult{
		ExpectedCount: &expected,
		Count:         200,
		PageSize:      100,
		PagesScraped:  2,
		TotalPages:    3,
		Partial:       true,
		Items:         makeItems(200),
	}

	outcome, err := Reconcile(res)

	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, outcome)
	require.NotNil(t, res.Warning)
	assert.Contains(t, *res.Warning, "2 of 3 pages")
}

func TestReconcilePartialKeepsExistingWarning(t *testing.T) {
	expected := 250
	warning := "page 3 failed: timeout; returning 2 pages"
	res := &models.ScrapeResult{
		ExpectedCount: &expected,
		Count:         200,
		PageSize:      100,
		PagesScraped:  2,
		TotalPages:    3,
		Partial:       true,
		Warning:       &warning,
		Items:         makeItems(200),
	}

	outcome, err := Reconcile(res)

	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, outcome)
	assert.Equal(t, warning, *res.Warning)
}

func TestReconcileInconsistentCount(t *testing.T) {
	expected := 50
	res := &models.ScrapeResult{
		ExpectedCount: &expected,
		Count:         48,
		PageSize:      30,
		PagesScraped:  2,
		TotalPages:    2,
		Items:         makeItems(48),
	}

	outcome, err := Reconcile(res)

	assert.Equal(t, OutcomeInconsistent, outcome)
	require.Error(t, err)

	var ice *InconsistentCountError
	require.True(t, errors.As(err, &ice))
	assert.Equal(t, 50, ice.ExpectedCount)
	assert.Equal(t, 48, ice.Got)
	assert.Equal(t, 2, ice.PagesScraped)
	assert.Equal(t, 30, ice.PageSize)
	assert.Len(t, ice.Sample, 5)
	assert.Equal(t, "1", ice.Sample[0].ID)

	meta := ice.Meta()
	assert.Equal(t, 50, meta["expectedCount"])
	assert.Equal(t, 48, meta["got"])
	assert.Equal(t, 2, meta["pagesScraped"])
	assert.Equal(t, 30, meta["pageSize"])
}

func TestReconcileInconsistentSmallSample(t *testing.T) {
	expected := 5
	res := &models.ScrapeResult{
		ExpectedCount: &expected,
		Count:         3,
		PageSize:      30,
		PagesScraped:  1,
		TotalPages:    1,
		Items:         makeItems(3),
	}

	_, err := Reconcile(res)

	var ice *InconsistentCountError
	require.True(t, errors.As(err, &ice))
	// Fewer than five records collected: the sample is everything.
	assert.Len(t, ice.Sample, 3)
}
