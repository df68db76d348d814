package core

import "fmt"

// CategoryDelta is the change in one category's share between two
// deployments, in percentage points.
type CategoryDelta struct {
	Name             string  `json:"name"`
	BaselinePercent  float64 `json:"baseline_percent"`
	CandidatePercent float64 `json:"candidate_percent"`
	DeltaPercent     float64 `json:"delta_percent"`
}

// Comparison contrasts a candidate deployment against a baseline.
type Comparison struct {
	Categories      []CategoryDelta `json:"categories"`
	MeanBestDeltaDB float64         `json:"mean_best_delta_db"`
	MinBestDeltaDB  float64         `json:"min_best_delta_db"`
	MeanSIRDeltaDB  float64         `json:"mean_sir_delta_db"`
}

// CompareSummaries reports how candidate differs from baseline. Both
// summaries must come from the same category table.
func CompareSummaries(baseline, candidate *Summary) (*Comparison, error) {
	if baseline == nil || candidate == nil {
		return nil, fmt.Errorf("%w: missing summary", ErrInvalidConfiguration)
	}
	if len(baseline.Categories) != len(candidate.Categories) {
		return nil, fmt.Errorf("%w: summaries use different category tables", ErrCategoryConfiguration)
	}

	out := &Comparison{
		Categories:      make([]CategoryDelta, len(baseline.Categories)),
		MeanBestDeltaDB: candidate.MeanBestDBm - baseline.MeanBestDBm,
		MinBestDeltaDB:  candidate.MinBestDBm - baseline.MinBestDBm,
		MeanSIRDeltaDB:  candidate.MeanSIRDB - baseline.MeanSIRDB,
	}
	for i, b := range baseline.Categories {
		c := candidate.Categories[i]
		if b.Name != c.Name {
			return nil, fmt.Errorf("%w: category %d is %q in baseline but %q in candidate", ErrCategoryConfiguration, i, b.Name, c.Name)
		}
		out.Categories[i] = CategoryDelta{
			Name:             b.Name,
			BaselinePercent:  b.Percent,
			CandidatePercent: c.Percent,
			DeltaPercent:     c.Percent - b.Percent,
		}
	}
	return out, nil
}

// Delta returns the change for the named category.
func (c *Comparison) Delta(name string) (CategoryDelta, bool) {
	for _, d := range c.Categories {
		if d.Name == name {
			return d, true
		}
	}
	return CategoryDelta{}, false
}
