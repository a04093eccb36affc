package pipeline

import (
	"context"

	"github.com/couchcryptid/streamflow-etl/internal/domain"
)

// ComparisonTransformer implements Transformer by turning an analysis request
// into a serialized flow comparison.
type ComparisonTransformer struct {
	comparator *Comparator
}

// NewTransformer creates a ComparisonTransformer backed by comparator.
func NewTransformer(comparator *Comparator) *ComparisonTransformer {
	return &ComparisonTransformer{comparator: comparator}
}

func (t *ComparisonTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseAnalysisRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	referenceDate, err := req.Reference()
	if err != nil {
		return domain.OutputEvent{}, err
	}

	result, err := t.comparator.Compare(ctx, req.SiteCode, referenceDate)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	return domain.SerializeComparison(req.ID, result)
}
