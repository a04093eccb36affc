package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/streamflow-etl/internal/domain"
	"github.com/couchcryptid/streamflow-etl/internal/observability"
)

// Comparator fetches a gauge's history and runs the day-of-year analysis.
// It is shared by the Kafka pipeline and the HTTP API.
type Comparator struct {
	fetcher      domain.SeriesFetcher
	historyYears int
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewComparator creates a Comparator that looks back historyYears years.
func NewComparator(fetcher domain.SeriesFetcher, historyYears int, metrics *observability.Metrics, logger *slog.Logger) *Comparator {
	return &Comparator{
		fetcher:      fetcher,
		historyYears: historyYears,
		metrics:      metrics,
		logger:       logger,
	}
}

// Compare returns the flow comparison for siteCode as of referenceDate.
func (c *Comparator) Compare(ctx context.Context, siteCode string, referenceDate time.Time) (domain.FlowComparison, error) {
	start, end := domain.ComparisonWindow(referenceDate, c.historyYears)

	series, err := c.fetcher.FetchDailySeries(ctx, siteCode, start, end)
	if err != nil {
		c.metrics.AnalysisFailures.WithLabelValues(domain.FailureKind(err)).Inc()
		return domain.FlowComparison{}, fmt.Errorf("fetch series for %s: %w", siteCode, err)
	}

	result, err := domain.Analyze(series, end)
	if err != nil {
		c.metrics.AnalysisFailures.WithLabelValues(domain.FailureKind(err)).Inc()
		return domain.FlowComparison{}, err
	}
	result.ComputedAt = domain.Now()

	c.logger.Debug("comparison computed",
		"site_code", siteCode,
		"date_used", result.DateUsed,
		"current", result.Current,
		"percentile", result.Percentile,
		"historical_years", len(result.Historical),
	)
	return result, nil
}
