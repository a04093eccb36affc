// Package scheduler periodically enqueues analysis requests for watched gauges.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/streamflow-etl/internal/domain"
	"github.com/couchcryptid/streamflow-etl/internal/observability"
	"github.com/robfig/cron/v3"
)

const publishTimeout = 30 * time.Second

// Publisher sends analysis requests to the request topic.
type Publisher interface {
	Publish(ctx context.Context, reqs ...domain.AnalysisRequest) error
}

// Scheduler publishes one request per watched gauge on a cron schedule. Each
// request is analysed independently by the pipeline.
type Scheduler struct {
	cron      *cron.Cron
	publisher Publisher
	gauges    []string
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New validates the cron spec and gauge list and registers the job. Schedules
// are evaluated in UTC to match the reference dates the pipeline uses.
func New(spec string, gauges []string, publisher Publisher, metrics *observability.Metrics, logger *slog.Logger) (*Scheduler, error) {
	for _, g := range gauges {
		if err := domain.ValidateSiteCode(g); err != nil {
			return nil, fmt.Errorf("scheduled gauge: %w", err)
		}
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		publisher: publisher,
		gauges:    gauges,
		metrics:   metrics,
		logger:    logger,
	}

	if _, err := s.cron.AddFunc(spec, s.runJob); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the cron scheduler and blocks until ctx is cancelled, then waits
// for any running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "gauges", s.gauges)
	s.cron.Start()

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.Enqueue(ctx); err != nil {
		s.logger.Error("scheduled enqueue failed", "error", err)
	}
}

// Enqueue publishes a request for every watched gauge, stamped with today's
// date. Failures for one gauge do not stop the others.
func (s *Scheduler) Enqueue(ctx context.Context) error {
	referenceDate := domain.Today().Format(domain.DateLayout)

	var errs []error
	for _, gauge := range s.gauges {
		req := domain.NewAnalysisRequest(gauge, referenceDate)
		if err := s.publisher.Publish(ctx, req); err != nil {
			s.metrics.ScheduledRequests.WithLabelValues("error").Inc()
			errs = append(errs, fmt.Errorf("publish request for %s: %w", gauge, err))
			continue
		}
		s.metrics.ScheduledRequests.WithLabelValues("published").Inc()
		s.logger.Info("analysis request enqueued",
			"site_code", gauge,
			"request_id", req.ID,
			"reference_date", referenceDate,
		)
	}
	return errors.Join(errs...)
}
