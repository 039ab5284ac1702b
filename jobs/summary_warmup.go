package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fabrika-mes/fabrika/internal/jobs"
	"github.com/fabrika-mes/fabrika/internal/stock"
)

// SummaryWarmer refreshes the cached stock summary so the first dashboard
// request after the TTL expires does not pay the aggregation cost.
type SummaryWarmer struct {
	service *stock.Service
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewSummaryWarmer constructs the warmer.
func NewSummaryWarmer(service *stock.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *SummaryWarmer {
	return &SummaryWarmer{service: service, logger: logger, metrics: metrics}
}

// Handle processes TaskSummaryWarmup tasks.
func (s *SummaryWarmer) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := s.metrics.Track("summary_warmup")
	summary, err := s.service.Summary(ctx)
	if err == nil {
		s.logger.Info("stock summary warmed", slog.Int("items", len(summary)))
	}
	return tracker.End(err)
}
