package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/fabrika-mes/fabrika/internal/jobs"
)

// LowStockScanner walks materials and products and reports items at or below
// their minimum stock level. The results feed the low stock gauge and the
// application log; nothing is mutated.
type LowStockScanner struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewLowStockScanner constructs the scanner.
func NewLowStockScanner(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanner {
	return &LowStockScanner{pool: pool, logger: logger, metrics: metrics}
}

// Handle processes TaskLowStockScan tasks.
func (s *LowStockScanner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := s.metrics.Track("low_stock_scan")
	return tracker.End(s.scan(ctx))
}

func (s *LowStockScanner) scan(ctx context.Context) error {
	materials, err := s.countLow(ctx, "raw_materials")
	if err != nil {
		return err
	}
	products, err := s.countLow(ctx, "products")
	if err != nil {
		return err
	}
	s.metrics.SetLowStock("material", materials)
	s.metrics.SetLowStock("product", products)
	if materials > 0 || products > 0 {
		s.logger.Warn("low stock detected",
			slog.Int("materials", materials),
			slog.Int("products", products),
		)
	}
	return nil
}

func (s *LowStockScanner) countLow(ctx context.Context, table string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+` WHERE status='active' AND stock <= min_stock`).Scan(&count)
	return count, err
}
