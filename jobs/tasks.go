package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan triggers the periodic low stock scan.
	TaskLowStockScan = "stock:low_stock_scan"
	// TaskSummaryWarmup refreshes the cached stock summary.
	TaskSummaryWarmup = "stock:summary_warmup"
)

// ScanPayload carries scheduling metadata shared by the periodic tasks.
type ScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs an Asynq task for the low stock scan.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// NewSummaryWarmupTask constructs an Asynq task for the summary warmup.
func NewSummaryWarmupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSummaryWarmup, body, asynq.Queue(QueueDefault)), nil
}
