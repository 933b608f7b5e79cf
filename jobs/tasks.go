package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPricingRulesRefresh reloads the round-off rules into the cache.
	TaskPricingRulesRefresh = "pricing:rules-refresh"
)

// RulesRefreshPayload records what triggered a refresh.
type RulesRefreshPayload struct {
	Reason string `json:"reason"`
}

// NewRulesRefreshTask constructs a rules refresh task.
func NewRulesRefreshTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(RulesRefreshPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPricingRulesRefresh, data, asynq.Queue(QueueDefault)), nil
}
