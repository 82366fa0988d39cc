package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/cutman/internal/reconcile"
)

const (
	fightStatusStream = "fights.status.changes"
	runReportStream   = "pipeline.runs"
)

// RedisStreamPublisher publishes pipeline events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher creates a stream publisher from an existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// PublishFightStatus publishes one fight status transition to the stream.
// Downstream consumers key off the "to" field to tell cancellations from
// restorations.
func (rsp *RedisStreamPublisher) PublishFightStatus(ctx context.Context, change reconcile.StatusChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}

	return rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: fightStatusStream,
		Values: map[string]interface{}{
			"data":      string(data),
			"to":        change.To,
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}

// PublishRunReport publishes a completed pipeline run summary to the stream
func (rsp *RedisStreamPublisher) PublishRunReport(ctx context.Context, report interface{}) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}

	return rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: runReportStream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
