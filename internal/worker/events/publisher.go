package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel carries execution lifecycle events from workers to the API's
// websocket subscriber.
const Channel = "executions:events"

type Publisher struct {
	redis *redis.Client
}

func NewPublisher(redis *redis.Client) *Publisher {
	return &Publisher{redis: redis}
}

type EventType string

const (
	EventExecutionStarted   EventType = "execution.started"
	EventExecutionProgress  EventType = "execution.progress"
	EventExecutionCompleted EventType = "execution.completed"
	EventExecutionFailed    EventType = "execution.failed"
	EventExecutionCancelled EventType = "execution.cancelled"
)

type Event struct {
	Type        EventType              `json:"type"`
	ProjectID   uuid.UUID              `json:"project_id"`
	ExecutionID uuid.UUID              `json:"execution_id"`
	Data        map[string]interface{} `json:"data,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

func (p *Publisher) Publish(ctx context.Context, event *Event) error {
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.redis.Publish(ctx, Channel, data).Err()
}

func (p *Publisher) ExecutionStarted(ctx context.Context, projectID, executionID uuid.UUID, totalCases int) error {
	return p.Publish(ctx, &Event{
		Type:        EventExecutionStarted,
		ProjectID:   projectID,
		ExecutionID: executionID,
		Data: map[string]interface{}{
			"status":      "running",
			"total_cases": totalCases,
		},
	})
}

func (p *Publisher) ExecutionProgress(ctx context.Context, projectID, executionID uuid.UUID, progress, passRate float64) error {
	return p.Publish(ctx, &Event{
		Type:        EventExecutionProgress,
		ProjectID:   projectID,
		ExecutionID: executionID,
		Data: map[string]interface{}{
			"status":    "running",
			"progress":  progress,
			"pass_rate": passRate,
		},
	})
}

func (p *Publisher) ExecutionCompleted(ctx context.Context, projectID, executionID uuid.UUID, passed, failed, skipped int, passRate float64) error {
	return p.Publish(ctx, &Event{
		Type:        EventExecutionCompleted,
		ProjectID:   projectID,
		ExecutionID: executionID,
		Data: map[string]interface{}{
			"status":        "completed",
			"passed_cases":  passed,
			"failed_cases":  failed,
			"skipped_cases": skipped,
			"pass_rate":     passRate,
		},
	})
}

func (p *Publisher) ExecutionFailed(ctx context.Context, projectID, executionID uuid.UUID, errorMsg string) error {
	return p.Publish(ctx, &Event{
		Type:        EventExecutionFailed,
		ProjectID:   projectID,
		ExecutionID: executionID,
		Data: map[string]interface{}{
			"status": "failed",
			"error":  errorMsg,
		},
	})
}

func (p *Publisher) ExecutionCancelled(ctx context.Context, projectID, executionID uuid.UUID) error {
	return p.Publish(ctx, &Event{
		Type:        EventExecutionCancelled,
		ProjectID:   projectID,
		ExecutionID: executionID,
		Data: map[string]interface{}{
			"status": "cancelled",
		},
	})
}
