package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"match-embed/internal/retry"
)

// TaskType enumerates supported request categories.
type TaskType string

const (
	TaskTypeEmbed TaskType = "embed"
)

const maxBackoff = 5 * time.Second

// Task is one request carried over the queue.
type Task struct {
	ID      uuid.UUID
	Type    TaskType
	Payload []byte
}

// Handler serves a task and returns the reply body.
type Handler func(context.Context, Task) ([]byte, error)

// Queue exposes a minimal request/reply contract.
type Queue interface {
	Request(ctx context.Context, task Task) ([]byte, error)
	Serve(ctx context.Context, taskType TaskType, handler Handler) error
}

// ErrorReply is the body sent back when a handler fails.
type ErrorReply struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// RequestWithRetry sends task with retries and exponential backoff.
func RequestWithRetry(ctx context.Context, q Queue, task Task, attempts int, base time.Duration) ([]byte, error) {
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; ; attempt++ {
		reply, err := q.Request(ctx, task)
		if err == nil {
			return reply, nil
		} else if attempt == attempts-1 {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retry.CappedBackoff(attempt, base, maxBackoff)):
		}
	}
}
