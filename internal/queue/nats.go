package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// NewNATS constructs a thin NATS request/reply queue.
func NewNATS(log *slog.Logger, nc *nats.Conn) Queue {
	return &natsQueue{log: log, nc: nc}
}

type natsQueue struct {
	log *slog.Logger
	nc  *nats.Conn
}

func subject(taskType TaskType) string {
	return "tasks." + string(taskType)
}

func (q *natsQueue) Request(ctx context.Context, task Task) ([]byte, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Type == "" {
		return nil, errors.New("task type required")
	}
	body, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	msg, err := q.nc.RequestWithContext(ctx, subject(task.Type), body)
	if err != nil {
		return nil, err
	}
	return msg.Data, nil
}

func (q *natsQueue) Serve(ctx context.Context, taskType TaskType, handler Handler) error {
	group := "workers-" + string(taskType)
	sub, err := q.nc.QueueSubscribe(subject(taskType), group, func(msg *nats.Msg) {
		q.handleMessage(ctx, msg, handler)
	})
	if err != nil {
		return err
	}
	q.log.Info("queue worker subscribed", "subject", subject(taskType), "group", group)
	<-ctx.Done()
	return sub.Drain()
}

func (q *natsQueue) handleMessage(ctx context.Context, msg *nats.Msg, handler Handler) {
	reply, err := HandleRaw(ctx, msg.Data, handler)
	if err != nil {
		q.log.Error("task failed", "subject", msg.Subject, "err", err)
	}
	if msg.Reply == "" {
		return
	}
	if err := msg.Respond(reply); err != nil {
		q.log.Error("failed to respond to task", "subject", msg.Subject, "err", err)
	}
}

// HandleRaw decodes a task body, runs handler and returns the bytes to reply
// with. On failure the reply is an encoded ErrorReply and the error is
// returned alongside it.
func HandleRaw(ctx context.Context, data []byte, handler Handler) ([]byte, error) {
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return encodeError(err), err
	}
	reply, err := handler(ctx, task)
	if err != nil {
		return encodeError(err), err
	}
	return reply, nil
}

func encodeError(err error) []byte {
	body, _ := json.Marshal(ErrorReply{Status: "error", Error: err.Error()})
	return body
}
