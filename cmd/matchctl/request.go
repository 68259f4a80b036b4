package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"match-embed/internal/predict"
	"match-embed/internal/queue"
)

const retryBase = 200 * time.Millisecond

// requestEmbedding sends one embed task and decodes either a prediction or
// the worker's error reply.
func requestEmbedding(ctx context.Context, q queue.Queue, text string, image []byte, attempts int) (predict.Response, error) {
	payload, err := json.Marshal(embedTaskPayload{Description: text, Image: image})
	if err != nil {
		return predict.Response{}, err
	}
	reply, err := queue.RequestWithRetry(ctx, q, queue.Task{Type: queue.TaskTypeEmbed, Payload: payload}, attempts, retryBase)
	if err != nil {
		return predict.Response{}, fmt.Errorf("embed request failed: %w", err)
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(reply, &status); err != nil {
		return predict.Response{}, fmt.Errorf("decode reply: %w", err)
	}
	if status.Status != predict.StatusSuccess {
		var e queue.ErrorReply
		_ = json.Unmarshal(reply, &e)
		if e.Error == "" {
			e.Error = "unknown error"
		}
		return predict.Response{}, errors.New("embedder: " + e.Error)
	}
	var resp predict.Response
	if err := json.Unmarshal(reply, &resp); err != nil {
		return predict.Response{}, fmt.Errorf("decode reply: %w", err)
	}
	return resp, nil
}
