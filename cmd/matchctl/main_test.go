package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"match-embed/internal/embeddings"
	"match-embed/internal/predict"
	"match-embed/internal/queue"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestEmbedCommand(t *testing.T) {
	text := "lost blue backpack near library"
	want, err := embeddings.EmbedFallback([]byte(text), 128)
	require.NoError(t, err)

	imgPath := filepath.Join(t.TempDir(), "bag.jpg")
	require.NoError(t, os.WriteFile(imgPath, []byte("jpeg bytes"), 0o600))

	tests := []struct {
		name    string
		args    []string
		wantLen int
		wantErr bool
	}{
		{
			name:    "text only",
			args:    []string{"embed", "--provider", "hash", "--text", text},
			wantLen: 128,
		},
		{
			name:    "text and image",
			args:    []string{"embed", "--provider", "hash", "--text", text, "--image", imgPath},
			wantLen: 256,
		},
		{
			name:    "custom width",
			args:    []string{"embed", "--provider", "hash", "--dim", "40", "-t", text},
			wantLen: 40,
		},
		{
			name:    "missing image file",
			args:    []string{"embed", "--provider", "hash", "--image", filepath.Join(t.TempDir(), "nope.png")},
			wantErr: true,
		},
		{
			name:    "zero width rejected",
			args:    []string{"embed", "--provider", "hash", "--dim", "0"},
			wantErr: true,
		},
		{
			name:    "unknown provider rejected",
			args:    []string{"embed", "--provider", "tensorflow"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			var resp predict.Response
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, predict.StatusSuccess, resp.Status)
			assert.Equal(t, embeddings.StrategyFallback, resp.Strategy)
			require.Len(t, resp.EmbeddingVector, tt.wantLen)
			if tt.wantLen >= 40 {
				assert.Equal(t, want[:40], resp.EmbeddingVector[:40])
			}
		})
	}
}

func TestEmbedCommandYAML(t *testing.T) {
	out, err := runCmd(t, "embed", "--provider", "hash", "--dim", "16", "--text", "keys", "-o", "yaml")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "success", doc["status"])
	assert.Equal(t, "fallback", doc["strategy"])
	assert.Len(t, doc["embedding_vector"], 16)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := runCmd(t, "embed", "--provider", "hash", "-o", "xml")
	assert.ErrorContains(t, err, "invalid --output")
}

func TestStrategyCommand(t *testing.T) {
	out, err := runCmd(t, "strategy", "--provider", "hash", "--dim", "64")
	require.NoError(t, err)
	assert.JSONEq(t, `{"strategy":"fallback","text_dim":64,"image_dim":64}`, out)
}

func TestRemoteCommandRequiresURL(t *testing.T) {
	t.Setenv("QUEUE_URL", "")
	_, err := runCmd(t, "remote", "--text", "keys")
	assert.ErrorContains(t, err, "no queue configured")
}

func TestRequestEmbedding(t *testing.T) {
	isEmbedTask := mock.MatchedBy(func(task queue.Task) bool {
		var p embedTaskPayload
		return task.Type == queue.TaskTypeEmbed &&
			json.Unmarshal(task.Payload, &p) == nil &&
			p.Description == "wallet" && string(p.Image) == "img"
	})

	t.Run("success", func(t *testing.T) {
		reply, err := json.Marshal(predict.Response{
			Status:          predict.StatusSuccess,
			EmbeddingVector: embeddings.Vector{0.25, 0.5},
			Strategy:        embeddings.StrategyPrimary,
			Dimensions:      2,
		})
		require.NoError(t, err)

		q := new(queue.MockQueue)
		q.On("Request", mock.Anything, isEmbedTask).Return(reply, nil).Once()

		resp, err := requestEmbedding(context.Background(), q, "wallet", []byte("img"), 1)
		require.NoError(t, err)
		assert.Equal(t, embeddings.Vector{0.25, 0.5}, resp.EmbeddingVector)
		assert.Equal(t, embeddings.StrategyPrimary, resp.Strategy)
		q.AssertExpectations(t)
	})

	t.Run("worker error reply", func(t *testing.T) {
		reply, err := json.Marshal(queue.ErrorReply{Status: "error", Error: "image could not be decoded"})
		require.NoError(t, err)

		q := new(queue.MockQueue)
		q.On("Request", mock.Anything, isEmbedTask).Return(reply, nil).Once()

		_, err = requestEmbedding(context.Background(), q, "wallet", []byte("img"), 1)
		assert.ErrorContains(t, err, "image could not be decoded")
	})

	t.Run("transport failure after retries", func(t *testing.T) {
		q := new(queue.MockQueue)
		q.On("Request", mock.Anything, isEmbedTask).Return(nil, errors.New("no responders")).Times(2)

		_, err := requestEmbedding(context.Background(), q, "wallet", []byte("img"), 2)
		assert.ErrorContains(t, err, "no responders")
		q.AssertExpectations(t)
	})
}
