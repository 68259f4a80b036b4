package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"match-embed/internal/app"
	"match-embed/internal/embeddings"
	"match-embed/internal/httputil"
	"match-embed/internal/queue"
)

type embedRequest struct {
	Description string `json:"description" validate:"max=4096"`
	ImageBase64 string `json:"image_base64" validate:"omitempty,base64"`
}

// embedTaskPayload is the body of a queue.TaskTypeEmbed task.
type embedTaskPayload struct {
	Description string `json:"description"`
	Image       []byte `json:"image,omitempty"`
}

// predictMatchHandler serves the multipart form used by the lost-and-found
// backend: a description field and an optional image_file part.
func predictMatchHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	// Leave headroom for the description and multipart framing.
	maxBody := maxFileSize + 1<<20

	return func(w http.ResponseWriter, r *http.Request) {
		if !limitBody(deps, w, r, maxBody) {
			return
		}

		if err := r.ParseMultipartForm(maxFileSize); err != nil {
			if !errors.Is(err, http.ErrNotMultipart) {
				httputil.Fail(deps.Log, w, "invalid form", err, statusForBodyError(err))
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.Fail(deps.Log, w, "invalid form", err, statusForBodyError(err))
				return
			}
		}
		description := r.FormValue("description")

		var image []byte
		file, header, err := r.FormFile("image_file")
		switch {
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		case err != nil:
			httputil.Fail(deps.Log, w, "invalid image_file", err, http.StatusBadRequest)
			return
		default:
			defer file.Close()
			if header.Size > maxFileSize {
				httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
				return
			}
			image, err = io.ReadAll(file)
			if err != nil {
				httputil.Fail(deps.Log, w, "failed to read image_file", err, http.StatusBadRequest)
				return
			}
		}

		writePrediction(deps, w, r, description, image)
	}
}

// jsonEmbedHandler accepts the same inputs as a JSON document.
func jsonEmbedHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	// base64 inflates by 4/3.
	maxBody := maxFileSize/3*4 + 1<<20

	return func(w http.ResponseWriter, r *http.Request) {
		if !limitBody(deps, w, r, maxBody) {
			return
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, statusForBodyError(err))
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		var image []byte
		if req.ImageBase64 != "" {
			var err error
			image, err = base64.StdEncoding.DecodeString(req.ImageBase64)
			if err != nil {
				httputil.Fail(deps.Log, w, "invalid image_base64", err, http.StatusBadRequest)
				return
			}
			if int64(len(image)) > maxFileSize {
				httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
				return
			}
		}

		writePrediction(deps, w, r, req.Description, image)
	}
}

func writePrediction(deps app.Deps, w http.ResponseWriter, r *http.Request, description string, image []byte) {
	resp, err := deps.Predictor.Predict(r.Context(), "http", description, image)
	if err != nil {
		if errors.Is(err, embeddings.ErrMalformedImage) {
			httputil.Fail(deps.Log, w, "image could not be decoded", err, http.StatusBadRequest)
			return
		}
		httputil.Fail(deps.Log, w, "failed to generate embedding", err, http.StatusInternalServerError)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func strategyHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		textDim, imageDim := deps.Predictor.Dimensions()
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"strategy":  deps.Predictor.Strategy(),
			"text_dim":  textDim,
			"image_dim": imageDim,
		})
	}
}

// embedTaskHandler serves embedding requests arriving over the queue.
func embedTaskHandler(deps app.Deps) queue.Handler {
	return func(ctx context.Context, task queue.Task) ([]byte, error) {
		var payload embedTaskPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode embed payload: %w", err)
		}
		resp, err := deps.Predictor.Predict(ctx, "nats", payload.Description, payload.Image)
		if err != nil {
			deps.Log.Warn("queued embedding failed", "task_id", task.ID, "err", err)
			return nil, err
		}
		return json.Marshal(resp)
	}
}

// limitBody rejects a declared Content-Length above limit with 413 and caps
// bodies of unknown length at limit.
func limitBody(deps app.Deps, w http.ResponseWriter, r *http.Request, limit int64) bool {
	if r.ContentLength > limit {
		httputil.Fail(deps.Log, w, fmt.Sprintf("request body too large (max %d bytes)", limit), nil, http.StatusRequestEntityTooLarge)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return true
}

func statusForBodyError(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
