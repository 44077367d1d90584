package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spacesedan/sentigate/internal/inference"
	"github.com/spacesedan/sentigate/internal/models"
	"github.com/spacesedan/sentigate/internal/storage"
	"github.com/spacesedan/sentigate/internal/workers"
)

// MAX_IMAGE_BYTES caps uploaded image payloads at 5 MiB.
const MAX_IMAGE_BYTES = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.SentimentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "invalid request body", nil)
		return
	}
	if err := req.Validate(s.cfg.MaxTextLength); err != nil {
		writeValidationError(w, r, err)
		return
	}

	result, err := s.analyzer.AnalyzeSentiment(r.Context(), req.Text, req.Language)
	if err != nil {
		s.handleInferenceError(w, r, err)
		return
	}

	resp := models.SentimentResponse{
		Text:           req.Text,
		Sentiment:      result.Label,
		Confidence:     result.Confidence,
		Scores:         result.Scores,
		ProcessingTime: elapsedSeconds(start),
		RequestID:      RequestIDFromContext(r.Context()),
	}
	respondJSON(w, http.StatusOK, resp)

	s.finishAnalysis(r, req, resp, http.StatusOK, resp.ProcessingTime, analysisOutcome{
		kind:       inference.KindSentiment,
		label:      result.Label,
		confidence: result.Confidence,
	})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ClassifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "invalid request body", nil)
		return
	}
	if err := req.Validate(s.cfg.MaxTextLength); err != nil {
		writeValidationError(w, r, err)
		return
	}

	result, err := s.analyzer.Classify(r.Context(), req.Text)
	if err != nil {
		s.handleInferenceError(w, r, err)
		return
	}

	resp := models.ClassifyResponse{
		Text:           req.Text,
		Category:       result.Category,
		Confidence:     result.Confidence,
		AllScores:      result.AllScores,
		ProcessingTime: elapsedSeconds(start),
		RequestID:      RequestIDFromContext(r.Context()),
	}
	respondJSON(w, http.StatusOK, resp)

	s.finishAnalysis(r, req, resp, http.StatusOK, resp.ProcessingTime, analysisOutcome{
		kind:       inference.KindClassify,
		label:      result.Category,
		confidence: result.Confidence,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "invalid request body", nil)
		return
	}
	if err := req.Validate(s.cfg.MaxTextLength); err != nil {
		writeValidationError(w, r, err)
		return
	}

	maxTokens := models.CHAT_DEFAULT_MAX_TOKENS
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	temperature := float32(models.CHAT_DEFAULT_TEMPERATURE)
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	result, err := s.analyzer.Chat(r.Context(), req.Prompt, maxTokens, temperature)
	if err != nil {
		s.handleInferenceError(w, r, err)
		return
	}

	resp := models.ChatResponse{
		Prompt:         req.Prompt,
		Completion:     result.Completion,
		Model:          result.Model,
		TokenUsage:     result.Usage,
		ProcessingTime: elapsedSeconds(start),
		RequestID:      RequestIDFromContext(r.Context()),
	}
	respondJSON(w, http.StatusOK, resp)

	s.finishAnalysis(r, req, resp, http.StatusOK, resp.ProcessingTime, analysisOutcome{
		kind: inference.KindChat,
	})
}

func (s *Server) handleClassifyImage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, MAX_IMAGE_BYTES+512*1024)
	if err := r.ParseMultipartForm(MAX_IMAGE_BYTES); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "invalid multipart form or file too large", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "request validation failed", map[string]string{
			"file": "must be provided",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "failed to read uploaded file", nil)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "request validation failed", map[string]string{
			"file": "content type must be png, jpeg, gif, or webp",
		})
		return
	}

	requestID := RequestIDFromContext(r.Context())
	key := storage.InputKey(time.Now(), requestID, header.Filename)
	s.submitTask("input_upload", func(ctx context.Context) error {
		return s.logs.SaveInputFile(ctx, key, data, contentType)
	})

	result, err := s.analyzer.ClassifyImage(r.Context(), header.Filename, inference.Image{
		Data:        data,
		ContentType: contentType,
	})
	if err != nil {
		s.handleInferenceError(w, r, err)
		return
	}

	resp := models.ClassifyImageResponse{
		Filename:       header.Filename,
		Category:       result.Category,
		Confidence:     result.Confidence,
		Description:    result.Description,
		StorageKey:     key,
		ProcessingTime: elapsedSeconds(start),
		RequestID:      requestID,
	}
	respondJSON(w, http.StatusOK, resp)

	reqSummary := map[string]any{
		"filename":     header.Filename,
		"content_type": contentType,
		"size":         len(data),
	}
	s.finishAnalysis(r, reqSummary, resp, http.StatusOK, resp.ProcessingTime, analysisOutcome{
		kind:       inference.KindImage,
		label:      result.Category,
		confidence: result.Confidence,
	})
}

type analysisOutcome struct {
	kind       string
	label      string
	confidence float64
}

// finishAnalysis runs the post-response work: persist the request log and
// publish the result event. Both run on the worker pool so failures never
// touch the already written response.
func (s *Server) finishAnalysis(r *http.Request, reqPayload, respPayload any, status int, processingTime float64, outcome analysisOutcome) {
	requestID := RequestIDFromContext(r.Context())
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	entry := models.LogEntry{
		RequestID:      requestID,
		Timestamp:      timestamp,
		Endpoint:       r.URL.Path,
		StatusCode:     status,
		Request:        reqPayload,
		Response:       respPayload,
		ProcessingTime: processingTime,
	}
	s.submitTask("request_log", func(ctx context.Context) error {
		return s.logs.SaveRequestLog(ctx, entry)
	})

	event := models.AnalysisEvent{
		RequestID:  requestID,
		Kind:       outcome.kind,
		Label:      outcome.label,
		Confidence: outcome.confidence,
		Timestamp:  timestamp,
	}
	s.submitTask("analysis_event", func(ctx context.Context) error {
		return s.publisher.PublishAnalysis(ctx, event)
	})
}

// handleInferenceError maps upstream failures to a generic 502. The real
// error stays in the server log so credentials and endpoints never reach
// clients.
func (s *Server) handleInferenceError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("[Server] Inference request failed",
		slog.String("path", r.URL.Path),
		slog.String("request_id", RequestIDFromContext(r.Context())),
		slog.String("error", err.Error()))

	if errors.Is(err, inference.ErrUnavailable) {
		writeError(w, r, http.StatusBadGateway, CodeInferenceUnavailable, "inference service unavailable", nil)
		return
	}
	writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
}

func (s *Server) submitTask(name string, run func(ctx context.Context) error) {
	s.pool.Submit(workers.Task{Name: name, Run: run})
}

func elapsedSeconds(start time.Time) float64 {
	return time.Since(start).Round(time.Millisecond).Seconds()
}
