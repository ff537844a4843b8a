package ingress

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/traceloft/traceloft/core"
	"github.com/traceloft/traceloft/engine"
	"github.com/traceloft/traceloft/storage"
)

// maxPayloadBytes caps one submission body. Larger payloads are the
// producer's bug, not backpressure.
const maxPayloadBytes = 4 << 20

// Handler maps the HTTP wire surface onto the engine's admission API
// and the store's read-side API.
type Handler struct {
	engine *engine.Engine
	store  storage.ObjectStore
	logger *slog.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(e *engine.Engine, store storage.ObjectStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: e, store: store, logger: logger}
}

// SubmitResponse acknowledges an accepted trace payload.
type SubmitResponse struct {
	Seq uint64 `json:"seq"`
}

// Submit handles POST /v1/traces: one raw trace payload per request.
// Admission rejections map onto wire-level backpressure signals:
// 429 for a full queue, 503 during shutdown.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	if len(payload) > maxPayloadBytes {
		http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	seq, err := h.engine.Submit(payload)
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrBackpressure):
		// Ask the producer to slow down rather than queuing unboundedly.
		w.Header().Set("Retry-After", "1")
		http.Error(w, "Queue full", http.StatusTooManyRequests)
		return
	case errors.Is(err, engine.ErrShuttingDown):
		http.Error(w, "Shutting down", http.StatusServiceUnavailable)
		return
	case errors.Is(err, core.ErrEmptyPayload):
		http.Error(w, "Empty payload", http.StatusBadRequest)
		return
	default:
		h.logger.Error("submission failed", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(SubmitResponse{Seq: seq})
}

// Health handles GET /healthz with the engine's counter snapshot.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.engine.Counters())
}

// BatchSummary describes one stored batch for listing.
type BatchSummary struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}

// ListBatches handles GET /v1/batches?limit=N, newest first.
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	infos, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list batches failed", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	summaries := make([]BatchSummary, 0, len(infos))
	for _, info := range infos {
		summaries = append(summaries, BatchSummary{
			Key:       info.Key.String(),
			Size:      info.Size,
			Count:     info.Count,
			CreatedAt: info.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

// ReadBatch handles GET /v1/batches/{key}: raw object bytes, with an
// optional Range-style byte window via offset/length query parameters.
func (h *Handler) ReadBatch(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/v1/batches/")
	key, err := core.ParseObjectKey(raw)
	if err != nil {
		http.Error(w, "Invalid object key", http.StatusBadRequest)
		return
	}

	rng, err := parseRange(r.URL.Query().Get("offset"), r.URL.Query().Get("length"))
	if err != nil {
		http.Error(w, "Invalid byte range", http.StatusBadRequest)
		return
	}

	data, err := h.store.Read(r.Context(), key, rng)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrObjectNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
		return
	case errors.Is(err, storage.ErrInvalidRange):
		http.Error(w, "Range outside object", http.StatusRequestedRangeNotSatisfiable)
		return
	default:
		h.logger.Error("read batch failed", "key", key.String(), "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

func parseRange(offsetRaw, lengthRaw string) (*storage.ByteRange, error) {
	if offsetRaw == "" && lengthRaw == "" {
		return nil, nil
	}
	if offsetRaw == "" || lengthRaw == "" {
		return nil, storage.ErrInvalidRange
	}

	offset, err := strconv.ParseInt(offsetRaw, 10, 64)
	if err != nil || offset < 0 {
		return nil, storage.ErrInvalidRange
	}
	length, err := strconv.ParseInt(lengthRaw, 10, 64)
	if err != nil || length < 1 {
		return nil, storage.ErrInvalidRange
	}

	return &storage.ByteRange{Offset: offset, Length: length}, nil
}
