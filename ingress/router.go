package ingress

import "net/http"

// NewRouter constructs a ServeMux with the ingest and read-side routes
// registered.
func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/traces", h.Submit)
	mux.HandleFunc("/v1/batches", h.ListBatches)
	mux.HandleFunc("/v1/batches/", h.ReadBatch)
	mux.HandleFunc("/healthz", h.Health)

	return mux
}
