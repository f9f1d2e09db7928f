package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/pipeline-pioneers/etl-warehouse/internal/pipeline"
)

// IngestRunner is the ingest stage seen from the HTTP surface.
type IngestRunner interface {
	Run(ctx context.Context) pipeline.StageResult
}

// ETLHandler exposes manual pipeline triggers. Ingest is the only stage
// triggered by hand; the later stages react to storage events.
type ETLHandler struct {
	Ingest IngestRunner
	Log    *zap.Logger
}

// TriggerIngest runs a full ingest pass synchronously and reports the
// stage result. Partial failure still answers 200: the caller reads the
// status field, not the HTTP code, to know what happened.
func (h *ETLHandler) TriggerIngest(w http.ResponseWriter, r *http.Request) {
	result := h.Ingest.Run(r.Context())

	code := http.StatusOK
	if result.Status == pipeline.StatusFailure {
		code = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.Log.Error("failed to write trigger response", zap.Error(err))
	}
}
