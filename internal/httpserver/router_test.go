package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pipeline-pioneers/etl-warehouse/internal/pipeline"
)

type stubIngest struct {
	result pipeline.StageResult
}

func (s *stubIngest) Run(ctx context.Context) pipeline.StageResult {
	return s.result
}

func TestHealthEndpoint(t *testing.T) {
	r := NewRouter(&stubIngest{}, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestTriggerIngestReportsStageResult(t *testing.T) {
	stub := &stubIngest{result: pipeline.StageResult{
		Status:         pipeline.StatusPartialFailure,
		Message:        "Some tables failed to ingest",
		FailedEntities: []string{"design"},
	}}
	r := NewRouter(stub, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/etl/ingest", nil))

	// Partial failure is still a handled outcome.
	assert.Equal(t, http.StatusOK, rec.Code)

	var result pipeline.StageResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, pipeline.StatusPartialFailure, result.Status)
	assert.Equal(t, []string{"design"}, result.FailedEntities)
}

func TestTriggerIngestFatalFailureIs500(t *testing.T) {
	stub := &stubIngest{result: pipeline.StageResult{
		Status:  pipeline.StatusFailure,
		Message: "Could not connect to source database",
	}}
	r := NewRouter(stub, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/etl/ingest", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
