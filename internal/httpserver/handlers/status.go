package handlers

import (
	"encoding/json"
	"net/http"
)

type StatusHandler struct {
}

func NewStatusHandler() *StatusHandler {
	return &StatusHandler{}
}

func (h *StatusHandler) Health(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]string{"status": "ok", "service": "etl-warehouse"}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}
