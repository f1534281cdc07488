package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/skillmatch/internal/batch"
)

// BatchHandler triggers scoring runs on demand.
type BatchHandler struct {
	runner BatchRunner
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(runner BatchRunner) *BatchHandler {
	return &BatchHandler{runner: runner}
}

// HandleRun handles POST /batch. The run is bound to the request context,
// so a client that disconnects cancels it.
func (h *BatchHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	rep, err := h.runner.RunBatch(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rep)
	case errors.Is(err, batch.ErrRunInProgress):
		writeError(w, http.StatusConflict, "run_in_progress", err)
	default:
		writeError(w, http.StatusInternalServerError, "run_failed", fmt.Errorf("%w: %w", ErrRunFailed, err))
	}
}
