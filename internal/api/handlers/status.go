package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"gamarr/internal/models"
	"gamarr/internal/staging"
)

// StatusHandler reports queue counts for the current/last batch
type StatusHandler struct {
	queue   *staging.Queue
	running func() bool
	logger  *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(queue *staging.Queue, running func() bool, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		queue:   queue,
		running: running,
		logger:  logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	Running        bool           `json:"running"`
	TotalStaged    int            `json:"total_staged"`
	Pending        int            `json:"pending"`
	Scanning       int            `json:"scanning"`
	Matched        int            `json:"matched"`
	Ambiguous      int            `json:"ambiguous"`
	Ready          int            `json:"ready"`
	Errored        int            `json:"errored"`
	StagedBySource map[string]int `json:"staged_by_source"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts := h.queue.Counts()
	response := StatusResponse{
		Running:        h.running(),
		TotalStaged:    h.queue.Len(),
		Pending:        counts[models.StatusPending],
		Scanning:       counts[models.StatusScanning],
		Matched:        counts[models.StatusMatched],
		Ambiguous:      counts[models.StatusAmbiguous],
		Ready:          counts[models.StatusReady],
		Errored:        counts[models.StatusError],
		StagedBySource: make(map[string]int),
	}

	for _, staged := range h.queue.Snapshot() {
		response.StagedBySource[string(staged.SourceKind)]++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
