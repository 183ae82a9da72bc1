package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"gamarr/internal/pipeline"
)

// ArtworkCache clears locally cached images for one staged game
type ArtworkCache interface {
	Clear(gameID string) error
}

// StagingHandler exposes the staging queue to the presentation layer:
// listing, ignore/unignore, commit and artwork-cache clearing
type StagingHandler struct {
	pipe    *pipeline.Pipeline
	artwork ArtworkCache
	logger  *logrus.Logger
}

// NewStagingHandler creates a new staging handler
func NewStagingHandler(pipe *pipeline.Pipeline, artwork ArtworkCache, logger *logrus.Logger) *StagingHandler {
	return &StagingHandler{
		pipe:    pipe,
		artwork: artwork,
		logger:  logger,
	}
}

// List handles GET /api/staging
func (h *StagingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.pipe.Queue().Snapshot())
}

// Entry handles POST /api/staging/{id}/{action} where action is one of
// ignore, unignore, commit, clear-artwork
func (h *StagingHandler) Entry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/staging/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	id, action := parts[0], parts[1]

	var err error
	switch action {
	case "ignore":
		err = h.pipe.Queue().SetIgnored(id, true)
	case "unignore":
		err = h.pipe.Queue().SetIgnored(id, false)
	case "commit":
		err = h.pipe.Commit([]string{id})
	case "clear-artwork":
		if _, ok := h.pipe.Queue().Get(id); !ok {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		err = h.artwork.Clear(id)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"id":     id,
			"action": action,
		}).Warn("Staging action failed")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Scan handles POST /api/scan, triggering a background batch
func (h *StagingHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.pipe.Running() {
		http.Error(w, "a scan is already running", http.StatusConflict)
		return
	}

	// The batch must outlive the request
	go func() {
		if err := h.pipe.Run(context.Background(), nil); err != nil && err != pipeline.ErrAlreadyRunning {
			h.logger.WithError(err).Error("Triggered scan failed")
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}
