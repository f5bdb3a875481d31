package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"content_lifecycle_engine/internal/app"
	"content_lifecycle_engine/internal/domain/content"

	"github.com/sirupsen/logrus"
)

// EditorialAPI exposes the editor-facing operations over HTTP: the lifecycle
// status line of an item and on-demand default scheduling. The editorial
// system calls these when rendering or publishing content; sweeps never do.
type EditorialAPI struct {
	repo       content.Repository
	message    *app.ModerationMessage
	scheduling *app.SchedulingService
	logger     *logrus.Logger
}

func NewEditorialAPI(
	repo content.Repository,
	message *app.ModerationMessage,
	scheduling *app.SchedulingService,
	logger *logrus.Logger,
) *EditorialAPI {
	return &EditorialAPI{repo: repo, message: message, scheduling: scheduling, logger: logger}
}

// Register mounts the editorial routes on the given mux.
func (a *EditorialAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /items/status", a.handleStatus)
	mux.HandleFunc("POST /items/schedule-defaults", a.handleScheduleDefaults)
}

func (a *EditorialAPI) handleStatus(w http.ResponseWriter, r *http.Request) {
	item, ok := a.loadItem(w, r)
	if !ok {
		return
	}

	message, err := a.message.StatusMessage(r.Context(), item)
	if err != nil {
		a.logger.WithError(err).Errorf("Computing status message of item %s failed.", item.Key())
		http.Error(w, "could not compute status message", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"message": message})
}

func (a *EditorialAPI) handleScheduleDefaults(w http.ResponseWriter, r *http.Request) {
	item, ok := a.loadItem(w, r)
	if !ok {
		return
	}

	if err := a.scheduling.ApplyDefaults(r.Context(), item, time.Now()); err != nil {
		a.logger.WithError(err).Errorf("Applying scheduling defaults to item %s failed.", item.Key())
		http.Error(w, "could not apply scheduling defaults", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"item": item.Key(), "fields": item.Fields})
}

func (a *EditorialAPI) loadItem(w http.ResponseWriter, r *http.Request) (*content.Item, bool) {
	itemType := r.URL.Query().Get("type")
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if itemType == "" || err != nil {
		http.Error(w, "type and numeric id query parameters are required", http.StatusBadRequest)
		return nil, false
	}

	items, err := a.repo.LoadMany(r.Context(), itemType, []int64{id})
	if err != nil {
		a.logger.WithError(err).Errorf("Loading item %s/%d failed.", itemType, id)
		http.Error(w, "could not load item", http.StatusInternalServerError)
		return nil, false
	}
	if len(items) == 0 {
		http.Error(w, "item not found", http.StatusNotFound)
		return nil, false
	}
	return items[0], true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
