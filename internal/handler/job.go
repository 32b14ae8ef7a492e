package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/RaphaelInbix/agente-cassiano/internal/model"
)

// JobEngine is the engine surface the handlers expose over HTTP.
type JobEngine interface {
	Trigger() model.TriggerResponse
	Status() model.JobState
	Dataset() (*model.CuratedDataset, bool)
}

// JobHandler serves the curation job endpoints.
type JobHandler struct {
	engine JobEngine
}

// NewJobHandler creates a job handler backed by the given engine
func NewJobHandler(engine JobEngine) *JobHandler {
	return &JobHandler{engine: engine}
}

// Trigger handles POST /api/trigger. Always answers 202: either a new
// run started or the caller was attached to one, and both mean "the
// work is happening".
func (h *JobHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	resp := h.engine.Trigger()
	WriteJSON(w, http.StatusAccepted, resp)
}

// Status handles GET /api/status.
func (h *JobHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.engine.Status())
}

// Dataset handles GET /api/dataset. UpdatedAt is null until the first
// successful run so clients can distinguish "empty" from "never ran".
// An optional limit query parameter truncates the item list; Total
// still reports the full dataset size.
func (h *JobHandler) Dataset(w http.ResponseWriter, r *http.Request) {
	ds, running := h.engine.Dataset()

	items := ds.Items
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			WriteError(w, model.NewBadRequestError("limit must be a non-negative integer"))
			return
		}
		if limit < len(items) {
			items = items[:limit]
		}
	}

	resp := model.DatasetResponse{
		Total:        ds.Total(),
		Generation:   ds.Generation,
		Items:        items,
		AutoUpdating: running,
	}
	if !ds.UpdatedAt.IsZero() {
		t := ds.UpdatedAt
		resp.UpdatedAt = &t
	}
	if resp.Items == nil {
		resp.Items = []model.CuratedItem{}
	}

	WriteJSON(w, http.StatusOK, resp)
}

// healthResponse is the GET /api/health body.
type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /api/health. It answers as soon as the process can
// serve requests; the engine and store may still be warming up.
func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}
