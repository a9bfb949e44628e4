package backup

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/mtaasisi/lats-pos-api/internal/common"
)

// Enqueuer abstracts the asynq client for tests.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Handler exposes backup management endpoints.
type Handler struct {
	Store Store
	Tasks Enqueuer
	Log   zerolog.Logger
}

// Trigger handles POST /api/v1/backups.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	row, err := h.Store.Create(ctx)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	task, err := NewExportTask(row.ID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if _, err := h.Tasks.EnqueueContext(ctx, task); err != nil {
		h.Log.Error().Err(err).Str("backup_id", row.ID.String()).Msg("enqueue backup task")
		if markErr := h.Store.MarkFailed(ctx, row.ID, "enqueue failed"); markErr != nil {
			h.Log.Error().Err(markErr).Msg("mark backup failed")
		}
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "could not schedule backup", nil)
		return
	}
	common.JSONData(w, http.StatusAccepted, row)
}

// List handles GET /api/v1/backups.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rows)
}

// Status handles GET /api/v1/backups/{id}.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, common.BadRequest("id", "id must be a valid UUID", err))
		return
	}
	row, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.WriteError(w, common.NotFound("backup not found", err))
			return
		}
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, row)
}
