package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mtaasisi/lats-pos-api/internal/common"
	"github.com/mtaasisi/lats-pos-api/internal/pricing"
)

// OptionSource abstracts the store for handler tests.
type OptionSource interface {
	List(ctx context.Context) ([]Option, error)
	Update(ctx context.Context, opt Option) (Option, error)
}

// Handler exposes delivery-option endpoints.
type Handler struct {
	store OptionSource
}

// NewHandler constructs a Handler.
func NewHandler(store OptionSource) *Handler {
	return &Handler{store: store}
}

// List handles GET /api/v1/delivery-options.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	options, err := h.store.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, options)
}

// Update handles PUT /api/v1/delivery-options/{method}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimSpace(chi.URLParam(r, "method"))
	if method == "" {
		common.WriteError(w, common.BadRequest("method", "method is required", nil))
		return
	}
	var payload struct {
		Label   string        `json:"label"`
		Fee     pricing.Money `json:"fee"`
		Enabled bool          `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.WriteError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	if payload.Fee < 0 {
		common.WriteError(w, common.BadRequest("fee", "fee must not be negative", nil))
		return
	}
	updated, err := h.store.Update(r.Context(), Option{
		Method:  method,
		Label:   strings.TrimSpace(payload.Label),
		Fee:     payload.Fee,
		Enabled: payload.Enabled,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.WriteError(w, common.NotFound("delivery option not found", err))
			return
		}
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, updated)
}
