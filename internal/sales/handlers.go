package sales

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mtaasisi/lats-pos-api/internal/common"
)

// Handler exposes sales history endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/v1/sales with pipeline criteria and pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	criteria := h.service.ParseCriteria(r.URL.Query())
	page, perPage := common.ParsePagination(r, 0)
	result, err := h.service.List(r.Context(), criteria, page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.Pagination{Page: result.Page, PerPage: result.PerPage, TotalItems: result.Total},
	})
}

// Get handles GET /api/v1/sales/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, common.BadRequest("id", "id must be a valid UUID", err))
		return
	}
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, sale)
}

// Summary handles GET /api/v1/sales/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summarize(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, summary)
}
