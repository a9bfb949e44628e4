package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mtaasisi/lats-pos-api/internal/common"
	"github.com/mtaasisi/lats-pos-api/internal/pricing"
)

// Handler exposes catalog endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service  *Service
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	return &Handler{service: cfg.Service, validate: v}
}

// ListProducts handles GET /api/v1/products with pipeline criteria and pagination.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
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

// GetProduct handles GET /api/v1/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

// CreateProduct handles POST /api/v1/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodeInput(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.Create(r.Context(), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, view)
}

// UpdateProduct handles PUT /api/v1/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	input, err := h.decodeInput(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Markup handles GET /api/v1/products/markup?cost=N.
func (h *Handler) Markup(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("cost"))
	cost, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cost < 0 {
		common.WriteError(w, common.BadRequest("cost", "cost must be a non-negative integer", err))
		return
	}
	common.JSONData(w, http.StatusOK, h.service.MarkupOptions(pricing.Money(cost)))
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Categories(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rows)
}

// CreateCategory handles POST /api/v1/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	name, err := decodeName(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	row, err := h.service.CreateCategory(r.Context(), name)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, row)
}

// DeleteCategory handles DELETE /api/v1/categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Brands handles GET /api/v1/brands.
func (h *Handler) Brands(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Brands(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rows)
}

// CreateBrand handles POST /api/v1/brands.
func (h *Handler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	name, err := decodeName(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	row, err := h.service.CreateBrand(r.Context(), name)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, row)
}

// DeleteBrand handles DELETE /api/v1/brands/{id}.
func (h *Handler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.DeleteBrand(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeInput(r *http.Request) (ProductInput, error) {
	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return ProductInput{}, common.BadRequest("body", "invalid JSON payload", err)
	}
	if err := h.validate.Struct(input); err != nil {
		return ProductInput{}, validationError(err)
	}
	return input, nil
}

func decodeName(r *http.Request) (string, error) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return "", common.BadRequest("body", "invalid JSON payload", err)
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return "", common.BadRequest("name", "name is required", nil)
	}
	return name, nil
}

func parseID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, common.BadRequest("id", "id must be a valid UUID", err)
	}
	return id, nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	details := map[string]any{}
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return &common.AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "payload validation failed",
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        err,
		Details:    details,
	}
}
