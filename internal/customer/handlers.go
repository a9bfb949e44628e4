package customer

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mtaasisi/lats-pos-api/internal/common"
)

// Handler exposes customer endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, validate *validator.Validate) *Handler {
	if validate == nil {
		validate = validator.New()
	}
	return &Handler{service: service, validate: validate}
}

// List handles GET /api/v1/customers with pipeline criteria and pagination.
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

// Get handles GET /api/v1/customers/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, c)
}

// Create handles POST /api/v1/customers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodeInput(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, c)
}

// Update handles PUT /api/v1/customers/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
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
	c, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, c)
}

// Delete handles DELETE /api/v1/customers/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *Handler) decodeInput(r *http.Request) (Input, error) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return Input{}, common.BadRequest("body", "invalid JSON payload", err)
	}
	if err := h.validate.Struct(input); err != nil {
		details := map[string]any{}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				details[fe.Field()] = fe.Tag()
			}
		}
		return Input{}, &common.AppError{
			Code:       "VALIDATION_FAILED",
			Message:    "payload validation failed",
			HTTPStatus: http.StatusUnprocessableEntity,
			Err:        err,
			Details:    details,
		}
	}
	return input, nil
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, common.BadRequest("id", "id must be a valid UUID", err)
	}
	return id, nil
}
