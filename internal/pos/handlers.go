package pos

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mtaasisi/lats-pos-api/internal/common"
	"github.com/mtaasisi/lats-pos-api/internal/pricing"
)

// Handler exposes cart and checkout endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateCart handles POST /api/v1/carts.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.CreateCart(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, cart)
}

// GetCart handles GET /api/v1/carts/{cartId}.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID, err := parseParam(r, "cartId")
	if err != nil {
		h.writeError(w, err)
		return
	}
	cart, err := h.service.GetCart(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, cart)
}

// AddLine handles POST /api/v1/carts/{cartId}/lines.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	cartID, err := parseParam(r, "cartId")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var input AddLineInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	cart, err := h.service.AddLine(r.Context(), cartID, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, cart)
}

// UpdateQty handles PATCH /api/v1/carts/{cartId}/lines/{lineId}.
func (h *Handler) UpdateQty(w http.ResponseWriter, r *http.Request) {
	cartID, err := parseParam(r, "cartId")
	if err != nil {
		h.writeError(w, err)
		return
	}
	lineID, err := parseParam(r, "lineId")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var payload struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	cart, err := h.service.UpdateQty(r.Context(), cartID, lineID, payload.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, cart)
}

// RemoveLine handles DELETE /api/v1/carts/{cartId}/lines/{lineId}.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	cartID, err := parseParam(r, "cartId")
	if err != nil {
		h.writeError(w, err)
		return
	}
	lineID, err := parseParam(r, "lineId")
	if err != nil {
		h.writeError(w, err)
		return
	}
	cart, err := h.service.RemoveLine(r.Context(), cartID, lineID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, cart)
}

// ClearCart handles DELETE /api/v1/carts/{cartId}/lines.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cartID, err := parseParam(r, "cartId")
	if err != nil {
		h.writeError(w, err)
		return
	}
	cart, err := h.service.ClearCart(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, cart)
}

// Quote handles POST /api/v1/carts/{cartId}/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	cartID, err := parseParam(r, "cartId")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var payload struct {
		DeliveryMethod string        `json:"deliveryMethod"`
		AmountPaid     pricing.Money `json:"amountPaid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	totals, err := h.service.Quote(r.Context(), cartID, strings.TrimSpace(payload.DeliveryMethod), payload.AmountPaid)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"subtotal":   totals.Subtotal,
		"tax":        totals.Tax,
		"shipping":   totals.Shipping,
		"total":      totals.Total,
		"amountPaid": totals.AmountPaid,
		"balance":    totals.Balance,
	})
}

// Checkout handles POST /api/v1/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var input CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	if input.CartID == uuid.Nil {
		h.writeError(w, common.BadRequest("cartId", "cartId is required", nil))
		return
	}
	sale, err := h.service.Checkout(r.Context(), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, sale)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.WriteError(w, err)
	}
}

func parseParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, common.BadRequest(name, name+" must be a valid UUID", err)
	}
	return id, nil
}
