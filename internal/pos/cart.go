// Package pos implements carts and checkout for the point-of-sale surface.
package pos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/mtaasisi/lats-pos-api/internal/pricing"
)

// ErrNotFound indicates the requested cart or line could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// CartLine is one sellable line in a cart. UnitPrice may be negative for
// discount or gift-card lines. Total is always derived from Qty and
// UnitPrice, never stored independently.
type CartLine struct {
	ID        uuid.UUID     `json:"id"`
	ProductID *uuid.UUID    `json:"productId,omitempty"`
	Name      string        `json:"name"`
	Variant   string        `json:"variant,omitempty"`
	Qty       int           `json:"qty"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Total     pricing.Money `json:"total"`
	External  bool          `json:"external,omitempty"`
}

// Cart is a TTL'd working document stored in Redis.
type Cart struct {
	ID        uuid.UUID  `json:"id"`
	Lines     []CartLine `json:"lines"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// PricingLines converts cart lines into pricing engine input.
func (c Cart) PricingLines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, pricing.Line{Qty: l.Qty, UnitPrice: l.UnitPrice})
	}
	return lines
}

// CartStore keeps carts as JSON documents in Redis. Every write refreshes the
// TTL so active carts survive a full shift.
type CartStore struct {
	R   *redis.Client
	TTL time.Duration
}

func (s *CartStore) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func cartKey(id uuid.UUID) string {
	return "pos:cart:" + id.String()
}

// Get loads a cart by ID.
func (s *CartStore) Get(ctx context.Context, id uuid.UUID) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart store not configured")
	}
	data, err := s.R.Get(ctx, cartKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Cart{}, ErrNotFound
		}
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}
	var cart Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	return cart, nil
}

// Save writes the cart document and refreshes its TTL.
func (s *CartStore) Save(ctx context.Context, cart Cart) error {
	if s == nil || s.R == nil {
		return errors.New("cart store not configured")
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.R.Set(ctx, cartKey(cart.ID), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Delete removes the cart document.
func (s *CartStore) Delete(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.R == nil {
		return errors.New("cart store not configured")
	}
	if err := s.R.Del(ctx, cartKey(id)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
