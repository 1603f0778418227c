package transport

import (
	"context"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const cartPath = "/cart/"

// QuantityRequest is the optional body of cart add/update
type QuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// CartHandler handles HTTP requests for the visitor cart
type CartHandler struct {
	carts  service.CartService
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger,
	}
}

// RegisterRoutes registers the cart routes. Mutations are wrapped in limit.
func (h *CartHandler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.View)

		r.Group(func(r chi.Router) {
			r.Use(postOnly(cartPath))
			r.Use(limit)
			r.HandleFunc("/add/{productID}", h.Add)
			r.HandleFunc("/update/{productID}", h.Update)
			r.HandleFunc("/remove/{productID}", h.Remove)
			r.HandleFunc("/clear", h.Clear)
		})
	})
}

// postOnly redirects anything but POST to location without running the handler
func postOnly(location string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				middleware.SeeOther(w, r, location)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// View returns the materialized cart with totals and pending messages
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}

	view, err := h.carts.View(r.Context(), sid)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// Add adds quantity (default 1) of an active product
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.withQuantity(w, r, 1, h.carts.Add)
}

// Update overwrites the quantity of a line (default 1); zero or less removes it
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.withQuantity(w, r, 1, h.carts.Update)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	productID, err := idParam(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	if err := h.carts.Remove(r.Context(), sid, productID); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.SeeOther(w, r, cartPath)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}

	if err := h.carts.Clear(r.Context(), sid); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.SeeOther(w, r, cartPath)
}

type quantityMutation func(ctx context.Context, sessionID string, productID int64, qty int) error

func (h *CartHandler) withQuantity(w http.ResponseWriter, r *http.Request, defaultQty int, apply quantityMutation) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	productID, err := idParam(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	var req QuantityRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		h.logger.Debug("Cart request decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	qty := defaultQty
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	if err := apply(r.Context(), sid, productID, qty); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.SeeOther(w, r, cartPath)
}
