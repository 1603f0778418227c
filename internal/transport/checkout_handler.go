package transport

import (
	"errors"
	"fmt"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutRequest is the shipping form plus the total the customer was shown
type CheckoutRequest struct {
	service.ShippingInfo
	ExpectedTotal *decimal.Decimal `json:"expected_total"`
}

// OrderConfirmation is the checkout success page
type OrderConfirmation struct {
	Order    *domain.Order     `json:"order"`
	Messages []session.Message `json:"messages"`
}

// CheckoutHandler handles checkout and order confirmation
type CheckoutHandler struct {
	checkout service.CheckoutService
	carts    service.CartService
	logger   *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkout service.CheckoutService, carts service.CartService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		carts:    carts,
		logger:   logger,
	}
}

// RegisterRoutes registers the checkout routes. Order placement is wrapped in limit.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", h.Preview)
		r.With(limit).Post("/", h.PlaceOrder)
		r.Get("/success/{orderID}", h.Success)
	})
}

// Preview shows the cart and totals that checkout will charge
func (h *CheckoutHandler) Preview(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}

	preview, err := h.checkout.Preview(r.Context(), sid)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			middleware.SeeOther(w, r, "/")
			return
		}
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, preview)
}

// PlaceOrder turns the cart into an order and redirects to its confirmation
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		h.logger.Debug("Checkout decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.checkout.PlaceOrder(r.Context(), sid, req.ShippingInfo, req.ExpectedTotal)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			middleware.SeeOther(w, r, "/")
			return
		}
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.SeeOther(w, r, fmt.Sprintf("/checkout/success/%d/", order.ID))
}

// Success shows a placed order with its items
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	orderID, err := idParam(r, "orderID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		return
	}

	order, err := h.checkout.GetOrder(r.Context(), orderID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	response := OrderConfirmation{Order: order, Messages: []session.Message{}}
	if sid, ok := middleware.GetSessionID(r.Context()); ok {
		if response.Messages, err = h.carts.Flash(r.Context(), sid); err != nil {
			respondWithServiceError(w, r, h.logger, err)
			return
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}
