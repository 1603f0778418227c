package transport

import (
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HomeResponse is the storefront landing page
type HomeResponse struct {
	*service.HomePage
	CartCount int               `json:"cart_count"`
	Messages  []session.Message `json:"messages"`
}

// ProductResponse is the product detail page
type ProductResponse struct {
	*service.ProductPage
	Sizes    []string          `json:"sizes"`
	Messages []session.Message `json:"messages"`
}

// StorefrontHandler serves catalog browsing
type StorefrontHandler struct {
	catalog service.CatalogService
	carts   service.CartService
	logger  *zap.Logger
}

// NewStorefrontHandler creates a new StorefrontHandler
func NewStorefrontHandler(catalog service.CatalogService, carts service.CartService, logger *zap.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		catalog: catalog,
		carts:   carts,
		logger:  logger,
	}
}

// RegisterRoutes registers the catalog routes
func (h *StorefrontHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/products/{slug}", h.ProductDetail)
}

// Home lists active products filtered by ?category= and ?q=
func (h *StorefrontHandler) Home(w http.ResponseWriter, r *http.Request) {
	filter := service.HomeFilter{Query: r.URL.Query().Get("q")}
	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		// Unparseable ids are treated as no filter.
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filter.CategoryID = &id
		}
	}

	page, err := h.catalog.Home(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	response := HomeResponse{HomePage: page, Messages: []session.Message{}}
	if sid, ok := middleware.GetSessionID(r.Context()); ok {
		if response.CartCount, err = h.carts.Count(r.Context(), sid); err != nil {
			respondWithServiceError(w, r, h.logger, err)
			return
		}
		if response.Messages, err = h.carts.Flash(r.Context(), sid); err != nil {
			respondWithServiceError(w, r, h.logger, err)
			return
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// ProductDetail shows one active product and up to four related ones
func (h *StorefrontHandler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.ProductDetail(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	response := ProductResponse{
		ProductPage: page,
		Sizes:       page.Product.AvailableSizes(),
		Messages:    []session.Message{},
	}
	if sid, ok := middleware.GetSessionID(r.Context()); ok {
		if response.Messages, err = h.carts.Flash(r.Context(), sid); err != nil {
			respondWithServiceError(w, r, h.logger, err)
			return
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}
