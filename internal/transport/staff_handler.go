package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryPage lists categories for the category form
type CategoryPage struct {
	Categories []*domain.Category `json:"categories"`
}

// StaffHandler serves the back-office. Every route requires a staff token.
type StaffHandler struct {
	catalog   service.CatalogService
	orders    service.OrderService
	dashboard service.DashboardService
	logger    *zap.Logger
}

// NewStaffHandler creates a new StaffHandler
func NewStaffHandler(
	catalog service.CatalogService,
	orders service.OrderService,
	dashboard service.DashboardService,
	logger *zap.Logger,
) *StaffHandler {
	return &StaffHandler{
		catalog:   catalog,
		orders:    orders,
		dashboard: dashboard,
		logger:    logger,
	}
}

// RegisterRoutes registers the back-office routes on the /staff router, behind authMiddleware
func (h *StaffHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", h.Dashboard)
		r.Get("/dashboard", h.Dashboard)

		r.Get("/products/new", h.NewProductForm)
		r.Post("/products/new", h.CreateProduct)
		r.Get("/products/{productID}/edit", h.EditProductForm)
		r.Post("/products/{productID}/edit", h.UpdateProduct)
		r.Post("/products/{productID}/delete", h.DeleteProduct)

		r.Get("/categories", h.ListCategories)
		r.Post("/categories", h.CreateCategory)

		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{orderID}", h.GetOrder)
		r.Post("/orders/{orderID}", h.UpdateOrder)
	})
}

func (h *StaffHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboard.Dashboard(r.Context())
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, dashboard)
}

// NewProductForm returns the categories a new product can be filed under
func (h *StaffHandler) NewProductForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.catalog.ProductForm(r.Context(), 0)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, form)
}

func (h *StaffHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input service.ProductInput
	if !h.decode(w, r, &input) {
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("slug", product.Slug),
		zap.Int64("staff_id", staffID(r)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *StaffHandler) EditProductForm(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	form, err := h.catalog.ProductForm(r.Context(), productID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, form)
}

func (h *StaffHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	var input service.ProductInput
	if !h.decode(w, r, &input) {
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), productID, input)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product updated",
		zap.Int64("product_id", product.ID),
		zap.Int64("staff_id", staffID(r)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct answers 409 while orders still reference the product
func (h *StaffHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), productID); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product deleted",
		zap.Int64("product_id", productID),
		zap.Int64("staff_id", staffID(r)),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *StaffHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, CategoryPage{Categories: categories})
}

func (h *StaffHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input service.CategoryInput
	if !h.decode(w, r, &input) {
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// ListOrders filters by ?status= and ?q=
func (h *StaffHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.orders.List(r.Context(), query.Get("status"), query.Get("q"))
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *StaffHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := idParam(r, "orderID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		return
	}

	order, err := h.orders.Get(r.Context(), orderID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// UpdateOrder changes status and notes only
func (h *StaffHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := idParam(r, "orderID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		return
	}

	var input service.OrderUpdateInput
	if !h.decode(w, r, &input) {
		return
	}

	order, err := h.orders.Update(r.Context(), orderID, input)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Order updated",
		zap.Int64("order_id", order.ID),
		zap.String("status", string(order.Status)),
		zap.Int64("staff_id", staffID(r)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *StaffHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := middleware.DecodeJSON(w, r, v); err != nil {
		h.logger.Debug("Staff request decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func staffID(r *http.Request) int64 {
	id, _ := middleware.GetStaffID(r.Context())
	return id
}
