package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/deshiwear/storefront/internal/entities"
	"github.com/deshiwear/storefront/internal/middleware"
	"github.com/deshiwear/storefront/internal/repo"
	"github.com/deshiwear/storefront/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const defaultPageSize = 20

type CatalogService interface {
	ListProducts(ctx context.Context, f repo.ProductFilter) ([]entities.Product, int, error)
	GetProduct(ctx context.Context, id string) (entities.Product, error)
	CreateProduct(ctx context.Context, p entities.Product) (entities.Product, error)
	UpdateProduct(ctx context.Context, p entities.Product) (entities.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type ProductHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      CatalogService
	auth     func(next http.Handler) http.Handler
}

func NewProductHandler(logger *slog.Logger, svc CatalogService, auth func(next http.Handler) http.Handler) *ProductHandler {
	return &ProductHandler{
		logger:   logger.With(slog.String("handler", "products")),
		validate: validator.New(),
		svc:      svc,
		auth:     auth,
	}
}

func (h *ProductHandler) Init(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{product_id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(h.auth, middleware.RequireRole(middleware.RoleAdmin))
			r.Post("/", h.CreateProduct)
			r.Put("/{product_id}", h.UpdateProduct)
			r.Delete("/{product_id}", h.DeleteProduct)
		})
	})
}

// ListProducts is the public catalog listing. Inactive products are hidden;
// category and featured filters come from query params.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit := pagination(r)

	filter := repo.ProductFilter{
		Category:     r.URL.Query().Get("category"),
		FeaturedOnly: r.URL.Query().Get("featured") == "true",
		ActiveOnly:   true,
		Limit:        uint64(limit),
		Offset:       uint64((page - 1) * limit),
	}

	products, total, err := h.svc.ListProducts(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list products", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, ProductEntityToJSON(p))
	}

	utils.WriteJSON(w, map[string]any{
		"success":    true,
		"products":   out,
		"total":      total,
		"pagination": paginationOf(page, limit, total),
	}, http.StatusOK)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := chi.URLParam(r, "product_id")

	product, err := h.svc.GetProduct(ctx, productID)
	if errors.Is(err, entities.ErrProductNotFound) {
		utils.WriteError(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get product", slog.Any("error", err), slog.String("productID", productID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"success": true,
		"product": ProductEntityToJSON(product),
	}, http.StatusOK)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ProductRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	product, err := h.svc.CreateProduct(ctx, ProductRequestToEntity(req))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create product", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"success": true,
		"product": ProductEntityToJSON(product),
	}, http.StatusCreated)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := chi.URLParam(r, "product_id")

	var req ProductRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	update := ProductRequestToEntity(req)
	update.ID = productID

	product, err := h.svc.UpdateProduct(ctx, update)
	if errors.Is(err, entities.ErrProductNotFound) {
		utils.WriteError(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update product", slog.Any("error", err), slog.String("productID", productID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"success": true,
		"product": ProductEntityToJSON(product),
	}, http.StatusOK)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := chi.URLParam(r, "product_id")

	err := h.svc.DeleteProduct(ctx, productID)
	if errors.Is(err, entities.ErrProductNotFound) {
		utils.WriteError(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to delete product", slog.Any("error", err), slog.String("productID", productID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"success": true,
		"message": "product deleted",
	}, http.StatusOK)
}

func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = defaultPageSize
	}
	return page, limit
}

func paginationOf(page, limit, total int) Pagination {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return Pagination{Page: page, Limit: limit, Pages: pages}
}
