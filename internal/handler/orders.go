package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/deshiwear/storefront/internal/entities"
	"github.com/deshiwear/storefront/internal/middleware"
	"github.com/deshiwear/storefront/internal/service"
	"github.com/deshiwear/storefront/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// bdMobile matches valid Bangladesh mobile numbers (01 followed by an
// operator digit 3-9 and eight more digits).
var bdMobile = regexp.MustCompile(`^01[3-9]\d{8}$`)

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, in service.CreateOrderInput) (entities.Order, error)
	GetOrder(ctx context.Context, orderID, userID string, isAdmin bool) (entities.Order, error)
	GetMyOrders(ctx context.Context, userID string) ([]entities.Order, error)
	ListOrders(ctx context.Context, limit, offset uint64) ([]entities.Order, int, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus, tracking service.TrackingUpdate) (entities.Order, error)
	Stats(ctx context.Context) (service.OrderStats, error)
}

type OrderHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
	auth     func(next http.Handler) http.Handler
}

func NewOrderHandler(logger *slog.Logger, svc OrderService, auth func(next http.Handler) http.Handler) *OrderHandler {
	validate := validator.New()
	validate.RegisterValidation("bd_mobile", func(fl validator.FieldLevel) bool {
		return bdMobile.MatchString(fl.Field().String())
	})

	return &OrderHandler{
		logger:   logger.With(slog.String("handler", "orders")),
		validate: validate,
		svc:      svc,
		auth:     auth,
	}
}

func (h *OrderHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/", h.CreateOrder)
		r.Get("/my-orders", h.GetMyOrders)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(middleware.RoleAdmin))
			r.Get("/", h.ListOrders)
			r.Get("/stats", h.Stats)
			r.Put("/{order_id}/status", h.UpdateOrderStatus)
		})

		r.Get("/{order_id}", h.GetOrder)
	})
}

// CreateOrder assembles an order from the caller's cart. An optional
// Idempotency-Key header makes retried submissions return the order
// created by the first attempt.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		ordersRejected.WithLabelValues("validation").Inc()
		utils.WriteValidationError(w, err)
		return
	}

	in := service.CreateOrderInput{
		ShippingAddress: entities.ShippingAddress{
			Name:       req.ShippingAddress.Name,
			Phone:      req.ShippingAddress.Phone,
			Division:   req.ShippingAddress.Division,
			District:   req.ShippingAddress.District,
			Upazila:    req.ShippingAddress.Upazila,
			Address:    req.ShippingAddress.Address,
			PostalCode: req.ShippingAddress.PostalCode,
		},
		PaymentMethod:  entities.PaymentMethod(req.PaymentMethod),
		Notes:          req.Notes,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	for _, line := range req.Items {
		in.Items = append(in.Items, service.CartLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Size:      line.Size,
			Color:     line.Color,
		})
	}

	order, err := h.svc.CreateOrder(ctx, middleware.UserID(ctx), in)
	if errors.Is(err, entities.ErrProductNotFound) {
		ordersRejected.WithLabelValues("product_not_found").Inc()
		utils.WriteError(w, err.Error(), http.StatusNotFound)
		return
	}
	if errors.Is(err, entities.ErrInsufficientStock) {
		ordersRejected.WithLabelValues("insufficient_stock").Inc()
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create order", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	ordersCreated.Inc()
	utils.WriteJSON(w, map[string]any{
		"success": true,
		"order":   OrderEntityToJSON(order),
	}, http.StatusCreated)
}

func (h *OrderHandler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.svc.GetMyOrders(ctx, middleware.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list user orders", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"success": true,
		"orders":  OrderEntitiesToJSON(orders),
	}, http.StatusOK)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	order, err := h.svc.GetOrder(ctx, orderID, middleware.UserID(ctx), middleware.IsAdmin(ctx))
	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, entities.ErrAccessDenied) {
		utils.WriteError(w, "access denied", http.StatusForbidden)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get order", slog.Any("error", err), slog.String("orderID", orderID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"success": true,
		"order":   OrderEntityToJSON(order),
	}, http.StatusOK)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit := pagination(r)

	orders, total, err := h.svc.ListOrders(ctx, uint64(limit), uint64((page-1)*limit))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list orders", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"success":    true,
		"orders":     OrderEntitiesToJSON(orders),
		"total":      total,
		"pagination": paginationOf(page, limit, total),
	}, http.StatusOK)
}

func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req UpdateOrderStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.UpdateOrderStatus(ctx, orderID, entities.OrderStatus(req.OrderStatus), service.TrackingUpdate{
		TrackingNumber:    req.TrackingNumber,
		Carrier:           req.Carrier,
		EstimatedDelivery: req.EstimatedDelivery,
	})
	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, entities.ErrInvalidTransition) {
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update order status", slog.Any("error", err), slog.String("orderID", orderID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"success": true,
		"order":   OrderEntityToJSON(order),
	}, http.StatusOK)
}

func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.svc.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to aggregate stats", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"success": true,
		"stats": map[string]any{
			"totalOrders":     stats.TotalOrders,
			"totalRevenue":    stats.TotalRevenue,
			"pendingOrders":   stats.PendingOrders,
			"deliveredOrders": stats.DeliveredOrders,
			"monthlyRevenue":  stats.MonthlyRevenue,
		},
	}, http.StatusOK)
}
