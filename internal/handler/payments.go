package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/deshiwear/storefront/internal/entities"
	"github.com/deshiwear/storefront/internal/gateway"
	"github.com/deshiwear/storefront/internal/middleware"
	"github.com/deshiwear/storefront/internal/service"
	"github.com/deshiwear/storefront/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type PaymentService interface {
	CreateBkashPayment(ctx context.Context, userID, orderID, callbackURL string) (gateway.PaymentSession, error)
	CreateNagadPayment(ctx context.Context, userID, orderID, callbackURL string) (gateway.PaymentSession, error)
	HandleBkashCallback(ctx context.Context, cb service.Callback) string
	HandleNagadCallback(ctx context.Context, cb service.Callback) string
	VerifyPayment(ctx context.Context, userID, orderID string) (entities.Order, error)
}

type PaymentHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      PaymentService
	auth     func(next http.Handler) http.Handler

	bkashWebhookSecret string
	nagadWebhookSecret string
}

func NewPaymentHandler(
	logger *slog.Logger,
	svc PaymentService,
	auth func(next http.Handler) http.Handler,
	bkashWebhookSecret, nagadWebhookSecret string,
) *PaymentHandler {
	return &PaymentHandler{
		logger:             logger.With(slog.String("handler", "payments")),
		validate:           validator.New(),
		svc:                svc,
		auth:               auth,
		bkashWebhookSecret: bkashWebhookSecret,
		nagadWebhookSecret: nagadWebhookSecret,
	}
}

func (h *PaymentHandler) Init(r chi.Router) {
	r.Route("/payment", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.auth)
			r.Post("/bkash/create", h.CreateBkashPayment)
			r.Post("/nagad/create", h.CreateNagadPayment)
			r.Get("/verify/{order_id}", h.VerifyPayment)
		})

		// Provider callbacks carry no user token; they are authenticated
		// by HMAC signature instead.
		r.Post("/bkash/callback", h.BkashCallback)
		r.Post("/nagad/callback", h.NagadCallback)
	})
}

func (h *PaymentHandler) CreateBkashPayment(w http.ResponseWriter, r *http.Request) {
	h.createPayment(w, r, "bkash", h.svc.CreateBkashPayment)
}

func (h *PaymentHandler) CreateNagadPayment(w http.ResponseWriter, r *http.Request) {
	h.createPayment(w, r, "nagad", h.svc.CreateNagadPayment)
}

func (h *PaymentHandler) createPayment(
	w http.ResponseWriter,
	r *http.Request,
	gatewayName string,
	create func(ctx context.Context, userID, orderID, callbackURL string) (gateway.PaymentSession, error),
) {
	ctx := r.Context()

	var req CreatePaymentRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	session, err := create(ctx, middleware.UserID(ctx), req.OrderID, callbackURL(r, gatewayName))
	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create payment session",
			slog.String("gateway", gatewayName),
			slog.String("orderID", req.OrderID),
			slog.Any("error", err),
		)
		utils.WriteError(w, "failed to initiate payment", http.StatusBadGateway)
		return
	}

	paymentSessions.WithLabelValues(gatewayName).Inc()
	utils.WriteJSON(w, map[string]any{
		"success":     true,
		"paymentID":   session.PaymentID,
		"redirectURL": session.RedirectURL,
		"amount":      session.Amount,
		"currency":    session.Currency,
	}, http.StatusOK)
}

// BkashCallback handles the provider webhook. The raw body is verified
// against the shared secret before anything is parsed; after that every
// outcome redirects the payer's browser, never a bare error page.
func (h *PaymentHandler) BkashCallback(w http.ResponseWriter, r *http.Request) {
	h.callback(w, r, "bkash", h.bkashWebhookSecret, h.svc.HandleBkashCallback)
}

func (h *PaymentHandler) NagadCallback(w http.ResponseWriter, r *http.Request) {
	h.callback(w, r, "nagad", h.nagadWebhookSecret, h.svc.HandleNagadCallback)
}

func (h *PaymentHandler) callback(
	w http.ResponseWriter,
	r *http.Request,
	gatewayName, secret string,
	handle func(ctx context.Context, cb service.Callback) string,
) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !gateway.VerifySignature(secret, body, r.Header.Get("X-Signature")) {
		h.logger.WarnContext(ctx, "webhook signature mismatch", slog.String("gateway", gatewayName))
		paymentCallbacks.WithLabelValues(gatewayName, "rejected").Inc()
		utils.WriteError(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	// Providers deliver the identifiers both as query params and in the
	// body; query params win because they survive provider retries intact.
	cb := service.Callback{
		PaymentID: r.URL.Query().Get("paymentID"),
		Status:    r.URL.Query().Get("status"),
		OrderID:   r.URL.Query().Get("orderId"),
	}
	if cb.PaymentID == "" || cb.Status == "" || cb.OrderID == "" {
		var req PaymentCallbackRequest
		if err := json.Unmarshal(body, &req); err == nil {
			if cb.PaymentID == "" {
				cb.PaymentID = req.PaymentID
			}
			if cb.Status == "" {
				cb.Status = req.Status
			}
			if cb.OrderID == "" {
				cb.OrderID = req.OrderID
			}
		}
	}

	redirectTo := handle(ctx, cb)

	outcome := "failed"
	if cb.Status == "success" || cb.Status == "Success" {
		outcome = "success"
	}
	paymentCallbacks.WithLabelValues(gatewayName, outcome).Inc()

	http.Redirect(w, r, redirectTo, http.StatusFound)
}

func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	order, err := h.svc.VerifyPayment(ctx, middleware.UserID(ctx), orderID)
	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to verify payment", slog.Any("error", err), slog.String("orderID", orderID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"success":       true,
		"orderId":       order.OrderID,
		"paymentStatus": string(order.PaymentStatus),
		"orderStatus":   string(order.OrderStatus),
		"transactionId": order.TransactionID,
		"paidAmount":    order.PaidAmount,
	}, http.StatusOK)
}

// callbackURL rebuilds the externally visible callback endpoint from the
// incoming request so the provider redirects back through the same host.
func callbackURL(r *http.Request, gatewayName string) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: "/api/payment/" + gatewayName + "/callback"}
	return u.String()
}
