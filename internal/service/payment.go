package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deshiwear/storefront/internal/entities"
	"github.com/deshiwear/storefront/internal/gateway"
)

type BkashGateway interface {
	CreatePayment(ctx context.Context, amount int64, orderID, callbackURL string) (gateway.PaymentSession, error)
	ExecutePayment(ctx context.Context, paymentID string) (gateway.ExecuteResult, error)
}

type NagadGateway interface {
	CreatePayment(ctx context.Context, amount int64, orderID, callbackURL string) (gateway.PaymentSession, error)
	VerifyPayment(ctx context.Context, paymentRefID string) (gateway.ExecuteResult, error)
}

// OrderTransitioner is the slice of the order service the payment flow needs.
type OrderTransitioner interface {
	GetOwnOrder(ctx context.Context, orderID, userID string) (entities.Order, error)
	ConfirmPayment(ctx context.Context, orderID, paymentRef, trxID string, paidAmount int64) (entities.Order, error)
	FailPayment(ctx context.Context, orderID string) (entities.Order, error)
}

// Callback carries the fields a provider posts to the completion webhook.
type Callback struct {
	PaymentID string
	Status    string
	OrderID   string
}

type paymentService struct {
	logger      *slog.Logger
	orders      OrderTransitioner
	bkash       BkashGateway
	nagad       NagadGateway
	frontendURL string
}

func NewPaymentService(
	logger *slog.Logger,
	orders OrderTransitioner,
	bkash BkashGateway,
	nagad NagadGateway,
	frontendURL string,
) *paymentService {
	return &paymentService{
		logger:      logger.With(slog.String("service", "payment")),
		orders:      orders,
		bkash:       bkash,
		nagad:       nagad,
		frontendURL: frontendURL,
	}
}

// CreateBkashPayment opens a bKash checkout session for the caller's order.
func (s *paymentService) CreateBkashPayment(ctx context.Context, userID, orderID, callbackURL string) (gateway.PaymentSession, error) {
	order, err := s.orders.GetOwnOrder(ctx, orderID, userID)
	if err != nil {
		return gateway.PaymentSession{}, err
	}
	return s.bkash.CreatePayment(ctx, order.FinalAmount, order.OrderID, callbackURL)
}

// CreateNagadPayment opens a Nagad checkout session for the caller's order.
func (s *paymentService) CreateNagadPayment(ctx context.Context, userID, orderID, callbackURL string) (gateway.PaymentSession, error) {
	order, err := s.orders.GetOwnOrder(ctx, orderID, userID)
	if err != nil {
		return gateway.PaymentSession{}, err
	}
	return s.nagad.CreatePayment(ctx, order.FinalAmount, order.OrderID, callbackURL)
}

// HandleBkashCallback processes the provider webhook and returns the URL the
// payer's browser is redirected to. Every outcome produces a redirect; an
// error mid-chain routes to the generic error destination, never a failed
// response to the payer.
func (s *paymentService) HandleBkashCallback(ctx context.Context, cb Callback) string {
	if cb.Status != "success" {
		s.fail(ctx, cb.OrderID)
		return s.redirect("failed", cb.OrderID)
	}

	result, err := s.bkash.ExecutePayment(ctx, cb.PaymentID)
	if err != nil {
		s.logger.Error("bkash execute failed",
			slog.String("order_id", cb.OrderID),
			slog.Any("error", err),
		)
		s.fail(ctx, cb.OrderID)
		return s.redirect("error", "")
	}

	if result.Status != gateway.BkashStatusCompleted {
		s.fail(ctx, cb.OrderID)
		return s.redirect("failed", cb.OrderID)
	}

	if _, err := s.orders.ConfirmPayment(ctx, cb.OrderID, cb.PaymentID, result.TrxID, result.Amount); err != nil {
		s.logger.Error("failed to confirm order after payment",
			slog.String("order_id", cb.OrderID),
			slog.Any("error", err),
		)
		return s.redirect("error", "")
	}

	return s.redirect("success", cb.OrderID)
}

// HandleNagadCallback mirrors the bKash flow with the provider's verify call.
func (s *paymentService) HandleNagadCallback(ctx context.Context, cb Callback) string {
	if cb.Status != "Success" {
		s.fail(ctx, cb.OrderID)
		return s.redirect("failed", cb.OrderID)
	}

	result, err := s.nagad.VerifyPayment(ctx, cb.PaymentID)
	if err != nil {
		s.logger.Error("nagad verify failed",
			slog.String("order_id", cb.OrderID),
			slog.Any("error", err),
		)
		s.fail(ctx, cb.OrderID)
		return s.redirect("error", "")
	}

	if result.Status != gateway.NagadStatusSuccess {
		s.fail(ctx, cb.OrderID)
		return s.redirect("failed", cb.OrderID)
	}

	if _, err := s.orders.ConfirmPayment(ctx, cb.OrderID, cb.PaymentID, result.TrxID, result.Amount); err != nil {
		s.logger.Error("failed to confirm order after payment",
			slog.String("order_id", cb.OrderID),
			slog.Any("error", err),
		)
		return s.redirect("error", "")
	}

	return s.redirect("success", cb.OrderID)
}

// VerifyPayment reports the payment/order status of the caller's order.
func (s *paymentService) VerifyPayment(ctx context.Context, userID, orderID string) (entities.Order, error) {
	return s.orders.GetOwnOrder(ctx, orderID, userID)
}

func (s *paymentService) fail(ctx context.Context, orderID string) {
	if orderID == "" {
		return
	}
	if _, err := s.orders.FailPayment(ctx, orderID); err != nil {
		s.logger.Error("failed to mark payment failed",
			slog.String("order_id", orderID),
			slog.Any("error", err),
		)
	}
}

func (s *paymentService) redirect(outcome, orderID string) string {
	if outcome == "error" {
		return fmt.Sprintf("%s/payment/error", s.frontendURL)
	}
	return fmt.Sprintf("%s/payment/%s?orderId=%s", s.frontendURL, outcome, orderID)
}
