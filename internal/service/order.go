package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deshiwear/storefront/internal/config"
	"github.com/deshiwear/storefront/internal/entities"
	"github.com/deshiwear/storefront/internal/events"
	"github.com/deshiwear/storefront/pkg/trm"

	"golang.org/x/sync/errgroup"
)

type OrderRepo interface {
	SaveOrder(ctx context.Context, o entities.Order) error
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (entities.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]entities.Order, error)
	ListOrders(ctx context.Context, limit, offset uint64) ([]entities.Order, int, error)
	UpdateOrder(ctx context.Context, o entities.Order) error

	// ClaimReconciliation returns true exactly once per order.
	ClaimReconciliation(ctx context.Context, orderID string) (bool, error)

	CountOrders(ctx context.Context) (int, error)
	CountOrdersByStatus(ctx context.Context, status entities.OrderStatus) (int, error)
	Revenue(ctx context.Context, since time.Time) (int64, error)
}

type StockAdjuster interface {
	GetProductByID(ctx context.Context, id string) (entities.Product, error)
	ApplySale(ctx context.Context, productID, size string, quantity int) error
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, order entities.Order) error
}

// CartLine is one requested entry of an incoming cart.
type CartLine struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

type CreateOrderInput struct {
	Items           []CartLine
	ShippingAddress entities.ShippingAddress
	PaymentMethod   entities.PaymentMethod
	Notes           string

	// IdempotencyKey is optional; when a previously seen key is supplied
	// the already-created order is returned instead of a duplicate.
	IdempotencyKey string
}

type TrackingUpdate struct {
	TrackingNumber    string
	Carrier           string
	EstimatedDelivery *time.Time
}

type OrderStats struct {
	TotalOrders     int
	TotalRevenue    int64
	PendingOrders   int
	DeliveredOrders int
	MonthlyRevenue  int64
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	orders    OrderRepo
	products  StockAdjuster
	events    EventPublisher
	shipping  config.Shipping
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	orders OrderRepo,
	products StockAdjuster,
	publisher EventPublisher,
	shipping config.Shipping,
) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		orders:    orders,
		products:  products,
		events:    publisher,
		shipping:  shipping,
	}
}

// CreateOrder assembles and persists an order from a cart: every line is
// priced from the current catalog and snapshotted, availability is checked
// per size, and the order starts in pending/pending. Stock is not reserved
// here; it is decremented by reconciliation once payment confirms, so two
// concurrent carts may both pass the availability check for the last unit.
func (s *orderService) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (entities.Order, error) {
	if in.IdempotencyKey != "" {
		existing, err := s.orders.GetOrderByIdempotencyKey(ctx, in.IdempotencyKey)
		if err == nil {
			s.logger.Debug("duplicate order submission", slog.String("order_id", existing.OrderID))
			return existing, nil
		}
		if !errors.Is(err, entities.ErrOrderNotFound) {
			return entities.Order{}, err
		}
	}

	var totalAmount int64
	items := make([]entities.OrderItem, 0, len(in.Items))

	for _, line := range in.Items {
		product, err := s.products.GetProductByID(ctx, line.ProductID)
		if errors.Is(err, entities.ErrProductNotFound) {
			return entities.Order{}, fmt.Errorf("%w: %s", entities.ErrProductNotFound, line.ProductID)
		}
		if err != nil {
			return entities.Order{}, err
		}

		entry, ok := product.SizeEntry(line.Size)
		if !ok || entry.Stock < line.Quantity {
			return entities.Order{}, fmt.Errorf("%w for %s - size: %s",
				entities.ErrInsufficientStock, product.Name.EN, line.Size)
		}

		totalAmount += product.Price * int64(line.Quantity)

		var image string
		if len(product.Images) > 0 {
			image = product.Images[0]
		}

		items = append(items, entities.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			Size:      line.Size,
			Color:     line.Color,
			Image:     image,
		})
	}

	now := time.Now()
	order := entities.Order{
		OrderID:         entities.NewOrderID(),
		UserID:          userID,
		Items:           items,
		TotalAmount:     totalAmount,
		ShippingFee:     s.shippingFee(in.ShippingAddress.District),
		Currency:        "BDT",
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   entities.PaymentPending,
		OrderStatus:     entities.OrderPending,
		IdempotencyKey:  in.IdempotencyKey,
		ShippingAddress: in.ShippingAddress,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.RecomputeFinal()

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		return s.orders.SaveOrder(ctx, order)
	})
	// A concurrent submit with the same idempotency key can win the insert
	// between the lookup above and here; return its order, not an error.
	if errors.Is(err, entities.ErrDuplicateOrder) && in.IdempotencyKey != "" {
		existing, readErr := s.orders.GetOrderByIdempotencyKey(ctx, in.IdempotencyKey)
		if readErr != nil {
			return entities.Order{}, fmt.Errorf("failed to load duplicate order: %w", readErr)
		}
		s.logger.Debug("duplicate order submission", slog.String("order_id", existing.OrderID))
		return existing, nil
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to save order: %w", err)
	}

	s.publish(ctx, events.TypeOrderCreated, order)
	s.logger.Info("order created",
		slog.String("order_id", order.OrderID),
		slog.Int64("final_amount", order.FinalAmount),
	)
	return order, nil
}

// shippingFee applies the two-tier rule: the low fee when the district
// contains the metro token case-insensitively, the high fee otherwise.
// A flat two-tier rule, not a rate table.
func (s *orderService) shippingFee(district string) int64 {
	if strings.Contains(strings.ToLower(district), strings.ToLower(s.shipping.MetroToken)) {
		return s.shipping.MetroFee
	}
	return s.shipping.OutsideFee
}

// GetOrder returns the order when the caller owns it or is an admin.
func (s *orderService) GetOrder(ctx context.Context, orderID, userID string, isAdmin bool) (entities.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if order.UserID != userID && !isAdmin {
		return entities.Order{}, entities.ErrAccessDenied
	}
	return order, nil
}

// GetOwnOrder is the owner-only variant used by the payment flow.
func (s *orderService) GetOwnOrder(ctx context.Context, orderID, userID string) (entities.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if order.UserID != userID {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) GetMyOrders(ctx context.Context, userID string) ([]entities.Order, error) {
	return s.orders.ListOrdersByUser(ctx, userID)
}

func (s *orderService) ListOrders(ctx context.Context, limit, offset uint64) ([]entities.Order, int, error) {
	return s.orders.ListOrders(ctx, limit, offset)
}

// UpdateOrderStatus applies an admin fulfillment-status change with tracking
// metadata. If the change lands the order in the paid+confirmed combination,
// reconciliation runs (once).
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus, tracking TrackingUpdate) (entities.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	if status != order.OrderStatus {
		if !order.OrderStatus.CanTransition(status) {
			return entities.Order{}, fmt.Errorf("%w: %s -> %s",
				entities.ErrInvalidTransition, order.OrderStatus, status)
		}
		order.OrderStatus = status
	}

	if tracking.TrackingNumber != "" {
		order.TrackingNumber = tracking.TrackingNumber
	}
	if tracking.Carrier != "" {
		order.Carrier = tracking.Carrier
	}
	if tracking.EstimatedDelivery != nil {
		order.EstimatedDelivery = tracking.EstimatedDelivery
	}
	order.UpdatedAt = time.Now()
	order.RecomputeFinal()

	if err := s.saveAndReconcile(ctx, &order); err != nil {
		return entities.Order{}, err
	}
	return order, nil
}

// ConfirmPayment records a provider-confirmed payment and transitions the
// order to completed/confirmed. A redelivered confirmation for a payment
// reference that is already recorded is a no-op.
//
// Unordered provider retries can deliver a success callback after a failure
// callback already cancelled the order. The provider has taken the money at
// that point, so confirmation overrides the cancelled state here; the
// transition table binds admin status updates only.
func (s *orderService) ConfirmPayment(ctx context.Context, orderID, paymentRef, trxID string, paidAmount int64) (entities.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	if order.Confirmed() && order.PaymentRef == paymentRef {
		return order, nil
	}

	order.PaymentStatus = entities.PaymentCompleted
	order.OrderStatus = entities.OrderConfirmed
	order.PaymentRef = paymentRef
	order.TransactionID = trxID
	order.PaidAmount = paidAmount
	order.UpdatedAt = time.Now()
	order.RecomputeFinal()

	if err := s.saveAndReconcile(ctx, &order); err != nil {
		return entities.Order{}, err
	}

	s.publish(ctx, events.TypeOrderConfirmed, order)
	s.logger.Info("payment confirmed",
		slog.String("order_id", order.OrderID),
		slog.String("trx_id", trxID),
	)
	return order, nil
}

// FailPayment marks the order failed/cancelled. An order that already
// confirmed is left untouched so a late duplicate failure callback cannot
// undo a completed payment.
func (s *orderService) FailPayment(ctx context.Context, orderID string) (entities.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if order.Confirmed() {
		return order, nil
	}

	order.PaymentStatus = entities.PaymentFailed
	order.OrderStatus = entities.OrderCancelled
	order.UpdatedAt = time.Now()

	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		return entities.Order{}, err
	}

	s.publish(ctx, events.TypeOrderCancelled, order)
	s.logger.Info("payment failed", slog.String("order_id", order.OrderID))
	return order, nil
}

// saveAndReconcile persists the order and, when it sits in the
// paid+confirmed combination, applies the inventory effect. The effect is
// edge-triggered: the reconciled marker is claimed with a conditional update
// inside the same transaction as the stock adjustment, so saving the order
// again while still confirmed applies nothing.
//
// Stock is re-checked here: if availability ran out between assembly and
// confirmation, the transaction rolls back and the order is refunded and
// cancelled instead of driving stock negative.
func (s *orderService) saveAndReconcile(ctx context.Context, order *entities.Order) error {
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.orders.UpdateOrder(ctx, *order); err != nil {
			return err
		}

		if !order.Confirmed() {
			return nil
		}

		claimed, err := s.orders.ClaimReconciliation(ctx, order.OrderID)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		for _, item := range order.Items {
			if err := s.products.ApplySale(ctx, item.ProductID, item.Size, item.Quantity); err != nil {
				return err
			}
		}

		s.logger.Debug("order reconciled", slog.String("order_id", order.OrderID))
		return nil
	})

	if errors.Is(err, entities.ErrInsufficientStock) {
		order.PaymentStatus = entities.PaymentRefunded
		order.OrderStatus = entities.OrderCancelled
		order.UpdatedAt = time.Now()
		if uerr := s.orders.UpdateOrder(ctx, *order); uerr != nil {
			return fmt.Errorf("failed to cancel order after stock shortage: %w", uerr)
		}
		s.logger.Warn("stock ran out before reconciliation, order refunded",
			slog.String("order_id", order.OrderID))
		return err
	}
	return err
}

// Stats aggregates order counts and revenue; the queries run concurrently.
func (s *orderService) Stats(ctx context.Context) (OrderStats, error) {
	var stats OrderStats

	monthStart := time.Now().UTC()
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalOrders, err = s.orders.CountOrders(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalRevenue, err = s.orders.Revenue(ctx, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		stats.PendingOrders, err = s.orders.CountOrdersByStatus(ctx, entities.OrderPending)
		return err
	})
	g.Go(func() (err error) {
		stats.DeliveredOrders, err = s.orders.CountOrdersByStatus(ctx, entities.OrderDelivered)
		return err
	})
	g.Go(func() (err error) {
		stats.MonthlyRevenue, err = s.orders.Revenue(ctx, monthStart)
		return err
	})

	if err := g.Wait(); err != nil {
		return OrderStats{}, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	return stats, nil
}

func (s *orderService) publish(ctx context.Context, eventType string, order entities.Order) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, order); err != nil {
		s.logger.Error("failed to publish event",
			slog.String("type", eventType),
			slog.String("order_id", order.OrderID),
			slog.Any("error", err),
		)
	}
}
