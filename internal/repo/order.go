package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deshiwear/storefront/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var orderColumns = []string{
	"order_id", "user_id", "total_amount", "discount", "shipping_fee", "final_amount",
	"currency", "payment_method", "payment_status", "order_status",
	"transaction_id", "payment_ref", "paid_amount", "idempotency_key",
	"ship_name", "ship_phone", "ship_division", "ship_district", "ship_upazila",
	"ship_address", "ship_postal_code",
	"tracking_number", "carrier", "estimated_delivery", "notes",
	"reconciled_at", "created_at", "updated_at",
}

type orderRepo struct {
	database
}

func NewOrderRepo(db *sqlx.DB) *orderRepo {
	return &orderRepo{database: newDatabase(db)}
}

func (r *orderRepo) SaveOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.OrderID, o.UserID, o.TotalAmount, o.Discount, o.ShippingFee, o.FinalAmount,
			o.Currency, string(o.PaymentMethod), string(o.PaymentStatus), string(o.OrderStatus),
			nullString(o.TransactionID), nullString(o.PaymentRef), o.PaidAmount, nullString(o.IdempotencyKey),
			o.ShippingAddress.Name, o.ShippingAddress.Phone, o.ShippingAddress.Division,
			o.ShippingAddress.District, o.ShippingAddress.Upazila,
			o.ShippingAddress.Address, o.ShippingAddress.PostalCode,
			nullString(o.TrackingNumber), nullString(o.Carrier), nullTime(o.EstimatedDelivery), nullString(o.Notes),
			nullTime(o.ReconciledAt), o.CreatedAt, o.UpdatedAt,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" &&
			strings.Contains(pqErr.Constraint, "idempotency") {
			return entities.ErrDuplicateOrder
		}
		return fmt.Errorf("failed to save order: %w", err)
	}

	return r.saveItems(ctx, o.OrderID, o.Items)
}

func (r *orderRepo) saveItems(ctx context.Context, orderID string, items []entities.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_items").
		Columns("order_id", "product_id", "name_en", "name_bn", "quantity", "unit_price", "size", "color", "image")

	for _, it := range items {
		q = q.Values(
			orderID, it.ProductID, it.Name.EN, it.Name.BN, it.Quantity, it.UnitPrice,
			nullString(it.Size), nullString(it.Color), nullString(it.Image),
		)
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save order items: %w", err)
	}
	return nil
}

func (r *orderRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.loadItems(ctx, []string{orderID})
	if err != nil {
		return entities.Order{}, err
	}

	return OrderToEntity(order, items[orderID]), nil
}

func (r *orderRepo) GetOrderByIdempotencyKey(ctx context.Context, key string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"idempotency_key": key}).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order by idempotency key: %w", err)
	}

	items, err := r.loadItems(ctx, []string{order.OrderID})
	if err != nil {
		return entities.Order{}, err
	}

	return OrderToEntity(order, items[order.OrderID]), nil
}

func (r *orderRepo) ListOrdersByUser(ctx context.Context, userID string) ([]entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}

	return r.attachItems(ctx, orders)
}

func (r *orderRepo) ListOrders(ctx context.Context, limit, offset uint64) ([]entities.Order, int, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset).
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select orders: %w", err)
	}

	query, args = r.qb.Select("COUNT(*)").From("orders").MustSql()

	var total int
	if err := r.getContext(ctx, &total, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	result, err := r.attachItems(ctx, orders)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// UpdateOrder persists the mutable fields of an existing order.
// The reconciled marker is excluded; only ClaimReconciliation may set it.
func (r *orderRepo) UpdateOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Update("orders").
		SetMap(map[string]any{
			"discount":           o.Discount,
			"final_amount":       o.FinalAmount,
			"payment_status":     string(o.PaymentStatus),
			"order_status":       string(o.OrderStatus),
			"transaction_id":     nullString(o.TransactionID),
			"payment_ref":        nullString(o.PaymentRef),
			"paid_amount":        o.PaidAmount,
			"tracking_number":    nullString(o.TrackingNumber),
			"carrier":            nullString(o.Carrier),
			"estimated_delivery": nullTime(o.EstimatedDelivery),
			"notes":              nullString(o.Notes),
			"updated_at":         o.UpdatedAt,
		}).
		Where(sq.Eq{"order_id": o.OrderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}

// ClaimReconciliation atomically marks the order as reconciled. It returns
// false when the marker was already set, which makes the inventory effect
// apply at most once no matter how many times the order is saved.
func (r *orderRepo) ClaimReconciliation(ctx context.Context, orderID string) (bool, error) {
	query, args := r.qb.Update("orders").
		Set("reconciled_at", sq.Expr("now()")).
		Where(sq.And{
			sq.Eq{"order_id": orderID},
			sq.Expr("reconciled_at IS NULL"),
		}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to claim reconciliation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim reconciliation: %w", err)
	}
	return n == 1, nil
}

func (r *orderRepo) CountOrders(ctx context.Context) (int, error) {
	query, args := r.qb.Select("COUNT(*)").From("orders").MustSql()

	var total int
	if err := r.getContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return total, nil
}

func (r *orderRepo) CountOrdersByStatus(ctx context.Context, status entities.OrderStatus) (int, error) {
	query, args := r.qb.Select("COUNT(*)").
		From("orders").
		Where(sq.Eq{"order_status": string(status)}).
		MustSql()

	var total int
	if err := r.getContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count orders by status: %w", err)
	}
	return total, nil
}

// Revenue sums finalAmount over completed payments. A zero since means all time.
func (r *orderRepo) Revenue(ctx context.Context, since time.Time) (int64, error) {
	q := r.qb.Select("COALESCE(SUM(final_amount), 0)").
		From("orders").
		Where(sq.Eq{"payment_status": string(entities.PaymentCompleted)})
	if !since.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": since})
	}
	query, args := q.MustSql()

	var total int64
	if err := r.getContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return total, nil
}

func (r *orderRepo) loadItems(ctx context.Context, orderIDs []string) (map[string][]OrderItem, error) {
	query, args := r.qb.Select(
		"id", "order_id", "product_id", "name_en", "name_bn",
		"quantity", "unit_price", "size", "color", "image").
		From("order_items").
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("id").
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order items: %w", err)
	}

	out := make(map[string][]OrderItem, len(orderIDs))
	for _, it := range items {
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, nil
}

func (r *orderRepo) attachItems(ctx context.Context, orders []Order) ([]entities.Order, error) {
	if len(orders) == 0 {
		return []entities.Order{}, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]entities.Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderToEntity(o, items[o.OrderID]))
	}
	return result, nil
}
