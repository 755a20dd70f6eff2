package entities_test

import (
	"testing"

	"github.com/deshiwear/storefront/internal/entities"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := entities.NewOrderID()
		assert.Regexp(t, `^ORD-\d{13}-\d{3}$`, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestOrder_RecomputeFinal(t *testing.T) {
	order := entities.Order{
		TotalAmount: 1798,
		Discount:    100,
		ShippingFee: 60,
	}
	order.RecomputeFinal()
	assert.Equal(t, int64(1758), order.FinalAmount)
}

func TestOrder_Confirmed(t *testing.T) {
	order := entities.Order{
		PaymentStatus: entities.PaymentCompleted,
		OrderStatus:   entities.OrderConfirmed,
	}
	assert.True(t, order.Confirmed())

	order.PaymentStatus = entities.PaymentPending
	assert.False(t, order.Confirmed())

	order.PaymentStatus = entities.PaymentCompleted
	order.OrderStatus = entities.OrderShipped
	assert.False(t, order.Confirmed())
}

func TestOrderStatus_CanTransition(t *testing.T) {
	testCases := []struct {
		from entities.OrderStatus
		to   entities.OrderStatus
		want bool
	}{
		{entities.OrderPending, entities.OrderConfirmed, true},
		{entities.OrderPending, entities.OrderCancelled, true},
		{entities.OrderPending, entities.OrderShipped, false},
		{entities.OrderConfirmed, entities.OrderProcessing, true},
		{entities.OrderProcessing, entities.OrderShipped, true},
		{entities.OrderShipped, entities.OrderDelivered, true},
		{entities.OrderShipped, entities.OrderCancelled, false},
		{entities.OrderDelivered, entities.OrderCancelled, false},
		{entities.OrderCancelled, entities.OrderPending, false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestProduct_SizeEntry(t *testing.T) {
	product := entities.Product{
		Sizes: []entities.SizeStock{
			{Size: "M", Stock: 10},
			{Size: "L", Stock: 0},
		},
	}

	entry, ok := product.SizeEntry("M")
	assert.True(t, ok)
	assert.Equal(t, 10, entry.Stock)

	entry, ok = product.SizeEntry("L")
	assert.True(t, ok)
	assert.Equal(t, 0, entry.Stock)

	_, ok = product.SizeEntry("XXL")
	assert.False(t, ok)
}

func TestPaymentMethod_Valid(t *testing.T) {
	assert.True(t, entities.PaymentMethodBkash.Valid())
	assert.True(t, entities.PaymentMethodNagad.Valid())
	assert.True(t, entities.PaymentMethodCOD.Valid())
	assert.True(t, entities.PaymentMethodCard.Valid())
	assert.False(t, entities.PaymentMethod("paypal").Valid())
}
