package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/deshiwear/storefront/internal/config"
	"github.com/deshiwear/storefront/internal/entities"
	"github.com/deshiwear/storefront/internal/events"
	"github.com/deshiwear/storefront/internal/service"
	mocks "github.com/deshiwear/storefront/internal/service/mocks"
	txMocks "github.com/deshiwear/storefront/pkg/trm/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testShipping = config.Shipping{
	MetroToken: "dhaka",
	MetroFee:   60,
	OutsideFee: 120,
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tshirt() entities.Product {
	return entities.Product{
		ID:    "prod-1",
		Name:  entities.LocalizedText{EN: "Men's Classic T-Shirt", BN: "টি-শার্ট"},
		Price: 899,
		Sizes: []entities.SizeStock{
			{Size: "M", Stock: 10},
			{Size: "L", Stock: 1},
		},
		Images: []string{"https://img.example.com/tshirt.jpg"},
		Active: true,
	}
}

func address(district string) entities.ShippingAddress {
	return entities.ShippingAddress{
		Name:       "Rahim Uddin",
		Phone:      "01712345678",
		Division:   "Dhaka",
		District:   district,
		Upazila:    "Mohammadpur",
		Address:    "House 12, Road 3",
		PostalCode: "1207",
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	testCases := []struct {
		name         string
		input        service.CreateOrderInput
		mockBehavior func(orders *mocks.MockOrderRepo, products *mocks.MockStockAdjuster, publisher *mocks.MockEventPublisher)
		check        func(t *testing.T, order entities.Order)
		wantErr      error
	}{
		{
			name: "dhaka district gets metro fee",
			input: service.CreateOrderInput{
				Items:           []service.CartLine{{ProductID: "prod-1", Quantity: 2, Size: "M"}},
				ShippingAddress: address("Dhaka"),
				PaymentMethod:   entities.PaymentMethodBkash,
			},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockStockAdjuster, publisher *mocks.MockEventPublisher) {
				products.On("GetProductByID", mock.Anything, "prod-1").Return(tshirt(), nil)
				orders.On("SaveOrder", mock.Anything, mock.Anything).Return(nil)
				publisher.On("Publish", mock.Anything, events.TypeOrderCreated, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, int64(1798), order.TotalAmount)
				assert.Equal(t, int64(60), order.ShippingFee)
				assert.Equal(t, int64(1858), order.FinalAmount)
				assert.Equal(t, "BDT", order.Currency)
				assert.Equal(t, entities.PaymentPending, order.PaymentStatus)
				assert.Equal(t, entities.OrderPending, order.OrderStatus)
				assert.Regexp(t, `^ORD-\d+-\d{3}$`, order.OrderID)
				require.Len(t, order.Items, 1)
				assert.Equal(t, int64(899), order.Items[0].UnitPrice)
				assert.Equal(t, "https://img.example.com/tshirt.jpg", order.Items[0].Image)
			},
		},
		{
			name: "district match is case insensitive",
			input: service.CreateOrderInput{
				Items:           []service.CartLine{{ProductID: "prod-1", Quantity: 1, Size: "M"}},
				ShippingAddress: address("DHAKA North"),
				PaymentMethod:   entities.PaymentMethodCOD,
			},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockStockAdjuster, publisher *mocks.MockEventPublisher) {
				products.On("GetProductByID", mock.Anything, "prod-1").Return(tshirt(), nil)
				orders.On("SaveOrder", mock.Anything, mock.Anything).Return(nil)
				publisher.On("Publish", mock.Anything, events.TypeOrderCreated, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, int64(60), order.ShippingFee)
			},
		},
		{
			name: "outside dhaka gets outside fee",
			input: service.CreateOrderInput{
				Items:           []service.CartLine{{ProductID: "prod-1", Quantity: 1, Size: "M"}},
				ShippingAddress: address("Chattogram"),
				PaymentMethod:   entities.PaymentMethodCOD,
			},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockStockAdjuster, publisher *mocks.MockEventPublisher) {
				products.On("GetProductByID", mock.Anything, "prod-1").Return(tshirt(), nil)
				orders.On("SaveOrder", mock.Anything, mock.Anything).Return(nil)
				publisher.On("Publish", mock.Anything, events.TypeOrderCreated, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, int64(120), order.ShippingFee)
				assert.Equal(t, int64(899+120), order.FinalAmount)
			},
		},
		{
			name: "insufficient stock for requested size",
			input: service.CreateOrderInput{
				Items:           []service.CartLine{{ProductID: "prod-1", Quantity: 2, Size: "L"}},
				ShippingAddress: address("Dhaka"),
				PaymentMethod:   entities.PaymentMethodBkash,
			},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockStockAdjuster, publisher *mocks.MockEventPublisher) {
				products.On("GetProductByID", mock.Anything, "prod-1").Return(tshirt(), nil)
			},
			wantErr: entities.ErrInsufficientStock,
		},
		{
			name: "unknown size",
			input: service.CreateOrderInput{
				Items:           []service.CartLine{{ProductID: "prod-1", Quantity: 1, Size: "XXL"}},
				ShippingAddress: address("Dhaka"),
				PaymentMethod:   entities.PaymentMethodBkash,
			},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockStockAdjuster, publisher *mocks.MockEventPublisher) {
				products.On("GetProductByID", mock.Anything, "prod-1").Return(tshirt(), nil)
			},
			wantErr: entities.ErrInsufficientStock,
		},
		{
			name: "product not found",
			input: service.CreateOrderInput{
				Items:           []service.CartLine{{ProductID: "missing", Quantity: 1, Size: "M"}},
				ShippingAddress: address("Dhaka"),
				PaymentMethod:   entities.PaymentMethodBkash,
			},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockStockAdjuster, publisher *mocks.MockEventPublisher) {
				products.On("GetProductByID", mock.Anything, "missing").
					Return(entities.Product{}, entities.ErrProductNotFound)
			},
			wantErr: entities.ErrProductNotFound,
		},
		{
			name: "duplicate idempotency key returns existing order",
			input: service.CreateOrderInput{
				Items:           []service.CartLine{{ProductID: "prod-1", Quantity: 1, Size: "M"}},
				ShippingAddress: address("Dhaka"),
				PaymentMethod:   entities.PaymentMethodBkash,
				IdempotencyKey:  "key-1",
			},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockStockAdjuster, publisher *mocks.MockEventPublisher) {
				orders.On("GetOrderByIdempotencyKey", mock.Anything, "key-1").
					Return(entities.Order{OrderID: "ORD-1-001", FinalAmount: 959}, nil)
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, "ORD-1-001", order.OrderID)
			},
		},
		{
			name: "concurrent duplicate losing the insert returns the first order",
			input: service.CreateOrderInput{
				Items:           []service.CartLine{{ProductID: "prod-1", Quantity: 1, Size: "M"}},
				ShippingAddress: address("Dhaka"),
				PaymentMethod:   entities.PaymentMethodBkash,
				IdempotencyKey:  "key-2",
			},
			mockBehavior: func(orders *mocks.MockOrderRepo, products *mocks.MockStockAdjuster, publisher *mocks.MockEventPublisher) {
				orders.On("GetOrderByIdempotencyKey", mock.Anything, "key-2").
					Return(entities.Order{}, entities.ErrOrderNotFound).Once()
				products.On("GetProductByID", mock.Anything, "prod-1").Return(tshirt(), nil)
				orders.On("SaveOrder", mock.Anything, mock.Anything).
					Return(entities.ErrDuplicateOrder).Once()
				orders.On("GetOrderByIdempotencyKey", mock.Anything, "key-2").
					Return(entities.Order{OrderID: "ORD-1-002", FinalAmount: 959}, nil).Once()
			},
			check: func(t *testing.T, order entities.Order) {
				assert.Equal(t, "ORD-1-002", order.OrderID)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orders := mocks.NewMockOrderRepo(t)
			products := mocks.NewMockStockAdjuster(t)
			publisher := mocks.NewMockEventPublisher(t)
			tx := txMocks.Passthrough(t)

			tc.mockBehavior(orders, products, publisher)

			svc := service.NewOrderService(testLogger(), tx, orders, products, publisher, testShipping)

			order, err := svc.CreateOrder(context.Background(), "user-1", tc.input)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", order.UserID)
			if tc.check != nil {
				tc.check(t, order)
			}
		})
	}
}

func TestOrderService_ConfirmPayment(t *testing.T) {
	pendingOrder := func() entities.Order {
		return entities.Order{
			OrderID:       "ORD-1-001",
			UserID:        "user-1",
			TotalAmount:   1798,
			ShippingFee:   60,
			FinalAmount:   1858,
			PaymentMethod: entities.PaymentMethodBkash,
			PaymentStatus: entities.PaymentPending,
			OrderStatus:   entities.OrderPending,
			Items: []entities.OrderItem{
				{ProductID: "prod-1", Quantity: 2, Size: "M", UnitPrice: 899},
			},
		}
	}

	t.Run("first confirmation applies stock exactly once", func(t *testing.T) {
		orders := mocks.NewMockOrderRepo(t)
		products := mocks.NewMockStockAdjuster(t)
		publisher := mocks.NewMockEventPublisher(t)
		tx := txMocks.Passthrough(t)

		orders.On("GetOrderByID", mock.Anything, "ORD-1-001").Return(pendingOrder(), nil)
		orders.On("UpdateOrder", mock.Anything, mock.Anything).Return(nil)
		orders.On("ClaimReconciliation", mock.Anything, "ORD-1-001").Return(true, nil)
		products.On("ApplySale", mock.Anything, "prod-1", "M", 2).Return(nil).Once()
		publisher.On("Publish", mock.Anything, events.TypeOrderConfirmed, mock.Anything).Return(nil)

		svc := service.NewOrderService(testLogger(), tx, orders, products, publisher, testShipping)

		order, err := svc.ConfirmPayment(context.Background(), "ORD-1-001", "TR001abc", "TRX123", 1858)
		require.NoError(t, err)
		assert.Equal(t, entities.PaymentCompleted, order.PaymentStatus)
		assert.Equal(t, entities.OrderConfirmed, order.OrderStatus)
		assert.Equal(t, "TRX123", order.TransactionID)
		assert.Equal(t, int64(1858), order.PaidAmount)
	})

	t.Run("redelivered confirmation for same payment ref is a no-op", func(t *testing.T) {
		orders := mocks.NewMockOrderRepo(t)
		products := mocks.NewMockStockAdjuster(t)
		publisher := mocks.NewMockEventPublisher(t)
		tx := txMocks.Passthrough(t)

		confirmed := pendingOrder()
		confirmed.PaymentStatus = entities.PaymentCompleted
		confirmed.OrderStatus = entities.OrderConfirmed
		confirmed.PaymentRef = "TR001abc"

		orders.On("GetOrderByID", mock.Anything, "ORD-1-001").Return(confirmed, nil)

		svc := service.NewOrderService(testLogger(), tx, orders, products, publisher, testShipping)

		order, err := svc.ConfirmPayment(context.Background(), "ORD-1-001", "TR001abc", "TRX123", 1858)
		require.NoError(t, err)
		assert.Equal(t, entities.OrderConfirmed, order.OrderStatus)
		orders.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything)
		products.AssertNotCalled(t, "ApplySale", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already claimed reconciliation skips stock adjustment", func(t *testing.T) {
		orders := mocks.NewMockOrderRepo(t)
		products := mocks.NewMockStockAdjuster(t)
		publisher := mocks.NewMockEventPublisher(t)
		tx := txMocks.Passthrough(t)

		orders.On("GetOrderByID", mock.Anything, "ORD-1-001").Return(pendingOrder(), nil)
		orders.On("UpdateOrder", mock.Anything, mock.Anything).Return(nil)
		orders.On("ClaimReconciliation", mock.Anything, "ORD-1-001").Return(false, nil)
		publisher.On("Publish", mock.Anything, events.TypeOrderConfirmed, mock.Anything).Return(nil)

		svc := service.NewOrderService(testLogger(), tx, orders, products, publisher, testShipping)

		_, err := svc.ConfirmPayment(context.Background(), "ORD-1-001", "TR002def", "TRX124", 1858)
		require.NoError(t, err)
		products.AssertNotCalled(t, "ApplySale", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("late success overrides an earlier cancellation", func(t *testing.T) {
		orders := mocks.NewMockOrderRepo(t)
		products := mocks.NewMockStockAdjuster(t)
		publisher := mocks.NewMockEventPublisher(t)
		tx := txMocks.Passthrough(t)

		cancelled := pendingOrder()
		cancelled.PaymentStatus = entities.PaymentFailed
		cancelled.OrderStatus = entities.OrderCancelled

		orders.On("GetOrderByID", mock.Anything, "ORD-1-001").Return(cancelled, nil)
		orders.On("UpdateOrder", mock.Anything, mock.Anything).Return(nil)
		orders.On("ClaimReconciliation", mock.Anything, "ORD-1-001").Return(true, nil)
		products.On("ApplySale", mock.Anything, "prod-1", "M", 2).Return(nil).Once()
		publisher.On("Publish", mock.Anything, events.TypeOrderConfirmed, mock.Anything).Return(nil)

		svc := service.NewOrderService(testLogger(), tx, orders, products, publisher, testShipping)

		order, err := svc.ConfirmPayment(context.Background(), "ORD-1-001", "TR004jkl", "TRX126", 1858)
		require.NoError(t, err)
		assert.Equal(t, entities.PaymentCompleted, order.PaymentStatus)
		assert.Equal(t, entities.OrderConfirmed, order.OrderStatus)
	})

	t.Run("stock shortage at reconciliation refunds the order", func(t *testing.T) {
		orders := mocks.NewMockOrderRepo(t)
		products := mocks.NewMockStockAdjuster(t)
		publisher := mocks.NewMockEventPublisher(t)
		tx := txMocks.Passthrough(t)

		var refunded entities.Order

		orders.On("GetOrderByID", mock.Anything, "ORD-1-001").Return(pendingOrder(), nil)
		orders.On("UpdateOrder", mock.Anything, mock.Anything).Return(nil).
			Run(func(args mock.Arguments) {
				refunded = args.Get(1).(entities.Order)
			})
		orders.On("ClaimReconciliation", mock.Anything, "ORD-1-001").Return(true, nil)
		products.On("ApplySale", mock.Anything, "prod-1", "M", 2).
			Return(entities.ErrInsufficientStock)

		svc := service.NewOrderService(testLogger(), tx, orders, products, publisher, testShipping)

		_, err := svc.ConfirmPayment(context.Background(), "ORD-1-001", "TR003ghi", "TRX125", 1858)
		assert.ErrorIs(t, err, entities.ErrInsufficientStock)
		assert.Equal(t, entities.PaymentRefunded, refunded.PaymentStatus)
		assert.Equal(t, entities.OrderCancelled, refunded.OrderStatus)
	})
}

func TestOrderService_FailPayment(t *testing.T) {
	t.Run("pending order is cancelled", func(t *testing.T) {
		orders := mocks.NewMockOrderRepo(t)
		products := mocks.NewMockStockAdjuster(t)
		publisher := mocks.NewMockEventPublisher(t)
		tx := txMocks.Passthrough(t)

		orders.On("GetOrderByID", mock.Anything, "ORD-1-001").
			Return(entities.Order{OrderID: "ORD-1-001", PaymentStatus: entities.PaymentPending, OrderStatus: entities.OrderPending}, nil)
		orders.On("UpdateOrder", mock.Anything, mock.Anything).Return(nil)
		publisher.On("Publish", mock.Anything, events.TypeOrderCancelled, mock.Anything).Return(nil)

		svc := service.NewOrderService(testLogger(), tx, orders, products, publisher, testShipping)

		order, err := svc.FailPayment(context.Background(), "ORD-1-001")
		require.NoError(t, err)
		assert.Equal(t, entities.PaymentFailed, order.PaymentStatus)
		assert.Equal(t, entities.OrderCancelled, order.OrderStatus)
	})

	t.Run("late failure cannot undo a confirmed payment", func(t *testing.T) {
		orders := mocks.NewMockOrderRepo(t)
		products := mocks.NewMockStockAdjuster(t)
		publisher := mocks.NewMockEventPublisher(t)
		tx := txMocks.Passthrough(t)

		orders.On("GetOrderByID", mock.Anything, "ORD-1-001").
			Return(entities.Order{
				OrderID:       "ORD-1-001",
				PaymentStatus: entities.PaymentCompleted,
				OrderStatus:   entities.OrderConfirmed,
			}, nil)

		svc := service.NewOrderService(testLogger(), tx, orders, products, publisher, testShipping)

		order, err := svc.FailPayment(context.Background(), "ORD-1-001")
		require.NoError(t, err)
		assert.Equal(t, entities.PaymentCompleted, order.PaymentStatus)
		orders.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything)
	})
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	t.Run("invalid transition is rejected", func(t *testing.T) {
		orders := mocks.NewMockOrderRepo(t)
		products := mocks.NewMockStockAdjuster(t)
		tx := txMocks.Passthrough(t)

		orders.On("GetOrderByID", mock.Anything, "ORD-1-001").
			Return(entities.Order{OrderID: "ORD-1-001", OrderStatus: entities.OrderPending}, nil)

		svc := service.NewOrderService(testLogger(), tx, orders, products, nil, testShipping)

		_, err := svc.UpdateOrderStatus(context.Background(), "ORD-1-001", entities.OrderShipped, service.TrackingUpdate{})
		assert.ErrorIs(t, err, entities.ErrInvalidTransition)
	})

	t.Run("tracking fields are applied", func(t *testing.T) {
		orders := mocks.NewMockOrderRepo(t)
		products := mocks.NewMockStockAdjuster(t)
		tx := txMocks.Passthrough(t)

		orders.On("GetOrderByID", mock.Anything, "ORD-1-001").
			Return(entities.Order{
				OrderID:       "ORD-1-001",
				PaymentStatus: entities.PaymentCompleted,
				OrderStatus:   entities.OrderConfirmed,
			}, nil)
		orders.On("UpdateOrder", mock.Anything, mock.Anything).Return(nil)
		orders.On("ClaimReconciliation", mock.Anything, "ORD-1-001").Return(false, nil).Maybe()

		svc := service.NewOrderService(testLogger(), tx, orders, products, nil, testShipping)

		eta := time.Now().Add(72 * time.Hour)
		order, err := svc.UpdateOrderStatus(context.Background(), "ORD-1-001", entities.OrderProcessing, service.TrackingUpdate{
			TrackingNumber:    "TRK-42",
			Carrier:           "Pathao Courier",
			EstimatedDelivery: &eta,
		})
		require.NoError(t, err)
		assert.Equal(t, entities.OrderProcessing, order.OrderStatus)
		assert.Equal(t, "TRK-42", order.TrackingNumber)
		assert.Equal(t, "Pathao Courier", order.Carrier)
	})
}

func TestOrderService_Stats(t *testing.T) {
	orders := mocks.NewMockOrderRepo(t)
	products := mocks.NewMockStockAdjuster(t)
	tx := txMocks.Passthrough(t)

	orders.On("CountOrders", mock.Anything).Return(42, nil)
	orders.On("Revenue", mock.Anything, time.Time{}).Return(int64(125000), nil)
	orders.On("CountOrdersByStatus", mock.Anything, entities.OrderPending).Return(5, nil)
	orders.On("CountOrdersByStatus", mock.Anything, entities.OrderDelivered).Return(30, nil)
	orders.On("Revenue", mock.Anything, mock.MatchedBy(func(t time.Time) bool { return !t.IsZero() })).
		Return(int64(18000), nil)

	svc := service.NewOrderService(testLogger(), tx, orders, products, nil, testShipping)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, stats.TotalOrders)
	assert.Equal(t, int64(125000), stats.TotalRevenue)
	assert.Equal(t, 5, stats.PendingOrders)
	assert.Equal(t, 30, stats.DeliveredOrders)
	assert.Equal(t, int64(18000), stats.MonthlyRevenue)
}

func TestOrderService_GetOrder(t *testing.T) {
	orders := mocks.NewMockOrderRepo(t)
	products := mocks.NewMockStockAdjuster(t)
	tx := txMocks.Passthrough(t)

	stored := entities.Order{OrderID: "ORD-1-001", UserID: "user-1"}
	orders.On("GetOrderByID", mock.Anything, "ORD-1-001").Return(stored, nil)

	svc := service.NewOrderService(testLogger(), tx, orders, products, nil, testShipping)

	t.Run("owner can read", func(t *testing.T) {
		_, err := svc.GetOrder(context.Background(), "ORD-1-001", "user-1", false)
		assert.NoError(t, err)
	})

	t.Run("admin can read any order", func(t *testing.T) {
		_, err := svc.GetOrder(context.Background(), "ORD-1-001", "other", true)
		assert.NoError(t, err)
	})

	t.Run("stranger is denied", func(t *testing.T) {
		_, err := svc.GetOrder(context.Background(), "ORD-1-001", "other", false)
		assert.ErrorIs(t, err, entities.ErrAccessDenied)
	})

	t.Run("own order lookup hides foreign orders", func(t *testing.T) {
		_, err := svc.GetOwnOrder(context.Background(), "ORD-1-001", "other")
		assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	})
}
