package mocks

import (
	"context"
	"time"

	"github.com/deshiwear/storefront/internal/entities"
	"github.com/deshiwear/storefront/internal/gateway"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepo struct {
	mock.Mock
}

func NewMockOrderRepo(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockOrderRepo {
	m := &MockOrderRepo{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockOrderRepo) SaveOrder(ctx context.Context, o entities.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *MockOrderRepo) GetOrderByIdempotencyKey(ctx context.Context, key string) (entities.Order, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *MockOrderRepo) ListOrdersByUser(ctx context.Context, userID string) ([]entities.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]entities.Order), args.Error(1)
}

func (m *MockOrderRepo) ListOrders(ctx context.Context, limit, offset uint64) ([]entities.Order, int, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]entities.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderRepo) UpdateOrder(ctx context.Context, o entities.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepo) ClaimReconciliation(ctx context.Context, orderID string) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepo) CountOrders(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockOrderRepo) CountOrdersByStatus(ctx context.Context, status entities.OrderStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *MockOrderRepo) Revenue(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

type MockStockAdjuster struct {
	mock.Mock
}

func NewMockStockAdjuster(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStockAdjuster {
	m := &MockStockAdjuster{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockStockAdjuster) GetProductByID(ctx context.Context, id string) (entities.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.Product), args.Error(1)
}

func (m *MockStockAdjuster) ApplySale(ctx context.Context, productID, size string, quantity int) error {
	return m.Called(ctx, productID, size, quantity).Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func NewMockEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEventPublisher {
	m := &MockEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockEventPublisher) Publish(ctx context.Context, eventType string, order entities.Order) error {
	return m.Called(ctx, eventType, order).Error(0)
}

type MockOrderTransitioner struct {
	mock.Mock
}

func NewMockOrderTransitioner(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockOrderTransitioner {
	m := &MockOrderTransitioner{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockOrderTransitioner) GetOwnOrder(ctx context.Context, orderID, userID string) (entities.Order, error) {
	args := m.Called(ctx, orderID, userID)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *MockOrderTransitioner) ConfirmPayment(ctx context.Context, orderID, paymentRef, trxID string, paidAmount int64) (entities.Order, error) {
	args := m.Called(ctx, orderID, paymentRef, trxID, paidAmount)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *MockOrderTransitioner) FailPayment(ctx context.Context, orderID string) (entities.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(entities.Order), args.Error(1)
}

type MockBkashGateway struct {
	mock.Mock
}

func NewMockBkashGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBkashGateway {
	m := &MockBkashGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBkashGateway) CreatePayment(ctx context.Context, amount int64, orderID, callbackURL string) (gateway.PaymentSession, error) {
	args := m.Called(ctx, amount, orderID, callbackURL)
	return args.Get(0).(gateway.PaymentSession), args.Error(1)
}

func (m *MockBkashGateway) ExecutePayment(ctx context.Context, paymentID string) (gateway.ExecuteResult, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(gateway.ExecuteResult), args.Error(1)
}

type MockNagadGateway struct {
	mock.Mock
}

func NewMockNagadGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNagadGateway {
	m := &MockNagadGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockNagadGateway) CreatePayment(ctx context.Context, amount int64, orderID, callbackURL string) (gateway.PaymentSession, error) {
	args := m.Called(ctx, amount, orderID, callbackURL)
	return args.Get(0).(gateway.PaymentSession), args.Error(1)
}

func (m *MockNagadGateway) VerifyPayment(ctx context.Context, paymentRefID string) (gateway.ExecuteResult, error) {
	args := m.Called(ctx, paymentRefID)
	return args.Get(0).(gateway.ExecuteResult), args.Error(1)
}
