package mocks

import (
	"context"

	"github.com/deshiwear/storefront/internal/entities"
	"github.com/deshiwear/storefront/internal/gateway"
	"github.com/deshiwear/storefront/internal/repo"
	"github.com/deshiwear/storefront/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockCatalogService struct {
	mock.Mock
}

func NewMockCatalogService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCatalogService {
	m := &MockCatalogService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCatalogService) ListProducts(ctx context.Context, f repo.ProductFilter) ([]entities.Product, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]entities.Product), args.Int(1), args.Error(2)
}

func (m *MockCatalogService) GetProduct(ctx context.Context, id string) (entities.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.Product), args.Error(1)
}

func (m *MockCatalogService) CreateProduct(ctx context.Context, p entities.Product) (entities.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(entities.Product), args.Error(1)
}

func (m *MockCatalogService) UpdateProduct(ctx context.Context, p entities.Product) (entities.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(entities.Product), args.Error(1)
}

func (m *MockCatalogService) DeleteProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockOrderService struct {
	mock.Mock
}

func NewMockOrderService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockOrderService {
	m := &MockOrderService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockOrderService) CreateOrder(ctx context.Context, userID string, in service.CreateOrderInput) (entities.Order, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID, userID string, isAdmin bool) (entities.Order, error) {
	args := m.Called(ctx, orderID, userID, isAdmin)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *MockOrderService) GetMyOrders(ctx context.Context, userID string) ([]entities.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]entities.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, limit, offset uint64) ([]entities.Order, int, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]entities.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus, tracking service.TrackingUpdate) (entities.Order, error) {
	args := m.Called(ctx, orderID, status, tracking)
	return args.Get(0).(entities.Order), args.Error(1)
}

func (m *MockOrderService) Stats(ctx context.Context) (service.OrderStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.OrderStats), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func NewMockPaymentService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPaymentService {
	m := &MockPaymentService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPaymentService) CreateBkashPayment(ctx context.Context, userID, orderID, callbackURL string) (gateway.PaymentSession, error) {
	args := m.Called(ctx, userID, orderID, callbackURL)
	return args.Get(0).(gateway.PaymentSession), args.Error(1)
}

func (m *MockPaymentService) CreateNagadPayment(ctx context.Context, userID, orderID, callbackURL string) (gateway.PaymentSession, error) {
	args := m.Called(ctx, userID, orderID, callbackURL)
	return args.Get(0).(gateway.PaymentSession), args.Error(1)
}

func (m *MockPaymentService) HandleBkashCallback(ctx context.Context, cb service.Callback) string {
	return m.Called(ctx, cb).String(0)
}

func (m *MockPaymentService) HandleNagadCallback(ctx context.Context, cb service.Callback) string {
	return m.Called(ctx, cb).String(0)
}

func (m *MockPaymentService) VerifyPayment(ctx context.Context, userID, orderID string) (entities.Order, error) {
	args := m.Called(ctx, userID, orderID)
	return args.Get(0).(entities.Order), args.Error(1)
}
