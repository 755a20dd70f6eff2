package mocks

import (
	"context"

	"github.com/deshiwear/storefront/pkg/trm"

	"github.com/stretchr/testify/mock"
)

type MockManager struct {
	mock.Mock
}

func NewMockManager(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockManager {
	m := &MockManager{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockManager) BeginTx(ctx context.Context) (context.Context, trm.Transaction, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(context.Context)
	tx, _ := args.Get(1).(trm.Transaction)
	return out, tx, args.Error(2)
}

func (m *MockManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if rf, ok := args.Get(0).(func(context.Context, func(context.Context) error) error); ok {
		return rf(ctx, fn)
	}
	return args.Error(0)
}

// Passthrough returns a manager whose Do invokes the callback directly, for
// tests that do not care about transaction boundaries.
func Passthrough(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockManager {
	m := NewMockManager(t)
	m.On("Do", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		}).
		Maybe()
	return m
}
