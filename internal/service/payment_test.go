package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/deshiwear/storefront/internal/entities"
	"github.com/deshiwear/storefront/internal/gateway"
	"github.com/deshiwear/storefront/internal/service"
	mocks "github.com/deshiwear/storefront/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const frontendURL = "https://shop.example.com"

func TestPaymentService_CreateBkashPayment(t *testing.T) {
	orders := mocks.NewMockOrderTransitioner(t)
	bkash := mocks.NewMockBkashGateway(t)
	nagad := mocks.NewMockNagadGateway(t)

	orders.On("GetOwnOrder", mock.Anything, "ORD-1-001", "user-1").
		Return(entities.Order{OrderID: "ORD-1-001", UserID: "user-1", FinalAmount: 1858}, nil)
	bkash.On("CreatePayment", mock.Anything, int64(1858), "ORD-1-001", "https://api.example.com/cb").
		Return(gateway.PaymentSession{PaymentID: "TR001", RedirectURL: "https://bkash.example/pay"}, nil)

	svc := service.NewPaymentService(testLogger(), orders, bkash, nagad, frontendURL)

	session, err := svc.CreateBkashPayment(context.Background(), "user-1", "ORD-1-001", "https://api.example.com/cb")
	require.NoError(t, err)
	assert.Equal(t, "TR001", session.PaymentID)
	assert.Equal(t, "https://bkash.example/pay", session.RedirectURL)
}

func TestPaymentService_HandleBkashCallback(t *testing.T) {
	testCases := []struct {
		name         string
		callback     service.Callback
		mockBehavior func(orders *mocks.MockOrderTransitioner, bkash *mocks.MockBkashGateway)
		wantRedirect string
	}{
		{
			name:     "successful payment",
			callback: service.Callback{PaymentID: "TR001", Status: "success", OrderID: "ORD-1-001"},
			mockBehavior: func(orders *mocks.MockOrderTransitioner, bkash *mocks.MockBkashGateway) {
				bkash.On("ExecutePayment", mock.Anything, "TR001").
					Return(gateway.ExecuteResult{Status: gateway.BkashStatusCompleted, TrxID: "TRX42", Amount: 1858}, nil)
				orders.On("ConfirmPayment", mock.Anything, "ORD-1-001", "TR001", "TRX42", int64(1858)).
					Return(entities.Order{OrderID: "ORD-1-001"}, nil)
			},
			wantRedirect: frontendURL + "/payment/success?orderId=ORD-1-001",
		},
		{
			name:     "payer cancelled",
			callback: service.Callback{PaymentID: "TR001", Status: "cancel", OrderID: "ORD-1-001"},
			mockBehavior: func(orders *mocks.MockOrderTransitioner, bkash *mocks.MockBkashGateway) {
				orders.On("FailPayment", mock.Anything, "ORD-1-001").
					Return(entities.Order{OrderID: "ORD-1-001"}, nil)
			},
			wantRedirect: frontendURL + "/payment/failed?orderId=ORD-1-001",
		},
		{
			name:     "execute call fails",
			callback: service.Callback{PaymentID: "TR001", Status: "success", OrderID: "ORD-1-001"},
			mockBehavior: func(orders *mocks.MockOrderTransitioner, bkash *mocks.MockBkashGateway) {
				bkash.On("ExecutePayment", mock.Anything, "TR001").
					Return(gateway.ExecuteResult{}, errors.New("gateway down"))
				orders.On("FailPayment", mock.Anything, "ORD-1-001").
					Return(entities.Order{OrderID: "ORD-1-001"}, nil)
			},
			wantRedirect: frontendURL + "/payment/error",
		},
		{
			name:     "provider reports non-terminal status",
			callback: service.Callback{PaymentID: "TR001", Status: "success", OrderID: "ORD-1-001"},
			mockBehavior: func(orders *mocks.MockOrderTransitioner, bkash *mocks.MockBkashGateway) {
				bkash.On("ExecutePayment", mock.Anything, "TR001").
					Return(gateway.ExecuteResult{Status: "Initiated"}, nil)
				orders.On("FailPayment", mock.Anything, "ORD-1-001").
					Return(entities.Order{OrderID: "ORD-1-001"}, nil)
			},
			wantRedirect: frontendURL + "/payment/failed?orderId=ORD-1-001",
		},
		{
			name:     "confirm fails after execute",
			callback: service.Callback{PaymentID: "TR001", Status: "success", OrderID: "ORD-1-001"},
			mockBehavior: func(orders *mocks.MockOrderTransitioner, bkash *mocks.MockBkashGateway) {
				bkash.On("ExecutePayment", mock.Anything, "TR001").
					Return(gateway.ExecuteResult{Status: gateway.BkashStatusCompleted, TrxID: "TRX42", Amount: 1858}, nil)
				orders.On("ConfirmPayment", mock.Anything, "ORD-1-001", "TR001", "TRX42", int64(1858)).
					Return(entities.Order{}, errors.New("db error"))
			},
			wantRedirect: frontendURL + "/payment/error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orders := mocks.NewMockOrderTransitioner(t)
			bkash := mocks.NewMockBkashGateway(t)
			nagad := mocks.NewMockNagadGateway(t)

			tc.mockBehavior(orders, bkash)

			svc := service.NewPaymentService(testLogger(), orders, bkash, nagad, frontendURL)

			got := svc.HandleBkashCallback(context.Background(), tc.callback)
			assert.Equal(t, tc.wantRedirect, got)
		})
	}
}

func TestPaymentService_HandleNagadCallback(t *testing.T) {
	testCases := []struct {
		name         string
		callback     service.Callback
		mockBehavior func(orders *mocks.MockOrderTransitioner, nagad *mocks.MockNagadGateway)
		wantRedirect string
	}{
		{
			name:     "successful payment",
			callback: service.Callback{PaymentID: "NGD001", Status: "Success", OrderID: "ORD-1-002"},
			mockBehavior: func(orders *mocks.MockOrderTransitioner, nagad *mocks.MockNagadGateway) {
				nagad.On("VerifyPayment", mock.Anything, "NGD001").
					Return(gateway.ExecuteResult{Status: gateway.NagadStatusSuccess, TrxID: "NTX7", Amount: 2499}, nil)
				orders.On("ConfirmPayment", mock.Anything, "ORD-1-002", "NGD001", "NTX7", int64(2499)).
					Return(entities.Order{OrderID: "ORD-1-002"}, nil)
			},
			wantRedirect: frontendURL + "/payment/success?orderId=ORD-1-002",
		},
		{
			name:     "aborted payment",
			callback: service.Callback{PaymentID: "NGD001", Status: "Aborted", OrderID: "ORD-1-002"},
			mockBehavior: func(orders *mocks.MockOrderTransitioner, nagad *mocks.MockNagadGateway) {
				orders.On("FailPayment", mock.Anything, "ORD-1-002").
					Return(entities.Order{OrderID: "ORD-1-002"}, nil)
			},
			wantRedirect: frontendURL + "/payment/failed?orderId=ORD-1-002",
		},
		{
			name:     "verify disagrees with callback",
			callback: service.Callback{PaymentID: "NGD001", Status: "Success", OrderID: "ORD-1-002"},
			mockBehavior: func(orders *mocks.MockOrderTransitioner, nagad *mocks.MockNagadGateway) {
				nagad.On("VerifyPayment", mock.Anything, "NGD001").
					Return(gateway.ExecuteResult{Status: "Failed"}, nil)
				orders.On("FailPayment", mock.Anything, "ORD-1-002").
					Return(entities.Order{OrderID: "ORD-1-002"}, nil)
			},
			wantRedirect: frontendURL + "/payment/failed?orderId=ORD-1-002",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orders := mocks.NewMockOrderTransitioner(t)
			bkash := mocks.NewMockBkashGateway(t)
			nagad := mocks.NewMockNagadGateway(t)

			tc.mockBehavior(orders, nagad)

			svc := service.NewPaymentService(testLogger(), orders, bkash, nagad, frontendURL)

			got := svc.HandleNagadCallback(context.Background(), tc.callback)
			assert.Equal(t, tc.wantRedirect, got)
		})
	}
}
