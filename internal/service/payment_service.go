package service

import (
	"context"
	"fmt"
	"time"

	"github.com/LIGAWA25471/Villadelsolrms/internal/models"
	"github.com/LIGAWA25471/Villadelsolrms/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentStore is the persistence surface the payment ledger needs
type PaymentStore interface {
	GetOrderByID(ctx context.Context, branchID, id string) (*models.Order, error)
	GetPaymentMethodByID(ctx context.Context, branchID, id string) (*models.PaymentMethod, error)
	GetPaymentMethodByName(ctx context.Context, branchID, name string) (*models.PaymentMethod, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByID(ctx context.Context, branchID, id string) (*models.Payment, error)
	ListPayments(ctx context.Context, branchID, orderID string) ([]models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	SumCompletedPayments(ctx context.Context, orderID string) (int64, error)
	StampOrderPaid(ctx context.Context, orderID string) error
}

// OrderStatusUpdater lets the ledger drive order transitions through
// the order engine, so cascades reuse its kitchen sync and events
type OrderStatusUpdater interface {
	UpdateStatus(ctx context.Context, branchID, orderID, status string) (*models.Order, error)
}

// PaymentService owns the payment ledger
type PaymentService struct {
	store  PaymentStore
	orders OrderStatusUpdater
	events EventSink
	logger *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store PaymentStore, orders OrderStatusUpdater, events EventSink) *PaymentService {
	return &PaymentService{
		store:  store,
		orders: orders,
		events: events,
		logger: util.GetLogger(),
	}
}

// CreatePaymentRequest represents a request to record a payment
type CreatePaymentRequest struct {
	OrderID         string  `json:"order_id" binding:"required"`
	Amount          int64   `json:"amount" binding:"required,min=1"`
	PaymentMethodID string  `json:"payment_method_id" binding:"required"`
	Notes           *string `json:"notes,omitempty"`
}

// CreatePayment records a PENDING payment against an order. The
// amount is capped by the order's remaining balance: completed
// payments can never jointly exceed the order total.
func (ps *PaymentService) CreatePayment(ctx context.Context, branchID, staffID string, req *CreatePaymentRequest) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreatePayment")
	defer span.End()

	order, err := ps.store.GetOrderByID(ctx, branchID, req.OrderID)
	if err != nil {
		return nil, wrapStoreErr(err, "order")
	}

	if _, err := ps.store.GetPaymentMethodByID(ctx, branchID, req.PaymentMethodID); err != nil {
		return nil, wrapStoreErr(err, "payment method")
	}

	if req.Amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive: %w", ErrValidation)
	}

	remaining, err := ps.remainingBalance(ctx, order)
	if err != nil {
		return nil, err
	}
	if req.Amount > remaining {
		return nil, fmt.Errorf("payment amount %d exceeds remaining balance %d: %w",
			req.Amount, remaining, ErrValidation)
	}

	payment := &models.Payment{
		ID:              uuid.New().String(),
		OrderID:         order.ID,
		Amount:          req.Amount,
		PaymentMethodID: req.PaymentMethodID,
		Status:          models.PaymentStatusPending,
		Notes:           req.Notes,
		StaffID:         staffID,
		BranchID:        branchID,
		CreatedAt:       time.Now().UTC(),
	}

	if err := ps.store.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w: %v", ErrStoreUnavailable, err)
	}

	util.PaymentsCreatedTotal.Inc()
	ps.logger.Info("Payment created",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", order.ID),
		zap.Int64("amount", payment.Amount))

	ps.events.PaymentUpdated(ctx, branchID, order.ID, payment.ID, payment.Status)
	return payment, nil
}

// ProcessPayment transitions a payment's status. Prior transaction id
// and notes survive when new values are not supplied. Completing a
// payment stamps the order's paid time; the order status itself is
// untouched on this path.
func (ps *PaymentService) ProcessPayment(ctx context.Context, branchID, paymentID, status string, transactionID, notes *string) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.ProcessPayment")
	defer span.End()

	if !models.ValidPaymentStatus(status) {
		return nil, fmt.Errorf("payment status %q: %w", status, ErrInvalidStatus)
	}

	payment, err := ps.store.GetPaymentByID(ctx, branchID, paymentID)
	if err != nil {
		return nil, wrapStoreErr(err, "payment")
	}

	if status == models.PaymentStatusCompleted && payment.Status != models.PaymentStatusCompleted {
		order, err := ps.store.GetOrderByID(ctx, branchID, payment.OrderID)
		if err != nil {
			return nil, wrapStoreErr(err, "order")
		}
		remaining, err := ps.remainingBalance(ctx, order)
		if err != nil {
			return nil, err
		}
		if payment.Amount > remaining {
			return nil, fmt.Errorf("completing payment would overpay order %s: %w",
				order.ID, ErrValidation)
		}
	}

	payment.Status = status
	if transactionID != nil {
		payment.TransactionID = transactionID
	}
	if notes != nil {
		payment.Notes = notes
	}

	if err := ps.store.UpdatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w: %v", ErrStoreUnavailable, err)
	}

	if status == models.PaymentStatusCompleted {
		if err := ps.store.StampOrderPaid(ctx, payment.OrderID); err != nil {
			ps.logger.Error("Failed to stamp order paid time",
				zap.String("order_id", payment.OrderID), zap.Error(err))
		}
	}

	util.PaymentsProcessedTotal.WithLabelValues(status).Inc()
	ps.events.PaymentUpdated(ctx, branchID, payment.OrderID, payment.ID, payment.Status)
	return payment, nil
}

// CheckoutRequest is the QR self-ordering immediate-pay request
type CheckoutRequest struct {
	OrderID       string `json:"order_id" binding:"required"`
	Amount        int64  `json:"amount" binding:"required,min=1"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// Checkout settles an order in one step: a single payment covering
// the exact total, recorded as COMPLETED, with the order moved to
// COMPLETED through the order engine.
func (ps *PaymentService) Checkout(ctx context.Context, branchID, staffID string, req *CheckoutRequest) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Checkout")
	defer span.End()

	order, err := ps.store.GetOrderByID(ctx, branchID, req.OrderID)
	if err != nil {
		return nil, wrapStoreErr(err, "order")
	}

	if req.Amount != order.TotalAmount {
		return nil, fmt.Errorf("payment amount does not match order total: %w", ErrValidation)
	}

	// the full total must still be owed; a partially or fully settled
	// order cannot be checked out on top
	remaining, err := ps.remainingBalance(ctx, order)
	if err != nil {
		return nil, err
	}
	if req.Amount > remaining {
		return nil, fmt.Errorf("order %s already has completed payments: %w", order.ID, ErrValidation)
	}

	method, err := ps.store.GetPaymentMethodByName(ctx, branchID, req.PaymentMethod)
	if err != nil {
		return nil, wrapStoreErr(err, "payment method")
	}

	payment := &models.Payment{
		ID:              uuid.New().String(),
		OrderID:         order.ID,
		Amount:          req.Amount,
		PaymentMethodID: method.ID,
		Status:          models.PaymentStatusCompleted,
		StaffID:         staffID,
		BranchID:        branchID,
		CreatedAt:       time.Now().UTC(),
	}

	if err := ps.store.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w: %v", ErrStoreUnavailable, err)
	}

	if err := ps.store.StampOrderPaid(ctx, order.ID); err != nil {
		ps.logger.Error("Failed to stamp order paid time",
			zap.String("order_id", order.ID), zap.Error(err))
	}

	if _, err := ps.orders.UpdateStatus(ctx, branchID, order.ID, models.OrderStatusCompleted); err != nil {
		ps.logger.Error("Checkout: order completion failed",
			zap.String("order_id", order.ID), zap.Error(err))
	}

	util.PaymentsCreatedTotal.Inc()
	util.PaymentsProcessedTotal.WithLabelValues(models.PaymentStatusCompleted).Inc()
	ps.events.PaymentUpdated(ctx, branchID, order.ID, payment.ID, payment.Status)
	return payment, nil
}

// RefundPayment marks a payment refunded and cancels its order. No
// partial refunds; a refunded payment cannot be re-issued.
func (ps *PaymentService) RefundPayment(ctx context.Context, branchID, paymentID string) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.RefundPayment")
	defer span.End()

	payment, err := ps.store.GetPaymentByID(ctx, branchID, paymentID)
	if err != nil {
		return nil, wrapStoreErr(err, "payment")
	}

	payment.Status = models.PaymentStatusRefunded
	if err := ps.store.UpdatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w: %v", ErrStoreUnavailable, err)
	}

	if _, err := ps.orders.UpdateStatus(ctx, branchID, payment.OrderID, models.OrderStatusCancelled); err != nil {
		ps.logger.Error("Refund: order cancellation failed",
			zap.String("order_id", payment.OrderID), zap.Error(err))
	}

	util.PaymentsRefundedTotal.Inc()
	ps.logger.Info("Payment refunded",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", payment.OrderID))

	ps.events.PaymentUpdated(ctx, branchID, payment.OrderID, payment.ID, payment.Status)
	return payment, nil
}

// GetPayment retrieves a payment
func (ps *PaymentService) GetPayment(ctx context.Context, branchID, paymentID string) (*models.Payment, error) {
	payment, err := ps.store.GetPaymentByID(ctx, branchID, paymentID)
	if err != nil {
		return nil, wrapStoreErr(err, "payment")
	}
	return payment, nil
}

// ListPayments retrieves branch payments, optionally for one order
func (ps *PaymentService) ListPayments(ctx context.Context, branchID, orderID string) ([]models.Payment, error) {
	payments, err := ps.store.ListPayments(ctx, branchID, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w: %v", ErrStoreUnavailable, err)
	}
	return payments, nil
}

func (ps *PaymentService) remainingBalance(ctx context.Context, order *models.Order) (int64, error) {
	paid, err := ps.store.SumCompletedPayments(ctx, order.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum payments: %w: %v", ErrStoreUnavailable, err)
	}
	return order.TotalAmount - paid, nil
}
