package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pulsetrade/internal/domain"
)

// Armer arms a deferred settlement for an order at its fire time
type Armer interface {
	Arm(orderID uuid.UUID, settleAt time.Time)
}

// PlaceOrderInput carries a bet request from the delivery layer
type PlaceOrderInput struct {
	UserID           uuid.UUID
	Symbol           string
	Direction        string
	Investment       float64
	Duration         string
	ProfitPercentage float64
	OrderPrice       float64 // price quoted to the client at bet time
}

// OrderService handles bet placement and order queries
type OrderService struct {
	orderRepo domain.OrderRepository
	scheduler Armer
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo domain.OrderRepository, scheduler Armer) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		scheduler: scheduler,
	}
}

// PlaceOrder validates the request, debits the investment and inserts the
// order in one transaction, then arms the deferred settlement. Returns the
// created order and the owner's remaining balance. A rejected placement
// never mutates the balance.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, float64, error) {
	if err := validatePlaceOrder(in); err != nil {
		return nil, 0, err
	}

	delay, err := domain.ParseDurationSpec(in.Duration)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	order := &domain.Order{
		ID:               uuid.New(),
		UserID:           in.UserID,
		Symbol:           in.Symbol,
		Direction:        in.Direction,
		Investment:       in.Investment,
		Duration:         in.Duration,
		ProfitPercentage: in.ProfitPercentage,
		OrderPrice:       in.OrderPrice,
		Status:           domain.StatusOpen,
		CreatedAt:        now,
		SettleAt:         now.Add(delay),
	}

	balance, err := s.orderRepo.CreateWithDebit(ctx, order)
	if err != nil {
		return nil, 0, err
	}

	s.scheduler.Arm(order.ID, order.SettleAt)

	return order, balance, nil
}

func validatePlaceOrder(in PlaceOrderInput) error {
	if in.UserID == uuid.Nil || in.Symbol == "" || in.Duration == "" {
		return domain.ErrInvalidInput
	}
	if !domain.ValidDirection(in.Direction) {
		return domain.ErrInvalidInput
	}
	if in.Investment <= 0 || in.ProfitPercentage < 0 || in.OrderPrice <= 0 {
		return domain.ErrInvalidInput
	}
	return nil
}

// GetOrder retrieves a single order
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.GetByID(ctx, orderID)
}

// ListOrdersForUser retrieves all orders placed by a user
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.GetByUserID(ctx, userID)
}

// ListAllOrders retrieves every order (superadmin view)
func (s *OrderService) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.orderRepo.GetAll(ctx)
}

// ListOrdersForSubAdmin retrieves orders of users the sub-admin invited
func (s *OrderService) ListOrdersForSubAdmin(ctx context.Context, adminID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.GetByReferrer(ctx, adminID)
}

// ListStuckOrders retrieves open orders whose fire time passed more than
// grace ago. These exhausted their settlement retries and need manual
// reconciliation.
func (s *OrderService) ListStuckOrders(ctx context.Context, grace time.Duration) ([]*domain.Order, error) {
	if grace < 0 {
		return nil, fmt.Errorf("grace must be non-negative: %w", domain.ErrInvalidInput)
	}
	return s.orderRepo.GetOpenDueBefore(ctx, time.Now().Add(-grace))
}
