package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"pulsetrade/internal/domain"
)

// PriceSource provides the current synthetic price for a symbol
type PriceSource interface {
	CurrentPrice(ctx context.Context, symbolCode string) (float64, error)
}

// SettlementService resolves a single order exactly once: it reads the
// ambient price, applies the owner's outcome bias, decides win/loss and
// applies the balance effect in one transaction.
type SettlementService struct {
	orderRepo domain.OrderRepository
	userRepo  domain.UserRepository
	prices    PriceSource
	bias      domain.OutcomeBias

	maxAttempts int
	backoff     time.Duration
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	orderRepo domain.OrderRepository,
	userRepo domain.UserRepository,
	prices PriceSource,
	bias domain.OutcomeBias,
) *SettlementService {
	return &SettlementService{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		prices:      prices,
		bias:        bias,
		maxAttempts: 3,
		backoff:     time.Second,
	}
}

// Settle transitions an order from open to closeout. It is idempotent: a
// duplicate fire for an already-settled order is a logged no-op. Transient
// failures are retried with backoff; after the attempts are exhausted the
// order stays open and shows up on the stuck-orders report.
func (s *SettlementService) Settle(ctx context.Context, orderID uuid.UUID) error {
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.settleOnce(ctx, orderID)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrAlreadySettled) {
			log.Printf("Order %s already settled, skipping duplicate fire", orderID)
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			// Nothing to retry against; log for manual reconciliation.
			log.Printf("ERROR: Settlement for order %s aborted: %v", orderID, err)
			return nil
		}

		lastErr = err
		log.Printf("WARNING: Settlement attempt %d/%d for order %s failed: %v", attempt, s.maxAttempts, orderID, err)
		if attempt < s.maxAttempts {
			time.Sleep(s.backoff * time.Duration(attempt))
		}
	}

	log.Printf("ERROR: Settlement for order %s exhausted retries, order remains open: %v", orderID, lastErr)
	return fmt.Errorf("settlement exhausted retries for order %s: %w", orderID, lastErr)
}

func (s *SettlementService) settleOnce(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.StatusOpen {
		return domain.ErrAlreadySettled
	}

	user, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		return err
	}

	basePrice, err := s.prices.CurrentPrice(ctx, order.Symbol)
	if err != nil {
		return fmt.Errorf("failed to read price for %s: %w", order.Symbol, err)
	}

	// One deterministic bias, favorable iff the owner is predisposed to win.
	closeOutPrice := s.bias.Closeout(basePrice, order.Direction, user.IsGonnaWin)

	isWin := order.IsWinningCloseout(closeOutPrice)
	profit := 0.0
	credit := 0.0
	if isWin {
		profit = order.ProfitAmount()
		// The investment was debited at placement, so the win returns it
		// along with the profit. A loss credits nothing.
		credit = order.Investment + profit
	}

	err = s.orderRepo.ApplySettlement(ctx, domain.Settlement{
		OrderID:       order.ID,
		UserID:        order.UserID,
		CloseOutPrice: closeOutPrice,
		IsWin:         isWin,
		Profit:        profit,
		Credit:        credit,
	})
	if err != nil {
		return err
	}

	outcome := "LOSS"
	if isWin {
		outcome = "WIN"
	}
	log.Printf("[OK] Order %s settled: %s %s | Entry=%.2f Closeout=%.2f | %s | Credit=%.2f",
		order.ID, order.Symbol, order.Direction, order.OrderPrice, closeOutPrice, outcome, credit)

	return nil
}
