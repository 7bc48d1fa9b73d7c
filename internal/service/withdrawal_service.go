package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"pulsetrade/internal/domain"
)

// WithdrawalService handles the withdrawal review workflow: users file
// requests, admins approve or reject them. The balance only moves on
// approval.
type WithdrawalService struct {
	withdrawalRepo domain.WithdrawalRepository
	userRepo       domain.UserRepository
}

// NewWithdrawalService creates a new WithdrawalService
func NewWithdrawalService(withdrawalRepo domain.WithdrawalRepository, userRepo domain.UserRepository) *WithdrawalService {
	return &WithdrawalService{
		withdrawalRepo: withdrawalRepo,
		userRepo:       userRepo,
	}
}

// CreateRequest files a withdrawal request. The balance is checked but not
// debited; the deduction happens at approval.
func (s *WithdrawalService) CreateRequest(ctx context.Context, userID uuid.UUID, amount float64, currency, bankName, accountNumber, branchCode string) (*domain.WithdrawalRequest, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if !domain.SupportedWithdrawalCurrency(currency) {
		return nil, fmt.Errorf("unsupported withdrawal currency %q: %w", currency, domain.ErrInvalidInput)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Balance < amount {
		return nil, domain.ErrInsufficientBalance
	}

	req := &domain.WithdrawalRequest{
		ID:            uuid.New(),
		UserID:        userID,
		Amount:        amount,
		Currency:      currency,
		BankName:      bankName,
		AccountNumber: accountNumber,
		BranchCode:    branchCode,
		Status:        domain.WithdrawalPending,
		RequestedAt:   time.Now(),
	}

	if err := s.withdrawalRepo.Save(ctx, req); err != nil {
		return nil, err
	}

	return req, nil
}

// Review updates a request's status. Approval debits the user's balance
// through the same conditional decrement used for order placement, so a
// balance that shrank since the request was filed rejects the approval.
func (s *WithdrawalService) Review(ctx context.Context, requestID uuid.UUID, status string) (*domain.WithdrawalRequest, error) {
	if status != domain.WithdrawalApproved && status != domain.WithdrawalRejected {
		return nil, domain.ErrInvalidInput
	}

	req, err := s.withdrawalRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.WithdrawalPending {
		return nil, fmt.Errorf("withdrawal request %s is already %s: %w", req.ID, req.Status, domain.ErrInvalidInput)
	}

	if status == domain.WithdrawalApproved {
		if _, err := s.userRepo.DebitBalance(ctx, req.UserID, req.Amount); err != nil {
			return nil, err
		}
	}

	if err := s.withdrawalRepo.UpdateStatus(ctx, requestID, status); err != nil {
		// The debit landed but the status write failed; flag loudly for
		// manual reconciliation rather than silently re-crediting.
		log.Printf("ERROR: Withdrawal %s debited but status update failed: %v", requestID, err)
		return nil, err
	}

	req.Status = status
	return req, nil
}

// ListForUser retrieves the user's own withdrawal requests
func (s *WithdrawalService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.WithdrawalRequest, error) {
	return s.withdrawalRepo.GetByUserID(ctx, userID)
}

// ListAll retrieves every withdrawal request (superadmin view)
func (s *WithdrawalService) ListAll(ctx context.Context) ([]*domain.WithdrawalRequest, error) {
	return s.withdrawalRepo.GetAll(ctx)
}

// ListForSubAdmin retrieves requests from users the sub-admin invited
func (s *WithdrawalService) ListForSubAdmin(ctx context.Context, adminID uuid.UUID) ([]*domain.WithdrawalRequest, error) {
	return s.withdrawalRepo.GetByReferrer(ctx, adminID)
}
