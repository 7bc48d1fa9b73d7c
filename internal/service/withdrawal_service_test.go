package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"pulsetrade/internal/domain"
)

// fakeWithdrawalRepo is an in-memory WithdrawalRepository for service tests.
type fakeWithdrawalRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*domain.WithdrawalRequest
}

func newFakeWithdrawalRepo() *fakeWithdrawalRepo {
	return &fakeWithdrawalRepo{requests: map[uuid.UUID]*domain.WithdrawalRequest{}}
}

func (r *fakeWithdrawalRepo) Save(ctx context.Context, req *domain.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *fakeWithdrawalRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.WithdrawalRequest
	for _, req := range r.requests {
		if req.UserID == userID {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeWithdrawalRepo) GetAll(ctx context.Context) ([]*domain.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.WithdrawalRequest
	for _, req := range r.requests {
		cp := *req
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeWithdrawalRepo) GetByReferrer(ctx context.Context, adminID uuid.UUID) ([]*domain.WithdrawalRequest, error) {
	return nil, nil
}

func (r *fakeWithdrawalRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return domain.ErrNotFound
	}
	req.Status = status
	return nil
}

func newWithdrawalFixture(balance float64) (*WithdrawalService, *fakeWithdrawalRepo, *fakeUserRepo, *domain.User) {
	users := newFakeUserRepo()
	withdrawals := newFakeWithdrawalRepo()
	user := &domain.User{ID: uuid.New(), Email: "trader@example.com", Balance: balance}
	users.add(user)
	return NewWithdrawalService(withdrawals, users), withdrawals, users, user
}

func TestCreateRequestValidation(t *testing.T) {
	svc, _, _, user := newWithdrawalFixture(1000)

	_, err := svc.CreateRequest(context.Background(), user.ID, -50, "INR", "HDFC", "123", "001")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("negative amount should be invalid, got %v", err)
	}

	_, err = svc.CreateRequest(context.Background(), user.ID, 50, "USD", "HDFC", "123", "001")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unsupported currency should be invalid, got %v", err)
	}

	_, err = svc.CreateRequest(context.Background(), user.ID, 5000, "INR", "HDFC", "123", "001")
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Errorf("amount above balance should be rejected, got %v", err)
	}
}

func TestCreateRequestDoesNotDebit(t *testing.T) {
	svc, _, users, user := newWithdrawalFixture(1000)

	req, err := svc.CreateRequest(context.Background(), user.ID, 400, "PKR", "UBL", "456", "002")
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	if req.Status != domain.WithdrawalPending {
		t.Errorf("new request status = %q, want %q", req.Status, domain.WithdrawalPending)
	}

	// The balance only moves at approval.
	u, _ := users.GetByID(context.Background(), user.ID)
	if u.Balance != 1000 {
		t.Errorf("balance after filing = %v, want 1000", u.Balance)
	}
}

func TestReviewApprovalDebitsBalance(t *testing.T) {
	svc, _, users, user := newWithdrawalFixture(1000)

	req, err := svc.CreateRequest(context.Background(), user.ID, 400, "RUB", "Sber", "789", "003")
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	reviewed, err := svc.Review(context.Background(), req.ID, domain.WithdrawalApproved)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if reviewed.Status != domain.WithdrawalApproved {
		t.Errorf("status = %q, want %q", reviewed.Status, domain.WithdrawalApproved)
	}

	u, _ := users.GetByID(context.Background(), user.ID)
	if u.Balance != 600 {
		t.Errorf("balance after approval = %v, want 600", u.Balance)
	}
}

func TestReviewRejectionLeavesBalance(t *testing.T) {
	svc, _, users, user := newWithdrawalFixture(1000)

	req, _ := svc.CreateRequest(context.Background(), user.ID, 400, "INR", "HDFC", "123", "001")

	reviewed, err := svc.Review(context.Background(), req.ID, domain.WithdrawalRejected)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if reviewed.Status != domain.WithdrawalRejected {
		t.Errorf("status = %q, want %q", reviewed.Status, domain.WithdrawalRejected)
	}

	u, _ := users.GetByID(context.Background(), user.ID)
	if u.Balance != 1000 {
		t.Errorf("balance after rejection = %v, want 1000", u.Balance)
	}
}

func TestReviewRejectsDoubleReview(t *testing.T) {
	svc, _, _, user := newWithdrawalFixture(1000)

	req, _ := svc.CreateRequest(context.Background(), user.ID, 400, "INR", "HDFC", "123", "001")
	if _, err := svc.Review(context.Background(), req.ID, domain.WithdrawalApproved); err != nil {
		t.Fatalf("first review failed: %v", err)
	}

	if _, err := svc.Review(context.Background(), req.ID, domain.WithdrawalApproved); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("second review should be rejected, got %v", err)
	}
}

func TestReviewApprovalFailsWhenBalanceShrank(t *testing.T) {
	svc, _, users, user := newWithdrawalFixture(1000)

	req, _ := svc.CreateRequest(context.Background(), user.ID, 800, "INR", "HDFC", "123", "001")

	// Balance shrinks between filing and review.
	if _, err := users.DebitBalance(context.Background(), user.ID, 500); err != nil {
		t.Fatalf("debit failed: %v", err)
	}

	if _, err := svc.Review(context.Background(), req.ID, domain.WithdrawalApproved); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Errorf("approval over a shrunk balance should fail, got %v", err)
	}
}
