package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"pulsetrade/internal/domain"
)

// fakeOrderRepo is an in-memory OrderRepository for service tests.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
	users  *fakeUserRepo

	applyErrs []error // errors returned by successive ApplySettlement calls
	applied   int
}

func newFakeOrderRepo(users *fakeUserRepo) *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*domain.Order{}, users: users}
}

func (r *fakeOrderRepo) add(o *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
}

func (r *fakeOrderRepo) CreateWithDebit(ctx context.Context, o *domain.Order) (float64, error) {
	balance, err := r.users.DebitBalance(ctx, o.UserID, o.Investment)
	if err != nil {
		return 0, err
	}
	r.add(o)
	return balance, nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) GetAll(ctx context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeOrderRepo) GetByReferrer(ctx context.Context, adminID uuid.UUID) ([]*domain.Order, error) {
	return nil, nil
}

func (r *fakeOrderRepo) GetOpen(ctx context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.Status == domain.StatusOpen {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) GetOpenDueBefore(ctx context.Context, t time.Time) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.Status == domain.StatusOpen && o.SettleAt.Before(t) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ApplySettlement(ctx context.Context, s domain.Settlement) error {
	r.mu.Lock()
	if r.applied < len(r.applyErrs) {
		err := r.applyErrs[r.applied]
		r.applied++
		if err != nil {
			r.mu.Unlock()
			return err
		}
	} else {
		r.applied++
	}

	o, ok := r.orders[s.OrderID]
	if !ok {
		r.mu.Unlock()
		return domain.ErrNotFound
	}
	if o.Status != domain.StatusOpen {
		r.mu.Unlock()
		return domain.ErrAlreadySettled
	}

	price := s.CloseOutPrice
	o.Status = domain.StatusCloseout
	o.CloseOutPrice = &price
	o.Profit = s.Profit
	o.IsWin = s.IsWin
	o.IsLoss = !s.IsWin
	r.mu.Unlock()

	if s.Credit > 0 {
		if _, err := r.users.CreditBalance(ctx, s.UserID, s.Credit); err != nil {
			return err
		}
	}
	return nil
}

// fakeUserRepo is an in-memory UserRepository for service tests.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*domain.User{}}
}

func (r *fakeUserRepo) add(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
}

func (r *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.add(u)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetAll(ctx context.Context) ([]*domain.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) GetByReferrer(ctx context.Context, adminID uuid.UUID) ([]*domain.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) CreditBalance(ctx context.Context, userID uuid.UUID, amount float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	u.Balance += amount
	return u.Balance, nil
}

func (r *fakeUserRepo) DebitBalance(ctx context.Context, userID uuid.UUID, amount float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	if u.IsBalanceFrozen {
		return 0, domain.ErrBalanceFrozen
	}
	if u.Balance < amount {
		return 0, domain.ErrInsufficientBalance
	}
	u.Balance -= amount
	return u.Balance, nil
}

func (r *fakeUserRepo) SetBalanceFrozen(ctx context.Context, userID uuid.UUID, frozen bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsBalanceFrozen = frozen
	return nil
}

func (r *fakeUserRepo) SetPredisposition(ctx context.Context, userID uuid.UUID, isGonnaWin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsGonnaWin = isGonnaWin
	return nil
}

// fixedPriceSource always reports the same price.
type fixedPriceSource struct {
	price float64
}

func (p fixedPriceSource) CurrentPrice(ctx context.Context, symbolCode string) (float64, error) {
	return p.price, nil
}

func newSettlementFixture(isGonnaWin bool) (*SettlementService, *fakeOrderRepo, *fakeUserRepo, *domain.Order) {
	users := newFakeUserRepo()
	orders := newFakeOrderRepo(users)

	user := &domain.User{ID: uuid.New(), Email: "trader@example.com", Balance: 900, IsGonnaWin: isGonnaWin}
	users.add(user)

	order := &domain.Order{
		ID:               uuid.New(),
		UserID:           user.ID,
		Symbol:           "BTC",
		Direction:        domain.DirectionBuyUp,
		Investment:       100,
		Duration:         "30s",
		ProfitPercentage: 20,
		OrderPrice:       50000,
		Status:           domain.StatusOpen,
		CreatedAt:        time.Now(),
		SettleAt:         time.Now(),
	}
	orders.add(order)

	svc := NewSettlementService(orders, users, fixedPriceSource{price: 50000}, domain.PercentBias{Percent: 2.0})
	svc.backoff = time.Millisecond
	return svc, orders, users, order
}

func TestSettleWinCreditsInvestmentPlusProfit(t *testing.T) {
	svc, orders, users, order := newSettlementFixture(true)

	if err := svc.Settle(context.Background(), order.ID); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	settled, _ := orders.GetByID(context.Background(), order.ID)
	if settled.Status != domain.StatusCloseout {
		t.Fatalf("order status = %q, want %q", settled.Status, domain.StatusCloseout)
	}
	if !settled.IsWin || settled.IsLoss {
		t.Error("predisposed order should settle as a win")
	}
	if settled.Profit != 20 {
		t.Errorf("profit = %v, want 20", settled.Profit)
	}
	if settled.CloseOutPrice == nil || *settled.CloseOutPrice <= order.OrderPrice {
		t.Error("winning Buy Up closeout should be above the entry price")
	}

	// 900 starting balance + 100 investment back + 20 profit.
	u, _ := users.GetByID(context.Background(), order.UserID)
	if u.Balance != 1020 {
		t.Errorf("balance after win = %v, want 1020", u.Balance)
	}
}

func TestSettleLossCreditsNothing(t *testing.T) {
	svc, orders, users, order := newSettlementFixture(false)

	if err := svc.Settle(context.Background(), order.ID); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	settled, _ := orders.GetByID(context.Background(), order.ID)
	if settled.IsWin || !settled.IsLoss {
		t.Error("order without predisposition should settle as a loss")
	}
	if settled.Profit != 0 {
		t.Errorf("profit = %v, want 0", settled.Profit)
	}

	// The investment stays debited; the balance does not move at settlement.
	u, _ := users.GetByID(context.Background(), order.UserID)
	if u.Balance != 900 {
		t.Errorf("balance after loss = %v, want 900", u.Balance)
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	svc, _, users, order := newSettlementFixture(true)

	if err := svc.Settle(context.Background(), order.ID); err != nil {
		t.Fatalf("first Settle failed: %v", err)
	}
	// Duplicate fire: a timer and the overdue sweep can both reach the same
	// order. The second call must be a no-op, not a double credit.
	if err := svc.Settle(context.Background(), order.ID); err != nil {
		t.Fatalf("duplicate Settle should be a no-op, got: %v", err)
	}

	u, _ := users.GetByID(context.Background(), order.UserID)
	if u.Balance != 1020 {
		t.Errorf("balance after duplicate settle = %v, want 1020", u.Balance)
	}
}

func TestSettleRetriesTransientFailures(t *testing.T) {
	svc, orders, _, order := newSettlementFixture(true)
	orders.applyErrs = []error{errors.New("connection reset"), errors.New("connection reset")}

	if err := svc.Settle(context.Background(), order.ID); err != nil {
		t.Fatalf("Settle should succeed on the third attempt: %v", err)
	}

	settled, _ := orders.GetByID(context.Background(), order.ID)
	if settled.Status != domain.StatusCloseout {
		t.Error("order should be settled after retries")
	}
}

func TestSettleExhaustedRetriesLeavesOrderOpen(t *testing.T) {
	svc, orders, _, order := newSettlementFixture(true)
	boom := errors.New("connection reset")
	orders.applyErrs = []error{boom, boom, boom}

	if err := svc.Settle(context.Background(), order.ID); err == nil {
		t.Fatal("Settle should report exhausted retries")
	}

	still, _ := orders.GetByID(context.Background(), order.ID)
	if still.Status != domain.StatusOpen {
		t.Error("order should remain open for the stuck-orders report")
	}
}

func TestSettleMissingOrderIsNoOp(t *testing.T) {
	svc, _, _, _ := newSettlementFixture(true)

	if err := svc.Settle(context.Background(), uuid.New()); err != nil {
		t.Fatalf("settling a missing order should not error: %v", err)
	}
}
