package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"pulsetrade/internal/domain"
)

// stubOrderRepo records placements and serves canned balances/errors.
type stubOrderRepo struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]*domain.Order
	balance float64
	err     error // returned by CreateWithDebit when set
}

func newStubOrderRepo(balance float64) *stubOrderRepo {
	return &stubOrderRepo{orders: map[uuid.UUID]*domain.Order{}, balance: balance}
}

func (r *stubOrderRepo) CreateWithDebit(ctx context.Context, o *domain.Order) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	if r.balance < o.Investment {
		return 0, domain.ErrInsufficientBalance
	}
	r.balance -= o.Investment
	cp := *o
	r.orders[o.ID] = &cp
	return r.balance, nil
}

func (r *stubOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return nil, nil
}

func (r *stubOrderRepo) GetAll(ctx context.Context) ([]*domain.Order, error) {
	return nil, nil
}

func (r *stubOrderRepo) GetByReferrer(ctx context.Context, adminID uuid.UUID) ([]*domain.Order, error) {
	return nil, nil
}

func (r *stubOrderRepo) GetOpen(ctx context.Context) ([]*domain.Order, error) {
	return nil, nil
}

func (r *stubOrderRepo) GetOpenDueBefore(ctx context.Context, t time.Time) ([]*domain.Order, error) {
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

func (r *stubOrderRepo) ApplySettlement(ctx context.Context, s domain.Settlement) error {
	return nil
}

// recordingArmer remembers every armed settlement.
type recordingArmer struct {
	mu    sync.Mutex
	armed map[uuid.UUID]time.Time
}

func newRecordingArmer() *recordingArmer {
	return &recordingArmer{armed: map[uuid.UUID]time.Time{}}
}

func (a *recordingArmer) Arm(orderID uuid.UUID, settleAt time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.armed[orderID] = settleAt
}

func validInput(userID uuid.UUID) PlaceOrderInput {
	return PlaceOrderInput{
		UserID:           userID,
		Symbol:           "BTC",
		Direction:        domain.DirectionBuyUp,
		Investment:       100,
		Duration:         "30s",
		ProfitPercentage: 20,
		OrderPrice:       50000,
	}
}

func TestPlaceOrderDebitsAndArms(t *testing.T) {
	repo := newStubOrderRepo(1000)
	armer := newRecordingArmer()
	svc := NewOrderService(repo, armer)

	userID := uuid.New()
	before := time.Now()
	order, balance, err := svc.PlaceOrder(context.Background(), validInput(userID))
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	if balance != 900 {
		t.Errorf("remaining balance = %v, want 900", balance)
	}
	if order.Status != domain.StatusOpen {
		t.Errorf("order status = %q, want %q", order.Status, domain.StatusOpen)
	}

	settleAt, ok := armer.armed[order.ID]
	if !ok {
		t.Fatal("placement should arm the deferred settlement")
	}
	if got := settleAt.Sub(before); got < 29*time.Second || got > 31*time.Second {
		t.Errorf("fire time is %v after placement, want about 30s", got)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	repo := newStubOrderRepo(1000)
	armer := newRecordingArmer()
	svc := NewOrderService(repo, armer)
	userID := uuid.New()

	mutations := []func(*PlaceOrderInput){
		func(in *PlaceOrderInput) { in.UserID = uuid.Nil },
		func(in *PlaceOrderInput) { in.Symbol = "" },
		func(in *PlaceOrderInput) { in.Direction = "sideways" },
		func(in *PlaceOrderInput) { in.Investment = 0 },
		func(in *PlaceOrderInput) { in.Investment = -100 },
		func(in *PlaceOrderInput) { in.Duration = "" },
		func(in *PlaceOrderInput) { in.Duration = "-30s" },
		func(in *PlaceOrderInput) { in.ProfitPercentage = -1 },
		func(in *PlaceOrderInput) { in.OrderPrice = 0 },
	}

	for i, mutate := range mutations {
		in := validInput(userID)
		mutate(&in)
		if _, _, err := svc.PlaceOrder(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("mutation %d: expected ErrInvalidInput, got %v", i, err)
		}
	}

	if len(armer.armed) != 0 {
		t.Error("rejected placements must not arm settlements")
	}
	if len(repo.orders) != 0 {
		t.Error("rejected placements must not persist orders")
	}
}

func TestPlaceOrderRejectionDoesNotArm(t *testing.T) {
	repo := newStubOrderRepo(50) // less than the 100 investment
	armer := newRecordingArmer()
	svc := NewOrderService(repo, armer)

	_, _, err := svc.PlaceOrder(context.Background(), validInput(uuid.New()))
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	if len(armer.armed) != 0 {
		t.Error("a rejected placement must not arm a settlement")
	}
	if repo.balance != 50 {
		t.Errorf("balance = %v, want untouched 50", repo.balance)
	}
}

func TestPlaceOrderFrozenBalance(t *testing.T) {
	repo := newStubOrderRepo(1000)
	repo.err = domain.ErrBalanceFrozen
	svc := NewOrderService(repo, newRecordingArmer())

	_, _, err := svc.PlaceOrder(context.Background(), validInput(uuid.New()))
	if !errors.Is(err, domain.ErrBalanceFrozen) {
		t.Fatalf("expected ErrBalanceFrozen, got %v", err)
	}
}

func TestListStuckOrders(t *testing.T) {
	repo := newStubOrderRepo(0)
	svc := NewOrderService(repo, newRecordingArmer())

	now := time.Now()
	stuck := &domain.Order{ID: uuid.New(), Status: domain.StatusOpen, SettleAt: now.Add(-5 * time.Minute)}
	recent := &domain.Order{ID: uuid.New(), Status: domain.StatusOpen, SettleAt: now.Add(-10 * time.Second)}
	repo.orders[stuck.ID] = stuck
	repo.orders[recent.ID] = recent

	orders, err := svc.ListStuckOrders(context.Background(), 2*time.Minute)
	if err != nil {
		t.Fatalf("ListStuckOrders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != stuck.ID {
		t.Errorf("expected only the 5-minute overdue order, got %d orders", len(orders))
	}

	if _, err := svc.ListStuckOrders(context.Background(), -time.Second); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("negative grace should be invalid, got %v", err)
	}
}
