package service

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"pulsetrade/internal/cache"
	"pulsetrade/internal/domain"
)

// fakeCurrencyRepo is an in-memory CurrencyRepository for simulator tests.
type fakeCurrencyRepo struct {
	mu         sync.Mutex
	currencies map[string]*domain.Currency
}

func newFakeCurrencyRepo() *fakeCurrencyRepo {
	return &fakeCurrencyRepo{currencies: map[string]*domain.Currency{}}
}

func (r *fakeCurrencyRepo) Create(ctx context.Context, c *domain.Currency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.currencies[c.SymbolCode] = &cp
	return nil
}

func (r *fakeCurrencyRepo) GetBySymbol(ctx context.Context, symbolCode string) (*domain.Currency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.currencies[symbolCode]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCurrencyRepo) GetAll(ctx context.Context) ([]*domain.Currency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Currency
	for _, c := range r.currencies {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeCurrencyRepo) UpdateQuote(ctx context.Context, c *domain.Currency, markManual bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.currencies[c.SymbolCode]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Price = c.Price
	stored.ChangePercent = c.ChangePercent
	stored.RangeLow = c.RangeLow
	stored.RangeHigh = c.RangeHigh
	if markManual {
		now := time.Now()
		stored.ManualUpdateAt = &now
	} else {
		stored.ManualUpdateAt = nil
	}
	return nil
}

func (r *fakeCurrencyRepo) UpdateQuoteIfStale(ctx context.Context, c *domain.Currency, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.currencies[c.SymbolCode]
	if !ok {
		return false, domain.ErrNotFound
	}
	if stored.ManualUpdateAt != nil && time.Since(*stored.ManualUpdateAt) <= window {
		return false, nil
	}
	stored.Price = c.Price
	stored.ChangePercent = c.ChangePercent
	stored.RangeLow = c.RangeLow
	stored.RangeHigh = c.RangeHigh
	stored.ManualUpdateAt = nil
	return true, nil
}

func newSimulatorFixture() (*PriceSimulatorService, *fakeCurrencyRepo) {
	repo := newFakeCurrencyRepo()
	sim := NewPriceSimulatorService(repo, cache.NewMemoryStore(), 3*time.Second, 0.4, 5, 0)
	return sim, repo
}

func seedCurrency(t *testing.T, repo *fakeCurrencyRepo, symbol string, price float64) {
	t.Helper()
	if err := repo.Create(context.Background(), &domain.Currency{SymbolCode: symbol, DisplayName: symbol, Price: price}); err != nil {
		t.Fatalf("failed to seed %s: %v", symbol, err)
	}
}

func TestTickBoundsAmbientMove(t *testing.T) {
	sim, repo := newSimulatorFixture()
	seedCurrency(t, repo, "BTC", 50000)

	for i := 0; i < 50; i++ {
		before, _ := repo.GetBySymbol(context.Background(), "BTC")
		sim.Tick(context.Background())
		after, _ := repo.GetBySymbol(context.Background(), "BTC")

		move := math.Abs(after.Price-before.Price) / before.Price * 100
		// Rounding to cents can push the relative move a hair past the bound
		// on tiny prices; at 50000 the slack is negligible.
		if move > 0.41 {
			t.Fatalf("tick %d moved price %.2f -> %.2f (%.4f%%), beyond ambient bound", i, before.Price, after.Price, move)
		}
		if after.Price <= 0 {
			t.Fatalf("tick %d produced non-positive price %.2f", i, after.Price)
		}
	}
}

func TestTickSkipsFreshSymbols(t *testing.T) {
	sim, repo := newSimulatorFixture()
	seedCurrency(t, repo, "ETH", 2600)

	now := time.Now()
	repo.mu.Lock()
	repo.currencies["ETH"].ManualUpdateAt = &now
	repo.mu.Unlock()

	sim.Tick(context.Background())

	c, _ := repo.GetBySymbol(context.Background(), "ETH")
	if c.Price != 2600 {
		t.Errorf("fresh symbol moved from 2600 to %.2f; ambient tick should skip it", c.Price)
	}
}

func TestTickSkipsMalformedSymbolCode(t *testing.T) {
	sim, repo := newSimulatorFixture()
	seedCurrency(t, repo, " BTC", 50000)
	seedCurrency(t, repo, "LTC", 85)

	sim.Tick(context.Background())

	bad, _ := repo.GetBySymbol(context.Background(), " BTC")
	if bad.Price != 50000 {
		t.Errorf("malformed symbol was ticked, price moved to %.2f", bad.Price)
	}
}

func TestDirectedGlideLandsOnTarget(t *testing.T) {
	sim, repo := newSimulatorFixture()
	seedCurrency(t, repo, "XRP", 0.62)

	if err := sim.StartDirectedGlide(context.Background(), "XRP", 0.75, 100*time.Millisecond); err != nil {
		t.Fatalf("StartDirectedGlide failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		c, _ := repo.GetBySymbol(context.Background(), "XRP")
		if c.Price == 0.75 {
			if c.ManualUpdateAt == nil {
				t.Error("glide steps should stamp the freshness timestamp")
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("glide never landed on the target price")
}

func TestDirectedGlideRejectsBadInput(t *testing.T) {
	sim, repo := newSimulatorFixture()
	seedCurrency(t, repo, "BTC", 50000)

	if err := sim.StartDirectedGlide(context.Background(), "BTC", -1, time.Second); err == nil {
		t.Error("non-positive target price should be rejected")
	}
	if err := sim.StartDirectedGlide(context.Background(), "NOPE", 100, time.Second); err == nil {
		t.Error("unknown symbol should be rejected")
	}
}

func TestCurrentPricePrefersCache(t *testing.T) {
	sim, repo := newSimulatorFixture()
	seedCurrency(t, repo, "DOGE", 0.12)

	// First read fills the cache from the repo.
	price, err := sim.CurrentPrice(context.Background(), "DOGE")
	if err != nil {
		t.Fatalf("CurrentPrice failed: %v", err)
	}
	if price != 0.12 {
		t.Errorf("CurrentPrice = %v, want 0.12", price)
	}

	// Mutate the repo behind the cache's back; the cached quote should win
	// until its TTL expires.
	repo.mu.Lock()
	repo.currencies["DOGE"].Price = 99
	repo.mu.Unlock()

	price, err = sim.CurrentPrice(context.Background(), "DOGE")
	if err != nil {
		t.Fatalf("CurrentPrice failed: %v", err)
	}
	if price != 0.12 {
		t.Errorf("CurrentPrice = %v, want cached 0.12", price)
	}
}
