package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"pulsetrade/internal/cache"
	"pulsetrade/internal/domain"
)

const priceCacheTTL = 10 * time.Second

// PriceSimulatorService fabricates continuously fluctuating quotes for every
// seeded symbol. There is no market feed: an ambient tick perturbs each price
// on a fixed cadence, and admins can script a directed glide toward a target
// price that temporarily owns the symbol.
type PriceSimulatorService struct {
	currencyRepo domain.CurrencyRepository
	store        cache.Store
	cron         *cron.Cron

	tickInterval     time.Duration
	maxChangePercent float64 // ambient bound, e.g. 0.4
	glideSteps       int
	settleDuration   time.Duration // post-glide fluctuation phase

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-symbol, serializes tick vs glide steps
	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewPriceSimulatorService creates a new PriceSimulatorService
func NewPriceSimulatorService(
	currencyRepo domain.CurrencyRepository,
	store cache.Store,
	tickInterval time.Duration,
	maxChangePercent float64,
	glideSteps int,
	settleDuration time.Duration,
) *PriceSimulatorService {
	if tickInterval <= 0 {
		tickInterval = 3 * time.Second
	}
	if glideSteps <= 0 {
		glideSteps = 20
	}
	return &PriceSimulatorService{
		currencyRepo:     currencyRepo,
		store:            store,
		cron:             cron.New(cron.WithSeconds()),
		tickInterval:     tickInterval,
		maxChangePercent: maxChangePercent,
		glideSteps:       glideSteps,
		settleDuration:   settleDuration,
		locks:            make(map[string]*sync.Mutex),
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start begins the ambient tick on its own cadence
func (s *PriceSimulatorService) Start() error {
	spec := fmt.Sprintf("@every %s", s.tickInterval)
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.tickInterval)
		defer cancel()
		s.Tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule ambient tick: %w", err)
	}

	s.cron.Start()
	log.Printf("[OK] Price simulator started (tick every %s, max move %.2f%%)", s.tickInterval, s.maxChangePercent)
	return nil
}

// Stop stops the ambient tick
func (s *PriceSimulatorService) Stop() {
	s.cron.Stop()
	log.Println("[OK] Price simulator stopped")
}

// Tick applies one ambient perturbation pass over all symbols. Symbols with
// a manual or directed update inside the freshness window are skipped; a bad
// symbol code is logged and skipped, never aborts the batch.
func (s *PriceSimulatorService) Tick(ctx context.Context) {
	currencies, err := s.currencyRepo.GetAll(ctx)
	if err != nil {
		log.Printf("ERROR: Ambient tick failed to list currencies: %v", err)
		return
	}

	for _, c := range currencies {
		if !validSymbolCode(c.SymbolCode) {
			log.Printf("WARNING: Skipping currency with malformed symbol code %q", c.SymbolCode)
			continue
		}
		if err := s.tickSymbol(ctx, c.SymbolCode); err != nil {
			log.Printf("ERROR: Ambient tick failed for %s: %v", c.SymbolCode, err)
		}
	}
}

func (s *PriceSimulatorService) tickSymbol(ctx context.Context, symbolCode string) error {
	lock := s.symbolLock(symbolCode)
	lock.Lock()
	defer lock.Unlock()

	// Freshness is re-checked here, per symbol, not cached across the batch.
	c, err := s.currencyRepo.GetBySymbol(ctx, symbolCode)
	if err != nil {
		return err
	}
	if c.IsFresh(time.Now()) {
		return nil
	}

	priceChange := c.Price * s.randSigned() * (s.maxChangePercent / 100.0)
	newPrice := round2(c.Price + priceChange)
	if newPrice <= 0 {
		newPrice = round2(c.Price)
	}

	updated := &domain.Currency{
		SymbolCode:    c.SymbolCode,
		DisplayName:   c.DisplayName,
		Icon:          c.Icon,
		Price:         newPrice,
		ChangePercent: round2((newPrice - c.Price) / c.Price * 100.0),
		RangeLow:      round2(math.Min(c.Price, newPrice)),
		RangeHigh:     round2(math.Max(c.Price, newPrice)),
	}

	// The stale guard in the repository is the second line of defense: if a
	// glide stamped the timestamp after our read, this write is dropped.
	ok, err := s.currencyRepo.UpdateQuoteIfStale(ctx, updated, domain.FreshnessWindow)
	if err != nil {
		return err
	}
	if ok {
		s.cacheQuote(ctx, updated)
	}
	return nil
}

// StartDirectedGlide moves a symbol's price to targetPrice over the duration
// budget in discrete jittered steps, then jitters around the target for the
// settle phase before handing the symbol back to the ambient tick. The glide
// runs in the background; the call returns once the symbol is validated.
func (s *PriceSimulatorService) StartDirectedGlide(ctx context.Context, symbolCode string, targetPrice float64, duration time.Duration) error {
	if targetPrice <= 0 {
		return domain.ErrInvalidInput
	}

	c, err := s.currencyRepo.GetBySymbol(ctx, symbolCode)
	if err != nil {
		return err
	}

	steps := s.glideSteps
	interval := duration / time.Duration(steps)
	startPrice := c.Price
	perStep := (targetPrice - startPrice) / float64(steps)

	// Claim the symbol before returning so an ambient tick between now and
	// the first step can't touch it.
	claim := *c
	if err := s.currencyRepo.UpdateQuote(ctx, &claim, true); err != nil {
		return err
	}

	go func() {
		bg := context.Background()
		log.Printf("Directed glide for %s: %.2f -> %.2f over %s", symbolCode, startPrice, targetPrice, duration)

		for step := 1; step < steps; step++ {
			time.Sleep(interval)

			linear := startPrice + perStep*float64(step)
			jitter := linear * s.randSigned() * (s.maxChangePercent / 100.0)
			s.writeGlideStep(bg, c, startPrice, round2(linear+jitter))
		}

		time.Sleep(interval)
		// Final step lands exactly on the target.
		s.writeGlideStep(bg, c, startPrice, round2(targetPrice))

		s.fluctuateAround(bg, c, targetPrice)
		log.Printf("[OK] Directed glide for %s complete at %.2f", symbolCode, targetPrice)
	}()

	return nil
}

// fluctuateAround jitters the price around the glide target for the settle
// phase, refreshing the freshness timestamp so the ambient tick stays out.
func (s *PriceSimulatorService) fluctuateAround(ctx context.Context, c *domain.Currency, targetPrice float64) {
	if s.settleDuration <= 0 {
		return
	}

	deadline := time.Now().Add(s.settleDuration)
	for time.Now().Before(deadline) {
		time.Sleep(time.Second)
		jitter := targetPrice * s.randSigned() * (s.maxChangePercent / 100.0)
		s.writeGlideStep(ctx, c, targetPrice, round2(targetPrice+jitter))
	}
}

func (s *PriceSimulatorService) writeGlideStep(ctx context.Context, c *domain.Currency, referencePrice, newPrice float64) {
	lock := s.symbolLock(c.SymbolCode)
	lock.Lock()
	defer lock.Unlock()

	updated := &domain.Currency{
		SymbolCode:    c.SymbolCode,
		DisplayName:   c.DisplayName,
		Icon:          c.Icon,
		Price:         newPrice,
		ChangePercent: round2((newPrice - referencePrice) / referencePrice * 100.0),
		RangeLow:      round2(math.Min(referencePrice, newPrice)),
		RangeHigh:     round2(math.Max(referencePrice, newPrice)),
	}

	if err := s.currencyRepo.UpdateQuote(ctx, updated, true); err != nil {
		log.Printf("ERROR: Glide step for %s failed: %v", c.SymbolCode, err)
		return
	}
	s.cacheQuote(ctx, updated)
}

// CurrentPrice returns the latest stored price for a symbol, preferring the
// cache over Postgres.
func (s *PriceSimulatorService) CurrentPrice(ctx context.Context, symbolCode string) (float64, error) {
	if b, ok, err := s.store.Get(ctx, priceCacheKey(symbolCode)); err == nil && ok {
		var cached domain.Currency
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached.Price, nil
		}
	}

	c, err := s.currencyRepo.GetBySymbol(ctx, symbolCode)
	if err != nil {
		return 0, err
	}
	s.cacheQuote(ctx, c)
	return c.Price, nil
}

func (s *PriceSimulatorService) cacheQuote(ctx context.Context, c *domain.Currency) {
	b, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, priceCacheKey(c.SymbolCode), b, priceCacheTTL); err != nil {
		log.Printf("WARNING: Failed to cache quote for %s: %v", c.SymbolCode, err)
	}
}

func (s *PriceSimulatorService) symbolLock(symbolCode string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[symbolCode]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[symbolCode] = lock
	}
	return lock
}

// randSigned returns a uniform value in [-1, 1).
func (s *PriceSimulatorService) randSigned() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()*2 - 1
}

func priceCacheKey(symbolCode string) string {
	return "quote:" + symbolCode
}

func validSymbolCode(code string) bool {
	return code != "" && strings.TrimSpace(code) == code
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
