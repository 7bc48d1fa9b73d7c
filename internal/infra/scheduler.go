package infra

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"pulsetrade/internal/domain"
)

// Settler resolves a single order by ID
type Settler interface {
	Settle(ctx context.Context, orderID uuid.UUID) error
}

// OrderScheduler arms a deferred settlement per order, decoupled from the
// request that created it. Fire times are persisted on the order row, so a
// restart re-arms everything from a scan of open orders; a periodic sweep
// catches anything a lost timer left behind. Settlement idempotence makes a
// duplicate fire harmless.
type OrderScheduler struct {
	orderRepo domain.OrderRepository
	settler   Settler
	cron      *cron.Cron

	settleTimeout time.Duration

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
}

// NewOrderScheduler creates a new OrderScheduler
func NewOrderScheduler(orderRepo domain.OrderRepository, settler Settler) *OrderScheduler {
	return &OrderScheduler{
		orderRepo:     orderRepo,
		settler:       settler,
		cron:          cron.New(cron.WithSeconds()),
		settleTimeout: 30 * time.Second,
		timers:        make(map[uuid.UUID]*time.Timer),
	}
}

// Start recovers pending settlements and begins the overdue sweep
func (s *OrderScheduler) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	open, err := s.orderRepo.GetOpen(ctx)
	if err != nil {
		return err
	}
	for _, order := range open {
		s.Arm(order.ID, order.SettleAt)
	}
	if len(open) > 0 {
		log.Printf("[OK] Re-armed %d pending settlement(s) from open orders", len(open))
	}

	_, err = s.cron.AddFunc("@every 30s", func() {
		s.sweepOverdue()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Println("[OK] Order scheduler started")
	return nil
}

// Stop stops the sweep and releases armed timers
func (s *OrderScheduler) Stop() {
	s.cron.Stop()

	s.mu.Lock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	log.Println("[OK] Order scheduler stopped")
}

// Arm schedules settlement of an order at its fire time. An overdue fire
// time fires immediately. There is no cancellation: once armed, the order
// runs to settlement.
func (s *OrderScheduler) Arm(orderID uuid.UUID, settleAt time.Time) {
	delay := time.Until(settleAt)
	if delay < 0 {
		delay = 0
	}

	timer := time.AfterFunc(delay, func() {
		s.fire(orderID)
	})

	s.mu.Lock()
	s.timers[orderID] = timer
	s.mu.Unlock()
}

func (s *OrderScheduler) fire(orderID uuid.UUID) {
	s.mu.Lock()
	delete(s.timers, orderID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.settleTimeout)
	defer cancel()

	if err := s.settler.Settle(ctx, orderID); err != nil {
		log.Printf("ERROR: Scheduled settlement for order %s failed: %v", orderID, err)
	}
}

// sweepOverdue settles open orders whose fire time has passed. This is the
// safety net for timers lost to a crash between recovery scans.
func (s *OrderScheduler) sweepOverdue() {
	ctx, cancel := context.WithTimeout(context.Background(), s.settleTimeout)
	defer cancel()

	overdue, err := s.orderRepo.GetOpenDueBefore(ctx, time.Now())
	if err != nil {
		log.Printf("ERROR: Overdue settlement sweep failed: %v", err)
		return
	}

	for _, order := range overdue {
		// Skip orders that still have a live timer about to fire.
		s.mu.Lock()
		_, armed := s.timers[order.ID]
		s.mu.Unlock()
		if armed {
			continue
		}

		log.Printf("Sweep settling overdue order %s (due %s)", order.ID, order.SettleAt.Format(time.RFC3339))
		if err := s.settler.Settle(ctx, order.ID); err != nil {
			log.Printf("ERROR: Sweep settlement for order %s failed: %v", order.ID, err)
		}
	}
}
