package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsetrade/internal/domain"
)

// OrderRepositoryImpl implements the OrderRepository interface
type OrderRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *pgxpool.Pool) domain.OrderRepository {
	return &OrderRepositoryImpl{db: db}
}

const orderColumns = `id, user_id, symbol, direction, investment, duration,
       profit_percentage, order_price, status, close_out_price, profit,
       is_win, is_loss, created_at, settle_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Symbol,
		&order.Direction,
		&order.Investment,
		&order.Duration,
		&order.ProfitPercentage,
		&order.OrderPrice,
		&order.Status,
		&order.CloseOutPrice,
		&order.Profit,
		&order.IsWin,
		&order.IsLoss,
		&order.CreatedAt,
		&order.SettleAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CreateWithDebit inserts the order and debits the investment in one
// transaction, so a failed insert never leaves a dangling debit.
func (r *OrderRepositoryImpl) CreateWithDebit(ctx context.Context, order *domain.Order) (float64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	debit := `
		UPDATE users
		SET balance = balance - $2
		WHERE id = $1 AND NOT is_balance_frozen AND balance >= $2
		RETURNING balance
	`

	var balance float64
	err = tx.QueryRow(ctx, debit, order.UserID, order.Investment).Scan(&balance)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("failed to debit investment: %w", err)
		}
		// Classify the rejection outside the transaction scope.
		var frozen bool
		lookupErr := r.db.QueryRow(ctx, `SELECT is_balance_frozen FROM users WHERE id = $1`, order.UserID).Scan(&frozen)
		if errors.Is(lookupErr, pgx.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		if lookupErr != nil {
			return 0, fmt.Errorf("failed to look up user: %w", lookupErr)
		}
		if frozen {
			return 0, domain.ErrBalanceFrozen
		}
		return 0, domain.ErrInsufficientBalance
	}

	insert := `
		INSERT INTO orders (
			id, user_id, symbol, direction, investment, duration,
			profit_percentage, order_price, status, created_at, settle_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err = tx.Exec(ctx, insert,
		order.ID,
		order.UserID,
		order.Symbol,
		order.Direction,
		order.Investment,
		order.Duration,
		order.ProfitPercentage,
		order.OrderPrice,
		order.Status,
		order.CreatedAt,
		order.SettleAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit order creation: %w", err)
	}

	return balance, nil
}

// GetByID retrieves an order by ID
func (r *OrderRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID: %w", err)
	}

	return order, nil
}

// GetByUserID retrieves all orders for a user, newest first
func (r *OrderRepositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, userID)
}

// GetAll retrieves all orders
func (r *OrderRepositoryImpl) GetAll(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.queryOrders(ctx, query)
}

// GetByReferrer retrieves orders placed by users a sub-admin invited
func (r *OrderRepositoryImpl) GetByReferrer(ctx context.Context, adminID uuid.UUID) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id IN (SELECT id FROM users WHERE referred_by = $1)
		ORDER BY created_at DESC
	`
	return r.queryOrders(ctx, query, adminID)
}

// GetOpen retrieves all open orders, oldest first
func (r *OrderRepositoryImpl) GetOpen(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = 'open' ORDER BY settle_at ASC`
	return r.queryOrders(ctx, query)
}

// GetOpenDueBefore retrieves open orders whose fire time has passed
func (r *OrderRepositoryImpl) GetOpenDueBefore(ctx context.Context, t time.Time) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = 'open' AND settle_at <= $1 ORDER BY settle_at ASC`
	return r.queryOrders(ctx, query, t)
}

func (r *OrderRepositoryImpl) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// ApplySettlement transitions the order open->closeout and credits the
// owner atomically. The status guard on the UPDATE makes a duplicate fire
// a no-op instead of a double credit.
func (r *OrderRepositoryImpl) ApplySettlement(ctx context.Context, s domain.Settlement) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	closeout := `
		UPDATE orders
		SET status = 'closeout', close_out_price = $2, profit = $3, is_win = $4, is_loss = $5
		WHERE id = $1 AND status = 'open'
	`

	tag, err := tx.Exec(ctx, closeout, s.OrderID, s.CloseOutPrice, s.Profit, s.IsWin, !s.IsWin)
	if err != nil {
		return fmt.Errorf("failed to close out order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadySettled
	}

	if s.Credit > 0 {
		credit := `UPDATE users SET balance = balance + $2 WHERE id = $1`
		tag, err = tx.Exec(ctx, credit, s.UserID, s.Credit)
		if err != nil {
			return fmt.Errorf("failed to credit winnings: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}

	return nil
}
