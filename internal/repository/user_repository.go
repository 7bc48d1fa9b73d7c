package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsetrade/internal/domain"
)

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

const userColumns = `id, email, password_hash, balance, reputation_points,
       vip_level, country, referred_by, is_gonna_win, is_balance_frozen, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Balance,
		&user.ReputationPoints,
		&user.VIPLevel,
		&user.Country,
		&user.ReferredBy,
		&user.IsGonnaWin,
		&user.IsBalanceFrozen,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create creates a new user
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, balance, reputation_points,
			vip_level, country, referred_by, is_gonna_win, is_balance_frozen, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Balance,
		user.ReputationPoints,
		user.VIPLevel,
		user.Country,
		user.ReferredBy,
		user.IsGonnaWin,
		user.IsBalanceFrozen,
		user.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetAll retrieves all users
func (r *UserRepositoryImpl) GetAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`
	return r.queryUsers(ctx, query)
}

// GetByReferrer retrieves users invited by a specific sub-admin
func (r *UserRepositoryImpl) GetByReferrer(ctx context.Context, adminID uuid.UUID) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE referred_by = $1 ORDER BY created_at ASC`
	return r.queryUsers(ctx, query, adminID)
}

func (r *UserRepositoryImpl) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// CreditBalance atomically adds amount to the user's balance
func (r *UserRepositoryImpl) CreditBalance(ctx context.Context, userID uuid.UUID, amount float64) (float64, error) {
	query := `
		UPDATE users
		SET balance = balance + $2
		WHERE id = $1
		RETURNING balance
	`

	var balance float64
	err := r.db.QueryRow(ctx, query, userID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to credit balance: %w", err)
	}

	return balance, nil
}

// DebitBalance atomically subtracts amount from the user's balance. The
// single conditional UPDATE is the whole check-and-debit, so concurrent
// debits cannot overdraw.
func (r *UserRepositoryImpl) DebitBalance(ctx context.Context, userID uuid.UUID, amount float64) (float64, error) {
	query := `
		UPDATE users
		SET balance = balance - $2
		WHERE id = $1 AND NOT is_balance_frozen AND balance >= $2
		RETURNING balance
	`

	var balance float64
	err := r.db.QueryRow(ctx, query, userID, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to debit balance: %w", err)
	}

	// The guard rejected the debit; classify why.
	user, getErr := r.GetByID(ctx, userID)
	if getErr != nil {
		return 0, getErr
	}
	if user.IsBalanceFrozen {
		return 0, domain.ErrBalanceFrozen
	}
	return 0, domain.ErrInsufficientBalance
}

// SetBalanceFrozen toggles the gate on placing new orders
func (r *UserRepositoryImpl) SetBalanceFrozen(ctx context.Context, userID uuid.UUID, frozen bool) error {
	query := `UPDATE users SET is_balance_frozen = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, userID, frozen)
	if err != nil {
		return fmt.Errorf("failed to update balance frozen status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// SetPredisposition sets the outcome bias flag consumed at settlement
func (r *UserRepositoryImpl) SetPredisposition(ctx context.Context, userID uuid.UUID, isGonnaWin bool) error {
	query := `UPDATE users SET is_gonna_win = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, userID, isGonnaWin)
	if err != nil {
		return fmt.Errorf("failed to update predisposition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}
