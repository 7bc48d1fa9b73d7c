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

// WithdrawalRepositoryImpl implements the WithdrawalRepository interface
type WithdrawalRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewWithdrawalRepository creates a new WithdrawalRepository
func NewWithdrawalRepository(db *pgxpool.Pool) domain.WithdrawalRepository {
	return &WithdrawalRepositoryImpl{db: db}
}

const withdrawalColumns = `id, user_id, amount, currency, bank_name,
       account_number, branch_code, status, requested_at`

func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	req := &domain.WithdrawalRequest{}
	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.Amount,
		&req.Currency,
		&req.BankName,
		&req.AccountNumber,
		&req.BranchCode,
		&req.Status,
		&req.RequestedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Save creates a new withdrawal request
func (r *WithdrawalRepositoryImpl) Save(ctx context.Context, req *domain.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (
			id, user_id, amount, currency, bank_name,
			account_number, branch_code, status, requested_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.db.Exec(ctx, query,
		req.ID,
		req.UserID,
		req.Amount,
		req.Currency,
		req.BankName,
		req.AccountNumber,
		req.BranchCode,
		req.Status,
		req.RequestedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save withdrawal request: %w", err)
	}

	return nil
}

// GetByID retrieves a withdrawal request by ID
func (r *WithdrawalRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`

	req, err := scanWithdrawal(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal request: %w", err)
	}

	return req, nil
}

// GetByUserID retrieves withdrawal requests for a user, newest first
func (r *WithdrawalRepositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE user_id = $1 ORDER BY requested_at DESC`
	return r.queryWithdrawals(ctx, query, userID)
}

// GetAll retrieves all withdrawal requests, newest first
func (r *WithdrawalRepositoryImpl) GetAll(ctx context.Context) ([]*domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests ORDER BY requested_at DESC`
	return r.queryWithdrawals(ctx, query)
}

// GetByReferrer retrieves withdrawal requests of users a sub-admin invited
func (r *WithdrawalRepositoryImpl) GetByReferrer(ctx context.Context, adminID uuid.UUID) ([]*domain.WithdrawalRequest, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE user_id IN (SELECT id FROM users WHERE referred_by = $1)
		ORDER BY requested_at DESC
	`
	return r.queryWithdrawals(ctx, query, adminID)
}

func (r *WithdrawalRepositoryImpl) queryWithdrawals(ctx context.Context, query string, args ...interface{}) ([]*domain.WithdrawalRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawal requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.WithdrawalRequest
	for rows.Next() {
		req, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawal requests: %w", err)
	}

	return requests, nil
}

// UpdateStatus updates the review status of a withdrawal request
func (r *WithdrawalRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE withdrawal_requests SET status = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update withdrawal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
