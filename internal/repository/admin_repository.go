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

// AdminRepositoryImpl implements the AdminRepository interface
type AdminRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository
func NewAdminRepository(db *pgxpool.Pool) domain.AdminRepository {
	return &AdminRepositoryImpl{db: db}
}

const adminColumns = `id, name, email, password_hash, role, COALESCE(invitation_code, ''), created_by, created_at`

func scanAdmin(row pgx.Row) (*domain.Admin, error) {
	admin := &domain.Admin{}
	err := row.Scan(
		&admin.ID,
		&admin.Name,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Role,
		&admin.InvitationCode,
		&admin.CreatedBy,
		&admin.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// Create creates a new admin
func (r *AdminRepositoryImpl) Create(ctx context.Context, admin *domain.Admin) error {
	query := `
		INSERT INTO admins (
			id, name, email, password_hash, role, invitation_code, created_by, created_at
		) VALUES (
			$1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8
		)
	`

	_, err := r.db.Exec(ctx, query,
		admin.ID,
		admin.Name,
		admin.Email,
		admin.PasswordHash,
		admin.Role,
		admin.InvitationCode,
		admin.CreatedBy,
		admin.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	return nil
}

// GetByID retrieves an admin by ID
func (r *AdminRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves an admin by email
func (r *AdminRepositoryImpl) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE email = $1`
	return r.getOne(ctx, query, email)
}

// GetByInvitationCode retrieves the admin that issued an invitation code
func (r *AdminRepositoryImpl) GetByInvitationCode(ctx context.Context, code string) (*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE invitation_code = $1`
	return r.getOne(ctx, query, code)
}

func (r *AdminRepositoryImpl) getOne(ctx context.Context, query string, arg interface{}) (*domain.Admin, error) {
	admin, err := scanAdmin(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return admin, nil
}

// GetSubAdmins retrieves all sub-admin accounts
func (r *AdminRepositoryImpl) GetSubAdmins(ctx context.Context) ([]*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE role = 'subadmin' ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sub-admins: %w", err)
	}
	defer rows.Close()

	var admins []*domain.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, admin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admins: %w", err)
	}

	return admins, nil
}

// Delete removes a sub-admin account
func (r *AdminRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM admins WHERE id = $1 AND role = 'subadmin'`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// HasSuperAdmin reports whether a superadmin account already exists
func (r *AdminRepositoryImpl) HasSuperAdmin(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM admins WHERE role = 'superadmin')`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for superadmin: %w", err)
	}
	return exists, nil
}
