package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Settlement carries the resolution of a single order. The repository
// applies it in one transaction: the conditional open->closeout update and
// the balance credit either both land or neither does.
type Settlement struct {
	OrderID       uuid.UUID
	UserID        uuid.UUID
	CloseOutPrice float64
	IsWin         bool
	Profit        float64
	Credit        float64 // investment + profit on a win, zero on a loss
}

// UserRepository defines the interface for user data operations.
// Balance mutations are atomic increments at the storage layer, never
// read-modify-write.
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetAll retrieves all users
	GetAll(ctx context.Context) ([]*User, error)

	// GetByReferrer retrieves users invited by a specific sub-admin
	GetByReferrer(ctx context.Context, adminID uuid.UUID) ([]*User, error)

	// CreditBalance atomically adds amount to the user's balance and
	// returns the new balance
	CreditBalance(ctx context.Context, userID uuid.UUID, amount float64) (float64, error)

	// DebitBalance atomically subtracts amount from the user's balance.
	// Fails with ErrBalanceFrozen or ErrInsufficientBalance without
	// mutating anything.
	DebitBalance(ctx context.Context, userID uuid.UUID, amount float64) (float64, error)

	// SetBalanceFrozen toggles the gate on placing new orders
	SetBalanceFrozen(ctx context.Context, userID uuid.UUID, frozen bool) error

	// SetPredisposition sets the flag consumed at settlement to bias the
	// outcome
	SetPredisposition(ctx context.Context, userID uuid.UUID, isGonnaWin bool) error
}

// AdminRepository defines the interface for admin account operations
type AdminRepository interface {
	Create(ctx context.Context, admin *Admin) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	GetByInvitationCode(ctx context.Context, code string) (*Admin, error)
	GetSubAdmins(ctx context.Context) ([]*Admin, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// HasSuperAdmin reports whether a superadmin account already exists;
	// only one may be created.
	HasSuperAdmin(ctx context.Context) (bool, error)
}

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	// CreateWithDebit inserts the order and debits the investment from the
	// owner's balance in one transaction. Returns the remaining balance.
	// Fails with ErrUserNotFound, ErrBalanceFrozen or
	// ErrInsufficientBalance without mutating anything.
	CreateWithDebit(ctx context.Context, order *Order) (float64, error)

	// GetByID retrieves an order by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// GetByUserID retrieves all orders for a user, newest first
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*Order, error)

	// GetAll retrieves all orders
	GetAll(ctx context.Context) ([]*Order, error)

	// GetByReferrer retrieves orders placed by users a sub-admin invited
	GetByReferrer(ctx context.Context, adminID uuid.UUID) ([]*Order, error)

	// GetOpen retrieves all open orders, oldest first
	GetOpen(ctx context.Context) ([]*Order, error)

	// GetOpenDueBefore retrieves open orders whose fire time has passed
	GetOpenDueBefore(ctx context.Context, t time.Time) ([]*Order, error)

	// ApplySettlement transitions the order open->closeout and credits the
	// owner atomically. Fails with ErrAlreadySettled if the order is not
	// open, making duplicate settlement fires safe.
	ApplySettlement(ctx context.Context, s Settlement) error
}

// CurrencyRepository defines the interface for synthetic quote operations
type CurrencyRepository interface {
	// Create inserts a new currency (seeding)
	Create(ctx context.Context, c *Currency) error

	// GetBySymbol retrieves a currency by its symbol code
	GetBySymbol(ctx context.Context, symbolCode string) (*Currency, error)

	// GetAll retrieves all currencies
	GetAll(ctx context.Context) ([]*Currency, error)

	// UpdateQuote persists a new quote. When markManual is true the
	// freshness timestamp is set to now, suppressing the ambient tick for
	// the freshness window; otherwise the timestamp is cleared.
	UpdateQuote(ctx context.Context, c *Currency, markManual bool) error

	// UpdateQuoteIfStale persists a new quote only if the symbol has had no
	// manual update within the window. Returns false if the guard rejected
	// the write. This is the storage-level check that keeps the ambient
	// tick from racing a directed glide.
	UpdateQuoteIfStale(ctx context.Context, c *Currency, window time.Duration) (bool, error)
}

// WithdrawalRepository defines the interface for withdrawal review bookkeeping
type WithdrawalRepository interface {
	Save(ctx context.Context, req *WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*WithdrawalRequest, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*WithdrawalRequest, error)
	GetAll(ctx context.Context) ([]*WithdrawalRequest, error)
	GetByReferrer(ctx context.Context, adminID uuid.UUID) ([]*WithdrawalRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
