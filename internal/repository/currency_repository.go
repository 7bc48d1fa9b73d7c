package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulsetrade/internal/domain"
)

// CurrencyRepositoryImpl implements the CurrencyRepository interface
type CurrencyRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewCurrencyRepository creates a new CurrencyRepository
func NewCurrencyRepository(db *pgxpool.Pool) domain.CurrencyRepository {
	return &CurrencyRepositoryImpl{db: db}
}

const currencyColumns = `symbol_code, display_name, icon, price, change_percent,
       range_low, range_high, manual_update_at`

func scanCurrency(row pgx.Row) (*domain.Currency, error) {
	c := &domain.Currency{}
	err := row.Scan(
		&c.SymbolCode,
		&c.DisplayName,
		&c.Icon,
		&c.Price,
		&c.ChangePercent,
		&c.RangeLow,
		&c.RangeHigh,
		&c.ManualUpdateAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new currency
func (r *CurrencyRepositoryImpl) Create(ctx context.Context, c *domain.Currency) error {
	query := `
		INSERT INTO currencies (
			symbol_code, display_name, icon, price, change_percent,
			range_low, range_high, manual_update_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := r.db.Exec(ctx, query,
		c.SymbolCode,
		c.DisplayName,
		c.Icon,
		c.Price,
		c.ChangePercent,
		c.RangeLow,
		c.RangeHigh,
		c.ManualUpdateAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create currency: %w", err)
	}

	return nil
}

// GetBySymbol retrieves a currency by its symbol code
func (r *CurrencyRepositoryImpl) GetBySymbol(ctx context.Context, symbolCode string) (*domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE symbol_code = $1`

	c, err := scanCurrency(r.db.QueryRow(ctx, query, symbolCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get currency by symbol: %w", err)
	}

	return c, nil
}

// GetAll retrieves all currencies
func (r *CurrencyRepositoryImpl) GetAll(ctx context.Context) ([]*domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies ORDER BY symbol_code ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	var currencies []*domain.Currency
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		currencies = append(currencies, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currencies: %w", err)
	}

	return currencies, nil
}

// UpdateQuote persists a new quote. markManual stamps the freshness
// timestamp so the ambient tick leaves the symbol alone; glide steps call
// this at every step to hold the window open.
func (r *CurrencyRepositoryImpl) UpdateQuote(ctx context.Context, c *domain.Currency, markManual bool) error {
	var query string
	if markManual {
		query = `
			UPDATE currencies
			SET price = $2, change_percent = $3, range_low = $4, range_high = $5,
			    manual_update_at = NOW()
			WHERE symbol_code = $1
		`
	} else {
		query = `
			UPDATE currencies
			SET price = $2, change_percent = $3, range_low = $4, range_high = $5,
			    manual_update_at = NULL
			WHERE symbol_code = $1
		`
	}

	tag, err := r.db.Exec(ctx, query, c.SymbolCode, c.Price, c.ChangePercent, c.RangeLow, c.RangeHigh)
	if err != nil {
		return fmt.Errorf("failed to update quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// UpdateQuoteIfStale persists a new quote only when no manual update landed
// within the window. The condition is part of the UPDATE itself, so a glide
// stamping the timestamp concurrently simply wins and the tick write is
// dropped.
func (r *CurrencyRepositoryImpl) UpdateQuoteIfStale(ctx context.Context, c *domain.Currency, window time.Duration) (bool, error) {
	query := `
		UPDATE currencies
		SET price = $2, change_percent = $3, range_low = $4, range_high = $5,
		    manual_update_at = NULL
		WHERE symbol_code = $1
		  AND (manual_update_at IS NULL OR manual_update_at < NOW() - $6::interval)
	`

	interval := fmt.Sprintf("%f seconds", window.Seconds())
	tag, err := r.db.Exec(ctx, query, c.SymbolCode, c.Price, c.ChangePercent, c.RangeLow, c.RangeHigh, interval)
	if err != nil {
		return false, fmt.Errorf("failed to update quote: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
