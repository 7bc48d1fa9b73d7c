package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order represents a timed bet on price direction
type Order struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Symbol           string    `json:"symbol"`
	Direction        string    `json:"direction"`
	Investment       float64   `json:"investment"`
	Duration         string    `json:"duration"` // e.g. "30s"; kept as the client sent it
	ProfitPercentage float64   `json:"profit_percentage"`
	OrderPrice       float64   `json:"order_price"` // Entry price quoted to the client at bet time
	Status           string    `json:"status"`
	CloseOutPrice    *float64  `json:"close_out_price,omitempty"`
	Profit           float64   `json:"profit"`
	IsWin            bool      `json:"is_win"`
	IsLoss           bool      `json:"is_loss"`
	CreatedAt        time.Time `json:"created_at"`
	SettleAt         time.Time `json:"settle_at"`
}

// Direction constants
const (
	DirectionBuyUp   = "Buy Up"
	DirectionBuyDown = "Buy Down"
)

// OrderStatus constants. An order transitions exactly once, open -> closeout.
const (
	StatusOpen     = "open"
	StatusCloseout = "closeout"
)

// ValidDirection reports whether d is one of the two accepted directions.
func ValidDirection(d string) bool {
	return d == DirectionBuyUp || d == DirectionBuyDown
}

// IsWinningCloseout determines the outcome of an order given its closeout
// price: a Buy Up order wins iff the price rose above entry, a Buy Down
// order wins iff it fell below.
func (o *Order) IsWinningCloseout(closeOutPrice float64) bool {
	if o.Direction == DirectionBuyUp {
		return closeOutPrice > o.OrderPrice
	}
	return closeOutPrice < o.OrderPrice
}

// ProfitAmount returns the profit credited on a win.
func (o *Order) ProfitAmount() float64 {
	return (o.ProfitPercentage / 100.0) * o.Investment
}

// ParseDurationSpec converts a duration spec like "30s" or "2m" into a
// time.Duration. A bare integer is treated as milliseconds, matching how
// legacy clients sent durations.
func ParseDurationSpec(spec string) (time.Duration, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, ErrInvalidInput
	}

	if ms, err := strconv.Atoi(spec); err == nil {
		if ms <= 0 {
			return 0, ErrInvalidInput
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	d, err := time.ParseDuration(spec)
	if err != nil || d <= 0 {
		return 0, ErrInvalidInput
	}
	return d, nil
}
