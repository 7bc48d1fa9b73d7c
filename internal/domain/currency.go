package domain

import "time"

// Currency represents a tradeable symbol with its synthetic quote.
// The price is fabricated by the simulator; there is no real market feed.
type Currency struct {
	SymbolCode     string     `json:"symbol_code"`
	DisplayName    string     `json:"display_name"`
	Icon           string     `json:"icon"`
	Price          float64    `json:"price"`
	ChangePercent  float64    `json:"change_percent"`
	RangeLow       float64    `json:"range_low"`
	RangeHigh      float64    `json:"range_high"`
	ManualUpdateAt *time.Time `json:"manual_update_at,omitempty"`
}

// FreshnessWindow is how long after a manual/directed update the ambient
// tick keeps its hands off a symbol. A glide refreshes the timestamp at
// every step, so the window covers the whole glide.
const FreshnessWindow = 20 * time.Second

// IsFresh reports whether the symbol had a manual or directed update
// within the freshness window of now.
func (c *Currency) IsFresh(now time.Time) bool {
	return c.ManualUpdateAt != nil && now.Sub(*c.ManualUpdateAt) <= FreshnessWindow
}
