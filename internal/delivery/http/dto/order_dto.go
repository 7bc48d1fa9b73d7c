package dto

// PlaceOrderRequest represents the bet placement payload
type PlaceOrderRequest struct {
	Symbol           string  `json:"symbol"`
	Direction        string  `json:"direction"` // "Buy Up" or "Buy Down"
	Investment       float64 `json:"investment"`
	Duration         string  `json:"duration"` // e.g. "30s"
	ProfitPercentage float64 `json:"profit_percentage"`
	OrderPrice       float64 `json:"order_price"` // price quoted to the client
}

// PlaceOrderResponse returns the created order and the post-debit balance
type PlaceOrderResponse struct {
	Order            interface{} `json:"order"`
	RemainingBalance float64     `json:"remaining_balance"`
}
