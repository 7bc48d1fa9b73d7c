package dto

// UserOutput represents user details in API responses
type UserOutput struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	Balance          float64 `json:"balance"`
	ReputationPoints int     `json:"reputation_points"`
	VIPLevel         string  `json:"vip_level"`
	Country          string  `json:"country"`
	IsGonnaWin       bool    `json:"is_gonna_win"`
	IsBalanceFrozen  bool    `json:"is_balance_frozen"`
}

// BalanceAdjustRequest represents an admin balance adjustment
type BalanceAdjustRequest struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

// FreezeBalanceRequest toggles the order-placement gate for a user
type FreezeBalanceRequest struct {
	UserID   string `json:"user_id"`
	IsFrozen bool   `json:"is_frozen"`
}

// PredispositionRequest sets the outcome bias flag for a user
type PredispositionRequest struct {
	UserID     string `json:"user_id"`
	IsGonnaWin bool   `json:"is_gonna_win"`
}
