package domain

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawalRequest represents a user's request to withdraw funds,
// reviewed by an admin before any balance moves.
type WithdrawalRequest struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	BranchCode    string    `json:"branch_code"`
	Status        string    `json:"status"`
	RequestedAt   time.Time `json:"requested_at"`
}

// Withdrawal status constants
const (
	WithdrawalPending  = "Pending"
	WithdrawalApproved = "Approved"
	WithdrawalRejected = "Rejected"
)

// SupportedWithdrawalCurrency reports whether the fiat currency is accepted
// for withdrawal requests.
func SupportedWithdrawalCurrency(code string) bool {
	switch code {
	case "INR", "PKR", "RUB":
		return true
	}
	return false
}
