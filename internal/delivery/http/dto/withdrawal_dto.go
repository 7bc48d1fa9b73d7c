package dto

// CreateWithdrawalRequest represents a user's withdrawal request payload
type CreateWithdrawalRequest struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"` // INR, PKR or RUB
	BankName      string  `json:"bank_name"`
	AccountNumber string  `json:"account_number"`
	BranchCode    string  `json:"branch_code"`
}

// ReviewWithdrawalRequest represents an admin review decision
type ReviewWithdrawalRequest struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"` // Approved or Rejected
}
