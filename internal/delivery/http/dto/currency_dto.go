package dto

// ManualPriceUpdateRequest starts a directed glide toward a target price
type ManualPriceUpdateRequest struct {
	TargetPrice float64 `json:"target_price"`
}
