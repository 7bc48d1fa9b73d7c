package domain

// OutcomeBias computes the closeout price from the ambient base price at
// settlement time. The bias is deterministic: favorable moves the price in
// the direction that makes the order a win, unfavorable the inverse.
type OutcomeBias interface {
	Closeout(basePrice float64, direction string, favorable bool) float64
}

// PercentBias moves the base price by a fixed percentage. The default 2%
// move dominates the ambient tick noise, so the predetermined outcome always
// holds regardless of where the simulator left the price.
type PercentBias struct {
	Percent float64 // e.g. 2.0 for a 2% move
}

// Closeout applies the bias once, multiplicatively.
func (b PercentBias) Closeout(basePrice float64, direction string, favorable bool) float64 {
	up := direction == DirectionBuyUp
	if !favorable {
		up = !up
	}
	factor := 1.0 + b.Percent/100.0
	if !up {
		factor = 1.0 - b.Percent/100.0
	}
	return basePrice * factor
}
