package domain

import "testing"

// The bias must be decisive: whatever the ambient price is, a favorable
// bias produces a winning closeout and an unfavorable one a losing closeout.
func TestPercentBiasDecidesOutcome(t *testing.T) {
	bias := PercentBias{Percent: 2.0}

	for _, direction := range []string{DirectionBuyUp, DirectionBuyDown} {
		for _, basePrice := range []float64{0.12, 85, 2600, 50000} {
			order := &Order{Direction: direction, OrderPrice: basePrice}

			win := bias.Closeout(basePrice, direction, true)
			if !order.IsWinningCloseout(win) {
				t.Errorf("%s at %.2f: favorable closeout %.4f should win", direction, basePrice, win)
			}

			lose := bias.Closeout(basePrice, direction, false)
			if order.IsWinningCloseout(lose) {
				t.Errorf("%s at %.2f: unfavorable closeout %.4f should lose", direction, basePrice, lose)
			}
		}
	}
}

func TestPercentBiasMagnitude(t *testing.T) {
	bias := PercentBias{Percent: 2.0}

	got := bias.Closeout(100, DirectionBuyUp, true)
	if got != 102 {
		t.Errorf("favorable Buy Up closeout = %v, want 102", got)
	}

	got = bias.Closeout(100, DirectionBuyUp, false)
	if got != 98 {
		t.Errorf("unfavorable Buy Up closeout = %v, want 98", got)
	}

	got = bias.Closeout(100, DirectionBuyDown, true)
	if got != 98 {
		t.Errorf("favorable Buy Down closeout = %v, want 98", got)
	}

	got = bias.Closeout(100, DirectionBuyDown, false)
	if got != 102 {
		t.Errorf("unfavorable Buy Down closeout = %v, want 102", got)
	}
}
