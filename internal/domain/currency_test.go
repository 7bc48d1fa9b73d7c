package domain

import (
	"testing"
	"time"
)

func TestCurrencyIsFresh(t *testing.T) {
	now := time.Now()

	c := &Currency{SymbolCode: "BTC"}
	if c.IsFresh(now) {
		t.Error("currency with no manual update should never be fresh")
	}

	recent := now.Add(-5 * time.Second)
	c.ManualUpdateAt = &recent
	if !c.IsFresh(now) {
		t.Error("currency updated 5s ago should be fresh")
	}

	stale := now.Add(-FreshnessWindow - time.Second)
	c.ManualUpdateAt = &stale
	if c.IsFresh(now) {
		t.Error("currency updated outside the freshness window should be stale")
	}
}
