package reservation

import (
	"time"

	"github.com/shopspring/decimal"
)

type FeeTier string

const (
	// FeeTierForfeit keeps the whole reservation fee.
	FeeTierForfeit     FeeTier = "FULL_FEE"
	FeeTierWithinWeek  FeeTier = "WITHIN_7_DAYS"
	FeeTierWithinMonth FeeTier = "WITHIN_30_DAYS"
	FeeTierFree        FeeTier = "FREE"
)

const (
	forfeitWindow = 48 * time.Hour
	weekWindow    = 7 * 24 * time.Hour
	monthWindow   = 30 * 24 * time.Hour
)

var (
	weekFee  = decimal.RequireFromString("50.00")
	monthFee = decimal.RequireFromString("10.00")
)

type Fee struct {
	Tier   FeeTier         `json:"tier"`
	Amount decimal.Decimal `json:"amount"`
	// Until is how far ahead of the event the request was made.
	Until time.Duration `json:"-"`
}

// FeeFor prices a cancellation or modification made at now for an event
// starting at eventStart. Each tier includes its lower bound: exactly 48h
// out is already the 50.00 tier.
func FeeFor(totalFee decimal.Decimal, eventStart, now time.Time) Fee {
	until := eventStart.Sub(now)
	switch {
	case until < forfeitWindow:
		return Fee{Tier: FeeTierForfeit, Amount: totalFee.Round(2), Until: until}
	case until < weekWindow:
		return Fee{Tier: FeeTierWithinWeek, Amount: weekFee, Until: until}
	case until < monthWindow:
		return Fee{Tier: FeeTierWithinMonth, Amount: monthFee, Until: until}
	default:
		return Fee{Tier: FeeTierFree, Amount: decimal.Zero, Until: until}
	}
}
