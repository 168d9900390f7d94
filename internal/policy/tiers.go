package policy

import "time"

// Tier is one score band and the restrictions it carries. Limits at their
// zero value are inactive; the tier table is data so operators can tune the
// bands without touching the engine.
type Tier struct {
	Name     string
	MinScore int
	MaxScore int

	// rolling spend ceiling: verified outgoing within SpendWindow plus the
	// new amount must not exceed SpendCeiling
	SpendCeiling float64
	SpendWindow  time.Duration

	// high-value throttle: amounts above HighValueThreshold are rejected
	// once HighValueCap such transfers exist within SpendWindow
	HighValueThreshold float64
	HighValueCap       int

	// monthly throttle: outgoing transfers in the current calendar month
	// are capped at MonthlyTxnCap, each at most PerTxnMax
	MonthlyTxnCap int
	PerTxnMax     float64

	// Locked rejects every transfer and login
	Locked bool

	// Warning is surfaced to the account holder at login, empty for
	// unrestricted tiers
	Warning string
}

const trailingWindow = 90 * 24 * time.Hour

// DefaultTiers returns the standard five-band restriction table. Bands are
// ordered highest score first, inclusive on both ends, and cover 0-100
// without gaps or overlap.
func DefaultTiers() []Tier {
	return []Tier{
		{
			Name:     "trusted",
			MinScore: 90,
			MaxScore: 100,
		},
		{
			Name:         "normal",
			MinScore:     75,
			MaxScore:     89,
			SpendCeiling: 5000,
			SpendWindow:  trailingWindow,
			Warning:      "spending is limited over the trailing 90 days",
		},
		{
			Name:               "risky",
			MinScore:           50,
			MaxScore:           74,
			HighValueThreshold: 1000,
			HighValueCap:       3,
			SpendWindow:        trailingWindow,
			Warning:            "high-value transfers are limited on this account",
		},
		{
			Name:          "fraud_prone",
			MinScore:      30,
			MaxScore:      49,
			MonthlyTxnCap: 10,
			PerTxnMax:     100,
			Warning:       "transfers are heavily restricted on this account",
		},
		{
			Name:     "critical",
			MinScore: 0,
			MaxScore: 29,
			Locked:   true,
			Warning:  "account is locked pending identity verification",
		},
	}
}
