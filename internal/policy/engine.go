package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/everleepham/bank-antiscam-app/pkg/common"
)

// Action is an account operation gated by the policy engine
type Action string

const (
	ActionLogin    Action = "login"
	ActionTransfer Action = "transfer"
)

// LedgerStats supplies the rolling-window aggregates the tiers restrict on.
// Every aggregate is recomputed from the durable ledger per decision; the
// engine holds no window state.
type LedgerStats interface {
	SumVerifiedOutgoingSince(ctx context.Context, accountID string, since time.Time) (float64, error)
	CountVerifiedOutgoingAboveSince(ctx context.Context, accountID string, amount float64, since time.Time) (int, error)
	CountOutgoingInMonth(ctx context.Context, accountID string, year int, month time.Month) (int, error)
}

// ScoreResolver yields the account's current trust score
type ScoreResolver interface {
	CurrentScore(ctx context.Context, accountID string) (int, error)
}

// Engine gates logins and transfers by the account's score band
type Engine struct {
	ledger LedgerStats
	scores ScoreResolver
	tiers  []Tier
	now    func() time.Time
}

// NewEngine creates a policy engine over the given tier table. A nil table
// uses DefaultTiers.
func NewEngine(ledger LedgerStats, scores ScoreResolver, tiers []Tier) *Engine {
	if tiers == nil {
		tiers = DefaultTiers()
	}
	return &Engine{ledger: ledger, scores: scores, tiers: tiers, now: time.Now}
}

// TierFor returns the tier whose band contains the score. Scores outside
// 0-100 clamp to the nearest band so an unclamped running score still maps.
func (e *Engine) TierFor(score int) (*Tier, error) {
	clamped := score
	if clamped < 0 {
		clamped = 0
	} else if clamped > 100 {
		clamped = 100
	}
	for i := range e.tiers {
		if clamped >= e.tiers[i].MinScore && clamped <= e.tiers[i].MaxScore {
			return &e.tiers[i], nil
		}
	}
	return nil, common.NewScoreBandUnmatched(score)
}

// DescribeScore maps a score to its tier name and the warning shown to the
// account holder, empty for unrestricted tiers.
func (e *Engine) DescribeScore(score int) (string, string, error) {
	tier, err := e.TierFor(score)
	if err != nil {
		return "", "", err
	}
	return tier.Name, tier.Warning, nil
}

// CheckLogin rejects the login when the account's tier is locked
func (e *Engine) CheckLogin(ctx context.Context, accountID string) error {
	_, err := e.check(ctx, accountID, ActionLogin, 0)
	return err
}

// CheckTransfer rejects the transfer when it would break the account's tier
// limits
func (e *Engine) CheckTransfer(ctx context.Context, accountID string, amount float64) error {
	_, err := e.check(ctx, accountID, ActionTransfer, amount)
	return err
}

// Check evaluates the intended action against the account's tier. A nil
// return is an acceptance; rejections carry the tier, the violated limit
// and the offending value. The check itself has no side effects.
func (e *Engine) Check(ctx context.Context, accountID string, action Action, amount float64) error {
	_, err := e.check(ctx, accountID, action, amount)
	return err
}

func (e *Engine) check(ctx context.Context, accountID string, action Action, amount float64) (*Tier, error) {
	score, err := e.scores.CurrentScore(ctx, accountID)
	if err != nil {
		return nil, err
	}
	tier, err := e.TierFor(score)
	if err != nil {
		return nil, err
	}

	if tier.Locked {
		return tier, common.NewPolicyViolation(tier.Name, "account_locked", nil, nil,
			"account is locked, contact support for identity verification")
	}
	if action != ActionTransfer {
		return tier, nil
	}

	if tier.SpendCeiling > 0 {
		since := e.now().Add(-tier.SpendWindow)
		spent, err := e.ledger.SumVerifiedOutgoingSince(ctx, accountID, since)
		if err != nil {
			return nil, err
		}
		if spent+amount > tier.SpendCeiling {
			return tier, common.NewPolicyViolation(tier.Name, "spend_ceiling", tier.SpendCeiling, spent+amount,
				fmt.Sprintf("transfer would bring trailing spend to %.2f, over the %.2f ceiling", spent+amount, tier.SpendCeiling))
		}
	}

	if tier.HighValueThreshold > 0 && amount > tier.HighValueThreshold {
		since := e.now().Add(-tier.SpendWindow)
		highValue, err := e.ledger.CountVerifiedOutgoingAboveSince(ctx, accountID, tier.HighValueThreshold, since)
		if err != nil {
			return nil, err
		}
		if highValue >= tier.HighValueCap {
			return tier, common.NewPolicyViolation(tier.Name, "high_value_count", tier.HighValueCap, highValue,
				fmt.Sprintf("account already made %d transfers above %.2f in the trailing window", highValue, tier.HighValueThreshold))
		}
	}

	if tier.MonthlyTxnCap > 0 {
		now := e.now().UTC()
		count, err := e.ledger.CountOutgoingInMonth(ctx, accountID, now.Year(), now.Month())
		if err != nil {
			return nil, err
		}
		if count >= tier.MonthlyTxnCap {
			return tier, common.NewPolicyViolation(tier.Name, "monthly_txn_count", tier.MonthlyTxnCap, count,
				fmt.Sprintf("account already made %d transfers this month", count))
		}
	}
	if tier.PerTxnMax > 0 && amount > tier.PerTxnMax {
		return tier, common.NewPolicyViolation(tier.Name, "per_txn_max", tier.PerTxnMax, amount,
			fmt.Sprintf("amount %.2f exceeds the %.2f per-transfer limit", amount, tier.PerTxnMax))
	}

	return tier, nil
}
