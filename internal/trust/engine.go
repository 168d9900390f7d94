package trust

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/everleepham/bank-antiscam-app/pkg/logger"
	"github.com/everleepham/bank-antiscam-app/pkg/models"
)

// Result is the outcome of one rule evaluation pass
type Result struct {
	AccountID    string `json:"account_id"`
	Score        int    `json:"score"`
	Triggered    []Rule `json:"triggered"`
	NewlyApplied []Rule `json:"newly_applied"`
}

// Engine runs the fraud detectors against an account and keeps the trust
// score in sync across the cache and the durable record.
type Engine struct {
	accounts AccountStore
	ledger   Ledger
	devices  DeviceIndex
	graph    GraphIndex
	cycles   CycleFinder
	scores   ScoreStore
	deltas   map[Rule]int
	now      func() time.Time
}

// NewEngine wires the rule engine over its backing stores
func NewEngine(accounts AccountStore, ledger Ledger, devices DeviceIndex, graph GraphIndex, cycles CycleFinder, scores ScoreStore) *Engine {
	return &Engine{
		accounts: accounts,
		ledger:   ledger,
		devices:  devices,
		graph:    graph,
		cycles:   cycles,
		scores:   scores,
		deltas:   DefaultDeltas(),
		now:      time.Now,
	}
}

type detector struct {
	rule       Rule
	repeatable bool
	check      func(ctx context.Context, ev *evaluation) (bool, error)
}

type evaluation struct {
	account *models.Account
	txn     *models.Transaction
}

func (e *Engine) detectors() []detector {
	return []detector{
		{rule: RuleHighTxnAmount, repeatable: true, check: e.checkHighTxnAmount},
		{rule: RuleHighMonthlySpent, check: e.checkHighMonthlySpent},
		{rule: RuleNewAccount, check: e.checkNewAccount},
		{rule: RuleMultipleDevices, check: e.checkMultipleDevices},
		{rule: RuleSharedDeviceCount, check: e.checkSharedDeviceCount},
		{rule: RuleSuspiciousConnections, check: e.checkSuspiciousConnections},
		{rule: RuleCircularTransaction, check: e.checkCircularTransaction},
	}
}

// Evaluate runs every detector against the account, in a fixed order, and
// applies the deductions of the rules that fired. transactionID may be empty;
// the transaction-specific rule is skipped then. One-time rules are applied
// at most once per account and never push an already non-positive score
// further down.
func (e *Engine) Evaluate(ctx context.Context, accountID, transactionID string) (*Result, error) {
	account, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	ev := &evaluation{account: account}
	if transactionID != "" {
		txn, err := e.ledger.GetByID(ctx, transactionID)
		if err != nil {
			return nil, err
		}
		ev.txn = txn
	}

	score, err := e.scores.GetOrLoad(ctx, accountID, func(context.Context) (int, bool, error) {
		return account.Score, true, nil
	})
	if err != nil {
		return nil, err
	}

	result := &Result{AccountID: accountID, Score: score}
	for _, det := range e.detectors() {
		oneTime := !det.repeatable
		if oneTime && account.HasAppliedRule(string(det.rule)) {
			continue
		}

		fired, err := det.check(ctx, ev)
		if err != nil {
			return nil, err
		}
		if !fired {
			continue
		}
		if oneTime && result.Score <= 0 {
			logger.Warn("one-time rule fired on non-positive score, deferring",
				zap.String("account_id", accountID),
				zap.String("rule", string(det.rule)),
				zap.Int("score", result.Score))
			continue
		}

		result.Score += e.deltas[det.rule]
		result.Triggered = append(result.Triggered, det.rule)
		if oneTime {
			result.NewlyApplied = append(result.NewlyApplied, det.rule)
		}
	}

	if len(result.Triggered) == 0 {
		return result, nil
	}

	ok, err := e.scores.Update(ctx, accountID, result.Score)
	if err != nil {
		return nil, err
	}
	if !ok {
		// entry expired between the read and the write, re-seed it
		if err := e.scores.Set(ctx, accountID, result.Score); err != nil {
			return nil, err
		}
	}

	if len(result.NewlyApplied) > 0 {
		rules := make([]string, len(result.NewlyApplied))
		for i, rule := range result.NewlyApplied {
			rules[i] = string(rule)
		}
		if err := e.accounts.AppendAppliedRules(ctx, accountID, rules); err != nil {
			return nil, err
		}
	}

	if err := e.scores.Reconcile(ctx, accountID); err != nil {
		return nil, err
	}

	logger.Info("trust score updated",
		zap.String("account_id", accountID),
		zap.Int("score", result.Score),
		zap.Any("triggered", result.Triggered))
	return result, nil
}

// CurrentScore returns the account's score from the score store, falling
// back to a full rule evaluation when no stored value exists.
func (e *Engine) CurrentScore(ctx context.Context, accountID string) (int, error) {
	score, found, err := e.scores.Get(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if found {
		return score, nil
	}

	result, err := e.Evaluate(ctx, accountID, "")
	if err != nil {
		return 0, err
	}
	return result.Score, nil
}

func (e *Engine) checkHighTxnAmount(ctx context.Context, ev *evaluation) (bool, error) {
	if ev.txn == nil {
		return false, nil
	}
	limit := plafondMultiplier * ev.account.Plafond
	if ev.txn.Amount <= limit {
		return false, nil
	}

	reason := fmt.Sprintf("amount %.2f exceeds 2x plafond %.2f", ev.txn.Amount, ev.account.Plafond)
	if err := e.ledger.FlagSuspicious(ctx, ev.txn.ID, reason); err != nil {
		return false, err
	}
	ev.txn.Status = models.TransactionStatusSuspicious
	ev.txn.FlagReason = &reason
	return true, nil
}

func (e *Engine) checkHighMonthlySpent(ctx context.Context, ev *evaluation) (bool, error) {
	totals, err := e.ledger.MonthlyVerifiedOutgoing(ctx, ev.account.ID)
	if err != nil {
		return false, err
	}

	now := e.now().UTC()
	var current, priorSum float64
	var priorMonths int
	for _, bucket := range totals {
		if bucket.Month.Year() == now.Year() && bucket.Month.Month() == now.Month() {
			current = bucket.Total
		} else {
			priorSum += bucket.Total
			priorMonths++
		}
	}
	if priorMonths == 0 {
		return false, nil
	}

	average := priorSum / float64(priorMonths)
	return current > monthlySpendMultiplier*average, nil
}

func (e *Engine) checkNewAccount(ctx context.Context, ev *evaluation) (bool, error) {
	if !ev.account.New {
		return false, nil
	}

	outgoing, err := e.ledger.CountOutgoing(ctx, ev.account.ID)
	if err != nil {
		return false, err
	}
	if outgoing >= newAccountClearCount {
		if err := e.accounts.ClearNewFlag(ctx, ev.account.ID); err != nil {
			return false, err
		}
		ev.account.New = false
		return false, nil
	}
	return true, nil
}

func (e *Engine) checkMultipleDevices(ctx context.Context, ev *evaluation) (bool, error) {
	devices, err := e.devices.DevicesByAccount(ctx, ev.account.ID)
	if err != nil {
		return false, err
	}
	return len(devices) > deviceCountLimit, nil
}

func (e *Engine) checkSharedDeviceCount(ctx context.Context, ev *evaluation) (bool, error) {
	maxShared, err := e.devices.MaxAccountsSharingDevice(ctx, ev.account.ID)
	if err != nil {
		return false, err
	}
	return maxShared > sharedAccountLimit, nil
}

func (e *Engine) checkSuspiciousConnections(ctx context.Context, ev *evaluation) (bool, error) {
	counterparties, err := e.graph.Counterparties(ctx, ev.account.ID)
	if err != nil {
		return false, err
	}

	suspicious := 0
	for _, id := range counterparties {
		score, found, err := e.scores.Get(ctx, id)
		if err != nil {
			return false, err
		}
		if found && score < counterpartyScoreThreshold {
			suspicious++
		}
	}
	return suspicious > suspiciousCounterpartyLimit, nil
}

func (e *Engine) checkCircularTransaction(ctx context.Context, ev *evaluation) (bool, error) {
	cycle, err := e.cycles.Detect(ctx, ev.account.ID)
	if err != nil {
		return false, err
	}
	if cycle == nil {
		return false, nil
	}

	logger.Warn("circular transaction ring detected",
		zap.String("account_id", ev.account.ID),
		zap.Strings("path", cycle.Path),
		zap.Int("hops", cycle.Hops))
	return true, nil
}
