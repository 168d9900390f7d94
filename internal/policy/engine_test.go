package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/everleepham/bank-antiscam-app/pkg/common"
)

type mockLedgerStats struct{ mock.Mock }

func (m *mockLedgerStats) SumVerifiedOutgoingSince(ctx context.Context, accountID string, since time.Time) (float64, error) {
	args := m.Called(ctx, accountID, since)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockLedgerStats) CountVerifiedOutgoingAboveSince(ctx context.Context, accountID string, amount float64, since time.Time) (int, error) {
	args := m.Called(ctx, accountID, amount, since)
	return args.Int(0), args.Error(1)
}

func (m *mockLedgerStats) CountOutgoingInMonth(ctx context.Context, accountID string, year int, month time.Month) (int, error) {
	args := m.Called(ctx, accountID, year, month)
	return args.Int(0), args.Error(1)
}

type mockScoreResolver struct{ mock.Mock }

func (m *mockScoreResolver) CurrentScore(ctx context.Context, accountID string) (int, error) {
	args := m.Called(ctx, accountID)
	return args.Int(0), args.Error(1)
}

func newTestPolicyEngine(score int) (*Engine, *mockLedgerStats) {
	ledger := new(mockLedgerStats)
	scores := new(mockScoreResolver)
	scores.On("CurrentScore", mock.Anything, mock.Anything).Return(score, nil)
	return NewEngine(ledger, scores, nil), ledger
}

func requireViolation(t *testing.T, err error, tier, limit string) *common.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, common.CodePolicyViolation, appErr.Code)
	assert.Equal(t, tier, appErr.Details["tier"])
	assert.Equal(t, limit, appErr.Details["limit"])
	return appErr
}

func TestTrustedTierHasNoRestrictions(t *testing.T) {
	engine, ledger := newTestPolicyEngine(95)

	err := engine.Check(context.Background(), "001", ActionTransfer, 1_000_000)
	assert.NoError(t, err)
	ledger.AssertExpectations(t)
}

func TestNormalTierSpendCeiling(t *testing.T) {
	engine, ledger := newTestPolicyEngine(80)
	ledger.On("SumVerifiedOutgoingSince", mock.Anything, "001", mock.Anything).Return(4800.0, nil)

	err := engine.Check(context.Background(), "001", ActionTransfer, 500)
	requireViolation(t, err, "normal", "spend_ceiling")
}

func TestNormalTierAllowsUpToCeiling(t *testing.T) {
	engine, ledger := newTestPolicyEngine(80)
	ledger.On("SumVerifiedOutgoingSince", mock.Anything, "001", mock.Anything).Return(3000.0, nil)

	// 3000 + 2000 lands exactly on the ceiling, which is still allowed
	err := engine.Check(context.Background(), "001", ActionTransfer, 2000)
	assert.NoError(t, err)
}

func TestNormalTierSequenceWithinWindow(t *testing.T) {
	engine, ledger := newTestPolicyEngine(80)
	ledger.On("SumVerifiedOutgoingSince", mock.Anything, "001", mock.Anything).Return(0.0, nil).Once()
	ledger.On("SumVerifiedOutgoingSince", mock.Anything, "001", mock.Anything).Return(2000.0, nil).Once()
	ledger.On("SumVerifiedOutgoingSince", mock.Anything, "001", mock.Anything).Return(4800.0, nil).Once()

	ctx := context.Background()
	assert.NoError(t, engine.Check(ctx, "001", ActionTransfer, 2000))
	assert.NoError(t, engine.Check(ctx, "001", ActionTransfer, 2800))
	requireViolation(t, engine.Check(ctx, "001", ActionTransfer, 500), "normal", "spend_ceiling")
}

func TestRiskyTierHighValueCap(t *testing.T) {
	engine, ledger := newTestPolicyEngine(60)
	ledger.On("CountVerifiedOutgoingAboveSince", mock.Anything, "001", 1000.0, mock.Anything).Return(3, nil)

	err := engine.Check(context.Background(), "001", ActionTransfer, 1500)
	appErr := requireViolation(t, err, "risky", "high_value_count")
	assert.Equal(t, 3, appErr.Details["attempted"])
}

func TestRiskyTierBelowThresholdSkipsCount(t *testing.T) {
	engine, ledger := newTestPolicyEngine(60)

	err := engine.Check(context.Background(), "001", ActionTransfer, 900)
	assert.NoError(t, err)
	ledger.AssertNotCalled(t, "CountVerifiedOutgoingAboveSince", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRiskyTierUnderCapAllowsHighValue(t *testing.T) {
	engine, ledger := newTestPolicyEngine(60)
	ledger.On("CountVerifiedOutgoingAboveSince", mock.Anything, "001", 1000.0, mock.Anything).Return(2, nil)

	err := engine.Check(context.Background(), "001", ActionTransfer, 1500)
	assert.NoError(t, err)
}

func TestFraudProneTierMonthlyCap(t *testing.T) {
	engine, ledger := newTestPolicyEngine(40)
	ledger.On("CountOutgoingInMonth", mock.Anything, "001", mock.Anything, mock.Anything).Return(10, nil)

	err := engine.Check(context.Background(), "001", ActionTransfer, 50)
	requireViolation(t, err, "fraud_prone", "monthly_txn_count")
}

func TestFraudProneTierPerTransactionMax(t *testing.T) {
	engine, ledger := newTestPolicyEngine(40)
	ledger.On("CountOutgoingInMonth", mock.Anything, "001", mock.Anything, mock.Anything).Return(2, nil)

	err := engine.Check(context.Background(), "001", ActionTransfer, 150)
	requireViolation(t, err, "fraud_prone", "per_txn_max")
}

func TestCriticalTierRejectsEverything(t *testing.T) {
	engine, _ := newTestPolicyEngine(10)
	ctx := context.Background()

	requireViolation(t, engine.Check(ctx, "001", ActionTransfer, 1), "critical", "account_locked")
	requireViolation(t, engine.CheckLogin(ctx, "001"), "critical", "account_locked")
}

func TestLoginAllowedAboveCriticalBand(t *testing.T) {
	engine, _ := newTestPolicyEngine(35)
	assert.NoError(t, engine.CheckLogin(context.Background(), "001"))
}

func TestTierForClampsOutOfRangeScores(t *testing.T) {
	engine, _ := newTestPolicyEngine(0)

	tier, err := engine.TierFor(140)
	require.NoError(t, err)
	assert.Equal(t, "trusted", tier.Name)

	tier, err = engine.TierFor(-25)
	require.NoError(t, err)
	assert.Equal(t, "critical", tier.Name)
}

func TestTierForBandBoundaries(t *testing.T) {
	engine, _ := newTestPolicyEngine(0)

	cases := map[int]string{
		100: "trusted",
		90:  "trusted",
		89:  "normal",
		75:  "normal",
		74:  "risky",
		50:  "risky",
		49:  "fraud_prone",
		30:  "fraud_prone",
		29:  "critical",
		0:   "critical",
	}
	for score, want := range cases {
		tier, err := engine.TierFor(score)
		require.NoError(t, err)
		assert.Equal(t, want, tier.Name, "score %d", score)
	}
}

func TestGapInTierTableIsFatal(t *testing.T) {
	ledger := new(mockLedgerStats)
	scores := new(mockScoreResolver)
	engine := NewEngine(ledger, scores, []Tier{
		{Name: "trusted", MinScore: 90, MaxScore: 100},
	})

	_, err := engine.TierFor(50)
	require.Error(t, err)

	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodeScoreBandUnmatched, appErr.Code)
}

func TestDescribeScoreReturnsTierWarning(t *testing.T) {
	engine, _ := newTestPolicyEngine(0)

	name, warning, err := engine.DescribeScore(95)
	require.NoError(t, err)
	assert.Equal(t, "trusted", name)
	assert.Empty(t, warning)

	name, warning, err = engine.DescribeScore(40)
	require.NoError(t, err)
	assert.Equal(t, "fraud_prone", name)
	assert.NotEmpty(t, warning)
}
