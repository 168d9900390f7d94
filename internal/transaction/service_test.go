package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/everleepham/bank-antiscam-app/internal/identifier"
	"github.com/everleepham/bank-antiscam-app/internal/trust"
	"github.com/everleepham/bank-antiscam-app/pkg/common"
	"github.com/everleepham/bank-antiscam-app/pkg/models"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Create(ctx context.Context, txn *models.Transaction) error {
	return m.Called(ctx, txn).Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockRepo) ListBySender(ctx context.Context, accountID string) ([]models.Transaction, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockRepo) ListSuspicious(ctx context.Context) ([]models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

type mockIssuer struct{ mock.Mock }

func (m *mockIssuer) Next(ctx context.Context, entityClass string) (string, error) {
	args := m.Called(ctx, entityClass)
	return args.String(0), args.Error(1)
}

type mockGraph struct{ mock.Mock }

func (m *mockGraph) EnsureTransactionNode(ctx context.Context, txn *models.Transaction) error {
	return m.Called(ctx, txn).Error(0)
}

func (m *mockGraph) EnsureDeviceNode(ctx context.Context, deviceID string) error {
	return m.Called(ctx, deviceID).Error(0)
}

func (m *mockGraph) LinkTransfer(ctx context.Context, senderID, recipientID, transactionID string) error {
	return m.Called(ctx, senderID, recipientID, transactionID).Error(0)
}

func (m *mockGraph) LinkDevice(ctx context.Context, accountID, deviceID string) error {
	return m.Called(ctx, accountID, deviceID).Error(0)
}

type mockGate struct{ mock.Mock }

func (m *mockGate) CheckTransfer(ctx context.Context, accountID string, amount float64) error {
	return m.Called(ctx, accountID, amount).Error(0)
}

type mockEvaluator struct{ mock.Mock }

func (m *mockEvaluator) Evaluate(ctx context.Context, accountID, transactionID string) (*trust.Result, error) {
	args := m.Called(ctx, accountID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trust.Result), args.Error(1)
}

type serviceMocks struct {
	repo     *mockRepo
	accounts *mockAccounts
	issuer   *mockIssuer
	graph    *mockGraph
	gate     *mockGate
	trust    *mockEvaluator
}

func newTestService() (*Service, *serviceMocks) {
	m := &serviceMocks{
		repo:     new(mockRepo),
		accounts: new(mockAccounts),
		issuer:   new(mockIssuer),
		graph:    new(mockGraph),
		gate:     new(mockGate),
		trust:    new(mockEvaluator),
	}
	svc := NewService(m.repo, m.accounts, m.issuer, m.graph, m.gate, m.trust)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, m
}

func account(id, first, last string) *models.Account {
	return &models.Account{ID: id, FirstName: first, LastName: last, Score: 100, Plafond: 1000}
}

func TestTransferHappyPath(t *testing.T) {
	svc, m := newTestService()

	m.accounts.On("GetByID", mock.Anything, "001").Return(account("001", "Jane", "Doe"), nil)
	m.accounts.On("GetByID", mock.Anything, "002").Return(account("002", "John", "Roe"), nil)
	m.gate.On("CheckTransfer", mock.Anything, "001", 250.0).Return(nil)
	m.issuer.On("Next", mock.Anything, identifier.ClassTransaction).Return("042", nil)
	m.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.graph.On("EnsureTransactionNode", mock.Anything, mock.Anything).Return(nil)
	m.graph.On("LinkTransfer", mock.Anything, "001", "002", "042").Return(nil)
	m.trust.On("Evaluate", mock.Anything, "001", "042").Return(&trust.Result{AccountID: "001", Score: 100}, nil)

	resp, err := svc.Transfer(context.Background(), "001", &TransferRequest{
		RecipientID: "002",
		Amount:      250,
	})
	require.NoError(t, err)

	assert.Equal(t, "042", resp.Transaction.ID)
	assert.Equal(t, models.TransactionStatusPending, resp.Transaction.Status)
	assert.Equal(t, "Jane Doe", resp.Transaction.SenderName)
	assert.Equal(t, 100, resp.Score)
	assert.Empty(t, resp.Triggered)
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	svc, m := newTestService()

	_, err := svc.Transfer(context.Background(), "001", &TransferRequest{
		RecipientID: "002",
		Amount:      0,
	})
	require.Error(t, err)

	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodeValidation, appErr.Code)
	m.accounts.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestTransferRejectsSelfTransfer(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Transfer(context.Background(), "001", &TransferRequest{
		RecipientID: "001",
		Amount:      100,
	})
	require.Error(t, err)

	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodeValidation, appErr.Code)
}

func TestTransferUnknownRecipient(t *testing.T) {
	svc, m := newTestService()

	m.accounts.On("GetByID", mock.Anything, "001").Return(account("001", "Jane", "Doe"), nil)
	m.accounts.On("GetByID", mock.Anything, "999").Return(nil, common.NewNotFound("account", "999"))

	_, err := svc.Transfer(context.Background(), "001", &TransferRequest{
		RecipientID: "999",
		Amount:      100,
	})
	require.Error(t, err)

	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodeNotFound, appErr.Code)
}

func TestTransferStopsAtPolicyRejection(t *testing.T) {
	svc, m := newTestService()

	m.accounts.On("GetByID", mock.Anything, "001").Return(account("001", "Jane", "Doe"), nil)
	m.accounts.On("GetByID", mock.Anything, "002").Return(account("002", "John", "Roe"), nil)
	m.gate.On("CheckTransfer", mock.Anything, "001", 6000.0).
		Return(common.NewPolicyViolation("normal", "spend_ceiling", 5000.0, 6000.0, "over ceiling"))

	_, err := svc.Transfer(context.Background(), "001", &TransferRequest{
		RecipientID: "002",
		Amount:      6000,
	})
	require.Error(t, err)

	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodePolicyViolation, appErr.Code)
	// no identifier is consumed and nothing reaches the ledger
	m.issuer.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
	m.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTransferSurvivesGraphOutage(t *testing.T) {
	svc, m := newTestService()

	m.accounts.On("GetByID", mock.Anything, "001").Return(account("001", "Jane", "Doe"), nil)
	m.accounts.On("GetByID", mock.Anything, "002").Return(account("002", "John", "Roe"), nil)
	m.gate.On("CheckTransfer", mock.Anything, "001", 250.0).Return(nil)
	m.issuer.On("Next", mock.Anything, identifier.ClassTransaction).Return("042", nil)
	m.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.graph.On("EnsureTransactionNode", mock.Anything, mock.Anything).
		Return(common.NewStoreUnavailable("ensure transaction node", assert.AnError))
	m.trust.On("Evaluate", mock.Anything, "001", "042").Return(&trust.Result{AccountID: "001", Score: 100}, nil)

	resp, err := svc.Transfer(context.Background(), "001", &TransferRequest{
		RecipientID: "002",
		Amount:      250,
	})
	require.NoError(t, err)
	assert.Equal(t, "042", resp.Transaction.ID)
	m.graph.AssertNotCalled(t, "LinkTransfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransferReflectsRetroactiveFlag(t *testing.T) {
	svc, m := newTestService()

	reason := "amount 2500.00 exceeds 2x plafond 1000.00"
	flagged := &models.Transaction{
		ID:         "042",
		SenderID:   "001",
		Amount:     2500,
		Status:     models.TransactionStatusSuspicious,
		FlagReason: &reason,
	}

	m.accounts.On("GetByID", mock.Anything, "001").Return(account("001", "Jane", "Doe"), nil)
	m.accounts.On("GetByID", mock.Anything, "002").Return(account("002", "John", "Roe"), nil)
	m.gate.On("CheckTransfer", mock.Anything, "001", 2500.0).Return(nil)
	m.issuer.On("Next", mock.Anything, identifier.ClassTransaction).Return("042", nil)
	m.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.repo.On("GetByID", mock.Anything, "042").Return(flagged, nil)
	m.graph.On("EnsureTransactionNode", mock.Anything, mock.Anything).Return(nil)
	m.graph.On("LinkTransfer", mock.Anything, "001", "002", "042").Return(nil)
	m.trust.On("Evaluate", mock.Anything, "001", "042").Return(&trust.Result{
		AccountID: "001",
		Score:     70,
		Triggered: []trust.Rule{trust.RuleHighTxnAmount},
	}, nil)

	resp, err := svc.Transfer(context.Background(), "001", &TransferRequest{
		RecipientID: "002",
		Amount:      2500,
	})
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusSuspicious, resp.Transaction.Status)
	assert.Equal(t, 70, resp.Score)
	assert.Equal(t, []string{string(trust.RuleHighTxnAmount)}, resp.Triggered)
}

func TestVerifyPromotesPending(t *testing.T) {
	svc, m := newTestService()

	m.repo.On("GetByID", mock.Anything, "042").
		Return(&models.Transaction{ID: "042", Status: models.TransactionStatusPending}, nil)
	m.repo.On("UpdateStatus", mock.Anything, "042", models.TransactionStatusVerified).Return(nil)

	resp, err := svc.Verify(context.Background(), "042")
	require.NoError(t, err)
	assert.True(t, resp.Verified)
	assert.Equal(t, "verified", resp.Status)
}

func TestVerifyLeavesSuspiciousAlone(t *testing.T) {
	svc, m := newTestService()

	m.repo.On("GetByID", mock.Anything, "042").
		Return(&models.Transaction{ID: "042", Status: models.TransactionStatusSuspicious}, nil)

	resp, err := svc.Verify(context.Background(), "042")
	require.NoError(t, err)
	assert.False(t, resp.Verified)
	assert.Equal(t, "suspicious", resp.Status)
	m.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyIsIdempotent(t *testing.T) {
	svc, m := newTestService()

	m.repo.On("GetByID", mock.Anything, "042").
		Return(&models.Transaction{ID: "042", Status: models.TransactionStatusVerified}, nil)

	resp, err := svc.Verify(context.Background(), "042")
	require.NoError(t, err)
	assert.True(t, resp.Verified)
	m.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}
