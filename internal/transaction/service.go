package transaction

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/everleepham/bank-antiscam-app/internal/identifier"
	"github.com/everleepham/bank-antiscam-app/internal/trust"
	"github.com/everleepham/bank-antiscam-app/pkg/common"
	"github.com/everleepham/bank-antiscam-app/pkg/logger"
	"github.com/everleepham/bank-antiscam-app/pkg/models"
)

// Service orchestrates the transfer pipeline: policy pre-check, ledger
// write, graph mirroring, then the trust recomputation that may flag the
// transaction retroactively.
//
// Two concurrent transfers from one account can both pass the policy
// pre-check before either ledger row lands, so a rolling-window limit can
// be overshot. There is no per-account serialization spanning the check
// and the commit.
type Service struct {
	repo     TransactionRepository
	accounts AccountReader
	issuer   IDIssuer
	graph    GraphWriter
	policy   TransferGate
	trust    RuleEvaluator
	now      func() time.Time
}

// NewService wires the transfer pipeline
func NewService(
	repo TransactionRepository,
	accounts AccountReader,
	issuer IDIssuer,
	graph GraphWriter,
	policy TransferGate,
	trust RuleEvaluator,
) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		issuer:   issuer,
		graph:    graph,
		policy:   policy,
		trust:    trust,
		now:      time.Now,
	}
}

// Transfer executes one transfer for the sender. The transaction is created
// pending; the rule evaluation that follows may mark it suspicious, and the
// response carries the final state alongside the sender's updated score.
func (s *Service) Transfer(ctx context.Context, senderID string, req *TransferRequest) (*TransferResponse, error) {
	if req.Amount <= 0 {
		return nil, common.NewValidation("amount must be positive")
	}
	if req.RecipientID == senderID {
		return nil, common.NewValidation("sender and recipient must differ")
	}

	sender, err := s.accounts.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.accounts.GetByID(ctx, req.RecipientID)
	if err != nil {
		return nil, err
	}

	if err := s.policy.CheckTransfer(ctx, senderID, req.Amount); err != nil {
		return nil, err
	}

	id, err := s.issuer.Next(ctx, identifier.ClassTransaction)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		ID:            id,
		SenderID:      sender.ID,
		SenderName:    sender.DisplayName(),
		RecipientID:   recipient.ID,
		RecipientName: recipient.DisplayName(),
		DeviceID:      req.DeviceID,
		Amount:        req.Amount,
		Timestamp:     s.now().UTC(),
		Status:        models.TransactionStatusPending,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, err
	}

	s.mirrorToGraph(ctx, txn)

	result, err := s.trust.Evaluate(ctx, senderID, txn.ID)
	if err != nil {
		return nil, err
	}

	resp := &TransferResponse{Transaction: txn, Score: result.Score}
	flagged := false
	for _, rule := range result.Triggered {
		resp.Triggered = append(resp.Triggered, string(rule))
		if rule == trust.RuleHighTxnAmount {
			flagged = true
		}
	}
	if flagged {
		// the evaluation marked the ledger row suspicious, pick that up
		txn, err = s.repo.GetByID(ctx, txn.ID)
		if err != nil {
			return nil, err
		}
		resp.Transaction = txn
	}

	logger.Info("transfer processed",
		zap.String("transaction_id", txn.ID),
		zap.String("sender_id", senderID),
		zap.Float64("amount", req.Amount),
		zap.String("status", string(txn.Status)),
		zap.Int("score", result.Score))
	return resp, nil
}

// mirrorToGraph writes the transaction nodes and edges. Failures degrade
// graph-based detection until the stores reconverge, but never fail the
// transfer the ledger already accepted.
func (s *Service) mirrorToGraph(ctx context.Context, txn *models.Transaction) {
	if err := s.graph.EnsureTransactionNode(ctx, txn); err != nil {
		logger.Warn("failed to mirror transaction node",
			zap.String("transaction_id", txn.ID), zap.Error(err))
		return
	}
	if err := s.graph.LinkTransfer(ctx, txn.SenderID, txn.RecipientID, txn.ID); err != nil {
		logger.Warn("failed to link transfer edges",
			zap.String("transaction_id", txn.ID), zap.Error(err))
	}

	if txn.DeviceID == "" {
		return
	}
	if err := s.graph.EnsureDeviceNode(ctx, txn.DeviceID); err != nil {
		logger.Warn("failed to mirror device node",
			zap.String("device_id", txn.DeviceID), zap.Error(err))
		return
	}
	if err := s.graph.LinkDevice(ctx, txn.SenderID, txn.DeviceID); err != nil {
		logger.Warn("failed to link device edge",
			zap.String("device_id", txn.DeviceID), zap.Error(err))
	}
}

// Verify promotes a pending transaction to verified. Suspicious
// transactions stay suspicious and report false; verified ones report true
// again, so the call is idempotent.
func (s *Service) Verify(ctx context.Context, id string) (*VerifyResponse, error) {
	txn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch txn.Status {
	case models.TransactionStatusVerified:
		return &VerifyResponse{TransactionID: id, Verified: true, Status: string(txn.Status)}, nil
	case models.TransactionStatusSuspicious:
		return &VerifyResponse{TransactionID: id, Verified: false, Status: string(txn.Status)}, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, models.TransactionStatusVerified); err != nil {
		return nil, err
	}
	return &VerifyResponse{TransactionID: id, Verified: true, Status: string(models.TransactionStatusVerified)}, nil
}

// ListBySender returns the sender's transactions, newest first
func (s *Service) ListBySender(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return s.repo.ListBySender(ctx, accountID)
}

// ListSuspicious returns every transaction flagged suspicious
func (s *Service) ListSuspicious(ctx context.Context) ([]models.Transaction, error) {
	return s.repo.ListSuspicious(ctx)
}
