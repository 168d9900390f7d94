package transaction

import (
	"context"

	"github.com/everleepham/bank-antiscam-app/internal/trust"
	"github.com/everleepham/bank-antiscam-app/pkg/models"
)

// TransactionRepository defines the durable ledger operations
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) error
	ListBySender(ctx context.Context, accountID string) ([]models.Transaction, error)
	ListSuspicious(ctx context.Context) ([]models.Transaction, error)
}

// AccountReader loads account records referenced by a transfer
type AccountReader interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

// IDIssuer issues transaction identifiers
type IDIssuer interface {
	Next(ctx context.Context, entityClass string) (string, error)
}

// GraphWriter mirrors transfers into the relationship graph
type GraphWriter interface {
	EnsureTransactionNode(ctx context.Context, txn *models.Transaction) error
	EnsureDeviceNode(ctx context.Context, deviceID string) error
	LinkTransfer(ctx context.Context, senderID, recipientID, transactionID string) error
	LinkDevice(ctx context.Context, accountID, deviceID string) error
}

// TransferGate pre-checks the transfer against the sender's trust tier
type TransferGate interface {
	CheckTransfer(ctx context.Context, accountID string, amount float64) error
}

// RuleEvaluator recomputes the sender's trust score after the ledger write
type RuleEvaluator interface {
	Evaluate(ctx context.Context, accountID, transactionID string) (*trust.Result, error)
}
