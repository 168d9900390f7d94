package trust

import (
	"context"

	"github.com/everleepham/bank-antiscam-app/internal/relgraph"
	"github.com/everleepham/bank-antiscam-app/pkg/models"
)

// AccountStore is the durable account record surface the engine needs
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	AppendAppliedRules(ctx context.Context, id string, rules []string) error
	ClearNewFlag(ctx context.Context, id string) error
}

// Ledger exposes the transaction history aggregates the detectors read
type Ledger interface {
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	FlagSuspicious(ctx context.Context, id, reason string) error
	MonthlyVerifiedOutgoing(ctx context.Context, accountID string) ([]models.MonthlyTotal, error)
	CountOutgoing(ctx context.Context, accountID string) (int, error)
}

// DeviceIndex answers device-sharing questions about an account
type DeviceIndex interface {
	DevicesByAccount(ctx context.Context, accountID string) ([]string, error)
	MaxAccountsSharingDevice(ctx context.Context, accountID string) (int, error)
}

// GraphIndex lists the accounts connected through the relationship graph
type GraphIndex interface {
	Counterparties(ctx context.Context, accountID string) ([]string, error)
}

// CycleFinder searches the relationship graph for transaction rings
type CycleFinder interface {
	Detect(ctx context.Context, originID string) (*relgraph.Cycle, error)
}

// ScoreStore is the cache-aside score surface used during evaluation
type ScoreStore interface {
	Get(ctx context.Context, accountID string) (int, bool, error)
	GetOrLoad(ctx context.Context, accountID string, loader func(context.Context) (int, bool, error)) (int, error)
	Set(ctx context.Context, accountID string, score int) error
	Update(ctx context.Context, accountID string, score int) (bool, error)
	Reconcile(ctx context.Context, accountID string) error
}
