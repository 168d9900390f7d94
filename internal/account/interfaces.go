package account

import (
	"context"

	"github.com/everleepham/bank-antiscam-app/pkg/models"
)

// AccountRepository defines the durable account record operations
type AccountRepository interface {
	Create(ctx context.Context, acct *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetScore(ctx context.Context, id string) (*int, error)
	UpdateScore(ctx context.Context, id string, score int) error
	ClearNewFlag(ctx context.Context, id string) error
	AppendAppliedRules(ctx context.Context, id string, rules []string) error
}

// DeviceLog records device bindings observed at login
type DeviceLog interface {
	Log(ctx context.Context, binding *models.DeviceBinding) error
}

// GraphWriter mirrors accounts and device use into the relationship graph
type GraphWriter interface {
	EnsureAccountNode(ctx context.Context, accountID, name string, score int) error
	EnsureDeviceNode(ctx context.Context, deviceID string) error
	LinkDevice(ctx context.Context, accountID, deviceID string) error
}

// IDIssuer issues account identifiers
type IDIssuer interface {
	Next(ctx context.Context, entityClass string) (string, error)
}

// PolicyChecker gates logins by the account's current trust tier
type PolicyChecker interface {
	CheckLogin(ctx context.Context, accountID string) error
}

// ScoreResolver resolves the current trust score for an account
type ScoreResolver interface {
	CurrentScore(ctx context.Context, accountID string) (int, error)
}
