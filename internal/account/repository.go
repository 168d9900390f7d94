package account

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/everleepham/bank-antiscam-app/pkg/common"
	"github.com/everleepham/bank-antiscam-app/pkg/models"
)

// Repository handles durable account records
type Repository struct {
	db *pgxpool.Pool
}

// Ensure the concrete repository satisfies the service's requirements.
var _ AccountRepository = (*Repository)(nil)

// NewRepository creates a new account repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account record
func (r *Repository) Create(ctx context.Context, acct *models.Account) error {
	query := `
		INSERT INTO accounts (
			id, first_name, last_name, email, password_hash,
			score, plafond, new_account, applied_rules, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		acct.ID,
		acct.FirstName,
		acct.LastName,
		acct.Email,
		acct.PasswordHash,
		acct.Score,
		acct.Plafond,
		acct.New,
		acct.AppliedRules,
		acct.CreatedAt,
	)
	if err != nil {
		return common.NewStoreUnavailable("create account", err)
	}

	return nil
}

// GetByID retrieves an account by identifier
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByEmail retrieves an account by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *Repository) getOne(ctx context.Context, where string, arg any) (*models.Account, error) {
	query := `
		SELECT id, first_name, last_name, email, password_hash,
		       score, plafond, new_account, applied_rules, created_at
		FROM accounts ` + where

	var acct models.Account
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&acct.ID,
		&acct.FirstName,
		&acct.LastName,
		&acct.Email,
		&acct.PasswordHash,
		&acct.Score,
		&acct.Plafond,
		&acct.New,
		&acct.AppliedRules,
		&acct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFound("account", toString(arg))
		}
		return nil, common.NewStoreUnavailable("read account", err)
	}

	return &acct, nil
}

// GetScore reads the durable score field; nil means the record is absent
func (r *Repository) GetScore(ctx context.Context, id string) (*int, error) {
	var score int
	err := r.db.QueryRow(ctx, `SELECT score FROM accounts WHERE id = $1`, id).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, common.NewStoreUnavailable("read account score", err)
	}
	return &score, nil
}

// UpdateScore writes the durable score field
func (r *Repository) UpdateScore(ctx context.Context, id string, score int) error {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET score = $2 WHERE id = $1`, id, score)
	if err != nil {
		return common.NewStoreUnavailable("update account score", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("account", id)
	}
	return nil
}

// ClearNewFlag permanently clears the account's "new" flag
func (r *Repository) ClearNewFlag(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE accounts SET new_account = FALSE WHERE id = $1`, id)
	if err != nil {
		return common.NewStoreUnavailable("clear new-account flag", err)
	}
	return nil
}

// AppendAppliedRules commits one-time rule identifiers to the durable record.
// Only rules not yet present are appended.
func (r *Repository) AppendAppliedRules(ctx context.Context, id string, rules []string) error {
	if len(rules) == 0 {
		return nil
	}

	query := `
		UPDATE accounts
		SET applied_rules = applied_rules || (
			SELECT COALESCE(array_agg(r), '{}')
			FROM unnest($2::text[]) AS r
			WHERE NOT r = ANY(applied_rules)
		)
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id, rules)
	if err != nil {
		return common.NewStoreUnavailable("append applied rules", err)
	}
	return nil
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
