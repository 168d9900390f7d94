package identifier

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/everleepham/bank-antiscam-app/pkg/common"
)

// Entity classes with their own counter sequence
const (
	ClassAccount     = "account"
	ClassTransaction = "transaction"
)

// Issuer hands out unique, strictly increasing, zero-padded identifiers per
// entity class. The increment is a single atomic read-modify-write in the
// durable store, so concurrent callers never observe the same value.
type Issuer struct {
	db *pgxpool.Pool
}

// NewIssuer creates a new identifier issuer
func NewIssuer(db *pgxpool.Pool) *Issuer {
	return &Issuer{db: db}
}

// Next atomically increments the counter for the given entity class
// (creating it if absent) and returns the new value formatted as a
// fixed-width decimal string. Callers must not fabricate an identifier
// when this fails.
func (i *Issuer) Next(ctx context.Context, entityClass string) (string, error) {
	query := `
		INSERT INTO counters (class, seq) VALUES ($1, 1)
		ON CONFLICT (class) DO UPDATE SET seq = counters.seq + 1
		RETURNING seq
	`

	var seq int64
	if err := i.db.QueryRow(ctx, query, entityClass).Scan(&seq); err != nil {
		return "", common.NewStoreUnavailable("issue identifier for "+entityClass, err)
	}

	return Format(seq), nil
}

// Format renders a sequence number as a zero-padded decimal string of width
// 3, growing as needed beyond 999.
func Format(seq int64) string {
	return fmt.Sprintf("%03d", seq)
}
