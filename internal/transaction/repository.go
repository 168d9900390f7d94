package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/everleepham/bank-antiscam-app/pkg/common"
	"github.com/everleepham/bank-antiscam-app/pkg/models"
)

// Repository is the durable transaction ledger backed by Postgres
type Repository struct {
	db *pgxpool.Pool
}

var _ TransactionRepository = (*Repository)(nil)

// NewRepository creates a new transaction repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const transactionColumns = `
	id, sender_id, sender_name, recipient_id, recipient_name,
	device_id, amount, timestamp, status, flag_reason, created_at
`

// Create appends a transaction to the ledger
func (r *Repository) Create(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, sender_id, sender_name, recipient_id, recipient_name,
			device_id, amount, timestamp, status, flag_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		txn.ID,
		txn.SenderID,
		txn.SenderName,
		txn.RecipientID,
		txn.RecipientName,
		txn.DeviceID,
		txn.Amount,
		txn.Timestamp,
		txn.Status,
		txn.FlagReason,
	).Scan(&txn.CreatedAt)
	if err != nil {
		return common.NewStoreUnavailable("create transaction", err)
	}
	return nil
}

// GetByID loads one transaction
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	var txn models.Transaction
	err := r.db.QueryRow(ctx, query, id).Scan(
		&txn.ID,
		&txn.SenderID,
		&txn.SenderName,
		&txn.RecipientID,
		&txn.RecipientName,
		&txn.DeviceID,
		&txn.Amount,
		&txn.Timestamp,
		&txn.Status,
		&txn.FlagReason,
		&txn.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewNotFound("transaction", id)
	}
	if err != nil {
		return nil, common.NewStoreUnavailable("get transaction", err)
	}
	return &txn, nil
}

// UpdateStatus moves a transaction to a new status
func (r *Repository) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE transactions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return common.NewStoreUnavailable("update transaction status", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("transaction", id)
	}
	return nil
}

// FlagSuspicious marks a transaction suspicious with a human-readable reason
func (r *Repository) FlagSuspicious(ctx context.Context, id, reason string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE transactions SET status = $2, flag_reason = $3 WHERE id = $1`,
		id, models.TransactionStatusSuspicious, reason)
	if err != nil {
		return common.NewStoreUnavailable("flag transaction suspicious", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("transaction", id)
	}
	return nil
}

// ListBySender returns an account's transactions, newest first
func (r *Repository) ListBySender(ctx context.Context, accountID string) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions WHERE sender_id = $1 ORDER BY timestamp DESC`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, common.NewStoreUnavailable("list transactions by sender", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListSuspicious returns every suspicious transaction, newest first
func (r *Repository) ListSuspicious(ctx context.Context) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions WHERE status = $1 ORDER BY timestamp DESC`

	rows, err := r.db.Query(ctx, query, models.TransactionStatusSuspicious)
	if err != nil {
		return nil, common.NewStoreUnavailable("list suspicious transactions", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// MonthlyVerifiedOutgoing aggregates an account's verified outgoing spend
// per calendar month.
func (r *Repository) MonthlyVerifiedOutgoing(ctx context.Context, accountID string) ([]models.MonthlyTotal, error) {
	query := `
		SELECT date_trunc('month', timestamp) AS month, SUM(amount) AS total
		FROM transactions
		WHERE sender_id = $1 AND status = $2
		GROUP BY month
		ORDER BY month
	`

	rows, err := r.db.Query(ctx, query, accountID, models.TransactionStatusVerified)
	if err != nil {
		return nil, common.NewStoreUnavailable("aggregate monthly outgoing", err)
	}
	defer rows.Close()

	totals := make([]models.MonthlyTotal, 0)
	for rows.Next() {
		var bucket models.MonthlyTotal
		if err := rows.Scan(&bucket.Month, &bucket.Total); err != nil {
			return nil, common.NewStoreUnavailable("scan monthly total", err)
		}
		totals = append(totals, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStoreUnavailable("iterate monthly totals", err)
	}
	return totals, nil
}

// CountOutgoing counts every transaction an account has sent
func (r *Repository) CountOutgoing(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE sender_id = $1`, accountID).Scan(&count)
	if err != nil {
		return 0, common.NewStoreUnavailable("count outgoing transactions", err)
	}
	return count, nil
}

// SumVerifiedOutgoingSince sums an account's verified outgoing amounts from
// the given instant onward.
func (r *Repository) SumVerifiedOutgoingSince(ctx context.Context, accountID string, since time.Time) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE sender_id = $1 AND status = $2 AND timestamp >= $3
	`, accountID, models.TransactionStatusVerified, since).Scan(&total)
	if err != nil {
		return 0, common.NewStoreUnavailable("sum verified outgoing", err)
	}
	return total, nil
}

// CountVerifiedOutgoingAboveSince counts an account's verified outgoing
// transactions above the amount from the given instant onward.
func (r *Repository) CountVerifiedOutgoingAboveSince(ctx context.Context, accountID string, amount float64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM transactions
		WHERE sender_id = $1 AND status = $2 AND amount > $3 AND timestamp >= $4
	`, accountID, models.TransactionStatusVerified, amount, since).Scan(&count)
	if err != nil {
		return 0, common.NewStoreUnavailable("count high-value outgoing", err)
	}
	return count, nil
}

// CountOutgoingInMonth counts every transaction an account sent in one
// calendar month.
func (r *Repository) CountOutgoingInMonth(ctx context.Context, accountID string, year int, month time.Month) (int, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM transactions
		WHERE sender_id = $1 AND timestamp >= $2 AND timestamp < $3
	`, accountID, start, end).Scan(&count)
	if err != nil {
		return 0, common.NewStoreUnavailable("count monthly outgoing", err)
	}
	return count, nil
}

func scanTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	txns := make([]models.Transaction, 0)
	for rows.Next() {
		var txn models.Transaction
		err := rows.Scan(
			&txn.ID,
			&txn.SenderID,
			&txn.SenderName,
			&txn.RecipientID,
			&txn.RecipientName,
			&txn.DeviceID,
			&txn.Amount,
			&txn.Timestamp,
			&txn.Status,
			&txn.FlagReason,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, common.NewStoreUnavailable("scan transaction", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStoreUnavailable("iterate transactions", err)
	}
	return txns, nil
}
