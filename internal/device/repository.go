package device

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/everleepham/bank-antiscam-app/pkg/common"
	"github.com/everleepham/bank-antiscam-app/pkg/models"
)

// Repository handles the append-only device-binding log
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new device repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Log appends one device sighting
func (r *Repository) Log(ctx context.Context, binding *models.DeviceBinding) error {
	query := `
		INSERT INTO device_logs (device_id, account_id, mac_address, ip_address, timestamp, location)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		binding.DeviceID,
		binding.AccountID,
		binding.MACAddress,
		binding.IPAddress,
		binding.Timestamp,
		binding.Location,
	)
	if err != nil {
		return common.NewStoreUnavailable("log device binding", err)
	}

	return nil
}

// DevicesByAccount returns the distinct device identifiers an account has used
func (r *Repository) DevicesByAccount(ctx context.Context, accountID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT device_id FROM device_logs WHERE account_id = $1`, accountID)
	if err != nil {
		return nil, common.NewStoreUnavailable("list devices by account", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// MaxAccountsSharingDevice returns, over every device the account has used,
// the highest count of distinct accounts seen on a single one of them.
func (r *Repository) MaxAccountsSharingDevice(ctx context.Context, accountID string) (int, error) {
	query := `
		SELECT COALESCE(MAX(holders), 0)
		FROM (
			SELECT COUNT(DISTINCT account_id) AS holders
			FROM device_logs
			WHERE device_id IN (
				SELECT DISTINCT device_id FROM device_logs WHERE account_id = $1
			)
			GROUP BY device_id
		) shared
	`

	var max int
	if err := r.db.QueryRow(ctx, query, accountID).Scan(&max); err != nil {
		return 0, common.NewStoreUnavailable("count accounts sharing devices", err)
	}
	return max, nil
}

type stringRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanStrings(rows stringRows) ([]string, error) {
	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, common.NewStoreUnavailable("scan row", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStoreUnavailable("iterate rows", err)
	}
	return values, nil
}
