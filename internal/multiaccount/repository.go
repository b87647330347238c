package multiaccount

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/richxcame/trust-safety/internal/geo"
	"github.com/richxcame/trust-safety/internal/similarity"
)

// candidatePoolLimit caps how many accounts one analysis compares against.
// The query is a coarse recency prefilter; the engine does the real work.
const candidatePoolLimit = 500

// Repository loads account snapshots from PostgreSQL
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new account repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const accountColumns = `account_id, account_type, full_name, email, phone,
	       street, barangay, city, device, network, home_lat, home_lng,
	       frequent_locations, behavior, created_at, last_activity`

// LoadAccount retrieves one account snapshot by ID
func (r *Repository) LoadAccount(ctx context.Context, accountID string) (*AccountData, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM account_snapshots
		WHERE account_id = $1
	`
	return scanAccount(r.db.QueryRow(ctx, query, accountID))
}

// LoadCandidates retrieves the comparison pool for an account: recently
// active accounts other than the subject itself
func (r *Repository) LoadCandidates(ctx context.Context, accountID string) ([]*AccountData, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM account_snapshots
		WHERE account_id != $1
		  AND last_activity >= NOW() - INTERVAL '90 days'
		ORDER BY last_activity DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, accountID, candidatePoolLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*AccountData, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			continue
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*AccountData, error) {
	var data AccountData
	var street, barangay, city sql.NullString
	var deviceJSON, networkJSON, locationsJSON, behaviorJSON []byte
	var homeLat, homeLng sql.NullFloat64

	err := row.Scan(
		&data.AccountID,
		&data.AccountType,
		&data.FullName,
		&data.Email,
		&data.Phone,
		&street,
		&barangay,
		&city,
		&deviceJSON,
		&networkJSON,
		&homeLat,
		&homeLng,
		&locationsJSON,
		&behaviorJSON,
		&data.CreatedAt,
		&data.LastActivity,
	)
	if err != nil {
		return nil, err
	}

	data.Address = similarity.Address{
		Street:   street.String,
		Barangay: barangay.String,
		City:     city.String,
	}

	if len(deviceJSON) > 0 {
		var device DeviceFingerprint
		if err := json.Unmarshal(deviceJSON, &device); err == nil {
			data.Device = &device
		}
	}
	if len(networkJSON) > 0 {
		var network NetworkProfile
		if err := json.Unmarshal(networkJSON, &network); err == nil {
			data.Network = &network
		}
	}
	if homeLat.Valid && homeLng.Valid {
		data.HomeLocation = &geo.Point{Latitude: homeLat.Float64, Longitude: homeLng.Float64}
	}
	if len(locationsJSON) > 0 {
		_ = json.Unmarshal(locationsJSON, &data.FrequentLocations)
	}
	if len(behaviorJSON) > 0 {
		var behavior BehaviorProfile
		if err := json.Unmarshal(behaviorJSON, &behavior); err == nil {
			data.Behavior = &behavior
		}
	}

	return &data, nil
}
