package fraud

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/richxcame/trust-safety/pkg/models"
)

// Repository is the PostgreSQL-backed alert store
type Repository struct {
	db *pgxpool.Pool
}

// Ensure the concrete repository satisfies the service's requirements.
var _ AlertRepository = (*Repository)(nil)

// NewRepository creates a new alert repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const alertColumns = `id, alert_type, severity, status, subject_type, subject_id,
	       title, description, fraud_score, confidence, evidence, patterns,
	       risk_factors, currency, reviewed_by, notes, created_at, reviewed_at, resolved_at`

// CreateAlert persists a new fraud alert
func (r *Repository) CreateAlert(ctx context.Context, alert *models.Alert) error {
	evidenceJSON, err := json.Marshal(alert.Evidence)
	if err != nil {
		return err
	}
	patternsJSON, err := json.Marshal(alert.Patterns)
	if err != nil {
		return err
	}
	riskFactorsJSON, err := json.Marshal(alert.RiskFactors)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO fraud_alerts (
			id, alert_type, severity, status, subject_type, subject_id,
			title, description, fraud_score, confidence, evidence, patterns,
			risk_factors, currency, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = r.db.Exec(ctx, query,
		alert.ID,
		alert.AlertType,
		alert.Severity,
		alert.Status,
		alert.SubjectType,
		alert.SubjectID,
		alert.Title,
		alert.Description,
		alert.FraudScore,
		alert.Confidence,
		evidenceJSON,
		patternsJSON,
		riskFactorsJSON,
		alert.Currency,
		alert.Timestamp,
	)

	return err
}

// GetAlertByID retrieves a fraud alert by ID
func (r *Repository) GetAlertByID(ctx context.Context, alertID string) (*models.Alert, error) {
	query := fmt.Sprintf(`SELECT %s FROM fraud_alerts WHERE id = $1`, alertColumns)
	return r.scanAlert(r.db.QueryRow(ctx, query, alertID))
}

// ListAlerts retrieves alerts matching the filter, newest first, with the
// total matching count
func (r *Repository) ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*models.Alert, int64, error) {
	where := ""
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		if where == "" {
			where = "WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf("%s = $%d", column, len(args))
	}

	if filter.Status != "" {
		add("status", filter.Status)
	}
	if filter.AlertType != "" {
		add("alert_type", filter.AlertType)
	}
	if filter.Severity != "" {
		add("severity", filter.Severity)
	}
	if filter.SubjectID != "" {
		add("subject_id", filter.SubjectID)
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM fraud_alerts %s`, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM fraud_alerts %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, alertColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	alerts := make([]*models.Alert, 0)
	for rows.Next() {
		alert, err := r.scanAlert(rows)
		if err != nil {
			continue
		}
		alerts = append(alerts, alert)
	}

	return alerts, total, rows.Err()
}

// UpdateAlertReview persists a review-workflow transition
func (r *Repository) UpdateAlertReview(ctx context.Context, alert *models.Alert) error {
	query := `
		UPDATE fraud_alerts
		SET status = $2,
		    reviewed_by = NULLIF($3, ''),
		    notes = NULLIF($4, ''),
		    reviewed_at = $5,
		    resolved_at = $6,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query,
		alert.ID,
		alert.Status,
		alert.ReviewedBy,
		alert.Notes,
		alert.ReviewedAt,
		alert.ResolvedAt,
	)
	return err
}

// GetStatistics aggregates alert counts since the given time
func (r *Repository) GetStatistics(ctx context.Context, since time.Time) (*models.Statistics, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE severity = 'critical'),
			COUNT(*) FILTER (WHERE severity = 'high'),
			COUNT(*) FILTER (WHERE severity = 'medium'),
			COUNT(*) FILTER (WHERE severity = 'low'),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'resolved')
		FROM fraud_alerts
		WHERE created_at >= $1
	`

	var stats models.Statistics
	err := r.db.QueryRow(ctx, query, since).Scan(
		&stats.TotalAlerts,
		&stats.CriticalAlerts,
		&stats.HighAlerts,
		&stats.MediumAlerts,
		&stats.LowAlerts,
		&stats.ActiveAlerts,
		&stats.ResolvedAlerts,
	)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanAlert(row rowScanner) (*models.Alert, error) {
	var alert models.Alert
	var evidenceJSON, patternsJSON, riskFactorsJSON []byte
	var reviewedBy, notes sql.NullString
	var reviewedAt, resolvedAt sql.NullTime

	err := row.Scan(
		&alert.ID,
		&alert.AlertType,
		&alert.Severity,
		&alert.Status,
		&alert.SubjectType,
		&alert.SubjectID,
		&alert.Title,
		&alert.Description,
		&alert.FraudScore,
		&alert.Confidence,
		&evidenceJSON,
		&patternsJSON,
		&riskFactorsJSON,
		&alert.Currency,
		&reviewedBy,
		&notes,
		&alert.Timestamp,
		&reviewedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(evidenceJSON, &alert.Evidence); err != nil {
		alert.Evidence = nil
	}
	if err := json.Unmarshal(patternsJSON, &alert.Patterns); err != nil {
		alert.Patterns = nil
	}
	if err := json.Unmarshal(riskFactorsJSON, &alert.RiskFactors); err != nil {
		alert.RiskFactors = nil
	}

	if reviewedBy.Valid {
		alert.ReviewedBy = reviewedBy.String
	}
	if notes.Valid {
		alert.Notes = notes.String
	}
	if reviewedAt.Valid {
		alert.ReviewedAt = &reviewedAt.Time
	}
	if resolvedAt.Valid {
		alert.ResolvedAt = &resolvedAt.Time
	}

	return &alert, nil
}
