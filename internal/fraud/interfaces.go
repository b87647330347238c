package fraud

import (
	"context"
	"time"

	"github.com/richxcame/trust-safety/internal/multiaccount"
	"github.com/richxcame/trust-safety/pkg/models"
)

// AlertFilter narrows alert listings. Zero values mean "no constraint".
type AlertFilter struct {
	Status    models.Status
	AlertType models.AlertType
	Severity  models.Severity
	SubjectID string
}

// AlertRepository defines the persistence operations needed by the fraud service
type AlertRepository interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
	GetAlertByID(ctx context.Context, alertID string) (*models.Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*models.Alert, int64, error)
	UpdateAlertReview(ctx context.Context, alert *models.Alert) error
	GetStatistics(ctx context.Context, since time.Time) (*models.Statistics, error)
}

// AccountLoader materializes account snapshots for the similarity engine.
// LoadCandidates returns the comparison pool for an account, excluding the
// account itself.
type AccountLoader interface {
	LoadAccount(ctx context.Context, accountID string) (*multiaccount.AccountData, error)
	LoadCandidates(ctx context.Context, accountID string) ([]*multiaccount.AccountData, error)
}
