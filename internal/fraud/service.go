package fraud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/richxcame/trust-safety/internal/gps"
	"github.com/richxcame/trust-safety/internal/multiaccount"
	"github.com/richxcame/trust-safety/pkg/common"
	"github.com/richxcame/trust-safety/pkg/logger"
	"github.com/richxcame/trust-safety/pkg/models"
	"github.com/richxcame/trust-safety/pkg/redis"
)

// cachedAnalysis is the value stored per analyzed subject. A nil Alert means
// the analysis ran and produced no alert; the cache hit still short-circuits
// a repeat run within the TTL.
type cachedAnalysis struct {
	Alert      *models.Alert `json:"alert,omitempty"`
	AnalyzedAt time.Time     `json:"analyzed_at"`
}

// Service orchestrates the fraud detectors, alert persistence and the
// review workflow
type Service struct {
	repo     AlertRepository
	accounts AccountLoader
	engine   *multiaccount.Engine
	analyzer *gps.Analyzer
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewService creates a new fraud service. The cache is optional; when nil
// every analysis runs fresh.
func NewService(repo AlertRepository, accounts AccountLoader, engine *multiaccount.Engine, analyzer *gps.Analyzer, cache *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		engine:   engine,
		analyzer: analyzer,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// AnalyzeAccount runs the multi-account similarity engine for one account
// and persists the resulting alert, if any. Results are cached per account
// so bursts of requests for the same subject do not rerun the fan-out.
func (s *Service) AnalyzeAccount(ctx context.Context, accountID string) (*models.Alert, error) {
	if accountID == "" {
		return nil, common.NewBadRequestError("account ID is required", nil)
	}

	cacheKey := "fraud:analysis:account:" + accountID
	if cached, ok := s.cachedResult(ctx, cacheKey); ok {
		analysesTotal.WithLabelValues("multiaccount", "cached").Inc()
		return cached.Alert, nil
	}

	start := time.Now()

	data, err := s.accounts.LoadAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("account not found")
		}
		return nil, common.NewInternalServerError("failed to load account")
	}

	pool, err := s.accounts.LoadCandidates(ctx, accountID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to load candidate accounts")
	}

	alert, err := s.engine.AnalyzeAccount(ctx, accountID, data, pool)
	analysisDuration.WithLabelValues("multiaccount").Observe(time.Since(start).Seconds())
	if err != nil {
		analysesTotal.WithLabelValues("multiaccount", "error").Inc()
		return nil, err
	}

	if alert != nil {
		if err := s.repo.CreateAlert(ctx, alert); err != nil {
			logger.Error("failed to persist multi-account alert",
				zap.String("account_id", accountID),
				zap.Error(err))
			return nil, common.NewInternalServerError("failed to persist alert")
		}
		alertsGeneratedTotal.WithLabelValues(string(alert.AlertType), string(alert.Severity)).Inc()
		logger.Info("multi-account alert generated",
			zap.String("alert_id", alert.ID),
			zap.String("account_id", accountID),
			zap.String("severity", string(alert.Severity)),
			zap.Float64("fraud_score", alert.FraudScore))
		analysesTotal.WithLabelValues("multiaccount", "alert").Inc()
	} else {
		analysesTotal.WithLabelValues("multiaccount", "clean").Inc()
	}

	s.storeResult(ctx, cacheKey, alert)
	return alert, nil
}

// AnalyzeRide runs the GPS trajectory analyzer for one ride and persists
// the resulting alert, if any. Rides with fewer than two points or unordered
// timestamps produce no alert rather than an error.
func (s *Service) AnalyzeRide(ctx context.Context, rideID string, points []gps.Point, device *gps.DeviceInfo, driverID, riderID string) (*models.Alert, error) {
	if rideID == "" {
		return nil, common.NewBadRequestError("ride ID is required", nil)
	}

	cacheKey := "fraud:analysis:ride:" + rideID
	if cached, ok := s.cachedResult(ctx, cacheKey); ok {
		analysesTotal.WithLabelValues("gps", "cached").Inc()
		return cached.Alert, nil
	}

	start := time.Now()
	alert := s.analyzer.AnalyzeRide(rideID, points, device, driverID, riderID)
	analysisDuration.WithLabelValues("gps").Observe(time.Since(start).Seconds())

	if alert != nil {
		if err := s.repo.CreateAlert(ctx, alert); err != nil {
			logger.Error("failed to persist GPS spoofing alert",
				zap.String("ride_id", rideID),
				zap.Error(err))
			return nil, common.NewInternalServerError("failed to persist alert")
		}
		alertsGeneratedTotal.WithLabelValues(string(alert.AlertType), string(alert.Severity)).Inc()
		logger.Info("GPS spoofing alert generated",
			zap.String("alert_id", alert.ID),
			zap.String("ride_id", rideID),
			zap.String("severity", string(alert.Severity)),
			zap.Float64("confidence", alert.Confidence))
		analysesTotal.WithLabelValues("gps", "alert").Inc()
	} else {
		analysesTotal.WithLabelValues("gps", "clean").Inc()
	}

	s.storeResult(ctx, cacheKey, alert)
	return alert, nil
}

// GetAlert retrieves a single alert by ID
func (s *Service) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	alert, err := s.repo.GetAlertByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("alert not found")
		}
		return nil, common.NewInternalServerError("failed to load alert")
	}
	return alert, nil
}

// ListAlerts retrieves alerts matching the filter, newest first
func (s *Service) ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*models.Alert, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	alerts, total, err := s.repo.ListAlerts(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalServerError("failed to list alerts")
	}
	return alerts, total, nil
}

// AcknowledgeAlert moves an active alert into the acknowledged state.
// Only active alerts can be acknowledged.
func (s *Service) AcknowledgeAlert(ctx context.Context, alertID, reviewedBy, notes string) (*models.Alert, error) {
	if reviewedBy == "" {
		return nil, common.NewBadRequestError("reviewer is required", nil)
	}

	alert, err := s.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}

	if alert.Status != models.StatusActive {
		return nil, common.NewConflictError(fmt.Sprintf("cannot acknowledge alert in %s state", alert.Status))
	}

	now := time.Now()
	alert.Status = models.StatusAcknowledged
	alert.ReviewedBy = reviewedBy
	alert.ReviewedAt = &now
	if notes != "" {
		alert.Notes = notes
	}

	if err := s.repo.UpdateAlertReview(ctx, alert); err != nil {
		return nil, common.NewInternalServerError("failed to update alert")
	}

	logger.Info("alert acknowledged",
		zap.String("alert_id", alertID),
		zap.String("reviewed_by", reviewedBy))
	return alert, nil
}

// ResolveAlert moves an active or acknowledged alert into the resolved
// state. Resolved is terminal.
func (s *Service) ResolveAlert(ctx context.Context, alertID, reviewedBy, notes string) (*models.Alert, error) {
	if reviewedBy == "" {
		return nil, common.NewBadRequestError("reviewer is required", nil)
	}

	alert, err := s.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}

	if alert.Status == models.StatusResolved {
		return nil, common.NewConflictError("alert is already resolved")
	}

	now := time.Now()
	alert.Status = models.StatusResolved
	alert.ReviewedBy = reviewedBy
	if alert.ReviewedAt == nil {
		alert.ReviewedAt = &now
	}
	alert.ResolvedAt = &now
	if notes != "" {
		alert.Notes = notes
	}

	if err := s.repo.UpdateAlertReview(ctx, alert); err != nil {
		return nil, common.NewInternalServerError("failed to update alert")
	}

	logger.Info("alert resolved",
		zap.String("alert_id", alertID),
		zap.String("reviewed_by", reviewedBy))
	return alert, nil
}

// GetStatistics aggregates alert counts over a reporting period.
// Supported periods are "24h", "7d" and "30d".
func (s *Service) GetStatistics(ctx context.Context, period string) (*models.Statistics, error) {
	var since time.Time
	switch period {
	case "", "24h":
		period = "24h"
		since = time.Now().Add(-24 * time.Hour)
	case "7d":
		since = time.Now().AddDate(0, 0, -7)
	case "30d":
		since = time.Now().AddDate(0, 0, -30)
	default:
		return nil, common.NewBadRequestError("period must be one of 24h, 7d, 30d", nil)
	}

	stats, err := s.repo.GetStatistics(ctx, since)
	if err != nil {
		return nil, common.NewInternalServerError("failed to compute statistics")
	}
	stats.Period = period
	return stats, nil
}

func (s *Service) cachedResult(ctx context.Context, key string) (*cachedAnalysis, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cached cachedAnalysis
	if err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		return nil, false
	}
	return &cached, true
}

func (s *Service) storeResult(ctx context.Context, key string, alert *models.Alert) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	cached := cachedAnalysis{Alert: alert, AnalyzedAt: time.Now()}
	if err := s.cache.SetJSON(ctx, key, cached, s.cacheTTL); err != nil {
		logger.Warn("failed to cache analysis result", zap.String("key", key), zap.Error(err))
	}
}
