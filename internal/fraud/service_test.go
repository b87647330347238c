package fraud

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/trust-safety/internal/geo"
	"github.com/richxcame/trust-safety/internal/gps"
	"github.com/richxcame/trust-safety/internal/multiaccount"
	"github.com/richxcame/trust-safety/internal/similarity"
	"github.com/richxcame/trust-safety/pkg/common"
	"github.com/richxcame/trust-safety/pkg/models"
)

type mockAlertRepository struct {
	mock.Mock
}

func (m *mockAlertRepository) CreateAlert(ctx context.Context, alert *models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *mockAlertRepository) GetAlertByID(ctx context.Context, alertID string) (*models.Alert, error) {
	args := m.Called(ctx, alertID)
	alert, _ := args.Get(0).(*models.Alert)
	return alert, args.Error(1)
}

func (m *mockAlertRepository) ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*models.Alert, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	alerts, _ := args.Get(0).([]*models.Alert)
	return alerts, args.Get(1).(int64), args.Error(2)
}

func (m *mockAlertRepository) UpdateAlertReview(ctx context.Context, alert *models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *mockAlertRepository) GetStatistics(ctx context.Context, since time.Time) (*models.Statistics, error) {
	args := m.Called(ctx, since)
	stats, _ := args.Get(0).(*models.Statistics)
	return stats, args.Error(1)
}

type mockAccountLoader struct {
	mock.Mock
}

func (m *mockAccountLoader) LoadAccount(ctx context.Context, accountID string) (*multiaccount.AccountData, error) {
	args := m.Called(ctx, accountID)
	data, _ := args.Get(0).(*multiaccount.AccountData)
	return data, args.Error(1)
}

func (m *mockAccountLoader) LoadCandidates(ctx context.Context, accountID string) ([]*multiaccount.AccountData, error) {
	args := m.Called(ctx, accountID)
	pool, _ := args.Get(0).([]*multiaccount.AccountData)
	return pool, args.Error(1)
}

func newTestService(repo AlertRepository, loader AccountLoader) *Service {
	engine := multiaccount.NewEngine(multiaccount.DefaultConfig(), nil)
	analyzer := gps.NewAnalyzer(gps.DefaultConfig())
	return NewService(repo, loader, engine, analyzer, nil, 0)
}

func testAccount(id string) *multiaccount.AccountData {
	return &multiaccount.AccountData{
		AccountID: id,
		FullName:  "Juan Dela Cruz",
		Email:     "juan.delacruz@gmail.com",
		Phone:     "09171234567",
		Address:   similarity.Address{Street: "123 Rizal St", Barangay: "Poblacion", City: "Makati"},
		Device: &multiaccount.DeviceFingerprint{
			DeviceID: "device-abc-123", Model: "Samsung Galaxy A54", Platform: "android", OSVersion: "13", AppVersion: "4.2.1",
		},
		Network: &multiaccount.NetworkProfile{
			IPAddresses: []string{"110.54.1.1", "110.54.1.2"}, Carrier: "Globe", WifiSSIDs: []string{"HomeWifi-5G"},
		},
		HomeLocation:      &geo.Point{Latitude: 14.5547, Longitude: 121.0244},
		FrequentLocations: []geo.Point{{Latitude: 14.5547, Longitude: 121.0244}},
		CreatedAt:         time.Now().AddDate(0, -6, 0),
		LastActivity:      time.Now(),
	}
}

func spoofedTrace() []gps.Point {
	return []gps.Point{
		{Latitude: 14.65, Longitude: 121.05, Timestamp: 0},
		{Latitude: 14.65, Longitude: 121.51, Timestamp: 1000},
	}
}

func TestAnalyzeAccountPersistsAlert(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAlertRepository)
	loader := new(mockAccountLoader)
	service := newTestService(repo, loader)

	loader.On("LoadAccount", ctx, "acc-1").Return(testAccount("acc-1"), nil)
	loader.On("LoadCandidates", ctx, "acc-1").Return([]*multiaccount.AccountData{testAccount("acc-2")}, nil)
	repo.On("CreateAlert", ctx, mock.AnythingOfType("*models.Alert")).Return(nil)

	alert, err := service.AnalyzeAccount(ctx, "acc-1")
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, models.AlertTypeMultiAccounting, alert.AlertType)
	assert.Equal(t, "acc-1", alert.SubjectID)

	repo.AssertExpectations(t)
	loader.AssertExpectations(t)
}

func TestAnalyzeAccountCleanResultIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAlertRepository)
	loader := new(mockAccountLoader)
	service := newTestService(repo, loader)

	loader.On("LoadAccount", ctx, "acc-1").Return(testAccount("acc-1"), nil)
	loader.On("LoadCandidates", ctx, "acc-1").Return([]*multiaccount.AccountData{}, nil)

	alert, err := service.AnalyzeAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.Nil(t, alert)

	repo.AssertNotCalled(t, "CreateAlert", mock.Anything, mock.Anything)
}

func TestAnalyzeAccountRequiresID(t *testing.T) {
	service := newTestService(new(mockAlertRepository), new(mockAccountLoader))

	_, err := service.AnalyzeAccount(context.Background(), "")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}

func TestAnalyzeAccountUnknownAccount(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAlertRepository)
	loader := new(mockAccountLoader)
	service := newTestService(repo, loader)

	loader.On("LoadAccount", ctx, "acc-missing").Return(nil, pgx.ErrNoRows)

	_, err := service.AnalyzeAccount(ctx, "acc-missing")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}

func TestAnalyzeRidePersistsAlert(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAlertRepository)
	service := newTestService(repo, new(mockAccountLoader))

	device := &gps.DeviceInfo{InstalledApps: []string{"Fake GPS Free"}}
	repo.On("CreateAlert", ctx, mock.AnythingOfType("*models.Alert")).Return(nil)

	alert, err := service.AnalyzeRide(ctx, "ride-1", spoofedTrace(), device, "drv-1", "usr-1")
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, models.AlertTypeGPSSpoofing, alert.AlertType)

	repo.AssertExpectations(t)
}

func TestAnalyzeRideInvalidTraceYieldsNoAlert(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAlertRepository)
	service := newTestService(repo, new(mockAccountLoader))

	alert, err := service.AnalyzeRide(ctx, "ride-1", []gps.Point{{Latitude: 14.6, Longitude: 121.0}}, nil, "", "")
	require.NoError(t, err)
	assert.Nil(t, alert)

	repo.AssertNotCalled(t, "CreateAlert", mock.Anything, mock.Anything)
}

func TestAcknowledgeAlert(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAlertRepository)
	service := newTestService(repo, new(mockAccountLoader))

	stored := models.NewAlert(models.AlertTypeGPSSpoofing, "ride", "ride-1")
	repo.On("GetAlertByID", ctx, stored.ID).Return(stored, nil)
	repo.On("UpdateAlertReview", ctx, mock.AnythingOfType("*models.Alert")).Return(nil)

	alert, err := service.AcknowledgeAlert(ctx, stored.ID, "ops-maria", "checking with driver")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAcknowledged, alert.Status)
	assert.Equal(t, "ops-maria", alert.ReviewedBy)
	assert.NotNil(t, alert.ReviewedAt)
	assert.Equal(t, "checking with driver", alert.Notes)
}

func TestAcknowledgeAlertOnlyFromActive(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAlertRepository)
	service := newTestService(repo, new(mockAccountLoader))

	stored := models.NewAlert(models.AlertTypeGPSSpoofing, "ride", "ride-1")
	stored.Status = models.StatusResolved
	repo.On("GetAlertByID", ctx, stored.ID).Return(stored, nil)

	_, err := service.AcknowledgeAlert(ctx, stored.ID, "ops-maria", "")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.Code)
}

func TestResolveAlertFromAcknowledged(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAlertRepository)
	service := newTestService(repo, new(mockAccountLoader))

	stored := models.NewAlert(models.AlertTypeMultiAccounting, "account", "acc-1")
	stored.Status = models.StatusAcknowledged
	repo.On("GetAlertByID", ctx, stored.ID).Return(stored, nil)
	repo.On("UpdateAlertReview", ctx, mock.AnythingOfType("*models.Alert")).Return(nil)

	alert, err := service.ResolveAlert(ctx, stored.ID, "ops-maria", "false positive, family plan")
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, alert.Status)
	assert.NotNil(t, alert.ResolvedAt)
}

func TestResolveAlertIsTerminal(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAlertRepository)
	service := newTestService(repo, new(mockAccountLoader))

	stored := models.NewAlert(models.AlertTypeMultiAccounting, "account", "acc-1")
	stored.Status = models.StatusResolved
	repo.On("GetAlertByID", ctx, stored.ID).Return(stored, nil)

	_, err := service.ResolveAlert(ctx, stored.ID, "ops-maria", "")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.Code)
}

func TestGetAlertNotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAlertRepository)
	service := newTestService(repo, new(mockAccountLoader))

	repo.On("GetAlertByID", ctx, "missing").Return(nil, pgx.ErrNoRows)

	_, err := service.GetAlert(ctx, "missing")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}

func TestListAlertsNormalizesPagination(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAlertRepository)
	service := newTestService(repo, new(mockAccountLoader))

	filter := AlertFilter{Status: models.StatusActive}
	repo.On("ListAlerts", ctx, filter, 20, 0).Return([]*models.Alert{}, int64(0), nil)

	_, _, err := service.ListAlerts(ctx, filter, -1, -5)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGetStatistics(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAlertRepository)
	service := newTestService(repo, new(mockAccountLoader))

	repo.On("GetStatistics", ctx, mock.AnythingOfType("time.Time")).Return(&models.Statistics{TotalAlerts: 7}, nil)

	stats, err := service.GetStatistics(ctx, "7d")
	require.NoError(t, err)
	assert.Equal(t, "7d", stats.Period)
	assert.Equal(t, int64(7), stats.TotalAlerts)
}

func TestGetStatisticsRejectsUnknownPeriod(t *testing.T) {
	service := newTestService(new(mockAlertRepository), new(mockAccountLoader))

	_, err := service.GetStatistics(context.Background(), "90d")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}
