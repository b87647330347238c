package fraud

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/trust-safety/internal/gps"
	"github.com/richxcame/trust-safety/pkg/common"
	"github.com/richxcame/trust-safety/pkg/models"
)

type mockAlertService struct {
	mock.Mock
}

func (m *mockAlertService) AnalyzeAccount(ctx context.Context, accountID string) (*models.Alert, error) {
	args := m.Called(ctx, accountID)
	alert, _ := args.Get(0).(*models.Alert)
	return alert, args.Error(1)
}

func (m *mockAlertService) AnalyzeRide(ctx context.Context, rideID string, points []gps.Point, device *gps.DeviceInfo, driverID, riderID string) (*models.Alert, error) {
	args := m.Called(ctx, rideID, points, device, driverID, riderID)
	alert, _ := args.Get(0).(*models.Alert)
	return alert, args.Error(1)
}

func (m *mockAlertService) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	args := m.Called(ctx, alertID)
	alert, _ := args.Get(0).(*models.Alert)
	return alert, args.Error(1)
}

func (m *mockAlertService) ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*models.Alert, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	alerts, _ := args.Get(0).([]*models.Alert)
	return alerts, args.Get(1).(int64), args.Error(2)
}

func (m *mockAlertService) AcknowledgeAlert(ctx context.Context, alertID, reviewedBy, notes string) (*models.Alert, error) {
	args := m.Called(ctx, alertID, reviewedBy, notes)
	alert, _ := args.Get(0).(*models.Alert)
	return alert, args.Error(1)
}

func (m *mockAlertService) ResolveAlert(ctx context.Context, alertID, reviewedBy, notes string) (*models.Alert, error) {
	args := m.Called(ctx, alertID, reviewedBy, notes)
	alert, _ := args.Get(0).(*models.Alert)
	return alert, args.Error(1)
}

func (m *mockAlertService) GetStatistics(ctx context.Context, period string) (*models.Statistics, error) {
	args := m.Called(ctx, period)
	stats, _ := args.Get(0).(*models.Statistics)
	return stats, args.Error(1)
}

func setupRouter(service AlertService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(service).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeAccountEndpoint(t *testing.T) {
	service := new(mockAlertService)
	alert := models.NewAlert(models.AlertTypeMultiAccounting, "account", "acc-1")
	service.On("AnalyzeAccount", mock.Anything, "acc-1").Return(alert, nil)

	w := doJSON(setupRouter(service), http.MethodPost, "/api/v1/fraud/analyze/account",
		gin.H{"account_id": "acc-1"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Alert *models.Alert `json:"alert"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data.Alert)
	assert.Equal(t, alert.ID, resp.Data.Alert.ID)
	service.AssertExpectations(t)
}

func TestAnalyzeAccountEndpointRequiresAccountID(t *testing.T) {
	service := new(mockAlertService)
	w := doJSON(setupRouter(service), http.MethodPost, "/api/v1/fraud/analyze/account", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "AnalyzeAccount", mock.Anything, mock.Anything)
}

func TestAnalyzeGPSEndpoint(t *testing.T) {
	service := new(mockAlertService)
	service.On("AnalyzeRide", mock.Anything, "ride-1", mock.Anything, mock.Anything, "drv-1", "usr-1").Return(nil, nil)

	body := gin.H{
		"ride_id":   "ride-1",
		"driver_id": "drv-1",
		"rider_id":  "usr-1",
		"points": []gin.H{
			{"latitude": 14.60, "longitude": 121.00, "timestamp": 0},
			{"latitude": 14.61, "longitude": 121.01, "timestamp": 60000},
		},
	}
	w := doJSON(setupRouter(service), http.MethodPost, "/api/v1/fraud/analyze/gps", body)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestAnalyzeGPSEndpointRequiresTwoPoints(t *testing.T) {
	service := new(mockAlertService)
	body := gin.H{
		"ride_id": "ride-1",
		"points":  []gin.H{{"latitude": 14.60, "longitude": 121.00, "timestamp": 0}},
	}
	w := doJSON(setupRouter(service), http.MethodPost, "/api/v1/fraud/analyze/gps", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "AnalyzeRide", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListAlertsEndpointPassesFilter(t *testing.T) {
	service := new(mockAlertService)
	filter := AlertFilter{Status: models.StatusActive, AlertType: models.AlertTypeGPSSpoofing}
	service.On("ListAlerts", mock.Anything, filter, 5, 10).Return([]*models.Alert{}, int64(0), nil)

	w := doJSON(setupRouter(service), http.MethodGet,
		"/api/v1/fraud/alerts?status=active&type=gps_spoofing&limit=5&offset=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestGetAlertEndpointNotFound(t *testing.T) {
	service := new(mockAlertService)
	service.On("GetAlert", mock.Anything, "missing").Return(nil, common.NewNotFoundError("alert not found"))

	w := doJSON(setupRouter(service), http.MethodGet, "/api/v1/fraud/alerts/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAcknowledgeEndpointRequiresReviewer(t *testing.T) {
	service := new(mockAlertService)
	w := doJSON(setupRouter(service), http.MethodPost, "/api/v1/fraud/alerts/a1/acknowledge", gin.H{"notes": "x"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "AcknowledgeAlert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveEndpoint(t *testing.T) {
	service := new(mockAlertService)
	resolved := models.NewAlert(models.AlertTypeGPSSpoofing, "ride", "ride-1")
	resolved.Status = models.StatusResolved
	service.On("ResolveAlert", mock.Anything, resolved.ID, "ops-maria", "confirmed spoofing").Return(resolved, nil)

	w := doJSON(setupRouter(service), http.MethodPost, "/api/v1/fraud/alerts/"+resolved.ID+"/resolve",
		gin.H{"reviewed_by": "ops-maria", "notes": "confirmed spoofing"})

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestStatsEndpoint(t *testing.T) {
	service := new(mockAlertService)
	service.On("GetStatistics", mock.Anything, "24h").Return(&models.Statistics{Period: "24h", TotalAlerts: 3}, nil)

	w := doJSON(setupRouter(service), http.MethodGet, "/api/v1/fraud/stats?period=24h", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data models.Statistics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Data.TotalAlerts)
}
