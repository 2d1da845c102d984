package handlers

import (
	"context"
	"net/http"
	"time"

	"boiler_collector/internal/models"
	"boiler_collector/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockMonitoring struct {
	devices  []models.DeviceSummary
	latest   map[string]models.Snapshot
	points   []models.ReportPoint
	config   map[string]models.ConfigSnapshot
	schedule models.ActiveSchedule
	err      error

	lastQuery service.ReportQuery
	lastAt    time.Time
}

func (m *mockMonitoring) Devices(context.Context) ([]models.DeviceSummary, error) {
	return m.devices, m.err
}

func (m *mockMonitoring) Latest(_ context.Context, deviceID string) (models.Snapshot, error) {
	if m.err != nil {
		return models.Snapshot{}, m.err
	}
	s, ok := m.latest[deviceID]
	if !ok {
		return models.Snapshot{}, service.ErrNotFound
	}
	return s, nil
}

func (m *mockMonitoring) Reports(_ context.Context, _ string, q service.ReportQuery) ([]models.ReportPoint, error) {
	m.lastQuery = q
	return m.points, m.err
}

func (m *mockMonitoring) Config(_ context.Context, deviceID string) (models.ConfigSnapshot, error) {
	if m.err != nil {
		return models.ConfigSnapshot{}, m.err
	}
	c, ok := m.config[deviceID]
	if !ok {
		return models.ConfigSnapshot{}, service.ErrNotFound
	}
	return c, nil
}

func (m *mockMonitoring) ActiveSchedule(_ context.Context, _ string, at time.Time) (models.ActiveSchedule, error) {
	m.lastAt = at
	return m.schedule, m.err
}

type mockEventLog struct {
	resp   []models.CollectorEvent
	err    error
	last   service.LogFilter
	called int
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.CollectorEvent, error) {
	m.called++
	m.last = f
	return m.resp, m.err
}

type mockCollectors []models.CollectorStatus

func (m mockCollectors) Status() []models.CollectorStatus { return m }

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func authedRequest(method, target string) *http.Request {
	req, _ := http.NewRequest(method, target, nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
