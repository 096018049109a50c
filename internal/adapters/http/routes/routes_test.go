package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"school-equiplend/internal/adapters/http/middleware"
	"school-equiplend/internal/adapters/persistence/models"
	"school-equiplend/internal/adapters/persistence/repositories"
	"school-equiplend/internal/config"
	"school-equiplend/internal/pkg/metrics"
	"school-equiplend/internal/pkg/password"
	"school-equiplend/internal/pkg/testdb"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var today = time.Date(2024, 5, 20, 14, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type server struct {
	app *fiber.App
	db  *gorm.DB
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := testdb.New(t)
	cfg := &config.Config{
		AppMode:   "dev",
		JWT:       config.JWTConfig{Secret: "test-secret", AccessTokenMins: 60},
		RateLimit: config.RateLimitConfig{PerMinute: 10000, AuthPerMinute: 10000},
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	middleware.Setup(app, cfg, m)
	Setup(app, Deps{
		DB:       db,
		Cfg:      cfg,
		Log:      zap.NewNop(),
		Metrics:  m,
		Gatherer: reg,
		Clock:    func() time.Time { return today },
	})
	return &server{app: app, db: db}
}

func (s *server) raw(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *server) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	resp := s.raw(t, method, path, token, body)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

// login creates a user with the given role directly in storage and returns its token
func (s *server) login(t *testing.T, name, role string) (uint, string) {
	t.Helper()
	hash, err := password.Hash("password1")
	require.NoError(t, err)
	u := &models.User{Name: name, Email: name + "@school.edu", Password: hash, Role: role}
	require.NoError(t, repositories.NewUserRepository(s.db).Create(context.Background(), u))

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email": u.Email, "password": "password1",
	})
	require.Equal(t, http.StatusOK, code, env.Error)

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return u.ID, out.AccessToken
}

func (s *server) createEquipment(t *testing.T, token string, body fiber.Map) models.Equipment {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/equipment", token, body)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var item models.Equipment
	require.NoError(t, json.Unmarshal(env.Data, &item))
	return item
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type requestView struct {
	ID           uint    `json:"id"`
	Reference    string  `json:"reference"`
	Status       string  `json:"status"`
	ReturnedDate *string `json:"returnedDate"`
	ApprovedBy   *uint   `json:"approvedBy"`
	Equipment    *struct {
		Name string `json:"name"`
	} `json:"equipment"`
	User *struct {
		Email string `json:"email"`
	} `json:"user"`
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)

	resp := s.raw(t, http.MethodGet, "/health", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "healthy", health.Checks["database"])
	assert.NotContains(t, health.Checks, "cache")

	root := s.raw(t, http.MethodGet, "/", "", nil)
	root.Body.Close()
	assert.Equal(t, http.StatusOK, root.StatusCode)

	metricsResp := s.raw(t, http.MethodGet, "/metrics", "", nil)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "equiplend_http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t)
	_, adminToken := s.login(t, "root", "admin")

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", fiber.Map{
		"name": "Ana", "email": "ana@school.edu", "password": "password1",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = s.do(t, http.MethodPost, "/api/v1/auth/signup", "", fiber.Map{
		"name": "Ana", "email": "ana@school.edu", "password": "password1",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)

	staff := fiber.Map{"name": "Sam", "email": "sam@school.edu", "password": "password1", "role": "staff"}
	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/signup", "", staff)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/signup", adminToken, staff)
	assert.Equal(t, http.StatusCreated, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email": "ana@school.edu", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid email or password", env.Error)

	code, _ = s.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(t, http.MethodGet, "/api/v1/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/auth/me", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[struct {
		User models.UserResponse `json:"user"`
	}](t, env)
	assert.Equal(t, "admin", me.User.Role)
}

func TestRoleGates(t *testing.T) {
	s := newServer(t)
	_, student := s.login(t, "ana", "student")
	_, staff := s.login(t, "sam", "staff")

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/api/v1/equipment", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/equipment", student, http.StatusForbidden},
		{http.MethodPut, "/api/v1/equipment/1", staff, http.StatusForbidden},
		{http.MethodDelete, "/api/v1/equipment/1", student, http.StatusForbidden},
		{http.MethodGet, "/api/v1/requests/overdue", student, http.StatusForbidden},
		{http.MethodGet, "/api/v1/requests/overdue", staff, http.StatusOK},
		{http.MethodGet, "/api/v1/requests/analytics", staff, http.StatusForbidden},
		{http.MethodPut, "/api/v1/requests/1/status", student, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			code, _ := s.do(t, tc.method, tc.path, tc.token, fiber.Map{})
			assert.Equal(t, tc.want, code)
		})
	}
}

func TestCapacityScenario(t *testing.T) {
	s := newServer(t)
	_, admin := s.login(t, "root", "admin")
	_, studentA := s.login(t, "ana", "student")
	_, studentB := s.login(t, "ben", "student")
	item := s.createEquipment(t, admin, fiber.Map{"name": "Microscope", "category": "Science", "quantity": 1})

	code, env := s.do(t, http.MethodPost, "/api/v1/requests", studentA, fiber.Map{
		"equipmentId": item.ID, "purpose": "lab", "requestedDate": "2024-06-01", "dueDate": "2024-06-05",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	a := decode[requestView](t, env)
	assert.Equal(t, "PENDING", a.Status)
	assert.NotEmpty(t, a.Reference)

	b := fiber.Map{
		"equipmentId": fmt.Sprint(item.ID), "purpose": "lab", "requestedDate": "2024-06-03", "dueDate": "2024-06-04",
	}
	code, env = s.do(t, http.MethodPost, "/api/v1/requests", studentB, b)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, env.Error, "all units are booked")

	code, env = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/requests/%d/status", a.ID), admin, fiber.Map{"status": "REJECTED"})
	require.Equal(t, http.StatusOK, code, env.Error)
	rejected := decode[requestView](t, env)
	assert.Equal(t, "REJECTED", rejected.Status)
	require.NotNil(t, rejected.ApprovedBy)

	code, env = s.do(t, http.MethodPost, "/api/v1/requests", studentB, b)
	require.Equal(t, http.StatusCreated, code, env.Error)

	// a terminal request cannot be reopened
	code, _ = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/requests/%d/status", a.ID), admin, fiber.Map{"status": "APPROVED"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestUnavailableEquipmentRefused(t *testing.T) {
	s := newServer(t)
	_, admin := s.login(t, "root", "admin")
	_, student := s.login(t, "ana", "student")
	item := s.createEquipment(t, admin, fiber.Map{"name": "Projector", "category": "AV", "availability": false})

	code, env := s.do(t, http.MethodPost, "/api/v1/requests", student, fiber.Map{
		"equipmentId": item.ID, "purpose": "talk", "requestedDate": "2024-06-01", "dueDate": "2024-06-01",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Equipment not available", env.Error)

	code, _ = s.do(t, http.MethodPost, "/api/v1/requests", student, fiber.Map{
		"equipmentId": 9999, "purpose": "talk", "requestedDate": "2024-06-01", "dueDate": "2024-06-01",
	})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/requests", student, fiber.Map{
		"equipmentId": "abc", "purpose": "talk", "requestedDate": "2024-06-01", "dueDate": "2024-06-01",
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDeletionScenario(t *testing.T) {
	s := newServer(t)
	_, admin := s.login(t, "root", "admin")
	_, student := s.login(t, "ana", "student")

	unused := s.createEquipment(t, admin, fiber.Map{"name": "Globe", "category": "Geography"})
	code, env := s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/equipment/%d", unused.ID), admin, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, "Equipment deleted successfully", env.Message)

	code, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/equipment/%d", unused.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	used := s.createEquipment(t, admin, fiber.Map{"name": "Telescope", "category": "Science"})
	code, env = s.do(t, http.MethodPost, "/api/v1/requests", student, fiber.Map{
		"equipmentId": used.ID, "purpose": "astronomy club", "requestedDate": "2024-06-01", "dueDate": "2024-06-02",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	req := decode[requestView](t, env)

	code, env = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/equipment/%d", used.ID), admin, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, env.Error, "active borrow requests")

	code, _ = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/requests/%d/return", req.ID), student, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/equipment/%d", used.ID), admin, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, env.Error, "borrowing history")

	code, _ = s.do(t, http.MethodDelete, "/api/v1/equipment/x1", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestReturnFromPending(t *testing.T) {
	s := newServer(t)
	_, admin := s.login(t, "root", "admin")
	_, student := s.login(t, "ana", "student")
	item := s.createEquipment(t, admin, fiber.Map{"name": "Camera", "category": "Media", "quantity": "2"})

	_, env := s.do(t, http.MethodPost, "/api/v1/requests", student, fiber.Map{
		"equipmentId": item.ID, "purpose": "yearbook", "requestedDate": "2024-06-01", "dueDate": "2024-06-02",
	})
	req := decode[requestView](t, env)

	code, env := s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/requests/%d/return", req.ID), student, fiber.Map{"notes": "not needed"})
	require.Equal(t, http.StatusOK, code, env.Error)
	returned := decode[requestView](t, env)
	assert.Equal(t, "RETURNED", returned.Status)
	require.NotNil(t, returned.ReturnedDate)
	assert.Equal(t, "2024-05-20", *returned.ReturnedDate)

	code, _ = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/requests/%d/return", req.ID), student, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPut, "/api/v1/requests/999/return", student, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/requests/%d/status", req.ID), admin, fiber.Map{"status": "LOST"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestEquipmentPaginationAndUpdate(t *testing.T) {
	s := newServer(t)
	_, admin := s.login(t, "root", "admin")
	_, student := s.login(t, "ana", "student")

	for i := 0; i < 15; i++ {
		s.createEquipment(t, admin, fiber.Map{"name": fmt.Sprintf("Ball %02d", i), "category": "Sports"})
	}

	code, env := s.do(t, http.MethodGet, "/api/v1/equipment?page=2&limit=10", student, nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[struct {
		Items       []models.Equipment `json:"items"`
		TotalCount  int64              `json:"totalCount"`
		CurrentPage int                `json:"currentPage"`
		TotalPages  int                `json:"totalPages"`
	}](t, env)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, int64(15), page.TotalCount)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "Ball 10", page.Items[0].Name)

	code, env = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/equipment/%d", page.Items[0].ID), admin, fiber.Map{
		"quantity": "4", "availability": "false", "updatedAt": "1999-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, code, env.Error)
	updated := decode[models.Equipment](t, env)
	assert.Equal(t, 4, updated.Quantity)
	assert.False(t, updated.Availability)

	code, _ = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/equipment/%d", page.Items[0].ID), admin, fiber.Map{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/equipment/categories", student, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"Sports"}, decode[[]string](t, env))
}

func TestLedgerListOverdueAndAnalytics(t *testing.T) {
	s := newServer(t)
	_, admin := s.login(t, "root", "admin")
	anaID, ana := s.login(t, "ana", "student")
	_, ben := s.login(t, "ben", "student")
	item := s.createEquipment(t, admin, fiber.Map{"name": "Laptop", "category": "IT", "quantity": 5})

	borrow := func(token, from, to string) requestView {
		code, env := s.do(t, http.MethodPost, "/api/v1/requests", token, fiber.Map{
			"equipmentId": item.ID, "purpose": "project", "requestedDate": from, "dueDate": to,
		})
		require.Equal(t, http.StatusCreated, code, env.Error)
		return decode[requestView](t, env)
	}

	late := borrow(ana, "2024-05-01", "2024-05-10")
	borrow(ana, "2024-06-01", "2024-06-02")
	borrow(ben, "2024-06-01", "2024-06-02")

	code, env := s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/requests/%d/status", late.ID), admin, fiber.Map{
		"status": "APPROVED", "notes": "take the charger",
	})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/requests?userId=%d", anaID), ben, nil)
	require.Equal(t, http.StatusOK, code)
	list := decode[struct {
		Items      []requestView `json:"items"`
		TotalCount int64         `json:"totalCount"`
	}](t, env)
	assert.Equal(t, int64(2), list.TotalCount)
	assert.Greater(t, list.Items[0].ID, list.Items[1].ID)
	require.NotNil(t, list.Items[0].Equipment)
	assert.Equal(t, "Laptop", list.Items[0].Equipment.Name)
	require.NotNil(t, list.Items[0].User)
	assert.Equal(t, "ana@school.edu", list.Items[0].User.Email)

	code, _ = s.do(t, http.MethodGet, "/api/v1/requests?status=maybe", ben, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/requests/overdue", admin, nil)
	require.Equal(t, http.StatusOK, code)
	overdue := decode[[]struct {
		ID          uint `json:"id"`
		DaysOverdue int  `json:"daysOverdue"`
	}](t, env)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)
	assert.Equal(t, 10, overdue[0].DaysOverdue)

	code, env = s.do(t, http.MethodGet, "/api/v1/requests/analytics", admin, nil)
	require.Equal(t, http.StatusOK, code)
	analytics := decode[struct {
		StatusDistribution []repositories.StatusCount `json:"statusDistribution"`
		ActiveUsers        []repositories.UserCount   `json:"activeUsers"`
	}](t, env)
	assert.Len(t, analytics.StatusDistribution, 2)
	require.NotEmpty(t, analytics.ActiveUsers)
	assert.Equal(t, "ana@school.edu", analytics.ActiveUsers[0].UserEmail)

	code, _ = s.do(t, http.MethodGet, "/api/v1/requests/analytics?startDate=2024-06-30&endDate=2024-06-01", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/dashboard", ben, nil)
	require.Equal(t, http.StatusOK, code)
	dash := decode[struct {
		Role           string        `json:"role"`
		TotalRequests  int64         `json:"totalRequests"`
		OverdueCount   *int          `json:"overdueCount"`
		RecentRequests []requestView `json:"recentRequests"`
	}](t, env)
	assert.Equal(t, "student", dash.Role)
	assert.Equal(t, int64(1), dash.TotalRequests)
	assert.Nil(t, dash.OverdueCount)
	assert.Len(t, dash.RecentRequests, 1)
}
