package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"school-equiplend/internal/adapters/cache"
	"school-equiplend/internal/adapters/persistence/models"
	"school-equiplend/internal/adapters/persistence/repositories"
	"school-equiplend/internal/config"
	"school-equiplend/internal/pkg/metrics"
	"school-equiplend/internal/pkg/pagination"
	"school-equiplend/internal/pkg/testdb"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fixedNow is the reference instant of every service test
var fixedNow = time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)

type env struct {
	db        *gorm.DB
	cfg       *config.Config
	metrics   *metrics.Metrics
	cache     *memoryCache
	auth      *AuthService
	equipment *EquipmentService
	requests  *RequestService
	reports   *ReportService
	users     repositories.UserRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testdb.New(t)
	log := zap.NewNop()
	m := metrics.New(prometheus.NewRegistry())
	cfg := &config.Config{AppMode: "dev", JWT: config.JWTConfig{Secret: "test-secret", AccessTokenMins: 60}}

	userRepo := repositories.NewUserRepository(db)
	equipmentRepo := repositories.NewEquipmentRepository(db)
	requestRepo := repositories.NewBorrowRequestRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	mc := &memoryCache{}

	var mu sync.Mutex
	seq := 0
	refs := func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("REF%06d", seq)
	}
	clock := func() time.Time { return fixedNow }

	return &env{
		db:        db,
		cfg:       cfg,
		metrics:   m,
		cache:     mc,
		auth:      NewAuthService(userRepo, cfg, log),
		equipment: NewEquipmentService(equipmentRepo, requestRepo, mc, log),
		requests:  NewRequestService(requestRepo, userRepo, m, log, WithClock(clock), WithReferenceGenerator(refs)),
		reports:   NewReportService(reportRepo, requestRepo, log, clock),
		users:     userRepo,
	}
}

func (e *env) user(t *testing.T, name, role string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@school.edu", Password: "x", Role: role}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *env) item(t *testing.T, name string, qty int, available bool) *models.Equipment {
	t.Helper()
	item, err := e.equipment.Create(context.Background(), EquipmentFields{
		"name":         raw(name),
		"category":     raw("General"),
		"quantity":     raw(qty),
		"availability": raw(available),
	})
	require.NoError(t, err)
	return item
}

func (e *env) borrow(t *testing.T, userID, equipmentID uint, from, to string) (*models.BorrowRequestResponse, error) {
	t.Helper()
	return e.requests.CreateRequest(context.Background(), userID, &CreateRequestInput{
		EquipmentID:   raw(equipmentID),
		Purpose:       "class",
		RequestedDate: from,
		DueDate:       to,
	})
}

func (e *env) mustBorrow(t *testing.T, userID, equipmentID uint, from, to string) *models.BorrowRequestResponse {
	t.Helper()
	r, err := e.borrow(t, userID, equipmentID, from, to)
	require.NoError(t, err)
	return r
}

func raw(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func page(n, limit int) *pagination.Params {
	return pagination.NewParams(n, limit)
}

// memoryCache is an in-process CategoryCache that counts calls
type memoryCache struct {
	mu          sync.Mutex
	value       []string
	ok          bool
	sets        int
	invalidated int
}

func (c *memoryCache) Get(context.Context) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.ok, nil
}

func (c *memoryCache) Set(_ context.Context, v []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value, c.ok = v, true
	c.sets++
	return nil
}

func (c *memoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value, c.ok = nil, false
	c.invalidated++
	return nil
}

var _ CategoryCache = (*memoryCache)(nil)
var _ CategoryCache = cache.NoopCategoryCache{}
