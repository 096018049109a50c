package repositories

import (
	"context"
	"time"

	"school-equiplend/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// EquipmentFilter narrows an equipment search
type EquipmentFilter struct {
	Category     string
	Availability *bool
	Search       string
}

// EquipmentRepository defines equipment catalog interface
type EquipmentRepository interface {
	Create(ctx context.Context, equipment *models.Equipment) error
	GetByID(ctx context.Context, id uint) (*models.Equipment, error)
	Search(ctx context.Context, filter EquipmentFilter, offset, limit int) ([]*models.Equipment, int64, error)
	Categories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) (int64, error)
}

// RequestFilter narrows a borrow request listing
type RequestFilter struct {
	Status      string
	UserID      uint
	EquipmentID uint
}

// AdmissionCheck decides whether a new request may be stored, given the
// locked equipment row and the number of active requests overlapping it.
type AdmissionCheck func(equipment *models.Equipment, overlapping int64) error

// TransitionFunc inspects the locked current row and returns the columns to update
type TransitionFunc func(current *models.BorrowRequest) (map[string]interface{}, error)

// BorrowRequestRepository defines the borrow request ledger interface
type BorrowRequestRepository interface {
	CreateAdmitted(ctx context.Context, req *models.BorrowRequest, check AdmissionCheck) error
	GetByID(ctx context.Context, id uint) (*models.BorrowRequest, error)
	List(ctx context.Context, filter RequestFilter, offset, limit int) ([]*models.BorrowRequest, int64, error)
	Transition(ctx context.Context, id uint, fn TransitionFunc) error
	ExistsForEquipment(ctx context.Context, equipmentID uint, statuses ...string) (bool, error)
	ListOverdue(ctx context.Context, today time.Time) ([]*models.BorrowRequest, error)
}

// DateRange bounds report queries on request creation time, [From, To)
type DateRange struct {
	From time.Time
	To   time.Time
}

// StatusCount is one row of the status distribution
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// EquipmentCount is one row of the most-borrowed equipment report
type EquipmentCount struct {
	EquipmentID       uint   `json:"equipmentId"`
	BorrowCount       int64  `json:"borrowCount"`
	EquipmentName     string `json:"equipmentName"`
	EquipmentCategory string `json:"equipmentCategory"`
}

// UserCount is one row of the most-active users report
type UserCount struct {
	UserID       uint   `json:"userId"`
	RequestCount int64  `json:"requestCount"`
	UserName     string `json:"userName"`
	UserEmail    string `json:"userEmail"`
}

// ReportRepository defines read-only ledger aggregations
type ReportRepository interface {
	StatusDistribution(ctx context.Context, r *DateRange) ([]StatusCount, error)
	PopularEquipment(ctx context.Context, r *DateRange, limit int) ([]EquipmentCount, error)
	ActiveUsers(ctx context.Context, r *DateRange, limit int) ([]UserCount, error)
	// Summary counts the catalog and the ledger; a non-zero userID limits
	// the request counts to that user
	Summary(ctx context.Context, userID uint) (*Summary, error)
}

// Summary holds the dashboard headline counts
type Summary struct {
	TotalEquipment     int64 `json:"totalEquipment"`
	AvailableEquipment int64 `json:"availableEquipment"`
	TotalRequests      int64 `json:"totalRequests"`
	PendingRequests    int64 `json:"pendingRequests"`
}
