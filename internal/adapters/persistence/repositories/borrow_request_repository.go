package repositories

import (
	"context"
	"time"

	"school-equiplend/internal/adapters/persistence/models"
	"school-equiplend/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// borrowRequestRepository implements BorrowRequestRepository interface
type borrowRequestRepository struct {
	db *gorm.DB
}

// NewBorrowRequestRepository creates a new borrow request repository
func NewBorrowRequestRepository(db *gorm.DB) BorrowRequestRepository {
	return &borrowRequestRepository{db: db}
}

// forUpdate adds a row lock where the dialect supports one.
// SQLite has no SELECT ... FOR UPDATE; it serializes writers instead.
func forUpdate(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "mysql", "postgres":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func activeStatuses() []string {
	out := make([]string, 0, len(domain.ActiveStatuses))
	for _, s := range domain.ActiveStatuses {
		out = append(out, string(s))
	}
	return out
}

func withSummaries(q *gorm.DB) *gorm.DB {
	summary := func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "email")
	}
	return q.Preload("Equipment").Preload("User", summary).Preload("Approver", summary)
}

// CreateAdmitted locks the equipment row, counts active overlapping requests
// and inserts req only when check accepts. All of it runs in one transaction.
func (r *borrowRequestRepository) CreateAdmitted(ctx context.Context, req *models.BorrowRequest, check AdmissionCheck) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) lock the equipment
		var equipment models.Equipment
		if err := forUpdate(tx).First(&equipment, req.EquipmentID).Error; err != nil {
			return err
		}

		// 2) count what already occupies the requested window
		var overlapping int64
		if err := tx.Model(&models.BorrowRequest{}).
			Where("equipment_id = ?", req.EquipmentID).
			Where("status IN ?", activeStatuses()).
			Where("requested_date <= ? AND due_date >= ?", req.DueDate, req.RequestedDate).
			Count(&overlapping).Error; err != nil {
			return err
		}

		if err := check(&equipment, overlapping); err != nil {
			return err
		}

		// 3) insert
		return tx.Create(req).Error
	})
}

// GetByID gets a request with its equipment, user and approver
func (r *borrowRequestRepository) GetByID(ctx context.Context, id uint) (*models.BorrowRequest, error) {
	var req models.BorrowRequest
	err := withSummaries(r.db.WithContext(ctx)).First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// List lists requests newest first
func (r *borrowRequestRepository) List(ctx context.Context, filter RequestFilter, offset, limit int) ([]*models.BorrowRequest, int64, error) {
	var requests []*models.BorrowRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.BorrowRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.EquipmentID != 0 {
		query = query.Where("equipment_id = ?", filter.EquipmentID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := withSummaries(query).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// Transition locks the request row and applies the columns returned by fn
func (r *borrowRequestRepository) Transition(ctx context.Context, id uint, fn TransitionFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.BorrowRequest
		if err := forUpdate(tx).First(&current, id).Error; err != nil {
			return err
		}

		updates, err := fn(&current)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}

		return tx.Model(&current).Updates(updates).Error
	})
}

// ExistsForEquipment reports whether any request references the equipment.
// With statuses given only those statuses count.
func (r *borrowRequestRepository) ExistsForEquipment(ctx context.Context, equipmentID uint, statuses ...string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.BorrowRequest{}).Where("equipment_id = ?", equipmentID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Limit(1).Count(&count).Error
	return count > 0, err
}

// ListOverdue lists approved requests due on or before today, oldest due first
func (r *borrowRequestRepository) ListOverdue(ctx context.Context, today time.Time) ([]*models.BorrowRequest, error) {
	var requests []*models.BorrowRequest
	err := withSummaries(r.db.WithContext(ctx)).
		Where("status = ?", string(domain.StatusApproved)).
		Where("due_date <= ?", today).
		Order("due_date ASC").
		Order("id ASC").
		Find(&requests).Error
	return requests, err
}
