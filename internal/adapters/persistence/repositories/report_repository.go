package repositories

import (
	"context"

	"school-equiplend/internal/adapters/persistence/models"
	"school-equiplend/internal/core/domain"

	"gorm.io/gorm"
)

// reportRepository implements ReportRepository interface
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func inRange(q *gorm.DB, column string, r *DateRange) *gorm.DB {
	if r == nil {
		return q
	}
	return q.Where(column+" >= ? AND "+column+" < ?", r.From, r.To)
}

// StatusDistribution counts requests per status
func (r *reportRepository) StatusDistribution(ctx context.Context, dr *DateRange) ([]StatusCount, error) {
	rows := []StatusCount{}
	q := r.db.WithContext(ctx).Model(&models.BorrowRequest{}).
		Select("status, COUNT(*) AS count")
	err := inRange(q, "created_at", dr).
		Group("status").
		Order("status ASC").
		Scan(&rows).Error
	return rows, err
}

// PopularEquipment returns the most requested equipment
func (r *reportRepository) PopularEquipment(ctx context.Context, dr *DateRange, limit int) ([]EquipmentCount, error) {
	rows := []EquipmentCount{}
	q := r.db.WithContext(ctx).Table("borrow_requests AS br").
		Select("br.equipment_id, COUNT(br.id) AS borrow_count, e.name AS equipment_name, e.category AS equipment_category").
		Joins("JOIN equipment e ON e.id = br.equipment_id")
	err := inRange(q, "br.created_at", dr).
		Group("br.equipment_id, e.name, e.category").
		Order("borrow_count DESC").
		Order("br.equipment_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// ActiveUsers returns the users with the most requests
func (r *reportRepository) ActiveUsers(ctx context.Context, dr *DateRange, limit int) ([]UserCount, error) {
	rows := []UserCount{}
	q := r.db.WithContext(ctx).Table("borrow_requests AS br").
		Select("br.user_id, COUNT(br.id) AS request_count, u.name AS user_name, u.email AS user_email").
		Joins("JOIN users u ON u.id = br.user_id")
	err := inRange(q, "br.created_at", dr).
		Group("br.user_id, u.name, u.email").
		Order("request_count DESC").
		Order("br.user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// Summary counts equipment and requests
func (r *reportRepository) Summary(ctx context.Context, userID uint) (*Summary, error) {
	var sum Summary
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Equipment{}).Count(&sum.TotalEquipment).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Equipment{}).Where("availability = ?", true).Count(&sum.AvailableEquipment).Error; err != nil {
		return nil, err
	}

	requests := func() *gorm.DB {
		q := db.Model(&models.BorrowRequest{})
		if userID != 0 {
			q = q.Where("user_id = ?", userID)
		}
		return q
	}
	if err := requests().Count(&sum.TotalRequests).Error; err != nil {
		return nil, err
	}
	if err := requests().Where("status = ?", string(domain.StatusPending)).Count(&sum.PendingRequests).Error; err != nil {
		return nil, err
	}
	return &sum, nil
}
