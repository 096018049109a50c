package repositories

import (
	"context"
	"strings"

	"school-equiplend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// equipmentRepository implements EquipmentRepository interface
type equipmentRepository struct {
	db *gorm.DB
}

// NewEquipmentRepository creates a new equipment repository
func NewEquipmentRepository(db *gorm.DB) EquipmentRepository {
	return &equipmentRepository{db: db}
}

// Create creates a new equipment item
func (r *equipmentRepository) Create(ctx context.Context, equipment *models.Equipment) error {
	return r.db.WithContext(ctx).Create(equipment).Error
}

// GetByID gets an equipment item by ID
func (r *equipmentRepository) GetByID(ctx context.Context, id uint) (*models.Equipment, error) {
	var equipment models.Equipment
	err := r.db.WithContext(ctx).First(&equipment, id).Error
	if err != nil {
		return nil, err
	}
	return &equipment, nil
}

// likeEscaper makes LIKE metacharacters in user input match literally.
// '!' is used as the escape character since backslash means something
// different to each supported database.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Search lists equipment matching the filter, ordered by name
func (r *equipmentRepository) Search(ctx context.Context, filter EquipmentFilter, offset, limit int) ([]*models.Equipment, int64, error) {
	var items []*models.Equipment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Equipment{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Availability != nil {
		query = query.Where("availability = ?", *filter.Availability)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		query = query.Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(category) LIKE ? ESCAPE '!'", pattern, pattern)
	}

	// Count total
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("name ASC").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// Categories returns the distinct categories in alphabetical order
func (r *equipmentRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Equipment{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

// Update applies an already validated column map
func (r *equipmentRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Equipment{ID: id}).
		Updates(fields).Error
}

// Delete hard deletes an equipment item and reports the affected row count
func (r *equipmentRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Equipment{}, id)
	return res.RowsAffected, res.Error
}
