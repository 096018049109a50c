package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"school-equiplend/internal/adapters/persistence/models"
	"school-equiplend/internal/adapters/persistence/repositories"
	"school-equiplend/internal/core/domain"
	"school-equiplend/internal/pkg/pagination"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EquipmentFields is a decoded JSON object of equipment attributes
type EquipmentFields map[string]json.RawMessage

// SearchEquipmentInput represents catalog query parameters
type SearchEquipmentInput struct {
	Category     string
	Availability string
	Search       string
}

// EquipmentService handles the equipment catalog
type EquipmentService struct {
	equipmentRepo repositories.EquipmentRepository
	requestRepo   repositories.BorrowRequestRepository
	cache         CategoryCache
	log           *zap.Logger
}

// NewEquipmentService creates a new equipment service
func NewEquipmentService(
	equipmentRepo repositories.EquipmentRepository,
	requestRepo repositories.BorrowRequestRepository,
	cache CategoryCache,
	log *zap.Logger,
) *EquipmentService {
	return &EquipmentService{
		equipmentRepo: equipmentRepo,
		requestRepo:   requestRepo,
		cache:         cache,
		log:           log,
	}
}

// Create adds an item to the catalog
func (s *EquipmentService) Create(ctx context.Context, fields EquipmentFields) (*models.Equipment, error) {
	updates, err := equipmentColumns(fields)
	if err != nil {
		return nil, err
	}

	equipment := &models.Equipment{
		Condition:    "Good",
		Quantity:     1,
		Availability: true,
	}
	if v, ok := updates["name"].(string); ok {
		equipment.Name = v
	}
	if v, ok := updates["category"].(string); ok {
		equipment.Category = v
	}
	if v, ok := updates["condition"].(string); ok {
		equipment.Condition = v
	}
	if v, ok := updates["quantity"].(int); ok {
		equipment.Quantity = v
	}
	if v, ok := updates["availability"].(bool); ok {
		equipment.Availability = v
	}
	if err := validateInput(equipment); err != nil {
		return nil, err
	}

	if err := s.equipmentRepo.Create(ctx, equipment); err != nil {
		return nil, err
	}
	s.invalidateCategories(ctx)

	s.log.Info("equipment created", zap.Uint("equipmentId", equipment.ID), zap.String("name", equipment.Name))
	return equipment, nil
}

// Search lists catalog items
func (s *EquipmentService) Search(ctx context.Context, input SearchEquipmentInput, params *pagination.Params) (*pagination.Page[*models.Equipment], error) {
	filter := repositories.EquipmentFilter{
		Category: strings.TrimSpace(input.Category),
		Search:   input.Search,
	}
	switch strings.ToLower(strings.TrimSpace(input.Availability)) {
	case "":
	case "true":
		v := true
		filter.Availability = &v
	case "false":
		v := false
		filter.Availability = &v
	default:
		return nil, domain.ErrInvalidAvailability
	}

	items, total, err := s.equipmentRepo.Search(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, params, total), nil
}

// Categories returns the distinct category names
func (s *EquipmentService) Categories(ctx context.Context) ([]string, error) {
	if cached, ok, err := s.cache.Get(ctx); err != nil {
		s.log.Warn("category cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	categories, err := s.equipmentRepo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}

	if err := s.cache.Set(ctx, categories); err != nil {
		s.log.Warn("category cache write failed", zap.Error(err))
	}
	return categories, nil
}

// Update applies a partial update. Unknown and server-managed fields are ignored.
func (s *EquipmentService) Update(ctx context.Context, id uint, fields EquipmentFields) (*models.Equipment, error) {
	if _, err := s.getByID(ctx, id); err != nil {
		return nil, err
	}

	updates, err := equipmentColumns(fields)
	if err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.equipmentRepo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
		s.invalidateCategories(ctx)
	}

	return s.getByID(ctx, id)
}

// Delete removes an item that no request has ever referenced
func (s *EquipmentService) Delete(ctx context.Context, id uint) error {
	active, err := s.requestRepo.ExistsForEquipment(ctx, id, activeStatusNames()...)
	if err != nil {
		return err
	}
	if active {
		return domain.ErrEquipmentActive
	}

	referenced, err := s.requestRepo.ExistsForEquipment(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return domain.ErrEquipmentHasHistory
	}

	deleted, err := s.equipmentRepo.Delete(ctx, id)
	if err != nil {
		if repositories.IsForeignKeyViolation(err) {
			return domain.ErrEquipmentHasHistory
		}
		return err
	}
	if deleted == 0 {
		return domain.ErrEquipmentNotFound
	}

	s.invalidateCategories(ctx)
	s.log.Info("equipment deleted", zap.Uint("equipmentId", id))
	return nil
}

func (s *EquipmentService) getByID(ctx context.Context, id uint) (*models.Equipment, error) {
	equipment, err := s.equipmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEquipmentNotFound
		}
		return nil, err
	}
	return equipment, nil
}

func (s *EquipmentService) invalidateCategories(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("category cache invalidation failed", zap.Error(err))
	}
}

func activeStatusNames() []string {
	out := make([]string, 0, len(domain.ActiveStatuses))
	for _, st := range domain.ActiveStatuses {
		out = append(out, string(st))
	}
	return out
}

// ============================================================
// Field coercion
// ============================================================

var textColumns = map[string]string{
	"name":      "name",
	"category":  "category",
	"condition": "condition",
}

// equipmentColumns turns an allow-listed subset of fields into column values.
// Empty and null values are skipped.
func equipmentColumns(fields EquipmentFields) (map[string]interface{}, error) {
	out := map[string]interface{}{}

	for key, column := range textColumns {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, domain.NewInvalidInput(key + " must be a string")
		}
		if v = strings.TrimSpace(v); v != "" {
			out[column] = v
		}
	}

	if raw, ok := fields["quantity"]; ok && !isNull(raw) && !isEmptyString(raw) {
		q, err := parseQuantity(raw)
		if err != nil {
			return nil, err
		}
		out["quantity"] = q
	}

	if raw, ok := fields["availability"]; ok && !isNull(raw) && !isEmptyString(raw) {
		a, err := parseAvailability(raw)
		if err != nil {
			return nil, err
		}
		out["availability"] = a
	}

	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isEmptyString(raw json.RawMessage) bool {
	var s string
	return json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) == ""
}

// parseQuantity accepts a JSON integer or a numeric string, at least 1
func parseQuantity(raw json.RawMessage) (int, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, domain.ErrInvalidQuantity
		}
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, domain.ErrInvalidQuantity
		}
		n = float64(i)
	}
	if n != math.Trunc(n) || n < 1 || n > math.MaxInt32 {
		return 0, domain.ErrInvalidQuantity
	}
	return int(n), nil
}

// parseAvailability accepts true/false, "true"/"false" and 1/0
func parseAvailability(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		switch n {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
		return false, domain.ErrInvalidAvailability
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	}
	return false, domain.ErrInvalidAvailability
}
