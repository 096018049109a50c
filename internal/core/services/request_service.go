package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"school-equiplend/internal/adapters/persistence/models"
	"school-equiplend/internal/adapters/persistence/repositories"
	"school-equiplend/internal/core/domain"
	"school-equiplend/internal/pkg/metrics"
	"school-equiplend/internal/pkg/pagination"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateRequestInput represents a borrow request submission.
// EquipmentID may be a JSON number or a numeric string.
type CreateRequestInput struct {
	EquipmentID   json.RawMessage `json:"equipmentId"`
	Purpose       string          `json:"purpose"`
	RequestedDate string          `json:"requestedDate"`
	DueDate       string          `json:"dueDate"`
}

// SetStatusInput represents a staff decision on a request
type SetStatusInput struct {
	Status     string  `json:"status"`
	Notes      *string `json:"notes"`
	ApprovedBy *uint   `json:"approvedBy"`
}

// ReturnInput represents a return of borrowed equipment
type ReturnInput struct {
	Notes *string `json:"notes"`
}

// ListRequestsInput represents ledger query parameters
type ListRequestsInput struct {
	Status      string
	UserID      string
	EquipmentID string
}

// RequestService handles admission and the request lifecycle
type RequestService struct {
	requestRepo repositories.BorrowRequestRepository
	userRepo    repositories.UserRepository
	metrics     *metrics.Metrics
	log         *zap.Logger
	now         Clock
	newRef      ReferenceGenerator
}

// RequestServiceOption customizes a RequestService
type RequestServiceOption func(*RequestService)

// WithClock replaces the wall clock
func WithClock(c Clock) RequestServiceOption {
	return func(s *RequestService) { s.now = c }
}

// WithReferenceGenerator replaces the ULID generator
func WithReferenceGenerator(g ReferenceGenerator) RequestServiceOption {
	return func(s *RequestService) { s.newRef = g }
}

// NewRequestService creates a new request service
func NewRequestService(
	requestRepo repositories.BorrowRequestRepository,
	userRepo repositories.UserRepository,
	m *metrics.Metrics,
	log *zap.Logger,
	opts ...RequestServiceOption,
) *RequestService {
	s := &RequestService{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		metrics:     m,
		log:         log,
		now:         UTCClock,
		newRef:      func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest admits a new PENDING request when the equipment is
// available and a unit is free on every day of the window.
func (s *RequestService) CreateRequest(ctx context.Context, userID uint, input *CreateRequestInput) (*models.BorrowRequestResponse, error) {
	// 1. Validate input
	equipmentID, err := ParseID(input.EquipmentID)
	if err != nil {
		s.metrics.ObserveAdmission(metrics.OutcomeRejected)
		return nil, domain.ErrInvalidEquipmentID
	}

	requested, due, err := parseWindow(input.RequestedDate, input.DueDate)
	if err != nil {
		s.metrics.ObserveAdmission(metrics.OutcomeRejected)
		return nil, err
	}

	req := &models.BorrowRequest{
		Reference:     s.newRef(),
		UserID:        userID,
		EquipmentID:   equipmentID,
		Purpose:       strings.TrimSpace(input.Purpose),
		Status:        string(domain.StatusPending),
		RequestedDate: requested,
		DueDate:       due,
		CreatedAt:     s.now(),
	}

	// 2. Check capacity and insert atomically
	err = s.requestRepo.CreateAdmitted(ctx, req, func(equipment *models.Equipment, overlapping int64) error {
		if !equipment.Availability {
			return domain.ErrEquipmentNotLoaned
		}
		if overlapping >= int64(equipment.Quantity) {
			return domain.ErrCapacityExceeded
		}
		return nil
	})
	switch {
	case err == nil:
		s.metrics.ObserveAdmission(metrics.OutcomeAdmitted)
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.metrics.ObserveAdmission(metrics.OutcomeRejected)
		return nil, domain.ErrEquipmentNotFound
	case errors.Is(err, domain.ErrEquipmentNotLoaned):
		s.metrics.ObserveAdmission(metrics.OutcomeUnavailable)
		return nil, err
	case errors.Is(err, domain.ErrCapacityExceeded):
		s.metrics.ObserveAdmission(metrics.OutcomeCapacity)
		return nil, err
	default:
		return nil, err
	}

	s.log.Info("borrow request created",
		zap.Uint("requestId", req.ID),
		zap.String("reference", req.Reference),
		zap.Uint("userId", userID),
		zap.Uint("equipmentId", equipmentID),
	)

	return s.get(ctx, req.ID)
}

// List returns one page of the ledger, newest first
func (s *RequestService) List(ctx context.Context, input ListRequestsInput, params *pagination.Params) (*pagination.Page[*models.BorrowRequestResponse], error) {
	var filter repositories.RequestFilter

	if strings.TrimSpace(input.Status) != "" {
		st, ok := domain.ParseRequestStatus(input.Status)
		if !ok {
			return nil, domain.ErrInvalidStatus
		}
		filter.Status = string(st)
	}
	if strings.TrimSpace(input.UserID) != "" {
		id, err := parsePositive(input.UserID)
		if err != nil {
			return nil, domain.NewInvalidInput("Invalid user ID")
		}
		filter.UserID = id
	}
	if strings.TrimSpace(input.EquipmentID) != "" {
		id, err := parsePositive(input.EquipmentID)
		if err != nil {
			return nil, domain.ErrInvalidEquipmentID
		}
		filter.EquipmentID = id
	}

	rows, total, err := s.requestRepo.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	items := make([]*models.BorrowRequestResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.ToResponse())
	}
	return pagination.NewPage(items, params, total), nil
}

// SetStatus moves a request along PENDING -> APPROVED/REJECTED, APPROVED -> RETURNED.
// The caller is recorded as approver on decisions unless approvedBy is given.
func (s *RequestService) SetStatus(ctx context.Context, id, callerID uint, input *SetStatusInput) (*models.BorrowRequestResponse, error) {
	next, ok := domain.ParseRequestStatus(input.Status)
	if !ok {
		return nil, domain.ErrInvalidStatus
	}

	if input.ApprovedBy != nil {
		if _, err := s.userRepo.GetByID(ctx, *input.ApprovedBy); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.NewInvalidInput("approver does not exist")
			}
			return nil, err
		}
	}

	err := s.requestRepo.Transition(ctx, id, func(cur *models.BorrowRequest) (map[string]interface{}, error) {
		if !domain.RequestStatus(cur.Status).CanTransitionTo(next) {
			return nil, domain.ErrInvalidTransition
		}

		updates := map[string]interface{}{"status": string(next)}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}
		switch {
		case input.ApprovedBy != nil:
			updates["approved_by"] = *input.ApprovedBy
		case next == domain.StatusApproved || next == domain.StatusRejected:
			updates["approved_by"] = callerID
		}
		if next == domain.StatusReturned {
			updates["returned_date"] = domain.TruncateDate(s.now())
		}
		return updates, nil
	})
	if err != nil {
		return nil, s.transitionError(err)
	}

	s.metrics.ObserveTransition(string(next))
	s.log.Info("borrow request status changed",
		zap.Uint("requestId", id),
		zap.String("status", string(next)),
		zap.Uint("by", callerID),
	)
	return s.get(ctx, id)
}

// ReturnEquipment closes an active request as RETURNED and stamps the return date.
// A pending request may be returned too, which withdraws it.
func (s *RequestService) ReturnEquipment(ctx context.Context, id, callerID uint, input *ReturnInput) (*models.BorrowRequestResponse, error) {
	err := s.requestRepo.Transition(ctx, id, func(cur *models.BorrowRequest) (map[string]interface{}, error) {
		if !domain.RequestStatus(cur.Status).CanReturn() {
			return nil, domain.ErrInvalidTransition
		}

		updates := map[string]interface{}{
			"status":        string(domain.StatusReturned),
			"returned_date": domain.TruncateDate(s.now()),
		}
		if input != nil && input.Notes != nil {
			updates["notes"] = *input.Notes
		}
		return updates, nil
	})
	if err != nil {
		return nil, s.transitionError(err)
	}

	s.metrics.ObserveTransition(string(domain.StatusReturned))
	s.log.Info("equipment returned", zap.Uint("requestId", id), zap.Uint("by", callerID))
	return s.get(ctx, id)
}

func (s *RequestService) get(ctx context.Context, id uint) (*models.BorrowRequestResponse, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return req.ToResponse(), nil
}

func (s *RequestService) transitionError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrRequestNotFound
	}
	return err
}

// ============================================================
// Parsing helpers
// ============================================================

// ParseID accepts a positive JSON integer or a numeric string
func ParseID(raw json.RawMessage) (uint, error) {
	if isNull(raw) {
		return 0, domain.ErrInvalidInput
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n != math.Trunc(n) || n < 1 || n > math.MaxUint32 {
			return 0, domain.ErrInvalidInput
		}
		return uint(n), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, domain.ErrInvalidInput
	}
	return parsePositive(s)
}

func parsePositive(s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || n == 0 {
		return 0, domain.ErrInvalidInput
	}
	return uint(n), nil
}
