package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"school-equiplend/internal/adapters/persistence/models"
	"school-equiplend/internal/adapters/persistence/repositories"
	"school-equiplend/internal/core/domain"

	"go.uber.org/zap"
)

// topN bounds the popular equipment and active user rankings
const topN = 10

// Analytics is the admin usage summary
type Analytics struct {
	StatusDistribution []repositories.StatusCount    `json:"statusDistribution"`
	PopularEquipment   []repositories.EquipmentCount `json:"popularEquipment"`
	ActiveUsers        []repositories.UserCount      `json:"activeUsers"`
}

// OverdueRequest is an approved request past its due date
type OverdueRequest struct {
	*models.BorrowRequestResponse
	DaysOverdue int `json:"daysOverdue"`
}

// ReportService handles read-only ledger reports
type ReportService struct {
	reportRepo  repositories.ReportRepository
	requestRepo repositories.BorrowRequestRepository
	log         *zap.Logger
	now         Clock
}

// NewReportService creates a new report service
func NewReportService(
	reportRepo repositories.ReportRepository,
	requestRepo repositories.BorrowRequestRepository,
	log *zap.Logger,
	now Clock,
) *ReportService {
	if now == nil {
		now = UTCClock
	}
	return &ReportService{
		reportRepo:  reportRepo,
		requestRepo: requestRepo,
		log:         log,
		now:         now,
	}
}

// Analytics summarizes requests created between startDate and endDate,
// both inclusive. The range applies only when both bounds are given.
func (s *ReportService) Analytics(ctx context.Context, startDate, endDate string) (*Analytics, error) {
	var dr *repositories.DateRange
	if strings.TrimSpace(startDate) != "" && strings.TrimSpace(endDate) != "" {
		from, to, err := parseWindow(startDate, endDate)
		if errors.Is(err, domain.ErrInvalidDateRange) {
			return nil, domain.NewInvalidInput("startDate must not be after endDate")
		}
		if err != nil {
			return nil, err
		}
		dr = &repositories.DateRange{From: from, To: to.AddDate(0, 0, 1)}
	}

	statuses, err := s.reportRepo.StatusDistribution(ctx, dr)
	if err != nil {
		return nil, err
	}
	popular, err := s.reportRepo.PopularEquipment(ctx, dr, topN)
	if err != nil {
		return nil, err
	}
	users, err := s.reportRepo.ActiveUsers(ctx, dr, topN)
	if err != nil {
		return nil, err
	}

	s.log.Debug("analytics computed",
		zap.Bool("ranged", dr != nil),
		zap.Int("statuses", len(statuses)),
		zap.Int("equipment", len(popular)),
		zap.Int("users", len(users)),
	)

	return &Analytics{
		StatusDistribution: statuses,
		PopularEquipment:   popular,
		ActiveUsers:        users,
	}, nil
}

// Overdue lists approved requests whose due date has been reached, oldest due first.
// A request due today is overdue with zero days late.
func (s *ReportService) Overdue(ctx context.Context) ([]*OverdueRequest, error) {
	today := domain.TruncateDate(s.now())

	rows, err := s.requestRepo.ListOverdue(ctx, today)
	if err != nil {
		return nil, err
	}

	out := make([]*OverdueRequest, 0, len(rows))
	for _, r := range rows {
		out = append(out, &OverdueRequest{
			BorrowRequestResponse: r.ToResponse(),
			DaysOverdue:           int(today.Sub(domain.TruncateDate(r.DueDate)).Hours() / 24),
		})
	}

	s.log.Debug("overdue requests listed", zap.Time("today", today), zap.Int("count", len(out)))
	return out, nil
}

// parseWindow parses an inclusive calendar window
func parseWindow(start, end string) (time.Time, time.Time, error) {
	from, err := domain.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidDate
	}
	to, err := domain.ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidDate
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, domain.ErrInvalidDateRange
	}
	return from, to, nil
}
