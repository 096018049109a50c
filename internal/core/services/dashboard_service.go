package services

import (
	"context"

	"school-equiplend/internal/adapters/persistence/models"
	"school-equiplend/internal/adapters/persistence/repositories"
	"school-equiplend/internal/core/domain"

	"go.uber.org/zap"
)

// recentLimit is the number of newest requests shown on a dashboard
const recentLimit = 5

// DashboardService builds the landing page summary
type DashboardService struct {
	reportRepo  repositories.ReportRepository
	requestRepo repositories.BorrowRequestRepository
	log         *zap.Logger
	now         Clock
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	reportRepo repositories.ReportRepository,
	requestRepo repositories.BorrowRequestRepository,
	log *zap.Logger,
	now Clock,
) *DashboardService {
	if now == nil {
		now = UTCClock
	}
	return &DashboardService{
		reportRepo:  reportRepo,
		requestRepo: requestRepo,
		log:         log,
		now:         now,
	}
}

// DashboardData represents the dashboard of one user
type DashboardData struct {
	Role string `json:"role"`
	repositories.Summary
	// OverdueCount is only reported to staff and admins
	OverdueCount   *int                            `json:"overdueCount,omitempty"`
	RecentRequests []*models.BorrowRequestResponse `json:"recentRequests"`
}

// GetDashboard returns the dashboard for the caller. Students see counts
// and recent activity for their own requests only.
func (s *DashboardService) GetDashboard(ctx context.Context, userID uint, role string) (*DashboardData, error) {
	privileged := role == string(domain.RoleStaff) || role == string(domain.RoleAdmin)

	var filter repositories.RequestFilter
	scope := uint(0)
	if !privileged {
		filter.UserID = userID
		scope = userID
	}

	summary, err := s.reportRepo.Summary(ctx, scope)
	if err != nil {
		return nil, err
	}

	recent, _, err := s.requestRepo.List(ctx, filter, 0, recentLimit)
	if err != nil {
		return nil, err
	}

	data := &DashboardData{
		Role:           role,
		Summary:        *summary,
		RecentRequests: make([]*models.BorrowRequestResponse, 0, len(recent)),
	}
	for _, r := range recent {
		data.RecentRequests = append(data.RecentRequests, r.ToResponse())
	}

	if privileged {
		overdue, err := s.requestRepo.ListOverdue(ctx, domain.TruncateDate(s.now()))
		if err != nil {
			return nil, err
		}
		n := len(overdue)
		data.OverdueCount = &n
	}

	s.log.Debug("dashboard built",
		zap.Uint("userId", userID),
		zap.String("role", role),
		zap.Int("recent", len(data.RecentRequests)),
	)
	return data, nil
}
