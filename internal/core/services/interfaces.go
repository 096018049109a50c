package services

import (
	"context"
	"time"
)

// Note: AuthService implementation is in auth_service.go
// Note: EquipmentService implementation is in equipment_service.go
// Note: RequestService implementation is in request_service.go
// Note: ReportService implementation is in report_service.go

// CategoryCache holds the distinct equipment category list
type CategoryCache interface {
	Get(ctx context.Context) ([]string, bool, error)
	Set(ctx context.Context, categories []string) error
	Invalidate(ctx context.Context) error
}

// Clock returns the current instant
type Clock func() time.Time

// UTCClock is the production clock
func UTCClock() time.Time {
	return time.Now().UTC()
}

// ReferenceGenerator returns a new public request reference
type ReferenceGenerator func() string
