package domain

import (
	"strings"
	"time"
)

// Role represents user role in the system
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes and validates a role string
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleStudent, RoleStaff, RoleAdmin:
		return r, true
	}
	return "", false
}

// RequestStatus is the lifecycle state of a borrow request
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusRejected RequestStatus = "REJECTED"
	StatusReturned RequestStatus = "RETURNED"
)

// ActiveStatuses are the statuses that occupy a unit of equipment
var ActiveStatuses = []RequestStatus{StatusPending, StatusApproved}

// ParseRequestStatus normalizes and validates a status string
func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch st := RequestStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected, StatusReturned:
		return st, true
	}
	return "", false
}

// IsActive reports whether the status still holds a unit
func (s RequestStatus) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusReturned},
}

// CanTransitionTo reports whether the staff status operation may move s to next.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanReturn reports whether a return may close a request in state s.
// A pending request can be returned as well, which withdraws it.
func (s RequestStatus) CanReturn() bool {
	return s.IsActive()
}

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date at UTC midnight
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// TruncateDate drops the time-of-day part, keeping the calendar date of t
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
