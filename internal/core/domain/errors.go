package domain

import "errors"

// Common domain errors. Every specific error below wraps one of these so
// callers can branch on the category with errors.Is.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// categoryError carries a human readable message and its category
type categoryError struct {
	category error
	msg      string
}

func (e *categoryError) Error() string { return e.msg }

func (e *categoryError) Unwrap() error { return e.category }

func newError(category error, msg string) error {
	return &categoryError{category: category, msg: msg}
}

// NewInvalidInput builds an InvalidInput error with a custom message
func NewInvalidInput(msg string) error {
	return newError(ErrInvalidInput, msg)
}

// User errors
var (
	ErrUserNotFound       = newError(ErrNotFound, "user not found")
	ErrEmailAlreadyExists = newError(ErrConflict, "user already exists")
	ErrInvalidCredentials = newError(ErrUnauthorized, "invalid email or password")
	ErrInvalidRole        = newError(ErrInvalidInput, "role must be one of student, staff, admin")
	ErrPrivilegedSignup   = newError(ErrForbidden, "only an admin can create staff or admin accounts")
)

// Equipment errors
var (
	ErrEquipmentNotFound   = newError(ErrNotFound, "Equipment not found")
	ErrInvalidEquipmentID  = newError(ErrInvalidInput, "Invalid equipment ID")
	ErrInvalidQuantity     = newError(ErrInvalidInput, "quantity must be an integer of at least 1")
	ErrInvalidAvailability = newError(ErrInvalidInput, "availability must be a boolean")

	ErrEquipmentActive = newError(ErrForbidden,
		"Cannot Delete Equipment\n\n"+
			"This equipment currently has active borrow requests (pending approval or currently borrowed).\n\n"+
			"Please:\n"+
			"• Wait for borrowed items to be returned\n"+
			"• Reject any pending requests\n"+
			"• Then try deleting again")
	ErrEquipmentHasHistory = newError(ErrForbidden,
		"Cannot Delete Equipment\n\n"+
			"This equipment has borrowing history and cannot be deleted to maintain school records.\n\n"+
			"If you want to remove it from active use:\n"+
			"• Edit the equipment and set \"Availability\" to \"Not Available\"\n"+
			"• This will hide it from students while preserving the borrowing history")
)

// Borrow request errors
var (
	ErrRequestNotFound    = newError(ErrNotFound, "Request not found")
	ErrInvalidRequestID   = newError(ErrInvalidInput, "Invalid request ID")
	ErrInvalidStatus      = newError(ErrInvalidInput, "status must be one of PENDING, APPROVED, REJECTED, RETURNED")
	ErrInvalidDate        = newError(ErrInvalidInput, "dates must use the YYYY-MM-DD format")
	ErrInvalidDateRange   = newError(ErrInvalidInput, "requestedDate must not be after dueDate")
	ErrEquipmentNotLoaned = newError(ErrConflict, "Equipment not available")
	ErrCapacityExceeded   = newError(ErrConflict, "Equipment not available - all units are booked for the selected dates")
	ErrInvalidTransition  = newError(ErrConflict, "status transition not allowed")
)
