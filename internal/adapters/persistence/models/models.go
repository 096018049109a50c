package models

import (
	"time"

	"school-equiplend/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Identity
// ============================================================

// User represents users table
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      string    `gorm:"size:20;not null;default:'student'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// UserSummary is the public projection of a user embedded in other payloads
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ============================================================
// Catalog
// ============================================================

// Equipment represents equipment table
type Equipment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:150;not null;index" json:"name" validate:"required,max=150"`
	Category     string    `gorm:"size:100;not null;index" json:"category" validate:"required,max=100"`
	Condition    string    `gorm:"size:50;not null;default:'Good'" json:"condition" validate:"max=50"`
	Quantity     int       `gorm:"not null;default:1" json:"quantity" validate:"gte=1"`
	Availability bool      `gorm:"not null" json:"availability"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Equipment) TableName() string {
	return "equipment"
}

// ============================================================
// Ledger
// ============================================================

// BorrowRequest represents borrow_requests table. Rows are never deleted.
type BorrowRequest struct {
	ID            uint       `gorm:"primaryKey"`
	Reference     string     `gorm:"size:26;uniqueIndex;not null"`
	UserID        uint       `gorm:"not null;index"`
	EquipmentID   uint       `gorm:"not null;index:idx_borrow_equipment_dates,priority:1"`
	Purpose       string     `gorm:"size:500"`
	Status        string     `gorm:"size:20;not null;default:'PENDING';index"`
	RequestedDate time.Time  `gorm:"type:date;not null;index:idx_borrow_equipment_dates,priority:2"`
	DueDate       time.Time  `gorm:"type:date;not null;index:idx_borrow_equipment_dates,priority:3"`
	ReturnedDate  *time.Time `gorm:"type:date"`
	ApprovedBy    *uint
	Notes         *string   `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`

	// Relations
	User      *User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Equipment *Equipment `gorm:"foreignKey:EquipmentID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Approver  *User      `gorm:"foreignKey:ApprovedBy"`
}

func (BorrowRequest) TableName() string {
	return "borrow_requests"
}

// BorrowRequestResponse DTO with calendar dates in wire format
type BorrowRequestResponse struct {
	ID            uint         `json:"id"`
	Reference     string       `json:"reference"`
	UserID        uint         `json:"userId"`
	EquipmentID   uint         `json:"equipmentId"`
	Purpose       string       `json:"purpose"`
	Status        string       `json:"status"`
	RequestedDate string       `json:"requestedDate"`
	DueDate       string       `json:"dueDate"`
	ReturnedDate  *string      `json:"returnedDate"`
	ApprovedBy    *uint        `json:"approvedBy"`
	Notes         *string      `json:"notes"`
	CreatedAt     time.Time    `json:"createdAt"`
	Equipment     *Equipment   `json:"equipment,omitempty"`
	User          *UserSummary `json:"user,omitempty"`
	Approver      *UserSummary `json:"approver,omitempty"`
}

func (r *BorrowRequest) ToResponse() *BorrowRequestResponse {
	resp := &BorrowRequestResponse{
		ID:            r.ID,
		Reference:     r.Reference,
		UserID:        r.UserID,
		EquipmentID:   r.EquipmentID,
		Purpose:       r.Purpose,
		Status:        r.Status,
		RequestedDate: r.RequestedDate.Format(domain.DateLayout),
		DueDate:       r.DueDate.Format(domain.DateLayout),
		ApprovedBy:    r.ApprovedBy,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
		Equipment:     r.Equipment,
	}
	if r.ReturnedDate != nil {
		d := r.ReturnedDate.Format(domain.DateLayout)
		resp.ReturnedDate = &d
	}
	if r.User != nil {
		resp.User = summarize(r.User)
	}
	if r.Approver != nil {
		resp.Approver = summarize(r.Approver)
	}
	return resp
}

func summarize(u *User) *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// AutoMigrate runs database migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Equipment{},
		&BorrowRequest{},
	)
}
