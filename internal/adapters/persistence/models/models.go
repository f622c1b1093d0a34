package models

import (
	"time"

	"gorm.io/gorm"
)

// Offer work types
const (
	WorkTypeFabrication         = "Fabrication"
	WorkTypeErection            = "Erection"
	WorkTypeFabricationErection = "Fabrication & Erection"
	WorkTypeSurvey              = "Survey"
)

// Offer statuses
const (
	StatusPending    = "Pending"
	StatusApproved   = "Approved"
	StatusAwarded    = "Awarded"
	StatusRejected   = "Rejected"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// WorkTypes lists the allowed work_type values.
var WorkTypes = []string{
	WorkTypeFabrication,
	WorkTypeErection,
	WorkTypeFabricationErection,
	WorkTypeSurvey,
}

// Statuses lists the allowed status values.
var Statuses = []string{
	StatusPending,
	StatusApproved,
	StatusAwarded,
	StatusRejected,
	StatusInProgress,
	StatusCompleted,
}

// Offer represents one client quotation record (offers table).
type Offer struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	RecDate     Date       `gorm:"type:date;index" json:"rec_date"`
	Client      string     `gorm:"size:255;not null" json:"client"`
	ProjectName string     `gorm:"size:255;not null" json:"project_name"`
	Description string     `gorm:"type:text" json:"description"`
	WorkType    string     `gorm:"size:50;not null" json:"work_type"`
	QuoDate     Date       `gorm:"type:date" json:"quo_date"`
	QuoValues   string     `gorm:"size:255" json:"quo_values"`
	QuoNo       *string    `gorm:"size:50;uniqueIndex" json:"quo_no"`
	Status      string     `gorm:"size:30;default:'Pending'" json:"status"`
	Attachments StringList `gorm:"type:text" json:"attachments"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Offer) TableName() string {
	return "offers"
}

// Member represents an authenticated user (members table). Members are
// provisioned externally; only the token columns are written here.
type Member struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Username      string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email         string     `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password      string     `gorm:"size:255;not null" json:"-"`
	Status        string     `gorm:"size:20;default:'active'" json:"status"`
	Admin         bool       `gorm:"default:false" json:"admin"`
	Token         *string    `gorm:"size:64;index" json:"-"`
	TokenIssuedAt *time.Time `json:"-"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}

// MemberResponse DTO returned on login
type MemberResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Admin    bool   `json:"admin"`
	Token    string `json:"token"`
}

func (m *Member) ToResponse(token string) *MemberResponse {
	return &MemberResponse{
		ID:       m.ID,
		Username: m.Username,
		Email:    m.Email,
		Admin:    m.Admin,
		Token:    token,
	}
}

// AutoMigrate creates or updates the application tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Member{},
		&Offer{},
	)
}
