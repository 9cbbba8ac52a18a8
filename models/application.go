package models

import "time"

// Stage statuses for the application review chain. The DOST-MIMAROPA stage
// may only leave pending once the PSTO stage is approved.
const (
	StageStatusPending  = "pending"
	StageStatusApproved = "approved"
	StageStatusReturned = "returned"
	StageStatusRejected = "rejected"
)

type Application struct {
	ApplicationID      int        `gorm:"primaryKey;column:application_id" json:"application_id"`
	ApplicationNumber  string     `gorm:"column:application_number" json:"application_number"`
	UserID             int        `gorm:"column:user_id" json:"user_id"`
	EnterpriseName     string     `gorm:"column:enterprise_name" json:"enterprise_name"`
	Province           string     `gorm:"column:province" json:"province"`
	ProjectTitle       string     `gorm:"column:project_title" json:"project_title"`
	ProjectDescription string     `gorm:"column:project_description" json:"project_description"`
	PSTOStatus         string     `gorm:"column:psto_status" json:"psto_status"`
	PSTOComments       *string    `gorm:"column:psto_comments" json:"psto_comments,omitempty"`
	PSTOReviewedAt     *time.Time `gorm:"column:psto_reviewed_at" json:"psto_reviewed_at,omitempty"`
	DostStatus         string     `gorm:"column:dost_mimaropa_status" json:"dost_mimaropa_status"`
	DostComments       *string    `gorm:"column:dost_mimaropa_comments" json:"dost_mimaropa_comments,omitempty"`
	DostReviewedAt     *time.Time `gorm:"column:dost_mimaropa_reviewed_at" json:"dost_mimaropa_reviewed_at,omitempty"`
	ForwardedAt        *time.Time `gorm:"column:forwarded_at" json:"forwarded_at,omitempty"`
	SubmittedAt        *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreateAt           *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt           *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt           *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Application) TableName() string {
	return "applications"
}

// FullyApproved reports whether both review stages reached approved.
func (a *Application) FullyApproved() bool {
	return a.PSTOStatus == StageStatusApproved && a.DostStatus == StageStatusApproved
}

// ApplicationStatusHistory records every stage decision so repeated reviews
// never silently lose the prior one.
type ApplicationStatusHistory struct {
	HistoryID     int       `gorm:"primaryKey;column:history_id" json:"history_id"`
	ApplicationID int       `gorm:"column:application_id" json:"application_id"`
	Stage         string    `gorm:"column:stage" json:"stage"` // psto | dost_mimaropa
	OldStatus     string    `gorm:"column:old_status" json:"old_status"`
	NewStatus     string    `gorm:"column:new_status" json:"new_status"`
	ChangedBy     int       `gorm:"column:changed_by" json:"changed_by"`
	Comments      *string   `gorm:"column:comments" json:"comments,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ApplicationStatusHistory) TableName() string {
	return "application_status_history"
}
