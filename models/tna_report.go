package models

import "time"

// TNA report statuses. The signature step only records that a signed file
// was attached; authenticity is out of scope.
const (
	TNAStatusRTECCompleted = "rtec_completed"
	TNAStatusDostApproved  = "dost_mimaropa_approved"
	TNAStatusRejected      = "rejected"
	TNAStatusReturned      = "returned"
	TNAStatusSignedByRD    = "signed_by_rd"
)

type TNAReport struct {
	ReportID           int        `gorm:"primaryKey;column:report_id" json:"report_id"`
	ApplicationID      int        `gorm:"column:application_id" json:"application_id"`
	Status             string     `gorm:"column:status" json:"status"`
	ReportFilename     *string    `gorm:"column:report_filename" json:"report_filename,omitempty"`
	ReportOriginalName *string    `gorm:"column:report_original_name" json:"report_original_name,omitempty"`
	SignedFilename     *string    `gorm:"column:signed_filename" json:"signed_filename,omitempty"`
	SignedOriginalName *string    `gorm:"column:signed_original_name" json:"signed_original_name,omitempty"`
	ReviewComments     *string    `gorm:"column:review_comments" json:"review_comments,omitempty"`
	SubmittedBy        int        `gorm:"column:submitted_by" json:"submitted_by"`
	ReviewedBy         *int       `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	RDSignedAt         *time.Time `gorm:"column:rd_signed_at" json:"rd_signed_at,omitempty"`
	CreateAt           *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt           *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt           *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Application Application `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
}

func (TNAReport) TableName() string {
	return "tna_reports"
}
