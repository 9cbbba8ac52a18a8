package models

import "time"

// Purposes a document request can be raised for. The same engine backs both.
const (
	RequestPurposeRTEC   = "rtec"
	RequestPurposeRefund = "refund"
)

// Aggregate statuses of a document request.
const (
	RequestStatusRequested          = "documents_requested"
	RequestStatusSubmitted          = "documents_submitted"
	RequestStatusUnderReview        = "documents_under_review"
	RequestStatusApproved           = "documents_approved"
	RequestStatusRejected           = "documents_rejected"
	RequestStatusRevisionRequested  = "documents_revision_requested"
	RequestStatusAdditionalRequired = "additional_documents_required"
)

// Per-slot document statuses.
const (
	SlotStatusPending       = "pending"
	SlotStatusSubmitted     = "submitted"
	SlotStatusApproved      = "approved"
	SlotStatusRejected      = "rejected"
	SlotStatusNeedsRevision = "needs_revision"
)

type DocumentRequest struct {
	RequestID        int        `gorm:"primaryKey;column:request_id" json:"request_id"`
	ApplicationID    int        `gorm:"column:application_id" json:"application_id"`
	Purpose          string     `gorm:"column:purpose" json:"purpose"`
	Status           string     `gorm:"column:status" json:"status"`
	DueDate          *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`
	RevisionComments *string    `gorm:"column:revision_comments" json:"revision_comments,omitempty"`
	RequestedBy      int        `gorm:"column:requested_by" json:"requested_by"`
	CreateAt         *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt         *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Application Application    `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	Slots       []DocumentSlot `gorm:"foreignKey:RequestID" json:"slots,omitempty"`
}

func (DocumentRequest) TableName() string {
	return "document_requests"
}

// DocumentSlot is one checklist entry within a request. SlotType is unique
// per request; additional slots appended by the reviewer carry IsAdditional.
type DocumentSlot struct {
	SlotID         int        `gorm:"primaryKey;column:slot_id" json:"slot_id"`
	RequestID      int        `gorm:"column:request_id" json:"request_id"`
	SlotType       string     `gorm:"column:slot_type" json:"slot_type"`
	SlotName       string     `gorm:"column:slot_name" json:"slot_name"`
	Description    *string    `gorm:"column:description" json:"description,omitempty"`
	SlotOrder      int        `gorm:"column:slot_order" json:"slot_order"`
	DocumentStatus string     `gorm:"column:document_status" json:"document_status"`
	StoredFilename *string    `gorm:"column:stored_filename" json:"stored_filename,omitempty"`
	OriginalName   *string    `gorm:"column:original_name" json:"original_name,omitempty"`
	TextAnswer     *string    `gorm:"column:text_answer" json:"text_answer,omitempty"`
	IsAdditional   bool       `gorm:"column:is_additional" json:"is_additional"`
	ToRevise       bool       `gorm:"column:to_revise" json:"to_revise"`
	ReviewComments *string    `gorm:"column:review_comments" json:"review_comments,omitempty"`
	ReviewedAt     *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	SubmittedBy    *int       `gorm:"column:submitted_by" json:"submitted_by,omitempty"`
	SubmittedAt    *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreateAt       *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`
}

func (DocumentSlot) TableName() string {
	return "document_slots"
}
