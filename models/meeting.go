package models

import "time"

// Meeting statuses. Operator-triggered; never derived from participants.
const (
	MeetingStatusScheduled = "scheduled"
	MeetingStatusConfirmed = "confirmed"
	MeetingStatusCompleted = "completed"
	MeetingStatusCancelled = "cancelled"
	MeetingStatusPostponed = "postponed"
)

// Meeting types.
const (
	MeetingTypePhysical = "physical"
	MeetingTypeVirtual  = "virtual"
	MeetingTypeHybrid   = "hybrid"
)

// Participant statuses.
const (
	ParticipantStatusInvited   = "invited"
	ParticipantStatusConfirmed = "confirmed"
	ParticipantStatusDeclined  = "declined"
	ParticipantStatusAttended  = "attended"
	ParticipantStatusAbsent    = "absent"
)

// Meeting is the RTEC evaluation meeting for one approved document request.
// At most one meeting exists per request.
type Meeting struct {
	MeetingID     int        `gorm:"primaryKey;column:meeting_id" json:"meeting_id"`
	RequestID     int        `gorm:"column:request_id" json:"request_id"`
	Title         string     `gorm:"column:title" json:"title"`
	Status        string     `gorm:"column:status" json:"status"`
	MeetingType   string     `gorm:"column:meeting_type" json:"meeting_type"`
	ScheduledDate time.Time  `gorm:"column:scheduled_date" json:"scheduled_date"`
	ScheduledTime string     `gorm:"column:scheduled_time" json:"scheduled_time"`
	Location      string     `gorm:"column:location" json:"location"`
	Notes         *string    `gorm:"column:notes" json:"notes,omitempty"`
	CreatedBy     int        `gorm:"column:created_by" json:"created_by"`
	CreateAt      *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt      *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt      *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Request      DocumentRequest      `gorm:"foreignKey:RequestID" json:"request,omitempty"`
	Participants []MeetingParticipant `gorm:"foreignKey:MeetingID" json:"participants,omitempty"`
}

func (Meeting) TableName() string {
	return "meetings"
}

type MeetingParticipant struct {
	ParticipantID int        `gorm:"primaryKey;column:participant_id" json:"participant_id"`
	MeetingID     int        `gorm:"column:meeting_id" json:"meeting_id"`
	UserID        int        `gorm:"column:user_id" json:"user_id"`
	Status        string     `gorm:"column:status" json:"status"`
	InvitedAt     time.Time  `gorm:"column:invited_at" json:"invited_at"`
	RespondedAt   *time.Time `gorm:"column:responded_at" json:"responded_at,omitempty"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (MeetingParticipant) TableName() string {
	return "meeting_participants"
}
