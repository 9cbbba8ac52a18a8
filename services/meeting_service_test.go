package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"setup-workflow-api/models"
)

func validInput() CreateMeetingInput {
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	return CreateMeetingInput{
		RequestID:     1,
		Title:         "RTEC Evaluation",
		MeetingType:   "virtual",
		ScheduledDate: tomorrow,
		ScheduledTime: "09:30",
		Location:      "Zoom",
	}
}

func TestValidateMeetingInput_Valid(t *testing.T) {
	input := validInput()
	scheduled, err := validateMeetingInput(&input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scheduled.IsZero() {
		t.Fatal("scheduled date must be parsed")
	}
}

func TestValidateMeetingInput_DefaultsToPhysical(t *testing.T) {
	input := validInput()
	input.MeetingType = ""
	if _, err := validateMeetingInput(&input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.MeetingType != models.MeetingTypePhysical {
		t.Fatalf("expected default type physical, got %s", input.MeetingType)
	}
}

func TestValidateMeetingInput_CollectsAllMissingFields(t *testing.T) {
	input := CreateMeetingInput{RequestID: 1}
	_, err := validateMeetingInput(&input)
	ve, ok := IsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	// title, date, time and location are all missing
	if len(ve.Fields) != 4 {
		t.Fatalf("expected 4 field errors, got %d: %v", len(ve.Fields), ve.Fields)
	}
}

// A meeting scheduled for today must be accepted regardless of the host
// timezone's offset from UTC.
func TestValidateMeetingInput_TodayIsNotPast(t *testing.T) {
	input := validInput()
	input.ScheduledDate = time.Now().Format("2006-01-02")
	if _, err := validateMeetingInput(&input); err != nil {
		t.Fatalf("today must be schedulable: %v", err)
	}
}

func TestValidateMeetingInput_PastDate(t *testing.T) {
	input := validInput()
	input.ScheduledDate = "2020-01-01"
	_, err := validateMeetingInput(&input)
	if _, ok := IsValidationError(err); !ok {
		t.Fatalf("expected ValidationError for past date, got %v", err)
	}
}

func TestValidateMeetingInput_BadType(t *testing.T) {
	input := validInput()
	input.MeetingType = "telepathic"
	_, err := validateMeetingInput(&input)
	if _, ok := IsValidationError(err); !ok {
		t.Fatalf("expected ValidationError for bad type, got %v", err)
	}
}

func TestValidateMeetingInput_BadDateFormat(t *testing.T) {
	input := validInput()
	input.ScheduledDate = "01/02/2026"
	_, err := validateMeetingInput(&input)
	if _, ok := IsValidationError(err); !ok {
		t.Fatalf("expected ValidationError for bad date format, got %v", err)
	}
}

var meetingColumns = []string{
	"meeting_id", "request_id", "title", "status", "meeting_type",
	"scheduled_date", "scheduled_time", "location", "created_by",
}

func meetingRow(scheduled time.Time) []driver.Value {
	return []driver.Value{
		int64(5), int64(1), "RTEC Evaluation", models.MeetingStatusScheduled,
		models.MeetingTypeVirtual, scheduled, "09:30", "Conference Room A", int64(2),
	}
}

func TestCreateMeeting_RejectsSecondMeetingForRequest(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `document_requests` WHERE request_id"),
			columns: []string{"request_id", "application_id", "purpose", "status"},
			rows:    [][]driver.Value{{int64(1), int64(2), models.RequestPurposeRTEC, models.RequestStatusApproved}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `meetings`"),
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(1)}},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewMeetingService(db)
	_, err := svc.CreateMeeting(validInput(), Actor{UserID: 2, Role: models.RoleDostMimaropa})
	if !errors.Is(err, ErrDuplicateMeeting) {
		t.Fatalf("expected ErrDuplicateMeeting, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

// Re-inviting an already-invited user must only bump invited_at: no second
// participant row and no duplicate invitation notification.
func TestBulkInvite_ReinviteOnlyBumpsInvitedAt(t *testing.T) {
	scheduled := time.Date(2026, 9, 10, 0, 0, 0, 0, time.Local)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("FROM `meetings` WHERE meeting_id"),
			columns: meetingColumns,
			rows:    [][]driver.Value{meetingRow(scheduled)},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("FROM `users` WHERE user_id"),
			columns: []string{"user_id", "email"},
			rows:    [][]driver.Value{{int64(7), "psto.palawan@example.com"}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("FROM `meeting_participants` WHERE meeting_id"),
			columns: []string{"participant_id", "meeting_id", "user_id", "status", "invited_at"},
			rows: [][]driver.Value{
				{int64(11), int64(5), int64(7), models.ParticipantStatusInvited, scheduled.AddDate(0, 0, -7)},
			},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `meeting_participants` SET `invited_at`"),
			args:    []driver.Value{skipArg, int64(11)},
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `audit_logs`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("FROM `meetings` WHERE meeting_id"),
			columns: meetingColumns,
			rows:    [][]driver.Value{meetingRow(scheduled)},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("FROM `meeting_participants`"),
			columns: []string{"participant_id"},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("FROM `document_requests`"),
			columns: []string{"request_id"},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewMeetingService(db)
	meeting, err := svc.BulkInvite(5, []int{7}, Actor{UserID: 2, Role: models.RoleDostMimaropa})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meeting.MeetingID != 5 {
		t.Fatalf("expected meeting 5, got %d", meeting.MeetingID)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}
