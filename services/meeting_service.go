package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"setup-workflow-api/models"

	"gorm.io/gorm"
)

// MeetingService schedules RTEC evaluation meetings and drives the
// participant invitation lifecycle. Meeting status is operator-triggered and
// never derived from participant responses.
type MeetingService struct {
	db *gorm.DB
}

func NewMeetingService(db *gorm.DB) *MeetingService {
	return &MeetingService{db: db}
}

type CreateMeetingInput struct {
	RequestID     int    `json:"request_id" binding:"required"`
	Title         string `json:"title"`
	MeetingType   string `json:"meeting_type"`
	ScheduledDate string `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime string `json:"scheduled_time"` // HH:MM
	Location      string `json:"location"`
	Notes         string `json:"notes"`
}

func validateMeetingInput(input *CreateMeetingInput) (time.Time, error) {
	var missing []string
	if strings.TrimSpace(input.Title) == "" {
		missing = append(missing, "title is required")
	}
	if strings.TrimSpace(input.ScheduledDate) == "" {
		missing = append(missing, "scheduled_date is required")
	}
	if strings.TrimSpace(input.ScheduledTime) == "" {
		missing = append(missing, "scheduled_time is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		missing = append(missing, "location is required")
	}

	meetingType := strings.ToLower(strings.TrimSpace(input.MeetingType))
	switch meetingType {
	case "":
		input.MeetingType = models.MeetingTypePhysical
	case models.MeetingTypePhysical, models.MeetingTypeVirtual, models.MeetingTypeHybrid:
		input.MeetingType = meetingType
	default:
		missing = append(missing, "meeting_type must be physical, virtual or hybrid")
	}

	var scheduled time.Time
	if strings.TrimSpace(input.ScheduledDate) != "" {
		parsed, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(input.ScheduledDate), time.Local)
		if err != nil {
			missing = append(missing, "scheduled_date must be in YYYY-MM-DD format")
		} else {
			now := time.Now()
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
			if parsed.Before(today) {
				missing = append(missing, "scheduled_date cannot be in the past")
			}
			scheduled = parsed
		}
	}

	if len(missing) > 0 {
		return time.Time{}, &ValidationError{Fields: missing}
	}
	return scheduled, nil
}

// CreateMeeting schedules the meeting for an approved document request.
// At most one meeting may reference a request.
func (s *MeetingService) CreateMeeting(input CreateMeetingInput, actor Actor) (*models.Meeting, error) {
	if actor.Role != models.RoleDostMimaropa {
		return nil, ErrForbiddenRole
	}

	scheduled, err := validateMeetingInput(&input)
	if err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var request models.DocumentRequest
	if err := tx.Where("request_id = ? AND delete_at IS NULL", input.RequestID).
		First(&request).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if request.Status != models.RequestStatusApproved {
		tx.Rollback()
		return nil, invalidTransitionf("documents must be approved before a meeting can be scheduled")
	}

	var existing int64
	if err := tx.Model(&models.Meeting{}).
		Where("request_id = ? AND delete_at IS NULL", input.RequestID).
		Count(&existing).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if existing > 0 {
		tx.Rollback()
		return nil, ErrDuplicateMeeting
	}

	now := time.Now()
	meeting := models.Meeting{
		RequestID:     input.RequestID,
		Title:         strings.TrimSpace(input.Title),
		Status:        models.MeetingStatusScheduled,
		MeetingType:   input.MeetingType,
		ScheduledDate: scheduled,
		ScheduledTime: strings.TrimSpace(input.ScheduledTime),
		Location:      strings.TrimSpace(input.Location),
		Notes:         strPtr(strings.TrimSpace(input.Notes)),
		CreatedBy:     actor.UserID,
		CreateAt:      &now,
		UpdateAt:      &now,
	}
	if err := tx.Create(&meeting).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := writeAudit(tx, actor, "create", "meeting", meeting.MeetingID,
		map[string]interface{}{"request_id": input.RequestID, "scheduled_date": input.ScheduledDate},
		"meeting scheduled"); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.GetMeeting(meeting.MeetingID)
}

// GetMeeting loads a meeting with request and participants.
func (s *MeetingService) GetMeeting(meetingID int) (*models.Meeting, error) {
	var meeting models.Meeting
	err := s.db.Preload("Request").
		Preload("Participants.User.Role").
		Where("meeting_id = ? AND delete_at IS NULL", meetingID).
		First(&meeting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &meeting, nil
}

// BulkInvite invites users to a meeting. Idempotent per user: re-inviting an
// already-invited user only bumps the invitation timestamp.
func (s *MeetingService) BulkInvite(meetingID int, userIDs []int, actor Actor) (*models.Meeting, error) {
	if actor.Role != models.RoleDostMimaropa {
		return nil, ErrForbiddenRole
	}
	if len(userIDs) == 0 {
		return nil, NewValidationError("at least one user is required")
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	meeting, err := s.loadMeeting(tx, meetingID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now()
	seen := make(map[int]bool, len(userIDs))
	for _, userID := range userIDs {
		if userID <= 0 || seen[userID] {
			continue
		}
		seen[userID] = true

		var user models.User
		if err := tx.Where("user_id = ? AND delete_at IS NULL", userID).First(&user).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
			}
			return nil, err
		}

		var participant models.MeetingParticipant
		err := tx.Where("meeting_id = ? AND user_id = ?", meeting.MeetingID, userID).
			First(&participant).Error
		switch {
		case err == nil:
			if err := tx.Model(&models.MeetingParticipant{}).
				Where("participant_id = ?", participant.ParticipantID).
				Update("invited_at", now).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			participant = models.MeetingParticipant{
				MeetingID: meeting.MeetingID,
				UserID:    userID,
				Status:    models.ParticipantStatusInvited,
				InvitedAt: now,
			}
			if err := tx.Create(&participant).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
			if err := NotifyUser(tx, userID, "RTEC meeting invitation",
				fmt.Sprintf("You are invited to %q on %s %s at %s.",
					meeting.Title, meeting.ScheduledDate.Format("2006-01-02"),
					meeting.ScheduledTime, meeting.Location), "info", nil); err != nil {
				tx.Rollback()
				return nil, err
			}
		default:
			tx.Rollback()
			return nil, err
		}
	}

	if err := writeAudit(tx, actor, "invite", "meeting", meeting.MeetingID,
		map[string]interface{}{"user_ids": userIDs}, "participants invited"); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.GetMeeting(meetingID)
}

// InviteProponent invites the proponent who owns the application behind the
// meeting's document request.
func (s *MeetingService) InviteProponent(meetingID int, actor Actor) (*models.Meeting, error) {
	meeting, err := s.GetMeeting(meetingID)
	if err != nil {
		return nil, err
	}

	var application models.Application
	if err := s.db.Where("application_id = ?", meeting.Request.ApplicationID).
		First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.BulkInvite(meetingID, []int{application.UserID}, actor)
}

// ResendInvitation re-sends an invitation to a participant who has not yet
// confirmed.
func (s *MeetingService) ResendInvitation(meetingID, participantID int, actor Actor) error {
	if actor.Role != models.RoleDostMimaropa {
		return ErrForbiddenRole
	}

	var participant models.MeetingParticipant
	if err := s.db.Where("participant_id = ? AND meeting_id = ?", participantID, meetingID).
		First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if participant.Status == models.ParticipantStatusConfirmed {
		return ErrAlreadyConfirmed
	}

	now := time.Now()
	if err := s.db.Model(&models.MeetingParticipant{}).
		Where("participant_id = ?", participant.ParticipantID).
		Updates(map[string]interface{}{
			"invited_at":   now,
			"status":       models.ParticipantStatusInvited,
			"responded_at": nil,
		}).Error; err != nil {
		return err
	}

	if err := NotifyUser(s.db, participant.UserID, "RTEC meeting invitation (reminder)",
		"Your meeting invitation is awaiting a response.", "warning", nil); err != nil {
		return err
	}
	SendMailToUser(s.db, participant.UserID, "RTEC meeting invitation (reminder)",
		"Your meeting invitation is awaiting a response. Please confirm your attendance.")
	return nil
}

// RespondInvitation records a confirm/decline from the invited user. PSTO
// participants may not decline.
func (s *MeetingService) RespondInvitation(meetingID int, actor Actor, response string) (*models.MeetingParticipant, error) {
	response = strings.ToLower(strings.TrimSpace(response))
	newStatus := ""
	switch response {
	case "confirm", models.ParticipantStatusConfirmed:
		newStatus = models.ParticipantStatusConfirmed
	case "decline", models.ParticipantStatusDeclined:
		newStatus = models.ParticipantStatusDeclined
	default:
		return nil, NewValidationError("response must be confirm or decline")
	}

	var participant models.MeetingParticipant
	if err := s.db.Where("meeting_id = ? AND user_id = ?", meetingID, actor.UserID).
		First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := ParticipantCanRespond(&participant, actor.Role, newStatus); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.Model(&models.MeetingParticipant{}).
		Where("participant_id = ?", participant.ParticipantID).
		Updates(map[string]interface{}{
			"status":       newStatus,
			"responded_at": now,
		}).Error; err != nil {
		return nil, err
	}

	participant.Status = newStatus
	participant.RespondedAt = &now
	return &participant, nil
}

// RemoveParticipant permanently deletes a participant record.
func (s *MeetingService) RemoveParticipant(meetingID, participantID int, actor Actor) error {
	if actor.Role != models.RoleDostMimaropa {
		return ErrForbiddenRole
	}

	result := s.db.Where("participant_id = ? AND meeting_id = ?", participantID, meetingID).
		Delete(&models.MeetingParticipant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAttendance records attended/absent for a confirmed participant once
// the meeting is completed.
func (s *MeetingService) MarkAttendance(meetingID, participantID int, status string, actor Actor) error {
	if actor.Role != models.RoleDostMimaropa {
		return ErrForbiddenRole
	}

	meeting, err := s.GetMeeting(meetingID)
	if err != nil {
		return err
	}

	var participant models.MeetingParticipant
	if err := s.db.Where("participant_id = ? AND meeting_id = ?", participantID, meetingID).
		First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	status = strings.ToLower(strings.TrimSpace(status))
	if err := ParticipantCanMarkAttendance(&participant, meeting.Status, status); err != nil {
		return err
	}

	now := time.Now()
	return s.db.Model(&models.MeetingParticipant{}).
		Where("participant_id = ?", participant.ParticipantID).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": now,
		}).Error
}

// UpdateStatus applies an operator-triggered meeting status change.
func (s *MeetingService) UpdateStatus(meetingID int, newStatus string, actor Actor) (*models.Meeting, error) {
	if actor.Role != models.RoleDostMimaropa {
		return nil, ErrForbiddenRole
	}

	newStatus = strings.ToLower(strings.TrimSpace(newStatus))

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	meeting, err := s.loadMeeting(tx, meetingID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if !CanTransitionMeeting(meeting.Status, newStatus) {
		tx.Rollback()
		return nil, invalidTransitionf("meeting cannot move from %s to %s", meeting.Status, newStatus)
	}

	now := time.Now()
	if err := tx.Model(&models.Meeting{}).
		Where("meeting_id = ?", meeting.MeetingID).
		Updates(map[string]interface{}{
			"status":    newStatus,
			"update_at": now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := writeAudit(tx, actor, "status_change", "meeting", meeting.MeetingID,
		map[string]interface{}{"old_status": meeting.Status, "new_status": newStatus},
		"meeting status updated"); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.GetMeeting(meetingID)
}

func (s *MeetingService) loadMeeting(tx *gorm.DB, meetingID int) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := tx.Where("meeting_id = ? AND delete_at IS NULL", meetingID).
		First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &meeting, nil
}
