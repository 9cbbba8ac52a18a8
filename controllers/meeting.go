package controllers

import (
	"net/http"
	"strconv"

	"setup-workflow-api/config"
	"setup-workflow-api/models"
	"setup-workflow-api/services"

	"github.com/gin-gonic/gin"
)

// GetMeetings lists meetings. Non-operator roles only see meetings they
// participate in.
func GetMeetings(c *gin.Context) {
	userID, _ := c.Get("userID")
	roleName, _ := c.Get("roleName")

	var meetings []models.Meeting
	query := config.DB.Preload("Request").Preload("Participants.User").
		Where("meetings.delete_at IS NULL")

	if roleName != models.RoleDostMimaropa {
		query = query.Joins("JOIN meeting_participants ON meeting_participants.meeting_id = meetings.meeting_id").
			Where("meeting_participants.user_id = ?", userID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("meetings.status = ?", status)
	}

	if err := query.Order("meetings.scheduled_date ASC, meetings.scheduled_time ASC").
		Find(&meetings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch meetings"})
		return
	}

	c.JSON(http.StatusOK, docsEnvelope(meetings, len(meetings)))
}

// GetMeeting returns one meeting with participants.
func GetMeeting(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid meeting ID"})
		return
	}

	svc := services.NewMeetingService(config.DB)
	meeting, err := svc.GetMeeting(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": meeting})
}

// CreateMeeting schedules an RTEC meeting for an approved document request.
func CreateMeeting(c *gin.Context) {
	var input services.CreateMeetingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	svc := services.NewMeetingService(config.DB)
	meeting, err := svc.CreateMeeting(input, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Meeting scheduled",
		"data":    meeting,
	})
}

// InvitePSTOBulk invites a batch of PSTO users in one call.
func InvitePSTOBulk(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid meeting ID"})
		return
	}

	var req struct {
		PstoIDs []int `json:"pstoIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	svc := services.NewMeetingService(config.DB)
	meeting, err := svc.BulkInvite(id, req.PstoIDs, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Invitations sent",
		"data":    meeting,
	})
}

// InviteProponent invites the application owner to the meeting.
func InviteProponent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid meeting ID"})
		return
	}

	svc := services.NewMeetingService(config.DB)
	meeting, err := svc.InviteProponent(id, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Proponent invited",
		"data":    meeting,
	})
}

// ResendInvitation re-sends an invitation to an unconfirmed participant.
func ResendInvitation(c *gin.Context) {
	meetingID, err := strconv.Atoi(c.Param("id"))
	if err != nil || meetingID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid meeting ID"})
		return
	}
	participantID, err := strconv.Atoi(c.Param("participantId"))
	if err != nil || participantID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid participant ID"})
		return
	}

	svc := services.NewMeetingService(config.DB)
	if err := svc.ResendInvitation(meetingID, participantID, actorFromContext(c)); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Invitation resent"})
}

// RespondInvitation records the caller's confirm/decline response.
func RespondInvitation(c *gin.Context) {
	meetingID, err := strconv.Atoi(c.Param("id"))
	if err != nil || meetingID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid meeting ID"})
		return
	}

	var req struct {
		Response string `json:"response" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	svc := services.NewMeetingService(config.DB)
	participant, err := svc.RespondInvitation(meetingID, actorFromContext(c), req.Response)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Response recorded",
		"data":    participant,
	})
}

// RemoveParticipant removes a participant from a meeting.
func RemoveParticipant(c *gin.Context) {
	meetingID, err := strconv.Atoi(c.Param("id"))
	if err != nil || meetingID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid meeting ID"})
		return
	}
	participantID, err := strconv.Atoi(c.Param("participantId"))
	if err != nil || participantID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid participant ID"})
		return
	}

	svc := services.NewMeetingService(config.DB)
	if err := svc.RemoveParticipant(meetingID, participantID, actorFromContext(c)); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Participant removed"})
}

// MarkAttendance records attended/absent after the meeting completes.
func MarkAttendance(c *gin.Context) {
	meetingID, err := strconv.Atoi(c.Param("id"))
	if err != nil || meetingID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid meeting ID"})
		return
	}
	participantID, err := strconv.Atoi(c.Param("participantId"))
	if err != nil || participantID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid participant ID"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	svc := services.NewMeetingService(config.DB)
	if err := svc.MarkAttendance(meetingID, participantID, req.Status, actorFromContext(c)); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Attendance recorded"})
}

// UpdateMeetingStatus applies an operator status change.
func UpdateMeetingStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid meeting ID"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	svc := services.NewMeetingService(config.DB)
	meeting, err := svc.UpdateStatus(id, req.Status, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Meeting status updated",
		"data":    meeting,
	})
}
