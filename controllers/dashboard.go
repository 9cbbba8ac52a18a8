package controllers

import (
	"net/http"
	"time"

	"setup-workflow-api/config"
	"setup-workflow-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetDashboardStats returns workflow statistics scoped by role.
func GetDashboardStats(c *gin.Context) {
	userIDVal, userExists := c.Get("userID")
	roleVal, roleExists := c.Get("roleName")
	if !userExists || !roleExists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "authentication context missing",
		})
		return
	}

	userID, okUser := userIDVal.(int)
	roleName, okRole := roleVal.(string)
	if !okUser || !okRole {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "invalid user or role id",
		})
		return
	}

	var stats map[string]interface{}
	switch roleName {
	case models.RoleDostMimaropa:
		stats = getOperatorDashboard()
	case models.RolePSTO:
		province, _ := c.Get("province")
		p, _ := province.(*string)
		stats = getProvinceDashboard(p)
	default:
		stats = getProponentDashboard(userID)
	}

	if stats == nil {
		stats = make(map[string]interface{})
	}
	stats["current_date"] = time.Now().Format("2006-01-02")

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func myApplications(userID int) *gorm.DB {
	return config.DB.Model(&models.Application{}).
		Where("user_id = ? AND delete_at IS NULL", userID)
}

// getProponentDashboard summarizes the caller's own applications.
func getProponentDashboard(userID int) map[string]interface{} {
	stats := make(map[string]interface{})

	var appStats struct {
		Total    int64 `json:"total"`
		Pending  int64 `json:"pending"`
		Approved int64 `json:"approved"`
		Returned int64 `json:"returned"`
		Rejected int64 `json:"rejected"`
	}

	myApplications(userID).Count(&appStats.Total)
	myApplications(userID).Where("psto_status = ? OR dost_mimaropa_status = ?",
		models.StageStatusPending, models.StageStatusPending).Count(&appStats.Pending)
	myApplications(userID).Where("psto_status = ? AND dost_mimaropa_status = ?",
		models.StageStatusApproved, models.StageStatusApproved).Count(&appStats.Approved)
	myApplications(userID).Where("psto_status = ? OR dost_mimaropa_status = ?",
		models.StageStatusReturned, models.StageStatusReturned).Count(&appStats.Returned)
	myApplications(userID).Where("psto_status = ? OR dost_mimaropa_status = ?",
		models.StageStatusRejected, models.StageStatusRejected).Count(&appStats.Rejected)

	stats["applications"] = appStats

	var pendingDocs int64
	config.DB.Model(&models.DocumentSlot{}).
		Joins("JOIN document_requests ON document_requests.request_id = document_slots.request_id").
		Joins("JOIN applications ON applications.application_id = document_requests.application_id").
		Where("applications.user_id = ? AND document_slots.document_status IN ?",
			userID, []string{models.SlotStatusPending, models.SlotStatusRejected, models.SlotStatusNeedsRevision}).
		Count(&pendingDocs)
	stats["documents_awaiting_submission"] = pendingDocs

	var upcomingMeetings int64
	config.DB.Model(&models.Meeting{}).
		Joins("JOIN meeting_participants ON meeting_participants.meeting_id = meetings.meeting_id").
		Where("meeting_participants.user_id = ? AND meetings.status IN ? AND meetings.delete_at IS NULL",
			userID, []string{models.MeetingStatusScheduled, models.MeetingStatusConfirmed}).
		Count(&upcomingMeetings)
	stats["upcoming_meetings"] = upcomingMeetings

	return stats
}

// getProvinceDashboard summarizes applications for a PSTO's province.
func getProvinceDashboard(province *string) map[string]interface{} {
	stats := make(map[string]interface{})

	provinceApps := func() *gorm.DB {
		q := config.DB.Model(&models.Application{}).Where("delete_at IS NULL")
		if province != nil {
			q = q.Where("province = ?", *province)
		}
		return q
	}

	var total, awaitingEndorsement int64
	provinceApps().Count(&total)
	provinceApps().Where("psto_status = ?", models.StageStatusPending).
		Count(&awaitingEndorsement)

	stats["applications_total"] = total
	stats["awaiting_endorsement"] = awaitingEndorsement

	var tnaStats struct {
		Submitted int64 `json:"submitted"`
		Returned  int64 `json:"returned"`
		Signed    int64 `json:"signed"`
	}
	provinceTNA := func(status string) *gorm.DB {
		q := config.DB.Model(&models.TNAReport{}).
			Joins("JOIN applications ON applications.application_id = tna_reports.application_id").
			Where("tna_reports.delete_at IS NULL AND tna_reports.status = ?", status)
		if province != nil {
			q = q.Where("applications.province = ?", *province)
		}
		return q
	}
	provinceTNA(models.TNAStatusRTECCompleted).Count(&tnaStats.Submitted)
	provinceTNA(models.TNAStatusReturned).Count(&tnaStats.Returned)
	provinceTNA(models.TNAStatusSignedByRD).Count(&tnaStats.Signed)
	stats["tna_reports"] = tnaStats

	return stats
}

// getOperatorDashboard summarizes the whole pipeline for DOST-MIMAROPA.
func getOperatorDashboard() map[string]interface{} {
	stats := make(map[string]interface{})

	var awaitingReview int64
	config.DB.Model(&models.Application{}).
		Where("psto_status = ? AND dost_mimaropa_status = ? AND delete_at IS NULL",
			models.StageStatusApproved, models.StageStatusPending).
		Count(&awaitingReview)
	stats["applications_awaiting_review"] = awaitingReview

	var requestStats struct {
		Open        int64 `json:"open"`
		UnderReview int64 `json:"under_review"`
		Approved    int64 `json:"approved"`
	}
	openRequests := func(statuses []string) *gorm.DB {
		return config.DB.Model(&models.DocumentRequest{}).
			Where("delete_at IS NULL AND status IN ?", statuses)
	}
	openRequests([]string{
		models.RequestStatusRequested, models.RequestStatusSubmitted,
		models.RequestStatusRevisionRequested, models.RequestStatusAdditionalRequired,
	}).Count(&requestStats.Open)
	openRequests([]string{models.RequestStatusUnderReview}).Count(&requestStats.UnderReview)
	openRequests([]string{models.RequestStatusApproved}).Count(&requestStats.Approved)
	stats["document_requests"] = requestStats

	var meetingsScheduled int64
	config.DB.Model(&models.Meeting{}).
		Where("status IN ? AND delete_at IS NULL",
			[]string{models.MeetingStatusScheduled, models.MeetingStatusConfirmed}).
		Count(&meetingsScheduled)
	stats["meetings_scheduled"] = meetingsScheduled

	var tnaAwaiting int64
	config.DB.Model(&models.TNAReport{}).
		Where("status = ? AND delete_at IS NULL", models.TNAStatusRTECCompleted).
		Count(&tnaAwaiting)
	stats["tna_reports_awaiting_review"] = tnaAwaiting

	return stats
}
