package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"setup-workflow-api/config"
	"setup-workflow-api/models"
	"setup-workflow-api/services"

	"github.com/gin-gonic/gin"
)

// GetApplications lists applications scoped by the requester's role:
// proponents see their own, PSTOs see their province, DOST-MIMAROPA sees all.
func GetApplications(c *gin.Context) {
	userID, _ := c.Get("userID")
	roleName, _ := c.Get("roleName")
	province, _ := c.Get("province")

	var applications []models.Application
	query := config.DB.Preload("User").Where("applications.delete_at IS NULL")

	switch roleName {
	case models.RoleProponent:
		query = query.Where("user_id = ?", userID)
	case models.RolePSTO:
		if p, ok := province.(*string); ok && p != nil {
			query = query.Where("province = ?", *p)
		}
	}

	// Apply filters from query params
	if status := c.Query("psto_status"); status != "" {
		query = query.Where("psto_status = ?", status)
	}
	if status := c.Query("dost_mimaropa_status"); status != "" {
		query = query.Where("dost_mimaropa_status = ?", status)
	}

	if err := query.Order("create_at DESC").Find(&applications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch applications"})
		return
	}

	c.JSON(http.StatusOK, docsEnvelope(applications, len(applications)))
}

// GetApplication returns a single application by ID.
func GetApplication(c *gin.Context) {
	id := c.Param("id")
	userID, _ := c.Get("userID")
	roleName, _ := c.Get("roleName")

	var application models.Application
	query := config.DB.Preload("User").
		Where("application_id = ? AND applications.delete_at IS NULL", id)

	if roleName == models.RoleProponent {
		query = query.Where("user_id = ?", userID)
	}

	if err := query.First(&application).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Application not found"})
		return
	}

	var history []models.ApplicationStatusHistory
	config.DB.Where("application_id = ?", application.ApplicationID).
		Order("created_at ASC").Find(&history)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"application": application,
			"history":     history,
		},
	})
}

// CreateApplication submits a new SETUP application.
func CreateApplication(c *gin.Context) {
	type CreateApplicationRequest struct {
		EnterpriseName     string `json:"enterprise_name" binding:"required"`
		Province           string `json:"province" binding:"required"`
		ProjectTitle       string `json:"project_title" binding:"required"`
		ProjectDescription string `json:"project_description" binding:"required"`
	}

	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	userID, _ := c.Get("userID")

	now := time.Now()
	application := models.Application{
		ApplicationNumber:  generateApplicationNumber(),
		UserID:             userID.(int),
		EnterpriseName:     req.EnterpriseName,
		Province:           req.Province,
		ProjectTitle:       req.ProjectTitle,
		ProjectDescription: req.ProjectDescription,
		PSTOStatus:         models.StageStatusPending,
		DostStatus:         models.StageStatusPending,
		SubmittedAt:        &now,
		CreateAt:           &now,
		UpdateAt:           &now,
	}

	if err := config.DB.Create(&application).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create application"})
		return
	}

	config.DB.Preload("User").First(&application, application.ApplicationID)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Application submitted successfully",
		"data":    application,
	})
}

// ReviewApplication records a PSTO or DOST-MIMAROPA stage decision.
func ReviewApplication(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid application ID"})
		return
	}

	var req struct {
		Status   string `json:"status" binding:"required"`
		Comments string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	svc := services.NewApplicationReviewService(config.DB)
	application, err := svc.Review(id, actorFromContext(c), req.Status, req.Comments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Application %s", req.Status),
		"data":    application,
	})
}

// ResubmitApplication clears a returned stage back to pending.
func ResubmitApplication(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid application ID"})
		return
	}

	svc := services.NewApplicationReviewService(config.DB)
	application, err := svc.Resubmit(id, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Application resubmitted for review",
		"data":    application,
	})
}

// Helper function to generate application number
func generateApplicationNumber() string {
	// Format: SETUP-YYYYMMDD-XXXX
	now := time.Now()
	dateStr := now.Format("20060102")

	// Count today's applications
	var count int64
	config.DB.Model(&models.Application{}).
		Where("DATE(create_at) = DATE(NOW())").
		Count(&count)

	return fmt.Sprintf("SETUP-%s-%04d", dateStr, count+1)
}
