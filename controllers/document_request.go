package controllers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"setup-workflow-api/config"
	"setup-workflow-api/models"
	"setup-workflow-api/services"
	"setup-workflow-api/utils"

	"github.com/gin-gonic/gin"
)

const maxDocumentSize = int64(10 * 1024 * 1024) // 10MB

// GetDocumentRequests lists document requests visible to the requester.
func GetDocumentRequests(c *gin.Context) {
	userID, _ := c.Get("userID")
	roleName, _ := c.Get("roleName")
	province, _ := c.Get("province")

	var requests []models.DocumentRequest
	query := config.DB.Preload("Application").Preload("Slots").
		Joins("JOIN applications ON applications.application_id = document_requests.application_id").
		Where("document_requests.delete_at IS NULL")

	switch roleName {
	case models.RoleProponent:
		query = query.Where("applications.user_id = ?", userID)
	case models.RolePSTO:
		if p, ok := province.(*string); ok && p != nil {
			query = query.Where("applications.province = ?", *p)
		}
	}

	if purpose := c.Query("purpose"); purpose != "" {
		query = query.Where("document_requests.purpose = ?", purpose)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("document_requests.status = ?", status)
	}

	if err := query.Order("document_requests.create_at DESC").Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch document requests"})
		return
	}

	c.JSON(http.StatusOK, docsEnvelope(requests, len(requests)))
}

// GetDocumentRequest returns one request with its slots.
func GetDocumentRequest(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request ID"})
		return
	}

	svc := services.NewDocumentRequestService(config.DB)
	request, err := svc.GetRequest(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": request})
}

// CreateDocumentRequest opens a document request for an application.
func CreateDocumentRequest(c *gin.Context) {
	var req struct {
		ApplicationID int                       `json:"application_id" binding:"required"`
		Purpose       string                    `json:"purpose" binding:"required"`
		DueDate       string                    `json:"due_date"` // YYYY-MM-DD, advisory only
		Slots         []services.SlotDefinition `json:"slots" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var dueDate *time.Time
	if strings.TrimSpace(req.DueDate) != "" {
		parsed, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.DueDate), time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "due_date must be in YYYY-MM-DD format"})
			return
		}
		dueDate = &parsed
	}

	defs := make([]models.DocumentSlot, 0, len(req.Slots))
	for _, slot := range req.Slots {
		defs = append(defs, models.DocumentSlot{
			SlotType:    strings.TrimSpace(slot.Type),
			SlotName:    strings.TrimSpace(slot.Name),
			Description: descriptionPtr(slot.Description),
		})
	}

	svc := services.NewDocumentRequestService(config.DB)
	request, err := svc.CreateRequest(req.ApplicationID, req.Purpose, dueDate, defs, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Document request created",
		"data":    request,
	})
}

// SubmitDocumentSlot accepts a multipart file or a text answer for one slot.
// File bytes go to the blob store first; the slot transition and the
// aggregate recompute then run as one unit of work, so a failed recompute
// never leaves the slot marked submitted.
func SubmitDocumentSlot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request ID"})
		return
	}

	slotType := strings.TrimSpace(c.PostForm("slot_type"))
	if slotType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "slot_type is required"})
		return
	}

	userID, _ := c.Get("userID")
	payload := services.SlotSubmission{TextAnswer: c.PostForm("text_answer")}

	file, err := c.FormFile("file")
	if err == nil {
		if file.Size > maxDocumentSize {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File size exceeds 10MB limit"})
			return
		}
		if !utils.AllowedDocumentExt(file.Filename) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File type not allowed"})
			return
		}

		userFolder, err := utils.EnsureUserFolder(userID.(int))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create upload directory"})
			return
		}

		storedName := utils.GenerateStoredFilename(file.Filename)
		fullPath := filepath.Join(userFolder, storedName)
		if err := c.SaveUploadedFile(file, fullPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save file"})
			return
		}

		now := time.Now()
		fileUpload := models.FileUpload{
			OriginalName: file.Filename,
			StoredPath:   fullPath,
			FileSize:     file.Size,
			MimeType:     file.Header.Get("Content-Type"),
			UploadedBy:   userID.(int),
			UploadedAt:   now,
			CreateAt:     now,
			UpdateAt:     now,
		}
		if err := config.DB.Create(&fileUpload).Error; err != nil {
			os.Remove(fullPath)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save file info"})
			return
		}

		payload.StoredFilename = storedName
		payload.OriginalName = file.Filename
	}

	svc := services.NewDocumentRequestService(config.DB)
	request, err := svc.SubmitSlot(id, slotType, payload, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Document submitted",
		"data":    request,
	})
}

// ReviewDocumentSlot records an approve/reject decision for one slot.
func ReviewDocumentSlot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request ID"})
		return
	}

	var req struct {
		SlotType string `json:"slot_type" binding:"required"`
		Action   string `json:"action" binding:"required"`
		Comments string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	svc := services.NewDocumentRequestService(config.DB)
	request, err := svc.ReviewSlot(id, req.SlotType, req.Action, req.Comments, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Document %sd", req.Action),
		"data":    request,
	})
}

// RequestDocumentRevision flags slots for rework.
func RequestDocumentRevision(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request ID"})
		return
	}

	var req struct {
		SlotTypes []string `json:"slot_types" binding:"required"`
		Comments  string   `json:"comments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	svc := services.NewDocumentRequestService(config.DB)
	request, err := svc.RequestRevision(id, req.SlotTypes, req.Comments, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Revision requested",
		"data":    request,
	})
}

// RequireAdditionalDocuments appends new document slots to the checklist.
func RequireAdditionalDocuments(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request ID"})
		return
	}

	var req struct {
		Slots []services.SlotDefinition `json:"slots" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	svc := services.NewDocumentRequestService(config.DB)
	request, err := svc.RequireAdditionalDocuments(id, req.Slots, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Additional documents required",
		"data":    request,
	})
}

// DownloadSlotDocument streams the stored file of one slot.
func DownloadSlotDocument(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request ID"})
		return
	}
	slotType := strings.TrimSpace(c.Query("slot_type"))
	if slotType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "slot_type is required"})
		return
	}

	var slot models.DocumentSlot
	if err := config.DB.Where("request_id = ? AND slot_type = ?", id, slotType).
		First(&slot).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Document slot not found"})
		return
	}
	if slot.StoredFilename == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No file has been submitted for this slot"})
		return
	}

	serveStoredFile(c, *slot.StoredFilename, slot.OriginalName)
}

// serveStoredFile locates a blob by stored filename and streams it.
func serveStoredFile(c *gin.Context, storedFilename string, originalName *string) {
	var upload models.FileUpload
	fullPath := ""
	if err := config.DB.Where("stored_path LIKE ? AND delete_at IS NULL", "%"+storedFilename).
		First(&upload).Error; err == nil {
		fullPath = upload.StoredPath
	}
	if fullPath == "" {
		fullPath = filepath.Join(utils.UploadPath(), storedFilename)
	}

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "File not found"})
		return
	}

	downloadName := storedFilename
	if originalName != nil && *originalName != "" {
		downloadName = *originalName
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", downloadName))
	c.Header("Content-Type", "application/octet-stream")

	c.File(fullPath)
}

func descriptionPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
