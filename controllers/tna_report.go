package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"setup-workflow-api/config"
	"setup-workflow-api/models"
	"setup-workflow-api/services"
	"setup-workflow-api/utils"

	"github.com/gin-gonic/gin"
)

// GetTNAReports lists TNA reports visible to the requester.
func GetTNAReports(c *gin.Context) {
	userID, _ := c.Get("userID")
	roleName, _ := c.Get("roleName")
	province, _ := c.Get("province")

	var reports []models.TNAReport
	query := config.DB.Preload("Application").
		Joins("JOIN applications ON applications.application_id = tna_reports.application_id").
		Where("tna_reports.delete_at IS NULL")

	switch roleName {
	case models.RoleProponent:
		query = query.Where("applications.user_id = ?", userID)
	case models.RolePSTO:
		if p, ok := province.(*string); ok && p != nil {
			query = query.Where("applications.province = ?", *p)
		}
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("tna_reports.status = ?", status)
	}

	if err := query.Order("tna_reports.create_at DESC").Find(&reports).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch TNA reports"})
		return
	}

	c.JSON(http.StatusOK, docsEnvelope(reports, len(reports)))
}

// GetTNAReport returns one TNA report.
func GetTNAReport(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid report ID"})
		return
	}

	svc := services.NewTNAService(config.DB)
	report, err := svc.GetReport(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
}

// SubmitTNAReport accepts the completed TNA report file from a PSTO.
func SubmitTNAReport(c *gin.Context) {
	applicationID, err := strconv.Atoi(c.PostForm("application_id"))
	if err != nil || applicationID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "application_id is required"})
		return
	}

	storedName, originalName, ok := saveReportFile(c)
	if !ok {
		return
	}

	svc := services.NewTNAService(config.DB)
	report, err := svc.SubmitReport(applicationID, storedName, originalName, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "TNA report submitted",
		"data":    report,
	})
}

// ReviewTNAReport records the DOST-MIMAROPA decision on a report.
func ReviewTNAReport(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid report ID"})
		return
	}

	var req struct {
		Decision string `json:"decision" binding:"required"`
		Comments string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	svc := services.NewTNAService(config.DB)
	report, err := svc.Review(id, req.Decision, req.Comments, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "TNA report reviewed",
		"data":    report,
	})
}

// UploadSignedTNAReport attaches the copy signed by the Regional Director.
func UploadSignedTNAReport(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid report ID"})
		return
	}

	storedName, originalName, ok := saveReportFile(c)
	if !ok {
		return
	}

	svc := services.NewTNAService(config.DB)
	report, err := svc.AttachSignedReport(id, storedName, originalName, actorFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Signed TNA report attached",
		"data":    report,
	})
}

// DownloadTNAReport streams the submitted report file.
func DownloadTNAReport(c *gin.Context) {
	report, ok := loadReportForDownload(c)
	if !ok {
		return
	}
	if report.ReportFilename == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No report file on record"})
		return
	}
	serveStoredFile(c, *report.ReportFilename, report.ReportOriginalName)
}

// DownloadSignedTNAReport streams the RD-signed copy.
func DownloadSignedTNAReport(c *gin.Context) {
	report, ok := loadReportForDownload(c)
	if !ok {
		return
	}
	if report.SignedFilename == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No signed copy on record"})
		return
	}
	serveStoredFile(c, *report.SignedFilename, report.SignedOriginalName)
}

func loadReportForDownload(c *gin.Context) (*models.TNAReport, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid report ID"})
		return nil, false
	}

	svc := services.NewTNAService(config.DB)
	report, err := svc.GetReport(id)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return report, true
}

// saveReportFile stores the uploaded multipart file and records a FileUpload
// row. Responds with the error itself when the upload fails.
func saveReportFile(c *gin.Context) (storedName, originalName string, ok bool) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "file is required"})
		return "", "", false
	}
	if file.Size > maxDocumentSize {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File size exceeds 10MB limit"})
		return "", "", false
	}
	if !utils.AllowedDocumentExt(file.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File type not allowed"})
		return "", "", false
	}

	userID, _ := c.Get("userID")
	userFolder, err := utils.EnsureUserFolder(userID.(int))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create upload directory"})
		return "", "", false
	}

	storedName = utils.GenerateStoredFilename(file.Filename)
	fullPath := filepath.Join(userFolder, storedName)
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save file"})
		return "", "", false
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
		return "", "", false
	}

	return storedName, file.Filename, true
}
