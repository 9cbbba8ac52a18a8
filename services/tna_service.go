package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"setup-workflow-api/models"

	"gorm.io/gorm"
)

// TNAService drives the TNA report chain: PSTO submission, DOST-MIMAROPA
// review, and the offline Regional-Director signature round-trip. Attaching
// the signed copy only records the file and a timestamp; the system never
// verifies signature authenticity.
type TNAService struct {
	db *gorm.DB
}

func NewTNAService(db *gorm.DB) *TNAService {
	return &TNAService{db: db}
}

// SubmitReport records a completed TNA report for an application.
func (s *TNAService) SubmitReport(applicationID int, storedFilename, originalName string, actor Actor) (*models.TNAReport, error) {
	if actor.Role != models.RolePSTO {
		return nil, ErrForbiddenRole
	}
	if storedFilename == "" {
		return nil, NewValidationError("report file is required")
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var application models.Application
	if err := tx.Where("application_id = ? AND delete_at IS NULL", applicationID).
		First(&application).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now()

	// A returned report is resubmitted in place; otherwise one report exists
	// per application.
	var report models.TNAReport
	err := tx.Where("application_id = ? AND delete_at IS NULL", applicationID).First(&report).Error
	switch {
	case err == nil:
		if report.Status != models.TNAStatusReturned {
			tx.Rollback()
			return nil, invalidTransitionf("a TNA report already exists with status %s", report.Status)
		}
		if err := tx.Model(&models.TNAReport{}).
			Where("report_id = ?", report.ReportID).
			Updates(map[string]interface{}{
				"status":               models.TNAStatusRTECCompleted,
				"report_filename":      storedFilename,
				"report_original_name": originalName,
				"review_comments":      nil,
				"reviewed_by":          nil,
				"reviewed_at":          nil,
				"submitted_by":         actor.UserID,
				"update_at":            now,
			}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		report = models.TNAReport{
			ApplicationID:      applicationID,
			Status:             models.TNAStatusRTECCompleted,
			ReportFilename:     &storedFilename,
			ReportOriginalName: strPtr(originalName),
			SubmittedBy:        actor.UserID,
			CreateAt:           &now,
			UpdateAt:           &now,
		}
		if err := tx.Create(&report).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	default:
		tx.Rollback()
		return nil, err
	}

	if err := writeAudit(tx, actor, "submit", "tna_report", report.ReportID,
		map[string]interface{}{"application_id": applicationID, "filename": storedFilename},
		"TNA report submitted"); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := NotifyRole(tx, models.RoleDostMimaropa, "TNA report submitted",
		fmt.Sprintf("A TNA report for application %s is awaiting review.", application.ApplicationNumber),
		"info", &application.ApplicationID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.GetReport(report.ReportID)
}

// Review records the DOST-MIMAROPA decision on a submitted report.
func (s *TNAService) Review(reportID int, decision, comments string, actor Actor) (*models.TNAReport, error) {
	if actor.Role != models.RoleDostMimaropa {
		return nil, ErrForbiddenRole
	}

	decision = strings.ToLower(strings.TrimSpace(decision))
	var target string
	switch decision {
	case "approve", models.TNAStatusDostApproved:
		target = models.TNAStatusDostApproved
	case "reject", models.TNAStatusRejected:
		target = models.TNAStatusRejected
	case "return", models.TNAStatusReturned:
		target = models.TNAStatusReturned
	default:
		return nil, NewValidationError("decision must be approve, reject or return")
	}

	comments = strings.TrimSpace(comments)
	if target == models.TNAStatusRejected && comments == "" {
		return nil, ErrRequiresComments
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	report, err := s.loadReport(tx, reportID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if !CanTransitionTNA(report.Status, target) {
		tx.Rollback()
		return nil, invalidTransitionf("TNA report cannot move from %s to %s", report.Status, target)
	}

	now := time.Now()
	if err := tx.Model(&models.TNAReport{}).
		Where("report_id = ?", report.ReportID).
		Updates(map[string]interface{}{
			"status":          target,
			"review_comments": strPtr(comments),
			"reviewed_by":     actor.UserID,
			"reviewed_at":     now,
			"update_at":       now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := writeAudit(tx, actor, "review", "tna_report", report.ReportID,
		map[string]interface{}{"decision": target, "comments": comments},
		"TNA report reviewed"); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := NotifyUser(tx, report.SubmittedBy, "TNA report "+target,
		fmt.Sprintf("The TNA report for application %d is now %s. %s", report.ApplicationID, target, comments),
		notifTypeForTNA(target), &report.ApplicationID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.GetReport(reportID)
}

// AttachSignedReport records the signed copy returned from the Regional
// Director and stamps rd_signed_at.
func (s *TNAService) AttachSignedReport(reportID int, storedFilename, originalName string, actor Actor) (*models.TNAReport, error) {
	if actor.Role != models.RoleDostMimaropa {
		return nil, ErrForbiddenRole
	}
	if storedFilename == "" {
		return nil, NewValidationError("signed report file is required")
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	report, err := s.loadReport(tx, reportID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if !CanTransitionTNA(report.Status, models.TNAStatusSignedByRD) {
		tx.Rollback()
		return nil, invalidTransitionf("TNA report must be approved by DOST-MIMAROPA before signing, current status is %s", report.Status)
	}

	now := time.Now()
	if err := tx.Model(&models.TNAReport{}).
		Where("report_id = ?", report.ReportID).
		Updates(map[string]interface{}{
			"status":               models.TNAStatusSignedByRD,
			"signed_filename":      storedFilename,
			"signed_original_name": originalName,
			"rd_signed_at":         now,
			"update_at":            now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := writeAudit(tx, actor, "sign", "tna_report", report.ReportID,
		map[string]interface{}{"filename": storedFilename},
		"signed TNA report attached"); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := NotifyUser(tx, report.SubmittedBy, "TNA report signed",
		fmt.Sprintf("The TNA report for application %d has been signed by the Regional Director.", report.ApplicationID),
		"success", &report.ApplicationID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.GetReport(reportID)
}

// GetReport loads one report.
func (s *TNAService) GetReport(reportID int) (*models.TNAReport, error) {
	var report models.TNAReport
	if err := s.db.Preload("Application").
		Where("report_id = ? AND delete_at IS NULL", reportID).
		First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (s *TNAService) loadReport(tx *gorm.DB, reportID int) (*models.TNAReport, error) {
	var report models.TNAReport
	if err := tx.Where("report_id = ? AND delete_at IS NULL", reportID).
		First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

func notifTypeForTNA(status string) string {
	switch status {
	case models.TNAStatusDostApproved, models.TNAStatusSignedByRD:
		return "success"
	case models.TNAStatusReturned:
		return "warning"
	default:
		return "error"
	}
}
