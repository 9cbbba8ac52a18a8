package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"setup-workflow-api/models"

	"gorm.io/gorm"
)

// ApplicationReviewService drives the Proponent -> PSTO -> DOST-MIMAROPA
// review chain. The DOST stage is gated on PSTO approval; repeated reviews
// follow last-writer-wins but every decision lands in the status history.
type ApplicationReviewService struct {
	db *gorm.DB
}

func NewApplicationReviewService(db *gorm.DB) *ApplicationReviewService {
	return &ApplicationReviewService{db: db}
}

const (
	reviewStagePSTO = "psto"
	reviewStageDost = "dost_mimaropa"
)

func reviewStageForRole(role string) (string, error) {
	switch role {
	case models.RolePSTO:
		return reviewStagePSTO, nil
	case models.RoleDostMimaropa:
		return reviewStageDost, nil
	default:
		return "", ErrForbiddenRole
	}
}

// Review records a stage decision for the actor's stage.
func (s *ApplicationReviewService) Review(applicationID int, actor Actor, decision, comments string) (*models.Application, error) {
	decision = strings.ToLower(strings.TrimSpace(decision))
	switch decision {
	case models.StageStatusApproved, models.StageStatusReturned, models.StageStatusRejected:
	default:
		return nil, NewValidationError("decision must be approved, returned or rejected")
	}

	stage, err := reviewStageForRole(actor.Role)
	if err != nil {
		return nil, err
	}

	comments = strings.TrimSpace(comments)
	if decision == models.StageStatusRejected && comments == "" {
		return nil, ErrRequiresComments
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

	current := application.PSTOStatus
	if stage == reviewStageDost {
		if application.PSTOStatus != models.StageStatusApproved {
			tx.Rollback()
			return nil, invalidTransitionf("application has not been endorsed by the PSTO yet")
		}
		current = application.DostStatus
	}

	// Identical repeated decision is an idempotent no-op.
	if current == decision && stageComments(&application, stage) == comments {
		tx.Rollback()
		return &application, nil
	}

	if current != decision && !CanTransitionStage(current, decision) {
		tx.Rollback()
		return nil, invalidTransitionf("%s stage cannot move from %s to %s", stage, current, decision)
	}

	now := time.Now()
	updates := map[string]interface{}{"update_at": now}
	switch stage {
	case reviewStagePSTO:
		updates["psto_status"] = decision
		updates["psto_comments"] = strPtr(comments)
		updates["psto_reviewed_at"] = now
		if decision == models.StageStatusApproved {
			updates["forwarded_at"] = now
		}
	case reviewStageDost:
		updates["dost_mimaropa_status"] = decision
		updates["dost_mimaropa_comments"] = strPtr(comments)
		updates["dost_mimaropa_reviewed_at"] = now
	}

	if err := tx.Model(&models.Application{}).
		Where("application_id = ?", application.ApplicationID).
		Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	history := models.ApplicationStatusHistory{
		ApplicationID: application.ApplicationID,
		Stage:         stage,
		OldStatus:     current,
		NewStatus:     decision,
		ChangedBy:     actor.UserID,
		Comments:      strPtr(comments),
		CreatedAt:     now,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := writeAudit(tx, actor, "review", "application", application.ApplicationID,
		map[string]interface{}{"stage": stage, "decision": decision, "comments": comments},
		fmt.Sprintf("%s review: %s", stage, decision)); err != nil {
		tx.Rollback()
		return nil, err
	}

	title := fmt.Sprintf("Application %s %s", application.ApplicationNumber, decision)
	message := fmt.Sprintf("Your SETUP application %s was %s at the %s stage.",
		application.ApplicationNumber, decision, stageLabel(stage))
	if comments != "" {
		message += " Comments: " + comments
	}
	appID := application.ApplicationID
	if err := NotifyUser(tx, application.UserID, title, message, notifTypeForDecision(decision), &appID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	SendMailToUser(s.db, application.UserID, title, message)

	var updated models.Application
	if err := s.db.Preload("User").First(&updated, application.ApplicationID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

// Resubmit routes a returned application back into review by clearing the
// returned stage to pending. The other stage keeps its prior value.
func (s *ApplicationReviewService) Resubmit(applicationID int, actor Actor) (*models.Application, error) {
	if actor.Role != models.RoleProponent {
		return nil, ErrForbiddenRole
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var application models.Application
	if err := tx.Where("application_id = ? AND user_id = ? AND delete_at IS NULL", applicationID, actor.UserID).
		First(&application).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var stage, previous string
	switch {
	case application.DostStatus == models.StageStatusReturned:
		stage, previous = reviewStageDost, application.DostStatus
	case application.PSTOStatus == models.StageStatusReturned:
		stage, previous = reviewStagePSTO, application.PSTOStatus
	default:
		tx.Rollback()
		return nil, invalidTransitionf("application has no returned stage to resubmit")
	}

	now := time.Now()
	updates := map[string]interface{}{
		"update_at":    now,
		"submitted_at": now,
	}
	if stage == reviewStagePSTO {
		updates["psto_status"] = models.StageStatusPending
	} else {
		updates["dost_mimaropa_status"] = models.StageStatusPending
	}

	if err := tx.Model(&models.Application{}).
		Where("application_id = ?", application.ApplicationID).
		Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	history := models.ApplicationStatusHistory{
		ApplicationID: application.ApplicationID,
		Stage:         stage,
		OldStatus:     previous,
		NewStatus:     models.StageStatusPending,
		ChangedBy:     actor.UserID,
		CreatedAt:     now,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := writeAudit(tx, actor, "resubmit", "application", application.ApplicationID,
		map[string]interface{}{"stage": stage}, "application resubmitted"); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	var updated models.Application
	if err := s.db.First(&updated, application.ApplicationID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

func stageComments(a *models.Application, stage string) string {
	var c *string
	if stage == reviewStagePSTO {
		c = a.PSTOComments
	} else {
		c = a.DostComments
	}
	if c == nil {
		return ""
	}
	return *c
}

func stageLabel(stage string) string {
	if stage == reviewStagePSTO {
		return "PSTO"
	}
	return "DOST-MIMAROPA"
}

func notifTypeForDecision(decision string) string {
	switch decision {
	case models.StageStatusApproved:
		return "success"
	case models.StageStatusReturned:
		return "warning"
	default:
		return "error"
	}
}
