package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"setup-workflow-api/models"

	"gorm.io/gorm"
)

// DocumentRequestService is the document-collection engine shared by RTEC
// and refund document sets. Slot mutation and aggregate recompute always run
// inside one transaction so the stored status never diverges from the slots.
type DocumentRequestService struct {
	db *gorm.DB
}

func NewDocumentRequestService(db *gorm.DB) *DocumentRequestService {
	return &DocumentRequestService{db: db}
}

// SlotSubmission is the payload of a slot submission. Either a stored file
// reference (bytes already persisted by the blob store) or an inline text
// answer.
type SlotSubmission struct {
	StoredFilename string
	OriginalName   string
	TextAnswer     string
}

// CreateRequest opens a document request against an application. RTEC
// requests require the application approved at both stages; refund requests
// require a signed TNA report. One request exists per (application, purpose).
func (s *DocumentRequestService) CreateRequest(applicationID int, purpose string, dueDate *time.Time, defs []models.DocumentSlot, actor Actor) (*models.DocumentRequest, error) {
	if actor.Role != models.RoleDostMimaropa {
		return nil, ErrForbiddenRole
	}

	purpose = strings.ToLower(strings.TrimSpace(purpose))
	if purpose != models.RequestPurposeRTEC && purpose != models.RequestPurposeRefund {
		return nil, NewValidationError("purpose must be rtec or refund")
	}

	slots := dedupeSlots(defs)
	if len(slots) == 0 {
		return nil, NewValidationError("at least one document slot is required")
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

	switch purpose {
	case models.RequestPurposeRTEC:
		if !application.FullyApproved() {
			tx.Rollback()
			return nil, invalidTransitionf("application must be approved by PSTO and DOST-MIMAROPA before RTEC documents can be requested")
		}
	case models.RequestPurposeRefund:
		var signed int64
		if err := tx.Model(&models.TNAReport{}).
			Where("application_id = ? AND status = ? AND delete_at IS NULL", applicationID, models.TNAStatusSignedByRD).
			Count(&signed).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if signed == 0 {
			tx.Rollback()
			return nil, invalidTransitionf("refund documents require a TNA report signed by the Regional Director")
		}
	}

	var existing int64
	if err := tx.Model(&models.DocumentRequest{}).
		Where("application_id = ? AND purpose = ? AND delete_at IS NULL", applicationID, purpose).
		Count(&existing).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if existing > 0 {
		tx.Rollback()
		return nil, invalidTransitionf("%s documents have already been requested for this application", purpose)
	}

	now := time.Now()
	request := models.DocumentRequest{
		ApplicationID: applicationID,
		Purpose:       purpose,
		Status:        models.RequestStatusRequested,
		DueDate:       dueDate,
		RequestedBy:   actor.UserID,
		CreateAt:      &now,
		UpdateAt:      &now,
	}
	if err := tx.Create(&request).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for i := range slots {
		slots[i].RequestID = request.RequestID
		slots[i].SlotOrder = i + 1
		slots[i].DocumentStatus = models.SlotStatusPending
		slots[i].CreateAt = &now
		slots[i].UpdateAt = &now
	}
	if err := tx.Create(&slots).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := writeAudit(tx, actor, "create", "document_request", request.RequestID,
		map[string]interface{}{"purpose": purpose, "slots": len(slots)},
		"document request opened"); err != nil {
		tx.Rollback()
		return nil, err
	}

	title := fmt.Sprintf("%s documents requested", strings.ToUpper(purpose))
	message := fmt.Sprintf("Documents have been requested for application %s. Please submit the required items.",
		application.ApplicationNumber)
	appID := application.ApplicationID
	if err := NotifyUser(tx, application.UserID, title, message, "info", &appID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	SendMailToUser(s.db, application.UserID, title, message)

	return s.GetRequest(request.RequestID)
}

// GetRequest loads a request with its ordered slots.
func (s *DocumentRequestService) GetRequest(requestID int) (*models.DocumentRequest, error) {
	var request models.DocumentRequest
	err := s.db.Preload("Slots", func(db *gorm.DB) *gorm.DB {
		return db.Order("slot_order ASC")
	}).Preload("Application").
		Where("request_id = ? AND delete_at IS NULL", requestID).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// SubmitSlot records a submission for one slot and recomputes the aggregate
// status in the same transaction.
func (s *DocumentRequestService) SubmitSlot(requestID int, slotType string, payload SlotSubmission, actor Actor) (*models.DocumentRequest, error) {
	if actor.Role != models.RoleProponent && actor.Role != models.RolePSTO {
		return nil, ErrForbiddenRole
	}
	if payload.StoredFilename == "" && strings.TrimSpace(payload.TextAnswer) == "" {
		return nil, NewValidationError("a file or a text answer is required")
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	request, slot, err := s.lockRequestSlot(tx, requestID, slotType)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if !SlotEditable(slot) {
		tx.Rollback()
		return nil, fmt.Errorf("%w: slot %s is %s", ErrNotEditable, slot.SlotType, slot.DocumentStatus)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"document_status": models.SlotStatusSubmitted,
		"review_comments": nil,
		"reviewed_at":     nil,
		"to_revise":       false,
		"submitted_by":    actor.UserID,
		"submitted_at":    now,
		"update_at":       now,
	}
	if payload.StoredFilename != "" {
		updates["stored_filename"] = payload.StoredFilename
		updates["original_name"] = payload.OriginalName
	}
	if strings.TrimSpace(payload.TextAnswer) != "" {
		updates["text_answer"] = strings.TrimSpace(payload.TextAnswer)
	}

	if err := tx.Model(&models.DocumentSlot{}).
		Where("slot_id = ?", slot.SlotID).
		Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := s.recomputeStatus(tx, request, actor); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.GetRequest(requestID)
}

// ReviewSlot applies an approve/reject decision to a submitted slot.
func (s *DocumentRequestService) ReviewSlot(requestID int, slotType, action, comments string, actor Actor) (*models.DocumentRequest, error) {
	if actor.Role != models.RoleDostMimaropa {
		return nil, ErrForbiddenRole
	}

	action = strings.ToLower(strings.TrimSpace(action))
	if action != "approve" && action != "reject" {
		return nil, NewValidationError("action must be approve or reject")
	}
	comments = strings.TrimSpace(comments)
	if action == "reject" && comments == "" {
		return nil, ErrRequiresComments
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	request, slot, err := s.lockRequestSlot(tx, requestID, slotType)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if !SlotReviewable(slot) {
		tx.Rollback()
		return nil, invalidTransitionf("slot %s is %s, only submitted slots can be reviewed", slot.SlotType, slot.DocumentStatus)
	}

	newStatus := models.SlotStatusApproved
	if action == "reject" {
		newStatus = models.SlotStatusRejected
	}

	now := time.Now()
	if err := tx.Model(&models.DocumentSlot{}).
		Where("slot_id = ?", slot.SlotID).
		Updates(map[string]interface{}{
			"document_status": newStatus,
			"review_comments": strPtr(comments),
			"reviewed_at":     now,
			"update_at":       now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := s.recomputeStatus(tx, request, actor); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.GetRequest(requestID)
}

// RequestRevision flags the named slots for rework and moves exactly those
// slots to needs_revision. Approved slots outside the list keep their status.
func (s *DocumentRequestService) RequestRevision(requestID int, slotTypes []string, comments string, actor Actor) (*models.DocumentRequest, error) {
	if actor.Role != models.RoleDostMimaropa {
		return nil, ErrForbiddenRole
	}
	if len(slotTypes) == 0 {
		return nil, NewValidationError("at least one slot must be flagged for revision")
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	request, slots, err := s.lockRequest(tx, requestID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	known := make(map[string]*models.DocumentSlot, len(slots))
	for i := range slots {
		known[strings.ToLower(slots[i].SlotType)] = &slots[i]
	}

	flagged := make([]int, 0, len(slotTypes))
	seen := make(map[string]bool, len(slotTypes))
	for _, raw := range slotTypes {
		key := strings.ToLower(strings.TrimSpace(raw))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		slot, ok := known[key]
		if !ok {
			tx.Rollback()
			return nil, fmt.Errorf("%w: %s", ErrInvalidSlot, raw)
		}
		flagged = append(flagged, slot.SlotID)
	}
	if len(flagged) == 0 {
		tx.Rollback()
		return nil, NewValidationError("at least one slot must be flagged for revision")
	}

	now := time.Now()
	if err := tx.Model(&models.DocumentSlot{}).
		Where("slot_id IN ?", flagged).
		Updates(map[string]interface{}{
			"document_status": models.SlotStatusNeedsRevision,
			"to_revise":       true,
			"review_comments": nil,
			"reviewed_at":     nil,
			"update_at":       now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Model(&models.DocumentRequest{}).
		Where("request_id = ?", request.RequestID).
		Updates(map[string]interface{}{
			"status":            models.RequestStatusRevisionRequested,
			"revision_comments": strPtr(strings.TrimSpace(comments)),
			"update_at":         now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := writeAudit(tx, actor, "request_revision", "document_request", request.RequestID,
		map[string]interface{}{"slots": slotTypes, "comments": comments},
		"revision requested"); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := s.notifyRequestUpdate(tx, request, "Document revision requested",
		fmt.Sprintf("%d document(s) need revision. %s", len(flagged), strings.TrimSpace(comments))); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.GetRequest(requestID)
}

// RequireAdditionalDocuments appends new pending slots to the checklist.
// Types already present on the request are ignored, first occurrence wins.
func (s *DocumentRequestService) RequireAdditionalDocuments(requestID int, defs []SlotDefinition, actor Actor) (*models.DocumentRequest, error) {
	if actor.Role != models.RoleDostMimaropa {
		return nil, ErrForbiddenRole
	}

	deduped := DedupeSlotDefinitions(defs)
	if len(deduped) == 0 {
		return nil, NewValidationError("at least one additional document is required")
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	request, slots, err := s.lockRequest(tx, requestID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	existing := make(map[string]bool, len(slots))
	maxOrder := 0
	for i := range slots {
		existing[strings.ToLower(slots[i].SlotType)] = true
		if slots[i].SlotOrder > maxOrder {
			maxOrder = slots[i].SlotOrder
		}
	}

	now := time.Now()
	appended := make([]models.DocumentSlot, 0, len(deduped))
	for _, def := range deduped {
		if existing[strings.ToLower(def.Type)] {
			continue
		}
		maxOrder++
		appended = append(appended, models.DocumentSlot{
			RequestID:      request.RequestID,
			SlotType:       def.Type,
			SlotName:       def.Name,
			Description:    strPtr(def.Description),
			SlotOrder:      maxOrder,
			DocumentStatus: models.SlotStatusPending,
			IsAdditional:   true,
			CreateAt:       &now,
			UpdateAt:       &now,
		})
	}
	if len(appended) == 0 {
		tx.Rollback()
		return nil, NewValidationError("all requested document types already exist on this request")
	}

	if err := tx.Create(&appended).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Model(&models.DocumentRequest{}).
		Where("request_id = ?", request.RequestID).
		Updates(map[string]interface{}{
			"status":    models.RequestStatusAdditionalRequired,
			"update_at": now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := writeAudit(tx, actor, "require_additional", "document_request", request.RequestID,
		map[string]interface{}{"appended": len(appended)}, "additional documents required"); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := s.notifyRequestUpdate(tx, request, "Additional documents required",
		fmt.Sprintf("%d additional document(s) are required before the request can proceed.", len(appended))); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.GetRequest(requestID)
}

// lockRequest loads a request and its slots inside the transaction.
func (s *DocumentRequestService) lockRequest(tx *gorm.DB, requestID int) (*models.DocumentRequest, []models.DocumentSlot, error) {
	var request models.DocumentRequest
	if err := tx.Where("request_id = ? AND delete_at IS NULL", requestID).
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	var slots []models.DocumentSlot
	if err := tx.Where("request_id = ?", requestID).
		Order("slot_order ASC").Find(&slots).Error; err != nil {
		return nil, nil, err
	}
	return &request, slots, nil
}

func (s *DocumentRequestService) lockRequestSlot(tx *gorm.DB, requestID int, slotType string) (*models.DocumentRequest, *models.DocumentSlot, error) {
	request, slots, err := s.lockRequest(tx, requestID)
	if err != nil {
		return nil, nil, err
	}

	key := strings.ToLower(strings.TrimSpace(slotType))
	for i := range slots {
		if strings.ToLower(slots[i].SlotType) == key {
			return request, &slots[i], nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrInvalidSlot, slotType)
}

// recomputeStatus re-reads all slots and stores the derived aggregate.
// Runs inside the caller's transaction.
func (s *DocumentRequestService) recomputeStatus(tx *gorm.DB, request *models.DocumentRequest, actor Actor) error {
	var slots []models.DocumentSlot
	if err := tx.Where("request_id = ?", request.RequestID).Find(&slots).Error; err != nil {
		return err
	}

	newStatus := ComputeRequestStatus(request.Status, slots)
	if newStatus == request.Status {
		return nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":    newStatus,
		"update_at": now,
	}
	if newStatus == models.RequestStatusApproved || newStatus == models.RequestStatusUnderReview {
		// Revision round is over once every flagged slot was resubmitted.
		updates["revision_comments"] = nil
	}
	if err := tx.Model(&models.DocumentRequest{}).
		Where("request_id = ?", request.RequestID).
		Updates(updates).Error; err != nil {
		return err
	}

	if err := writeAudit(tx, actor, "status_change", "document_request", request.RequestID,
		map[string]interface{}{"old_status": request.Status, "new_status": newStatus},
		"aggregate status recomputed"); err != nil {
		return err
	}

	switch newStatus {
	case models.RequestStatusApproved:
		return s.notifyRequestUpdate(tx, request, "Documents approved",
			"All required documents have been approved.")
	case models.RequestStatusRejected:
		return s.notifyRequestUpdate(tx, request, "Documents rejected",
			"One or more documents were rejected. Check the review comments and resubmit.")
	}

	request.Status = newStatus
	return nil
}

func (s *DocumentRequestService) notifyRequestUpdate(tx *gorm.DB, request *models.DocumentRequest, title, message string) error {
	var application models.Application
	if err := tx.Where("application_id = ?", request.ApplicationID).First(&application).Error; err != nil {
		return err
	}
	appID := application.ApplicationID
	return NotifyUser(tx, application.UserID, title, strings.TrimSpace(message), "info", &appID)
}

func dedupeSlots(defs []models.DocumentSlot) []models.DocumentSlot {
	seen := make(map[string]bool, len(defs))
	result := make([]models.DocumentSlot, 0, len(defs))
	for _, def := range defs {
		key := strings.ToLower(strings.TrimSpace(def.SlotType))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, def)
	}
	return result
}
