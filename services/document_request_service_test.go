package services

import (
	"database/sql/driver"
	"regexp"
	"testing"

	"setup-workflow-api/models"
)

// Resubmitting a rejected slot must wipe its review metadata and, with no
// rejected slot left, move the request back to under review and clear the
// request-level revision comments.
func TestSubmitSlot_ClearsReviewTrailOnResubmission(t *testing.T) {
	requestCols := []string{"request_id", "application_id", "purpose", "status"}
	slotCols := []string{"slot_id", "request_id", "slot_type", "slot_name", "slot_order", "document_status", "review_comments"}

	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `document_requests` WHERE request_id"),
			columns: requestCols,
			rows:    [][]driver.Value{{int64(9), int64(2), models.RequestPurposeRTEC, models.RequestStatusRejected}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("FROM `document_slots` WHERE request_id"),
			columns: slotCols,
			rows: [][]driver.Value{
				{int64(1), int64(9), "proposal", "Project Proposal", int64(1), models.SlotStatusApproved, nil},
				{int64(2), int64(9), "financials", "Financial Statement", int64(2), models.SlotStatusRejected, "Wrong fiscal year"},
			},
		},
		// SET columns in alphabetical order. review_comments and reviewed_at
		// must be nulled alongside the new submission.
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `document_slots` SET"),
			args: []driver.Value{
				models.SlotStatusSubmitted, nil, nil, skipArg, int64(3),
				"Revised financial statement", false, skipArg, int64(2),
			},
			result: scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("FROM `document_slots` WHERE request_id"),
			columns: slotCols,
			rows: [][]driver.Value{
				{int64(1), int64(9), "proposal", "Project Proposal", int64(1), models.SlotStatusApproved, nil},
				{int64(2), int64(9), "financials", "Financial Statement", int64(2), models.SlotStatusSubmitted, nil},
			},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `document_requests` SET"),
			args:    []driver.Value{nil, models.RequestStatusUnderReview, skipArg, int64(9)},
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `audit_logs`"),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `document_requests` WHERE request_id"),
			columns: requestCols,
			rows:    [][]driver.Value{{int64(9), int64(2), models.RequestPurposeRTEC, models.RequestStatusUnderReview}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("FROM `applications`"),
			columns: []string{"application_id"},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("FROM `document_slots`"),
			columns: slotCols,
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewDocumentRequestService(db)
	request, err := svc.SubmitSlot(9, "financials",
		SlotSubmission{TextAnswer: "Revised financial statement"},
		Actor{UserID: 3, Role: models.RolePSTO})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if request.Status != models.RequestStatusUnderReview {
		t.Fatalf("expected %s, got %s", models.RequestStatusUnderReview, request.Status)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}
