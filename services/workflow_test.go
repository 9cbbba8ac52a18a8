package services

import (
	"errors"
	"testing"

	"setup-workflow-api/models"
)

func slot(status string) models.DocumentSlot {
	return models.DocumentSlot{DocumentStatus: status}
}

func TestComputeRequestStatus_AllApproved(t *testing.T) {
	slots := []models.DocumentSlot{
		slot(models.SlotStatusApproved),
		slot(models.SlotStatusApproved),
		slot(models.SlotStatusApproved),
	}
	got := ComputeRequestStatus(models.RequestStatusUnderReview, slots)
	if got != models.RequestStatusApproved {
		t.Fatalf("expected %s, got %s", models.RequestStatusApproved, got)
	}
}

func TestComputeRequestStatus_PartialSubmissionKeepsCurrent(t *testing.T) {
	slots := []models.DocumentSlot{
		slot(models.SlotStatusSubmitted),
		slot(models.SlotStatusPending),
		slot(models.SlotStatusPending),
	}
	got := ComputeRequestStatus(models.RequestStatusRequested, slots)
	if got != models.RequestStatusRequested {
		t.Fatalf("partial submission must not advance the request, got %s", got)
	}
}

func TestComputeRequestStatus_FullSubmission(t *testing.T) {
	slots := []models.DocumentSlot{
		slot(models.SlotStatusSubmitted),
		slot(models.SlotStatusSubmitted),
		slot(models.SlotStatusSubmitted),
	}
	got := ComputeRequestStatus(models.RequestStatusRequested, slots)
	if got != models.RequestStatusSubmitted {
		t.Fatalf("expected %s, got %s", models.RequestStatusSubmitted, got)
	}
}

func TestComputeRequestStatus_MixedDecisionsUnderReview(t *testing.T) {
	slots := []models.DocumentSlot{
		slot(models.SlotStatusApproved),
		slot(models.SlotStatusSubmitted),
	}
	got := ComputeRequestStatus(models.RequestStatusSubmitted, slots)
	if got != models.RequestStatusUnderReview {
		t.Fatalf("expected %s, got %s", models.RequestStatusUnderReview, got)
	}
}

func TestComputeRequestStatus_AnyRejected(t *testing.T) {
	slots := []models.DocumentSlot{
		slot(models.SlotStatusApproved),
		slot(models.SlotStatusRejected),
		slot(models.SlotStatusSubmitted),
	}
	got := ComputeRequestStatus(models.RequestStatusUnderReview, slots)
	if got != models.RequestStatusRejected {
		t.Fatalf("expected %s, got %s", models.RequestStatusRejected, got)
	}
}

// A rejected slot resubmitted by the proponent routes the request back to
// under review rather than submitted.
func TestComputeRequestStatus_ResubmissionAfterRejection(t *testing.T) {
	slots := []models.DocumentSlot{
		slot(models.SlotStatusApproved),
		slot(models.SlotStatusSubmitted),
		slot(models.SlotStatusApproved),
	}
	got := ComputeRequestStatus(models.RequestStatusRejected, slots)
	if got != models.RequestStatusUnderReview {
		t.Fatalf("expected %s, got %s", models.RequestStatusUnderReview, got)
	}
}

// Three-slot walkthrough: approve two, reject one, resubmit, approve.
func TestComputeRequestStatus_ThreeSlotLifecycle(t *testing.T) {
	slots := []models.DocumentSlot{
		slot(models.SlotStatusPending),
		slot(models.SlotStatusPending),
		slot(models.SlotStatusPending),
	}
	status := models.RequestStatusRequested

	// Submit one by one
	slots[0].DocumentStatus = models.SlotStatusSubmitted
	status = ComputeRequestStatus(status, slots)
	if status != models.RequestStatusRequested {
		t.Fatalf("after first submission: got %s", status)
	}
	slots[1].DocumentStatus = models.SlotStatusSubmitted
	slots[2].DocumentStatus = models.SlotStatusSubmitted
	status = ComputeRequestStatus(status, slots)
	if status != models.RequestStatusSubmitted {
		t.Fatalf("after full submission: got %s", status)
	}

	// Two approvals, one rejection
	slots[0].DocumentStatus = models.SlotStatusApproved
	status = ComputeRequestStatus(status, slots)
	if status != models.RequestStatusUnderReview {
		t.Fatalf("after first approval: got %s", status)
	}
	slots[1].DocumentStatus = models.SlotStatusApproved
	slots[2].DocumentStatus = models.SlotStatusRejected
	status = ComputeRequestStatus(status, slots)
	if status != models.RequestStatusRejected {
		t.Fatalf("after rejection: got %s", status)
	}

	// Resubmit the rejected slot and approve it
	slots[2].DocumentStatus = models.SlotStatusSubmitted
	status = ComputeRequestStatus(status, slots)
	if status != models.RequestStatusUnderReview {
		t.Fatalf("after resubmission: got %s", status)
	}
	slots[2].DocumentStatus = models.SlotStatusApproved
	status = ComputeRequestStatus(status, slots)
	if status != models.RequestStatusApproved {
		t.Fatalf("after final approval: got %s", status)
	}
}

// Appending an additional pending slot pulls an approved request out of the
// approved state only through the explicit additional_documents_required
// status; the recompute itself must keep the current status while the new
// slot is pending.
func TestComputeRequestStatus_AdditionalSlotKeepsCurrent(t *testing.T) {
	slots := []models.DocumentSlot{
		slot(models.SlotStatusApproved),
		slot(models.SlotStatusApproved),
		{DocumentStatus: models.SlotStatusPending, IsAdditional: true},
	}
	got := ComputeRequestStatus(models.RequestStatusAdditionalRequired, slots)
	if got != models.RequestStatusAdditionalRequired {
		t.Fatalf("expected %s, got %s", models.RequestStatusAdditionalRequired, got)
	}
}

// Slots flagged for revision hold the request in documents_revision_requested
// until every flagged slot is resubmitted.
func TestComputeRequestStatus_NeedsRevisionKeepsCurrent(t *testing.T) {
	slots := []models.DocumentSlot{
		slot(models.SlotStatusApproved),
		{DocumentStatus: models.SlotStatusNeedsRevision, ToRevise: true},
	}
	got := ComputeRequestStatus(models.RequestStatusRevisionRequested, slots)
	if got != models.RequestStatusRevisionRequested {
		t.Fatalf("expected %s, got %s", models.RequestStatusRevisionRequested, got)
	}

	// Resubmitting the flagged slot routes the request back to under review.
	slots[1] = slot(models.SlotStatusSubmitted)
	got = ComputeRequestStatus(models.RequestStatusRevisionRequested, slots)
	if got != models.RequestStatusUnderReview {
		t.Fatalf("expected %s, got %s", models.RequestStatusUnderReview, got)
	}
}

func TestComputeRequestStatus_NoSlots(t *testing.T) {
	got := ComputeRequestStatus(models.RequestStatusRequested, nil)
	if got != models.RequestStatusRequested {
		t.Fatalf("expected %s, got %s", models.RequestStatusRequested, got)
	}
}

func TestSlotEditable(t *testing.T) {
	cases := []struct {
		name string
		slot models.DocumentSlot
		want bool
	}{
		{"pending", slot(models.SlotStatusPending), true},
		{"rejected", slot(models.SlotStatusRejected), true},
		{"needs revision", slot(models.SlotStatusNeedsRevision), true},
		{"submitted", slot(models.SlotStatusSubmitted), false},
		{"approved", slot(models.SlotStatusApproved), false},
		{"approved flagged for revision", models.DocumentSlot{
			DocumentStatus: models.SlotStatusApproved, ToRevise: true}, true},
	}
	for _, tc := range cases {
		if got := SlotEditable(&tc.slot); got != tc.want {
			t.Errorf("%s: SlotEditable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSlotReviewable(t *testing.T) {
	submitted := slot(models.SlotStatusSubmitted)
	if !SlotReviewable(&submitted) {
		t.Fatalf("submitted slot must be reviewable")
	}
	for _, status := range []string{
		models.SlotStatusPending,
		models.SlotStatusApproved,
		models.SlotStatusRejected,
	} {
		s := slot(status)
		if SlotReviewable(&s) {
			t.Errorf("%s slot must not be reviewable", status)
		}
	}
}

func TestCanTransitionStage(t *testing.T) {
	allowed := [][2]string{
		{models.StageStatusPending, models.StageStatusApproved},
		{models.StageStatusPending, models.StageStatusReturned},
		{models.StageStatusPending, models.StageStatusRejected},
		{models.StageStatusApproved, models.StageStatusRejected},
		{models.StageStatusReturned, models.StageStatusPending},
		{models.StageStatusRejected, models.StageStatusApproved},
	}
	for _, pair := range allowed {
		if !CanTransitionStage(pair[0], pair[1]) {
			t.Errorf("%s -> %s should be allowed", pair[0], pair[1])
		}
	}

	denied := [][2]string{
		{models.StageStatusApproved, models.StageStatusPending},
		{models.StageStatusRejected, models.StageStatusPending},
		{models.StageStatusPending, models.StageStatusPending},
		{models.StageStatusApproved, "unknown"},
	}
	for _, pair := range denied {
		if CanTransitionStage(pair[0], pair[1]) {
			t.Errorf("%s -> %s should be denied", pair[0], pair[1])
		}
	}
}

func TestCanTransitionMeeting(t *testing.T) {
	if !CanTransitionMeeting(models.MeetingStatusScheduled, models.MeetingStatusConfirmed) {
		t.Error("scheduled -> confirmed should be allowed")
	}
	if !CanTransitionMeeting(models.MeetingStatusConfirmed, models.MeetingStatusCompleted) {
		t.Error("confirmed -> completed should be allowed")
	}
	if !CanTransitionMeeting(models.MeetingStatusPostponed, models.MeetingStatusScheduled) {
		t.Error("postponed -> scheduled should be allowed")
	}
	if CanTransitionMeeting(models.MeetingStatusScheduled, models.MeetingStatusCompleted) {
		t.Error("a meeting cannot complete without being confirmed")
	}
	if CanTransitionMeeting(models.MeetingStatusCompleted, models.MeetingStatusCancelled) {
		t.Error("completed is terminal")
	}
	if CanTransitionMeeting(models.MeetingStatusCancelled, models.MeetingStatusScheduled) {
		t.Error("cancelled is terminal")
	}
}

func TestCanTransitionTNA(t *testing.T) {
	if !CanTransitionTNA(models.TNAStatusRTECCompleted, models.TNAStatusDostApproved) {
		t.Error("rtec_completed -> dost_mimaropa_approved should be allowed")
	}
	if !CanTransitionTNA(models.TNAStatusReturned, models.TNAStatusRTECCompleted) {
		t.Error("returned -> rtec_completed should be allowed")
	}
	if !CanTransitionTNA(models.TNAStatusDostApproved, models.TNAStatusSignedByRD) {
		t.Error("dost_mimaropa_approved -> signed_by_rd should be allowed")
	}
	if CanTransitionTNA(models.TNAStatusRTECCompleted, models.TNAStatusSignedByRD) {
		t.Error("a report cannot be signed before approval")
	}
	if CanTransitionTNA(models.TNAStatusRejected, models.TNAStatusRTECCompleted) {
		t.Error("rejected is terminal")
	}
	if CanTransitionTNA(models.TNAStatusSignedByRD, models.TNAStatusReturned) {
		t.Error("signed_by_rd is terminal")
	}
}

func TestDedupeSlotDefinitions(t *testing.T) {
	defs := []SlotDefinition{
		{Type: "project_proposal", Name: "Project Proposal"},
		{Type: "financial_statement", Name: "Financial Statement"},
		{Type: "Project_Proposal", Name: "Duplicate, different case"},
		{Type: "  ", Name: "Blank type"},
		{Type: "financial_statement", Name: "Exact duplicate"},
	}
	got := DedupeSlotDefinitions(defs)
	if len(got) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(got))
	}
	if got[0].Name != "Project Proposal" || got[1].Name != "Financial Statement" {
		t.Fatalf("first occurrence must win, got %+v", got)
	}
}

func TestParticipantCanRespond(t *testing.T) {
	invited := &models.MeetingParticipant{Status: models.ParticipantStatusInvited}

	if err := ParticipantCanRespond(invited, models.RoleProponent, models.ParticipantStatusConfirmed); err != nil {
		t.Fatalf("proponent confirm: %v", err)
	}
	if err := ParticipantCanRespond(invited, models.RoleProponent, models.ParticipantStatusDeclined); err != nil {
		t.Fatalf("proponent decline: %v", err)
	}
	if err := ParticipantCanRespond(invited, models.RolePSTO, models.ParticipantStatusConfirmed); err != nil {
		t.Fatalf("psto confirm: %v", err)
	}

	err := ParticipantCanRespond(invited, models.RolePSTO, models.ParticipantStatusDeclined)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("psto decline must be rejected, got %v", err)
	}

	confirmed := &models.MeetingParticipant{Status: models.ParticipantStatusConfirmed}
	err = ParticipantCanRespond(confirmed, models.RoleProponent, models.ParticipantStatusDeclined)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("already-responded participant must be rejected, got %v", err)
	}

	err = ParticipantCanRespond(invited, models.RoleProponent, "maybe")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unknown response must be rejected, got %v", err)
	}
}

func TestParticipantCanMarkAttendance(t *testing.T) {
	confirmed := &models.MeetingParticipant{Status: models.ParticipantStatusConfirmed}

	if err := ParticipantCanMarkAttendance(confirmed, models.MeetingStatusCompleted, models.ParticipantStatusAttended); err != nil {
		t.Fatalf("attended after completion: %v", err)
	}
	if err := ParticipantCanMarkAttendance(confirmed, models.MeetingStatusCompleted, models.ParticipantStatusAbsent); err != nil {
		t.Fatalf("absent after completion: %v", err)
	}

	err := ParticipantCanMarkAttendance(confirmed, models.MeetingStatusConfirmed, models.ParticipantStatusAttended)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("attendance before completion must be rejected, got %v", err)
	}

	invited := &models.MeetingParticipant{Status: models.ParticipantStatusInvited}
	err = ParticipantCanMarkAttendance(invited, models.MeetingStatusCompleted, models.ParticipantStatusAttended)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("attendance for unconfirmed participant must be rejected, got %v", err)
	}

	err = ParticipantCanMarkAttendance(confirmed, models.MeetingStatusCompleted, "late")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unknown attendance value must be rejected, got %v", err)
	}
}
