package services

import (
	"strings"

	"setup-workflow-api/models"
)

// Central transition tables. Every status change in the system is validated
// here instead of being re-implemented per handler.
var (
	stageTransitions = map[string][]string{
		models.StageStatusPending: {
			models.StageStatusApproved,
			models.StageStatusReturned,
			models.StageStatusRejected,
		},
		// Last-writer-wins: a recorded decision may be overwritten by a
		// later one. Resubmission routes a returned stage back to pending.
		models.StageStatusApproved: {models.StageStatusReturned, models.StageStatusRejected},
		models.StageStatusReturned: {models.StageStatusPending, models.StageStatusApproved, models.StageStatusRejected},
		models.StageStatusRejected: {models.StageStatusApproved, models.StageStatusReturned},
	}

	meetingTransitions = map[string][]string{
		models.MeetingStatusScheduled: {
			models.MeetingStatusConfirmed,
			models.MeetingStatusCancelled,
			models.MeetingStatusPostponed,
		},
		models.MeetingStatusConfirmed: {
			models.MeetingStatusCompleted,
			models.MeetingStatusCancelled,
			models.MeetingStatusPostponed,
		},
		models.MeetingStatusPostponed: {
			models.MeetingStatusScheduled,
			models.MeetingStatusCancelled,
		},
	}

	tnaTransitions = map[string][]string{
		models.TNAStatusRTECCompleted: {
			models.TNAStatusDostApproved,
			models.TNAStatusRejected,
			models.TNAStatusReturned,
		},
		models.TNAStatusReturned:     {models.TNAStatusRTECCompleted},
		models.TNAStatusDostApproved: {models.TNAStatusSignedByRD},
	}
)

func transitionAllowed(table map[string][]string, from, to string) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionStage validates a review-stage status change.
func CanTransitionStage(from, to string) bool {
	return transitionAllowed(stageTransitions, from, to)
}

// CanTransitionMeeting validates an operator-driven meeting status change.
func CanTransitionMeeting(from, to string) bool {
	return transitionAllowed(meetingTransitions, from, to)
}

// CanTransitionTNA validates a TNA report status change.
func CanTransitionTNA(from, to string) bool {
	return transitionAllowed(tnaTransitions, from, to)
}

// SlotEditable reports whether a proponent/PSTO may (re)submit the slot.
// Editable while pending, rejected or flagged for revision.
func SlotEditable(slot *models.DocumentSlot) bool {
	if slot.ToRevise {
		return true
	}
	return slot.DocumentStatus == models.SlotStatusPending ||
		slot.DocumentStatus == models.SlotStatusRejected ||
		slot.DocumentStatus == models.SlotStatusNeedsRevision
}

// SlotReviewable reports whether a slot can receive an approve/reject
// decision. A slot only reaches approved or rejected from submitted.
func SlotReviewable(slot *models.DocumentSlot) bool {
	return slot.DocumentStatus == models.SlotStatusSubmitted
}

// ComputeRequestStatus derives the aggregate status of a document request
// from its slots. Invoked after every slot mutation, inside the same
// transaction, never at view time.
//
//   - every slot approved                    -> documents_approved
//   - any slot pending or awaiting revision  -> keep current (still collecting)
//   - any slot rejected                      -> documents_rejected
//   - otherwise (submitted/approved mix):
//     first full submission                  -> documents_submitted
//     after a decision or resubmit           -> documents_under_review
func ComputeRequestStatus(current string, slots []models.DocumentSlot) string {
	if len(slots) == 0 {
		return current
	}

	allApproved := true
	anyPending := false
	anyRejected := false
	for i := range slots {
		switch slots[i].DocumentStatus {
		case models.SlotStatusApproved:
		case models.SlotStatusPending, models.SlotStatusNeedsRevision:
			allApproved = false
			anyPending = true
		case models.SlotStatusRejected:
			allApproved = false
			anyRejected = true
		default:
			allApproved = false
		}
	}

	switch {
	case allApproved:
		return models.RequestStatusApproved
	case anyPending:
		return current
	case anyRejected:
		return models.RequestStatusRejected
	case current == models.RequestStatusRequested:
		return models.RequestStatusSubmitted
	default:
		return models.RequestStatusUnderReview
	}
}

// SlotDefinition describes a checklist entry to create.
type SlotDefinition struct {
	Type        string `json:"type" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// DedupeSlotDefinitions drops duplicate slot types, first occurrence wins.
// Promoted to an engine rule so duplicates never reach storage.
func DedupeSlotDefinitions(defs []SlotDefinition) []SlotDefinition {
	seen := make(map[string]bool, len(defs))
	result := make([]SlotDefinition, 0, len(defs))
	for _, def := range defs {
		key := strings.ToLower(strings.TrimSpace(def.Type))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, def)
	}
	return result
}

// ParticipantCanRespond validates confirm/decline on an invitation. PSTO
// attendance is mandatory, so a PSTO participant may never decline.
func ParticipantCanRespond(p *models.MeetingParticipant, roleName, newStatus string) error {
	if newStatus != models.ParticipantStatusConfirmed && newStatus != models.ParticipantStatusDeclined {
		return invalidTransitionf("participant response must be confirmed or declined")
	}
	if p.Status != models.ParticipantStatusInvited {
		return invalidTransitionf("participant has already responded (%s)", p.Status)
	}
	if newStatus == models.ParticipantStatusDeclined && roleName == models.RolePSTO {
		return invalidTransitionf("PSTO attendance is mandatory and cannot be declined")
	}
	return nil
}

// ParticipantCanMarkAttendance validates attended/absent marking, which is
// only possible once the meeting itself is completed.
func ParticipantCanMarkAttendance(p *models.MeetingParticipant, meetingStatus, newStatus string) error {
	if newStatus != models.ParticipantStatusAttended && newStatus != models.ParticipantStatusAbsent {
		return invalidTransitionf("attendance must be attended or absent")
	}
	if meetingStatus != models.MeetingStatusCompleted {
		return invalidTransitionf("attendance can only be recorded after the meeting is completed")
	}
	if p.Status != models.ParticipantStatusConfirmed {
		return invalidTransitionf("attendance can only be recorded for confirmed participants")
	}
	return nil
}
