package model

import (
	"errors"
	"fmt"
	"slices"
)

// Request statuses. These are stored verbatim in the status field.
const (
	StatusPendingConfirmation = "pending_confirmation"
	StatusPendingReview       = "pending_review"
	StatusConfirmed           = "confirmed"
	StatusCheckedOut          = "checked_out"
	StatusPendingReturn       = "pending_return"
	StatusReturned            = "returned"
	StatusRejected            = "rejected"
)

// Purposes offered by the request form.
const (
	PurposeCasualGaming  = "casual_gaming"
	PurposeTournament    = "tournament"
	PurposeVREvent       = "vr_event"
	PurposeVRDemo        = "vr_demo"
	PurposeResidenceHall = "residence_hall"
	PurposeStudentOrg    = "student_org"
	PurposeOther         = "other"
)

// Purposes lists every accepted purpose value.
var Purposes = []string{
	PurposeCasualGaming,
	PurposeTournament,
	PurposeVREvent,
	PurposeVRDemo,
	PurposeResidenceHall,
	PurposeStudentOrg,
	PurposeOther,
}

// Units lists the hospital units equipment can be delivered to.
var Units = []string{
	"PICU", "NICU", "HEMONC", "Dialysis", "Cardiac",
	"3 East", "3 West", "4 East", "4 West", "5 West",
}

// MaxRoom is the highest room number on any unit.
const MaxRoom = 48

// ErrIllegalTransition is returned for a status change not in the lifecycle.
var ErrIllegalTransition = errors.New("illegal status transition")

// Requester is the snapshot of the requesting user taken when a request is
// created. It is never synced with the live user profile.
type Requester struct {
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	UserDepartment string `json:"userDepartment"`
	UserEmail      string `json:"userEmail"`
}

// Request is one checkout of a system for a unit.
type Request struct {
	ID string `json:"id"`
	Requester

	SystemID    string `json:"systemId"`
	SystemName  string `json:"systemName"`
	SystemType  string `json:"systemType"`
	Unit        string `json:"unit"`
	Room        string `json:"room"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Purpose     string `json:"purpose"`
	Controllers int    `json:"controllers"`
	Flagged     bool   `json:"flagged"`
	FlagReason  string `json:"flagReason"`
	Status      string `json:"status"`

	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
	CheckedOutAt      string `json:"checkedOutAt,omitempty"`
	ReturnInitiatedAt string `json:"returnInitiatedAt,omitempty"`
	ReturnInitiatedBy string `json:"returnInitiatedBy,omitempty"`
	ReturnedAt        string `json:"returnedAt,omitempty"`
}

var transitions = map[string][]string{
	StatusPendingConfirmation: {StatusConfirmed, StatusRejected},
	StatusPendingReview:       {StatusConfirmed, StatusRejected},
	StatusConfirmed:           {StatusCheckedOut},
	StatusCheckedOut:          {StatusPendingReturn, StatusReturned},
	StatusPendingReturn:       {StatusReturned},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to string) bool {
	return slices.Contains(transitions[from], to)
}

// CheckTransition returns ErrIllegalTransition unless from -> to is allowed.
func CheckTransition(from, to string) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// Predecessors returns the statuses from which to is reachable in one step.
func Predecessors(to string) []string {
	var from []string
	for _, s := range Statuses {
		if CanTransition(s, to) {
			from = append(from, s)
		}
	}
	return from
}

// Statuses lists every request status in lifecycle order.
var Statuses = []string{
	StatusPendingConfirmation,
	StatusPendingReview,
	StatusConfirmed,
	StatusCheckedOut,
	StatusPendingReturn,
	StatusReturned,
	StatusRejected,
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status string) bool {
	return status == StatusReturned || status == StatusRejected
}

// IsPending reports whether the request still awaits handover.
func IsPending(status string) bool {
	return status == StatusPendingConfirmation || status == StatusPendingReview || status == StatusConfirmed
}

// InitialStatus returns the status a new request starts in.
func InitialStatus(flags []string) string {
	if len(flags) > 0 {
		return StatusPendingReview
	}
	return StatusPendingConfirmation
}

// ValidPurpose reports whether p is an accepted purpose.
func ValidPurpose(p string) bool {
	return slices.Contains(Purposes, p)
}

// ValidUnit reports whether u is a known unit.
func ValidUnit(u string) bool {
	return slices.Contains(Units, u)
}
