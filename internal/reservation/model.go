package reservation

import (
	"fmt"
	"time"

	"github.com/nekogravitycat/campus-scheduler/internal/schedule"
)

// Status is the stored lifecycle status of a reservation.
type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusConfirmed   Status = "confirmed"
	StatusRejected    Status = "rejected"
	StatusCancelled   Status = "cancelled"
	StatusMaintenance Status = "maintenance"
)

var validStatuses = map[Status]bool{
	StatusPending: true, StatusApproved: true, StatusConfirmed: true,
	StatusRejected: true, StatusCancelled: true, StatusMaintenance: true,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return validStatuses[s]
}

// Phase is the workflow state a Status belongs to.
type Phase int

const (
	PhaseRequested Phase = iota
	PhaseAccepted
	PhaseRejected
	PhaseCancelled
)

// Phase maps the stored status onto Requested -> {Accepted, Rejected}, Accepted -> Cancelled.
func (s Status) Phase() Phase {
	switch s {
	case StatusPending:
		return PhaseRequested
	case StatusRejected:
		return PhaseRejected
	case StatusCancelled:
		return PhaseCancelled
	default:
		return PhaseAccepted
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	p := s.Phase()
	return p == PhaseRejected || p == PhaseCancelled
}

// Kind says what a reservation is for. It is a closed set: ParseKind rejects anything else.
type Kind string

const (
	KindBooking     Kind = "booking"
	KindMaintenance Kind = "maintenance"
	KindExam        Kind = "exam"
)

// Kinds lists every Kind, lowest priority first.
var Kinds = []Kind{KindBooking, KindMaintenance, KindExam}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindBooking, KindMaintenance, KindExam:
		return true
	}
	return false
}

// Override reports whether reservations of this kind may be created on top of
// existing reservations instead of being blocked by them.
func (k Kind) Override() bool {
	return k == KindMaintenance || k == KindExam
}

// ParseKind converts external input into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// Reservation is a time-bounded claim on one resource.
type Reservation struct {
	ID           string
	ResourceID   string
	ResourceName string  // populated on reads
	UserID       *string // nil for system-issued maintenance blocks
	StartTime    time.Time
	EndTime      time.Time
	Status       Status
	Kind         Kind
	Purpose      string
	RejectReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Range returns [StartTime, EndTime).
func (r *Reservation) Range() schedule.TimeRange {
	return schedule.NewTimeRange(r.StartTime, r.EndTime)
}

// OwnedBy reports whether userID requested the reservation.
func (r *Reservation) OwnedBy(userID string) bool {
	return r.UserID != nil && *r.UserID == userID
}

// Filter defines parameters for listing reservations.
type Filter struct {
	ResourceID string
	UserID     string
	Status     Status
	Kind       Kind
	From       *time.Time // reservations ending after From
	To         *time.Time // reservations starting before To
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
