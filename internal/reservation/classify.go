package reservation

// Priority orders kinds for display and override: booking < maintenance < exam.
type Priority int

const (
	PriorityBooking     Priority = 0
	PriorityMaintenance Priority = 1
	PriorityExam        Priority = 2
)

// RenderClass selects color and icon in the timeline. It has no behavioral weight.
type RenderClass string

const (
	RenderBooking        RenderClass = "booking"
	RenderBookingPending RenderClass = "booking-pending"
	RenderMaintenance    RenderClass = "maintenance"
	RenderExam           RenderClass = "exam"
	RenderInert          RenderClass = "inert"
)

// Classification is what Classify derives from a reservation.
type Classification struct {
	Kind        Kind
	Priority    Priority
	RenderClass RenderClass
	// Inert reservations (cancelled or rejected) take part in neither
	// conflict detection nor timeline rendering.
	Inert bool
}

// Classify derives kind, priority and render class for r.
// A maintenance status on a reservation with no kind is read as a maintenance block.
func Classify(r *Reservation) Classification {
	kind := r.Kind
	if !kind.Valid() && r.Status == StatusMaintenance {
		kind = KindMaintenance
	}

	c := Classification{Kind: kind}
	switch kind {
	case KindExam:
		c.Priority = PriorityExam
		c.RenderClass = RenderExam
	case KindMaintenance:
		c.Priority = PriorityMaintenance
		c.RenderClass = RenderMaintenance
	default:
		c.Kind = KindBooking
		c.Priority = PriorityBooking
		c.RenderClass = RenderBooking
		if r.Status == StatusPending {
			c.RenderClass = RenderBookingPending
		}
	}

	if IsInert(r) {
		c.Inert = true
		c.RenderClass = RenderInert
	}
	return c
}

// IsInert reports whether r no longer holds its resource.
func IsInert(r *Reservation) bool {
	return r.Status == StatusCancelled || r.Status == StatusRejected
}
