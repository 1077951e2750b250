package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/campus-scheduler/internal/resource"
	"github.com/nekogravitycat/campus-scheduler/internal/schedule"
)

// ResourceCatalog is the resource lookup the workflows depend on.
// resource.Service satisfies it.
type ResourceCatalog interface {
	GetByID(ctx context.Context, id string) (*resource.Resource, error)
	All(ctx context.Context) ([]*resource.Resource, error)
}

// SubmitRequest asks for a reservation on one resource.
type SubmitRequest struct {
	ResourceID  string
	Range       schedule.TimeRange
	RequesterID string // empty for system-issued maintenance
	Purpose     string
	Kind        Kind
	// RequiresApproval makes a booking start as pending instead of confirmed.
	// Ignored for maintenance and exam reservations.
	RequiresApproval bool
}

// ExamOverrideRequest blocks the same range on many resources at once.
type ExamOverrideRequest struct {
	Range       schedule.TimeRange
	ResourceIDs []string // empty means every resource
	IssuerID    string
	Purpose     string
}

// BatchItem is one reservation written by an exam override.
type BatchItem struct {
	ResourceID  string
	Reservation *Reservation
	// ClashesWith lists live reservations the new one overlaps. They are
	// left in place for a person to resolve.
	ClashesWith []string
}

// BatchFailure is one target resource that did not get its reservation.
type BatchFailure struct {
	ResourceID string
	Err        error
}

// BatchResult reports every target of an exam override.
type BatchResult struct {
	Succeeded []BatchItem
	Failed    []BatchFailure
}

// CheckResult is the answer to "can this reservation be placed".
type CheckResult struct {
	Conflict    bool
	Conflicting []*Reservation
}

type Service interface {
	// Submit validates and commits one reservation. Bookings are rejected
	// with a *ConflictError when they overlap a live reservation on the same
	// resource; maintenance and exam reservations are never blocked.
	Submit(ctx context.Context, req SubmitRequest) (*Reservation, error)
	Approve(ctx context.Context, id string) (*Reservation, error)
	Reject(ctx context.Context, id, reason string) (*Reservation, error)
	Cancel(ctx context.Context, id string) (*Reservation, error)
	// ScheduleExamOverride creates one exam reservation per target resource.
	// When any target fails it returns the full result together with a *BatchError.
	ScheduleExamOverride(ctx context.Context, req ExamOverrideRequest) (*BatchResult, error)

	GetByID(ctx context.Context, id string) (*Reservation, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, int, error)
	// ForResource returns every reservation of a resource overlapping window,
	// inert ones included, in insertion order.
	ForResource(ctx context.Context, resourceID string, window schedule.TimeRange) ([]*Reservation, error)
	// Check answers whether a booking of rng on resourceID would conflict, without writing.
	Check(ctx context.Context, resourceID string, rng schedule.TimeRange) (*CheckResult, error)
	// Clashes lists every clashing pair on a resource within window.
	Clashes(ctx context.Context, resourceID string, window schedule.TimeRange) ([]Clash, []*Reservation, error)
}

// Options tunes validation.
type Options struct {
	// MaxSpan is the longest accepted reservation. Zero disables the bound.
	MaxSpan time.Duration
}

type service struct {
	repo      Repository
	resources ResourceCatalog
	opts      Options
}

func NewService(repo Repository, resources ResourceCatalog, opts Options) Service {
	return &service{
		repo:      repo,
		resources: resources,
		opts:      opts,
	}
}

func (s *service) validateRange(rng schedule.TimeRange) error {
	if !rng.Valid() {
		return ErrInvalidRange
	}
	if s.opts.MaxSpan > 0 && rng.Duration() > s.opts.MaxSpan {
		return ErrInvalidRange
	}
	return nil
}

// lookupResource maps a missing or malformed id to ErrUnknownResource.
func (s *service) lookupResource(ctx context.Context, id string) (*resource.Resource, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUnknownResource
	}
	res, err := s.resources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrUnknownResource
		}
		return nil, err
	}
	return res, nil
}

func (s *service) Submit(ctx context.Context, req SubmitRequest) (*Reservation, error) {
	// 1. Validate input
	if !req.Kind.Valid() {
		return nil, ErrInvalidKind
	}
	if err := s.validateRange(req.Range); err != nil {
		return nil, err
	}
	if req.Kind == KindBooking && req.RequesterID == "" {
		return nil, ErrRequesterRequired
	}

	// 2. Resource must exist
	res, err := s.lookupResource(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	r := &Reservation{
		ResourceID:   res.ID,
		ResourceName: res.Name,
		StartTime:    req.Range.Start,
		EndTime:      req.Range.End,
		Kind:         req.Kind,
		Purpose:      strings.TrimSpace(req.Purpose),
	}
	if req.RequesterID != "" {
		requester := req.RequesterID
		r.UserID = &requester
	}

	switch req.Kind {
	case KindMaintenance:
		r.Status = StatusMaintenance
		if err := s.repo.Create(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	case KindExam:
		r.Status = StatusConfirmed
		if err := s.repo.Create(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	}

	// 3. Bookings: conflict check and insert under the resource's lock
	r.Status = StatusConfirmed
	if req.RequiresApproval {
		r.Status = StatusPending
	}
	guard := func(existing []*Reservation) error {
		if clashing := Conflicting(r, existing); len(clashing) > 0 {
			return &ConflictError{ReservationIDs: IDs(clashing)}
		}
		return nil
	}
	if err := s.repo.CreateGuarded(ctx, r, req.Range.DaySpan(), guard); err != nil {
		return nil, err
	}
	return r, nil
}

// transition moves a reservation from one of the allowed phases to next.
func (s *service) transition(ctx context.Context, id string, allowed Phase, next Status, reason string) (*Reservation, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status.Phase() != allowed {
		return nil, ErrInvalidTransition
	}

	from := r.Status
	r.Status = next
	r.RejectReason = reason
	if err := s.repo.UpdateStatus(ctx, r, from); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) Approve(ctx context.Context, id string) (*Reservation, error) {
	return s.transition(ctx, id, PhaseRequested, StatusApproved, "")
}

func (s *service) Reject(ctx context.Context, id, reason string) (*Reservation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return s.transition(ctx, id, PhaseRequested, StatusRejected, reason)
}

func (s *service) Cancel(ctx context.Context, id string) (*Reservation, error) {
	return s.transition(ctx, id, PhaseAccepted, StatusCancelled, "")
}

func (s *service) targets(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		all, err := s.resources.All(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range all {
			ids = append(ids, r.ID)
		}
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoTargets
	}
	return out, nil
}

func (s *service) ScheduleExamOverride(ctx context.Context, req ExamOverrideRequest) (*BatchResult, error) {
	if err := s.validateRange(req.Range); err != nil {
		return nil, err
	}

	ids, err := s.targets(ctx, req.ResourceIDs)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	var batch []*Reservation
	var clashes [][]string
	for _, id := range ids {
		res, err := s.lookupResource(ctx, id)
		if errors.Is(err, ErrUnknownResource) {
			result.Failed = append(result.Failed, BatchFailure{ResourceID: id, Err: err})
			continue
		}
		if err != nil {
			return nil, err
		}

		r := &Reservation{
			ResourceID:   res.ID,
			ResourceName: res.Name,
			StartTime:    req.Range.Start,
			EndTime:      req.Range.End,
			Status:       StatusConfirmed,
			Kind:         KindExam,
			Purpose:      strings.TrimSpace(req.Purpose),
		}
		if req.IssuerID != "" {
			issuer := req.IssuerID
			r.UserID = &issuer
		}

		// Clashes are informational only; read them before writing anything
		// so a read failure aborts the whole batch cleanly.
		existing, err := s.repo.ListOverlapping(ctx, res.ID, req.Range)
		if err != nil {
			return nil, err
		}
		batch = append(batch, r)
		clashes = append(clashes, IDs(Conflicting(r, existing)))
	}

	errs := s.repo.CreateBatch(ctx, batch)
	for i, r := range batch {
		if errs[i] != nil {
			result.Failed = append(result.Failed, BatchFailure{ResourceID: r.ResourceID, Err: errs[i]})
			continue
		}
		result.Succeeded = append(result.Succeeded, BatchItem{
			ResourceID:  r.ResourceID,
			Reservation: r,
			ClashesWith: clashes[i],
		})
	}

	if len(result.Failed) > 0 {
		return result, &BatchError{Result: result}
	}
	return result, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Reservation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, 0, ErrInvalidKind
	}
	if filter.From != nil && filter.To != nil && !filter.To.After(*filter.From) {
		return nil, 0, ErrInvalidRange
	}
	return s.repo.List(ctx, filter)
}

func (s *service) ForResource(ctx context.Context, resourceID string, window schedule.TimeRange) ([]*Reservation, error) {
	if !window.Valid() {
		return nil, ErrInvalidRange
	}
	if _, err := s.lookupResource(ctx, resourceID); err != nil {
		return nil, err
	}
	return s.repo.ListOverlapping(ctx, resourceID, window)
}

func (s *service) Check(ctx context.Context, resourceID string, rng schedule.TimeRange) (*CheckResult, error) {
	if err := s.validateRange(rng); err != nil {
		return nil, err
	}
	existing, err := s.ForResource(ctx, resourceID, rng.DaySpan())
	if err != nil {
		return nil, err
	}

	candidate := &Reservation{ResourceID: resourceID, StartTime: rng.Start, EndTime: rng.End, Kind: KindBooking}
	clashing := Conflicting(candidate, existing)
	return &CheckResult{Conflict: len(clashing) > 0, Conflicting: clashing}, nil
}

func (s *service) Clashes(ctx context.Context, resourceID string, window schedule.TimeRange) ([]Clash, []*Reservation, error) {
	rs, err := s.ForResource(ctx, resourceID, window)
	if err != nil {
		return nil, nil, err
	}
	return FindAllClashes(rs), rs, nil
}
