package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/campus-scheduler/internal/resource"
	"github.com/nekogravitycat/campus-scheduler/internal/schedule"
)

type fixture struct {
	svc       Service
	repo      Repository
	resources resource.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	resources := resource.NewService(resource.NewMemoryRepository())
	repo := NewMemoryRepository()
	return &fixture{
		svc:       NewService(repo, resources, Options{MaxSpan: 24 * time.Hour}),
		repo:      repo,
		resources: resources,
	}
}

func (f *fixture) resource(t *testing.T, name string) string {
	t.Helper()
	r, err := f.resources.Create(context.Background(), resource.CreateRequest{Name: name, Type: resource.TypeLab})
	require.NoError(t, err)
	return r.ID
}

func span(h1, m1, h2, m2 int) schedule.TimeRange {
	return schedule.NewTimeRange(clock(h1, m1), clock(h2, m2))
}

func book(resourceID, userID string, rng schedule.TimeRange) SubmitRequest {
	return SubmitRequest{ResourceID: resourceID, Range: rng, RequesterID: userID, Kind: KindBooking}
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lab := f.resource(t, "Lab 1")

	t.Run("End before start", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, book(lab, "u1", span(10, 0, 9, 0)))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("Zero duration", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, book(lab, "u1", span(10, 0, 10, 0)))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("Longer than the allowed span", func(t *testing.T) {
		rng := schedule.NewTimeRange(clock(9, 0), clock(9, 0).Add(25*time.Hour))
		_, err := f.svc.Submit(ctx, book(lab, "u1", rng))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("Unknown resource", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, book("missing", "u1", span(9, 0, 10, 0)))
		assert.ErrorIs(t, err, ErrUnknownResource)
	})

	t.Run("Unknown kind", func(t *testing.T) {
		req := book(lab, "u1", span(9, 0, 10, 0))
		req.Kind = Kind("party")
		_, err := f.svc.Submit(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidKind)
	})

	t.Run("Booking without requester", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, book(lab, "", span(9, 0, 10, 0)))
		assert.ErrorIs(t, err, ErrRequesterRequired)
	})
}

func TestConflictBlocksBookings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lab := f.resource(t, "Lab 1")

	first, err := f.svc.Submit(ctx, book(lab, "userX", span(9, 0, 10, 0)))
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, first.Status)

	_, err = f.svc.Submit(ctx, book(lab, "userY", span(9, 30, 10, 30)))
	require.ErrorIs(t, err, ErrConflict)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{first.ID}, conflict.ReservationIDs)

	touching, err := f.svc.Submit(ctx, book(lab, "userY", span(10, 0, 11, 0)))
	require.NoError(t, err)
	assert.Equal(t, KindBooking, touching.Kind)

	t.Run("Cancelling frees the slot", func(t *testing.T) {
		cancelled, err := f.svc.Cancel(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)

		_, err = f.svc.Submit(ctx, book(lab, "userY", span(9, 0, 9, 30)))
		assert.NoError(t, err)
	})
}

func TestPendingBookingsAlsoBlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lab := f.resource(t, "Lab 1")

	req := book(lab, "student", span(14, 0, 15, 0))
	req.RequiresApproval = true
	pending, err := f.svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, pending.Status)

	_, err = f.svc.Submit(ctx, book(lab, "other", span(14, 30, 15, 30)))
	assert.ErrorIs(t, err, ErrConflict)

	// A rejected request no longer holds the slot.
	_, err = f.svc.Reject(ctx, pending.ID, "lab closed for inventory")
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, book(lab, "other", span(14, 30, 15, 30)))
	assert.NoError(t, err)
}

func TestOverridesAreNotBlocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lab := f.resource(t, "Lab 1")

	booking, err := f.svc.Submit(ctx, book(lab, "userX", span(9, 0, 10, 0)))
	require.NoError(t, err)

	maint, err := f.svc.Submit(ctx, SubmitRequest{ResourceID: lab, Range: span(9, 30, 11, 0), Kind: KindMaintenance, Purpose: "projector repair"})
	require.NoError(t, err)
	assert.Equal(t, StatusMaintenance, maint.Status)
	assert.Nil(t, maint.UserID, "system maintenance has no owner")

	clashes, _, err := f.svc.Clashes(ctx, lab, schedule.Day(clock(0, 0)))
	require.NoError(t, err)
	assert.Equal(t, []Clash{{A: booking.ID, B: maint.ID}}, clashes)

	// Bookings are still blocked by the maintenance block.
	_, err = f.svc.Submit(ctx, book(lab, "userY", span(10, 0, 10, 30)))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lab := f.resource(t, "Lab 1")

	submit := func(h int) *Reservation {
		req := book(lab, "student", span(h, 0, h+1, 0))
		req.RequiresApproval = true
		r, err := f.svc.Submit(ctx, req)
		require.NoError(t, err)
		return r
	}

	t.Run("Approve then cancel", func(t *testing.T) {
		r := submit(8)
		approved, err := f.svc.Approve(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, approved.Status)

		_, err = f.svc.Approve(ctx, r.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		cancelled, err := f.svc.Cancel(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)

		_, err = f.svc.Cancel(ctx, r.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = f.svc.Reject(ctx, r.ID, "too late")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("Reject needs a reason", func(t *testing.T) {
		r := submit(10)
		_, err := f.svc.Reject(ctx, r.ID, "  ")
		assert.ErrorIs(t, err, ErrReasonRequired)

		rejected, err := f.svc.Reject(ctx, r.ID, "exam week")
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, rejected.Status)
		assert.Equal(t, "exam week", rejected.RejectReason)

		stored, err := f.svc.GetByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "exam week", stored.RejectReason)

		_, err = f.svc.Approve(ctx, r.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("Pending cannot be cancelled", func(t *testing.T) {
		r := submit(12)
		_, err := f.svc.Cancel(ctx, r.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("Unknown id", func(t *testing.T) {
		_, err := f.svc.Approve(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = f.svc.Cancel(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lab := f.resource(t, "Lab 1")

	existing, err := f.svc.Submit(ctx, book(lab, "u", span(9, 0, 10, 0)))
	require.NoError(t, err)

	got, err := f.svc.Check(ctx, lab, span(9, 45, 10, 15))
	require.NoError(t, err)
	assert.True(t, got.Conflict)
	assert.Equal(t, []string{existing.ID}, IDs(got.Conflicting))

	got, err = f.svc.Check(ctx, lab, span(10, 0, 10, 15))
	require.NoError(t, err)
	assert.False(t, got.Conflict)

	_, err = f.svc.Check(ctx, "missing", span(10, 0, 10, 15))
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestExamOverride(t *testing.T) {
	ctx := context.Background()

	t.Run("Bypasses bookings and flags the clash", func(t *testing.T) {
		f := newFixture(t)
		lab := f.resource(t, "Lab 1")
		booking, err := f.svc.Submit(ctx, book(lab, "userX", span(9, 0, 10, 0)))
		require.NoError(t, err)

		result, err := f.svc.ScheduleExamOverride(ctx, ExamOverrideRequest{
			Range: span(9, 0, 10, 0), ResourceIDs: []string{lab}, IssuerID: "admin",
		})
		require.NoError(t, err)
		require.Len(t, result.Succeeded, 1)
		item := result.Succeeded[0]
		assert.Equal(t, KindExam, item.Reservation.Kind)
		assert.Equal(t, StatusConfirmed, item.Reservation.Status)
		assert.Equal(t, []string{booking.ID}, item.ClashesWith)

		// The booking is left alone.
		stored, err := f.svc.GetByID(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, stored.Status)

		clashes, _, err := f.svc.Clashes(ctx, lab, schedule.Day(clock(0, 0)))
		require.NoError(t, err)
		assert.Equal(t, []Clash{{A: booking.ID, B: item.Reservation.ID}}, clashes)
	})

	t.Run("Targets every resource when none are given", func(t *testing.T) {
		f := newFixture(t)
		a := f.resource(t, "A")
		b := f.resource(t, "B")

		result, err := f.svc.ScheduleExamOverride(ctx, ExamOverrideRequest{Range: span(13, 0, 15, 0), IssuerID: "admin"})
		require.NoError(t, err)
		require.Len(t, result.Succeeded, 2)
		assert.ElementsMatch(t, []string{a, b}, []string{result.Succeeded[0].ResourceID, result.Succeeded[1].ResourceID})
		assert.Empty(t, result.Failed)
	})

	t.Run("No resources at all", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.ScheduleExamOverride(ctx, ExamOverrideRequest{Range: span(13, 0, 15, 0)})
		assert.ErrorIs(t, err, ErrNoTargets)
	})

	t.Run("Invalid range writes nothing", func(t *testing.T) {
		f := newFixture(t)
		f.resource(t, "A")
		_, err := f.svc.ScheduleExamOverride(ctx, ExamOverrideRequest{Range: span(15, 0, 13, 0)})
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("Unknown resource is reported per target", func(t *testing.T) {
		f := newFixture(t)
		a := f.resource(t, "A")

		result, err := f.svc.ScheduleExamOverride(ctx, ExamOverrideRequest{
			Range: span(13, 0, 15, 0), ResourceIDs: []string{"ghost", a, a},
		})
		require.ErrorIs(t, err, ErrPartialBatchFailure)
		require.Len(t, result.Succeeded, 1, "duplicates are collapsed")
		assert.Equal(t, a, result.Succeeded[0].ResourceID)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, "ghost", result.Failed[0].ResourceID)
		assert.ErrorIs(t, result.Failed[0].Err, ErrUnknownResource)
	})

	t.Run("Malformed id is reported per target", func(t *testing.T) {
		resources := resource.NewService(resource.NewMemoryRepository())
		lab, err := resources.Create(ctx, resource.CreateRequest{Name: "A", Type: resource.TypeLab})
		require.NoError(t, err)
		svc := NewService(NewMemoryRepository(), uuidColumnCatalog{resources}, Options{})

		result, err := svc.ScheduleExamOverride(ctx, ExamOverrideRequest{
			Range: span(13, 0, 15, 0), ResourceIDs: []string{"not-a-uuid", lab.ID},
		})
		require.ErrorIs(t, err, ErrPartialBatchFailure)
		require.Len(t, result.Succeeded, 1)
		assert.Equal(t, lab.ID, result.Succeeded[0].ResourceID)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, "not-a-uuid", result.Failed[0].ResourceID)
		assert.ErrorIs(t, result.Failed[0].Err, ErrUnknownResource)

		_, err = svc.Submit(ctx, book("not-a-uuid", "u1", span(9, 0, 10, 0)))
		assert.ErrorIs(t, err, ErrUnknownResource)
	})
}

// uuidColumnCatalog fails lookups of malformed ids the way a uuid column does.
type uuidColumnCatalog struct {
	ResourceCatalog
}

func (c uuidColumnCatalog) GetByID(ctx context.Context, id string) (*resource.Resource, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.New("invalid input syntax for type uuid")
	}
	return c.ResourceCatalog.GetByID(ctx, id)
}

// failingBatchRepo fails CreateBatch for one resource id.
type failingBatchRepo struct {
	Repository
	failFor string
}

func (r *failingBatchRepo) CreateBatch(ctx context.Context, rs []*Reservation) []error {
	errs := make([]error, len(rs))
	for i, res := range rs {
		if res.ResourceID == r.failFor {
			errs[i] = errors.New("disk full")
			continue
		}
		errs[i] = r.Repository.Create(ctx, res)
	}
	return errs
}

func TestExamOverridePartialFailure(t *testing.T) {
	ctx := context.Background()
	resources := resource.NewService(resource.NewMemoryRepository())
	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		r, err := resources.Create(ctx, resource.CreateRequest{Name: name, Type: resource.TypeRoom})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	repo := &failingBatchRepo{Repository: NewMemoryRepository(), failFor: ids[1]}
	svc := NewService(repo, resources, Options{})

	result, err := svc.ScheduleExamOverride(ctx, ExamOverrideRequest{Range: span(9, 0, 11, 0), ResourceIDs: ids, IssuerID: "admin"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialBatchFailure)

	var batchErr *BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.Same(t, result, batchErr.Result)

	succeeded := []string{result.Succeeded[0].ResourceID, result.Succeeded[1].ResourceID}
	assert.Equal(t, []string{ids[0], ids[2]}, succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, ids[1], result.Failed[0].ResourceID)
	assert.EqualError(t, result.Failed[0].Err, "disk full")

	details := batchErr.ErrorDetails().(map[string]any)
	assert.Equal(t, []string{ids[0], ids[2]}, details["succeeded"])
}

func TestConcurrentBookingsNeverOverlap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lab := f.resource(t, "Lab 1")

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	var won, lost int
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Every request overlaps every other one.
			rng := schedule.NewTimeRange(clock(9, 0).Add(time.Duration(i)*time.Minute), clock(11, 0))
			_, err := f.svc.Submit(ctx, book(lab, "user", rng))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
			} else if errors.Is(err, ErrConflict) {
				lost++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, workers-1, lost)

	all, err := f.svc.ForResource(ctx, lab, schedule.Day(clock(0, 0)))
	require.NoError(t, err)
	assert.Empty(t, FindAllClashes(all))
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lab1 := f.resource(t, "Lab1")

	first, err := f.svc.Submit(ctx, book(lab1, "userX", span(9, 0, 10, 0)))
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, first.Status)

	_, err = f.svc.Submit(ctx, book(lab1, "userY", span(9, 30, 10, 30)))
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{first.ID}, conflict.ReservationIDs)

	second, err := f.svc.Submit(ctx, book(lab1, "userY", span(10, 0, 11, 0)))
	require.NoError(t, err)

	day, _, err := f.svc.Clashes(ctx, lab1, schedule.Day(clock(0, 0)))
	require.NoError(t, err)
	assert.Empty(t, day)

	rs, total, err := f.svc.List(ctx, Filter{ResourceID: lab1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{first.ID, second.ID}, IDs(rs))

	mine, _, err := f.svc.List(ctx, Filter{UserID: "userY"})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, IDs(mine))
}
