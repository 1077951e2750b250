package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/campus-scheduler/internal/reservation"
	"github.com/nekogravitycat/campus-scheduler/internal/resource"
	"github.com/nekogravitycat/campus-scheduler/internal/schedule"
)

type dayFixture struct {
	timeline     Service
	reservations reservation.Service
	ids          map[string]string
}

func newDayFixture(t *testing.T) *dayFixture {
	t.Helper()
	ctx := context.Background()
	resources := resource.NewService(resource.NewMemoryRepository())
	ids := map[string]string{}
	for name, typ := range map[string]resource.Type{
		"Physics Lab": resource.TypeLab,
		"Chem Lab":    resource.TypeLab,
		"Room 101":    resource.TypeRoom,
	} {
		r, err := resources.Create(ctx, resource.CreateRequest{Name: name, Type: typ})
		require.NoError(t, err)
		ids[name] = r.ID
	}

	reservations := reservation.NewService(reservation.NewMemoryRepository(), resources, reservation.Options{})
	return &dayFixture{
		timeline:     NewService(resources, reservations, Config{StartHour: 7, EndHour: 22, Options: DefaultOptions}),
		reservations: reservations,
		ids:          ids,
	}
}

func (f *dayFixture) book(t *testing.T, resource string, h1, h2 int, kind reservation.Kind) *reservation.Reservation {
	t.Helper()
	r, err := f.reservations.Submit(context.Background(), reservation.SubmitRequest{
		ResourceID:  f.ids[resource],
		Range:       schedule.NewTimeRange(clock(h1, 0), clock(h2, 0)),
		RequesterID: "user",
		Kind:        kind,
	})
	require.NoError(t, err)
	return r
}

func TestDayViewRows(t *testing.T) {
	f := newDayFixture(t)
	f.book(t, "Physics Lab", 9, 10, reservation.KindBooking)
	f.book(t, "Physics Lab", 9, 11, reservation.KindExam)
	f.book(t, "Room 101", 13, 14, reservation.KindBooking)

	view, err := f.timeline.Day(context.Background(), DayQuery{Date: clock(12, 0)})
	require.NoError(t, err)

	assert.Equal(t, day, view.Date)
	assert.Equal(t, clock(7, 0), view.Window.Start)
	assert.Len(t, view.Ticks, 16)

	names := make([]string, len(view.Rows))
	for i, row := range view.Rows {
		names[i] = row.Resource.Name
	}
	assert.Equal(t, []string{"Chem Lab", "Physics Lab", "Room 101"}, names)

	physics := view.Rows[1]
	assert.Equal(t, 2, physics.Layout.Depth)
	assert.Equal(t, 2*DefaultOptions.StackStep, physics.Height)
	for _, p := range physics.Layout.Placements {
		assert.True(t, p.IsClash)
	}
	assert.Empty(t, view.Rows[0].Layout.Placements)
	assert.Equal(t, DefaultOptions.StackStep, view.Rows[0].Height)
}

func TestDayViewFilters(t *testing.T) {
	ctx := context.Background()
	f := newDayFixture(t)
	f.book(t, "Room 101", 13, 14, reservation.KindBooking)

	view, err := f.timeline.Day(ctx, DayQuery{Date: day, Type: resource.TypeLab})
	require.NoError(t, err)
	assert.Len(t, view.Rows, 2)

	start, end, upm := 12, 15, 1.0
	view, err = f.timeline.Day(ctx, DayQuery{
		Date: day, ResourceID: f.ids["Room 101"], StartHour: &start, EndHour: &end, UnitsPerMinute: &upm,
	})
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	require.Len(t, view.Rows[0].Layout.Placements, 1)
	assert.Equal(t, 60.0, view.Rows[0].Layout.Placements[0].Offset)
	assert.Equal(t, 180.0, view.Rows[0].Layout.Width)

	_, err = f.timeline.Day(ctx, DayQuery{Date: day, ResourceID: "missing"})
	assert.ErrorIs(t, err, resource.ErrNotFound)

	bad := 0.0
	_, err = f.timeline.Day(ctx, DayQuery{Date: day, UnitsPerMinute: &bad})
	assert.ErrorIs(t, err, ErrInvalidDensity)

	_, err = f.timeline.Day(ctx, DayQuery{Date: day, StartHour: &end, EndHour: &start})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestDayViewEndToEnd(t *testing.T) {
	f := newDayFixture(t)
	f.book(t, "Chem Lab", 9, 10, reservation.KindBooking)
	f.book(t, "Chem Lab", 10, 11, reservation.KindBooking)

	start, end := 7, 18
	view, err := f.timeline.Day(context.Background(), DayQuery{
		Date: day.Add(3 * time.Hour), ResourceID: f.ids["Chem Lab"], StartHour: &start, EndHour: &end,
	})
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	placements := view.Rows[0].Layout.Placements
	require.Len(t, placements, 2)
	for _, p := range placements {
		assert.False(t, p.IsClash)
		assert.Equal(t, 0, p.StackIndex)
	}
}
