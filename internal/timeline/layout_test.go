package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/campus-scheduler/internal/reservation"
	"github.com/nekogravitycat/campus-scheduler/internal/schedule"
)

var day = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func clock(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func res(id string, h1, m1, h2, m2 int, status reservation.Status, kind reservation.Kind) *reservation.Reservation {
	return &reservation.Reservation{
		ID: id, ResourceID: "lab", StartTime: clock(h1, m1), EndTime: clock(h2, m2), Status: status, Kind: kind,
	}
}

func booking(id string, h1, m1, h2, m2 int) *reservation.Reservation {
	return res(id, h1, m1, h2, m2, reservation.StatusConfirmed, reservation.KindBooking)
}

func window(t *testing.T, startHour, endHour int) schedule.TimeRange {
	t.Helper()
	w, err := NewDayWindow(day, startHour, endHour)
	require.NoError(t, err)
	return w
}

func TestNewDayWindow(t *testing.T) {
	w, err := NewDayWindow(clock(15, 30), 7, 22)
	require.NoError(t, err)
	assert.Equal(t, clock(7, 0), w.Start)
	assert.Equal(t, clock(22, 0), w.End)

	w, err = NewDayWindow(day, 0, 24)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, w.Duration())

	for _, bad := range [][2]int{{10, 10}, {12, 8}, {-1, 8}, {8, 25}} {
		_, err := NewDayWindow(day, bad[0], bad[1])
		assert.ErrorIs(t, err, ErrInvalidWindow, "%v", bad)
	}
}

func TestLayoutClipping(t *testing.T) {
	w := window(t, 7, 22)
	opts := Options{UnitsPerMinute: 1}

	l := LayoutTimeline([]*reservation.Reservation{
		booking("early", 6, 0, 8, 30),
		booking("before", 5, 0, 6, 0),
		booking("late", 21, 0, 23, 0),
	}, w, opts)

	require.Len(t, l.Placements, 2)

	early := l.Placements[0]
	assert.Equal(t, "early", early.Reservation.ID)
	assert.Equal(t, schedule.NewTimeRange(clock(7, 0), clock(8, 30)), early.Visible)
	assert.True(t, early.ClippedHead)
	assert.False(t, early.ClippedTail)
	assert.Equal(t, 0.0, early.Offset)
	assert.Equal(t, 90.0, early.Length)

	late := l.Placements[1]
	assert.Equal(t, 14*60.0, late.Offset)
	assert.Equal(t, 60.0, late.Length)
	assert.True(t, late.ClippedTail)

	assert.Equal(t, 15*60.0, l.Width)
}

func TestLayoutMinimumLength(t *testing.T) {
	w := window(t, 7, 22)

	l := LayoutTimeline([]*reservation.Reservation{booking("blip", 9, 0, 9, 1)}, w, Options{UnitsPerMinute: 2, MinLength: 4})
	require.Len(t, l.Placements, 1)
	assert.Equal(t, 4.0, l.Placements[0].Length)
	assert.Equal(t, 240.0, l.Placements[0].Offset)

	// Longer entries keep their real length.
	l = LayoutTimeline([]*reservation.Reservation{booking("hour", 9, 0, 10, 0)}, w, Options{UnitsPerMinute: 2, MinLength: 4})
	assert.Equal(t, 120.0, l.Placements[0].Length)
}

func TestLayoutStacking(t *testing.T) {
	w := window(t, 7, 22)
	opts := Options{UnitsPerMinute: 1, StackStep: 20}

	exam := res("exam", 9, 0, 12, 0, reservation.StatusConfirmed, reservation.KindExam)
	l := LayoutTimeline([]*reservation.Reservation{
		booking("a", 9, 0, 10, 0),
		exam,
		booking("b", 10, 0, 11, 0),
		res("maint", 9, 30, 10, 30, reservation.StatusMaintenance, reservation.KindMaintenance),
		booking("c", 13, 0, 14, 0),
	}, w, opts)

	require.Len(t, l.Placements, 5)
	got := map[string]Placement{}
	for _, p := range l.Placements {
		got[p.Reservation.ID] = p
	}

	// Insertion order decides the level, not priority.
	assert.Equal(t, 0, got["a"].StackIndex)
	assert.Equal(t, 1, got["exam"].StackIndex)
	assert.Equal(t, 0, got["b"].StackIndex, "b only touches a")
	assert.Equal(t, 2, got["maint"].StackIndex)
	assert.Equal(t, 40.0, got["maint"].Top)
	assert.Equal(t, 0, got["c"].StackIndex)
	assert.Equal(t, 3, l.Depth)
	assert.Equal(t, 60.0, l.Height(opts))

	assert.True(t, got["a"].IsClash)
	assert.True(t, got["exam"].IsClash)
	assert.False(t, got["c"].IsClash)
	assert.Equal(t, reservation.RenderExam, got["exam"].RenderClass)
	assert.Equal(t, reservation.PriorityExam, got["exam"].Priority)
	assert.Equal(t, reservation.RenderMaintenance, got["maint"].RenderClass)
}

func TestLayoutStackingShortEntries(t *testing.T) {
	w := window(t, 7, 22)

	// One-minute entries touch in time but are drawn four units wide.
	l := LayoutTimeline([]*reservation.Reservation{
		booking("a", 9, 0, 9, 1),
		booking("b", 9, 1, 9, 2),
		booking("c", 9, 10, 9, 11),
	}, w, Options{UnitsPerMinute: 1, MinLength: 4, StackStep: 20})

	require.Len(t, l.Placements, 3)
	a, b, c := l.Placements[0], l.Placements[1], l.Placements[2]
	assert.Equal(t, 120.0, a.Offset)
	assert.Equal(t, 124.0, a.End())
	assert.Equal(t, 121.0, b.Offset)
	assert.Equal(t, 0, a.StackIndex)
	assert.Equal(t, 1, b.StackIndex)
	assert.Equal(t, 0, c.StackIndex)
	assert.Equal(t, 2, l.Depth)
	assert.False(t, a.IsClash)
	assert.False(t, b.IsClash)

	for i, p := range l.Placements {
		for _, q := range l.Placements[i+1:] {
			if p.StackIndex == q.StackIndex {
				assert.False(t, p.Offset < q.End() && p.End() > q.Offset,
					"%s and %s overlap on level %d", p.Reservation.ID, q.Reservation.ID, p.StackIndex)
			}
		}
	}
}

func TestLayoutSkipsInert(t *testing.T) {
	w := window(t, 7, 22)

	l := LayoutTimeline([]*reservation.Reservation{
		res("gone", 9, 0, 10, 0, reservation.StatusCancelled, reservation.KindBooking),
		res("no", 9, 0, 10, 0, reservation.StatusRejected, reservation.KindBooking),
		booking("live", 9, 30, 10, 30),
	}, w, Options{})

	require.Len(t, l.Placements, 1)
	p := l.Placements[0]
	assert.Equal(t, "live", p.Reservation.ID)
	assert.Equal(t, 0, p.StackIndex)
	assert.False(t, p.IsClash)
}

func TestLayoutEmpty(t *testing.T) {
	w := window(t, 8, 18)

	l := LayoutTimeline(nil, w, Options{})
	assert.Empty(t, l.Placements)
	assert.Equal(t, 0, l.Depth)
	assert.Equal(t, DefaultOptions.StackStep, l.Height(Options{}))

	l = LayoutTimeline([]*reservation.Reservation{booking("x", 9, 0, 10, 0)}, schedule.TimeRange{}, Options{})
	assert.Empty(t, l.Placements)
}

func TestEndToEndRender(t *testing.T) {
	w := window(t, 7, 18)

	l := LayoutTimeline([]*reservation.Reservation{
		booking("first", 9, 0, 10, 0),
		booking("second", 10, 0, 11, 0),
	}, w, Options{UnitsPerMinute: 2})

	require.Len(t, l.Placements, 2)
	for _, p := range l.Placements {
		assert.False(t, p.IsClash)
		assert.Equal(t, 0, p.StackIndex)
		assert.Equal(t, 120.0, p.Length)
	}
	assert.Equal(t, 240.0, l.Placements[0].Offset)
	assert.Equal(t, 360.0, l.Placements[1].Offset)
}

func TestHourTicks(t *testing.T) {
	ticks := HourTicks(window(t, 7, 10), Options{UnitsPerMinute: 2})
	require.Len(t, ticks, 4)
	assert.Equal(t, "07:00", ticks[0].Label)
	assert.Equal(t, 0.0, ticks[0].Offset)
	assert.Equal(t, "10:00", ticks[3].Label)
	assert.Equal(t, 360.0, ticks[3].Offset)

	ticks = HourTicks(window(t, 22, 24), Options{UnitsPerMinute: 1})
	require.Len(t, ticks, 3)
	assert.Equal(t, "24:00", ticks[2].Label)

	offHour := schedule.NewTimeRange(clock(7, 30), clock(9, 15))
	ticks = HourTicks(offHour, Options{UnitsPerMinute: 1})
	require.Len(t, ticks, 2)
	assert.Equal(t, 30.0, ticks[0].Offset)
}
