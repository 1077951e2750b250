// Package timeline turns a day's reservations into placement data for a
// horizontal, per-resource schedule view.
package timeline

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nekogravitycat/campus-scheduler/internal/pkg/apperror"
	"github.com/nekogravitycat/campus-scheduler/internal/reservation"
	"github.com/nekogravitycat/campus-scheduler/internal/schedule"
)

var (
	ErrInvalidWindow  = apperror.New(http.StatusBadRequest, "start_hour must be before end_hour, both within 0-24")
	ErrInvalidDensity = apperror.New(http.StatusBadRequest, "units_per_minute must be positive")
)

// Options controls the coordinate space. Zero values fall back to DefaultOptions.
type Options struct {
	UnitsPerMinute float64
	// MinLength keeps very short reservations visible and clickable.
	MinLength float64
	// StackStep is the vertical distance between stacked entries.
	StackStep float64
}

var DefaultOptions = Options{UnitsPerMinute: 2, MinLength: 4, StackStep: 20}

func (o Options) withDefaults() Options {
	if o.UnitsPerMinute <= 0 {
		o.UnitsPerMinute = DefaultOptions.UnitsPerMinute
	}
	if o.MinLength <= 0 {
		o.MinLength = DefaultOptions.MinLength
	}
	if o.StackStep <= 0 {
		o.StackStep = DefaultOptions.StackStep
	}
	return o
}

// NewDayWindow returns [date startHour:00, date endHour:00) in date's location.
// endHour may be 24.
func NewDayWindow(date time.Time, startHour, endHour int) (schedule.TimeRange, error) {
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return schedule.TimeRange{}, fmt.Errorf("%w: got %d-%d", ErrInvalidWindow, startHour, endHour)
	}
	day := schedule.StartOfDay(date)
	return schedule.NewTimeRange(
		day.Add(time.Duration(startHour)*time.Hour),
		day.Add(time.Duration(endHour)*time.Hour),
	), nil
}

// Placement is where one reservation is drawn.
type Placement struct {
	Reservation *reservation.Reservation
	// Visible is the part of the reservation inside the window.
	Visible     schedule.TimeRange
	ClippedHead bool // starts before the window
	ClippedTail bool // ends after the window
	Offset      float64
	Length      float64
	StackIndex  int
	Top         float64
	IsClash     bool
	RenderClass reservation.RenderClass
	Priority    reservation.Priority
}

// Layout is the rendered form of one resource row.
type Layout struct {
	Window     schedule.TimeRange
	Placements []Placement
	// Depth is the number of stack levels in use, zero for an empty row.
	Depth int
	Width float64
}

// Height is the row height needed to show every stack level. Empty rows
// still take one level.
func (l *Layout) Height(opts Options) float64 {
	opts = opts.withDefaults()
	return float64(max(l.Depth, 1)) * opts.StackStep
}

// LayoutTimeline places rs, which should all belong to one resource, inside window.
// Inert reservations and reservations entirely outside the window produce
// no placement. Entries are stacked in input order, each taking the lowest
// level not used by an earlier entry whose drawn box it overlaps.
func LayoutTimeline(rs []*reservation.Reservation, window schedule.TimeRange, opts Options) Layout {
	opts = opts.withDefaults()
	out := Layout{
		Window:     window,
		Placements: make([]Placement, 0, len(rs)),
		Width:      window.Duration().Minutes() * opts.UnitsPerMinute,
	}
	if !window.Valid() {
		return out
	}

	clash := reservation.ClashSet(reservation.FindAllClashes(rs))

	for _, r := range rs {
		cls := reservation.Classify(r)
		if cls.Inert {
			continue
		}
		visible, ok := schedule.ClampToWindow(r.Range(), window.Start, window.End)
		if !ok {
			continue
		}

		length := visible.Duration().Minutes() * opts.UnitsPerMinute
		if length < opts.MinLength {
			length = opts.MinLength
		}

		p := Placement{
			Reservation: r,
			Visible:     visible,
			ClippedHead: r.StartTime.Before(window.Start),
			ClippedTail: r.EndTime.After(window.End),
			Offset:      visible.Start.Sub(window.Start).Minutes() * opts.UnitsPerMinute,
			Length:      length,
			IsClash:     r.ID != "" && clash[r.ID],
			RenderClass: cls.RenderClass,
			Priority:    cls.Priority,
		}
		p.StackIndex = stackIndex(out.Placements, p)
		p.Top = float64(p.StackIndex) * opts.StackStep
		out.Depth = max(out.Depth, p.StackIndex+1)
		out.Placements = append(out.Placements, p)
	}
	return out
}

// End is where the drawn box ends, which can lie past Visible.End once the
// minimum length applies.
func (p Placement) End() float64 {
	return p.Offset + p.Length
}

// stackIndex returns the lowest level free of every placed box that
// overlaps next's drawn extent.
func stackIndex(placed []Placement, next Placement) int {
	used := make(map[int]bool)
	for _, p := range placed {
		if p.Offset < next.End() && p.End() > next.Offset {
			used[p.StackIndex] = true
		}
	}
	i := 0
	for used[i] {
		i++
	}
	return i
}

// Tick is an hour mark on the time axis.
type Tick struct {
	Time   time.Time
	Label  string
	Offset float64
}

// HourTicks returns one tick per full hour in window, the window end included.
func HourTicks(window schedule.TimeRange, opts Options) []Tick {
	opts = opts.withDefaults()
	if !window.Valid() {
		return nil
	}

	first := window.Start.Truncate(time.Hour)
	if first.Before(window.Start) {
		first = first.Add(time.Hour)
	}

	var ticks []Tick
	for t := first; !t.After(window.End); t = t.Add(time.Hour) {
		label := t.Format("15:04")
		if t.Equal(schedule.StartOfDay(window.Start).Add(24 * time.Hour)) {
			label = "24:00"
		}
		ticks = append(ticks, Tick{
			Time:   t,
			Label:  label,
			Offset: t.Sub(window.Start).Minutes() * opts.UnitsPerMinute,
		})
	}
	return ticks
}
