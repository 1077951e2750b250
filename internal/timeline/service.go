package timeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nekogravitycat/campus-scheduler/internal/reservation"
	"github.com/nekogravitycat/campus-scheduler/internal/resource"
	"github.com/nekogravitycat/campus-scheduler/internal/schedule"
)

// ResourceCatalog is the resource lookup the day view needs.
type ResourceCatalog interface {
	GetByID(ctx context.Context, id string) (*resource.Resource, error)
	All(ctx context.Context) ([]*resource.Resource, error)
}

// ReservationSource returns a resource's reservations in insertion order.
type ReservationSource interface {
	ForResource(ctx context.Context, resourceID string, window schedule.TimeRange) ([]*reservation.Reservation, error)
}

// DayQuery selects a day view. Nil pointers use the configured defaults.
type DayQuery struct {
	Date           time.Time
	ResourceID     string        // one resource, or every resource when empty
	Type           resource.Type // filter applied when ResourceID is empty
	StartHour      *int
	EndHour        *int
	UnitsPerMinute *float64
}

// Row is one resource's lane.
type Row struct {
	Resource *resource.Resource
	Layout   Layout
	Height   float64
}

// DayView is a rendered calendar day.
type DayView struct {
	Date    time.Time
	Window  schedule.TimeRange
	Options Options
	Ticks   []Tick
	Rows    []Row
}

type Service interface {
	Day(ctx context.Context, q DayQuery) (*DayView, error)
}

// Config holds the defaults used when a query leaves them out.
type Config struct {
	StartHour int
	EndHour   int
	Options   Options
}

type service struct {
	resources    ResourceCatalog
	reservations ReservationSource
	cfg          Config
}

func NewService(resources ResourceCatalog, reservations ReservationSource, cfg Config) Service {
	cfg.Options = cfg.Options.withDefaults()
	return &service{resources: resources, reservations: reservations, cfg: cfg}
}

func (s *service) Day(ctx context.Context, q DayQuery) (*DayView, error) {
	startHour, endHour := s.cfg.StartHour, s.cfg.EndHour
	if q.StartHour != nil {
		startHour = *q.StartHour
	}
	if q.EndHour != nil {
		endHour = *q.EndHour
	}
	window, err := NewDayWindow(q.Date, startHour, endHour)
	if err != nil {
		return nil, err
	}

	opts := s.cfg.Options
	if q.UnitsPerMinute != nil {
		if *q.UnitsPerMinute <= 0 {
			return nil, ErrInvalidDensity
		}
		opts.UnitsPerMinute = *q.UnitsPerMinute
	}

	resources, err := s.rowResources(ctx, q)
	if err != nil {
		return nil, err
	}

	// Rows are independent snapshots; read them concurrently.
	rows := make([]Row, len(resources))
	g, gctx := errgroup.WithContext(ctx)
	for i, res := range resources {
		g.Go(func() error {
			rs, err := s.reservations.ForResource(gctx, res.ID, window)
			if err != nil {
				return err
			}
			layout := LayoutTimeline(rs, window, opts)
			rows[i] = Row{Resource: res, Layout: layout, Height: layout.Height(opts)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &DayView{
		Date:    schedule.StartOfDay(q.Date),
		Window:  window,
		Options: opts,
		Ticks:   HourTicks(window, opts),
		Rows:    rows,
	}, nil
}

// rowResources returns the resources to draw, sorted by name.
func (s *service) rowResources(ctx context.Context, q DayQuery) ([]*resource.Resource, error) {
	if q.ResourceID != "" {
		res, err := s.resources.GetByID(ctx, q.ResourceID)
		if err != nil {
			return nil, err
		}
		return []*resource.Resource{res}, nil
	}

	all, err := s.resources.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*resource.Resource, 0, len(all))
	for _, r := range all {
		if q.Type == "" || r.Type == q.Type {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}
