package reservation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/campus-scheduler/internal/schedule"
)

type memoryRow struct {
	r   Reservation
	seq int
}

type memoryRepository struct {
	mu    sync.RWMutex
	table map[string]*memoryRow
	seq   int

	// resource id -> writer lock, held across check-and-write
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	now func() time.Time
}

// NewMemoryRepository returns a process-local Repository. It is used with
// STORE=memory and by the workflow tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		table: make(map[string]*memoryRow),
		locks: make(map[string]*sync.Mutex),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *memoryRepository) resourceLock(resourceID string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	l, ok := m.locks[resourceID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[resourceID] = l
	}
	return l
}

func (m *memoryRepository) insert(r *Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now
	m.seq++
	m.table[r.ID] = &memoryRow{r: *r, seq: m.seq}
}

func (m *memoryRepository) Create(ctx context.Context, r *Reservation) error {
	if !r.Range().Valid() {
		return ErrInvalidRange
	}
	m.insert(r)
	return nil
}

func (m *memoryRepository) CreateGuarded(ctx context.Context, r *Reservation, window schedule.TimeRange, guard Guard) error {
	if !r.Range().Valid() {
		return ErrInvalidRange
	}

	l := m.resourceLock(r.ResourceID)
	l.Lock()
	defer l.Unlock()

	existing, err := m.ListOverlapping(ctx, r.ResourceID, window)
	if err != nil {
		return err
	}
	if err := guard(existing); err != nil {
		return err
	}
	m.insert(r)
	return nil
}

func (m *memoryRepository) CreateBatch(ctx context.Context, rs []*Reservation) []error {
	errs := make([]error, len(rs))
	for i, r := range rs {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		errs[i] = m.Create(ctx, r)
	}
	return errs
}

func (m *memoryRepository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.table[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := row.r
	return &out, nil
}

// rows returns copies in insertion order.
func (m *memoryRepository) rows(keep func(*Reservation) bool) []*Reservation {
	m.mu.RLock()
	matched := make([]*memoryRow, 0, len(m.table))
	for _, row := range m.table {
		if keep(&row.r) {
			matched = append(matched, row)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	out := make([]*Reservation, len(matched))
	for i, row := range matched {
		c := row.r
		out[i] = &c
	}
	return out
}

func (m *memoryRepository) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	items := m.rows(func(r *Reservation) bool {
		switch {
		case filter.ResourceID != "" && r.ResourceID != filter.ResourceID:
			return false
		case filter.UserID != "" && !r.OwnedBy(filter.UserID):
			return false
		case filter.Status != "" && r.Status != filter.Status:
			return false
		case filter.Kind != "" && r.Kind != filter.Kind:
			return false
		case filter.From != nil && !r.EndTime.After(*filter.From):
			return false
		case filter.To != nil && !r.StartTime.Before(*filter.To):
			return false
		}
		return true
	})

	key := func(r *Reservation) time.Time { return r.StartTime }
	switch filter.SortBy {
	case "end_time":
		key = func(r *Reservation) time.Time { return r.EndTime }
	case "created_at":
		key = func(r *Reservation) time.Time { return r.CreatedAt }
	}
	sort.SliceStable(items, func(i, j int) bool {
		if filter.SortOrder == "DESC" {
			return key(items[j]).Before(key(items[i]))
		}
		return key(items[i]).Before(key(items[j]))
	})

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	total := len(items)
	from := min((filter.Page-1)*filter.PageSize, total)
	to := min(from+filter.PageSize, total)
	return items[from:to], total, nil
}

func (m *memoryRepository) ListOverlapping(ctx context.Context, resourceID string, window schedule.TimeRange) ([]*Reservation, error) {
	return m.rows(func(r *Reservation) bool {
		return r.ResourceID == resourceID && schedule.Overlaps(r.Range(), window)
	}), nil
}

func (m *memoryRepository) UpdateStatus(ctx context.Context, r *Reservation, from Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.table[r.ID]
	if !ok {
		return ErrNotFound
	}
	if row.r.Status != from {
		return ErrInvalidTransition
	}
	row.r.Status = r.Status
	row.r.RejectReason = r.RejectReason
	row.r.UpdatedAt = m.now()
	r.UpdatedAt = row.r.UpdatedAt
	return nil
}
