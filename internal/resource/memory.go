package resource

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu    sync.RWMutex
	table map[string]*Resource
}

// NewMemoryRepository returns a process-local Repository, used with STORE=memory and in tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{table: make(map[string]*Resource)}
}

func (r *memoryRepository) nameTaken(name, exceptID string) bool {
	for id, res := range r.table {
		if id != exceptID && strings.EqualFold(res.Name, name) {
			return true
		}
	}
	return false
}

func (r *memoryRepository) Create(ctx context.Context, res *Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(res.Name, "") {
		return ErrDuplicateName
	}
	res.ID = uuid.NewString()
	res.CreatedAt = time.Now().UTC()
	stored := *res
	r.table[res.ID] = &stored
	return nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.table[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *res
	return &out, nil
}

func (r *memoryRepository) query(filter Filter) []*Resource {
	keyword := strings.ToLower(filter.Keyword)
	var out []*Resource
	for _, res := range r.table {
		if filter.Type != "" && res.Type != filter.Type {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(res.Name), keyword) &&
			!strings.Contains(strings.ToLower(res.Location), keyword) {
			continue
		}
		c := *res
		out = append(out, &c)
	}
	return out
}

func (r *memoryRepository) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	r.mu.RLock()
	items := r.query(filter)
	r.mu.RUnlock()

	less := func(a, b *Resource) bool { return a.Name < b.Name }
	switch filter.SortBy {
	case "type":
		less = func(a, b *Resource) bool { return a.Type < b.Type }
	case "created_at":
		less = func(a, b *Resource) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
	sort.SliceStable(items, func(i, j int) bool {
		if filter.SortOrder == "DESC" {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	total := len(items)
	from := (filter.Page - 1) * filter.PageSize
	if from > total {
		from = total
	}
	to := from + filter.PageSize
	if to > total {
		to = total
	}
	return items[from:to], total, nil
}

func (r *memoryRepository) ListAll(ctx context.Context) ([]*Resource, error) {
	r.mu.RLock()
	items := r.query(Filter{})
	r.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r *memoryRepository) Update(ctx context.Context, res *Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.table[res.ID]; !ok {
		return ErrNotFound
	}
	if r.nameTaken(res.Name, res.ID) {
		return ErrDuplicateName
	}
	stored := *res
	r.table[res.ID] = &stored
	return nil
}

func (r *memoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.table[id]; !ok {
		return ErrNotFound
	}
	delete(r.table, id)
	return nil
}
