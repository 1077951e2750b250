package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

// NewMemoryRepository returns a process-local Repository, used with STORE=memory and in tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func (r *memoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *memoryRepository) Create(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return ErrEmailAlreadyUsed
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	stored := *u
	r.byID[u.ID] = &stored
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *memoryRepository) UpdateLastLogin(ctx context.Context, id string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &t
	return nil
}

func (r *memoryRepository) List(ctx context.Context, filter Filter) ([]*User, int, error) {
	r.mu.RLock()
	var items []*User
	for _, u := range r.byID {
		switch {
		case filter.Email != "" && !strings.Contains(u.Email, strings.ToLower(filter.Email)):
			continue
		case filter.DisplayName != "" && (u.DisplayName == nil ||
			!strings.Contains(strings.ToLower(*u.DisplayName), strings.ToLower(filter.DisplayName))):
			continue
		case filter.Role != "" && u.Role != filter.Role:
			continue
		case filter.IsActive != nil && u.IsActive != *filter.IsActive:
			continue
		}
		c := *u
		items = append(items, &c)
	}
	r.mu.RUnlock()

	less := func(a, b *User) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch filter.SortBy {
	case "email":
		less = func(a, b *User) bool { return a.Email < b.Email }
	case "role":
		less = func(a, b *User) bool { return a.Role < b.Role }
	}
	sort.SliceStable(items, func(i, j int) bool {
		if filter.SortOrder == "ASC" {
			return less(items[i], items[j])
		}
		return less(items[j], items[i])
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

func (r *memoryRepository) Update(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.ID]; !ok {
		return ErrNotFound
	}
	stored := *u
	r.byID[u.ID] = &stored
	return nil
}
