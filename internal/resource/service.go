package resource

import (
	"context"
	"strings"
)

type CreateRequest struct {
	Name     string
	Type     Type
	Location string
}

type UpdateRequest struct {
	Name     *string
	Type     *Type
	Location *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Resource, error)
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	// All returns every resource ordered by name. Exam overrides without an
	// explicit target list use it.
	All(ctx context.Context) ([]*Resource, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Resource, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Resource, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !req.Type.Valid() {
		return nil, ErrInvalidType
	}

	res := &Resource{
		Name:     name,
		Type:     req.Type,
		Location: strings.TrimSpace(req.Location),
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Resource, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, 0, ErrInvalidType
	}
	return s.repo.List(ctx, filter)
}

func (s *service) All(ctx context.Context) ([]*Resource, error) {
	return s.repo.ListAll(ctx)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		res.Name = name
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, ErrInvalidType
		}
		res.Type = *req.Type
	}
	if req.Location != nil {
		res.Location = strings.TrimSpace(*req.Location)
	}

	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
