package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	ListAll(ctx context.Context) ([]*Resource, error)
	Update(ctx context.Context, res *Resource) error
	Delete(ctx context.Context, id string) error
}

var sortableColumns = map[string]bool{"name": true, "type": true, "created_at": true}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrDuplicateName
		case pgerrcode.ForeignKeyViolation:
			return ErrInUse
		}
	}
	return fmt.Errorf("%s resource failed: %w", op, err)
}

func (r *pgxRepository) Create(ctx context.Context, res *Resource) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.resources").
		Columns("name", "type", "location").
		Values(res.Name, res.Type, res.Location).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create resource query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&res.ID, &res.CreatedAt); err != nil {
		return mapWriteError(err, "create")
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "name", "type", "location", "created_at").
		From("public.resources").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get resource query failed: %w", err)
	}

	var res Resource
	if err := r.pool.QueryRow(ctx, query, args...).
		Scan(&res.ID, &res.Name, &res.Type, &res.Location, &res.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource failed: %w", err)
	}
	return &res, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select("id", "name", "type", "location", "created_at", "count(*) OVER() AS total_count").
		From("public.resources")

	if filter.Type != "" {
		query = query.Where(squirrel.Eq{"type": filter.Type})
	}
	if filter.Keyword != "" {
		pattern := "%" + filter.Keyword + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"location": pattern},
		})
	}

	orderBy := "name"
	if sortableColumns[filter.SortBy] {
		orderBy = filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder == "DESC" {
		orderDir = "DESC"
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list resources query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources failed: %w", err)
	}
	defer rows.Close()

	var result []*Resource
	var total int
	for rows.Next() {
		var res Resource
		if err := rows.Scan(&res.ID, &res.Name, &res.Type, &res.Location, &res.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan resource failed: %w", err)
		}
		result = append(result, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate resources failed: %w", err)
	}
	return result, total, nil
}

func (r *pgxRepository) ListAll(ctx context.Context) ([]*Resource, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Select("id", "name", "type", "location", "created_at").
		From("public.resources").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list all resources query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list all resources failed: %w", err)
	}
	defer rows.Close()

	var result []*Resource
	for rows.Next() {
		var res Resource
		if err := rows.Scan(&res.ID, &res.Name, &res.Type, &res.Location, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resource failed: %w", err)
		}
		result = append(result, &res)
	}
	return result, rows.Err()
}

func (r *pgxRepository) Update(ctx context.Context, res *Resource) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.resources").
		Set("name", res.Name).
		Set("type", res.Type).
		Set("location", res.Location).
		Where(squirrel.Eq{"id": res.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update resource query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, "update")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.resources").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete resource query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, "delete")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
