package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines methods for accessing user data from storage.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateLastLogin(ctx context.Context, id string, t time.Time) error
	List(ctx context.Context, filter Filter) ([]*User, int, error)
	Update(ctx context.Context, u *User) error
}

const userColumns = `id, email, password_hash, display_name, role, is_active, created_at, last_login_at`

var sortableColumns = map[string]bool{"email": true, "display_name": true, "role": true, "created_at": true}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxUserRepository{
		pool: pool,
	}
}

func scanUser(row pgx.Row, extra ...any) (*User, error) {
	var u User
	dest := []any{
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.DisplayName,
		&u.Role,
		&u.IsActive,
		&u.CreatedAt,
		&u.LastLoginAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *pgxUserRepository) getOne(ctx context.Context, column, value string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM public.users WHERE ` + column + ` = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by %s failed: %w", column, err)
	}
	return u, nil
}

func (r *pgxUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "email", email)
}

func (r *pgxUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *pgxUserRepository) Create(ctx context.Context, u *User) error {
	const query = `
		INSERT INTO public.users (email, password_hash, display_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := r.pool.QueryRow(
		ctx,
		query,
		u.Email,
		u.PasswordHash,
		u.DisplayName,
		u.Role,
		u.IsActive,
	).Scan(&u.ID, &u.CreatedAt); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrEmailAlreadyUsed
		}
		return fmt.Errorf("create user failed: %w", err)
	}

	return nil
}

func (r *pgxUserRepository) UpdateLastLogin(ctx context.Context, id string, t time.Time) error {
	const query = `UPDATE public.users SET last_login_at = $1 WHERE id = $2`

	ct, err := r.pool.Exec(ctx, query, t, id)
	if err != nil {
		return fmt.Errorf("update last login failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxUserRepository) List(ctx context.Context, filter Filter) ([]*User, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(userColumns, "count(*) OVER() AS total_count").From("public.users")

	if filter.Email != "" {
		query = query.Where(squirrel.ILike{"email": "%" + filter.Email + "%"})
	}
	if filter.DisplayName != "" {
		query = query.Where(squirrel.ILike{"display_name": "%" + filter.DisplayName + "%"})
	}
	if filter.Role != "" {
		query = query.Where(squirrel.Eq{"role": filter.Role})
	}
	if filter.IsActive != nil {
		query = query.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}

	orderBy := "created_at"
	if sortableColumns[filter.SortBy] {
		orderBy = filter.SortBy
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64((filter.Page - 1) * filter.PageSize))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list users query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users failed: %w", err)
	}
	defer rows.Close()

	var users []*User
	var total int
	for rows.Next() {
		u, err := scanUser(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user failed: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users failed: %w", err)
	}

	return users, total, nil
}

func (r *pgxUserRepository) Update(ctx context.Context, u *User) error {
	const query = `
		UPDATE public.users
		SET display_name = $1, role = $2, is_active = $3
		WHERE id = $4
	`

	ct, err := r.pool.Exec(ctx, query, u.DisplayName, u.Role, u.IsActive, u.ID)
	if err != nil {
		return fmt.Errorf("update user failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
