package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/campus-scheduler/internal/schedule"
)

// Guard inspects the reservations already overlapping a candidate and
// returns a non-nil error to abort the write.
type Guard func(existing []*Reservation) error

type Repository interface {
	// Create inserts r without any conflict check.
	Create(ctx context.Context, r *Reservation) error
	// CreateGuarded serializes writers per resource: while holding the
	// resource's lock it reads every reservation of r.ResourceID overlapping
	// window, runs guard, and inserts r only if guard returns nil.
	CreateGuarded(ctx context.Context, r *Reservation, window schedule.TimeRange, guard Guard) error
	// CreateBatch inserts every reservation and returns one error slot per
	// input; a failed item does not undo the others.
	CreateBatch(ctx context.Context, rs []*Reservation) []error
	GetByID(ctx context.Context, id string) (*Reservation, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, int, error)
	// ListOverlapping returns all reservations of a resource (cancelled
	// included) that overlap window, in insertion order.
	ListOverlapping(ctx context.Context, resourceID string, window schedule.TimeRange) ([]*Reservation, error)
	// UpdateStatus persists r.Status and r.RejectReason only if the stored
	// status still equals from. It returns ErrInvalidTransition otherwise.
	UpdateStatus(ctx context.Context, r *Reservation, from Status) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	selectColumns = []string{
		"rv.id", "rv.resource_id", "rs.name", "rv.user_id", "rv.start_time", "rv.end_time",
		"rv.status", "rv.kind", "rv.purpose", "rv.reject_reason", "rv.created_at", "rv.updated_at",
	}

	sortableColumns = map[string]bool{"start_time": true, "end_time": true, "created_at": true, "status": true, "kind": true}
)

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func baseSelect(extra ...string) squirrel.SelectBuilder {
	cols := append(append([]string{}, selectColumns...), extra...)
	return psql.Select(cols...).
		From("public.reservations rv").
		Join("public.resources rs ON rv.resource_id = rs.id")
}

func scanReservation(row pgx.Row, extra ...any) (*Reservation, error) {
	var r Reservation
	dest := []any{
		&r.ID, &r.ResourceID, &r.ResourceName, &r.UserID, &r.StartTime, &r.EndTime,
		&r.Status, &r.Kind, &r.Purpose, &r.RejectReason, &r.CreatedAt, &r.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &r, nil
}

// mapWriteError turns constraint violations into domain errors.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ExclusionViolation:
			return &ConflictError{}
		case pgerrcode.CheckViolation:
			return ErrInvalidRange
		case pgerrcode.ForeignKeyViolation:
			return ErrUnknownResource
		}
	}
	return fmt.Errorf("create reservation failed: %w", err)
}

func insert(ctx context.Context, q querier, r *Reservation) error {
	query, args, err := psql.Insert("public.reservations").
		Columns("resource_id", "user_id", "start_time", "end_time", "status", "kind", "purpose").
		Values(r.ResourceID, r.UserID, r.StartTime, r.EndTime, r.Status, r.Kind, r.Purpose).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	if err := q.QueryRow(ctx, query, args...).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func listOverlapping(ctx context.Context, q querier, resourceID string, window schedule.TimeRange) ([]*Reservation, error) {
	query, args, err := baseSelect().
		Where(squirrel.Eq{"rv.resource_id": resourceID}).
		Where(squirrel.Lt{"rv.start_time": window.End}).
		Where(squirrel.Gt{"rv.end_time": window.Start}).
		OrderBy("rv.seq ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build overlapping reservations query failed: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list overlapping reservations failed: %w", err)
	}
	defer rows.Close()

	var out []*Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation failed: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (r *pgxRepository) Create(ctx context.Context, res *Reservation) error {
	return insert(ctx, r.pool, res)
}

func (r *pgxRepository) CreateGuarded(ctx context.Context, res *Reservation, window schedule.TimeRange, guard Guard) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin reservation transaction failed: %w", err)
	}
	defer tx.Rollback(ctx)

	// Held until commit/rollback; concurrent writers for the same resource queue here.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", res.ResourceID); err != nil {
		return fmt.Errorf("lock resource %s failed: %w", res.ResourceID, err)
	}

	existing, err := listOverlapping(ctx, tx, res.ResourceID, window)
	if err != nil {
		return err
	}
	if err := guard(existing); err != nil {
		return err
	}

	if err := insert(ctx, tx, res); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reservation failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) CreateBatch(ctx context.Context, rs []*Reservation) []error {
	errs := make([]error, len(rs))
	fail := func(err error) []error {
		for i := range errs {
			if errs[i] == nil {
				errs[i] = err
			}
		}
		return errs
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fail(fmt.Errorf("begin batch transaction failed: %w", err))
	}
	defer tx.Rollback(ctx)

	for i, res := range rs {
		// Each row gets its own savepoint so one failure leaves the outer transaction usable.
		sp, err := tx.Begin(ctx)
		if err != nil {
			errs[i] = fmt.Errorf("open savepoint failed: %w", err)
			continue
		}
		if err := insert(ctx, sp, res); err != nil {
			errs[i] = err
			_ = sp.Rollback(ctx)
			continue
		}
		if err := sp.Commit(ctx); err != nil {
			errs[i] = fmt.Errorf("release savepoint failed: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fail(fmt.Errorf("commit batch failed: %w", err))
	}
	return errs
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	query, args, err := baseSelect().Where(squirrel.Eq{"rv.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reservation query failed: %w", err)
	}

	res, err := scanReservation(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation failed: %w", err)
	}
	return res, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	query := baseSelect("count(*) OVER() AS total_count")

	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"rv.resource_id": filter.ResourceID})
	}
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"rv.user_id": filter.UserID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"rv.status": filter.Status})
	}
	if filter.Kind != "" {
		query = query.Where(squirrel.Eq{"rv.kind": filter.Kind})
	}
	// Intersection with [From, To)
	if filter.From != nil {
		query = query.Where(squirrel.Gt{"rv.end_time": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"rv.start_time": *filter.To})
	}

	orderBy := "start_time"
	if sortableColumns[filter.SortBy] {
		orderBy = filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder == "DESC" {
		orderDir = "DESC"
	}
	query = query.OrderBy("rv."+orderBy+" "+orderDir, "rv.id ASC")

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
		return nil, 0, fmt.Errorf("build list reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations failed: %w", err)
	}
	defer rows.Close()

	var out []*Reservation
	var total int
	for rows.Next() {
		res, err := scanReservation(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan reservation failed: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reservations failed: %w", err)
	}
	return out, total, nil
}

func (r *pgxRepository) ListOverlapping(ctx context.Context, resourceID string, window schedule.TimeRange) ([]*Reservation, error) {
	return listOverlapping(ctx, r.pool, resourceID, window)
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, res *Reservation, from Status) error {
	query, args, err := psql.Update("public.reservations").
		Set("status", res.Status).
		Set("reject_reason", res.RejectReason).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": res.ID, "status": from}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reservation status query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&res.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either gone or moved by another writer since it was read.
			if _, getErr := r.GetByID(ctx, res.ID); errors.Is(getErr, ErrNotFound) {
				return ErrNotFound
			}
			return ErrInvalidTransition
		}
		return fmt.Errorf("update reservation status failed: %w", err)
	}
	return nil
}
