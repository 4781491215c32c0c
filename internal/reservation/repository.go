package reservation

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

// errConcurrentWrite signals that the store rejected a write because another
// transaction committed an overlapping reservation first (exclusion
// constraint backstop). The service retries the operation once before
// surfacing a conflict to the caller.
var errConcurrentWrite = errors.New("concurrent overlapping write")

type Repository interface {
	Create(ctx context.Context, rsv *Reservation) error
	GetByID(ctx context.Context, id string) (*Reservation, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, int, error)
	Update(ctx context.Context, rsv *Reservation) error

	// FindConflict returns the first active (pending or confirmed)
	// reservation on the room that overlaps [start, end), or nil if the
	// interval is free. excludeID is used when re-checking an edit against
	// itself. Must run inside the same InRoomTx as the write it guards.
	FindConflict(ctx context.Context, roomID string, start, end time.Time, excludeID string) (*Reservation, error)

	// ExpireStale transitions every pending reservation on the room whose
	// start time is at or before now to cancelled with ExpiredReason, and
	// returns the transitioned records. The update is guarded on the record
	// still being pending, so a concurrent double sweep is a harmless no-op.
	// An empty roomID sweeps all rooms.
	ExpireStale(ctx context.Context, roomID string, now time.Time) ([]*Reservation, error)

	// FindConfirmedEndingAfter returns a confirmed reservation on the room
	// that is current or upcoming (end > now), or nil.
	FindConfirmedEndingAfter(ctx context.Context, roomID string, now time.Time) (*Reservation, error)

	// FindPendingStartingFrom returns a pending reservation on the room that
	// has not started yet (start >= now), or nil.
	FindPendingStartingFrom(ctx context.Context, roomID string, now time.Time) (*Reservation, error)

	// InRoomTx runs fn inside a unit that is atomic with respect to every
	// other InRoomTx on the same room. Conflict checks and the writes they
	// authorize must share one call; checking first and writing later from
	// separate calls is a check-then-act race.
	InRoomTx(ctx context.Context, roomID string, fn func(tx Repository) error) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same query
// methods serve pooled and transactional access.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxRepository struct {
	pool *pgxpool.Pool // nil when the repository is scoped to a transaction
	db   querier
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool, db: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const reservationColumns = "r.id, r.room_id, m.name, r.user_id, u.full_name, " +
	"r.start_time, r.end_time, r.party_size, r.purpose, r.status, r.cancel_reason, " +
	"r.created_at, r.updated_at"

func scanReservation(row pgx.Row) (*Reservation, error) {
	var rsv Reservation
	err := row.Scan(
		&rsv.ID, &rsv.RoomID, &rsv.RoomName, &rsv.UserID, &rsv.UserName,
		&rsv.Start, &rsv.End, &rsv.PartySize, &rsv.Purpose, &rsv.Status, &rsv.CancelReason,
		&rsv.CreatedAt, &rsv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rsv, nil
}

func (r *pgxRepository) Create(ctx context.Context, rsv *Reservation) error {
	query, args, err := psql.Insert("public.reservations").
		Columns("room_id", "user_id", "start_time", "end_time", "party_size", "purpose", "status", "cancel_reason").
		Values(rsv.RoomID, rsv.UserID, rsv.Start, rsv.End, rsv.PartySize, rsv.Purpose, rsv.Status, rsv.CancelReason).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	err = r.db.QueryRow(ctx, query, args...).Scan(&rsv.ID, &rsv.CreatedAt, &rsv.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "create reservation")
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	query, args, err := psql.Select(reservationColumns).
		From("public.reservations r").
		Join("public.rooms m ON r.room_id = m.id").
		Join("public.users u ON r.user_id = u.id").
		Where(squirrel.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reservation query failed: %w", err)
	}

	rsv, err := scanReservation(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation failed: %w", err)
	}
	return rsv, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	query := psql.Select(reservationColumns + ", count(*) OVER() AS total_count").
		From("public.reservations r").
		Join("public.rooms m ON r.room_id = m.id").
		Join("public.users u ON r.user_id = u.id")

	if filter.RoomID != "" {
		query = query.Where(squirrel.Eq{"r.room_id": filter.RoomID})
	}
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"r.user_id": filter.UserID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"r.status": filter.Status})
	}
	if filter.StartFrom != nil {
		query = query.Where(squirrel.GtOrEq{"r.start_time": *filter.StartFrom})
	}
	if filter.StartTo != nil {
		query = query.Where(squirrel.LtOrEq{"r.start_time": *filter.StartTo})
	}

	orderBy := "r.start_time"
	if filter.SortBy != "" {
		orderBy = "r." + filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
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
		return nil, 0, fmt.Errorf("build list reservations query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations failed: %w", err)
	}
	defer rows.Close()

	var items []*Reservation
	var total int
	for rows.Next() {
		var rsv Reservation
		if err := rows.Scan(
			&rsv.ID, &rsv.RoomID, &rsv.RoomName, &rsv.UserID, &rsv.UserName,
			&rsv.Start, &rsv.End, &rsv.PartySize, &rsv.Purpose, &rsv.Status, &rsv.CancelReason,
			&rsv.CreatedAt, &rsv.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan reservation failed: %w", err)
		}
		items = append(items, &rsv)
	}

	return items, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, rsv *Reservation) error {
	query, args, err := psql.Update("public.reservations").
		Set("room_id", rsv.RoomID).
		Set("start_time", rsv.Start).
		Set("end_time", rsv.End).
		Set("party_size", rsv.PartySize).
		Set("purpose", rsv.Purpose).
		Set("status", rsv.Status).
		Set("cancel_reason", rsv.CancelReason).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": rsv.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reservation query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, "update reservation")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) FindConflict(ctx context.Context, roomID string, start, end time.Time, excludeID string) (*Reservation, error) {
	// Half-open overlap: existing.start < end AND existing.end > start.
	query := psql.Select(reservationColumns).
		From("public.reservations r").
		Join("public.rooms m ON r.room_id = m.id").
		Join("public.users u ON r.user_id = u.id").
		Where(squirrel.Eq{"r.room_id": roomID}).
		Where(squirrel.NotEq{"r.status": StatusCancelled}).
		Where(squirrel.Lt{"r.start_time": end}).
		Where(squirrel.Gt{"r.end_time": start})

	if excludeID != "" {
		query = query.Where(squirrel.NotEq{"r.id": excludeID})
	}

	sql, args, err := query.OrderBy("r.start_time ASC").Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find conflict query failed: %w", err)
	}

	rsv, err := scanReservation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find conflict failed: %w", err)
	}
	return rsv, nil
}

func (r *pgxRepository) ExpireStale(ctx context.Context, roomID string, now time.Time) ([]*Reservation, error) {
	query := psql.Update("public.reservations").
		Set("status", StatusCancelled).
		Set("cancel_reason", ExpiredReason).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"status": StatusPending}).
		Where(squirrel.LtOrEq{"start_time": now}).
		Suffix("RETURNING id, room_id, user_id, start_time, end_time, party_size, purpose, status, cancel_reason, created_at, updated_at")

	if roomID != "" {
		query = query.Where(squirrel.Eq{"room_id": roomID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build expire stale query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("expire stale reservations failed: %w", err)
	}
	defer rows.Close()

	var expired []*Reservation
	for rows.Next() {
		var rsv Reservation
		if err := rows.Scan(
			&rsv.ID, &rsv.RoomID, &rsv.UserID,
			&rsv.Start, &rsv.End, &rsv.PartySize, &rsv.Purpose, &rsv.Status, &rsv.CancelReason,
			&rsv.CreatedAt, &rsv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan expired reservation failed: %w", err)
		}
		expired = append(expired, &rsv)
	}
	return expired, nil
}

func (r *pgxRepository) FindConfirmedEndingAfter(ctx context.Context, roomID string, now time.Time) (*Reservation, error) {
	return r.findOne(ctx, roomID, squirrel.And{
		squirrel.Eq{"r.status": StatusConfirmed},
		squirrel.Gt{"r.end_time": now},
	})
}

func (r *pgxRepository) FindPendingStartingFrom(ctx context.Context, roomID string, now time.Time) (*Reservation, error) {
	return r.findOne(ctx, roomID, squirrel.And{
		squirrel.Eq{"r.status": StatusPending},
		squirrel.GtOrEq{"r.start_time": now},
	})
}

func (r *pgxRepository) findOne(ctx context.Context, roomID string, cond squirrel.Sqlizer) (*Reservation, error) {
	sql, args, err := psql.Select(reservationColumns).
		From("public.reservations r").
		Join("public.rooms m ON r.room_id = m.id").
		Join("public.users u ON r.user_id = u.id").
		Where(squirrel.Eq{"r.room_id": roomID}).
		Where(cond).
		OrderBy("r.start_time ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find reservation query failed: %w", err)
	}

	rsv, err := scanReservation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find reservation failed: %w", err)
	}
	return rsv, nil
}

func (r *pgxRepository) InRoomTx(ctx context.Context, roomID string, fn func(tx Repository) error) error {
	if r.pool == nil {
		// Already inside a transaction holding the room lock; advisory xact
		// locks are re-entrant within the same transaction.
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reservation tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize all conflict-check-then-write units per room. The lock is
	// released automatically at commit or rollback.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", roomID); err != nil {
		return fmt.Errorf("acquire room lock failed: %w", err)
	}

	if err := fn(&pgxRepository{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapWriteError(err, "commit reservation tx")
	}
	return nil
}

// mapWriteError translates the exclusion-constraint backstop on overlapping
// active ranges into errConcurrentWrite so the service can retry once.
func mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
		return fmt.Errorf("%s: %w", op, errConcurrentWrite)
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
