package workout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klach-ocado/10x-aimondo/internal/db"

	"github.com/jackc/pgx/v5"
)

const workoutColumns = `id, owner_id, name, activity_type, start_date, distance_meters, duration_seconds, created_at, updated_at`

// Store is the Postgres gateway. Inside WithinTx it is rebound to the
// transaction and pool is nil.
type Store struct {
	db   db.Querier
	pool db.Pool
}

func NewStore(pool db.Pool) *Store {
	return &Store{db: pool, pool: pool}
}

func (s *Store) WithinTx(ctx context.Context, fn func(Gateway) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&Store{db: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) InsertWorkout(ctx context.Context, w Workout) (Workout, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO workouts (id, owner_id, name, activity_type, start_date, distance_meters, duration_seconds)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at
	`, w.ID, w.OwnerID, w.Name, w.ActivityType, w.StartDate, w.DistanceMeters, w.DurationSeconds)
	if err := row.Scan(&w.CreatedAt, &w.UpdatedAt); err != nil {
		return Workout{}, err
	}
	return w, nil
}

// InsertTrackPoints writes all points in one statement.
func (s *Store) InsertTrackPoints(ctx context.Context, workoutID string, points []TrackPoint) error {
	if len(points) == 0 {
		return nil
	}
	seqs := make([]int32, len(points))
	lngs := make([]float64, len(points))
	lats := make([]float64, len(points))
	eles := make([]*float64, len(points))
	times := make([]*time.Time, len(points))
	for i, p := range points {
		seqs[i] = int32(p.SequenceNumber)
		lngs[i] = p.Lng
		lats[i] = p.Lat
		eles[i] = p.Elevation
		times[i] = p.Timestamp
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO track_points (workout_id, sequence_number, location, elevation, recorded_at)
		SELECT $1, p.seq, ST_SetSRID(ST_MakePoint(p.lng, p.lat), 4326)::geography, p.ele, p.ts
		FROM unnest($2::int[], $3::float8[], $4::float8[], $5::float8[], $6::timestamptz[]) AS p(seq, lng, lat, ele, ts)
	`, workoutID, seqs, lngs, lats, eles, times)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != int64(len(points)) {
		return fmt.Errorf("inserted %d of %d track points", tag.RowsAffected(), len(points))
	}
	return nil
}

func (s *Store) DeleteWorkout(ctx context.Context, ownerID, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM workouts WHERE owner_id=$1 AND id=$2`, ownerID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteAllWorkouts(ctx context.Context, ownerID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM workouts WHERE owner_id=$1`, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) QueryWorkouts(ctx context.Context, q ListQuery) ([]Workout, int, error) {
	col, dir, err := q.Sort.orderBy()
	if err != nil {
		return nil, 0, err
	}

	var where strings.Builder
	where.WriteString(" WHERE w.owner_id = $1")
	args := q.Filters.AppendSQL(&where, []any{q.OwnerID}, "w")

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM workouts w`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count workouts: %w", err)
	}
	if total == 0 {
		return []Workout{}, 0, nil
	}

	args = append(args, q.Limit, q.Offset)
	query := fmt.Sprintf(`SELECT %s FROM workouts w%s ORDER BY w.%s %s, w.id %s LIMIT $%d OFFSET $%d`,
		prefixed("w", workoutColumns), where.String(), col, dir, dir, len(args)-1, len(args))
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select workouts: %w", err)
	}
	defer rows.Close()

	workouts := make([]Workout, 0, q.Limit)
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, 0, err
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return workouts, total, nil
}

func (s *Store) GetWorkout(ctx context.Context, ownerID, id string) (Workout, error) {
	row := s.db.QueryRow(ctx, `SELECT `+workoutColumns+` FROM workouts WHERE owner_id=$1 AND id=$2`, ownerID, id)
	w, err := scanWorkout(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Workout{}, ErrNotFound
	}
	return w, err
}

func (s *Store) TrackPoints(ctx context.Context, workoutID string) ([]TrackPoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT sequence_number, ST_Y(location::geometry), ST_X(location::geometry), elevation, recorded_at
		FROM track_points
		WHERE workout_id=$1
		ORDER BY sequence_number
	`, workoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []TrackPoint{}
	for rows.Next() {
		p := TrackPoint{WorkoutID: workoutID}
		if err := rows.Scan(&p.SequenceNumber, &p.Lat, &p.Lng, &p.Elevation, &p.Timestamp); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *Store) UpdateWorkout(ctx context.Context, ownerID, id string, u Update) (Workout, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE workouts
		SET name=COALESCE($3, name),
		    activity_type=COALESCE($4, activity_type),
		    start_date=COALESCE($5, start_date),
		    updated_at=now()
		WHERE owner_id=$1 AND id=$2
		RETURNING `+workoutColumns, ownerID, id, u.Name, u.ActivityType, u.StartDate)
	w, err := scanWorkout(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Workout{}, ErrNotFound
	}
	return w, err
}

func scanWorkout(row pgx.Row) (Workout, error) {
	var w Workout
	err := row.Scan(&w.ID, &w.OwnerID, &w.Name, &w.ActivityType, &w.StartDate,
		&w.DistanceMeters, &w.DurationSeconds, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, c := range parts {
		parts[i] = alias + "." + c
	}
	return strings.Join(parts, ", ")
}
