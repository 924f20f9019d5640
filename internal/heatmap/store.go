package heatmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/klach-ocado/10x-aimondo/internal/db"
)

type Store struct {
	db db.Querier
}

func NewStore(db db.Querier) *Store {
	return &Store{db: db}
}

func (s *Store) Points(ctx context.Context, q Query) ([]Point, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ST_Y(tp.location::geometry), ST_X(tp.location::geometry)
		FROM track_points tp
		JOIN workouts w ON w.id = tp.workout_id
		WHERE w.owner_id = $1
		AND ST_Intersects(tp.location::geometry, ST_MakeEnvelope($2, $3, $4, $5, 4326))`)
	args := []any{q.OwnerID, q.Bound.Min.Lon(), q.Bound.Min.Lat(), q.Bound.Max.Lon(), q.Bound.Max.Lat()}
	args = q.Filters.AppendSQL(&sb, args, "w")
	args = append(args, q.Limit)
	fmt.Fprintf(&sb, " LIMIT $%d", len(args))

	rows, err := s.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]Point, 0, 256)
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p[0], &p[1]); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
