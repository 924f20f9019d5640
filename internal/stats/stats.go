// Package stats derives workout totals from an ordered sequence of track points.
package stats

import (
	"sort"
	"time"

	"github.com/klach-ocado/10x-aimondo/internal/shared/geo"
)

// Point is one statistics input. Lat and Lon may be nil for malformed input;
// such points are ignored.
type Point struct {
	Lat  *float64
	Lon  *float64
	Time *time.Time
}

// Result holds the totals. Duration is nil when fewer than two valid points
// carry a timestamp.
type Result struct {
	Distance float64
	Duration *float64
}

// Calculate sums haversine distance between consecutive valid points in input
// order and measures duration as the span between the earliest and latest
// timestamp, independent of input order.
func Calculate(points []Point) Result {
	valid := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Lat == nil || p.Lon == nil {
			continue
		}
		valid = append(valid, p)
	}
	if len(valid) < 2 {
		return Result{}
	}

	var distance float64
	for i := 1; i < len(valid); i++ {
		prev, cur := valid[i-1], valid[i]
		distance += geo.HaversineMeters(*prev.Lat, *prev.Lon, *cur.Lat, *cur.Lon)
	}

	return Result{Distance: distance, Duration: duration(valid)}
}

func duration(points []Point) *float64 {
	times := make([]time.Time, 0, len(points))
	for _, p := range points {
		if p.Time != nil {
			times = append(times, *p.Time)
		}
	}
	if len(times) < 2 {
		return nil
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	seconds := times[len(times)-1].Sub(times[0]).Seconds()
	return &seconds
}
