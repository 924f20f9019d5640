package heatmap

import (
	"errors"

	"github.com/klach-ocado/10x-aimondo/internal/filter"

	"github.com/paulmach/orb"
)

// DefaultPointCap bounds a single heatmap response. Larger result sets are
// truncated without error.
const DefaultPointCap = 10000

var (
	ErrMissingBounds = errors.New("bbox must be minLng,minLat,maxLng,maxLat within WGS84 ranges")
	ErrMissingOwner  = errors.New("owner id required")
	ErrQueryFailed   = errors.New("failed to query heatmap points")
)

// Point is a [lat, lng] pair.
type Point [2]float64

func (p Point) Lat() float64 { return p[0] }
func (p Point) Lng() float64 { return p[1] }

type Query struct {
	OwnerID string
	Bound   orb.Bound
	Filters filter.Filters
	Limit   int
}
