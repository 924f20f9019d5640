package heatmap

import (
	"strconv"
	"strings"

	"github.com/klach-ocado/10x-aimondo/internal/shared/geo"

	"github.com/paulmach/orb"
)

// ParseBBox reads "minLng,minLat,maxLng,maxLat". Boxes crossing the
// antimeridian (minLng > maxLng) are rejected like any other inverted box.
func ParseBBox(raw string) (orb.Bound, error) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) != 4 {
		return orb.Bound{}, ErrMissingBounds
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, ErrMissingBounds
		}
		v[i] = f
	}

	b := orb.Bound{
		Min: orb.Point{v[0], v[1]},
		Max: orb.Point{v[2], v[3]},
	}
	if !validBound(b) {
		return orb.Bound{}, ErrMissingBounds
	}
	return b, nil
}

func validBound(b orb.Bound) bool {
	if !geo.ValidLatLng(b.Min.Lat(), b.Min.Lon()) || !geo.ValidLatLng(b.Max.Lat(), b.Max.Lon()) {
		return false
	}
	return b.Min.Lon() <= b.Max.Lon() && b.Min.Lat() <= b.Max.Lat()
}
