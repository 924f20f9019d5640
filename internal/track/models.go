package track

import "time"

// DefaultActivityType is used when the first track carries no usable <type>.
const DefaultActivityType = "other"

const (
	minActivityTypeLen = 3
	maxActivityTypeLen = 50
)

// RawPoint is one decoded <trkpt>. Lat and Lon are always present and in
// range; points without them never leave the parser.
type RawPoint struct {
	Lat       float64
	Lon       float64
	Elevation *float64
	Timestamp *time.Time
}

// ParsedTrack is the validated result of parsing one uploaded GPX file.
type ParsedTrack struct {
	ActivityTypeHint string
	Points           []RawPoint
}
