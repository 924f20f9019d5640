package workout

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/klach-ocado/10x-aimondo/internal/stats"
	"github.com/klach-ocado/10x-aimondo/internal/track"

	"github.com/google/uuid"
)

const (
	minNameLen = 3
	maxNameLen = 300
	minTypeLen = 3
	maxTypeLen = 50
)

// Record is a workout ready to be written, with its points already numbered.
type Record struct {
	Workout Workout
	Points  []TrackPoint
}

// BuildRecord turns a parsed track into a persistable record. Sequence numbers
// are the zero-based position in parser order.
func BuildRecord(ownerID, name string, parsed track.ParsedTrack, now time.Time) (Record, error) {
	if ownerID == "" {
		return Record{}, ErrMissingOwner
	}
	name, err := validateName(name)
	if err != nil {
		return Record{}, err
	}

	id := uuid.NewString()
	input := make([]stats.Point, len(parsed.Points))
	points := make([]TrackPoint, len(parsed.Points))
	for i, p := range parsed.Points {
		lat, lon := p.Lat, p.Lon
		input[i] = stats.Point{Lat: &lat, Lon: &lon, Time: p.Timestamp}
		points[i] = TrackPoint{
			WorkoutID:      id,
			SequenceNumber: i,
			Lat:            p.Lat,
			Lng:            p.Lon,
			Elevation:      p.Elevation,
			Timestamp:      p.Timestamp,
		}
	}

	res := stats.Calculate(input)
	startDate := now.UTC()
	if len(parsed.Points) > 0 && parsed.Points[0].Timestamp != nil {
		startDate = parsed.Points[0].Timestamp.UTC()
	}

	activityType := parsed.ActivityTypeHint
	if activityType == "" {
		activityType = track.DefaultActivityType
	}

	w := Workout{
		ID:             id,
		OwnerID:        ownerID,
		Name:           name,
		ActivityType:   activityType,
		StartDate:      startDate,
		DistanceMeters: int64(math.Round(res.Distance)),
	}
	if res.Duration != nil {
		d := int64(math.Round(*res.Duration))
		w.DurationSeconds = &d
	}
	return Record{Workout: w, Points: points}, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		return "", ErrInvalidName
	}
	return name, nil
}

func validateType(activityType string) (string, error) {
	activityType = strings.TrimSpace(activityType)
	if n := utf8.RuneCountInString(activityType); n < minTypeLen || n > maxTypeLen {
		return "", ErrInvalidType
	}
	return activityType, nil
}
