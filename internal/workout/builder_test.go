package workout

import (
	"strings"
	"testing"
	"time"

	"github.com/klach-ocado/10x-aimondo/internal/track"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestBuildRecordSequenceIsContiguous(t *testing.T) {
	parsed := track.ParsedTrack{ActivityTypeHint: "hiking"}
	for i := 0; i < 50; i++ {
		parsed.Points = append(parsed.Points, track.RawPoint{Lat: float64(i) / 100, Lon: 10})
	}

	rec, err := BuildRecord("owner-1", "Ridge walk", parsed, fixedNow)
	require.NoError(t, err)
	require.Len(t, rec.Points, 50)
	for i, p := range rec.Points {
		assert.Equal(t, i, p.SequenceNumber)
		assert.Equal(t, rec.Workout.ID, p.WorkoutID)
		assert.Equal(t, parsed.Points[i].Lat, p.Lat)
	}
	_, err = uuid.Parse(rec.Workout.ID)
	assert.NoError(t, err)
	assert.Equal(t, "hiking", rec.Workout.ActivityType)
	assert.Equal(t, "owner-1", rec.Workout.OwnerID)
}

func TestBuildRecordRoundsStatistics(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	parsed := track.ParsedTrack{Points: []track.RawPoint{
		{Lat: 52.52, Lon: 13.405, Timestamp: ptr(start)},
		{Lat: 48.8566, Lon: 2.3522, Timestamp: ptr(start.Add(3600*time.Second + 400*time.Millisecond))},
	}}

	rec, err := BuildRecord("owner-1", "Euro Run", parsed, fixedNow)
	require.NoError(t, err)
	assert.InDelta(t, 879700, rec.Workout.DistanceMeters, 10000)
	require.NotNil(t, rec.Workout.DurationSeconds)
	assert.Equal(t, int64(3600), *rec.Workout.DurationSeconds)
	assert.True(t, rec.Workout.StartDate.Equal(start))
	assert.Equal(t, track.DefaultActivityType, rec.Workout.ActivityType)
}

func TestBuildRecordSinglePoint(t *testing.T) {
	parsed := track.ParsedTrack{Points: []track.RawPoint{{Lat: 1, Lon: 1}}}
	rec, err := BuildRecord("owner-1", "Standing still", parsed, fixedNow)
	require.NoError(t, err)
	assert.Zero(t, rec.Workout.DistanceMeters)
	assert.Nil(t, rec.Workout.DurationSeconds)
	assert.True(t, rec.Workout.StartDate.Equal(fixedNow))
}

func TestBuildRecordValidation(t *testing.T) {
	parsed := track.ParsedTrack{Points: []track.RawPoint{{Lat: 1, Lon: 1}}}

	_, err := BuildRecord("", "Valid name", parsed, fixedNow)
	assert.ErrorIs(t, err, ErrMissingOwner)

	for _, name := range []string{"", "  ", "ab", " ab ", strings.Repeat("ż", 301)} {
		_, err := BuildRecord("owner-1", name, parsed, fixedNow)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}

	rec, err := BuildRecord("owner-1", strings.Repeat("ż", 300), parsed, fixedNow)
	require.NoError(t, err)
	assert.Len(t, []rune(rec.Workout.Name), 300)
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("", "")
	require.NoError(t, err)
	assert.Equal(t, Sort{Column: "start_date", Direction: SortDesc}, s)

	cases := map[string]string{
		"date":             "start_date",
		"type":             "activity_type",
		"distance":         "distance_meters",
		"duration":         "duration_seconds",
		"Name":             "name",
		"created_at":       "created_at",
		"duration_seconds": "duration_seconds",
	}
	for field, col := range cases {
		s, err := ParseSort(field, "ASC")
		require.NoError(t, err, field)
		assert.Equal(t, Sort{Column: col, Direction: SortAsc}, s)
	}

	_, err = ParseSort("password", "asc")
	assert.ErrorIs(t, err, ErrInvalidSort)
	_, err = ParseSort("name", "sideways")
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestSortOrderBy(t *testing.T) {
	col, dir, err := Sort{}.orderBy()
	require.NoError(t, err)
	assert.Equal(t, "start_date", col)
	assert.Equal(t, SortDesc, dir)

	_, _, err = Sort{Column: "name"}.orderBy()
	assert.ErrorIs(t, err, ErrInvalidSort)
	_, _, err = Sort{Column: "1; --", Direction: SortAsc}.orderBy()
	assert.ErrorIs(t, err, ErrInvalidSort)
}
