package filter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmpty(t *testing.T) {
	f, err := Parse("", " ", "", "")
	require.NoError(t, err)
	assert.Equal(t, Filters{}, f)
}

func TestParseDates(t *testing.T) {
	f, err := Parse(" morning ", "running", "2024-05-01", "2024-05-31")
	require.NoError(t, err)

	assert.Equal(t, "morning", f.Name)
	assert.Equal(t, "running", f.Type)
	require.NotNil(t, f.DateFrom)
	require.NotNil(t, f.DateTo)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *f.DateFrom)
	assert.Equal(t, time.Date(2024, 5, 31, 23, 59, 59, 999999999, time.UTC), *f.DateTo)
}

func TestParseRFC3339KeepsInstant(t *testing.T) {
	f, err := Parse("", "", "2024-05-01T10:00:00Z", "2024-05-01T12:30:00+02:00")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), f.DateFrom.UTC())
	assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), f.DateTo.UTC())
}

func TestParseInvalidDate(t *testing.T) {
	_, err := Parse("", "", "yesterday", "")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = Parse("", "", "", "2024-13-01")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestAppendSQLNoFilters(t *testing.T) {
	var sb strings.Builder
	args := Filters{}.AppendSQL(&sb, []any{"owner-1"}, "w")

	assert.Empty(t, sb.String())
	assert.Equal(t, []any{"owner-1"}, args)
}

func TestAppendSQLAllFilters(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	f := Filters{Name: "50%_run", Type: "running", DateFrom: &from, DateTo: &to}

	var sb strings.Builder
	args := f.AppendSQL(&sb, []any{"owner-1"}, "w")

	assert.Equal(t,
		" AND w.name ILIKE $2 AND w.activity_type = $3 AND w.start_date >= $4 AND w.start_date <= $5",
		sb.String())
	assert.Equal(t, []any{"owner-1", `%50\%\_run%`, "running", from, to}, args)
}

func TestAppendSQLWithoutAlias(t *testing.T) {
	var sb strings.Builder
	args := Filters{Type: "hiking"}.AppendSQL(&sb, []any{"o", 1.0}, "")

	assert.Equal(t, " AND activity_type = $3", sb.String())
	assert.Len(t, args, 3)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b\%c\_d`, escapeLike(`a\b%c_d`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestParseTime(t *testing.T) {
	ts, err := ParseTime("2024-02-03")
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.Equal(t, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), *ts)

	ts, err = ParseTime("")
	require.NoError(t, err)
	assert.Nil(t, ts)

	_, err = ParseTime("soon")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
