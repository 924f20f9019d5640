// Package filter holds the workout filters shared by the listing and heatmap
// queries and renders them as SQL conditions.
package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date, expected RFC 3339 or YYYY-MM-DD")

const dateOnly = "2006-01-02"

// Filters narrows a workout query. Zero values mean "no constraint".
// DateFrom and DateTo are inclusive bounds on the workout start date.
type Filters struct {
	Name     string
	Type     string
	DateFrom *time.Time
	DateTo   *time.Time
}

// Parse builds Filters from raw query-string values. A date-only dateTo
// covers the whole day.
func Parse(name, activityType, dateFrom, dateTo string) (Filters, error) {
	f := Filters{
		Name: strings.TrimSpace(name),
		Type: strings.TrimSpace(activityType),
	}

	var err error
	if f.DateFrom, err = parseDate(dateFrom, false); err != nil {
		return Filters{}, fmt.Errorf("dateFrom: %w", err)
	}
	if f.DateTo, err = parseDate(dateTo, true); err != nil {
		return Filters{}, fmt.Errorf("dateTo: %w", err)
	}
	return f, nil
}

// ParseTime accepts the same formats as the date filters. Empty input yields nil.
func ParseTime(raw string) (*time.Time, error) {
	return parseDate(raw, false)
}

func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// AppendSQL writes one " AND ..." condition per active filter against the
// workouts table aliased as alias, numbering placeholders after the existing
// args, and returns the extended argument list.
func (f Filters) AppendSQL(sb *strings.Builder, args []any, alias string) []any {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	if f.Name != "" {
		args = append(args, "%"+escapeLike(f.Name)+"%")
		fmt.Fprintf(sb, " AND %s ILIKE $%d", col("name"), len(args))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		fmt.Fprintf(sb, " AND %s = $%d", col("activity_type"), len(args))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		fmt.Fprintf(sb, " AND %s >= $%d", col("start_date"), len(args))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		fmt.Fprintf(sb, " AND %s <= $%d", col("start_date"), len(args))
	}
	return args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
