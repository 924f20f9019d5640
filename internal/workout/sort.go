package workout

import "strings"

const (
	SortAsc  = "asc"
	SortDesc = "desc"

	defaultSortColumn = "start_date"
)

// sortColumns whitelists every workouts column plus the short aliases the
// dashboard sends.
var sortColumns = map[string]string{
	"id":               "id",
	"owner_id":         "owner_id",
	"name":             "name",
	"activity_type":    "activity_type",
	"type":             "activity_type",
	"start_date":       "start_date",
	"date":             "start_date",
	"distance_meters":  "distance_meters",
	"distance":         "distance_meters",
	"duration_seconds": "duration_seconds",
	"duration":         "duration_seconds",
	"created_at":       "created_at",
	"updated_at":       "updated_at",
}

// Sort is a validated ordering. The zero value sorts by start date, newest first.
type Sort struct {
	Column    string
	Direction string
}

// ParseSort resolves user input against the whitelist.
func ParseSort(field, direction string) (Sort, error) {
	field = strings.ToLower(strings.TrimSpace(field))
	direction = strings.ToLower(strings.TrimSpace(direction))

	s := Sort{Column: defaultSortColumn, Direction: SortDesc}
	if field != "" {
		col, ok := sortColumns[field]
		if !ok {
			return Sort{}, ErrInvalidSort
		}
		s.Column = col
	}
	switch direction {
	case "":
	case SortAsc, SortDesc:
		s.Direction = direction
	default:
		return Sort{}, ErrInvalidSort
	}
	return s, nil
}

// orderBy returns SQL-safe column and direction. Only whitelisted values pass.
func (s Sort) orderBy() (string, string, error) {
	if s.Column == "" && s.Direction == "" {
		return defaultSortColumn, SortDesc, nil
	}
	valid := false
	for _, col := range sortColumns {
		if col == s.Column {
			valid = true
			break
		}
	}
	if !valid || (s.Direction != SortAsc && s.Direction != SortDesc) {
		return "", "", ErrInvalidSort
	}
	return s.Column, s.Direction, nil
}
