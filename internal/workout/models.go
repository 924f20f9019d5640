package workout

import (
	"time"

	"github.com/klach-ocado/10x-aimondo/internal/filter"
)

type Workout struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Name            string    `json:"name"`
	ActivityType    string    `json:"activity_type"`
	StartDate       time.Time `json:"start_date"`
	DistanceMeters  int64     `json:"distance_meters"`
	DurationSeconds *int64    `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TrackPoint is a stored point. SequenceNumber is the only source of path
// order; rows coming back from storage are sorted by it before use.
type TrackPoint struct {
	WorkoutID      string     `json:"-"`
	SequenceNumber int        `json:"sequence_number"`
	Lat            float64    `json:"lat"`
	Lng            float64    `json:"lng"`
	Elevation      *float64   `json:"ele"`
	Timestamp      *time.Time `json:"time"`
}

type Details struct {
	Workout
	TrackPoints []TrackPoint `json:"track_points"`
}

// Update carries the metadata a user may change after creation. Distance,
// duration and geometry are never updatable.
type Update struct {
	Name         *string    `json:"name"`
	ActivityType *string    `json:"type"`
	StartDate    *time.Time `json:"date"`
}

func (u Update) empty() bool {
	return u.Name == nil && u.ActivityType == nil && u.StartDate == nil
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagination derives TotalPages as ceil(totalItems/limit); no items means no pages.
func NewPagination(page, limit, totalItems int) Pagination {
	pages := 0
	if totalItems > 0 && limit > 0 {
		pages = (totalItems + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, TotalItems: totalItems, TotalPages: pages}
}

type Page struct {
	Data       []Workout  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type ListParams struct {
	OwnerID string
	Page    int
	Limit   int
	Filters filter.Filters
	Sort    Sort
}

// ListQuery is what the gateway receives: offsets are already resolved.
type ListQuery struct {
	OwnerID string
	Filters filter.Filters
	Sort    Sort
	Offset  int
	Limit   int
}

const (
	EventCreated = "workout.created"
	EventUpdated = "workout.updated"
	EventDeleted = "workout.deleted"
	EventCleared = "workouts.cleared"
)

// Event is pushed to the owner's stream after a successful write.
type Event struct {
	Type      string   `json:"type"`
	Workout   *Workout `json:"workout,omitempty"`
	WorkoutID string   `json:"workout_id,omitempty"`
	Count     int64    `json:"count,omitempty"`
}
