package workout

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var errBoom = errors.New("boom")

// memGateway is an in-memory Gateway without transaction support, so the
// service falls back to the compensating delete.
type memGateway struct {
	mu       sync.Mutex
	workouts map[string]Workout
	points   map[string][]TrackPoint

	failInsertWorkout bool
	failInsertPoints  bool
	failDelete        bool
	failQuery         bool
	failPoints        bool

	deleteCalls int
	lastQuery   ListQuery
}

func newMemGateway() *memGateway {
	return &memGateway{
		workouts: map[string]Workout{},
		points:   map[string][]TrackPoint{},
	}
}

func (m *memGateway) InsertWorkout(_ context.Context, w Workout) (Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertWorkout {
		return Workout{}, errBoom
	}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w.CreatedAt, w.UpdatedAt = now, now
	m.workouts[w.ID] = w
	return w, nil
}

func (m *memGateway) InsertTrackPoints(_ context.Context, workoutID string, points []TrackPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertPoints {
		return errBoom
	}
	// store in reverse to make sure readers do not rely on storage order
	stored := make([]TrackPoint, len(points))
	for i, p := range points {
		stored[len(points)-1-i] = p
	}
	m.points[workoutID] = stored
	return nil
}

func (m *memGateway) DeleteWorkout(_ context.Context, ownerID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.failDelete {
		return false, errBoom
	}
	w, ok := m.workouts[id]
	if !ok || w.OwnerID != ownerID {
		return false, nil
	}
	delete(m.workouts, id)
	delete(m.points, id)
	return true, nil
}

func (m *memGateway) DeleteAllWorkouts(_ context.Context, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return 0, errBoom
	}
	var n int64
	for id, w := range m.workouts {
		if w.OwnerID == ownerID {
			delete(m.workouts, id)
			delete(m.points, id)
			n++
		}
	}
	return n, nil
}

func (m *memGateway) QueryWorkouts(_ context.Context, q ListQuery) ([]Workout, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	if m.failQuery {
		return nil, 0, errBoom
	}

	var matched []Workout
	for _, w := range m.workouts {
		if w.OwnerID != q.OwnerID {
			continue
		}
		f := q.Filters
		if f.Name != "" && !strings.Contains(strings.ToLower(w.Name), strings.ToLower(f.Name)) {
			continue
		}
		if f.Type != "" && w.ActivityType != f.Type {
			continue
		}
		if f.DateFrom != nil && w.StartDate.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && w.StartDate.After(*f.DateTo) {
			continue
		}
		matched = append(matched, w)
	}
	sort.Slice(matched, func(i, j int) bool {
		if q.Sort.Direction == SortAsc {
			return matched[i].StartDate.Before(matched[j].StartDate)
		}
		return matched[i].StartDate.After(matched[j].StartDate)
	})

	total := len(matched)
	if q.Offset >= total {
		return []Workout{}, total, nil
	}
	end := q.Offset + q.Limit
	if end > total {
		end = total
	}
	return matched[q.Offset:end], total, nil
}

func (m *memGateway) GetWorkout(_ context.Context, ownerID, id string) (Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failQuery {
		return Workout{}, errBoom
	}
	w, ok := m.workouts[id]
	if !ok || w.OwnerID != ownerID {
		return Workout{}, ErrNotFound
	}
	return w, nil
}

func (m *memGateway) TrackPoints(_ context.Context, workoutID string) ([]TrackPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPoints {
		return nil, errBoom
	}
	out := make([]TrackPoint, len(m.points[workoutID]))
	copy(out, m.points[workoutID])
	return out, nil
}

func (m *memGateway) UpdateWorkout(_ context.Context, ownerID, id string, u Update) (Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workouts[id]
	if !ok || w.OwnerID != ownerID {
		return Workout{}, ErrNotFound
	}
	if u.Name != nil {
		w.Name = *u.Name
	}
	if u.ActivityType != nil {
		w.ActivityType = *u.ActivityType
	}
	if u.StartDate != nil {
		w.StartDate = *u.StartDate
	}
	w.UpdatedAt = w.UpdatedAt.Add(time.Minute)
	m.workouts[id] = w
	return w, nil
}

func (m *memGateway) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workouts)
}

// txGateway adds WithinTx that discards all writes when fn fails.
type txGateway struct {
	*memGateway
	commits   int
	rollbacks int
}

func (t *txGateway) WithinTx(ctx context.Context, fn func(Gateway) error) error {
	t.mu.Lock()
	workouts := make(map[string]Workout, len(t.workouts))
	for k, v := range t.workouts {
		workouts[k] = v
	}
	points := make(map[string][]TrackPoint, len(t.points))
	for k, v := range t.points {
		points[k] = v
	}
	t.mu.Unlock()

	if err := fn(t.memGateway); err != nil {
		t.mu.Lock()
		t.workouts, t.points = workouts, points
		t.mu.Unlock()
		t.rollbacks++
		return err
	}
	t.commits++
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events map[string][]string
}

func (r *recordingNotifier) Publish(ownerID string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = map[string][]string{}
	}
	r.events[ownerID] = append(r.events[ownerID], string(payload))
}

func (r *recordingNotifier) eventsFor(ownerID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events[ownerID]...)
}
