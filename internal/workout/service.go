package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/klach-ocado/10x-aimondo/internal/config"
	"github.com/klach-ocado/10x-aimondo/internal/track"
)

// Gateway is the persistence port. Every method is scoped to an owner except
// InsertTrackPoints, whose workout id was created by the same owner.
type Gateway interface {
	InsertWorkout(ctx context.Context, w Workout) (Workout, error)
	InsertTrackPoints(ctx context.Context, workoutID string, points []TrackPoint) error
	DeleteWorkout(ctx context.Context, ownerID, id string) (bool, error)
	DeleteAllWorkouts(ctx context.Context, ownerID string) (int64, error)
	QueryWorkouts(ctx context.Context, q ListQuery) ([]Workout, int, error)
	GetWorkout(ctx context.Context, ownerID, id string) (Workout, error)
	TrackPoints(ctx context.Context, workoutID string) ([]TrackPoint, error)
	UpdateWorkout(ctx context.Context, ownerID, id string, u Update) (Workout, error)
}

// Transactor is implemented by gateways that can run several writes atomically.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(Gateway) error) error
}

// Notifier receives serialized events for an owner.
type Notifier interface {
	Publish(ownerID string, payload []byte)
}

type Service struct {
	gw           Gateway
	notifier     Notifier
	logger       *slog.Logger
	now          func() time.Time
	defaultLimit int
	maxLimit     int
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithPageLimits overrides the default and maximum page size. Non-positive
// values keep the built-in defaults.
func WithPageLimits(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if s.defaultLimit > s.maxLimit {
			s.defaultLimit = s.maxLimit
		}
	}
}

func NewService(gw Gateway, opts ...Option) *Service {
	s := &Service{
		gw:           gw,
		logger:       slog.Default(),
		now:          time.Now,
		defaultLimit: config.DefaultPageLimit,
		maxLimit:     config.DefaultMaxPageLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create parses the upload, derives statistics and persists the workout with
// its points. Nothing is written when parsing or validation fails, and a
// failed point insert never leaves the workout row behind.
func (s *Service) Create(ctx context.Context, ownerID, name, raw string) (Workout, error) {
	if ownerID == "" {
		return Workout{}, ErrMissingOwner
	}
	if _, err := validateName(name); err != nil {
		return Workout{}, err
	}
	parsed, err := track.Parse(raw)
	if err != nil {
		return Workout{}, err
	}
	rec, err := BuildRecord(ownerID, name, parsed, s.now())
	if err != nil {
		return Workout{}, err
	}

	var created Workout
	if tx, ok := s.gw.(Transactor); ok {
		err = tx.WithinTx(ctx, func(gw Gateway) error {
			var err error
			created, err = insert(ctx, gw, rec)
			return err
		})
	} else {
		created, err = s.createWithCompensation(ctx, rec)
	}
	if err != nil {
		return Workout{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.publish(ownerID, Event{Type: EventCreated, Workout: &created})
	return created, nil
}

func insert(ctx context.Context, gw Gateway, rec Record) (Workout, error) {
	created, err := gw.InsertWorkout(ctx, rec.Workout)
	if err != nil {
		return Workout{}, fmt.Errorf("insert workout: %w", err)
	}
	if err := gw.InsertTrackPoints(ctx, created.ID, rec.Points); err != nil {
		return Workout{}, fmt.Errorf("insert track points: %w", err)
	}
	return created, nil
}

func (s *Service) createWithCompensation(ctx context.Context, rec Record) (Workout, error) {
	created, err := s.gw.InsertWorkout(ctx, rec.Workout)
	if err != nil {
		return Workout{}, fmt.Errorf("insert workout: %w", err)
	}
	if err := s.gw.InsertTrackPoints(ctx, created.ID, rec.Points); err != nil {
		// The request context may already be cancelled; the cleanup must still run.
		cleanupCtx := context.WithoutCancel(ctx)
		if _, delErr := s.gw.DeleteWorkout(cleanupCtx, created.OwnerID, created.ID); delErr != nil {
			s.logger.Error("compensating delete failed",
				"error", delErr,
				"workout_id", created.ID,
				"owner_id", created.OwnerID,
			)
		}
		return Workout{}, fmt.Errorf("insert track points: %w", err)
	}
	return created, nil
}

// List returns one page of the owner's workouts.
func (s *Service) List(ctx context.Context, p ListParams) (Page, error) {
	if p.OwnerID == "" {
		return Page{}, ErrMissingOwner
	}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = s.defaultLimit
	}
	if p.Page < 1 || p.Limit < 1 || p.Limit > s.maxLimit {
		return Page{}, ErrInvalidPagination
	}
	// (Page-1)*Limit must not overflow.
	if p.Page-1 > math.MaxInt/p.Limit {
		return Page{}, ErrInvalidPagination
	}
	if _, _, err := p.Sort.orderBy(); err != nil {
		return Page{}, err
	}

	rows, total, err := s.gw.QueryWorkouts(ctx, ListQuery{
		OwnerID: p.OwnerID,
		Filters: p.Filters,
		Sort:    p.Sort,
		Offset:  (p.Page - 1) * p.Limit,
		Limit:   p.Limit,
	})
	if err != nil {
		s.logger.Error("list workouts failed", "error", err, "owner_id", p.OwnerID)
		return Page{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	if rows == nil {
		rows = []Workout{}
	}
	return Page{Data: rows, Pagination: NewPagination(p.Page, p.Limit, total)}, nil
}

// Get returns the workout with its points in path order.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Details, error) {
	if ownerID == "" {
		return Details{}, ErrMissingOwner
	}
	w, err := s.gw.GetWorkout(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Details{}, err
		}
		s.logger.Error("get workout failed", "error", err, "workout_id", id)
		return Details{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	points, err := s.gw.TrackPoints(ctx, w.ID)
	if err != nil {
		s.logger.Error("load track points failed", "error", err, "workout_id", id)
		return Details{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].SequenceNumber < points[j].SequenceNumber
	})
	if points == nil {
		points = []TrackPoint{}
	}
	return Details{Workout: w, TrackPoints: points}, nil
}

// Update changes name, type or start date. Derived statistics stay untouched.
func (s *Service) Update(ctx context.Context, ownerID, id string, u Update) (Workout, error) {
	if ownerID == "" {
		return Workout{}, ErrMissingOwner
	}
	if u.Name != nil {
		name, err := validateName(*u.Name)
		if err != nil {
			return Workout{}, err
		}
		u.Name = &name
	}
	if u.ActivityType != nil {
		t, err := validateType(*u.ActivityType)
		if err != nil {
			return Workout{}, err
		}
		u.ActivityType = &t
	}
	if u.StartDate != nil {
		d := u.StartDate.UTC()
		u.StartDate = &d
	}

	var (
		w   Workout
		err error
	)
	if u.empty() {
		w, err = s.gw.GetWorkout(ctx, ownerID, id)
	} else {
		w, err = s.gw.UpdateWorkout(ctx, ownerID, id, u)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Workout{}, err
		}
		return Workout{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !u.empty() {
		s.publish(ownerID, Event{Type: EventUpdated, Workout: &w})
	}
	return w, nil
}

// Delete removes one workout; its points go with it.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ErrMissingOwner
	}
	deleted, err := s.gw.DeleteWorkout(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !deleted {
		return ErrNotFound
	}
	s.publish(ownerID, Event{Type: EventDeleted, WorkoutID: id})
	return nil
}

// DeleteAll removes every workout of the owner and reports how many went.
func (s *Service) DeleteAll(ctx context.Context, ownerID string) (int64, error) {
	if ownerID == "" {
		return 0, ErrMissingOwner
	}
	n, err := s.gw.DeleteAllWorkouts(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.publish(ownerID, Event{Type: EventCleared, Count: n})
	return n, nil
}

func (s *Service) publish(ownerID string, ev Event) {
	if s.notifier == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("encode workout event failed", "error", err, "type", ev.Type)
		return
	}
	s.notifier.Publish(ownerID, payload)
}
