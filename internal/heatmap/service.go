// Package heatmap serves the owner's track points inside a map viewport.
package heatmap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/klach-ocado/10x-aimondo/internal/filter"

	"github.com/paulmach/orb"
)

type Gateway interface {
	Points(ctx context.Context, q Query) ([]Point, error)
}

type Service struct {
	gw       Gateway
	pointCap int
	logger   *slog.Logger
}

// NewService caps every response at pointCap points; non-positive means DefaultPointCap.
func NewService(gw Gateway, pointCap int, logger *slog.Logger) *Service {
	if pointCap <= 0 {
		pointCap = DefaultPointCap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gw: gw, pointCap: pointCap, logger: logger}
}

// Points returns at most the configured cap of the owner's points intersecting
// bound. Order is unspecified.
func (s *Service) Points(ctx context.Context, ownerID string, bound orb.Bound, f filter.Filters) ([]Point, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	if !validBound(bound) {
		return nil, ErrMissingBounds
	}

	points, err := s.gw.Points(ctx, Query{OwnerID: ownerID, Bound: bound, Filters: f, Limit: s.pointCap})
	if err != nil {
		s.logger.Error("heatmap query failed", "error", err, "owner_id", ownerID)
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	if len(points) > s.pointCap {
		points = points[:s.pointCap]
	}
	if points == nil {
		points = []Point{}
	}
	return points, nil
}
