package heatmap

import (
	"errors"

	"github.com/klach-ocado/10x-aimondo/internal/auth"
	"github.com/klach-ocado/10x-aimondo/internal/filter"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		bound, err := ParseBBox(c.Query("bbox"))
		if err != nil {
			return httpError(err)
		}
		filters, err := filter.Parse(c.Query("name"), c.Query("type"), c.Query("dateFrom"), c.Query("dateTo"))
		if err != nil {
			return httpError(err)
		}

		points, err := svc.Points(c.Context(), auth.OwnerID(c), bound, filters)
		if err != nil {
			return httpError(err)
		}
		if c.Query("format") == "geojson" {
			return c.JSON(featureCollection(points))
		}
		return c.JSON(fiber.Map{"points": points})
	})
}

// featureCollection wraps all points in a single MultiPoint feature.
func featureCollection(points []Point) *geojson.FeatureCollection {
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = orb.Point{p.Lng(), p.Lat()}
	}
	f := geojson.NewFeature(mp)
	f.Properties["count"] = len(points)

	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	return fc
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrMissingOwner):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrMissingBounds), errors.Is(err, filter.ErrInvalidDate):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrQueryFailed):
		return fiber.NewError(fiber.StatusInternalServerError, ErrQueryFailed.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
