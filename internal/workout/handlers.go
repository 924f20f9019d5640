package workout

import (
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klach-ocado/10x-aimondo/internal/auth"
	"github.com/klach-ocado/10x-aimondo/internal/filter"
	"github.com/klach-ocado/10x-aimondo/internal/track"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	formName = "name"
	formFile = "gpxFile"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler, maxUploadBytes int64) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		header, err := c.FormFile(formFile)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "gpxFile required")
		}
		if !strings.EqualFold(filepath.Ext(header.Filename), ".gpx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .gpx files are accepted")
		}
		if header.Size > maxUploadBytes {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file too large")
		}

		f, err := header.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer f.Close()
		raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if int64(len(raw)) > maxUploadBytes {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file too large")
		}

		w, err := svc.Create(c.Context(), auth.OwnerID(c), c.FormValue(formName), string(raw))
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(w)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		page, err := queryInt(c, "page")
		if err != nil {
			return httpError(err)
		}
		limit, err := queryInt(c, "limit")
		if err != nil {
			return httpError(err)
		}
		filters, err := filter.Parse(c.Query("name"), c.Query("type"), c.Query("dateFrom"), c.Query("dateTo"))
		if err != nil {
			return httpError(err)
		}
		sort, err := ParseSort(c.Query("sortBy"), c.Query("order"))
		if err != nil {
			return httpError(err)
		}

		result, err := svc.List(c.Context(), ListParams{
			OwnerID: auth.OwnerID(c),
			Page:    page,
			Limit:   limit,
			Filters: filters,
			Sort:    sort,
		})
		if err != nil {
			return httpError(err)
		}
		return c.JSON(result)
	})

	// registered before /:id so "all" is never taken for an id
	r.Delete("/all", authMiddleware, func(c *fiber.Ctx) error {
		if _, err := svc.DeleteAll(c.Context(), auth.OwnerID(c)); err != nil {
			return httpError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		id, err := workoutID(c)
		if err != nil {
			return err
		}
		details, err := svc.Get(c.Context(), auth.OwnerID(c), id)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(details)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		id, err := workoutID(c)
		if err != nil {
			return err
		}
		var body struct {
			Name *string `json:"name"`
			Type *string `json:"type"`
			Date *string `json:"date"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		update := Update{Name: body.Name, ActivityType: body.Type}
		if body.Date != nil {
			if update.StartDate, err = filter.ParseTime(*body.Date); err != nil || update.StartDate == nil {
				return fiber.NewError(fiber.StatusBadRequest, filter.ErrInvalidDate.Error())
			}
		}

		w, err := svc.Update(c.Context(), auth.OwnerID(c), id, update)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(w)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		id, err := workoutID(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.Context(), auth.OwnerID(c), id); err != nil {
			return httpError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func workoutID(c *fiber.Ctx) (string, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid workout id")
	}
	return id.String(), nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrInvalidPagination
	}
	return n, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrMissingOwner):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, track.ErrInvalidFormat),
		errors.Is(err, track.ErrNoTracks),
		errors.Is(err, track.ErrNoTrackPoints),
		errors.Is(err, filter.ErrInvalidDate),
		errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrInvalidSort),
		errors.Is(err, ErrInvalidPagination):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPersistence):
		return fiber.NewError(fiber.StatusInternalServerError, ErrPersistence.Error())
	case errors.Is(err, ErrQueryFailed):
		return fiber.NewError(fiber.StatusInternalServerError, ErrQueryFailed.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
