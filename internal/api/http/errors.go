package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/flood-risk/internal/geocode"
	"github.com/i474232898/flood-risk/internal/risk"
	"github.com/i474232898/flood-risk/internal/store"
	"github.com/i474232898/flood-risk/internal/weather"
)

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// toHTTPError maps domain errors onto user-facing statuses and messages.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, geocode.ErrLocationUnresolved):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Unknown location. Please try again.")
	case errors.Is(err, geocode.ErrGeocoderUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, "Failed to resolve location. Please try again.")
	case errors.Is(err, weather.ErrWeatherFetch), errors.Is(err, risk.ErrEmptySnapshot):
		return fiber.NewError(fiber.StatusBadGateway, "Failed to fetch weather data. Please try again.")
	case errors.Is(err, store.ErrSuperseded):
		return fiber.NewError(fiber.StatusConflict, "request superseded by a newer one")
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to assess flood risk")
	}
}
