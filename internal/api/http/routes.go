package httpapi

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/meteo-forecast-service/internal/weather"
)

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	app.Get("/", func(c *fiber.Ctx) error {
		records, err := service.GetAll(c.Context())
		if err != nil {
			return mapServiceError(err)
		}
		return renderHome(c, records)
	})

	app.Get("/weather", func(c *fiber.Ctx) error {
		records, err := service.GetAll(c.Context())
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(records)
	})

	// Registered before the :loc wildcard so "top" is never treated as a
	// location name.
	app.Get("/weather/top/:metric/:n", func(c *fiber.Ctx) error {
		n, err := strconv.Atoi(c.Params("n"))
		if err != nil || n < 0 {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("n must be a non-negative integer, got %q", c.Params("n")))
		}

		records, err := service.GetTop(c.Context(), c.Params("metric"), n)
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(records)
	})

	app.Get("/weather/:loc", func(c *fiber.Ctx) error {
		records, err := service.GetByLocation(c.Context(), c.Params("loc"))
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(records)
	})

	app.Get("/weather/:loc/:day", func(c *fiber.Ctx) error {
		records, err := service.GetByLocationAndDay(c.Context(), c.Params("loc"), c.Params("day"))
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(records)
	})

	app.Get("/weather/:loc/:day/average", func(c *fiber.Ctx) error {
		avg, err := service.GetLocationDayAverage(c.Context(), c.Params("loc"), c.Params("day"))
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(avg)
	})
}

// mapServiceError translates service-level errors into HTTP status codes.
// Anything unrecognized becomes a generic 500 so internals never leak.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, weather.ErrInvalidArgument):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to query weather data")
}
