package handler

import (
	"errors"
	"strconv"
	"time"

	"supermarket-pos/internal/repository"
	"supermarket-pos/pkg/apperror"
	"supermarket-pos/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const queryDateLayout = "2006-01-02"

// ErrorHandler renders every error returned by a handler as the JSON envelope.
// Internal details are only exposed in development.
func ErrorHandler(development bool, log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			if appErr.Kind == apperror.KindInternal {
				log.Error().Err(appErr.Err).Str("path", c.Path()).Msg("internal error")
				message := appErr.Message
				if development && appErr.Err != nil {
					message = appErr.Err.Error()
				}
				return response.Fail(c, fiber.StatusInternalServerError, message, nil)
			}
			return response.Fail(c, appErr.Kind.StatusCode(), appErr.Message, appErr.Fields)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return response.Fail(c, fiberErr.Code, fiberErr.Message, nil)
		}

		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		message := "Internal server error"
		if development {
			message = err.Error()
		}
		return response.Fail(c, fiber.StatusInternalServerError, message, nil)
	}
}

// NotFound answers unknown routes
func NotFound(c *fiber.Ctx) error {
	return response.Fail(c, fiber.StatusNotFound, "Route not found", nil)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("Invalid " + name)
	}
	return uint(id), nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Validation("Invalid JSON")
	}
	return nil
}

func pageRequest(c *fiber.Ctx) repository.PageRequest {
	return repository.PageRequest{
		Page:  c.QueryInt("page", repository.DefaultPage),
		Limit: c.QueryInt("limit", repository.DefaultLimit),
	}.Normalize()
}

// queryTime accepts YYYY-MM-DD or RFC3339. A bare end date covers the whole day.
func queryTime(c *fiber.Ctx, key string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(queryDateLayout, raw, loc)
	if err != nil {
		return nil, apperror.Validation("Validation failed", apperror.FieldError{
			Field:   key,
			Message: key + " must be YYYY-MM-DD or RFC3339",
		})
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}
