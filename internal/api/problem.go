package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/fluxdock/internal/errors"
)

// ProblemDetail follows RFC 7807 for error responses.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}

func badRequest(c *fiber.Ctx, errType, detail string) error {
	return problemResponse(c, fiber.StatusBadRequest, errType, "Bad Request", detail)
}

func notFound(c *fiber.Ctx, what string) error {
	return problemResponse(c, fiber.StatusNotFound, what+"_not_found", "Not Found", what+" not found")
}

// errorResponse maps domain errors onto problem responses.
func errorResponse(c *fiber.Ctx, err error) error {
	var genErr *perrors.GenerationError
	switch {
	case errors.As(err, &genErr):
		return problemResponse(c, fiber.StatusBadGateway, "generation_failed", "Generation Failed", perrors.UserMessage(err))
	case errors.Is(err, perrors.ErrInvalidInput):
		return badRequest(c, "invalid_input", err.Error())
	case errors.Is(err, perrors.ErrNotFound):
		return problemResponse(c, fiber.StatusNotFound, "not_found", "Not Found", err.Error())
	case errors.Is(err, perrors.ErrExpired):
		return problemResponse(c, fiber.StatusGone, "expired", "Gone", err.Error())
	case errors.Is(err, perrors.ErrUnavailable):
		return problemResponse(c, fiber.StatusServiceUnavailable, "storage_unavailable", "Service Unavailable", err.Error())
	}
	return err
}

func customErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		detail := err.Error()
		if code == fiber.StatusInternalServerError {
			detail = "An internal error occurred"
		}
		return problemResponse(c, code, "internal_error", utils.StatusMessage(code), detail)
	}
}
