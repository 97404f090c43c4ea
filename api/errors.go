package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Skryldev/jobboard/apperr"
)

// ErrorHandler renders every error as
//
//	{"error": {"message": "...", "status": 404}}
//
// Internal failures are logged and reported without their cause.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := apperr.Status(err)
		message := err.Error()
		var details []string

		var fe *fiber.Error
		var ae *apperr.Error
		switch {
		case errors.As(err, &fe):
			status, message = fe.Code, fe.Message
		case errors.As(err, &ae):
			if ae.Message != "" {
				message = ae.Message
			}
			details = ae.Details
		}

		if status >= fiber.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "request failed",
				slog.String("path", c.Path()),
				slog.String("request_id", GetRequestID(c)),
				slog.Any("error", err),
			)
			message = http.StatusText(status)
		}

		body := fiber.Map{"message": message, "status": status}
		if len(details) > 0 {
			body["details"] = details
		}
		return c.Status(status).JSON(fiber.Map{"error": body})
	}
}
