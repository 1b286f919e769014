package serverutils

import (
	"errors"

	"ai-research-be/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain errors to HTTP statuses so controllers
// can simply return errors from the service layer.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
		}

		status := fiber.StatusInternalServerError
		var ae *apperr.Error
		if errors.As(err, &ae) {
			switch ae.Kind {
			case apperr.KindValidation:
				status = fiber.StatusBadRequest
			case apperr.KindNotFound:
				status = fiber.StatusNotFound
			case apperr.KindQuota:
				status = fiber.StatusTooManyRequests
			case apperr.KindProvider, apperr.KindUpstream:
				status = fiber.StatusBadGateway
			}
		}

		return ctx.Status(status).JSON(ErrorResponse(status, err.Error()))
	}
}
