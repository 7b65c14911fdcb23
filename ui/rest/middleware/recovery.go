package middleware

import (
	"fmt"

	pkgError "github.com/AzielCF/az-pricing/pkg/error"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Recovery turns a panic in a handler into a JSON error response.
// Panics carrying a GenericError keep their status and code.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			status := fiber.StatusInternalServerError
			code := pkgError.CodeInternal
			message := fmt.Sprintf("%v", r)

			if gErr, ok := r.(pkgError.GenericError); ok {
				status = gErr.StatusCode()
				code = gErr.ErrCode()
				message = gErr.Error()
			}

			logrus.WithField("path", ctx.Path()).Errorf("[REST] Panic recovered in middleware: %v", r)

			err = ctx.Status(status).JSON(fiber.Map{
				"code":  code,
				"error": message,
			})
		}()

		return ctx.Next()
	}
}
