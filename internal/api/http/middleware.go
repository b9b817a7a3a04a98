package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/techsupport-manager/internal/observability"
	"github.com/spec-kit/techsupport-manager/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = util.NewInternalError(nil)
			}
			if err != nil {
				httpErr := util.ToHTTPError(err)
				metrics.RecordError(c.Path(), c.Method(), httpErr.Code)
				response := fiber.Map{
					"code":    httpErr.Code,
					"message": httpErr.Message,
				}
				if len(httpErr.Details) > 0 {
					response["details"] = httpErr.Details
				}
				if httpErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(httpErr))
				}
				c.Status(httpErr.HTTPStatus)
				_ = c.JSON(fiber.Map{"error": response})
				err = nil
			}
		}()
		return c.Next()
	}
}
