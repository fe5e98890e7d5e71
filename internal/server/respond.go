package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	svcErr "github.com/oggyb/dating-api/internal/errors"
	"github.com/oggyb/dating-api/internal/utils/pagination"
)

// ErrorHandler writes every handler error as {"code","status","message"}.
// Causes of internal errors are logged and never sent to the client.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := svcErr.HTTPStatus(err)
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
				"err", err,
			)
		}
		return c.Status(status).JSON(fiber.Map{
			"code":    status,
			"status":  "error",
			"message": svcErr.PublicMessage(err),
		})
	}
}

// PaginationParams reads page and pageSize from the query string.
func PaginationParams(c *fiber.Ctx) (pagination.Params, error) {
	p, err := pagination.Parse(c.Query("page"), c.Query("pageSize"))
	if err != nil {
		return pagination.Params{}, svcErr.Validation(err.Error())
	}
	return p, nil
}

// WritePage sends the items as the body and the window in the Pagination header.
func WritePage[T any](c *fiber.Ctx, page pagination.Page[T]) error {
	c.Set(pagination.HeaderName, page.Window.Header())
	c.Set(fiber.HeaderAccessControlExposeHeaders, pagination.HeaderName)
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return c.JSON(items)
}
