package server

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/oggyb/dating-api/internal/app"
	"github.com/oggyb/dating-api/internal/auth"
	svcErr "github.com/oggyb/dating-api/internal/errors"
	"github.com/oggyb/dating-api/internal/repository"
)

const callerKey = "caller_id"

// AccessLog writes one line per request after the handler chain ran.
func AccessLog(log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = svcErr.HTTPStatus(err)
		}
		log.Info("http request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		)
		return err
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the caller id.
func RequireAuth(tokens *auth.Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return svcErr.Unauthorized("missing bearer token")
		}
		id, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			return svcErr.Unauthorized("invalid or expired token")
		}
		c.Locals(callerKey, id)
		return c.Next()
	}
}

// TrackActivity bumps the caller's last-active time once the handler finished.
// Failures are logged, never returned.
func TrackActivity(appCtx *app.AppContext) fiber.Handler {
	users := repository.NewUserRepository(appCtx.DB)
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if id := CallerID(c); id != 0 {
			if terr := users.TouchLastActive(c.UserContext(), id, appCtx.Now()); terr != nil {
				appCtx.Logger.Warn("last active update failed", "user_id", id, "err", terr)
			}
		}
		return err
	}
}

// RequireOwner rejects the request unless the :id route param is the caller.
// It runs before any storage access.
func RequireOwner(c *fiber.Ctx) error {
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}
	if id != CallerID(c) {
		return svcErr.Unauthorized("you can only act as yourself")
	}
	return c.Next()
}

// CallerID returns the authenticated user id, 0 outside RequireAuth.
func CallerID(c *fiber.Ctx) uint64 {
	id, _ := c.Locals(callerKey).(uint64)
	return id
}

// ParamID parses a positive integer route param.
func ParamID(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, svcErr.Validation(name + " must be a positive integer")
	}
	return id, nil
}

// QueryInt parses an optional integer query param. Absent yields nil.
func QueryInt(c *fiber.Ctx, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, svcErr.Validation(name + " must be an integer")
	}
	return &n, nil
}
