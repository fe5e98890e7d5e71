package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oggyb/dating-api/internal/app"
	svcErr "github.com/oggyb/dating-api/internal/errors"
	"github.com/oggyb/dating-api/internal/server"
)

// Registrar ties the auth endpoints into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the auth service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches /auth/register and /auth/login. Both are public.
func (r *Registrar) Register(routes server.Routes) {
	svc := NewAuthService(r.appCtx)

	g := routes.Public.Group("/auth")
	g.Post("/register", func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return svcErr.Validation("invalid request body")
		}
		user, err := svc.Register(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	})
	g.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return svcErr.Validation("invalid request body")
		}
		resp, err := svc.Login(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.JSON(resp)
	})
}
