package members

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oggyb/dating-api/internal/app"
	svcErr "github.com/oggyb/dating-api/internal/errors"
	"github.com/oggyb/dating-api/internal/server"
)

// Registrar ties the members endpoints into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the members service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

type handler struct {
	svc *Service
}

// Register attaches listing, profile and like endpoints under /api/users.
func (r *Registrar) Register(routes server.Routes) {
	h := &handler{svc: NewMembersService(r.appCtx)}

	u := routes.Users
	u.Get("/", h.list)
	u.Get("/:id", h.get)
	u.Put("/:id", server.RequireOwner, h.update)
	u.Post("/:id/like/:recipientId", server.RequireOwner, h.like)
	u.Delete("/:id/like/:recipientId", server.RequireOwner, h.unlike)
	u.Get("/:id/likes/count", server.RequireOwner, h.countLikers)
	u.Get("/:id/likes", server.RequireOwner, h.listLikes)
}

func (h *handler) list(c *fiber.Ctx) error {
	p, err := server.PaginationParams(c)
	if err != nil {
		return err
	}
	minAge, err := server.QueryInt(c, "minAge")
	if err != nil {
		return err
	}
	maxAge, err := server.QueryInt(c, "maxAge")
	if err != nil {
		return err
	}

	page, err := h.svc.ListUsers(c.UserContext(), server.CallerID(c), ListUsersRequest{
		Gender:  c.Query("gender"),
		MinAge:  minAge,
		MaxAge:  maxAge,
		OrderBy: c.Query("orderBy"),
		Page:    p,
	})
	if err != nil {
		return err
	}
	return server.WritePage(c, page)
}

func (h *handler) get(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.UserContext(), server.CallerID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *handler) update(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return svcErr.Validation("invalid request body")
	}
	if err := h.svc.UpdateUser(c.UserContext(), server.CallerID(c), id, req); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) like(c *fiber.Ctx) error {
	target, err := server.ParamID(c, "recipientId")
	if err != nil {
		return err
	}
	if err := h.svc.Like(c.UserContext(), server.CallerID(c), target); err != nil {
		return err
	}
	return c.JSON(fiber.Map{})
}

func (h *handler) unlike(c *fiber.Ctx) error {
	target, err := server.ParamID(c, "recipientId")
	if err != nil {
		return err
	}
	if err := h.svc.Unlike(c.UserContext(), server.CallerID(c), target); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) listLikes(c *fiber.Ctx) error {
	p, err := server.PaginationParams(c)
	if err != nil {
		return err
	}
	page, err := h.svc.ListLikes(c.UserContext(), server.CallerID(c), c.Query("predicate"), p)
	if err != nil {
		return err
	}
	return server.WritePage(c, page)
}

func (h *handler) countLikers(c *fiber.Ctx) error {
	n, err := h.svc.CountLikers(c.UserContext(), server.CallerID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"count": n})
}
