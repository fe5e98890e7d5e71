package messages

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oggyb/dating-api/internal/app"
	svcErr "github.com/oggyb/dating-api/internal/errors"
	"github.com/oggyb/dating-api/internal/server"
)

// Registrar ties the messaging endpoints into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the messages service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

type handler struct {
	svc *Service
}

// Register attaches /api/users/:id/messages endpoints. All of them act as
// the :id user, so every route requires :id to be the caller.
func (r *Registrar) Register(routes server.Routes) {
	h := &handler{svc: NewMessagesService(r.appCtx)}

	m := routes.Users.Group("/:id/messages", server.RequireOwner)
	m.Get("/", h.list)
	m.Post("/", h.send)
	m.Get("/unread/count", h.countUnread)
	m.Get("/thread/:otherId", h.thread)
	m.Get("/:msgId", h.get)
	m.Post("/:msgId/read", h.markRead)
	m.Post("/:msgId", h.delete)
	m.Delete("/:msgId", h.delete)
}

func (h *handler) list(c *fiber.Ctx) error {
	p, err := server.PaginationParams(c)
	if err != nil {
		return err
	}
	page, err := h.svc.List(c.UserContext(), server.CallerID(c), c.Query("container"), p)
	if err != nil {
		return err
	}
	return server.WritePage(c, page)
}

func (h *handler) send(c *fiber.Ctx) error {
	var req SendRequest
	if err := c.BodyParser(&req); err != nil {
		return svcErr.Validation("invalid request body")
	}
	msg, err := h.svc.Send(c.UserContext(), server.CallerID(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *handler) countUnread(c *fiber.Ctx) error {
	n, err := h.svc.CountUnread(c.UserContext(), server.CallerID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"count": n})
}

func (h *handler) thread(c *fiber.Ctx) error {
	other, err := server.ParamID(c, "otherId")
	if err != nil {
		return err
	}
	msgs, err := h.svc.Thread(c.UserContext(), server.CallerID(c), other)
	if err != nil {
		return err
	}
	return c.JSON(msgs)
}

func (h *handler) get(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "msgId")
	if err != nil {
		return err
	}
	msg, err := h.svc.Get(c.UserContext(), server.CallerID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(msg)
}

func (h *handler) markRead(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "msgId")
	if err != nil {
		return err
	}
	if err := h.svc.MarkRead(c.UserContext(), server.CallerID(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handler) delete(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "msgId")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.UserContext(), server.CallerID(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
