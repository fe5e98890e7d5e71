package photos

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oggyb/dating-api/internal/app"
	svcErr "github.com/oggyb/dating-api/internal/errors"
	"github.com/oggyb/dating-api/internal/server"
)

// Registrar ties the photo endpoints into the HTTP server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the photos service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches /api/users/:id/photos endpoints.
func (r *Registrar) Register(routes server.Routes) {
	svc := NewPhotosService(r.appCtx)

	u := routes.Users
	u.Post("/:id/photos", server.RequireOwner, func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return svcErr.Validation("multipart field \"file\" is required")
		}
		f, err := fh.Open()
		if err != nil {
			return svcErr.Validation("cannot read uploaded file")
		}
		defer f.Close()

		photo, err := svc.Upload(c.UserContext(), server.CallerID(c), UploadRequest{
			Filename:    fh.Filename,
			Description: c.FormValue("description"),
			Body:        f,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(photo)
	})

	u.Get("/:id/photos", func(c *fiber.Ctx) error {
		userID, err := server.ParamID(c, "id")
		if err != nil {
			return err
		}
		list, err := svc.List(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	u.Get("/:id/photos/:photoId", func(c *fiber.Ctx) error {
		userID, err := server.ParamID(c, "id")
		if err != nil {
			return err
		}
		photoID, err := server.ParamID(c, "photoId")
		if err != nil {
			return err
		}
		photo, err := svc.Get(c.UserContext(), userID, photoID)
		if err != nil {
			return err
		}
		return c.JSON(photo)
	})

	u.Post("/:id/photos/:photoId/setMain", server.RequireOwner, func(c *fiber.Ctx) error {
		photoID, err := server.ParamID(c, "photoId")
		if err != nil {
			return err
		}
		if err := svc.SetMain(c.UserContext(), server.CallerID(c), photoID); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	u.Delete("/:id/photos/:photoId", server.RequireOwner, func(c *fiber.Ctx) error {
		photoID, err := server.ParamID(c, "photoId")
		if err != nil {
			return err
		}
		result, err := svc.Delete(c.UserContext(), server.CallerID(c), photoID)
		if err != nil {
			return err
		}
		return c.JSON(result)
	})
}
