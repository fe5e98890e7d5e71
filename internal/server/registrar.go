package server

import "github.com/gofiber/fiber/v2"

// Routes are the groups a service attaches its endpoints to.
type Routes struct {
	// Public is /api with no authentication.
	Public fiber.Router
	// Users is /api/users, behind the bearer token check and activity tracking.
	Users fiber.Router
}

// Registrar is a common interface for all HTTP service registrars
type Registrar interface {
	Register(r Routes)
}
