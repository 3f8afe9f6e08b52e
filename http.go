package identity

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// storeCallTimeout bounds every backing-store call made on behalf of one
// request so a dropped connection cannot suspend the handler indefinitely.
const storeCallTimeout = 5 * time.Second

const localUserKey = "identity_user"

// UserFromCtx returns the user a Require* middleware resolved for this
// request.
func UserFromCtx(c *fiber.Ctx) (*User, bool) {
	user, ok := c.Locals(localUserKey).(*User)
	return user, ok
}

// Controllers groups the HTTP surface for route registration.
type Controllers struct {
	App   *AppController
	Auth  *AuthController
	Users *UsersController
}

// RegisterRoutes mounts the identity API. Route policy lives here: connect
// requires Basic credentials, every other authenticated endpoint requires
// the x-token header.
func RegisterRoutes(app *fiber.App, c Controllers, resolver *Resolver) {
	app.Get("/status", c.App.GetStatus)
	app.Get("/stats", c.App.GetStats)

	app.Post("/users", c.Users.PostNew)

	app.Get("/connect", RequireBasic(resolver), c.Auth.GetConnect)
	app.Get("/disconnect", RequireToken(resolver), c.Auth.GetDisconnect)
	app.Get("/users/me", RequireToken(resolver), c.Users.GetMe)
}

// RequireBasic resolves the Authorization header or rejects the request.
func RequireBasic(resolver *Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := resolver.UserFromAuthorization(ctx, c.Get(fiber.HeaderAuthorization))
		return guard(c, user, err, resolver)
	}
}

// RequireToken resolves the x-token header or rejects the request.
func RequireToken(resolver *Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := resolver.UserFromToken(ctx, c.Get(HeaderXToken))
		return guard(c, user, err, resolver)
	}
}

func guard(c *fiber.Ctx, user *User, err error, resolver *Resolver) error {
	if err != nil {
		if IsUnauthenticated(err) {
			return Unauthorized(c)
		}
		resolver.logger.Error("auth resolution failed: %v", err)
		return InternalError(c)
	}

	c.Locals(localUserKey, user)
	return c.Next()
}

func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), storeCallTimeout)
}

// Unauthorized writes the collapsed 401 response. One body for every
// no-valid-identity case.
func Unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized",
	})
}

// InternalError writes the 500 response for failed store operations.
func InternalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal Server Error",
	})
}
