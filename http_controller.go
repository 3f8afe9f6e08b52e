package identity

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// Counter reports a table size for the statistics surface.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// AppController serves the status and statistics endpoints.
type AppController struct {
	Logger Logger
	Redis  HealthReporter
	DB     HealthReporter
	Users  Counter
	Files  Counter
}

func NewAppController(redis, db HealthReporter, users, files Counter) *AppController {
	return &AppController{
		Logger: defLogger{},
		Redis:  redis,
		DB:     db,
		Users:  users,
		Files:  files,
	}
}

// GetStatus reports the last observed connection state of each backing
// store. Event-driven, not a live probe.
func (a *AppController) GetStatus(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"redis": a.Redis.IsHealthy(),
		"db":    a.DB.IsHealthy(),
	})
}

// GetStats returns user and file counts, fetched concurrently.
func (a *AppController) GetStats(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	type result struct {
		n   int
		err error
	}

	usersCh := make(chan result, 1)
	filesCh := make(chan result, 1)

	go func() {
		n, err := a.Users.Count(ctx)
		usersCh <- result{n, err}
	}()
	go func() {
		n, err := a.Files.Count(ctx)
		filesCh <- result{n, err}
	}()

	users, files := <-usersCh, <-filesCh
	if users.err != nil || files.err != nil {
		a.Logger.Error("stats query failed: users=%v files=%v", users.err, files.err)
		return InternalError(c)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"users": users.n,
		"files": files.n,
	})
}

// AuthController serves token issuance and revocation.
type AuthController struct {
	Logger Logger
	Tokens *TokenService
}

func NewAuthController(tokens *TokenService) *AuthController {
	return &AuthController{
		Logger: defLogger{},
		Tokens: tokens,
	}
}

// GetConnect issues a fresh token for the Basic-authenticated user. Each
// connect mints one token; earlier tokens for the same user stay live.
func (a *AuthController) GetConnect(c *fiber.Ctx) error {
	user, ok := UserFromCtx(c)
	if !ok {
		return Unauthorized(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	token, err := a.Tokens.Issue(ctx, user.ID)
	if err != nil {
		a.Logger.Error("token issue failed for user %s: %v", user.ID, err)
		return InternalError(c)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"token": token,
	})
}

// GetDisconnect revokes the presented token. The middleware already proved
// the token resolves, so an unknown token never reaches this handler; the
// revoke itself stays idempotent regardless.
func (a *AuthController) GetDisconnect(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := a.Tokens.Revoke(ctx, c.Get(HeaderXToken)); err != nil {
		a.Logger.Error("token revoke failed: %v", err)
		return InternalError(c)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// UsersController serves registration and the who-am-I endpoint.
type UsersController struct {
	Debug    bool
	Logger   Logger
	Register *RegisterUserHandler
}

func NewUsersController(register *RegisterUserHandler) *UsersController {
	return &UsersController{
		Logger:   defLogger{},
		Register: register,
	}
}

// NewUserRequest payload
type NewUserRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// PostNew creates a user. The error the caller observes follows the
// validation order: missing email, missing password, then duplicate email.
func (u *UsersController) PostNew(c *fiber.Ctx) error {
	payload := new(NewUserRequest)

	// An unparsable or empty body falls through to validation, which
	// reports the missing field the caller would expect.
	if err := c.BodyParser(payload); err != nil {
		u.Logger.Debug("registration body parse failed: %v", err)
	}

	if u.Debug {
		fmt.Println("======= USER REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := u.Register.Execute(ctx, RegisterUserMessage{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingEmail):
			return badRequest(c, "Missing email")
		case errors.Is(err, ErrMissingPassword):
			return badRequest(c, "Missing password")
		case errors.Is(err, ErrEmailAlreadyExists):
			return badRequest(c, "Already exists")
		}
		u.Logger.Error("registration failed: %v", err)
		return InternalError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID.String(),
		"email": user.Email,
	})
}

// GetMe returns the authenticated user's public attributes.
func (u *UsersController) GetMe(c *fiber.Ctx) error {
	user, ok := UserFromCtx(c)
	if !ok {
		return Unauthorized(c)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":    user.ID.String(),
		"email": user.Email,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}
