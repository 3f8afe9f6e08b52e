package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// EmailSendingQueue is the named external queue that receives one job per
// registered user. This subsystem only emits; a worker elsewhere consumes.
const EmailSendingQueue = "email sending"

// EmailJob is the payload handed to the email sending queue.
type EmailJob struct {
	UserID string `json:"userId"`
}

type RegisterUserMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// UseHashid derives the user id deterministically from the email
	// instead of generating a random one.
	UseHashid bool `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate runs the registration checks in the order callers observe them:
// missing email first, then missing password. Duplicate detection happens
// against the store during Execute.
func (e RegisterUserMessage) Validate() error {
	if e.Email == "" {
		return ErrMissingEmail
	}
	if e.Password == "" {
		return ErrMissingPassword
	}
	return nil
}

type RegisterUserHandler struct {
	repo   RepositoryManager
	hasher PasswordHasher
	queue  JobEmitter
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager, hasher PasswordHasher, queue JobEmitter) *RegisterUserHandler {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &RegisterUserHandler{
		repo:   repo,
		hasher: hasher,
		queue:  queue,
		logger: defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(l Logger) *RegisterUserHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Users().FindByEmailTx(ctx, tx, event.Email); err == nil {
			return ErrEmailAlreadyExists
		} else if !repository.IsRecordNotFound(err) {
			return WrapConnectivity(err, "db")
		}

		hash, err := h.hasher.Hash(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Email = event.Email
		user.PasswordHash = hash
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	h.notify(ctx, user)

	return user, nil
}

// notify emits the welcome-email job. Fire and forget: a queue failure never
// rolls back or fails a registration that already committed.
func (h *RegisterUserHandler) notify(ctx context.Context, user *User) {
	if h.queue == nil {
		return
	}

	if err := h.queue.Enqueue(ctx, EmailJob{UserID: user.ID.String()}); err != nil {
		h.logger.Error("failed to enqueue email job for user %s: %v", user.ID, err)
	}
}
