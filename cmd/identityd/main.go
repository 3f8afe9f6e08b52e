package main

import (
	"context"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joeshaw/envdecode"

	identity "github.com/filevault/go-identity"
	"github.com/filevault/go-identity/cache"
	"github.com/filevault/go-identity/queue"
	"github.com/filevault/go-identity/store"
)

// Config holds the service-level settings; store and cache read their own
// sections from the environment.
type Config struct {
	// Port the HTTP API listens on. ENV: PORT
	Port int `env:"PORT,default=5000"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return err
	}

	storeCfg, err := store.ConfigFromEnv()
	if err != nil {
		return err
	}
	db, err := store.Open(storeCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	migrationsFS, err := fs.Sub(identity.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelMigrate()
	if err := store.Migrate(migrateCtx, db.DB(), migrationsFS); err != nil {
		// A database that is down at startup is not fatal; the service
		// runs with health false until the store comes back.
		log.Printf("migrations not applied: %v", err)
	}

	redis, err := cache.NewFromEnv()
	if err != nil {
		return err
	}
	defer redis.Close()

	repo := identity.NewRepositoryManager(db.DB())
	repo.MustValidate()

	hasher := identity.BcryptHasher{}
	verifier := identity.NewCredentialVerifier(repo.Users(), hasher)
	tokens := identity.NewTokenService(redis)
	resolver := identity.NewResolver(verifier, tokens, repo.Users())

	emailQueue := queue.New(redis.Redis(), identity.EmailSendingQueue)
	register := identity.NewRegisterUserHandler(repo, hasher, emailQueue)

	app := fiber.New(fiber.Config{
		AppName:               "identityd",
		DisableStartupMessage: true,
	})

	identity.RegisterRoutes(app, identity.Controllers{
		App:   identity.NewAppController(redis, db, repo.Users(), repo.Files()),
		Auth:  identity.NewAuthController(tokens),
		Users: identity.NewUsersController(register),
	}, resolver)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + strconv.Itoa(cfg.Port))
	}()

	log.Printf("identityd listening at port:%d", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return app.ShutdownWithContext(ctx)
}
