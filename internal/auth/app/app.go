package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/lecternhq/lectern/internal/auth/http"
	"github.com/lecternhq/lectern/internal/auth/mail"
	"github.com/lecternhq/lectern/internal/auth/service"
	"github.com/lecternhq/lectern/internal/auth/store"
	"github.com/lecternhq/lectern/internal/auth/store/drivers/redis"
	"github.com/lecternhq/lectern/internal/auth/store/drivers/sqlite"
	"github.com/lecternhq/lectern/pkg/cryptox"
	"github.com/lecternhq/lectern/pkg/jwtx"
	"github.com/lecternhq/lectern/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application owns every long lived dependency of the auth service.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	cache *redis.RevocationCache // nil without AUTH_REDIS_URL
	keys  *jwtx.SecretSet

	mailer              mail.Mailer
	auditor             *service.Auditor
	tokenService        *service.TokenService
	otpService          *service.OTPService
	mfaService          *service.MFAService
	authService         *service.AuthService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with every dependency initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "lectern-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	keys, err := InitSecrets(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.keys = keys

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initCache(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initMailer(); err != nil {
		_ = app.closeStores()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.closeStores()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the configured router, mostly for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion, "env", app.cfg.Env)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		_ = app.closeStores()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops housekeeping and closes the
// stores.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeStores() error {
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("error closing revocation cache", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

func (app *Application) initCache() error {
	if app.cfg.RedisURL == "" {
		app.logger.Info("revocation cache disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cache, err := redis.New(ctx, app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect revocation cache: %w", err)
	}
	app.cache = cache
	app.logger.Info("revocation cache enabled", "negative_ttl", app.cfg.NegativeCacheTTL)
	return nil
}

func (app *Application) initMailer() error {
	switch app.cfg.Mail.Driver {
	case "smtp":
		m, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     app.cfg.Mail.Host,
			Port:     app.cfg.Mail.Port,
			Username: app.cfg.Mail.Username,
			Password: app.cfg.Mail.Password,
			From:     app.cfg.Mail.From,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize smtp mailer: %w", err)
		}
		app.mailer = m
	default:
		if app.cfg.Env == EnvProduction {
			app.logger.Warn("MAIL_DRIVER=log in production; codes are written to the log, not delivered")
		}
		app.mailer = mail.LogMailer{}
	}

	app.logger.Info("mailer configured", "driver", app.cfg.Mail.Driver)
	return nil
}

func (app *Application) initServices() error {
	signer, err := jwtx.NewSignerHS256(app.keys)
	if err != nil {
		return fmt.Errorf("failed to initialize signer: %w", err)
	}

	app.auditor = &service.Auditor{Store: app.db}

	app.tokenService = &service.TokenService{
		Signer:           signer,
		Verifier:         jwtx.NewVerifierHS256(app.keys, app.cfg.Issuer),
		Store:            app.db,
		Issuer:           app.cfg.Issuer,
		AccessTTL:        app.cfg.AccessTTL,
		RefreshTTL:       app.cfg.RefreshTTL,
		PendingMFATTL:    app.cfg.PendingMFATTL,
		NegativeCacheTTL: app.cfg.NegativeCacheTTL,
	}
	if app.cache != nil {
		app.tokenService.Cache = app.cache
	}

	app.otpService = &service.OTPService{
		Store:          app.db,
		Mailer:         app.mailer,
		Audit:          app.auditor,
		TTL:            app.cfg.OTPTTL,
		ResendInterval: app.cfg.OTPResendInterval,
	}

	app.mfaService = &service.MFAService{
		Store:  app.db,
		Issuer: app.cfg.Issuer,
		Audit:  app.auditor,
	}

	app.authService = &service.AuthService{
		Store:  app.db,
		Tokens: app.tokenService,
		OTP:    app.otpService,
		MFA:    app.mfaService,
		Mailer: app.mailer,
		Audit:  app.auditor,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.TokenService = app.tokenService
	router.MFAService = app.mfaService
	router.AuthService = app.authService
	router.Auditor = app.auditor
	if app.cache != nil {
		router.Cache = app.cache
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
