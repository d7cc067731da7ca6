package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	bakery "github.com/seun-beta/bakery-api"
	"github.com/seun-beta/bakery-api/inventory"
)

func main() {
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := bakery.LoadConfig()
	if err != nil {
		zl.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.Debug {
		zl = zl.Level(zerolog.DebugLevel)
	} else {
		zl = zl.Level(zerolog.InfoLevel)
	}

	logger := bakery.NewZerologAdapter(zl)

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		zl.Fatal().Err(err).Msg("failed to open database")
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bakery.CreateSchema(ctx, db); err != nil {
		zl.Fatal().Err(err).Msg("failed to create schema")
	}

	repo := bakery.NewRepositoryManager(db)
	repo.MustValidate()

	codec := bakery.NewTokenCodec(
		[]byte(cfg.SigningSecret),
		cfg.ActivationLinkTTL,
		cfg.PasswordResetTimeout,
		logger,
	)

	issuer := bakery.NewCredentialIssuer(repo, cfg.SessionTTL, logger)

	mailer := bakery.NewMailgunClient(cfg.MailgunBaseURL, cfg.MailgunAPIKey, logger)

	dispatcher := bakery.NewDispatcher(mailer, cfg.MailSender, cfg.DispatcherOptions(), logger)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	auther := bakery.NewAuthenticator(repo.Users(), issuer).WithLogger(logger)

	ctrl := &bakery.Controller{
		Debug:      cfg.Debug,
		Logger:     logger,
		Repo:       repo,
		Codec:      codec,
		Issuer:     issuer,
		Dispatcher: dispatcher,
		Links:      cfg.Links(),
		Auther:     auther,
	}

	app := bakery.NewApp(ctrl)

	invCtrl := &inventory.Controller{
		Debug:  cfg.Debug,
		Logger: logger,
		Repo:   inventory.NewManager(db),
	}
	inventory.RegisterRoutes(app.Group("/api/v1"), invCtrl, bakery.RequireAuth(issuer, logger))

	go func() {
		<-ctx.Done()
		zl.Info().Msg("shutting down")
		if err := app.Shutdown(); err != nil {
			zl.Error().Err(err).Msg("server shutdown error")
		}
	}()

	zl.Info().Str("addr", cfg.ListenAddr).Msg("starting server")
	if err := app.Listen(cfg.ListenAddr); err != nil {
		zl.Fatal().Err(err).Msg("server error")
	}
}
