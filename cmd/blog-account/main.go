package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	account "github.com/goliatone/go-blog-account"
	"github.com/goliatone/go-blog-account/config"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

type App struct {
	config   config.AppConfig
	logger   *slog.Logger
	db       *bun.DB
	repo     account.RepositoryManager
	sessions *account.CookieSessions
	redis    redis.UniversalClient
	srv      router.Server[*fiber.App]
}

func (a *App) GetLogger(name string) account.Logger {
	return account.Named(a.logger, name)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	app := &App{
		config: cfg,
		logger: initLogger(cfg.IsDev),
	}

	if cfg.IsDev {
		redacted := cfg
		redacted.Auth.SigningKey = "[redacted]"
		redacted.Redis.Password = "[redacted]"
		app.logger.Debug("configuration loaded", "config", print.MaybePrettyJSON(redacted))
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		app.logger.Error("persistence setup failed", "error", err)
		os.Exit(1)
	}
	defer app.db.Close()

	if err := WithSessions(ctx, app); err != nil {
		app.logger.Error("session setup failed", "error", err)
		os.Exit(1)
	}

	if app.redis != nil {
		defer app.redis.Close()
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		app.logger.Error("http setup failed", "error", err)
		os.Exit(1)
	}

	if err := WithAccountRoutes(ctx, app); err != nil {
		app.logger.Error("account routes setup failed", "error", err)
		os.Exit(1)
	}

	go func() {
		app.logger.Info("listening", "addr", cfg.HTTP.Addr)
		if err := app.srv.Serve(cfg.HTTP.Addr); err != nil {
			app.logger.Error("server stopped", "error", err)
		}
	}()

	sig := WaitExitSignal()
	app.logger.Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("shutdown failed", "error", err)
	}
}

func initLogger(dev bool) *slog.Logger {
	var handler slog.Handler
	if dev {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
