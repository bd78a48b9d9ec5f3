package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/golang-jwt/jwt/v5"
	account "github.com/goliatone/go-blog-account"
	"github.com/goliatone/go-blog-account/activitymap"
	"github.com/goliatone/go-blog-account/sessionstore"
	"github.com/goliatone/go-blog-account/views"
	"github.com/goliatone/go-router"
	"github.com/redis/go-redis/v9"
)

func WithPersistence(ctx context.Context, app *App) error {
	cfg := app.config.Database

	db, err := account.OpenDatabase(cfg.Driver, cfg.DSN)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	if cfg.RunMigrationsOnStart {
		if err := account.Migrate(ctx, db); err != nil {
			db.Close()
			return err
		}
	}

	repo := account.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		db.Close()
		return err
	}

	app.db = db
	app.repo = repo
	return nil
}

func WithSessions(ctx context.Context, app *App) error {
	cfg := app.config.Auth

	tokens := account.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetIssuer(),
		jwt.ClaimStrings(cfg.GetAudience()),
		app.GetLogger("account:tokens"),
	)

	sessions := account.NewCookieSessions(cfg, tokens).
		WithLogger(app.GetLogger("account:sessions"))

	if rcfg := app.config.Redis; rcfg.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     rcfg.Addr,
			Password: rcfg.Password,
			DB:       rcfg.DB,
		})

		revocations := sessionstore.NewRedisRevocations(client, rcfg.Prefix)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := revocations.Ping(pingCtx); err != nil {
			client.Close()
			return err
		}

		sessions.WithRevoker(revocations)
		app.redis = client
	}

	app.sessions = sessions
	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	cfg := app.config.HTTP

	engine := views.New(views.Options{
		Dir:       cfg.ViewsDir,
		Reload:    app.config.IsDev,
		Debug:     app.config.IsDev,
		Functions: account.TemplateHelpers(),
	})

	app.srv = router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		srv := fiber.New(fiber.Config{
			AppName:      "blog-account",
			Views:        engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})

		srv.Use(recover.New())
		srv.Use(requestid.New())

		if cfg.CSRF {
			srv.Use(csrf.New(csrf.Config{
				KeyLookup:      "form:" + account.CSRFFormField,
				CookieName:     "blog_csrf",
				CookieSameSite: "Lax",
				CookieSecure:   app.config.Auth.GetCookieSecure(),
				CookieHTTPOnly: true,
				Expiration:     time.Hour,
				ContextKey:     account.CSRFContextKey,
				KeyGenerator:   utils.UUIDv4,
			}))
		}

		// fiber runs app level middleware ahead of the routes mounted later
		if cfg.LoginRateLimit > 0 {
			srv.Use(account.LoginPath, limiter.New(limiter.Config{
				Max:        cfg.LoginRateLimit,
				Expiration: cfg.LoginRateWindow,
				Next: func(c *fiber.Ctx) bool {
					return c.Method() != fiber.MethodPost
				},
				KeyGenerator: func(c *fiber.Ctx) string {
					return "login:" + c.IP()
				},
				LimitReached: func(c *fiber.Ctx) error {
					return c.Status(fiber.StatusTooManyRequests).SendString("too many login attempts, try again later")
				},
			}))
		}

		return srv
	})

	app.srv.Router().WithLogger(app.GetLogger("http:router"))

	return nil
}

func WithAccountRoutes(ctx context.Context, app *App) error {
	acfg := app.config.Auth
	bcfg := app.config.Blog

	account.MaxLoginAttempts = acfg.MaxLoginAttempts
	account.CoolDownPeriod = acfg.CoolDownPeriod

	credentials := account.NewUserProvider(app.repo).
		WithLogger(app.GetLogger("account:credentials")).
		WithHashCost(acfg.PasswordHashCost).
		UseHashid(acfg.UseHashid())

	initializer := account.NewInitializeBlogHandler(app.repo).
		WithLogger(app.GetLogger("account:initialize")).
		WithHashCost(acfg.PasswordHashCost).
		WithDefaults(account.BlogDefaults{
			Theme:        bcfg.Theme,
			ItemsPerPage: bcfg.ItemsPerPage,
			Version:      bcfg.Version,
			Logo:         bcfg.Logo,
		})

	workflowLogger := app.GetLogger("account:workflow")
	workflow := account.NewWorkflow(
		credentials,
		app.repo.Blogs(),
		initializer,
		account.WithWorkflowLogger(workflowLogger),
		account.WithActivitySink(activitymap.LogSink(app.GetLogger("account:activity"))),
		account.WithDefaultTheme(bcfg.Theme),
		account.WithLockout(acfg.Lockout),
		account.WithHashidUserIDs(acfg.UseHashid()),
	)

	opts := []account.AccountControllerOption{
		account.WithControllerLogger(app.GetLogger("account:http")),
		account.WithControllerDebug(app.config.IsDev),
	}

	controller := account.NewAccountController(workflow, app.sessions, opts...)

	r := app.srv.Router()
	account.RegisterAccountRoutes(r, controller, app.sessions.OptionalSession())

	r.Get("/", func(c router.Context) error {
		exists, err := app.repo.Blogs().Exists(c.Context())
		if err != nil {
			return controller.ErrorHandler(c, err)
		}
		if !exists {
			return c.Redirect("/account/initialize", router.StatusFound)
		}
		return c.Redirect("/account/profile", router.StatusFound)
	}, app.sessions.OptionalSession()).SetName("root")

	return nil
}
