package account

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAccountRoutes mounts the account flows on app. Profile routes sit
// behind RequireSession.
func RegisterAccountRoutes[T any](app router.Router[T], controller *AccountController, middleware ...router.MiddlewareFunc) {
	r := controller.Routes

	group := app.Group(r.Prefix)
	group.Use(middleware...)

	group.Get(r.Index, controller.Index).SetName("account.index")

	group.Get(r.Login, controller.LoginShow).SetName("account.login.get")
	group.Post(r.Login, controller.LoginPost, controller.LoginMiddleware...).SetName("account.login.post")

	group.Get(r.Logout, controller.LogOut).SetName("account.logout")

	group.Get(r.Register, controller.RegistrationShow).SetName("account.register.get")
	group.Post(r.Register, controller.RegistrationCreate).SetName("account.register.post")

	group.Get(r.Initialize, controller.InitializeShow).SetName("account.initialize.get")
	group.Post(r.Initialize, controller.InitializeCreate).SetName("account.initialize.post")

	protected := controller.Sessions.RequireSession()
	group.Get(r.Profile, controller.ProfileShow, protected).SetName("account.profile.get")
	group.Post(r.Profile, controller.ProfileUpdate, protected).SetName("account.profile.post")
}

type AccountControllerRoutes struct {
	Prefix     string
	Index      string
	Login      string
	Logout     string
	Register   string
	Initialize string
	Profile    string
}

type AccountController struct {
	Debug           bool
	Logger          Logger
	Workflow        *Workflow
	Sessions        *CookieSessions
	Routes          *AccountControllerRoutes
	ErrorView       string
	LoginMiddleware []router.MiddlewareFunc
	ErrorHandler    router.ErrorHandler
}

type AccountControllerOption func(*AccountController) *AccountController

func WithControllerLogger(l Logger) AccountControllerOption {
	return func(a *AccountController) *AccountController {
		a.Logger = normalizeLogger(l)
		return a
	}
}

func WithControllerDebug(debug bool) AccountControllerOption {
	return func(a *AccountController) *AccountController {
		a.Debug = debug
		return a
	}
}

// WithLoginMiddleware runs middleware, e.g. a rate limiter, before the login
// POST handler. Middleware must hand over with c.Next().
func WithLoginMiddleware(mw ...router.MiddlewareFunc) AccountControllerOption {
	return func(a *AccountController) *AccountController {
		a.LoginMiddleware = append(a.LoginMiddleware, mw...)
		return a
	}
}

func WithErrorHandler(h router.ErrorHandler) AccountControllerOption {
	return func(a *AccountController) *AccountController {
		if h != nil {
			a.ErrorHandler = h
		}
		return a
	}
}

func NewAccountController(workflow *Workflow, sessions *CookieSessions, opts ...AccountControllerOption) *AccountController {
	a := &AccountController{
		Logger:    defaultLogger(),
		Workflow:  workflow,
		Sessions:  sessions,
		ErrorView: "errors/500",
		Routes: &AccountControllerRoutes{
			Prefix:     "/account",
			Index:      "/",
			Login:      "/login",
			Logout:     "/logout",
			Register:   "/register",
			Initialize: "/initialize",
			Profile:    "/profile",
		},
	}
	a.ErrorHandler = a.defaultErrHandler

	for _, opt := range opts {
		a = opt(a)
	}

	if a.Workflow == nil {
		panic("Missing Workflow in account controller...")
	}

	if a.Sessions == nil {
		panic("Missing CookieSessions in account controller...")
	}

	return a
}

func (a *AccountController) Index(c router.Context) error {
	q := a.query(c)
	return a.respond(c, a.Workflow.Index(q.RedirectURI), nil)
}

func (a *AccountController) LoginShow(c router.Context) error {
	q := a.query(c)
	out, err := a.Workflow.ShowLogin(c.Context(), q.RedirectURI)
	return a.respond(c, out, err)
}

func (a *AccountController) LoginPost(c router.Context) error {
	payload := new(LoginRequest)
	a.bind(c, payload, "login")

	if a.Debug {
		redacted := *payload
		redacted.Password = "[redacted]"
		a.Logger.Debug("account login payload", "payload", print.MaybePrettyJSON(redacted))
	}

	out, err := a.Workflow.SubmitLogin(c.Context(), a.Sessions.For(c), *payload)
	return a.respond(c, out, err)
}

func (a *AccountController) LogOut(c router.Context) error {
	out := a.Workflow.Logout(c.Context(), a.Sessions.For(c))
	return a.respond(c, out, nil)
}

func (a *AccountController) RegistrationShow(c router.Context) error {
	q := a.query(c)
	out, err := a.Workflow.ShowRegister(c.Context(), q.RedirectURI)
	return a.respond(c, out, err)
}

func (a *AccountController) RegistrationCreate(c router.Context) error {
	payload := new(RegisterRequest)
	a.bind(c, payload, "register")

	out, err := a.Workflow.SubmitRegister(c.Context(), *payload)
	return a.respond(c, out, err)
}

func (a *AccountController) InitializeShow(c router.Context) error {
	q := a.query(c)
	out, err := a.Workflow.ShowInitialize(c.Context(), q.RedirectURI)
	return a.respond(c, out, err)
}

func (a *AccountController) InitializeCreate(c router.Context) error {
	payload := new(InitializeRequest)
	a.bind(c, payload, "initialize")

	out, err := a.Workflow.SubmitInitialize(c.Context(), *payload)
	return a.respond(c, out, err)
}

func (a *AccountController) ProfileShow(c router.Context) error {
	session, ok := SessionFromContext(c)
	if !ok {
		return a.ErrorHandler(c, ErrUnableToFindSession)
	}

	q := a.query(c)
	out, err := a.Workflow.ShowProfile(c.Context(), session.UserID, q.RedirectURI)
	return a.respond(c, out, err)
}

func (a *AccountController) ProfileUpdate(c router.Context) error {
	session, ok := SessionFromContext(c)
	if !ok {
		return a.ErrorHandler(c, ErrUnableToFindSession)
	}

	payload := new(ProfileEditRequest)
	a.bind(c, payload, "profile")

	out, err := a.Workflow.SubmitProfileEdit(c.Context(), a.Sessions.For(c), session.UserID, *payload)
	return a.respond(c, out, err)
}

func (a *AccountController) query(c router.Context) AccountQuery {
	return AccountQuery{
		RedirectURI: c.Query(RedirectURIKey),
	}
}

// bind parses the form. A body that fails to parse leaves the payload
// empty, which validation then rejects like any other bad input.
func (a *AccountController) bind(c router.Context, payload any, flow string) {
	if err := c.Bind(payload); err != nil {
		a.Logger.Warn("account form parse failed", "flow", flow, "error", err)
	}
}

func (a *AccountController) respond(c router.Context, out Outcome, err error) error {
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	if out.IsRedirect() {
		status := router.StatusFound
		if c.Method() == string(router.POST) {
			status = router.StatusSeeOther
		}
		return c.Redirect(out.Redirect, status)
	}

	return c.Render(out.Template(), ViewContext(c, out))
}

func (a *AccountController) defaultErrHandler(c router.Context, err error) error {
	// the session points to an identity that is gone, or is unusable
	if errors.Is(err, ErrSessionInvalidated) || IsAuthError(err) {
		a.Logger.Warn("session rejected, signing out", "path", c.OriginalURL(), "error", err)
		_ = a.Sessions.For(c).SignOut(c.Context())
		return c.Redirect(LoginURL(c.OriginalURL()), router.StatusFound)
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	code := richErr.Code
	if code == 0 {
		code = router.StatusInternalServerError
	}

	a.Logger.Error(
		"account error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"text_code", richErr.TextCode,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return c.Status(code).Render(a.ErrorView, router.ViewContext{
		"error":   richErr,
		"message": richErr.Message,
		"code":    code,
	})
}
