package account

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	ViewLogin      = "login"
	ViewRegister   = "register"
	ViewInitialize = "initialize"
	ViewProfile    = "profile"
)

// Outcome is the result of a workflow step: either a redirect or a themed
// view with its model.
type Outcome struct {
	Theme    string
	View     string
	Model    any
	Site     *BlogSettings
	Redirect string
}

func (o Outcome) IsRedirect() bool {
	return o.Redirect != ""
}

// Template resolves the themed view name, e.g. "themes/standard/login".
func (o Outcome) Template() string {
	return "themes/" + o.Theme + "/" + o.View
}

func redirectTo(location string) Outcome {
	return Outcome{Redirect: location}
}

// LoginModel backs the login view. The password is never echoed back.
type LoginModel struct {
	Email       string            `json:"email"`
	RememberMe  bool              `json:"rememberMe"`
	RedirectURI string            `json:"redirectUri"`
	ShowError   bool              `json:"showError"`
	Errors      map[string]string `json:"errors,omitempty"`
}

type RegisterModel struct {
	Username    string            `json:"username"`
	NickName    string            `json:"nickname"`
	Email       string            `json:"email"`
	RedirectURI string            `json:"redirectUri"`
	ShowError   bool              `json:"showError"`
	Errors      map[string]string `json:"errors,omitempty"`
}

type InitializeModel struct {
	Username    string            `json:"username"`
	NickName    string            `json:"nickname"`
	Email       string            `json:"email"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	RedirectURI string            `json:"redirectUri"`
	ShowError   bool              `json:"showError"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// ProfileEditModel backs the profile view. Username is shown read only.
type ProfileEditModel struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	NickName    string `json:"nickname"`
	Avatar      string `json:"avatar"`
	Bio         string `json:"bio"`
	RedirectURI string `json:"redirectUri"`
	ShowError   bool   `json:"showError"`
	Saved       bool   `json:"saved"`
}

// Workflow runs the account flows: login, registration, first-run
// initialization, logout and profile editing. It knows nothing about HTTP;
// callers bind the input and turn the Outcome into a response.
type Workflow struct {
	credentials  CredentialStore
	site         SiteStore
	initializer  BlogInitializer
	activity     ActivitySink
	logger       Logger
	defaultTheme string
	lockout      bool
	useHashid    bool
	now          func() time.Time
}

type WorkflowOption func(*Workflow)

func WithWorkflowLogger(l Logger) WorkflowOption {
	return func(w *Workflow) {
		w.logger = normalizeLogger(l)
	}
}

func WithActivitySink(s ActivitySink) WorkflowOption {
	return func(w *Workflow) {
		w.activity = normalizeActivitySink(s)
	}
}

// WithDefaultTheme sets the theme used before the blog is configured.
func WithDefaultTheme(theme string) WorkflowOption {
	return func(w *Workflow) {
		if theme = strings.TrimSpace(theme); theme != "" {
			w.defaultTheme = theme
		}
	}
}

// WithLockout toggles failed attempt tracking on login.
func WithLockout(enabled bool) WorkflowOption {
	return func(w *Workflow) {
		w.lockout = enabled
	}
}

// WithHashidUserIDs derives the first administrator id from its email.
func WithHashidUserIDs(enabled bool) WorkflowOption {
	return func(w *Workflow) {
		w.useHashid = enabled
	}
}

func NewWorkflow(credentials CredentialStore, site SiteStore, initializer BlogInitializer, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		credentials:  credentials,
		site:         site,
		initializer:  initializer,
		activity:     noopActivitySink{},
		logger:       defaultLogger(),
		defaultTheme: DefaultTheme,
		lockout:      true,
		now:          time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	if w.credentials == nil {
		panic("account workflow requires a CredentialStore")
	}

	if w.site == nil {
		panic("account workflow requires a SiteStore")
	}

	if w.initializer == nil {
		panic("account workflow requires a BlogInitializer")
	}

	return w
}

// Index sends the caller to the login page.
func (w *Workflow) Index(redirectURI string) Outcome {
	return redirectTo(LoginURL(redirectURI))
}

func (w *Workflow) ShowLogin(ctx context.Context, redirectURI string) (Outcome, error) {
	return w.themed(ctx, ViewLogin, &LoginModel{
		RedirectURI: localOrEmpty(redirectURI),
	})
}

// SubmitLogin signs the user in. Unknown emails, wrong passwords and locked
// accounts all produce the same view so the response never tells which
// one it was.
func (w *Workflow) SubmitLogin(ctx context.Context, sess SessionIssuer, req LoginRequest) (Outcome, error) {
	model := &LoginModel{
		Email:       strings.TrimSpace(req.Email),
		RememberMe:  req.RememberMe,
		RedirectURI: localOrEmpty(req.RedirectURI),
	}

	if err := req.Validate(); err != nil {
		model.ShowError = true
		model.Errors = FormatValidationErrorToMap(err)
		return w.themed(ctx, ViewLogin, model)
	}

	user, err := w.credentials.FindByEmail(ctx, req.Email)
	if err != nil {
		if !IsNotFoundError(err) {
			return Outcome{}, err
		}
		// burn a hash comparison so unknown emails cost as much as bad passwords
		_ = w.credentials.VerifyPassword(ctx, nil, req.Password, w.lockout)
		return w.loginFailed(ctx, model, "", err)
	}

	if err := w.credentials.VerifyPassword(ctx, user, req.Password, w.lockout); err != nil {
		if !IsAuthError(err) {
			return Outcome{}, err
		}
		return w.loginFailed(ctx, model, user.ID.String(), err)
	}

	if err := sess.SignIn(ctx, user, true, WithExtendedSession(req.RememberMe)); err != nil {
		return Outcome{}, err
	}

	w.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    user.ID.String(),
		Email:     user.Email,
		Metadata:  map[string]any{"remember_me": req.RememberMe},
	})

	return redirectTo(SafeRedirect(req.RedirectURI)), nil
}

func (w *Workflow) loginFailed(ctx context.Context, model *LoginModel, userID string, cause error) (Outcome, error) {
	reason := "unknown"
	if richErr, ok := asRichError(cause); ok && richErr.TextCode != "" {
		reason = richErr.TextCode
	}

	w.logger.Info("login rejected", "email", model.Email, "reason", reason)
	w.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		UserID:    userID,
		Email:     model.Email,
		Metadata:  map[string]any{"reason": reason},
	})

	model.ShowError = true
	model.Errors = nil
	return w.themed(ctx, ViewLogin, model)
}

func (w *Workflow) ShowRegister(ctx context.Context, redirectURI string) (Outcome, error) {
	return w.themed(ctx, ViewRegister, &RegisterModel{
		RedirectURI: localOrEmpty(redirectURI),
	})
}

// SubmitRegister creates a plain account and sends the user to login. It
// does not sign the new user in.
func (w *Workflow) SubmitRegister(ctx context.Context, req RegisterRequest) (Outcome, error) {
	model := &RegisterModel{
		Username:    strings.TrimSpace(req.Username),
		NickName:    strings.TrimSpace(req.NickName),
		Email:       strings.TrimSpace(req.Email),
		RedirectURI: localOrEmpty(req.RedirectURI),
	}

	if err := req.Validate(); err != nil {
		model.ShowError = true
		model.Errors = FormatValidationErrorToMap(err)
		return w.themed(ctx, ViewRegister, model)
	}

	user := &User{
		Username: model.Username,
		NickName: model.NickName,
		Email:    model.Email,
	}

	if err := w.credentials.Create(ctx, user, req.Password); err != nil {
		w.logger.Warn("account registration failed", "email", model.Email, "error", err)
		model.ShowError = true
		if IsConflictError(err) {
			model.Errors = map[string]string{"email": "an account with that email or username already exists"}
		}
		return w.themed(ctx, ViewRegister, model)
	}

	w.record(ctx, ActivityEvent{
		EventType: ActivityEventRegistered,
		UserID:    user.ID.String(),
		Email:     user.Email,
	})

	return redirectTo(LoginURL(req.RedirectURI)), nil
}

// Logout clears the session. It always redirects to root, with or without
// an active session.
func (w *Workflow) Logout(ctx context.Context, sess SessionIssuer) Outcome {
	if err := sess.SignOut(ctx); err != nil {
		w.logger.Warn("sign out failed", "error", err)
	}

	w.record(ctx, ActivityEvent{EventType: ActivityEventLogout})
	return redirectTo(RootPath)
}

// ShowInitialize renders the first-run form with the default theme, or
// redirects to login once the blog is configured.
func (w *Workflow) ShowInitialize(ctx context.Context, redirectURI string) (Outcome, error) {
	exists, err := w.site.Exists(ctx)
	if err != nil {
		return Outcome{}, err
	}

	if exists {
		return redirectTo(LoginURL(redirectURI)), nil
	}

	return w.initializeView(&InitializeModel{
		RedirectURI: localOrEmpty(redirectURI),
	}), nil
}

// SubmitInitialize creates the administrator and the blog settings. The
// existence check runs again on every submit; the settings table key is
// what actually keeps a racing second request out.
func (w *Workflow) SubmitInitialize(ctx context.Context, req InitializeRequest) (Outcome, error) {
	exists, err := w.site.Exists(ctx)
	if err != nil {
		return Outcome{}, err
	}

	if exists {
		return redirectTo(LoginURL(req.RedirectURI)), nil
	}

	model := &InitializeModel{
		Username:    strings.TrimSpace(req.Username),
		NickName:    strings.TrimSpace(req.NickName),
		Email:       strings.TrimSpace(req.Email),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		RedirectURI: localOrEmpty(req.RedirectURI),
	}

	if err := req.Validate(); err != nil {
		model.ShowError = true
		model.Errors = FormatValidationErrorToMap(err)
		return w.initializeView(model), nil
	}

	err = w.initializer.Initialize(ctx, InitializeBlogMessage{
		Username:    model.Username,
		NickName:    model.NickName,
		Email:       model.Email,
		Password:    req.Password,
		Title:       model.Title,
		Description: model.Description,
		UseHashid:   w.useHashid,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyInitialized) {
			w.logger.Info("blog initialization lost race, already configured")
			return redirectTo(LoginURL(req.RedirectURI)), nil
		}

		w.logger.Warn("blog initialization failed", "email", model.Email, "error", err)
		model.ShowError = true
		return w.initializeView(model), nil
	}

	w.record(ctx, ActivityEvent{
		EventType: ActivityEventBlogInitialized,
		Email:     model.Email,
		Metadata:  map[string]any{"title": model.Title},
	})

	return redirectTo(RootPath), nil
}

// ShowProfile loads the current user into the edit form. A user id that no
// longer resolves yields ErrSessionInvalidated.
func (w *Workflow) ShowProfile(ctx context.Context, userID uuid.UUID, redirectURI string) (Outcome, error) {
	user, err := w.currentUser(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}

	model := profileModel(user)
	model.RedirectURI = localOrEmpty(redirectURI)
	return w.themed(ctx, ViewProfile, model)
}

// SubmitProfileEdit overwrites email, nickname, avatar and bio, then
// re-issues the session so the display data it carries is fresh. Invalid
// input skips the update and re-renders what was submitted without an
// error flag.
func (w *Workflow) SubmitProfileEdit(ctx context.Context, sess SessionIssuer, userID uuid.UUID, req ProfileEditRequest) (Outcome, error) {
	user, err := w.currentUser(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}

	if err := req.Validate(); err != nil {
		w.logger.Debug("profile edit skipped, invalid input", "user_id", userID, "error", err)
		return w.themed(ctx, ViewProfile, &ProfileEditModel{
			Username:    user.Username,
			Email:       req.Email,
			NickName:    req.NickName,
			Avatar:      req.Avatar,
			Bio:         req.Bio,
			RedirectURI: localOrEmpty(req.RedirectURI),
		})
	}

	stored := *user
	user.Email = strings.TrimSpace(req.Email)
	user.NickName = strings.TrimSpace(req.NickName)
	user.Avatar = strings.TrimSpace(req.Avatar)
	user.Bio = strings.TrimSpace(req.Bio)

	if err := w.credentials.Update(ctx, user); err != nil {
		if IsNotFoundError(err) {
			return Outcome{}, ErrSessionInvalidated
		}

		w.logger.Warn("profile update failed", "user_id", userID, "error", err)
		// nothing was saved, show what is stored
		model := profileModel(&stored)
		model.ShowError = true
		model.RedirectURI = localOrEmpty(req.RedirectURI)
		return w.themed(ctx, ViewProfile, model)
	}

	if err := sess.SignIn(ctx, user, true); err != nil {
		return Outcome{}, err
	}

	w.record(ctx, ActivityEvent{
		EventType: ActivityEventProfileUpdated,
		UserID:    user.ID.String(),
		Email:     user.Email,
	})

	model := profileModel(user)
	model.Saved = true
	model.RedirectURI = localOrEmpty(req.RedirectURI)
	return w.themed(ctx, ViewProfile, model)
}

func (w *Workflow) currentUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	if userID == uuid.Nil {
		return nil, ErrSessionInvalidated
	}

	user, err := w.credentials.FindByID(ctx, userID)
	if err != nil {
		if IsNotFoundError(err) {
			w.record(ctx, ActivityEvent{
				EventType: ActivityEventSessionRejected,
				UserID:    userID.String(),
			})
			return nil, ErrSessionInvalidated
		}
		return nil, err
	}

	return user, nil
}

func profileModel(user *User) *ProfileEditModel {
	return &ProfileEditModel{
		Username: user.Username,
		Email:    user.Email,
		NickName: user.NickName,
		Avatar:   user.Avatar,
		Bio:      user.Bio,
	}
}

func (w *Workflow) initializeView(model *InitializeModel) Outcome {
	return Outcome{
		Theme: w.defaultTheme,
		View:  ViewInitialize,
		Model: model,
	}
}

// themed renders view with the configured theme. A blog with no settings
// yet falls back to the default theme.
func (w *Workflow) themed(ctx context.Context, view string, model any) (Outcome, error) {
	out := Outcome{
		Theme: w.defaultTheme,
		View:  view,
		Model: model,
	}

	settings, err := w.site.Get(ctx)
	if err != nil {
		if IsNotFoundError(err) {
			return out, nil
		}
		return Outcome{}, err
	}

	if settings != nil {
		out.Site = settings
		if theme := strings.TrimSpace(settings.Theme); theme != "" {
			out.Theme = theme
		}
	}

	return out, nil
}

func (w *Workflow) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = w.now()
	}

	if err := w.activity.Record(ctx, event); err != nil {
		w.logger.Warn("failed to record activity", "event", string(event.EventType), "error", err)
	}
}
