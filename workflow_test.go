package account_test

import (
	"context"
	"errors"
	"testing"

	account "github.com/goliatone/go-blog-account"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type workflowFixture struct {
	creds       *MockCredentialStore
	site        *MockSiteStore
	initializer *MockBlogInitializer
	sess        *MockSessionIssuer
	sink        *recordingSink
	workflow    *account.Workflow
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()

	f := &workflowFixture{
		creds:       new(MockCredentialStore),
		site:        new(MockSiteStore),
		initializer: new(MockBlogInitializer),
		sess:        new(MockSessionIssuer),
		sink:        &recordingSink{},
	}

	f.workflow = account.NewWorkflow(f.creds, f.site, f.initializer,
		account.WithWorkflowLogger(account.NopLogger()),
		account.WithActivitySink(f.sink),
	)

	t.Cleanup(func() {
		f.creds.AssertExpectations(t)
		f.site.AssertExpectations(t)
		f.initializer.AssertExpectations(t)
		f.sess.AssertExpectations(t)
	})

	return f
}

func (f *workflowFixture) configured(theme string) {
	f.site.On("Get", mock.Anything).Return(&account.BlogSettings{
		ID:    account.SingletonBlogID,
		Title: "My Blog",
		Theme: theme,
	}, nil).Maybe()
}

func aliceUser() *account.User {
	return &account.User{
		ID:       uuid.New(),
		Username: "alice",
		NickName: "Alice",
		Email:    "alice@x.com",
	}
}

func TestSubmitLoginSuccessRedirects(t *testing.T) {
	tests := []struct {
		name     string
		redirect string
		expected string
	}{
		{"local target", "/welcome", "/welcome"},
		{"no target", "", "/"},
		{"external target", "https://evil.com/welcome", "/"},
		{"protocol relative target", "//evil.com", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWorkflowFixture(t)
			ctx := context.Background()
			user := aliceUser()

			f.creds.On("FindByEmail", ctx, "alice@x.com").Return(user, nil).Once()
			f.creds.On("VerifyPassword", ctx, user, "Secret123", true).Return(nil).Once()
			f.sess.On("SignIn", ctx, user, true).Return(nil).Once()

			out, err := f.workflow.SubmitLogin(ctx, f.sess, account.LoginRequest{
				Email:       "alice@x.com",
				Password:    "Secret123",
				RedirectURI: tt.redirect,
			})

			require.NoError(t, err)
			assert.True(t, out.IsRedirect())
			assert.Equal(t, tt.expected, out.Redirect)
			assert.Equal(t, []account.ActivityEventType{account.ActivityEventLoginSuccess}, f.sink.types())
		})
	}
}

func TestSubmitLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	req := account.LoginRequest{Email: "alice@x.com", Password: "wrong", RedirectURI: "/welcome"}

	unknown := newWorkflowFixture(t)
	unknown.configured("standard")
	unknown.creds.On("FindByEmail", ctx, "alice@x.com").Return(nil, account.ErrIdentityNotFound).Once()
	// the password is still hashed for an unknown email
	unknown.creds.On("VerifyPassword", ctx, (*account.User)(nil), "wrong", true).Return(account.ErrMismatchedHashAndPassword).Once()

	unknownOut, err := unknown.workflow.SubmitLogin(ctx, unknown.sess, req)
	require.NoError(t, err)

	wrong := newWorkflowFixture(t)
	wrong.configured("standard")
	user := aliceUser()
	wrong.creds.On("FindByEmail", ctx, "alice@x.com").Return(user, nil).Once()
	wrong.creds.On("VerifyPassword", ctx, user, "wrong", true).Return(account.ErrMismatchedHashAndPassword).Once()

	wrongOut, err := wrong.workflow.SubmitLogin(ctx, wrong.sess, req)
	require.NoError(t, err)

	locked := newWorkflowFixture(t)
	locked.configured("standard")
	locked.creds.On("FindByEmail", ctx, "alice@x.com").Return(user, nil).Once()
	locked.creds.On("VerifyPassword", ctx, user, "wrong", true).Return(account.ErrTooManyLoginAttempts).Once()

	lockedOut, err := locked.workflow.SubmitLogin(ctx, locked.sess, req)
	require.NoError(t, err)

	assert.False(t, unknownOut.IsRedirect())
	assert.Equal(t, "themes/standard/login", unknownOut.Template())
	assert.Equal(t, unknownOut.Model, wrongOut.Model)
	assert.Equal(t, unknownOut.Model, lockedOut.Model)

	model := wrongOut.Model.(*account.LoginModel)
	assert.True(t, model.ShowError)
	assert.Empty(t, model.Errors)
	assert.Equal(t, "alice@x.com", model.Email)
	assert.Equal(t, "/welcome", model.RedirectURI)

	wrong.sess.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []account.ActivityEventType{account.ActivityEventLoginFailure}, wrong.sink.types())
}

func TestSubmitLoginInvalidInputSkipsStore(t *testing.T) {
	f := newWorkflowFixture(t)
	f.configured("dark")

	out, err := f.workflow.SubmitLogin(context.Background(), f.sess, account.LoginRequest{Email: "nope"})
	require.NoError(t, err)

	assert.Equal(t, "themes/dark/login", out.Template())
	model := out.Model.(*account.LoginModel)
	assert.True(t, model.ShowError)
	assert.Contains(t, model.Errors, "email")
	f.creds.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestSubmitLoginInfrastructureErrorSurfaces(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	boom := errors.New("database is down")

	f.creds.On("FindByEmail", ctx, "alice@x.com").Return(nil, boom).Once()

	_, err := f.workflow.SubmitLogin(ctx, f.sess, account.LoginRequest{Email: "alice@x.com", Password: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestShowLoginUsesConfiguredTheme(t *testing.T) {
	f := newWorkflowFixture(t)
	f.configured("dark")

	out, err := f.workflow.ShowLogin(context.Background(), "/posts/1")
	require.NoError(t, err)

	assert.Equal(t, "themes/dark/login", out.Template())
	assert.Equal(t, "My Blog", out.Site.Title)
	assert.Equal(t, "/posts/1", out.Model.(*account.LoginModel).RedirectURI)
}

func TestShowLoginFallsBackToDefaultTheme(t *testing.T) {
	f := newWorkflowFixture(t)
	f.site.On("Get", mock.Anything).Return(nil, account.ErrSiteNotConfigured).Once()

	out, err := f.workflow.ShowLogin(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "themes/standard/login", out.Template())
	assert.Nil(t, out.Site)
}

func TestSubmitRegister(t *testing.T) {
	t.Run("creates account and redirects to login", func(t *testing.T) {
		f := newWorkflowFixture(t)
		ctx := context.Background()

		f.creds.On("Create", ctx, mock.MatchedBy(func(u *account.User) bool {
			return u.Username == "alice" && u.Email == "alice@x.com" && u.Permissions == account.PermissionNone
		}), "Secret123").Return(nil).Once()

		out, err := f.workflow.SubmitRegister(ctx, account.RegisterRequest{
			Username:    "alice",
			NickName:    "Alice",
			Email:       "alice@x.com",
			Password:    "Secret123",
			RedirectURI: "/welcome",
		})

		require.NoError(t, err)
		assert.Equal(t, "/account/login?redirectUri=/welcome", out.Redirect)
		f.sess.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, []account.ActivityEventType{account.ActivityEventRegistered}, f.sink.types())
	})

	t.Run("duplicate email re-renders with error", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.configured("standard")
		ctx := context.Background()

		f.creds.On("Create", ctx, mock.Anything, "Secret123").Return(account.ErrDuplicateAccount).Once()

		out, err := f.workflow.SubmitRegister(ctx, account.RegisterRequest{
			Username: "alice",
			NickName: "Alice",
			Email:    "alice@x.com",
			Password: "Secret123",
		})

		require.NoError(t, err)
		assert.Equal(t, "themes/standard/register", out.Template())
		model := out.Model.(*account.RegisterModel)
		assert.True(t, model.ShowError)
		assert.Equal(t, "alice", model.Username)
	})

	t.Run("invalid input re-renders with error", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.configured("standard")

		out, err := f.workflow.SubmitRegister(context.Background(), account.RegisterRequest{Username: "a"})
		require.NoError(t, err)

		model := out.Model.(*account.RegisterModel)
		assert.True(t, model.ShowError)
		assert.Contains(t, model.Errors, "username")
		f.creds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	f.sess.On("SignOut", ctx).Return(nil).Once()
	f.sess.On("SignOut", ctx).Return(errors.New("no session")).Once()

	assert.Equal(t, "/", f.workflow.Logout(ctx, f.sess).Redirect)
	assert.Equal(t, "/", f.workflow.Logout(ctx, f.sess).Redirect)
}

func TestShowInitialize(t *testing.T) {
	t.Run("already configured redirects to login", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.site.On("Exists", mock.Anything).Return(true, nil).Once()

		out, err := f.workflow.ShowInitialize(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "/account/login", out.Redirect)
	})

	t.Run("fresh deployment renders default theme", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.site.On("Exists", mock.Anything).Return(false, nil).Once()

		out, err := f.workflow.ShowInitialize(context.Background(), "/admin")
		require.NoError(t, err)
		assert.Equal(t, "themes/standard/initialize", out.Template())
		assert.Equal(t, "/admin", out.Model.(*account.InitializeModel).RedirectURI)
		f.site.AssertNotCalled(t, "Get", mock.Anything)
	})
}

func TestSubmitInitialize(t *testing.T) {
	valid := account.InitializeRequest{
		Username:    "admin",
		NickName:    "Admin",
		Email:       "admin@x.com",
		Password:    "Secret123",
		Title:       "My Blog",
		Description: "Notes",
	}

	t.Run("success redirects to root", func(t *testing.T) {
		f := newWorkflowFixture(t)
		ctx := context.Background()

		f.site.On("Exists", ctx).Return(false, nil).Once()
		f.initializer.On("Initialize", ctx, mock.MatchedBy(func(msg account.InitializeBlogMessage) bool {
			return msg.Username == "admin" && msg.Title == "My Blog" && msg.Password == "Secret123"
		})).Return(nil).Once()

		req := valid
		req.RedirectURI = "/drafts"
		out, err := f.workflow.SubmitInitialize(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "/", out.Redirect)
		assert.Equal(t, []account.ActivityEventType{account.ActivityEventBlogInitialized}, f.sink.types())
	})

	t.Run("configured before submit redirects to login", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.site.On("Exists", mock.Anything).Return(true, nil).Once()

		out, err := f.workflow.SubmitInitialize(context.Background(), valid)
		require.NoError(t, err)
		assert.Equal(t, "/account/login", out.Redirect)
		f.initializer.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything)
	})

	t.Run("lost race redirects to login", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.site.On("Exists", mock.Anything).Return(false, nil).Once()
		f.initializer.On("Initialize", mock.Anything, mock.Anything).Return(account.ErrAlreadyInitialized).Once()

		out, err := f.workflow.SubmitInitialize(context.Background(), valid)
		require.NoError(t, err)
		assert.Equal(t, "/account/login", out.Redirect)
	})

	t.Run("failure re-renders with error", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.site.On("Exists", mock.Anything).Return(false, nil).Once()
		f.initializer.On("Initialize", mock.Anything, mock.Anything).Return(account.ErrDuplicateAccount).Once()

		out, err := f.workflow.SubmitInitialize(context.Background(), valid)
		require.NoError(t, err)
		assert.Equal(t, "themes/standard/initialize", out.Template())
		model := out.Model.(*account.InitializeModel)
		assert.True(t, model.ShowError)
		assert.Equal(t, "My Blog", model.Title)
	})

	t.Run("invalid input re-renders with error", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.site.On("Exists", mock.Anything).Return(false, nil).Once()

		req := valid
		req.Title = ""
		out, err := f.workflow.SubmitInitialize(context.Background(), req)
		require.NoError(t, err)
		assert.Contains(t, out.Model.(*account.InitializeModel).Errors, "title")
	})
}

func TestShowProfile(t *testing.T) {
	t.Run("fills the form", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.configured("standard")
		user := aliceUser()
		user.Avatar = "/a.png"
		user.Bio = "hello"

		f.creds.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()

		out, err := f.workflow.ShowProfile(context.Background(), user.ID, "/back")
		require.NoError(t, err)

		assert.Equal(t, "themes/standard/profile", out.Template())
		assert.Equal(t, &account.ProfileEditModel{
			Username:    "alice",
			Email:       "alice@x.com",
			NickName:    "Alice",
			Avatar:      "/a.png",
			Bio:         "hello",
			RedirectURI: "/back",
		}, out.Model)
	})

	t.Run("missing identity invalidates session", func(t *testing.T) {
		f := newWorkflowFixture(t)
		id := uuid.New()
		f.creds.On("FindByID", mock.Anything, id).Return(nil, account.ErrIdentityNotFound).Once()

		_, err := f.workflow.ShowProfile(context.Background(), id, "")
		assert.ErrorIs(t, err, account.ErrSessionInvalidated)
		assert.Equal(t, []account.ActivityEventType{account.ActivityEventSessionRejected}, f.sink.types())
	})
}

func TestSubmitProfileEdit(t *testing.T) {
	t.Run("valid input persists the four fields and re-issues the session", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.configured("standard")
		ctx := context.Background()
		user := aliceUser()
		user.PasswordHash = "hash"
		user.Permissions = account.PermissionAuthor

		f.creds.On("FindByID", ctx, user.ID).Return(user, nil).Once()
		f.creds.On("Update", ctx, mock.MatchedBy(func(u *account.User) bool {
			return u.Email == "new@x.com" &&
				u.NickName == "Ally" &&
				u.Avatar == "/new.png" &&
				u.Bio == "bio" &&
				u.Username == "alice" &&
				u.PasswordHash == "hash" &&
				u.Permissions == account.PermissionAuthor
		})).Return(nil).Once()
		f.sess.On("SignIn", ctx, user, true).Return(nil).Once()

		out, err := f.workflow.SubmitProfileEdit(ctx, f.sess, user.ID, account.ProfileEditRequest{
			Email:    "new@x.com",
			NickName: "Ally",
			Avatar:   "/new.png",
			Bio:      "bio",
		})
		require.NoError(t, err)

		model := out.Model.(*account.ProfileEditModel)
		assert.True(t, model.Saved)
		assert.False(t, model.ShowError)
		assert.Equal(t, "Ally", model.NickName)
		assert.Equal(t, []account.ActivityEventType{account.ActivityEventProfileUpdated}, f.sink.types())
	})

	t.Run("invalid input skips the update silently", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.configured("standard")
		user := aliceUser()

		f.creds.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()

		out, err := f.workflow.SubmitProfileEdit(context.Background(), f.sess, user.ID, account.ProfileEditRequest{
			Email:    "not-an-email",
			NickName: "Ally",
		})
		require.NoError(t, err)

		model := out.Model.(*account.ProfileEditModel)
		assert.False(t, model.ShowError)
		assert.False(t, model.Saved)
		assert.Equal(t, "not-an-email", model.Email)
		assert.Equal(t, "alice@x.com", user.Email)
		f.creds.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		f.sess.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("update failure shows error without re-issuing the session", func(t *testing.T) {
		f := newWorkflowFixture(t)
		f.configured("standard")
		user := aliceUser()

		user.Bio = "old bio"

		f.creds.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()
		f.creds.On("Update", mock.Anything, user).Return(account.ErrDuplicateAccount).Once()

		out, err := f.workflow.SubmitProfileEdit(context.Background(), f.sess, user.ID, account.ProfileEditRequest{
			Email:       "taken@x.com",
			NickName:    "Ally",
			Avatar:      "/new.png",
			Bio:         "new bio",
			RedirectURI: "/back",
		})
		require.NoError(t, err)

		assert.Equal(t, &account.ProfileEditModel{
			Username:    "alice",
			Email:       "alice@x.com",
			NickName:    "Alice",
			Bio:         "old bio",
			ShowError:   true,
			RedirectURI: "/back",
		}, out.Model)
		f.sess.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.sink.types())
	})

	t.Run("deleted identity invalidates session", func(t *testing.T) {
		f := newWorkflowFixture(t)
		id := uuid.New()
		f.creds.On("FindByID", mock.Anything, id).Return(nil, account.ErrIdentityNotFound).Once()

		_, err := f.workflow.SubmitProfileEdit(context.Background(), f.sess, id, account.ProfileEditRequest{})
		assert.ErrorIs(t, err, account.ErrSessionInvalidated)
	})
}

func TestIndexRedirectsToLogin(t *testing.T) {
	f := newWorkflowFixture(t)
	assert.Equal(t, "/account/login?redirectUri=/drafts", f.workflow.Index("/drafts").Redirect)
	assert.Equal(t, "/account/login", f.workflow.Index("").Redirect)
}

func TestViewsDropForeignRedirectTargets(t *testing.T) {
	foreign := []string{
		"javascript:alert(document.cookie)",
		"https://evil.example/phish",
		"//evil.example",
		"data:text/html,hi",
	}

	for _, target := range foreign {
		t.Run(target, func(t *testing.T) {
			ctx := context.Background()
			f := newWorkflowFixture(t)
			f.configured("standard")
			f.site.On("Exists", mock.Anything).Return(false, nil)
			user := aliceUser()
			f.creds.On("FindByID", mock.Anything, user.ID).Return(user, nil)

			login, err := f.workflow.ShowLogin(ctx, target)
			require.NoError(t, err)
			assert.Empty(t, login.Model.(*account.LoginModel).RedirectURI)

			login, err = f.workflow.SubmitLogin(ctx, f.sess, account.LoginRequest{RedirectURI: target})
			require.NoError(t, err)
			assert.Empty(t, login.Model.(*account.LoginModel).RedirectURI)

			register, err := f.workflow.ShowRegister(ctx, target)
			require.NoError(t, err)
			assert.Empty(t, register.Model.(*account.RegisterModel).RedirectURI)

			register, err = f.workflow.SubmitRegister(ctx, account.RegisterRequest{RedirectURI: target})
			require.NoError(t, err)
			assert.Empty(t, register.Model.(*account.RegisterModel).RedirectURI)

			initialize, err := f.workflow.ShowInitialize(ctx, target)
			require.NoError(t, err)
			assert.Empty(t, initialize.Model.(*account.InitializeModel).RedirectURI)

			initialize, err = f.workflow.SubmitInitialize(ctx, account.InitializeRequest{RedirectURI: target})
			require.NoError(t, err)
			assert.Empty(t, initialize.Model.(*account.InitializeModel).RedirectURI)

			profile, err := f.workflow.ShowProfile(ctx, user.ID, target)
			require.NoError(t, err)
			assert.Empty(t, profile.Model.(*account.ProfileEditModel).RedirectURI)

			profile, err = f.workflow.SubmitProfileEdit(ctx, f.sess, user.ID, account.ProfileEditRequest{RedirectURI: target})
			require.NoError(t, err)
			assert.Empty(t, profile.Model.(*account.ProfileEditModel).RedirectURI)
		})
	}
}
