package account_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	account "github.com/goliatone/go-blog-account"
	"github.com/goliatone/go-blog-account/config"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type rendered struct {
	name string
	data map[string]any
}

// modelAs decodes the serialized view model back into its typed form
func modelAs[T any](t *testing.T, view rendered) *T {
	t.Helper()
	raw, err := json.Marshal(view.data[account.TemplateModelKey])
	require.NoError(t, err)

	out := new(T)
	require.NoError(t, json.Unmarshal(raw, out))
	return out
}

// recordingViews is a fiber.Views that remembers what it rendered. Views
// rendered through router.Context receive the JSON form of the data.
type recordingViews struct {
	mu      sync.Mutex
	renders []rendered
}

func (v *recordingViews) Load() error { return nil }

func (v *recordingViews) Render(w io.Writer, name string, binding any, _ ...string) error {
	data, _ := binding.(map[string]any)

	v.mu.Lock()
	v.renders = append(v.renders, rendered{name: name, data: data})
	v.mu.Unlock()

	_, err := fmt.Fprint(w, name)
	return err
}

func (v *recordingViews) last(t *testing.T) rendered {
	t.Helper()
	v.mu.Lock()
	defer v.mu.Unlock()
	require.NotEmpty(t, v.renders, "nothing was rendered")
	return v.renders[len(v.renders)-1]
}

type testServer struct {
	app      *fiber.App
	srv      router.Server[*fiber.App]
	views    *recordingViews
	repo     account.RepositoryManager
	tokens   *account.TokenServiceImpl
	sessions *account.CookieSessions
	sink     *recordingSink
}

func testAuthConfig() config.AuthConfig {
	cfg := config.AuthConfig{
		SigningKey:         testSigningKey,
		CookieName:         "blog_session",
		TokenHours:         24,
		ExtendedTokenHours: 720,
		Issuer:             "blog",
		Audience:           []string{"blog:web"},
		Lockout:            true,
	}
	cfg.Sanitize()
	return cfg
}

func newTestServer(t *testing.T, revoker account.Revoker) *testServer {
	t.Helper()
	return newTestServerWith(t, revoker, &recordingViews{})
}

func newTestServerWith(t *testing.T, revoker account.Revoker, engine fiber.Views, opts ...account.AccountControllerOption) *testServer {
	t.Helper()

	cfg := testAuthConfig()
	repo := setupTestRepo(t)
	tokens := account.NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetIssuer(), jwt.ClaimStrings(cfg.GetAudience()), account.NopLogger())

	sessions := account.NewCookieSessions(cfg, tokens).WithLogger(account.NopLogger())
	if revoker != nil {
		sessions.WithRevoker(revoker)
	}

	sink := &recordingSink{}
	workflow := account.NewWorkflow(
		account.NewUserProvider(repo).WithHashCost(bcrypt.MinCost).WithLogger(account.NopLogger()),
		repo.Blogs(),
		account.NewInitializeBlogHandler(repo).WithHashCost(bcrypt.MinCost).WithLogger(account.NopLogger()),
		account.WithWorkflowLogger(account.NopLogger()),
		account.WithActivitySink(sink),
	)

	opts = append([]account.AccountControllerOption{account.WithControllerLogger(account.NopLogger())}, opts...)
	controller := account.NewAccountController(workflow, sessions, opts...)

	views, _ := engine.(*recordingViews)
	srv := newRouterServer(engine)
	account.RegisterAccountRoutes(srv.Router(), controller, sessions.OptionalSession())

	return &testServer{
		app:      srv.WrappedRouter(),
		srv:      srv,
		views:    views,
		repo:     repo,
		tokens:   tokens,
		sessions: sessions,
		sink:     sink,
	}
}

func newRouterServer(views fiber.Views) router.Server[*fiber.App] {
	return router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		return fiber.New(fiber.Config{Views: views})
	})
}

func (s *testServer) get(t *testing.T, target string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, target, nil)
	return s.do(t, req, cookies)
}

func (s *testServer) post(t *testing.T, target string, form url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return s.do(t, req, cookies)
}

func (s *testServer) do(t *testing.T, req *http.Request, cookies []*http.Cookie) *http.Response {
	t.Helper()
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	resp := s.post(t, "/account/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	cookie := sessionCookie(resp, s.sessions.CookieName())
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	return cookie
}

func sessionCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
