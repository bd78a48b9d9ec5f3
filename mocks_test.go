package account_test

import (
	"context"

	account "github.com/goliatone/go-blog-account"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCredentialStore implements account.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) FindByEmail(ctx context.Context, email string) (*account.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*account.User)
	return user, args.Error(1)
}

func (m *MockCredentialStore) FindByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*account.User)
	return user, args.Error(1)
}

func (m *MockCredentialStore) Create(ctx context.Context, user *account.User, password string) error {
	args := m.Called(ctx, user, password)
	return args.Error(0)
}

func (m *MockCredentialStore) Update(ctx context.Context, user *account.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockCredentialStore) VerifyPassword(ctx context.Context, user *account.User, password string, lockout bool) error {
	args := m.Called(ctx, user, password, lockout)
	return args.Error(0)
}

func (m *MockCredentialStore) GrantPermission(ctx context.Context, user *account.User, perm account.Permission) error {
	args := m.Called(ctx, user, perm)
	return args.Error(0)
}

// MockSessionIssuer implements account.SessionIssuer
type MockSessionIssuer struct {
	mock.Mock
}

func (m *MockSessionIssuer) SignIn(ctx context.Context, user *account.User, persistent bool, opts ...account.SignInOption) error {
	args := m.Called(ctx, user, persistent)
	return args.Error(0)
}

func (m *MockSessionIssuer) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSiteStore implements account.SiteStore
type MockSiteStore struct {
	mock.Mock
}

func (m *MockSiteStore) Exists(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockSiteStore) Get(ctx context.Context) (*account.BlogSettings, error) {
	args := m.Called(ctx)
	settings, _ := args.Get(0).(*account.BlogSettings)
	return settings, args.Error(1)
}

func (m *MockSiteStore) Set(ctx context.Context, settings *account.BlogSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockBlogInitializer implements account.BlogInitializer
type MockBlogInitializer struct {
	mock.Mock
}

func (m *MockBlogInitializer) Initialize(ctx context.Context, msg account.InitializeBlogMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type recordingSink struct {
	events []account.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event account.ActivityEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []account.ActivityEventType {
	out := make([]account.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}
