package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/finova/internal/auth"
	"github.com/mmynk/finova/internal/middleware"
	"github.com/mmynk/finova/internal/models"
	"github.com/mmynk/finova/internal/protect"
	"github.com/mmynk/finova/internal/retry"
	"github.com/mmynk/finova/internal/storage"
	"github.com/mmynk/finova/internal/storage/sqlite"
)

// recordingInvalidator remembers every invalidated path.
type recordingInvalidator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordingInvalidator) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

type testEnv struct {
	client      *Client
	store       *sqlite.SQLiteStore
	jwt         *auth.JWTManager
	invalidated *recordingInvalidator
}

type envOption func(*Deps)

func withGuard(g protect.Guard) envOption {
	return func(d *Deps) { d.Guard = g }
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// setupTestServer serves every service over HTTP against a fresh SQLite store.
func setupTestServer(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	store := newTestStore(t)
	inv := &recordingInvalidator{}
	deps := Deps{
		Store:       store,
		Invalidator: inv,
		Retry:       retry.Policy{Sleep: noSleep},
	}
	for _, opt := range opts {
		opt(&deps)
	}

	jwtManager := auth.NewJWTManager("test-secret", "", time.Hour)
	interceptors := connect.WithInterceptors(
		middleware.ResolveIdentity(jwtManager),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(NewAccountServiceHandler(NewAccountService(deps), interceptors))
	mux.Handle(NewTransactionServiceHandler(NewTransactionService(deps), interceptors))
	mux.Handle(NewUserServiceHandler(NewUserService(deps), interceptors))
	mux.Handle(NewBudgetServiceHandler(NewBudgetService(deps), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		client:      NewClient(server.Client(), server.URL),
		store:       store,
		jwt:         jwtManager,
		invalidated: inv,
	}
}

// signIn mints a token for subject and creates the user row.
func (e *testEnv) signIn(t *testing.T, subject string) string {
	t.Helper()
	token, err := e.jwt.Generate(auth.Identity{Subject: subject, Name: subject, Email: subject + "@example.com"})
	require.NoError(t, err)

	_, err = e.client.SyncUser(context.Background(), authed(token, &SyncUserRequest{}))
	require.NoError(t, err)
	return token
}

func authed[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

// countingStore counts store calls.
type countingStore struct {
	storage.Store
	mu    sync.Mutex
	calls int
}

func (c *countingStore) touch() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingStore) GetUserByIdentity(ctx context.Context, identityID string) (*models.User, error) {
	c.touch()
	return c.Store.GetUserByIdentity(ctx, identityID)
}

func (c *countingStore) UpsertUser(ctx context.Context, user *models.User) error {
	c.touch()
	return c.Store.UpsertUser(ctx, user)
}

func (c *countingStore) ListAccounts(ctx context.Context, userID string) ([]*models.Account, error) {
	c.touch()
	return c.Store.ListAccounts(ctx, userID)
}

func (c *countingStore) ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	c.touch()
	return c.Store.ListTransactions(ctx, userID)
}

func (c *countingStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	c.touch()
	return c.Store.WithTx(ctx, fn)
}

func (c *countingStore) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
