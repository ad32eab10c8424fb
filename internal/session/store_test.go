package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ghaggin/storefront/internal/config"
	"github.com/ghaggin/storefront/internal/gateway"
	"github.com/ghaggin/storefront/internal/model"
	"github.com/ghaggin/storefront/internal/nav"
	"github.com/ghaggin/storefront/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type call struct {
	method string
	path   string
	body   any
}

// fakeBackend answers by path with either data (re-encoded into out) or an error.
type fakeBackend struct {
	calls []call
	data  map[string]any
	errs  map[string]error
}

func (f *fakeBackend) do(method, path string, body, out any) error {
	f.calls = append(f.calls, call{method: method, path: path, body: body})
	if err := f.errs[path]; err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	b, err := json.Marshal(f.data[path])
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (f *fakeBackend) Get(_ context.Context, path string, out any) error {
	return f.do(http.MethodGet, path, nil, out)
}

func (f *fakeBackend) Post(_ context.Context, path string, body, out any) error {
	return f.do(http.MethodPost, path, body, out)
}

func (f *fakeBackend) Put(_ context.Context, path string, body, out any) error {
	return f.do(http.MethodPut, path, body, out)
}

func newTestStore(t *testing.T, mem *storage.Memory, api Backend) *Store {
	t.Helper()
	state, err := Open(context.Background(), mem, "token", zap.NewNop())
	require.NoError(t, err)
	return NewStore(state, api, zap.NewNop())
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	api := &fakeBackend{data: map[string]any{
		"/auth/login": model.LoginResult{Token: "jwt-1", User: &model.Profile{ID: 7, Username: "ada"}},
	}}
	s := newTestStore(t, mem, api)

	sess, err := s.Login(ctx, "ada", "secret")
	require.NoError(t, err)

	assert.Equal(t, "jwt-1", sess.Token)
	assert.True(t, sess.IsAuthenticated)
	require.NotNil(t, sess.User)
	assert.Equal(t, int64(7), sess.User.ID)
	assert.Equal(t, sess, s.Snapshot())
	assertConsistent(t, s.State)

	persisted, err := mem.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", persisted)

	require.Len(t, api.calls, 1)
	assert.Equal(t, call{http.MethodPost, "/auth/login", model.Credentials{Username: "ada", Password: "secret"}}, api.calls[0])
}

func TestLogin_FailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(ctx, "token", "old"))

	rejected := &gateway.BusinessError{Code: 500, Message: "bad credentials"}
	api := &fakeBackend{errs: map[string]error{"/auth/login": rejected}}
	s := newTestStore(t, mem, api)
	s.setUser(&model.Profile{ID: 1, Username: "old"})
	before := s.Snapshot()

	_, err := s.Login(ctx, "ada", "wrong")
	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, before, s.Snapshot())

	persisted, err := mem.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "old", persisted)
}

func TestLogin_EmptyTokenRejected(t *testing.T) {
	mem := storage.NewMemory()
	api := &fakeBackend{data: map[string]any{
		"/auth/login": model.LoginResult{User: &model.Profile{ID: 7}},
	}}
	s := newTestStore(t, mem, api)

	_, err := s.Login(context.Background(), "ada", "secret")
	assert.ErrorIs(t, err, ErrEmptyToken)
	assert.Equal(t, model.Session{}, s.Snapshot())
}

func TestLogin_StorageFailureLeavesStateUnchanged(t *testing.T) {
	boom := errors.New("quota exceeded")
	state, err := Open(context.Background(), &brokenStorage{Storage: storage.NewMemory(), setErr: boom}, "token", zap.NewNop())
	require.NoError(t, err)

	api := &fakeBackend{data: map[string]any{
		"/auth/login": model.LoginResult{Token: "jwt-1"},
	}}
	s := NewStore(state, api, zap.NewNop())

	_, err = s.Login(context.Background(), "ada", "secret")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, model.Session{}, s.Snapshot())
}

func TestRegister(t *testing.T) {
	reg := model.Registration{Username: "ada", Password: "secret", Email: "ada@example.com"}

	api := &fakeBackend{}
	s := newTestStore(t, storage.NewMemory(), api)
	require.NoError(t, s.Register(context.Background(), reg))
	assert.Equal(t, []call{{http.MethodPost, "/auth/register", reg}}, api.calls)
	assert.Equal(t, model.Session{}, s.Snapshot())

	taken := &gateway.BusinessError{Code: 500, Message: "username taken"}
	api = &fakeBackend{errs: map[string]error{"/auth/register": taken}}
	s = newTestStore(t, storage.NewMemory(), api)
	assert.ErrorIs(t, s.Register(context.Background(), reg), taken)
}

func TestFetchProfile(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(ctx, "token", "jwt-1"))

	api := &fakeBackend{data: map[string]any{
		"/user/profile": model.Profile{ID: 7, Username: "ada", Email: "ada@example.com"},
	}}
	s := newTestStore(t, mem, api)

	p, err := s.FetchProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, p, s.User())

	snap := s.Snapshot()
	assert.Equal(t, "jwt-1", snap.Token)
	assert.True(t, snap.IsAuthenticated)

	// a failed fetch keeps the previous profile
	api.errs = map[string]error{"/user/profile": errors.New("connection refused")}
	_, err = s.FetchProfile(ctx)
	assert.Error(t, err)
	assert.Equal(t, p, s.User())
}

func TestUpdateProfile(t *testing.T) {
	api := &fakeBackend{data: map[string]any{
		"/user/profile": model.Profile{ID: 7, Username: "ada", Phone: "555"},
	}}
	s := newTestStore(t, storage.NewMemory(), api)

	p, err := s.UpdateProfile(context.Background(), model.Profile{Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "555", p.Phone)
	require.Len(t, api.calls, 2)
	assert.Equal(t, http.MethodPut, api.calls[0].method)
	assert.Equal(t, http.MethodGet, api.calls[1].method)
}

// The store and the gateway share one State: a 401 on profile fetch logs the
// user out and navigates to the login entry point.
func TestFetchProfile_ExpiredTokenThroughGateway(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code": 200,
				"data": model.LoginResult{Token: "jwt-1", User: &model.Profile{ID: 7, Username: "ada"}},
			})
		case "/api/user/profile":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	mem := storage.NewMemory()
	state, err := Open(ctx, mem, "token", zap.NewNop())
	require.NoError(t, err)

	rec := &nav.Recorder{}
	tr := gateway.NewTransport(config.Gateway{BaseURL: srv.URL, BasePath: "/api", Timeout: time.Second}, "/login", zap.NewNop())
	s := NewStore(state, tr.Client(state, rec), zap.NewNop())

	_, err = s.Login(ctx, "ada", "secret")
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())

	_, err = s.FetchProfile(ctx)
	assert.ErrorIs(t, err, gateway.ErrUnauthorized)

	assert.Equal(t, model.Session{}, s.Snapshot())
	assert.Equal(t, []string{"/login"}, rec.Paths())
	_, err = mem.Get(ctx, "token")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
