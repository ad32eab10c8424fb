package shell

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ghaggin/storefront/internal/backend"
	"github.com/ghaggin/storefront/internal/config"
	"github.com/ghaggin/storefront/internal/gateway"
	"github.com/ghaggin/storefront/internal/guard"
	"github.com/ghaggin/storefront/internal/middleware"
	"github.com/ghaggin/storefront/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type browser struct {
	t      *testing.T
	client *http.Client
	base   string
}

func (b *browser) get(path string) *http.Response {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (b *browser) post(path string, form url.Values) *http.Response {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func assertRedirect(t *testing.T, resp *http.Response, to string) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, to, resp.Header.Get("Location"))
}

// newTestShell starts the development backend and a shell in front of it, and
// returns a browser with its own cookie jar that does not follow redirects.
// Setting revoked makes the backend reject every bearer token with 401.
func newTestShell(t *testing.T) (b *browser, revoked *atomic.Bool, reg *prometheus.Registry) {
	t.Helper()
	log := zap.NewNop()

	c := config.Default()
	repo := repository.OpenJSON(filepath.Join(t.TempDir(), "users.json"), log)
	ctrl, err := backend.NewController(backend.ControllerParams{Logger: log, Config: c, Repo: repo})
	require.NoError(t, err)

	revoked = &atomic.Bool{}
	router := backend.Router(ctrl, log)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if revoked.Load() && r.Header.Get("Authorization") != "" {
			http.Error(w, "token revoked", http.StatusUnauthorized)
			return
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(api.Close)

	c.Gateway.BaseURL = api.URL
	c.Gateway.Timeout = 5 * time.Second

	reg = prometheus.NewRegistry()
	sessions, err := middleware.NewSessionManager(c, log)
	require.NoError(t, err)

	a := &app{
		log:       log,
		key:       c.Storage.Key,
		sessions:  sessions,
		transport: gateway.NewTransport(c.Gateway, c.Shell.LoginPath, log, gateway.WithMetrics(gateway.NewMetrics(reg))),
		guard:     guard.NewDefault(c, log),
	}

	srv := httptest.NewServer(a.router(reg))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &browser{
		t: t,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		base: srv.URL,
	}, revoked, reg
}

func (b *browser) signUpAndLogIn() {
	b.t.Helper()
	assertRedirect(b.t, b.post("/register", url.Values{
		"username": {"ada"},
		"password": {"secret"},
		"email":    {"ada@example.com"},
	}), "/login")
	assertRedirect(b.t, b.post("/login", url.Values{
		"username": {"ada"},
		"password": {"secret"},
	}), "/")
}

func Test_requireAuth(t *testing.T) {
	b, _, _ := newTestShell(t)

	for _, path := range []string{"/cart", "/orders", "/orders/3", "/user", "/admin/products"} {
		assertRedirect(t, b.get(path), "/login")
	}

	for _, path := range []string{"/", "/products", "/products/9", "/login", "/register"} {
		assert.Equal(t, http.StatusOK, b.get(path).StatusCode, path)
	}
}

func Test_loginShowsProtectedPages(t *testing.T) {
	b, _, _ := newTestShell(t)
	b.signUpAndLogIn()

	resp := b.get("/user")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "UserCenter")
	assert.Contains(t, page, "ada@example.com")

	// admin pages only need a session
	assert.Equal(t, http.StatusOK, b.get("/admin").StatusCode)
}

func Test_loginFailureRendersMessage(t *testing.T) {
	b, _, _ := newTestShell(t)

	resp := b.post("/login", url.Values{"username": {"ada"}, "password": {"nope"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "invalid username or password")

	assertRedirect(t, b.get("/cart"), "/login")
}

func Test_logout(t *testing.T) {
	b, _, _ := newTestShell(t)
	b.signUpAndLogIn()
	assert.Equal(t, http.StatusOK, b.get("/cart").StatusCode)

	assertRedirect(t, b.post("/logout", nil), "/")
	assertRedirect(t, b.get("/cart"), "/login")

	// logging out twice is harmless
	assertRedirect(t, b.post("/logout", nil), "/")
}

func Test_revokedTokenForcesLogout(t *testing.T) {
	b, revoked, _ := newTestShell(t)
	b.signUpAndLogIn()
	assert.Equal(t, http.StatusOK, b.get("/cart").StatusCode)

	revoked.Store(true)

	assertRedirect(t, b.get("/cart"), "/login")
	// the browser's token was dropped, so the guard now stops it up front
	// without another backend call
	revoked.Store(false)
	assertRedirect(t, b.get("/user"), "/login")
	assert.Contains(t, body(t, b.get("/")), "Log in")
}

func Test_metrics(t *testing.T) {
	b, _, _ := newTestShell(t)
	b.signUpAndLogIn()
	b.get("/user")

	resp := b.get("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := body(t, resp)
	assert.True(t, strings.Contains(out, "storefront_gateway_requests_total"), out)
}
