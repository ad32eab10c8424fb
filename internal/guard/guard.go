// Package guard decides, before a page is shown, whether the current session
// may navigate to it.
package guard

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ghaggin/storefront/internal/config"
	"github.com/ghaggin/storefront/internal/nav"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Outcome int

const (
	Pending Outcome = iota
	Allowed
	Redirected
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Redirected:
		return "redirected"
	default:
		return "pending"
	}
}

// Decision is the terminal result of one navigation attempt.
type Decision struct {
	Route    Route
	Outcome  Outcome
	Location string
}

type Authenticator interface {
	IsAuthenticated() bool
}

type Guard struct {
	mux       *chi.Mux
	routes    map[string]Route
	loginPath string
	log       *zap.Logger
}

func New(routes []Route, loginPath string, log *zap.Logger) *Guard {
	g := &Guard{
		mux:       chi.NewRouter(),
		routes:    make(map[string]Route, len(routes)),
		loginPath: loginPath,
		log:       log,
	}

	noop := func(http.ResponseWriter, *http.Request) {}
	for _, r := range routes {
		pattern := strings.ToLower(r.Path)
		g.routes[pattern] = r
		g.mux.Get(pattern, noop)
	}

	return g
}

// NewDefault is the fx constructor: the built-in route table and the
// configured login entry point.
func NewDefault(c *config.Config, log *zap.Logger) *Guard {
	return New(DefaultRoutes(), c.Shell.LoginPath, log)
}

func (g *Guard) LoginPath() string {
	return g.loginPath
}

func (g *Guard) Routes() []Route {
	out := make([]Route, 0, len(g.routes))
	for _, r := range g.routes {
		out = append(out, r)
	}
	return out
}

// Resolve finds the declared route for a concrete path. Query, fragment and a
// trailing slash are ignored and matching is case-insensitive. Paths outside
// the table resolve to a route with no requirements.
func (g *Guard) Resolve(path string) (Route, bool) {
	rctx := chi.NewRouteContext()
	if !g.mux.Match(rctx, http.MethodGet, matchPath(path)) {
		return Route{Path: path}, false
	}

	r, ok := g.routes[rctx.RoutePattern()]
	if !ok {
		return Route{Path: path}, false
	}
	return r, true
}

func matchPath(target string) string {
	p := target
	if u, err := url.Parse(target); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return strings.ToLower(p)
}

// Check applies the route's requirements to the session. RequiresAdmin is not
// enforced: profiles carry no role to check it against.
func (g *Guard) Check(route Route, auth Authenticator) Decision {
	if route.RequiresAuth && !auth.IsAuthenticated() {
		return Decision{Route: route, Outcome: Redirected, Location: g.loginPath}
	}
	return Decision{Route: route, Outcome: Allowed}
}

// Navigate resolves path, checks it and performs exactly one navigation:
// to path when allowed, to the login entry point otherwise.
func (g *Guard) Navigate(ctx context.Context, path string, auth Authenticator, n nav.Navigator) Decision {
	route, _ := g.Resolve(path)
	d := g.Check(route, auth)

	target := path
	if d.Outcome == Redirected {
		target = d.Location
		g.log.Debug("navigation redirected", zap.String("path", path), zap.String("to", target))
	}
	n.Navigate(ctx, target)
	return d
}

// Middleware guards an HTTP route tree. authFor returns the session for the
// request being served.
func (g *Guard) Middleware(authFor func(r *http.Request) Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, _ := g.Resolve(r.URL.Path)
			if d := g.Check(route, authFor(r)); d.Outcome == Redirected {
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
