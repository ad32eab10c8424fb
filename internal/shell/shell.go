// Package shell serves the storefront's pages. Each browser's token lives in
// its scs session, every page is guarded by the route table, and all backend
// calls go through the request gateway bound to that browser's session.
package shell

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ghaggin/storefront/internal/config"
	"github.com/ghaggin/storefront/internal/gateway"
	"github.com/ghaggin/storefront/internal/guard"
	"github.com/ghaggin/storefront/internal/middleware"
	"github.com/ghaggin/storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Shell struct {
	log    *zap.Logger
	server *http.Server
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Config    *config.Config
	Sessions  *middleware.SessionManager
	Transport *gateway.Transport
	Guard     *guard.Guard
	Gatherer  prometheus.Gatherer `optional:"true"`
}

func New(p Params) (*Shell, error) {
	a := &app{
		log:       p.Log,
		key:       p.Config.Storage.Key,
		sessions:  p.Sessions,
		transport: p.Transport,
		guard:     p.Guard,
	}

	return &Shell{
		log: p.Log,
		server: &http.Server{
			Addr:    fmt.Sprintf("localhost:%d", p.Config.Shell.Port),
			Handler: a.router(p.Gatherer),
		},
	}, nil
}

func RegisterHooks(lc fx.Lifecycle, s *Shell) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.server.Shutdown,
	})
}

func (s *Shell) Start(_ context.Context) error {
	go func() {
		s.log.Info("shell listening", zap.String("addr", s.server.Addr))
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("error shutting down server", zap.Error(err))
		}
	}()
	return nil
}

func (a *app) router(gatherer prometheus.Gatherer) http.Handler {
	root := chi.NewRouter()
	root.Use(a.sessions.Wrap)
	root.Use(a.loadSession)

	if gatherer != nil {
		root.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Actions
	root.Post(a.guard.LoginPath(), a.login)
	root.Post("/register", a.register)
	root.Post("/logout", a.logout)

	// Pages
	root.Group(func(r chi.Router) {
		r.Use(a.guard.Middleware(authFor))
		for _, route := range a.guard.Routes() {
			r.Get(route.Path, a.page(route))
		}
	})

	return root
}

type unauthenticated struct{}

func (unauthenticated) IsAuthenticated() bool { return false }

func authFor(r *http.Request) guard.Authenticator {
	st, ok := session.FromContext(r.Context())
	if !ok {
		return unauthenticated{}
	}
	return st
}
