// Package backend is a development stand-in for the storefront API. It
// implements the auth and profile endpoints the shell consumes, answering
// with the same {code, message, data} envelope.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ghaggin/storefront/internal/config"
	"github.com/ghaggin/storefront/internal/gateway"
	"github.com/ghaggin/storefront/internal/model"
	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// codeError is the envelope code the storefront API uses for failed
// operations.
const codeError = 500

type Backend struct {
	log    *zap.Logger
	server *http.Server
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Config     *config.Config
	Controller *Controller
}

func New(p Params) (*Backend, error) {
	return &Backend{
		log: p.Log,
		server: &http.Server{
			Addr:    fmt.Sprintf("localhost:%d", p.Config.Backend.Port),
			Handler: Router(p.Controller, p.Log),
		},
	}, nil
}

// RegisterHooks should be invoked by fx
func RegisterHooks(lc fx.Lifecycle, b *Backend) {
	lc.Append(fx.Hook{
		OnStart: b.Start,
		OnStop:  b.server.Shutdown,
	})
}

func (b *Backend) Start(_ context.Context) error {
	go func() {
		b.log.Info("backend listening", zap.String("addr", b.server.Addr))
		err := b.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.log.Error("error starting server", zap.Error(err))
		}
	}()
	return nil
}

func Router(c *Controller, log *zap.Logger) http.Handler {
	h := &handlers{c: c, log: log}

	root := chi.NewRouter()
	root.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.login)
		r.Post("/auth/register", h.register)

		r.Group(func(r chi.Router) {
			r.Use(h.requireBearer)
			r.Get("/user/profile", h.getProfile)
			r.Put("/user/profile", h.putProfile)
		})
	})

	return root
}

type handlers struct {
	c   *Controller
	log *zap.Logger
}

type userIDKey struct{}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.c.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		h.log.Info("login rejected", zap.String("username", creds.Username), zap.Error(err))
		h.fail(w, http.StatusOK, err)
		return
	}

	h.log.Info("login accepted", zap.String("username", creds.Username), zap.Int64("user_id", res.User.ID))
	h.ok(w, "", res)
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}

	if err := h.c.Register(r.Context(), reg); err != nil {
		h.log.Info("registration rejected", zap.String("username", reg.Username), zap.Error(err))
		h.fail(w, http.StatusOK, err)
		return
	}

	h.ok(w, "registered", nil)
}

func (h *handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(userIDKey{}).(int64)

	p, err := h.c.Profile(r.Context(), id)
	if err != nil {
		h.fail(w, http.StatusOK, err)
		return
	}
	h.ok(w, "", p)
}

func (h *handlers) putProfile(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(userIDKey{}).(int64)

	var p model.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}

	if err := h.c.UpdateProfile(r.Context(), id, p); err != nil {
		h.fail(w, http.StatusOK, err)
		return
	}
	h.ok(w, "updated", nil)
}

// requireBearer rejects requests without a valid token at the transport
// level, which is what makes clients drop their session.
func (h *handlers) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			h.write(w, http.StatusUnauthorized, gateway.Envelope{Code: http.StatusUnauthorized, Message: "not logged in"})
			return
		}

		id, err := h.c.Authenticate(token)
		if err != nil {
			h.log.Debug("bearer token rejected", zap.Error(err))
			h.write(w, http.StatusUnauthorized, gateway.Envelope{Code: http.StatusUnauthorized, Message: "invalid token"})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, id)))
	})
}

func (h *handlers) ok(w http.ResponseWriter, msg string, data any) {
	env := gateway.Envelope{Code: gateway.SuccessCode, Message: msg}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			h.fail(w, http.StatusInternalServerError, err)
			return
		}
		env.Data = b
	}
	h.write(w, http.StatusOK, env)
}

func (h *handlers) fail(w http.ResponseWriter, status int, err error) {
	h.write(w, status, gateway.Envelope{Code: codeError, Message: err.Error()})
}

func (h *handlers) write(w http.ResponseWriter, status int, env gateway.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		h.log.Error("failed writing response", zap.Error(err))
	}
}
