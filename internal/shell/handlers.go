package shell

import (
	"net/http"

	"github.com/ghaggin/storefront/internal/gateway"
	"github.com/ghaggin/storefront/internal/guard"
	"github.com/ghaggin/storefront/internal/middleware"
	"github.com/ghaggin/storefront/internal/model"
	"github.com/ghaggin/storefront/internal/nav"
	"github.com/ghaggin/storefront/internal/session"
	"github.com/ghaggin/storefront/internal/template"
	"go.uber.org/zap"
)

type app struct {
	log       *zap.Logger
	key       string
	sessions  *middleware.SessionManager
	transport *gateway.Transport
	guard     *guard.Guard
}

// loadSession opens the browser's session state from its scs session.
func (a *app) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := session.Open(r.Context(), a.sessions.Storage(r.Context()), a.key, a.log)
		if err != nil {
			a.log.Error("failed opening session", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), st)))
	})
}

// store binds a session store to the request. Navigations requested by the
// gateway are recorded for the handler to follow.
func (a *app) store(r *http.Request) (*session.Store, *nav.Recorder) {
	st, _ := session.FromContext(r.Context())
	rec := &nav.Recorder{}
	return session.NewStore(st, a.transport.Client(st, rec), a.log), rec
}

func (a *app) page(route guard.Route) http.HandlerFunc {
	tmpl := "page.html"
	switch route.Path {
	case a.guard.LoginPath():
		tmpl = "login.html"
	case "/register":
		tmpl = "register.html"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		store, rec := a.store(r)
		td := &template.Data{
			PageTitle: route.Name,
			Path:      r.URL.Path,
			LoggedIn:  store.IsAuthenticated(),
		}

		if route.RequiresAuth {
			p, err := store.FetchProfile(r.Context())
			if to, ok := rec.Last(); ok {
				http.Redirect(w, r, to, http.StatusSeeOther)
				return
			}
			if err != nil {
				td.Error = err.Error()
			}
			td.User = p
		}

		a.render(w, r, tmpl, td)
	}
}

func (a *app) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	store, _ := a.store(r)
	sess, err := store.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		a.render(w, r, "login.html", &template.Data{
			PageTitle: "Login",
			Path:      r.URL.Path,
			Error:     err.Error(),
		})
		return
	}

	a.log.Debug("browser logged in", zap.Stringp("username", usernameOf(sess.User)))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *app) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	store, _ := a.store(r)
	err := store.Register(r.Context(), model.Registration{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		Email:    r.PostFormValue("email"),
		Phone:    r.PostFormValue("phone"),
	})
	if err != nil {
		a.render(w, r, "register.html", &template.Data{
			PageTitle: "Register",
			Path:      r.URL.Path,
			Error:     err.Error(),
		})
		return
	}

	http.Redirect(w, r, a.guard.LoginPath(), http.StatusSeeOther)
}

func (a *app) logout(w http.ResponseWriter, r *http.Request) {
	store, _ := a.store(r)
	store.Logout()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *app) render(w http.ResponseWriter, r *http.Request, tmpl string, td *template.Data) {
	if err := template.Render(w, r, tmpl, td); err != nil {
		a.log.Error("failed rendering template", zap.String("template", tmpl), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func usernameOf(p *model.Profile) *string {
	if p == nil {
		return nil
	}
	return &p.Username
}
