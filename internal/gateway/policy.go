package gateway

import (
	"context"
	"net/http"

	"github.com/ghaggin/storefront/internal/nav"
)

// Session is the narrow view of the session state the gateway is allowed: read
// the token, and force a logout.
type Session interface {
	Token() (string, error)
	Logout()
}

// Policy reacts to a transport level failure before the error reaches the
// caller. Policies must not swallow the error; the gateway always returns it.
type Policy func(ctx context.Context, err *StatusError, sess Session, n nav.Navigator)

// ForceLogout clears the session and navigates to loginPath when the backend
// rejects the credential with 401.
func ForceLogout(loginPath string) Policy {
	return func(ctx context.Context, err *StatusError, sess Session, n nav.Navigator) {
		if err.StatusCode != http.StatusUnauthorized {
			return
		}
		sess.Logout()
		n.Navigate(ctx, loginPath)
	}
}

// Chain runs policies in order.
func Chain(policies ...Policy) Policy {
	return func(ctx context.Context, err *StatusError, sess Session, n nav.Navigator) {
		for _, p := range policies {
			p(ctx, err, sess, n)
		}
	}
}
