package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghaggin/storefront/internal/config"
	"github.com/ghaggin/storefront/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessionStorage_RoundTripAcrossRequests(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	sm, err := NewSessionManager(config.Default(), zap.NewNop())
	require.NoError(err)

	var got string
	var gotErr error
	handler := sm.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := sm.Storage(r.Context())
		switch r.URL.Path {
		case "/set":
			require.NoError(st.Set(context.Background(), "token", "abc"))
		case "/get":
			got, gotErr = st.Get(context.Background(), "token")
		case "/remove":
			require.NoError(st.Remove(context.Background(), "token"))
		}
	}))

	do := func(path string, cookies []*http.Cookie) []*http.Cookie {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if c := rr.Result().Cookies(); len(c) > 0 {
			return c
		}
		return cookies
	}

	cookies := do("/get", nil)
	assert.ErrorIs(gotErr, storage.ErrNotFound)

	cookies = do("/set", cookies)
	require.NotEmpty(cookies)
	assert.Equal("storefront_session", cookies[0].Name)

	do("/get", cookies)
	require.NoError(gotErr)
	assert.Equal("abc", got)

	cookies = do("/remove", cookies)
	do("/get", cookies)
	assert.ErrorIs(gotErr, storage.ErrNotFound)

	// a browser without the cookie sees nothing
	do("/get", nil)
	assert.ErrorIs(gotErr, storage.ErrNotFound)
}
