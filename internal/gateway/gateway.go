// Package gateway is the single path from the shell to the storefront
// backend. It attaches the session's bearer token to outgoing requests,
// unwraps the backend's {code, message, data} envelope and applies failure
// policies such as forcing a logout on 401.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ghaggin/storefront/internal/config"
	"github.com/ghaggin/storefront/internal/nav"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const maxBodySize = 4 << 20

// Transport holds what is shared by every Client: the base URL, the timeout
// ceiling, the HTTP client and metrics.
type Transport struct {
	baseURL string
	timeout time.Duration
	policy  Policy
	http    *http.Client
	metrics *Metrics
	log     *zap.Logger
}

type Option func(*Transport)

func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		t.http = c
	}
}

func WithMetrics(m *Metrics) Option {
	return func(t *Transport) {
		t.metrics = m
	}
}

// WithPolicy replaces the default failure policy.
func WithPolicy(p Policy) Option {
	return func(t *Transport) {
		t.policy = p
	}
}

func NewTransport(c config.Gateway, loginPath string, log *zap.Logger, opts ...Option) *Transport {
	t := &Transport{
		baseURL: strings.TrimRight(c.BaseURL, "/") + "/" + strings.Trim(c.BasePath, "/"),
		timeout: c.Timeout,
		policy:  ForceLogout(loginPath),
		http:    &http.Client{},
		log:     log,
	}
	t.baseURL = strings.TrimRight(t.baseURL, "/")

	for _, opt := range opts {
		opt(t)
	}
	if t.metrics == nil {
		t.metrics = NewMetrics(nil)
	}
	return t
}

type Params struct {
	fx.In

	Config   *config.Config
	Log      *zap.Logger
	Registry prometheus.Registerer `optional:"true"`
}

// New is the fx constructor for Transport.
func New(p Params) *Transport {
	return NewTransport(p.Config.Gateway, p.Config.Shell.LoginPath, p.Log, WithMetrics(NewMetrics(p.Registry)))
}

// Client binds the transport to one session and one navigator.
// A nil navigator drops navigations.
func (t *Transport) Client(sess Session, n nav.Navigator) *Client {
	if n == nil {
		n = nav.Func(func(context.Context, string) {})
	}
	return &Client{
		t:    t,
		sess: sess,
		nav:  n,
	}
}

type Client struct {
	t    *Transport
	sess Session
	nav  nav.Navigator
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Do sends one request and decodes the envelope's data into out. Callers see
// either business success (nil) or a failure: *BusinessError, *StatusError, an
// error matching ErrTimeout, or the underlying network error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	start := time.Now()

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		c.t.metrics.observe(method, outcomeRejected, start)
		return err
	}

	// a zero ceiling means no deadline beyond the caller's context
	ctx = req.Context()
	if c.t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.t.timeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	log := c.t.log.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
	)

	resp, err := c.t.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.t.metrics.observe(method, outcomeTimeout, start)
			log.Warn("backend request timed out", zap.Duration("timeout", c.t.timeout))
			return fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		c.t.metrics.observe(method, outcomeNetwork, start)
		log.Warn("backend request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if isTimeout(err) {
			c.t.metrics.observe(method, outcomeTimeout, start)
			return fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		c.t.metrics.observe(method, outcomeNetwork, start)
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.t.metrics.observe(method, outcomeStatus, start)
		serr := &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       b,
		}
		log.Info("backend rejected request", zap.Int("status", resp.StatusCode))
		if c.t.policy != nil {
			c.t.policy(ctx, serr, c.sess, c.nav)
		}
		return serr
	}

	if err := unwrap(b, out); err != nil {
		c.t.metrics.observe(method, outcomeBusiness, start)
		log.Debug("backend reported failure", zap.Error(err))
		return err
	}

	c.t.metrics.observe(method, outcomeOK, start)
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	token, err := c.sess.Token()
	if err != nil {
		return nil, fmt.Errorf("read session token: %w", err)
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.t.baseURL+"/"+strings.TrimLeft(path, "/"), r)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
