// Package api is the REST client for the rating backend. It keeps the cookie
// session, classifies failures and intercepts expired sessions.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 15 * time.Second
	LoginPath      = "/login"
)

// AuthFailureFunc is called once per burst of 401/403 responses with the
// login location carrying the originating path.
type AuthFailureFunc func(ctx context.Context, loginURL string)

type Options struct {
	BaseURL       string
	Timeout       time.Duration
	UserAgent     string
	OnAuthFailure AuthFailureFunc
	// HTTPClient replaces the transport, e.g. in tests. Its cookie jar is
	// replaced by the client's own.
	HTTPClient *http.Client
}

type Client struct {
	rc          *resty.Client
	logger      *zap.Logger
	onAuthFail  AuthFailureFunc
	redirecting atomic.Bool
}

func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("api base url is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetCookieJar(jar).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader("X-Request-ID", uuid.NewString())
		return nil
	})

	return &Client{
		rc:         rc,
		logger:     logger,
		onAuthFail: opts.OnAuthFailure,
	}, nil
}

// SetAuthFailureHandler installs the redirect hook after construction.
func (c *Client) SetAuthFailureHandler(fn AuthFailureFunc) {
	c.onAuthFail = fn
}

type originKey struct{}

// WithOrigin records the view path a command was issued from, so an auth
// redirect can send the user back there after login.
func WithOrigin(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, originKey{}, path)
}

func Origin(ctx context.Context) string {
	if p, ok := ctx.Value(originKey{}).(string); ok && p != "" {
		return p
	}
	return "/"
}

// LoginURL is the login view location that returns to from after login.
func LoginURL(from string) string {
	return LoginPath + "?from=" + url.QueryEscape(from)
}

// call describes one request.
type call struct {
	method      string
	path        string
	body        any
	result      any
	requireAuth bool
	fallback    string // message when the server sent none
}

func (c *Client) do(ctx context.Context, cl call) (*resty.Response, error) {
	errBody := &errorBody{}
	req := c.rc.R().SetContext(ctx).SetError(errBody)
	if cl.body != nil {
		req.SetBody(cl.body)
	}
	if cl.result != nil {
		req.SetResult(cl.result)
	}

	resp, err := req.Execute(cl.method, cl.path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("Request failed",
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	status := resp.StatusCode()
	if cl.requireAuth && (status == http.StatusUnauthorized || status == http.StatusForbidden) {
		c.handleAuthFailure(ctx, cl.path, status)
		return resp, ErrUnauthorized
	}
	if resp.IsError() || status >= http.StatusMultipleChoices {
		serr := newServerError(status, errBody, cl.fallback)
		c.logger.Info("Request rejected",
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.Int("status", status),
			zap.String("message", serr.Message))
		return resp, serr
	}

	c.redirecting.Store(false)
	return resp, nil
}

func (c *Client) handleAuthFailure(ctx context.Context, path string, status int) {
	if !c.redirecting.CompareAndSwap(false, true) {
		c.logger.Debug("Redirect already in progress", zap.String("path", path), zap.Int("status", status))
		return
	}
	loginURL := LoginURL(Origin(ctx))
	c.logger.Info("Authentication failed, redirecting to login",
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("location", loginURL))
	if c.onAuthFail != nil {
		c.onAuthFail(ctx, loginURL)
	}
}
