// Package api is the HTTP client of the admin REST backend: bearer token
// per request, error classification and list envelope normalization.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"golang.org/x/time/rate"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/auth"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/config"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger"
)

const (
	// HeaderRequestID carries the request id to the backend.
	HeaderRequestID = "X-Request-Id"

	maxBodyBytes = 32 << 20
)

var errMalformed = errors.New("malformed response")

// Options configures a Client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	UserAgent    string
	MaxIdleConns int
	// RequestsPerSecond throttles outgoing calls; zero disables throttling.
	RequestsPerSecond float64
	Burst             int
	Token             auth.TokenProvider
	Logger            logger.Logger
	// HTTPClient overrides the transport built from the fields above.
	HTTPClient *http.Client
	Now        func() time.Time
}

// OptionsFromConfig maps the api config section onto client Options.
func OptionsFromConfig(cfg config.APIConfig, token auth.TokenProvider, log logger.Logger) Options {
	return Options{
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout,
		UserAgent:         cfg.UserAgent,
		MaxIdleConns:      cfg.MaxIdleConns,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.BurstSize,
		Token:             token,
		Logger:            log,
	}
}

// Client performs authenticated JSON requests against the admin API.
type Client struct {
	base      *url.URL
	http      *http.Client
	token     auth.TokenProvider
	limiter   *rate.Limiter
	userAgent string
	log       logger.Logger
	now       func() time.Time
}

// Response is a successful (2xx) response.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, ewrap.New("api base url must be an absolute URL").WithMetadata("base_url", opts.BaseURL)
	}

	if opts.Token == nil {
		return nil, ewrap.New("api token provider is required")
	}

	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.MaxIdleConns > 0 {
			transport.MaxIdleConns = opts.MaxIdleConns
			transport.MaxIdleConnsPerHost = opts.MaxIdleConns
		}

		httpClient = &http.Client{Timeout: opts.Timeout, Transport: transport}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(opts.Burst, 1))
	}

	return &Client{
		base:      base,
		http:      httpClient,
		token:     opts.Token,
		limiter:   limiter,
		userAgent: opts.UserAgent,
		log:       opts.Logger,
		now:       opts.Now,
	}, nil
}

// Do sends one request. body, when non-nil, is sent as JSON. Any failure is
// returned as an *Error.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	requestID, ok := logger.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
		ctx = logger.ContextWithRequestID(ctx, requestID)
	}

	fail := func(kind Kind, err error) *Error {
		return &Error{Kind: kind, Method: method, Path: path, RequestID: requestID, Err: err}
	}

	token, err := c.token.Token(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fail(KindCanceled, ctx.Err())
		}

		return nil, fail(KindAuth, err)
	}

	if err := auth.CheckToken(token, c.now()); err != nil {
		return nil, fail(KindAuth, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fail(KindCanceled, err)
		}
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, fail(KindUnknown, err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(HeaderRequestID, requestID)

	log := c.log.WithContext(ctx).WithFields(logger.F("method", method), logger.F("path", path))
	started := c.now()

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fail(KindCanceled, ctx.Err())
		}

		log.WithError(err).Debug("api request failed")

		return nil, fail(KindNetwork, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fail(KindCanceled, ctx.Err())
		}

		return nil, fail(KindNetwork, ewrap.Wrap(err, "reading response body"))
	}

	log.WithFields(
		logger.F("status", resp.StatusCode),
		logger.F("duration", c.now().Sub(started)),
	).Debug("api request")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{
			Kind:      kindForStatus(resp.StatusCode),
			Status:    resp.StatusCode,
			Message:   errorMessage(payload),
			Method:    method,
			Path:      path,
			RequestID: requestID,
		}
	}

	return &Response{
		Status:    resp.StatusCode,
		Header:    resp.Header,
		Body:      payload,
		RequestID: requestID,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := c.base.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, ewrap.Wrap(err, "encoding request body")
		}

		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, ewrap.Wrap(err, "building request")
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	return req, nil
}
