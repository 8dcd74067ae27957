package rest

import (
	"context"
	"encoding/json"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"fosscord/pkg/config"
	"fosscord/pkg/logger"
	"fosscord/pkg/metrics"
)

// Client is a fasthttp backed Requester. Every request waits on a token
// bucket first; there is no retry.
type Client struct {
	http      *fasthttp.Client
	root      string
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
	metrics   *metrics.Metrics

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithDial replaces the dialer, e.g. with an in-memory listener in tests.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

// NewClient builds a Client from validated REST config.
func NewClient(rc config.RESTConfig, opts ...Option) *Client {
	c := &Client{
		http: &fasthttp.Client{
			Name:                rc.UserAgent,
			MaxResponseBodySize: int(rc.MaxResponseBodySize.Int64()),
			ReadTimeout:         rc.Timeout.Duration(),
			WriteTimeout:        rc.Timeout.Duration(),
		},
		root:      strings.TrimRight(rc.BaseURL, "/") + "/v" + strconv.Itoa(rc.APIVersion) + "/",
		userAgent: rc.UserAgent,
		timeout:   rc.Timeout.Duration(),
		limiter:   rate.NewLimiter(rate.Limit(rc.RateLimit.RPS), rc.RateLimit.Burst),
		token:     rc.Token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (json.RawMessage, error) {
	o := Apply(opts...)
	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.RESTRequest(method, 0)
		return nil, &RequestError{Method: method, Path: path, Message: "rate limiter wait", Err: err}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	uri := c.root + strings.TrimLeft(path, "/")
	if len(o.Query) > 0 {
		uri += "?" + o.Query.Encode()
	}
	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.SetUserAgent(c.userAgent)
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", tok)
	}
	if o.Reason != "" {
		req.Header.Set("X-Audit-Log-Reason", url.PathEscape(o.Reason))
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &RequestError{Method: method, Path: path, Message: "encode body", Err: err}
		}
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(b)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	start := time.Now()
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		c.metrics.RESTRequest(method, 0)
		logger.Warn("rest_request_failed", "method", method, "path", path, "error", err)
		return nil, &RequestError{Method: method, Path: path, Message: err.Error(), Err: err}
	}

	status := resp.StatusCode()
	c.metrics.RESTRequest(method, status)
	logger.Debug("rest_request", "method", method, "path", path, "status", status, "took", time.Since(start))

	if status < 200 || status > 299 {
		e := &RequestError{Method: method, Path: path, Status: status, Message: fasthttp.StatusMessage(status)}
		var ae apiError
		if json.Unmarshal(resp.Body(), &ae) == nil && ae.Message != "" {
			e.Code = ae.Code
			e.Message = ae.Message
		}
		return nil, e
	}
	if status == fasthttp.StatusNoContent || len(resp.Body()) == 0 {
		return nil, nil
	}
	// resp is released on return
	return append(json.RawMessage(nil), resp.Body()...), nil
}
