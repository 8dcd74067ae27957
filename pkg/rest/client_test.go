package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"fosscord/pkg/config"
	"fosscord/pkg/metrics"
)

type seen struct {
	method, path, query, auth, reason, contentType, body string
}

func startServer(t *testing.T, handler fasthttp.RequestHandler) (func(string) (net.Conn, error), *[]seen) {
	t.Helper()
	var log []seen
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		log = append(log, seen{
			method:      string(ctx.Method()),
			path:        string(ctx.Path()),
			query:       string(ctx.QueryArgs().QueryString()),
			auth:        string(ctx.Request.Header.Peek("Authorization")),
			reason:      string(ctx.Request.Header.Peek("X-Audit-Log-Reason")),
			contentType: string(ctx.Request.Header.ContentType()),
			body:        string(ctx.PostBody()),
		})
		handler(ctx)
	}}
	go srv.Serve(ln) //nolint:errcheck
	t.Cleanup(func() { ln.Close() })
	return func(string) (net.Conn, error) { return ln.Dial() }, &log
}

func testConfig() config.RESTConfig {
	cfg := config.Default().REST
	cfg.BaseURL = "http://fosscord.test/api"
	cfg.Token = "Bot abc"
	cfg.Timeout = config.Duration(2 * time.Second)
	return cfg
}

func TestRequestSendsJSONAndHeaders(t *testing.T) {
	dial, log := startServer(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"id":"10","name":"mods"}`)
	})
	c := NewClient(testConfig(), WithDial(dial))

	raw, err := c.Request(context.Background(), "POST", "guilds/1/roles",
		map[string]any{"name": "mods"}, WithReason("needed a role"), WithQuery("limit", "5"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"10","name":"mods"}`, string(raw))

	require.Len(t, *log, 1)
	got := (*log)[0]
	assert.Equal(t, "POST", got.method)
	assert.Equal(t, "/api/v9/guilds/1/roles", got.path)
	assert.Equal(t, "limit=5", got.query)
	assert.Equal(t, "Bot abc", got.auth)
	assert.Equal(t, "needed%20a%20role", got.reason)
	assert.Equal(t, "application/json", got.contentType)
	assert.JSONEq(t, `{"name":"mods"}`, got.body)
}

func TestRequestErrorCarriesAPIError(t *testing.T) {
	dial, _ := startServer(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusForbidden)
		ctx.SetBodyString(`{"code":50013,"message":"Missing Permissions"}`)
	})
	m := metrics.New("rest_test")
	c := NewClient(testConfig(), WithDial(dial), WithMetrics(m))

	_, err := c.Request(context.Background(), "PATCH", "guilds/1/roles/2", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemoteRequestFailed))

	var re *RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 403, re.Status)
	assert.Equal(t, 50013, re.Code)
	assert.Equal(t, "Missing Permissions", re.Message)
	assert.Equal(t, "PATCH", re.Method)
	n, err := testutil.GatherAndCount(m.Registry(), "rest_test_rest_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNoContent(t *testing.T) {
	dial, log := startServer(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNoContent)
	})
	c := NewClient(testConfig(), WithDial(dial))

	raw, err := c.Request(context.Background(), "DELETE", "/guilds/1/roles/2", nil)
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.Equal(t, "DELETE", (*log)[0].method)
	assert.Empty(t, (*log)[0].body)
}

func TestTokenSwap(t *testing.T) {
	dial, log := startServer(t, func(ctx *fasthttp.RequestCtx) { ctx.SetBodyString("{}") })
	c := NewClient(testConfig(), WithDial(dial))
	var _ TokenSetter = c

	c.SetToken("new-token")
	_, err := c.Request(context.Background(), "GET", "users/@me", nil)
	require.NoError(t, err)
	assert.Equal(t, "new-token", (*log)[0].auth)
	assert.Equal(t, "new-token", c.Token())
}

func TestTransportFailure(t *testing.T) {
	c := NewClient(testConfig(), WithDial(func(string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}))
	_, err := c.Request(context.Background(), "GET", "users/1", nil)
	require.Error(t, err)
	var re *RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 0, re.Status)
	assert.True(t, errors.Is(err, ErrRemoteRequestFailed))
}

func TestCancelledContextBeforeSend(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.RPS = 0.001
	cfg.RateLimit.Burst = 1
	dial, _ := startServer(t, func(ctx *fasthttp.RequestCtx) { ctx.SetBodyString("{}") })
	c := NewClient(cfg, WithDial(dial))

	_, err := c.Request(context.Background(), "GET", "users/1", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Request(ctx, "GET", "users/1", nil)
	assert.True(t, errors.Is(err, ErrRemoteRequestFailed))
}

func TestRequesterFunc(t *testing.T) {
	var r Requester = RequesterFunc(func(_ context.Context, method, path string, _ any, opts ...RequestOption) (json.RawMessage, error) {
		o := Apply(opts...)
		return json.RawMessage(`"` + method + " " + path + " " + o.Reason + `"`), nil
	})
	raw, err := r.Request(context.Background(), "GET", "x", nil, WithReason("r"))
	require.NoError(t, err)
	assert.Equal(t, `"GET x r"`, string(raw))
}
