package client

import (
	"context"
	"encoding/json"
	"sync"

	"fosscord/pkg/cache"
	"fosscord/pkg/diagnostics"
	"fosscord/pkg/events"
	"fosscord/pkg/logger"
	"fosscord/pkg/metrics"
	"fosscord/pkg/models"
	"fosscord/pkg/rest"
	"fosscord/pkg/snowflake"
)

// Client owns the local mirror: the guild, user and message stores, the
// action handlers that apply push deltas to them, and the notification bus.
type Client struct {
	rest            rest.Requester
	bus             *events.Bus
	diag            *diagnostics.Diagnostics
	metrics         *metrics.Metrics
	partialMessages bool

	Guilds   *GuildManager
	Users    *UserManager
	Messages *MessageManager
	Actions  *Actions

	mu    sync.RWMutex
	user  *ClientUser
	token string

	handlers map[models.EventKind]HandlerFunc
}

type Option func(*Client)

func WithBus(b *events.Bus) Option {
	return func(c *Client) { c.bus = b }
}

// WithDiagnostics supplies the warn-once context. Each client gets its own by default.
func WithDiagnostics(d *diagnostics.Diagnostics) Option {
	return func(c *Client) { c.diag = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithPartialMessages lets reaction events for uncached messages create a
// partial message instead of being ignored.
func WithPartialMessages() Option {
	return func(c *Client) { c.partialMessages = true }
}

// WithToken sets the initial session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New builds a client over requester with the default handlers registered.
func New(requester rest.Requester, opts ...Option) *Client {
	c := &Client{rest: requester}
	for _, opt := range opts {
		opt(c)
	}
	if c.bus == nil {
		c.bus = events.NewBus()
	}
	if c.diag == nil {
		c.diag = diagnostics.New()
	}
	c.Actions = &Actions{c: c}
	c.Guilds = newGuildManager(c)
	c.Users = newUserManager(c)
	c.Messages = newMessageManager(c)
	c.handlers = make(map[models.EventKind]HandlerFunc)
	RegisterDefaultHandlers(c)
	return c
}

// On subscribes to a notification kind.
func (c *Client) On(kind events.Kind, fn events.Handler) (unsubscribe func()) {
	return c.bus.On(kind, fn)
}

func (c *Client) Bus() *events.Bus { return c.bus }

func (c *Client) Diagnostics() *diagnostics.Diagnostics { return c.diag }

// User returns the authenticated user, or nil before it is known.
func (c *Client) User() *ClientUser {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Client) selfID() snowflake.ID {
	if u := c.User(); u != nil {
		return u.ID
	}
	return 0
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// setToken records a new session token and hands it to the requester when
// the requester can use it.
func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	if ts, ok := c.rest.(rest.TokenSetter); ok {
		ts.SetToken(token)
	}
	logger.Info("client_token_updated")
}

// patchClientUser creates or patches the client user and applies a token
// carried by p once the lock is released.
func (c *Client) patchClientUser(p models.UserPayload) (old, cu *ClientUser, existed, changed bool) {
	c.mu.Lock()
	cu = c.user
	existed = cu != nil
	if !existed {
		cu = &ClientUser{User: User{ID: p.ID}, client: c}
		c.user = cu
	}
	old = cu.Clone()
	cu.patch(p)
	changed = !old.Equal(cu)
	c.mu.Unlock()
	if p.Token != nil {
		c.setToken(*p.Token)
	}
	return old, cu, existed, changed
}

// FetchUser loads the authenticated user from users/@me.
func (c *Client) FetchUser(ctx context.Context) (*ClientUser, error) {
	var p models.UserPayload
	if err := c.request(ctx, "GET", "users/@me", nil, &p); err != nil {
		return nil, err
	}
	return c.Actions.setClientUser(p), nil
}

// Emoji looks a custom emoji up across every cached guild.
func (c *Client) Emoji(id snowflake.ID) (*GuildEmoji, bool) {
	if !id.Valid() {
		return nil, false
	}
	for _, g := range c.Guilds.Cache.Values() {
		if e, ok := g.Emojis.Cache.Get(id); ok {
			return e, true
		}
	}
	return nil, false
}

func (c *Client) emit(e events.Event) {
	c.metrics.Notification(string(e.Kind))
	c.bus.Emit(e)
}

// swallow records a duplicate, late or zero-effect delta.
func (c *Client) swallow(kind models.EventKind, msg string, args ...any) {
	c.metrics.Swallowed(string(kind))
	logger.Debug(msg, args...)
}

func (c *Client) storeOption() cache.Option {
	return cache.WithObserver(c.metrics.CacheDelta)
}

// request performs one call and decodes the response into out when both are
// non-nil. Transport errors are returned as they are.
func (c *Client) request(ctx context.Context, method, path string, body, out any, opts ...rest.RequestOption) error {
	raw, err := c.rest.Request(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return rest.Decode(method, path, json.RawMessage(raw), out)
}

func reasonOpts(reason string) []rest.RequestOption {
	if reason == "" {
		return nil
	}
	return []rest.RequestOption{rest.WithReason(reason)}
}
