package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"fosscord/pkg/client"
	"fosscord/pkg/config"
	"fosscord/pkg/gateway"
	"fosscord/pkg/logger"
	"fosscord/pkg/metrics"
	"fosscord/pkg/rest"
	"fosscord/pkg/sweeper"
)

// App wires the REST transport, the client state layer, the gateway intake
// and the cache sweepers.
type App struct {
	cfg *config.Config

	Metrics *metrics.Metrics
	REST    *rest.Client
	Client  *client.Client

	queue     *gateway.EventQueue
	processor *gateway.Processor
	sweeper   *sweeper.Sweeper

	mu    sync.Mutex
	conn  *gateway.Conn
	srv   *http.Server
	state string
}

// New builds every component from a validated config. Nothing is started;
// call Run.
func New(cfg *config.Config, opts ...client.Option) (*App, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, state: "initialized"}
	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New(cfg.Metrics.Namespace)
	}
	a.REST = rest.NewClient(cfg.REST, rest.WithMetrics(a.Metrics))

	copts := []client.Option{client.WithMetrics(a.Metrics)}
	if cfg.REST.Token != "" {
		copts = append(copts, client.WithToken(cfg.REST.Token))
	}
	a.Client = client.New(a.REST, append(copts, opts...)...)

	a.queue = gateway.NewEventQueue(cfg.Gateway.QueueCapacity)
	a.processor = gateway.NewProcessor(a.queue, a.Client)

	a.sweeper = sweeper.New(a.Metrics)
	if err := a.Client.RegisterSweepers(a.sweeper, cfg.Cache.Sweepers); err != nil {
		return nil, fmt.Errorf("register sweepers: %w", err)
	}
	return a, nil
}

// Queue is the push intake. Producers other than the websocket reader may
// enqueue into it.
func (a *App) Queue() *gateway.EventQueue { return a.queue }

func (a *App) Sweeper() *sweeper.Sweeper { return a.sweeper }

// Run starts the processor and sweepers, dials the gateway when a URL is
// configured, and blocks until ctx is done or the connection fails.
func (a *App) Run(ctx context.Context) error {
	a.processor.Start()
	a.sweeper.Start(ctx)

	errCh := make(chan error, 2)
	if a.cfg.Metrics.Addr != "" {
		a.startHTTP(errCh)
	}

	if a.cfg.Gateway.URL != "" {
		header := http.Header{}
		if tok := a.Client.Token(); tok != "" {
			header.Set("Authorization", tok)
		}
		conn, err := gateway.Dial(ctx, a.cfg.Gateway.URL, header, a.cfg.Gateway.ReadLimit.Int64(), a.queue, a.Metrics)
		if err != nil {
			return err
		}
		a.mu.Lock()
		a.conn = conn
		a.mu.Unlock()
		go func() { errCh <- conn.Run(ctx) }()
	}

	a.setState("running")
	logger.Info("app_running",
		"gateway", a.cfg.Gateway.URL != "",
		"metrics_addr", a.cfg.Metrics.Addr,
		"sweepers", a.sweeper.Targets())

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown closes the connection, then drains the processor and stops the
// sweepers and the probe server.
func (a *App) Shutdown(ctx context.Context) error {
	a.setState("stopping")
	a.mu.Lock()
	conn, srv := a.conn, a.srv
	a.conn, a.srv = nil, nil
	a.mu.Unlock()

	var errs []error
	if conn != nil {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("close gateway: %w", err))
		}
	}
	a.queue.Close()
	a.processor.Stop(ctx)
	a.sweeper.Stop()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}
	a.setState("stopped")
	logger.Info("app_stopped", "processed", a.processor.Processed(), "failed", a.processor.Failed())
	return errors.Join(errs...)
}

func (a *App) State() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *App) setState(s string) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}
