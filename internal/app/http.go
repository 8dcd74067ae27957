package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fosscord/pkg/logger"
)

// Handler serves the probes and, when metrics are enabled, /metrics.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthzHandler)
	mux.HandleFunc("/readyz", a.readyzHandler)
	if a.Metrics != nil {
		mux.Handle("/metrics", a.Metrics.Handler())
	}
	return mux
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, map[string]any{"status": "ok"})
}

// readyzHandler reports ready once Run has started and the client user is
// known or no gateway is configured.
func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	state := a.State()
	body := map[string]any{
		"state":       state,
		"queue_len":   a.queue.Len(),
		"queue_cap":   a.queue.Cap(),
		"dropped":     a.queue.Dropped(),
		"processed":   a.processor.Processed(),
		"guilds":      a.Client.Guilds.Cache.Len(),
		"messages":    a.Client.Messages.Cache.Len(),
		"client_user": a.Client.User() != nil,
	}
	if state != "running" {
		body["status"] = "not ready"
		writeStatus(w, http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "ok"
	writeStatus(w, http.StatusOK, body)
}

func writeStatus(w http.ResponseWriter, code int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// startHTTP serves Handler on the metrics address. A listen failure is
// reported on errCh.
func (a *App) startHTTP(errCh chan<- error) {
	srv := &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.mu.Lock()
	a.srv = srv
	a.mu.Unlock()
	go func() {
		logger.Info("http_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_failed", "error", err)
			errCh <- err
		}
	}()
}
