package diagnostics

import (
	"sync"

	"fosscord/pkg/logger"
)

// Diagnostics remembers which one-time warnings a client has already logged.
type Diagnostics struct {
	mu     sync.Mutex
	warned map[string]struct{}
}

func New() *Diagnostics {
	return &Diagnostics{warned: make(map[string]struct{})}
}

// WarnOnce logs msg the first time key is seen and reports whether it logged.
func (d *Diagnostics) WarnOnce(key, msg string, args ...any) bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	if _, ok := d.warned[key]; ok {
		d.mu.Unlock()
		return false
	}
	d.warned[key] = struct{}{}
	d.mu.Unlock()
	logger.Warn(msg, append([]any{"key", key}, args...)...)
	return true
}

// Warned reports whether key has been warned about.
func (d *Diagnostics) Warned(key string) bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.warned[key]
	return ok
}
