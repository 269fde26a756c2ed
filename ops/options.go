package ops

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

type config struct {
	registry   *prometheus.Registry
	middleware func(http.Handler) http.Handler
}

// Option configures the ops handler.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithRegistry serves /metrics from the given registry instead of the
// process-wide default.
func WithRegistry(reg *prometheus.Registry) Option {
	return optionFunc(func(c *config) {
		c.registry = reg
	})
}

// WithMiddleware wraps the whole ops surface, e.g. for auth.
func WithMiddleware(mw func(http.Handler) http.Handler) Option {
	return optionFunc(func(c *config) {
		c.middleware = mw
	})
}
