package gatehouse

import (
	"log/slog"

	"github.com/xraph/gatehouse/plugin"
	"github.com/xraph/gatehouse/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithCache sets the role-path decision cache.
func WithCache(c Cache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(p)
	}
}
