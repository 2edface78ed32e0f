package anvil

import (
	"log/slog"

	"github.com/seantiz/anvil/engine"
)

// Option configures a Manager.
type Option func(*Manager)

// WithEngine sets the execution engine that backs arena contexts. Defaults
// to engine.NewPoolEngine().
func WithEngine(e engine.Engine) Option {
	return func(m *Manager) { m.engine = e }
}

// WithOverrides sets the concurrency-override string, replacing the default
// read of ANVIL_PARALLEL_OVERRIDES.
func WithOverrides(raw string) Option {
	return func(m *Manager) { m.overrides = NewOverrideResolver(raw) }
}

// WithOverrideResolver sets the override resolver directly. Useful when the
// raw string must come from a custom configuration source.
func WithOverrideResolver(r *OverrideResolver) Option {
	return func(m *Manager) { m.overrides = r }
}

// WithLogger sets the structured logger. Defaults to a discarded logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithSink sets the sink that receives a DispatchReport after each dispatch
// completes. Nil (the default) disables reporting.
func WithSink(s Sink) Option {
	return func(m *Manager) { m.sink = s }
}
