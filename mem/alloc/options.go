package alloc

import "log/slog"

// Option configures a Context.
type Option func(*config)

type config struct {
	backend       Backend
	logger        *slog.Logger
	mmapThreshold int
	userdata      any
	counterSlots  int
}

// WithBackend supplies the backend for New, or the budget's source backend for NewQuota.
func WithBackend(b Backend) Option {
	return func(c *config) { c.backend = b }
}

// WithLogger routes the context's debug logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMmapThreshold sets the System backend's page-mapping threshold.
// See NewSystemBackend for the meaning of zero and negative values.
func WithMmapThreshold(n int) Option {
	return func(c *config) { c.mmapThreshold = n }
}

// WithUserdata presets the context's user-data slot.
func WithUserdata(v any) Option {
	return func(c *config) { c.userdata = v }
}

// WithCounterSlabSlots sets how many counter records share one slab.
func WithCounterSlabSlots(n int) Option {
	return func(c *config) { c.counterSlots = n }
}

func buildConfig(opts []Option) config {
	cfg := config{counterSlots: defaultCounterSlots}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = defaultLogger()
	}
	return cfg
}
