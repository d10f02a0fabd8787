package task

// Option configures a spawned task.
type Option func(*options)

type options struct {
	logger    Logger
	logConfig *LogConfig
}

// WithLogger overrides the logger used for this task's lifecycle events.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLogConfig overrides the default lifecycle log configuration for this
// task.
func WithLogConfig(cfg *LogConfig) Option {
	return func(o *options) {
		o.logConfig = cfg
	}
}

func parseOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger
	}
	o.logConfig = o.logConfig.parse()
	return o
}
