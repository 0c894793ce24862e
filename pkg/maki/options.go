package maki

import (
	"go.uber.org/zap"

	"github.com/makiscript/gomaki/pkg/logging"
	"github.com/makiscript/gomaki/pkg/maki/cache"
	"github.com/makiscript/gomaki/pkg/maki/program"
	"github.com/makiscript/gomaki/pkg/maki/serialization"
)

// DefaultMaxCallDepth bounds the frame stack unless WithMaxCallDepth says otherwise.
const DefaultMaxCallDepth = 1024

type options struct {
	logger       *zap.Logger
	stepLimit    int
	maxCallDepth int
	cache        *cache.ModuleCache
	loader       *serialization.Loader
}

type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		logger:       zap.NewNop(),
		maxCallDepth: DefaultMaxCallDepth,
		loader:       serialization.DefaultLoader(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.Named(logging.EngineNamespace)
	return o
}

// WithLogger sets the logger for state transitions and native calls, logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStepLimit fails runs that execute more than n instructions. Zero means unlimited.
func WithStepLimit(n int) Option {
	return func(o *options) {
		o.stepLimit = max(n, 0)
	}
}

// WithMaxCallDepth bounds the number of nested frames. Zero or less means unlimited.
func WithMaxCallDepth(n int) Option {
	return func(o *options) {
		o.maxCallDepth = max(n, 0)
	}
}

// WithModuleCache makes Run look modules up in c before decoding them.
func WithModuleCache(c *cache.ModuleCache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithLoader replaces the default loader used by Run. A module cache brings its own loader.
func WithLoader(l *serialization.Loader) Option {
	return func(o *options) {
		if l != nil {
			o.loader = l
		}
	}
}

func (o *options) load(data []byte) (*program.Module, error) {
	if o.cache != nil {
		return o.cache.Load(data)
	}
	return o.loader.Load(data)
}
