package facetgo

import (
	"log/slog"

	"github.com/hupe1980/facetgo/codec"
	"github.com/hupe1980/facetgo/shard"
)

type options struct {
	explicitValueCap int
	parallelism      int
	codec            codec.Codec
	logger           *Logger
}

// Option configures a Unique aggregation.
//
// Options exist to avoid exploding the API surface with constructor
// variants; the zero configuration is a sane production default.
type Option func(*options)

// WithExplicitValueCap overrides the largest per-slot distinct count for
// which a shard ships its full value list (default
// shard.DefaultExplicitValueCap).
//
// Shards and the coordinator must agree on the cap: the merger validates
// incoming partials against its own. Raising the cap widens the exact tier
// at the price of larger shard responses.
func WithExplicitValueCap(cap int) Option {
	return func(o *options) {
		if cap > 0 {
			o.explicitValueCap = cap
		}
	}
}

// WithParallelism bounds the number of segments collected concurrently by
// Aggregate. Values below 1 mean one goroutine per segment.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithCodec configures the codec used for transport blocks.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := facetgo.NewJSONLogger(slog.LevelInfo)
//	agg, _ := facetgo.NewUnique(field, slots, facetgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		explicitValueCap: shard.DefaultExplicitValueCap,
		codec:            codec.Default,
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
