package hdf5

import "go.uber.org/zap"

// DefaultMaxElements is the largest dataset Value materializes by default.
const DefaultMaxElements = 1 << 24

// Option configures how a file is opened.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	maxElements int
}

func defaultOptions() *options {
	return &options{
		logger:      zap.NewNop(),
		maxElements: DefaultMaxElements,
	}
}

// WithLogger sets the logger used for decoder diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxElements caps the number of elements Dataset.Value decodes.
// Larger datasets must be read with ReadLeading.
func WithMaxElements(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxElements = n
		}
	}
}
