package swiftcsv

import "log/slog"

type options struct {
	logger     *slog.Logger
	bufferSize int
}

// Option configures a Parser or Printer.
type Option func(*options)

// WithLogger sets the logger used for diagnostics. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithBufferSize sets the size of the internal read or write buffer.
func WithBufferSize(size int) Option {
	return func(opts *options) {
		if size > 0 {
			opts.bufferSize = size
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:     slog.New(slog.DiscardHandler),
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
