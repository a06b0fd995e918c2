package musicdb

import (
	"log/slog"

	"tunesync/internal/logging"
)

// Option configures decoding.
type Option func(*options)

type options struct {
	ids    IDEncoding
	logger *slog.Logger
}

func newOptions(opts []Option) options {
	o := options{ids: PaddedIDs}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	return o
}

// WithIDEncoding selects the id rendering for track records and playlist
// references.
func WithIDEncoding(e IDEncoding) Option {
	return func(o *options) { o.ids = e }
}

// WithLogger routes decode diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}
