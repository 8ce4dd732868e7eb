// Package service holds the per-entity services that sit between the
// presentation layer and the backing store.
//
// Every operation is one logical request: it issues the store calls it
// needs, maps rows through the mapping package and returns the state as
// stored after the write. Failures are logged and returned as *OpError;
// nothing is retried or recovered here.
package service

import (
	"context"
	"log/slog"
	"time"
)

type options struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a service
type Option func(*options)

// WithLogger sets the logger failures are reported to. A nil logger
// disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock sets the clock used for derived timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// fail logs a failed operation and wraps err as an *OpError
func (o options) fail(ctx context.Context, op, table, id string, err error) error {
	o.logger.ErrorContext(ctx, "store operation failed",
		"op", op,
		"table", table,
		"id", id,
		"error", err,
	)
	return &OpError{Op: op, ID: id, Err: err}
}
