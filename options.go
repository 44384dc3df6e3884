// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsync

import (
	"fmt"
	"time"

	"github.com/joeycumines/logiface"
)

// DefaultPendingLimit is the default maximum number of unresolved present
// fences tracked by a Reactor.
const DefaultPendingLimit = 20

// reactorOptions holds configuration options for Reactor creation.
type reactorOptions struct {
	logger       *logiface.Logger[logiface.Event]
	warnRates    map[time.Duration]int
	pendingLimit int
}

// --- Reactor Options ---

// Option configures a Reactor instance.
type Option interface {
	applyReactor(*reactorOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyReactorFunc func(*reactorOptions) error
}

func (o *optionImpl) applyReactor(opts *reactorOptions) error {
	return o.applyReactorFunc(opts)
}

// WithPendingLimit sets the maximum number of unresolved present fences
// retained between calls to Reactor.AddCompletionSignal. When the limit is
// reached, the oldest fence is evicted. Must be positive.
// Defaults to DefaultPendingLimit.
func WithPendingLimit(limit int) Option {
	return &optionImpl{func(opts *reactorOptions) error {
		if limit <= 0 {
			return fmt.Errorf(`%w: %d`, ErrInvalidPendingLimit, limit)
		}
		opts.pendingLimit = limit
		return nil
	}}
}

// WithLogger sets the structured logger. A nil logger disables logging,
// which is also the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *reactorOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithWarnRates configures the rate limits (see
// [github.com/joeycumines/go-catrate]) applied to repeated warnings, e.g.
// pending fence eviction, per category. A nil or empty map disables
// limiting. Defaults to DefaultWarnRates.
func WithWarnRates(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *reactorOptions) error {
		opts.warnRates = rates
		return nil
	}}
}

// resolveOptions applies Option instances to reactorOptions.
func resolveOptions(opts []Option) (*reactorOptions, error) {
	cfg := &reactorOptions{
		pendingLimit: DefaultPendingLimit,
		warnRates:    DefaultWarnRates(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyReactor(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
