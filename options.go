// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package kernel

import "github.com/joeycumines/logiface"

// poolOptions holds configuration resolved from Option values passed to
// NewThreadPool.
type poolOptions struct {
	timeSliceTicks int32
	agingTicks     int32
	metricsEnabled bool
	logger         *logiface.Logger[logiface.Event]
}

// Option configures a ThreadPool created by NewThreadPool.
type Option interface {
	applyPool(*poolOptions)
}

// optionImpl implements Option.
type optionImpl struct {
	applyPoolFunc func(*poolOptions)
}

func (o *optionImpl) applyPool(opts *poolOptions) {
	o.applyPoolFunc(opts)
}

// WithTimeSlice sets the number of timer ticks each thread runs before the
// scheduler asks the owning Processor to preempt it. Values <= 0 fall back
// to defaultTimeSliceTicks.
func WithTimeSlice(ticks int32) Option {
	return &optionImpl{func(opts *poolOptions) {
		opts.timeSliceTicks = ticks
	}}
}

// WithAgingThreshold sets how many ticks a Ready thread may wait unscheduled
// before its effective priority tier is bumped, the starvation guard applied
// by ageLocked. Values <= 0 fall back to defaultAgingTicks.
func WithAgingThreshold(ticks int32) Option {
	return &optionImpl{func(opts *poolOptions) {
		opts.agingTicks = ticks
	}}
}

// WithMetrics enables the ThreadPool's atomic counters (context switches,
// preemptions, futex wait/wake, IPI dispatch), readable via
// ThreadPool.Metrics. Disabled by default to keep the hot scheduling path
// free of the extra atomic increments.
func WithMetrics(enabled bool) Option {
	return &optionImpl{func(opts *poolOptions) {
		opts.metricsEnabled = enabled
	}}
}

// WithLogger overrides the package-level logger for one ThreadPool, rather
// than changing every ThreadPool's diagnostics via SetLogger.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *poolOptions) {
		opts.logger = l
	}}
}

// resolvePoolOptions applies Option values over the package defaults.
func resolvePoolOptions(opts []Option) *poolOptions {
	cfg := &poolOptions{
		timeSliceTicks: defaultTimeSliceTicks,
		agingTicks:     defaultAgingTicks,
		logger:         currentLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyPool(cfg)
	}
	return cfg
}
