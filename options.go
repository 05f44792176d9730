// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package paint

import "log/slog"

// initialCapacityBytes sizes the first new display item list of a
// controller whose current artifact is empty.
const initialCapacityBytes = 512

// Option configures a Controller during creation.
//
// Example:
//
//	// Default controller
//	pc := paint.NewController()
//
//	// Debug controller verifying every cache hit
//	pc := paint.NewController(paint.WithUnderInvalidationChecking(true))
type Option func(*options)

type options struct {
	constructionDisabled       bool
	subsequenceCachingDisabled bool
	underInvalidationChecking  bool
	duplicateIDChecking        bool
	underInvalidationHandler   UnderInvalidationHandler
	logger                     *slog.Logger
	initialCapacity            int
}

func defaultOptions() options {
	return options{
		initialCapacity: initialCapacityBytes,
	}
}

// WithConstructionDisabled makes the controller drop every appended item.
// It isolates the cost of item construction in benchmarks.
func WithConstructionDisabled(disabled bool) Option {
	return func(o *options) {
		o.constructionDisabled = disabled
	}
}

// WithSubsequenceCachingDisabled makes every subsequence cache request
// miss, so subsequences are always repainted.
func WithSubsequenceCachingDisabled(disabled bool) Option {
	return func(o *options) {
		o.subsequenceCachingDisabled = disabled
	}
}

// WithUnderInvalidationChecking enables under-invalidation checking.
//
// While enabled every cache hit is turned into a miss, the painter repaints,
// and each repainted item is compared byte-wise with the cached one. A
// mismatch means the client changed without being invalidated and is
// reported to the UnderInvalidationHandler. Painting cost roughly doubles.
func WithUnderInvalidationChecking(enabled bool) Option {
	return func(o *options) {
		o.underInvalidationChecking = enabled
	}
}

// WithDuplicateIDChecking makes the controller panic when a cacheable item
// with the identity of an earlier cacheable item of the same pass is
// appended.
func WithDuplicateIDChecking(enabled bool) Option {
	return func(o *options) {
		o.duplicateIDChecking = enabled
	}
}

// WithUnderInvalidationHandler replaces the default handler, which logs the
// report and panics.
func WithUnderInvalidationHandler(h UnderInvalidationHandler) Option {
	return func(o *options) {
		o.underInvalidationHandler = h
	}
}

// WithLogger sets a logger for this controller instead of the package
// logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithInitialCapacity sets the byte capacity of the first new display item
// list. Later passes size the list from the previous pass.
func WithInitialCapacity(bytes int) Option {
	return func(o *options) {
		if bytes > 0 {
			o.initialCapacity = bytes
		}
	}
}
