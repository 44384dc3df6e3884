// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package vsync implements the vsync reactor of a display compositor, which
// adapts a one-shot vsync callback dispatcher, and a vsync timestamp model,
// into periodic "repeat at the display rate" listeners.
//
// # Architecture
//
// A [Reactor] owns three pieces of state, guarded by a single mutex:
//
//   - A bounded FIFO of unresolved present fences ([CompletionSignal]),
//     harvested opportunistically by [Reactor.AddCompletionSignal], with
//     resolved timestamps fed to the [Predictor] as vsync samples.
//   - The period transition state machine, entered by
//     [Reactor.RequestPeriod], and committed by [Reactor.OnHardwareEdge] once
//     the distance between two hardware vsync edges is closer to the target
//     period than to the current one.
//   - Up to [MaxListeners] listeners, each backed by a repeater, which turns
//     the single-shot [Registration] into a self-renewing periodic callback,
//     with a per-listener phase offset.
//
// The [Clock], [Predictor] and [Dispatcher] are injected. Reference
// implementations are provided by [SystemClock], and the sub-packages
// predictor, dispatch and fence.
//
// # Thread Safety
//
// All [Reactor] methods are safe to call concurrently. Hardware edges and
// present fences are typically reported from different goroutines, and are
// serialized by the reactor mutex. Listener callbacks are invoked without
// any reactor or repeater lock held, so they may call back into the
// [Reactor].
//
// # Contract Violations
//
// Misuse that indicates a broken invariant, e.g. unregistering an unknown
// listener, stopping a listener twice, or a dispatcher rejecting a schedule
// request, panics with a [*ContractViolation]. These are not intended to be
// recovered from.
package vsync
