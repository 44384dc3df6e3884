// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Command vsyncsim runs a reactor against a simulated display, which emits
// hardware vsync edges (and matching present fences) at the configured
// period, applying any scripted period changes. On exit, it prints the fire
// count of each listener, followed by the reactor dump.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-vsync"
	"github.com/joeycumines/go-vsync/config"
	"github.com/joeycumines/go-vsync/dispatch"
	"github.com/joeycumines/go-vsync/fence"
	"github.com/joeycumines/go-vsync/predictor"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "vsyncsim"
	app.Usage = "simulate vsync listeners against a virtual display"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "Path to a YAML config file",
		},
		cli.DurationFlag{
			Name:  "duration",
			Usage: "How long to run the simulation",
			Value: 2 * time.Second,
		},
		cli.DurationFlag{
			Name:  "period",
			Usage: "Override the initial vsync period",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Override the log level (e.g. info, debug, trace)",
		},
	}
	app.Action = func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		return run(context.Background(), cfg, c.Duration("duration"), os.Stdout, os.Stderr)
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if period := c.Duration("period"); period != 0 {
		cfg.Reactor.Period = period
	}
	if level := c.String("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// listener counts callbacks, it must be a pointer, to be a usable handle.
type listener struct {
	name  string
	fires int
	last  int64
}

func (x *listener) OnVsync(wakeupTime int64) {
	x.fires++
	x.last = wakeupTime
}

// display emits vsync on the loop, using a grid of ideal timestamps, so
// timer jitter does not reach the predictor. Hardware edges are only
// reported while the reactor needs more samples, otherwise each frame's
// present fence is signaled at the following vsync.
type display struct {
	loop    *eventloop.Loop
	reactor *vsync.Reactor
	clock   vsync.Clock
	period  time.Duration
	next    int64
	// present is the fence of the frame on screen, signaled at the next vsync
	present *fence.Fence
	hw      bool
	edges   int
	fences  int
}

func (x *display) tick() {
	x.frame(x.next)
	x.next += int64(x.period)
	x.schedule()
}

func (x *display) frame(now int64) {
	if x.present != nil {
		if x.hw {
			// the edge supplies this vsync
			x.present.Invalidate()
		} else {
			x.present.Signal(now)
			x.fences++
		}
		x.present = nil
	}

	if x.hw {
		x.edges++
		x.hw, _ = x.reactor.OnHardwareEdge(now)
		return
	}

	x.present = fence.New()
	x.hw = x.reactor.AddCompletionSignal(x.present)
}

func (x *display) schedule() {
	delay := max(time.Duration(x.next-x.clock.Now()), 0)
	if _, err := x.loop.ScheduleTimer(delay, x.tick); err != nil && !errors.Is(err, eventloop.ErrLoopTerminated) {
		panic(err)
	}
}

func run(ctx context.Context, cfg *config.Config, duration time.Duration, stdout, stderr io.Writer) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := vsync.NewLogger(stderr, level)

	clock := vsync.SystemClock{}
	pred := predictor.New(cfg.Reactor.Period, cfg.PredictorConfig())

	loop, err := eventloop.New(eventloop.WithMetrics(true))
	if err != nil {
		return err
	}

	reactor, err := vsync.New(
		clock,
		dispatch.New(loop, clock, pred, dispatch.WithLogger(logger)),
		pred,
		vsync.WithPendingLimit(cfg.Reactor.PendingLimit),
		vsync.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	listeners := make([]*listener, len(cfg.Listeners))
	dsp := &display{
		loop:    loop,
		reactor: reactor,
		clock:   clock,
		period:  cfg.Reactor.Period,
		next:    clock.Now(),
		hw:      true,
	}

	if err := loop.Submit(func() {
		for i, l := range cfg.Listeners {
			listeners[i] = &listener{name: l.Name}
			if err := reactor.RegisterListener(listeners[i], l.Name, l.Phase); err != nil {
				logger.Err().Err(err).Str(`name`, l.Name).Log(`failed to register listener`)
			}
		}
		dsp.schedule()
		for _, change := range cfg.PeriodChanges {
			period := change.Period
			if _, err := loop.ScheduleTimer(change.After, func() {
				reactor.RequestPeriod(period)
				// the display switches after the current frame
				dsp.period = period
			}); err != nil {
				logger.Err().Err(err).Log(`failed to schedule period change`)
			}
		}
	}); err != nil {
		return err
	}

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	_ = reactor.Close()

	_, _ = fmt.Fprintf(stdout, "hw_edges=%d fences_signaled=%d\n", dsp.edges, dsp.fences)
	for _, l := range listeners {
		if l != nil {
			_, _ = fmt.Fprintf(stdout, "listener %s: fires=%d last=%d\n", l.name, l.fires, l.last)
		}
	}
	if m := loop.Metrics(); m != nil {
		_, _ = fmt.Fprintf(stdout, "loop: tps=%.1f p99=%v\n", m.TPS, m.Latency.P99)
	}
	_, _ = io.WriteString(stdout, reactor.Dump())

	return nil
}
