// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package predictor implements vsync.Predictor, using a linear regression of
// recent vsync timestamps against their ordinal (vsync count).
package predictor

import (
	"math"
	"sync"
	"time"

	"github.com/joeycumines/go-vsync"
)

type (
	// Config models optional configuration, for New.
	Config struct {
		// HistorySize is the number of timestamps retained for the fit.
		// **Defaults to 20, if 0, or Config is nil.**
		HistorySize int

		// MinSamples is the number of timestamps required before the fit is
		// used for prediction.
		// **Defaults to 6, if 0, or Config is nil.**
		MinSamples int

		// OutlierTolerancePercent is how far (as a percentage of the period)
		// a timestamp may fall from the vsync grid, and still be accepted.
		// It also bounds how far the fitted period may deviate from the
		// ideal period.
		// **Defaults to 25, if 0, or Config is nil.**
		OutlierTolerancePercent int
	}

	// Predictor is a vsync.Predictor. Instances must be initialized using
	// the New factory. It is safe for concurrent use.
	Predictor struct {
		mu               sync.Mutex
		samples          *history[int64]
		idealPeriod      time.Duration
		minSamples       int
		outlierTolerance int64

		// fitted model, valid if fitted
		slope     float64
		intercept float64
		origin    int64
		fitted    bool
	}
)

var _ vsync.Predictor = (*Predictor)(nil)

// New initializes a new Predictor, for the given ideal period. The provided
// config may be nil. A panic will occur if idealPeriod is not positive, or
// invalid config is provided.
func New(idealPeriod time.Duration, config *Config) *Predictor {
	if idealPeriod <= 0 {
		panic(`predictor: ideal period must be positive`)
	}

	historySize := 20
	x := Predictor{
		idealPeriod:      idealPeriod,
		minSamples:       6,
		outlierTolerance: 25,
	}

	if config != nil {
		if config.HistorySize != 0 {
			historySize = config.HistorySize
		}
		if config.MinSamples != 0 {
			x.minSamples = config.MinSamples
		}
		if config.OutlierTolerancePercent != 0 {
			x.outlierTolerance = int64(config.OutlierTolerancePercent)
		}
	}

	if historySize <= 0 || x.minSamples < 2 || x.minSamples > historySize {
		panic(`predictor: invalid history size or min samples`)
	}
	if x.outlierTolerance <= 0 || x.outlierTolerance >= 50 {
		panic(`predictor: outlier tolerance must be within (0, 50)`)
	}

	x.samples = newHistory[int64](historySize)

	return &x
}

// AddSample implements vsync.Predictor. Timestamps that are not after the
// most recent sample, or too far from the vsync grid, are rejected.
func (x *Predictor) AddSample(timestamp int64) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.validate(timestamp) {
		return false
	}

	x.samples.Push(timestamp)
	x.fit()

	return true
}

// PredictFrom implements vsync.Predictor.
func (x *Predictor) PredictFrom(timestamp int64) int64 {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.fitted {
		zero := float64(x.origin) + x.intercept
		ordinal := math.Floor((float64(timestamp)-zero)/x.slope) + 1
		prediction := int64(math.Round(zero + ordinal*x.slope))
		if prediction <= timestamp {
			// float rounding, at the boundary
			prediction += int64(math.Round(x.slope))
		}
		return prediction
	}

	period := int64(x.idealPeriod)
	zero := timestamp
	if x.samples.Len() != 0 {
		zero = x.samples.Last()
	}
	return zero + (floorDiv(timestamp-zero, period)+1)*period
}

// CurrentPeriod implements vsync.Predictor, returning the ideal period.
func (x *Predictor) CurrentPeriod() time.Duration {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.idealPeriod
}

// SetPeriod implements vsync.Predictor. The sample history is discarded.
func (x *Predictor) SetPeriod(period time.Duration) {
	if period <= 0 {
		panic(`predictor: period must be positive`)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.idealPeriod = period
	x.samples.Clear()
	x.fitted = false
}

// ModelPeriod returns the fitted period, and whether there was enough data
// to fit it. The ideal period is returned if there was not.
func (x *Predictor) ModelPeriod() (time.Duration, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.fitted {
		return x.idealPeriod, false
	}
	return time.Duration(math.Round(x.slope)), true
}

func (x *Predictor) validate(timestamp int64) bool {
	if x.samples.Len() == 0 {
		return true
	}
	last := x.samples.Last()
	if timestamp <= last {
		return false
	}
	period := int64(x.idealPeriod)
	percent := ((timestamp - last) % period) * 100 / period
	return percent < x.outlierTolerance || percent > 100-x.outlierTolerance
}

// fit recomputes the model, using least squares, with the ordinal of each
// sample (relative to the oldest) as x, and the offset from the oldest as y.
func (x *Predictor) fit() {
	n := x.samples.Len()
	if n < x.minSamples {
		x.fitted = false
		return
	}

	origin := x.samples.Get(0)
	period := float64(x.idealPeriod)

	var sumX, sumY float64
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		y := float64(x.samples.Get(i) - origin)
		xs[i] = math.Round(y / period)
		ys[i] = y
		sumX += xs[i]
		sumY += y
	}

	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var top, bottom float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		top += dx * (ys[i] - meanY)
		bottom += dx * dx
	}

	if bottom == 0 {
		x.fitted = false
		return
	}

	slope := top / bottom
	if math.Abs(slope-period)*100 > period*float64(x.outlierTolerance) {
		// too far from the ideal period to be trusted
		x.fitted = false
		return
	}

	x.slope = slope
	x.intercept = meanY - slope*meanX
	x.origin = origin
	x.fitted = true
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
