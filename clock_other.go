// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build !linux && !darwin

package vsync

import (
	"time"
)

// clockEpoch anchors the monotonic reading of time.Now
var clockEpoch = time.Now()

func monotonicNow() int64 {
	return int64(time.Since(clockEpoch))
}
