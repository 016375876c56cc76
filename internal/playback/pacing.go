package playback

import (
	"math"
	"time"
)

// Speed bounds for the global pacing setting.
const (
	MinSpeed     = 1
	MaxSpeed     = 200
	DefaultSpeed = 100
)

// ClampSpeed forces a speed value into the valid range. Invalid settings
// are never rejected, only clamped.
func ClampSpeed(speed int) int {
	if speed < MinSpeed {
		return MinSpeed
	}
	if speed > MaxSpeed {
		return MaxSpeed
	}
	return speed
}

// Delay computes the per-slide delay for a speed setting.
//
// Two regimes: linear from 30s at speed 1 down to 5s at speed 100 (the
// comfortable reading range), then exponential decay from 5s at speed 100
// to 0.2s at speed 200, so high-speed settings stay perceptibly distinct
// from each other near the top of the range.
func Delay(speed int) time.Duration {
	speed = ClampSpeed(speed)

	var secs float64
	if speed <= 100 {
		// Written over a common denominator so the endpoints (30s at
		// speed 1, 5s at speed 100) come out exact in floating point.
		secs = (30*99 - float64(speed-1)*25) / 99
	} else {
		ratio := float64(speed-100) / 100
		secs = 5 * math.Pow(0.04, ratio)
	}
	return time.Duration(secs * float64(time.Second))
}
