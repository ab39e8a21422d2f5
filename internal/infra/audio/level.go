package audio

import (
	"math"
	"time"
)

const (
	levelReference = 8192.0
	levelMax       = 2.0
	levelInterval  = 100 * time.Millisecond
)

// Level returns the RMS of samples scaled so that normal speech sits around 1.
// The result is clamped to [0, 2].
func Level(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	return math.Min(rms/levelReference, levelMax)
}

// levelMeter throttles level callbacks to one per interval.
type levelMeter struct {
	onLevel  func(float64)
	interval time.Duration
	last     time.Time
	window   []int16
}

func newLevelMeter(onLevel func(float64)) *levelMeter {
	return &levelMeter{onLevel: onLevel, interval: levelInterval}
}

func (m *levelMeter) observe(now time.Time, samples []int16) {
	if m.onLevel == nil {
		return
	}
	m.window = append(m.window, samples...)
	if now.Sub(m.last) < m.interval {
		return
	}
	m.onLevel(Level(m.window))
	m.window = m.window[:0]
	m.last = now
}
