// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sampler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_simulator/internal/vector"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestDefaults(t *testing.T) {
	s := New[vector.Vector3]()

	assert.True(t, s.Enabled())
	assert.False(t, s.Averaging())
	assert.Equal(t, 200*time.Millisecond, s.Period())
	assert.Zero(t, s.Published())
}

func TestParseDelay(t *testing.T) {
	for name, want := range map[string]time.Duration{
		"fastest": DelayFastest,
		"game":    20 * time.Millisecond,
		"UI":      60 * time.Millisecond,
		" normal": DefaultPeriod,
	} {
		got, err := ParseDelay(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseDelay("turbo")
	assert.ErrorIs(t, err, ErrUnknownDelay)
}

func TestFirstTickPublishes(t *testing.T) {
	s := New[vector.Vector3]()

	require.True(t, s.OnTick(vector.New(1, 2, 3), t0))
	assert.Equal(t, vector.New(1, 2, 3), s.Last())
	assert.Equal(t, t0, s.NextPublishAt())
}

func TestSnapshotIsRateLimited(t *testing.T) {
	s := New[vector.Vector3]()

	var publishedAt []int
	for ms := 0; ms <= 1000; ms += 10 {
		if s.OnTick(vector.New(float64(ms), 0, 0), at(ms)) {
			publishedAt = append(publishedAt, ms)
			assert.Equal(t, float64(ms), s.Last().X, "snapshot must be the latest value")
		}
	}

	// the deadline snapped to t0 on the first tick is due again on the second
	assert.Equal(t, []int{0, 10, 210, 410, 610, 810}, publishedAt)
	assert.Equal(t, uint64(6), s.Published())
}

func TestReadoutHeldBetweenPublishes(t *testing.T) {
	s := New[vector.Vector3]()
	s.OnTick(vector.New(1, 0, 0), at(0))
	s.OnTick(vector.New(2, 0, 0), at(10))

	for ms := 20; ms < 210; ms += 10 {
		require.False(t, s.OnTick(vector.New(99, 99, 99), at(ms)))
		require.Equal(t, vector.New(2, 0, 0), s.Last())
	}
}

func TestAveragingConstantSignalConverges(t *testing.T) {
	s := New[vector.Vector3]()
	s.SetAveraging(true)

	v := vector.New(0.1, -9.80665, 43.1805)
	for ms := 0; ms <= 1000; ms += 10 {
		if s.OnTick(v, at(ms)) {
			got := s.Last()
			require.InDelta(t, v.X, got.X, 1e-12)
			require.InDelta(t, v.Y, got.Y, 1e-12)
			require.InDelta(t, v.Z, got.Z, 1e-12)
		}
	}
	assert.Equal(t, uint64(6), s.Published())
}

func TestAveragingOverWindow(t *testing.T) {
	s := New[vector.Vector3]()
	s.SetAveraging(true)
	s.SetPeriod(50 * time.Millisecond)

	value := func(ms int) vector.Vector3 { return vector.New(float64(ms/10+1), 0, 0) }

	require.True(t, s.OnTick(value(0), at(0)))
	assert.Equal(t, 1.0, s.Last().X)
	require.True(t, s.OnTick(value(10), at(10)))
	assert.Equal(t, 2.0, s.Last().X)

	for ms := 20; ms < 50; ms += 10 {
		require.False(t, s.OnTick(value(ms), at(ms)))
	}
	assert.Equal(t, 3, s.Pending())

	require.True(t, s.OnTick(value(50), at(50)))
	assert.Equal(t, (3.0+4+5+6)/4, s.Last().X)
	assert.Zero(t, s.Pending(), "accumulator resets on publish")
}

func TestStalledLoopPublishesOnce(t *testing.T) {
	s := New[vector.Vector3]()
	s.OnTick(vector.Vector3{}, at(0))
	s.OnTick(vector.Vector3{}, at(10))
	s.OnTick(vector.Vector3{}, at(20))
	before := s.Published()

	// stalled for five sample periods
	resume := at(20 + 5*200)
	require.True(t, s.OnTick(vector.New(7, 7, 7), resume))

	assert.Equal(t, before+1, s.Published())
	assert.Equal(t, resume, s.NextPublishAt())
	assert.Equal(t, vector.New(7, 7, 7), s.Last())
}

func TestClockMovingBackwardsKeepsDeadline(t *testing.T) {
	s := New[vector.Vector3]()
	s.OnTick(vector.Vector3{}, at(0))
	s.OnTick(vector.Vector3{}, at(10))
	deadline := s.NextPublishAt()

	require.False(t, s.OnTick(vector.New(1, 1, 1), at(-500)))
	assert.Equal(t, deadline, s.NextPublishAt())
}

func TestDisabledSamplerKeepsLastReadout(t *testing.T) {
	s := New[vector.Vector3]()
	s.SetAveraging(true)
	s.OnTick(vector.New(1, 1, 1), at(0))

	s.SetEnabled(false)
	for ms := 10; ms < 1000; ms += 10 {
		require.False(t, s.OnTick(vector.New(5, 5, 5), at(ms)))
	}
	assert.Zero(t, s.Pending())
	assert.Equal(t, vector.New(1, 1, 1), s.Last())

	s.SetEnabled(true)
	require.True(t, s.OnTick(vector.New(5, 5, 5), at(1000)))
	assert.Equal(t, vector.New(5, 5, 5), s.Last())
}

func TestZeroPeriodPublishesEveryTick(t *testing.T) {
	s := New[vector.Vector3]()
	s.SetPeriod(DelayFastest)

	for ms := 0; ms < 100; ms += 10 {
		require.True(t, s.OnTick(vector.New(float64(ms), 0, 0), at(ms)))
	}
	assert.Equal(t, uint64(10), s.Published())

	s.SetPeriod(-time.Second)
	assert.Equal(t, time.Duration(0), s.Period())
}

func TestSwitchingAveragingDropsPartialSum(t *testing.T) {
	s := New[vector.Vector3]()
	s.SetAveraging(true)
	s.OnTick(vector.New(1, 0, 0), at(0))
	s.OnTick(vector.New(1, 0, 0), at(10))
	s.OnTick(vector.New(100, 0, 0), at(20))
	require.Equal(t, 1, s.Pending())

	s.SetAveraging(false)
	assert.Zero(t, s.Pending())
}
