// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sampler implements the rate-limited readout policy shared by all
// simulated sensors.
//
// A sensor keeps a continuously evolving "true" value; the sampler decides
// when that value becomes visible as a readout, either as a snapshot or as
// the average of everything seen since the previous readout.
package sampler

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sample period presets, matching the usual sensor delay classes.
const (
	DelayFastest = 0 * time.Millisecond
	DelayGame    = 20 * time.Millisecond
	DelayUI      = 60 * time.Millisecond
	DelayNormal  = 200 * time.Millisecond
)

// DefaultPeriod is the sample period of a freshly created sampler.
const DefaultPeriod = DelayNormal

// ErrUnknownDelay is returned by ParseDelay for a name with no preset.
var ErrUnknownDelay = errors.New("unknown sensor delay")

// ParseDelay maps a delay class name (fastest, game, ui, normal) to its
// sample period. Case is ignored.
func ParseDelay(name string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fastest":
		return DelayFastest, nil
	case "game":
		return DelayGame, nil
	case "ui":
		return DelayUI, nil
	case "normal":
		return DelayNormal, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDelay, name)
}

// Value is a readout type that can be summed and scaled for averaging.
type Value[T any] interface {
	Add(T) T
	Scale(float64) T
}

// Sampler publishes readouts of T at a fixed period.
//
// Not safe for concurrent use; each sampler belongs to exactly one engine
// and is driven from the simulation tick.
type Sampler[T Value[T]] struct {
	enabled   bool
	averaging bool
	period    time.Duration

	nextPublishAt time.Time
	accumulator   T
	count         int

	last      T
	published uint64
}

// New creates an enabled, non-averaging sampler with DefaultPeriod.
// The first tick always publishes.
func New[T Value[T]]() *Sampler[T] {
	return &Sampler[T]{
		enabled: true,
		period:  DefaultPeriod,
	}
}

// OnTick feeds the current true value observed at now and reports whether
// a new readout was published.
//
// When the loop has fallen more than a period behind, nextPublishAt snaps
// to now: the backlog is dropped and at most one readout is published per
// tick.
func (s *Sampler[T]) OnTick(value T, now time.Time) bool {
	if !s.enabled {
		return false
	}

	if s.averaging {
		s.accumulator = s.accumulator.Add(value)
		s.count++
	}

	if now.Before(s.nextPublishAt) {
		return false
	}

	s.nextPublishAt = s.nextPublishAt.Add(s.period)
	if s.nextPublishAt.Before(now) {
		s.nextPublishAt = now
	}

	if s.averaging {
		// count >= 1: this tick already accumulated.
		s.last = s.accumulator.Scale(1 / float64(s.count))
		s.resetAccumulator()
	} else {
		s.last = value
	}
	s.published++

	return true
}

// Last returns the most recently published readout.
func (s *Sampler[T]) Last() T {
	return s.last
}

// Published is the number of readouts published so far.
func (s *Sampler[T]) Published() uint64 {
	return s.published
}

// NextPublishAt is the earliest time the next readout may be published.
func (s *Sampler[T]) NextPublishAt() time.Time {
	return s.nextPublishAt
}

// Pending is the number of samples accumulated towards the next average.
func (s *Sampler[T]) Pending() int {
	return s.count
}

func (s *Sampler[T]) Enabled() bool {
	return s.enabled
}

// SetEnabled switches the sampler on or off. A disabled sampler neither
// accumulates nor publishes; its last readout is kept.
func (s *Sampler[T]) SetEnabled(enabled bool) {
	if s.enabled == enabled {
		return
	}
	s.enabled = enabled
	s.resetAccumulator()
}

func (s *Sampler[T]) Averaging() bool {
	return s.averaging
}

// SetAveraging selects between publishing the running average since the
// last readout and publishing the latest value. Any partial sum is dropped.
func (s *Sampler[T]) SetAveraging(averaging bool) {
	s.averaging = averaging
	s.resetAccumulator()
}

func (s *Sampler[T]) Period() time.Duration {
	return s.period
}

// SetPeriod changes the sample period. Negative periods are treated as 0,
// which publishes on every tick.
func (s *Sampler[T]) SetPeriod(period time.Duration) {
	if period < 0 {
		period = 0
	}
	s.period = period
}

func (s *Sampler[T]) resetAccumulator() {
	var zero T
	s.accumulator = zero
	s.count = 0
}
