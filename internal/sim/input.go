// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"math"
	"sync"

	"github.com/relabs-tech/inertial_simulator/internal/orientation"
)

// Input is the latest user-supplied attitude and screen target.
type Input struct {
	Pose orientation.Pose `json:"orientation"`

	// Screen displacement target in pixels.
	TargetX float64 `json:"target_x"`
	TargetZ float64 `json:"target_z"`
}

// inputSlot holds the shared input. Writers replace whole fields under the
// lock so the tick never sees a pose mixed from two updates.
type inputSlot struct {
	mu sync.Mutex
	in Input
}

// setPose stores the normalized pose. A pose with a NaN or infinite angle
// is dropped and the last good one kept.
func (s *inputSlot) setPose(p orientation.Pose) bool {
	if !p.IsFinite() {
		return false
	}
	p = orientation.Normalize(p)

	s.mu.Lock()
	s.in.Pose = p
	s.mu.Unlock()
	return true
}

// setTarget stores the target unless a coordinate is NaN or infinite.
func (s *inputSlot) setTarget(x, z float64) bool {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(z) || math.IsInf(z, 0) {
		return false
	}

	s.mu.Lock()
	s.in.TargetX, s.in.TargetZ = x, z
	s.mu.Unlock()
	return true
}

func (s *inputSlot) snapshot() Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.in
}
