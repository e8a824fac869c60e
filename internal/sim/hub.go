// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"sync"

	"github.com/relabs-tech/inertial_simulator/internal/imu"
)

// Subscription delivers published readings. Slow readers only ever see the
// newest reading; older undelivered ones are dropped.
type Subscription struct {
	C <-chan imu.Reading

	ch  chan imu.Reading
	hub *hub
}

// Close detaches the subscription and closes C.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

type hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[*Subscription]struct{})}
}

func (h *hub) subscribe() *Subscription {
	ch := make(chan imu.Reading, 1)
	s := &Subscription{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	return s
}

func (h *hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}

// publish never blocks the tick loop.
func (h *hub) publish(r imu.Reading) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- r:
		default:
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
