// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sim simulates the hardware of a clock hand: a stepper motor
// with 4 coil pins, and a hall sensor with hysteresis at the home mark.

package sim

import (
	"fmt"
	"sync"

	"github.com/aamcrae/ringclock/motor"
)

var coils = [][]int{
	{1, 1, 0, 0},
	{0, 1, 1, 0},
	{0, 0, 1, 1},
	{1, 0, 0, 1},
}

// Pin is a simulated GPIO pin.
type Pin struct {
	mu    sync.Mutex
	level int
	Err   error // Returned by Get and Set when set
}

func (p *Pin) Get() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level, p.Err
}

func (p *Pin) Set(v int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.level = v
	return nil
}

// Hand simulates the stepper motor and home sensor of a hand.
// The sensor becomes active when the hand enters the zone [Edge1, Edge2],
// and once active, stays active until the hand leaves the wider zone
// [Edge1-HystBack, Edge2+HystFwd], or indefinitely if Latched is set.
// The zone must not span zero.
type Hand struct {
	Steps    int // Steps per revolution
	Edge1    int
	Edge2    int
	HystFwd  int
	HystBack int
	Broken   bool   // Sensor never active
	Stuck    bool   // Sensor always active
	Latched  bool   // Sensor stays active once the zone is entered
	OnStep   func() // Called after each Step call

	mu     sync.Mutex
	pos    int
	active bool
	index  int
	moves  []int
	total  int
	pins   [4]*Pin
}

// NewHand creates a simulated hand at location 0.
func NewHand(steps, edge1, edge2 int) *Hand {
	h := &Hand{Steps: steps, Edge1: edge1, Edge2: edge2}
	for i := range h.pins {
		h.pins[i] = new(Pin)
	}
	h.update()
	return h
}

// Pins returns the coil pins.
func (h *Hand) Pins() [4]motor.Pin {
	return [4]motor.Pin{h.pins[0], h.pins[1], h.pins[2], h.pins[3]}
}

// Coil returns one coil pin.
func (h *Hand) Coil(i int) *Pin {
	return h.pins[i]
}

// Step moves the simulated motor, driving the coil pins and
// tracking the sensor state.
func (h *Hand) Step(n int) {
	h.mu.Lock()
	h.moves = append(h.moves, n)
	h.move(n, true)
	h.mu.Unlock()
	if h.OnStep != nil {
		h.OnStep()
	}
}

// Jog moves the hand without recording a movement, as if
// the hand had slipped.
func (h *Hand) Jog(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.move(n, false)
}

func (h *Hand) move(n int, drive bool) {
	inc := 1
	if n < 0 {
		inc, n = -1, -n
	}
	for i := 0; i < n; i++ {
		h.pos += inc
		if drive {
			h.total++
			h.index = (h.index + inc + len(coils)) % len(coils)
			for c, p := range h.pins {
				p.Set(coils[h.index][c])
			}
		}
		h.update()
	}
}

// Read returns the sensor reading.
func (h *Hand) Read() (motor.Reading, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.Stuck:
		return motor.Found, nil
	case h.Broken:
		return motor.NotFound, nil
	case h.active:
		return motor.Found, nil
	}
	return motor.NotFound, nil
}

// update recalculates the sensor state at the current location.
func (h *Hand) update() {
	loc := h.location()
	if h.active && h.Latched {
		return
	}
	if h.active {
		h.active = loc >= h.Edge1-h.HystBack && loc <= h.Edge2+h.HystFwd
	} else {
		h.active = loc >= h.Edge1 && loc <= h.Edge2
	}
}

// Location returns the location of the hand within a revolution.
func (h *Hand) Location() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.location()
}

func (h *Hand) location() int {
	l := h.pos % h.Steps
	if l < 0 {
		l += h.Steps
	}
	return l
}

// Absolute returns the absolute step location.
func (h *Hand) Absolute() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos
}

// Moves returns each movement requested.
func (h *Hand) Moves() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.moves...)
}

// Total returns the total number of steps moved in either direction.
func (h *Hand) Total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

// Reset clears the recorded movements.
func (h *Hand) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.moves = nil
	h.total = 0
}

func (h *Hand) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fmt.Sprintf("location %d (absolute %d), sensor active %v", h.location(), h.pos, h.active)
}
