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

package motor

import (
	"fmt"
	"sync"
	"time"
)

// Pin is one of the 4 coil driver outputs.
type Pin interface {
	Getter
	Set(int) error
}

// PowerGate switches the coil current of the motor off between movements.
// Turning the motor off latches the current level of each coil pin
// before driving them all low, and turning it on restores the latched
// levels so that the stepping sequence resumes at the same phase.
type PowerGate struct {
	pins    [4]Pin
	latch   [4]int
	settle  time.Duration
	sleep   func(time.Duration)
	mu      sync.Mutex // Guards powered
	powered bool
}

// NewPowerGate creates a gate over the 4 coil pins. The gate starts
// in the powered state, since the pin levels are not yet latched.
// settle is the delay applied after power is restored.
func NewPowerGate(pins [4]Pin, settle time.Duration, sleep func(time.Duration)) *PowerGate {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &PowerGate{pins: pins, settle: settle, sleep: sleep, powered: true}
}

// Powered returns true if the coils are energised.
func (g *PowerGate) Powered() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.powered
}

// Latch returns the coil levels saved by the last PowerOff.
func (g *PowerGate) Latch() [4]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latch
}

// PowerOff saves the coil levels and drives all coils low.
// It does nothing if the motor is already off, so the latch
// is never overwritten with the all-low levels.
func (g *PowerGate) PowerOff() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.powered {
		return nil
	}
	var levels [4]int
	for i, p := range g.pins {
		v, err := p.Get()
		if err != nil {
			return fmt.Errorf("coil %d: %w", i+1, err)
		}
		levels[i] = v
	}
	g.latch = levels
	for i, p := range g.pins {
		if err := p.Set(0); err != nil {
			return fmt.Errorf("coil %d: %w", i+1, err)
		}
	}
	g.powered = false
	return nil
}

// PowerOn restores the latched coil levels and waits for
// the driver to settle.
func (g *PowerGate) PowerOn() error {
	g.mu.Lock()
	if g.powered {
		g.mu.Unlock()
		return nil
	}
	for i, p := range g.pins {
		if err := p.Set(g.latch[i]); err != nil {
			g.mu.Unlock()
			return fmt.Errorf("coil %d: %w", i+1, err)
		}
	}
	g.powered = true
	g.mu.Unlock()
	if g.settle > 0 {
		g.sleep(g.settle)
	}
	return nil
}
