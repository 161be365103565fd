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

package io

import (
	"sync/atomic"
	"time"
)

// Full step (two phases on) sequence of outputs.
var fullSequence = [][]int{
	{1, 1, 0, 0},
	{0, 1, 1, 0},
	{0, 0, 1, 1},
	{1, 0, 0, 1},
}

// Half step sequence of outputs.
var halfSequence = [][]int{
	{1, 0, 0, 0},
	{1, 1, 0, 0},
	{0, 1, 0, 0},
	{0, 1, 1, 0},
	{0, 0, 1, 0},
	{0, 0, 1, 1},
	{0, 0, 0, 1},
	{1, 0, 0, 1},
}

// Stepper represents a 4 phase unipolar stepper motor driven
// by 4 GPIO outputs.
// Stepping is synchronous: Step returns once the motor has moved.
// The current step number is maintained as an absolute number, referenced from
// 0 when the stepper is first initialised. This can be a negative or positive number,
// depending on the movement.
type Stepper struct {
	Sleep    func(time.Duration) // Delay between steps, replaceable for testing
	pins     [4]Setter
	sequence [][]int
	factor   float64       // Nanoseconds per step at 1 RPM
	delay    time.Duration // Delay between steps
	index    int           // Index to step sequence
	current  int64         // Current step number as an absolute number
}

// NewStepper creates and initialises a Stepper, representing
// a stepper motor controlled by 4 GPIO pins.
// rev is the number of steps per revolution, used for
// determining the delays between steps at the requested speed in RPM.
// If half is set, the half step sequence is used, otherwise the full step sequence.
func NewStepper(rev int, rpm float64, half bool, pin1, pin2, pin3, pin4 Setter) *Stepper {
	s := new(Stepper)
	s.Sleep = time.Sleep
	s.pins = [4]Setter{pin1, pin2, pin3, pin4}
	s.sequence = fullSequence
	if half {
		s.sequence = halfSequence
	}
	// Precalculate a timing factor so that a RPM value can be used
	// to calculate the per-step delay.
	s.factor = float64(time.Second.Nanoseconds()*60) / float64(rev)
	s.SetSpeed(rpm)
	return s
}

// SetSpeed sets the stepping rate in revolutions per minute.
func (s *Stepper) SetSpeed(rpm float64) {
	if rpm > 0.0 {
		s.delay = time.Duration(s.factor / rpm)
	}
}

// GetStep returns the current step number, which is an accumulative
// signed value representing the steps moved, with 0 as the starting location.
func (s *Stepper) GetStep() int64 {
	return atomic.LoadInt64(&s.current)
}

// Step moves the motor the requested number of steps.
// A negative value moves the motor counter-clockwise, positive
// moves the motor clockwise.
func (s *Stepper) Step(steps int) {
	inc := 1
	if steps < 0 {
		// Counter-clockwise
		inc = -1
		steps = -steps
	}
	n := len(s.sequence)
	for i := 0; i < steps; i++ {
		s.index = (s.index + inc + n) % n
		s.output()
		atomic.AddInt64(&s.current, int64(inc))
		s.Sleep(s.delay)
	}
}

// Set the GPIO outputs according to the current sequence index.
func (s *Stepper) output() {
	seq := s.sequence[s.index]
	for i, p := range s.pins {
		p.Set(seq[i])
	}
}
