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

// Package motor calibrates and positions a stepper driven clock hand
// using a single binary home sensor.

package motor

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrSensorTimeout = errors.New("sensor timeout")
	ErrNotCalibrated = errors.New("hand not calibrated")
	ErrHomeNotFound  = errors.New("home sensor not found near zero")
	ErrBusy          = errors.New("motor operation in progress")
	ErrInvalidTime   = errors.New("invalid time")
)

// Direction of rotation, as a single step.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// State is the calibration state of the hand.
type State int

const (
	Uncalibrated State = iota
	Calibrated
)

func (s State) String() string {
	if s == Calibrated {
		return "calibrated"
	}
	return "uncalibrated"
}

// Stepper is the raw stepping primitive. Positive steps
// move the hand clockwise. Step returns once the motor has moved.
type Stepper interface {
	Step(int)
}

// Config holds the construction parameters of a Motor.
type Config struct {
	Name      string
	Steps     int                 // Steps per revolution
	Adjust    int                 // Centering adjustment from the sensor zone middle
	SlowDelay time.Duration       // Settle delay between calibration steps
	Sleep     func(time.Duration) // Defaults to time.Sleep
}

// Status is a snapshot of the motor state.
type Status struct {
	Name              string  `json:"name"`
	Position          float64 `json:"position"`
	Steps             int     `json:"steps"`
	Calibrated        bool    `json:"calibrated"`
	Powered           bool    `json:"powered"`
	Busy              bool    `json:"busy"`
	Calibrations      int     `json:"calibrations"`
	MicroCalibrations int     `json:"micro_calibrations"`
	Drifts            int     `json:"drifts"`
	Moves             int     `json:"moves"`
	Skipped           int     `json:"skipped"`
}

// Motor owns the stepper, home sensor and power gate of one clock hand,
// and tracks the position of the hand relative to the calibrated zero.
// Only one operation may run at a time; an operation started while
// another is in progress fails with ErrBusy.
type Motor struct {
	Name    string
	stepper Stepper
	sensor  Sensor
	gate    *PowerGate
	rev     int
	adjust  int
	slow    time.Duration
	sleep   func(time.Duration)
	busy    int32
	moved   int // Net steps moved by the current operation

	mu      sync.Mutex // Guards the fields below
	tracker *Tracker
	state   State
	stats   Status
}

// NewMotor creates a Motor and turns the motor power off,
// latching the initial coil levels.
func NewMotor(c Config, stepper Stepper, sensor Sensor, gate *PowerGate) (*Motor, error) {
	if c.Steps < 12 {
		return nil, fmt.Errorf("%s: invalid steps per revolution (%d)", c.Name, c.Steps)
	}
	if stepper == nil || sensor == nil || gate == nil {
		return nil, fmt.Errorf("%s: missing stepper, sensor or power gate", c.Name)
	}
	m := &Motor{
		Name:    c.Name,
		stepper: stepper,
		sensor:  sensor,
		gate:    gate,
		rev:     c.Steps,
		adjust:  c.Adjust,
		slow:    c.SlowDelay,
		sleep:   c.Sleep,
		tracker: NewTracker(c.Steps),
	}
	if m.sleep == nil {
		m.sleep = time.Sleep
	}
	if err := gate.PowerOff(); err != nil {
		return nil, fmt.Errorf("%s: power off: %w", c.Name, err)
	}
	return m, nil
}

// Steps returns the number of steps in a revolution.
func (m *Motor) Steps() int {
	return m.rev
}

// Position returns the tracked hand position in steps from zero.
func (m *Motor) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracker.Position()
}

// State returns the calibration state.
func (m *Motor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns a snapshot of the motor state.
func (m *Motor) Status() Status {
	m.mu.Lock()
	s := m.stats
	s.Position = m.tracker.Position()
	s.Calibrated = m.state == Calibrated
	m.mu.Unlock()
	s.Name = m.Name
	s.Steps = m.rev
	s.Powered = m.gate.Powered()
	s.Busy = atomic.LoadInt32(&m.busy) != 0
	return s
}

// PowerOn energises the motor coils. Operations started while
// the motor is powered leave it powered.
func (m *Motor) PowerOn() error {
	return m.gate.PowerOn()
}

// PowerOff removes the current from the motor coils.
func (m *Motor) PowerOff() error {
	return m.gate.PowerOff()
}

// begin marks an operation as in progress.
func (m *Motor) begin() error {
	if !atomic.CompareAndSwapInt32(&m.busy, 0, 1) {
		return ErrBusy
	}
	m.moved = 0
	return nil
}

func (m *Motor) end() {
	atomic.StoreInt32(&m.busy, 0)
}

// withPower runs f with the motor powered, turning the power
// off afterwards only if it was off to start with.
func (m *Motor) withPower(f func() error) error {
	powered := m.gate.Powered()
	if !powered {
		if err := m.gate.PowerOn(); err != nil {
			return fmt.Errorf("%s: power on: %w", m.Name, err)
		}
	}
	err := f()
	if !powered {
		if perr := m.gate.PowerOff(); perr != nil {
			log.Printf("%s: power off: %v", m.Name, perr)
			if err == nil {
				err = perr
			}
		}
	}
	return err
}

// step moves the motor, accumulating the net movement of the operation.
func (m *Motor) step(n int) {
	if n != 0 {
		m.stepper.Step(n)
		m.moved += n
	}
}

// stepSlow moves the motor one step at a time with the settle
// delay between steps, or in one movement if there is no delay.
func (m *Motor) stepSlow(n int) {
	if m.slow <= 0 {
		m.step(n)
		return
	}
	d := 1
	if n < 0 {
		d, n = -1, -n
	}
	for i := 0; i < n; i++ {
		m.step(d)
		m.sleep(m.slow)
	}
}

// restore undoes all movement of the current operation.
func (m *Motor) restore() {
	m.step(-m.moved)
}

func (m *Motor) read() (Reading, error) {
	r, err := m.sensor.Read()
	if err != nil {
		return NotFound, fmt.Errorf("%s: sensor: %w", m.Name, err)
	}
	return r, nil
}
