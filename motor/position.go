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
	"log"
	"math"
)

// Movements of half a step or less are ignored.
const moveThreshold = 0.5

// Tracker holds the position of the hand as steps from zero, in the
// range [0, revolution).
type Tracker struct {
	rev float64
	pos float64
}

// NewTracker creates a Tracker at zero.
func NewTracker(rev int) *Tracker {
	return &Tracker{rev: float64(rev)}
}

// Position returns the current position.
func (t *Tracker) Position() float64 {
	return t.pos
}

// Reset sets the position to zero.
func (t *Tracker) Reset() {
	t.pos = 0
}

// Delta returns the signed number of steps from the current position to
// the target, taking the shorter way around. The result is always within
// half a revolution either way.
func (t *Tracker) Delta(target float64) float64 {
	d := Normalize(target, t.rev) - t.pos
	if d > t.rev/2 {
		d -= t.rev
	} else if d < -t.rev/2 {
		d += t.rev
	}
	return d
}

// Advance moves the position by the steps taken.
func (t *Tracker) Advance(steps int) {
	t.pos = Normalize(t.pos+float64(steps), t.rev)
}

// Normalize returns the position p within [0, rev).
func Normalize(p, rev float64) float64 {
	p = math.Mod(p, rev)
	if p < 0 {
		p += rev
	}
	if p >= rev {
		p = 0
	}
	return p
}

// MinutePosition converts a minute to a position.
func (m *Motor) MinutePosition(minute int) float64 {
	return float64(minute) * float64(m.rev) / 60.0
}

// SecondPosition converts minutes and seconds to a position.
func (m *Motor) SecondPosition(minute, second int) float64 {
	return float64(minute*60+second) * float64(m.rev) / 3600.0
}

// MoveTo moves the hand the shorter way round to the target position.
// The hand must be calibrated, and the target must be finite.
func (m *Motor) MoveTo(target float64) error {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return fmt.Errorf("%s: %w: position %v", m.Name, ErrInvalidTime, target)
	}
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()
	return m.moveTo(target)
}

// MoveToMinute moves the hand to point at the minute.
func (m *Motor) MoveToMinute(minute int) error {
	if minute < 0 || minute >= 60 {
		return fmt.Errorf("%s: %w: minute %d", m.Name, ErrInvalidTime, minute)
	}
	return m.MoveTo(m.MinutePosition(minute))
}

// MoveToSecond moves the hand to the position of the minute and second
// on a face where one revolution is an hour.
func (m *Motor) MoveToSecond(minute, second int) error {
	if minute < 0 || minute >= 60 || second < 0 || second >= 60 {
		return fmt.Errorf("%s: %w: %d:%d", m.Name, ErrInvalidTime, minute, second)
	}
	return m.MoveTo(m.SecondPosition(minute, second))
}

// Home moves the hand to zero.
func (m *Motor) Home() error {
	return m.MoveTo(0)
}

// Verify moves the hand to zero and reports whether the home
// sensor is active there.
func (m *Motor) Verify() (bool, error) {
	if err := m.begin(); err != nil {
		return false, err
	}
	defer m.end()
	if err := m.moveTo(0); err != nil {
		return false, err
	}
	r, err := m.read()
	if err != nil {
		return false, err
	}
	log.Printf("%s: Calibration verification, sensor %s", m.Name, r)
	return r == Found, nil
}

// Jog moves the hand a number of steps, keeping the position
// tracking up to date. It is intended for manual adjustment.
func (m *Motor) Jog(steps int) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()
	return m.withPower(func() error {
		m.step(steps)
		m.mu.Lock()
		m.tracker.Advance(steps)
		m.mu.Unlock()
		return nil
	})
}

func (m *Motor) moveTo(target float64) error {
	m.mu.Lock()
	calibrated := m.state == Calibrated
	current := m.tracker.Position()
	d := m.tracker.Delta(target)
	if calibrated && math.Abs(d) <= moveThreshold {
		m.stats.Skipped++
	}
	m.mu.Unlock()
	if !calibrated {
		log.Printf("%s: Move rejected, hand is not calibrated", m.Name)
		return ErrNotCalibrated
	}
	if math.Abs(d) <= moveThreshold {
		return nil
	}
	steps := int(math.Round(d))
	log.Printf("%s: Moving %d steps (%.2f current, %.2f target)", m.Name, steps, current, Normalize(target, float64(m.rev)))
	return m.withPower(func() error {
		m.step(steps)
		m.mu.Lock()
		m.tracker.Advance(steps)
		m.stats.Moves++
		m.mu.Unlock()
		return nil
	})
}
