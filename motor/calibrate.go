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
	"errors"
	"fmt"
	"log"
)

// Calibrate finds the sensor zone, measures its width from both sides
// and parks the hand in the middle of the zone, offset by the
// centering adjustment. The hand position is then set to zero.
// The hand is uncalibrated until this completes successfully.
// A failure is returned to the caller and never retried.
func (m *Motor) Calibrate() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()
	log.Printf("%s: Starting calibration", m.Name)
	m.mu.Lock()
	m.state = Uncalibrated
	m.mu.Unlock()
	err := m.withPower(func() error {
		return m.calibrate(true)
	})
	if err != nil {
		log.Printf("%s: Calibration failed: %v", m.Name, err)
		return err
	}
	return nil
}

// MicroCalibrate re-homes a calibrated hand that is expected to be
// close to zero. Only 1/12 of a revolution either side of the current
// location is searched. If the sensor is not found the hand is returned
// to where it started, the position is left unchanged, and
// ErrHomeNotFound is returned.
func (m *Motor) MicroCalibrate() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()
	if m.State() != Calibrated {
		return ErrNotCalibrated
	}
	log.Printf("%s: Starting micro-calibration", m.Name)
	err := m.withPower(func() error {
		return m.calibrate(false)
	})
	if errors.Is(err, ErrHomeNotFound) {
		m.mu.Lock()
		m.stats.Drifts++
		m.mu.Unlock()
		log.Printf("%s: Micro-calibration skipped (%v)", m.Name, err)
	}
	return err
}

// calibrate runs the calibration. A full search starts by leaving the
// sensor zone and searches a whole revolution; otherwise the zone is
// searched for close to the current location.
func (m *Motor) calibrate(fullSearch bool) error {
	if fullSearch {
		if err := m.exitZone(); err != nil {
			return err
		}
	} else {
		found, err := m.locate()
		if err != nil || !found {
			m.restore()
			if err != nil {
				return err
			}
			return fmt.Errorf("%s: %w", m.Name, ErrHomeNotFound)
		}
	}
	steps1, err := m.findEdge(Forward)
	if err == nil {
		log.Printf("%s: Forward steps: %d", m.Name, steps1)
		var steps2 int
		steps2, err = m.findEdge(Backward)
		if err == nil {
			log.Printf("%s: Backward steps: %d", m.Name, steps2)
			m.center(steps1, steps2)
		}
	}
	if err != nil {
		if fullSearch {
			return err
		}
		m.restore()
		return fmt.Errorf("%w: %v", ErrHomeNotFound, err)
	}
	m.mu.Lock()
	m.tracker.Reset()
	if fullSearch {
		m.state = Calibrated
		m.stats.Calibrations++
	} else {
		m.stats.MicroCalibrations++
	}
	m.mu.Unlock()
	log.Printf("%s: Calibration complete", m.Name)
	return nil
}

// center moves the hand from just outside the zone (having crossed it
// backwards) to the middle of the zone. Averaging the widths measured
// in each direction cancels the sensor hysteresis.
func (m *Motor) center(steps1, steps2 int) {
	c := (steps1 + steps2) / 2
	log.Printf("%s: Center steps: %d", m.Name, c)
	m.stepSlow(c)
	m.stepSlow(-(c/2 + m.adjust))
}

// locate checks for the sensor at the current location, then
// searches forward and then backward a short distance.
func (m *Motor) locate() (bool, error) {
	r, err := m.read()
	if err != nil || r == Found {
		return r == Found, err
	}
	arc := m.rev / 12
	n, found, err := m.search(Forward, arc)
	if err != nil || found {
		return found, err
	}
	// Return to the start before searching the other way.
	m.step(-n)
	_, found, err = m.search(Backward, arc)
	return found, err
}
