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
)

// findEdge steps in the direction until the sensor zone is entered,
// then keeps stepping until the zone is left, returning the number
// of steps taken across the zone.
// The zone must be entered within one revolution and must be left
// within two, otherwise ErrSensorTimeout is returned.
func (m *Motor) findEdge(dir Direction) (int, error) {
	for i := 0; ; i++ {
		r, err := m.read()
		if err != nil {
			return 0, err
		}
		if r == Found {
			break
		}
		if i == m.rev {
			return 0, fmt.Errorf("%s: %w: sensor not found after %d steps", m.Name, ErrSensorTimeout, i)
		}
		m.step(int(dir))
		if m.slow > 0 {
			m.sleep(m.slow)
		}
	}
	steps := 0
	for {
		r, err := m.read()
		if err != nil {
			return 0, err
		}
		if r == NotFound {
			return steps, nil
		}
		if steps == 2*m.rev {
			return 0, fmt.Errorf("%s: %w: sensor still active after %d steps", m.Name, ErrSensorTimeout, steps)
		}
		m.step(int(dir))
		steps++
		if m.slow > 0 {
			m.sleep(m.slow)
		}
	}
}

// exitZone steps forward until the sensor is no longer active.
func (m *Motor) exitZone() error {
	for i := 0; ; i++ {
		r, err := m.read()
		if err != nil {
			return err
		}
		if r == NotFound {
			return nil
		}
		if i == m.rev {
			return fmt.Errorf("%s: %w: sensor stuck active after %d steps", m.Name, ErrSensorTimeout, i)
		}
		m.step(int(Forward))
	}
}

// search steps up to limit steps in the direction, stopping as soon
// as the sensor is found. The number of steps taken is returned.
func (m *Motor) search(dir Direction, limit int) (int, bool, error) {
	for i := 0; i < limit; i++ {
		m.step(int(dir))
		r, err := m.read()
		if err != nil {
			return i + 1, false, err
		}
		if r == Found {
			return i + 1, true, nil
		}
	}
	return limit, false, nil
}
