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

// Reading is a single read of the home sensor.
type Reading int

const (
	NotFound Reading = iota
	Found
)

func (r Reading) String() string {
	if r == Found {
		return "Found"
	}
	return "NotFound"
}

// Sensor is the binary home sensor. Each read is authoritative;
// any debouncing is done by the hardware.
type Sensor interface {
	Read() (Reading, error)
}

// Getter reads the level of an input pin.
type Getter interface {
	Get() (int, error)
}

// PinSensor adapts a GPIO input to a Sensor.
// The hall sensor pulls the input low when the magnet is present,
// so by default a low level reads as Found.
type PinSensor struct {
	pin        Getter
	ActiveHigh bool
}

// NewPinSensor returns an active low sensor reading the pin.
func NewPinSensor(pin Getter) *PinSensor {
	return &PinSensor{pin: pin}
}

func (s *PinSensor) Read() (Reading, error) {
	v, err := s.pin.Get()
	if err != nil {
		return NotFound, err
	}
	if (v != 0) == s.ActiveHigh {
		return Found, nil
	}
	return NotFound, nil
}
