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
	"fmt"
)

// GPIO backends
const (
	Sysfs  = "sysfs"
	Periph = "periph"
)

// Setter is an interface for setting an output value on a GPIO
type Setter interface {
	Set(int) error
}

// IOPin is a GPIO pin that can be read, written and released,
// independent of the backend used to access it.
type IOPin interface {
	Setter
	Get() (int, error)
	Close() error
}

// OpenOutput opens an output pin using the named backend.
func OpenOutput(backend string, gpio int) (IOPin, error) {
	var p IOPin
	var err error
	switch backend {
	case "", Sysfs:
		p, err = OutputPin(gpio)
	case Periph:
		p, err = PeriphOutputPin(gpio)
	default:
		err = fmt.Errorf("%s: unknown GPIO backend", backend)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// OpenInput opens an input pin using the named backend.
func OpenInput(backend string, gpio int) (IOPin, error) {
	var p IOPin
	var err error
	switch backend {
	case "", Sysfs:
		p, err = Pin(gpio)
	case Periph:
		p, err = PeriphInputPin(gpio)
	default:
		err = fmt.Errorf("%s: unknown GPIO backend", backend)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
