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
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var hostOnce sync.Once
var hostErr error

// PeriphPin is a GPIO pin accessed through periph.io, for boards
// where the sysfs GPIO interface is not available.
// It has the same Get/Set semantics as Gpio.
type PeriphPin struct {
	number int
	pin    gpio.PinIO
	out    bool
	level  gpio.Level
}

func periphInit() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

func periphPin(number int) (*PeriphPin, error) {
	if err := periphInit(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", number))
	if p == nil {
		return nil, fmt.Errorf("GPIO%d: pin not found", number)
	}
	return &PeriphPin{number: number, pin: p}, nil
}

// PeriphOutputPin opens a GPIO pin as an output, initially low.
func PeriphOutputPin(number int) (*PeriphPin, error) {
	p, err := periphPin(number)
	if err != nil {
		return nil, err
	}
	if err := p.pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("GPIO%d: %w", number, err)
	}
	p.out = true
	return p, nil
}

// PeriphInputPin opens a GPIO pin as an input with the pull-up enabled,
// as used by the open-collector hall sensor.
func PeriphInputPin(number int) (*PeriphPin, error) {
	p, err := periphPin(number)
	if err != nil {
		return nil, err
	}
	if err := p.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("GPIO%d: %w", number, err)
	}
	return p, nil
}

// Set drives an output pin.
func (p *PeriphPin) Set(v int) error {
	if !p.out {
		return fmt.Errorf("GPIO%d: is not output", p.number)
	}
	l := gpio.Low
	if v != 0 {
		l = gpio.High
	}
	if err := p.pin.Out(l); err != nil {
		return err
	}
	p.level = l
	return nil
}

// Get returns the level of the pin. For outputs this is the level
// last driven, since not every driver can read back an output.
func (p *PeriphPin) Get() (int, error) {
	l := p.level
	if !p.out {
		l = p.pin.Read()
	}
	if l == gpio.High {
		return 1, nil
	}
	return 0, nil
}

// Close releases the pin, leaving it as a high impedance input.
func (p *PeriphPin) Close() error {
	return p.pin.In(gpio.PullNoChange, gpio.NoEdge)
}
