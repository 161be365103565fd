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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testPin struct {
	v    int
	sets int
}

func (p *testPin) Set(v int) error {
	p.v = v
	p.sets++
	return nil
}

func newTestStepper(half bool) (*Stepper, []*testPin, *[]time.Duration) {
	pins := []*testPin{{}, {}, {}, {}}
	s := NewStepper(2048, 10.0, half, pins[0], pins[1], pins[2], pins[3])
	var delays []time.Duration
	s.Sleep = func(d time.Duration) { delays = append(delays, d) }
	return s, pins, &delays
}

func values(pins []*testPin) []int {
	var v []int
	for _, p := range pins {
		v = append(v, p.v)
	}
	return v
}

func TestStepperFullStep(t *testing.T) {
	s, pins, delays := newTestStepper(false)
	s.Step(1)
	assert.Equal(t, []int{0, 1, 1, 0}, values(pins))
	s.Step(2)
	assert.Equal(t, []int{1, 0, 0, 1}, values(pins))
	assert.Equal(t, int64(3), s.GetStep())
	s.Step(-3)
	assert.Equal(t, []int{1, 1, 0, 0}, values(pins))
	assert.Equal(t, int64(0), s.GetStep())
	assert.Len(t, *delays, 6)
	// 60s / (2048 steps * 10 RPM)
	rpm := 10.0
	assert.Equal(t, time.Duration(60e9/2048/rpm), (*delays)[0])
}

func TestStepperHalfStep(t *testing.T) {
	s, pins, _ := newTestStepper(true)
	s.Step(-1)
	assert.Equal(t, []int{1, 0, 0, 1}, values(pins))
	s.Step(9)
	assert.Equal(t, []int{1, 0, 0, 0}, values(pins))
	assert.Equal(t, int64(8), s.GetStep())
}

func TestStepperZero(t *testing.T) {
	s, pins, delays := newTestStepper(false)
	s.Step(0)
	assert.Empty(t, *delays)
	assert.Equal(t, 0, pins[0].sets)
	assert.Equal(t, int64(0), s.GetStep())
}

func TestStepperSpeed(t *testing.T) {
	s, _, delays := newTestStepper(false)
	s.SetSpeed(0)
	rpm := 20.0
	s.SetSpeed(rpm)
	s.Step(1)
	assert.Equal(t, time.Duration(60e9/2048/rpm), (*delays)[0])
}
