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

package motor_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aamcrae/ringclock/motor"
	"github.com/aamcrae/ringclock/sim"
)

func levels(h *sim.Hand) [4]int {
	var l [4]int
	for i := range l {
		l[i], _ = h.Coil(i).Get()
	}
	return l
}

func TestPowerGateLatch(t *testing.T) {
	h := newHand()
	var slept []time.Duration
	g := motor.NewPowerGate(h.Pins(), 100*time.Millisecond, func(d time.Duration) { slept = append(slept, d) })
	h.Step(1)
	before := levels(h)
	require.Equal(t, [4]int{0, 1, 1, 0}, before)
	assert.True(t, g.Powered())

	require.NoError(t, g.PowerOff())
	assert.False(t, g.Powered())
	assert.Equal(t, [4]int{}, levels(h))
	assert.Equal(t, before, g.Latch())

	require.NoError(t, g.PowerOn())
	assert.True(t, g.Powered())
	assert.Equal(t, before, levels(h))
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, slept)
}

func TestPowerGateRepeated(t *testing.T) {
	h := newHand()
	var slept int
	g := motor.NewPowerGate(h.Pins(), time.Millisecond, func(time.Duration) { slept++ })
	h.Step(3)
	before := levels(h)

	require.NoError(t, g.PowerOff())
	// A second power off must not latch the all-low levels.
	require.NoError(t, g.PowerOff())
	assert.Equal(t, before, g.Latch())

	require.NoError(t, g.PowerOn())
	require.NoError(t, g.PowerOn())
	assert.Equal(t, before, levels(h))
	assert.Equal(t, 1, slept)
}

func TestPowerGateError(t *testing.T) {
	h := newHand()
	g := motor.NewPowerGate(h.Pins(), 0, nil)
	fail := errors.New("pin failure")
	h.Coil(2).Err = fail

	err := g.PowerOff()
	assert.True(t, errors.Is(err, fail))
	assert.True(t, g.Powered())
}

func TestMotorPowerAroundMoves(t *testing.T) {
	h := newHand()
	m := newMotor(t, h, 0)
	require.NoError(t, m.Calibrate())
	assert.False(t, m.Status().Powered)

	// Moves leave the power as they found it.
	require.NoError(t, m.PowerOn())
	require.NoError(t, m.MoveToMinute(10))
	assert.True(t, m.Status().Powered)
	require.NoError(t, m.PowerOff())
	assert.False(t, m.Status().Powered)
	assert.Equal(t, [4]int{}, levels(h))

	require.NoError(t, m.MoveToMinute(20))
	assert.False(t, m.Status().Powered)
	assert.Equal(t, [4]int{}, levels(h))
}

func TestPinSensor(t *testing.T) {
	p := new(sim.Pin)
	s := motor.NewPinSensor(p)

	r, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, motor.Found, r)

	require.NoError(t, p.Set(1))
	r, err = s.Read()
	require.NoError(t, err)
	assert.Equal(t, motor.NotFound, r)

	s.ActiveHigh = true
	r, err = s.Read()
	require.NoError(t, err)
	assert.Equal(t, motor.Found, r)
	assert.Equal(t, "Found", r.String())
}
