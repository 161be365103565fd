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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aamcrae/ringclock/motor"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{10.5, 10.5},
		{2048, 0},
		{2050, 2},
		{-1, 2047},
		{-2048, 0},
		{-4100, 2044},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, motor.Normalize(tc.in, rev), "Normalize(%v)", tc.in)
	}
}

func TestDeltaShortestPath(t *testing.T) {
	for _, r := range []int{2048, 4096, 4017, 13} {
		tr := motor.NewTracker(r)
		half := float64(r) / 2
		for p := 0; p < r; p += 1 + r/97 {
			tr.Reset()
			tr.Advance(p)
			for target := -float64(r); target < 2*float64(r); target += 0.75 + float64(r)/211 {
				d := tr.Delta(target)
				require.True(t, d >= -half && d <= half, "rev %d pos %d target %v delta %v", r, p, target, d)
				// The delta lands on the target.
				got := motor.Normalize(float64(p)+d, float64(r))
				want := motor.Normalize(target, float64(r))
				diff := got - want
				if diff > half {
					diff -= float64(r)
				} else if diff < -half {
					diff += float64(r)
				}
				assert.InDelta(t, 0, diff, 1e-6)
			}
		}
	}
}

func TestAdvanceWraps(t *testing.T) {
	tr := motor.NewTracker(rev)
	tr.Advance(2000)
	tr.Advance(100)
	assert.Equal(t, 52.0, tr.Position())
	tr.Advance(-60)
	assert.Equal(t, 2040.0, tr.Position())
}

func TestMoveRequiresCalibration(t *testing.T) {
	h := newHand()
	m := newMotor(t, h, 0)
	assert.True(t, errors.Is(m.MoveToMinute(30), motor.ErrNotCalibrated))
	assert.True(t, errors.Is(m.MoveTo(100), motor.ErrNotCalibrated))
	assert.Equal(t, 0, h.Total())
	assert.Equal(t, 0.0, m.Position())
}

func TestMoveToMinuteRoundTrip(t *testing.T) {
	h := newHand()
	m := newMotor(t, h, 0)
	require.NoError(t, m.Calibrate())
	h.Reset()

	require.NoError(t, m.MoveToMinute(30))
	require.NoError(t, m.MoveToMinute(0))
	assert.Equal(t, []int{1024, -1024}, h.Moves())
	assert.Equal(t, 0.0, m.Position())
}

func TestMoveToIdempotent(t *testing.T) {
	h := newHand()
	m := newMotor(t, h, 0)
	require.NoError(t, m.Calibrate())
	for _, target := range []float64{0.4, 34.1333, 1000, 1023.5, 1500.49, 2047.7, 77.25} {
		require.NoError(t, m.MoveTo(target))
		n := len(h.Moves())
		require.NoError(t, m.MoveTo(target))
		assert.Equal(t, n, len(h.Moves()), "second move to %v stepped", target)
	}
}

func TestMoveShortestWay(t *testing.T) {
	h := newHand()
	m := newMotor(t, h, 0)
	require.NoError(t, m.Calibrate())
	h.Reset()

	require.NoError(t, m.MoveToMinute(55))
	require.NoError(t, m.MoveToMinute(5))
	assert.Equal(t, []int{-171, 342}, h.Moves())
	assert.InDelta(t, 171.0, m.Position(), 1e-9)
}

func TestMoveSubStepIgnored(t *testing.T) {
	h := newHand()
	m := newMotor(t, h, 0)
	require.NoError(t, m.Calibrate())
	h.Reset()

	require.NoError(t, m.MoveTo(0.5))
	require.NoError(t, m.MoveTo(-0.5))
	assert.Empty(t, h.Moves())
	assert.Equal(t, 2, m.Status().Skipped)
	require.NoError(t, m.MoveTo(0.6))
	assert.Equal(t, []int{1}, h.Moves())
}

func TestMoveToSecond(t *testing.T) {
	h := newHand()
	m := newMotor(t, h, 0)
	require.NoError(t, m.Calibrate())
	h.Reset()

	require.NoError(t, m.MoveToSecond(15, 0))
	require.NoError(t, m.MoveToSecond(15, 30))
	assert.Equal(t, []int{512, 17}, h.Moves())
	assert.Equal(t, 529.0, m.Position())
}

func TestMoveInvalidTime(t *testing.T) {
	h := newHand()
	m := newMotor(t, h, 0)
	require.NoError(t, m.Calibrate())
	h.Reset()

	assert.True(t, errors.Is(m.MoveToMinute(60), motor.ErrInvalidTime))
	assert.True(t, errors.Is(m.MoveToMinute(-1), motor.ErrInvalidTime))
	assert.True(t, errors.Is(m.MoveToSecond(10, 60), motor.ErrInvalidTime))
	assert.Empty(t, h.Moves())
}

func TestMoveNonFinite(t *testing.T) {
	h := newHand()
	m := newMotor(t, h, 0)
	require.NoError(t, m.Calibrate())
	require.NoError(t, m.MoveTo(100))
	h.Reset()

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.True(t, errors.Is(m.MoveTo(v), motor.ErrInvalidTime), "MoveTo(%v)", v)
	}
	assert.Equal(t, 0, h.Total())
	assert.Equal(t, 100.0, m.Position())
	assert.Equal(t, motor.Calibrated, m.State())
}

func TestMovesTrackWholeRevolution(t *testing.T) {
	h := newHand()
	m := newMotor(t, h, 0)
	require.NoError(t, m.Calibrate())
	start := h.Absolute()
	h.Reset()

	for min := 1; min <= 60; min++ {
		require.NoError(t, m.MoveToMinute(min%60))
	}
	// A full hour moves the hand exactly one revolution.
	assert.Equal(t, start+rev, h.Absolute())
	assert.Equal(t, 0.0, m.Position())
	for _, mv := range h.Moves() {
		assert.True(t, mv == 34 || mv == 35, "move of %d steps", mv)
	}
}

func TestVerifyAndHome(t *testing.T) {
	h := newHand()
	m := newMotor(t, h, 0)
	require.NoError(t, m.Calibrate())
	require.NoError(t, m.MoveToMinute(40))

	ok, err := m.Verify()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.0, m.Position())

	require.NoError(t, m.MoveToMinute(20))
	require.NoError(t, m.Home())
	assert.Equal(t, 0.0, m.Position())
}

func TestJog(t *testing.T) {
	h := newHand()
	m := newMotor(t, h, 0)
	require.NoError(t, m.Jog(-10))
	assert.Equal(t, 2038.0, m.Position())
	assert.Equal(t, []int{-10}, h.Moves())
}
