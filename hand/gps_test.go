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

package hand

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validRMC   = "$GPRMC,101530,A,5133.82,N,00042.24,W,173.8,231.8,010621,004.2,W*79"
	invalidRMC = "$GPRMC,101530,V,5133.82,N,00042.24,W,173.8,231.8,010621,004.2,W*6E"
)

func newTestGPS(now time.Time) *GPSClock {
	g := NewGPSClock(time.UTC)
	g.now = func() time.Time { return now }
	return g
}

func TestGPSClockUnsynced(t *testing.T) {
	now := time.Date(2021, 6, 1, 10, 15, 0, 0, time.UTC)
	g := newTestGPS(now)
	assert.False(t, g.Synced())
	assert.Equal(t, now, g.Now())

	ok, err := g.Update(invalidRMC)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, g.Synced())
}

func TestGPSClockFix(t *testing.T) {
	now := time.Date(2021, 6, 1, 10, 15, 0, 0, time.UTC)
	g := newTestGPS(now)
	ok, err := g.Update(validRMC)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, g.Synced())
	assert.Equal(t, 30*time.Second, g.Offset())
	h, m, s := g.Now().Clock()
	assert.Equal(t, []int{10, 15, 30}, []int{h, m, s})
}

func TestGPSClockBadSentence(t *testing.T) {
	g := newTestGPS(time.Now())
	_, err := g.Update("$GPRMC,101530,A*00")
	assert.Error(t, err)
	assert.False(t, g.Synced())
}

func TestGPSClockRun(t *testing.T) {
	now := time.Date(2021, 6, 1, 10, 16, 0, 0, time.UTC)
	g := newTestGPS(now)
	input := strings.Join([]string{
		"garbage",
		"$GPGGA,bad*00",
		invalidRMC,
		validRMC,
	}, "\r\n")
	err := g.Run(strings.NewReader(input))
	assert.Equal(t, io.EOF, err)
	assert.True(t, g.Synced())
	assert.Equal(t, -30*time.Second, g.Offset())
}
