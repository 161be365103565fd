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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aamcrae/ringclock/io"
)

type testSection map[string]string

func (s testSection) GetArg(key string) (string, error) {
	v, ok := s[key]
	if !ok {
		return "", fmt.Errorf("%s: not found", key)
	}
	return v, nil
}

func (s testSection) Parse(key, format string, args ...interface{}) (int, error) {
	v, err := s.GetArg(key)
	if err != nil {
		return 0, err
	}
	return fmt.Sscanf(v, format, args...)
}

func minimal() testSection {
	return testSection{
		"stepper": "14,15,16,17,11.0",
		"steps":   "2048",
		"sensor":  "2",
		"adjust":  "6",
	}
}

func TestConfigDefaults(t *testing.T) {
	c, err := parseConfig(minimal(), "minutes")
	require.NoError(t, err)
	assert.Equal(t, "minutes", c.Name)
	assert.Equal(t, []int{14, 15, 16, 17}, c.Gpio)
	assert.Equal(t, 11.0, c.Speed)
	assert.Equal(t, 2048, c.Steps)
	assert.Equal(t, 2, c.Sensor)
	assert.Equal(t, 6, c.Adjust)
	assert.False(t, c.HalfStep)
	assert.Equal(t, time.Duration(0), c.Slow)
	assert.Equal(t, defaultSettle, c.Settle)
	assert.Equal(t, defaultPoll, c.Poll)
	assert.Equal(t, io.Sysfs, c.Backend)
	assert.False(t, c.Seconds)
	assert.Equal(t, defaultMicro, c.Micro)
	assert.False(t, c.Recalibrate)

	o := c.Options()
	assert.Equal(t, Options{Poll: defaultPoll, Micro: defaultMicro}, o)
}

func TestConfigOptional(t *testing.T) {
	s := minimal()
	s["halfstep"] = "1"
	s["slow"] = "2ms"
	s["settle"] = "250ms"
	s["gpio"] = "periph"
	s["resolution"] = "second"
	s["poll"] = "20ms"
	s["micro"] = "0"
	s["recalibrate"] = "yes"
	c, err := parseConfig(s, "seconds")
	require.NoError(t, err)
	assert.True(t, c.HalfStep)
	assert.Equal(t, 2*time.Millisecond, c.Slow)
	assert.Equal(t, 250*time.Millisecond, c.Settle)
	assert.Equal(t, io.Periph, c.Backend)
	assert.True(t, c.Seconds)
	assert.Equal(t, 20*time.Millisecond, c.Poll)
	assert.Equal(t, 0, c.Micro)
	assert.True(t, c.Recalibrate)
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"stepper", "14,15,16"},
		{"steps", "10"},
		{"steps", "many"},
		{"halfstep", "maybe"},
		{"slow", "fast"},
		{"poll", "0s"},
		{"gpio", "mmap"},
		{"resolution", "hour"},
		{"micro", "-1"},
	}
	for _, tc := range tests {
		s := minimal()
		s[tc.key] = tc.value
		_, err := parseConfig(s, "minutes")
		assert.Error(t, err, "%s=%s", tc.key, tc.value)
	}
	for _, key := range []string{"stepper", "steps", "sensor", "adjust"} {
		s := minimal()
		delete(s, key)
		_, err := parseConfig(s, "minutes")
		assert.Error(t, err, "missing %s", key)
	}
}

func TestStatusConfig(t *testing.T) {
	st, err := parseStatus(testSection{})
	require.NoError(t, err)
	assert.Equal(t, &StatusConfig{Topic: "ringclock", Client: "ringclock"}, st)

	st, err = parseStatus(testSection{
		"port":      "8080",
		"clockface": "face.jpg",
		"mqtt":      "tcp://localhost:1883",
		"topic":     "clock/hands",
		"serial":    "/dev/ttyUSB0,9600",
	})
	require.NoError(t, err)
	assert.Equal(t, 8080, st.Port)
	assert.Equal(t, "face.jpg", st.Clockface)
	assert.Equal(t, "tcp://localhost:1883", st.Broker)
	assert.Equal(t, "clock/hands", st.Topic)
	assert.Equal(t, "ringclock", st.Client)
	assert.Equal(t, "/dev/ttyUSB0,9600", st.Serial)

	_, err = parseStatus(testSection{"port": "http"})
	assert.Error(t, err)
}

func TestTimeConfig(t *testing.T) {
	tc, err := parseTimeConfig(testSection{})
	require.NoError(t, err)
	assert.Equal(t, "", tc.GPS)
	assert.Equal(t, time.Local, tc.Zone)

	tc, err = parseTimeConfig(testSection{"gps": "/dev/ttyAMA0,9600", "zone": "UTC"})
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyAMA0,9600", tc.GPS)
	assert.Equal(t, time.UTC, tc.Zone)

	_, err = parseTimeConfig(testSection{"zone": "Nowhere/Special"})
	assert.Error(t, err)
}
