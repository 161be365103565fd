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
	"time"

	"github.com/aamcrae/config"
	"github.com/aamcrae/ringclock/io"
	"github.com/aamcrae/ringclock/motor"
)

// Defaults for optional configuration values.
const (
	defaultSettle = 100 * time.Millisecond
	defaultPoll   = 50 * time.Millisecond
	defaultMicro  = 4
)

// Configuration data for the clock hand, read from a configuration file.
type ClockConfig struct {
	Name        string
	Gpio        []int
	Speed       float64
	Steps       int
	HalfStep    bool
	Sensor      int
	Adjust      int
	Slow        time.Duration
	Settle      time.Duration
	Backend     string
	Seconds     bool
	Poll        time.Duration
	Micro       int
	Recalibrate bool
}

// StatusConfig is the optional configuration of the status reporting.
type StatusConfig struct {
	Port      int
	Clockface string
	Broker    string
	Topic     string
	Client    string
	Serial    string
}

// TimeConfig is the optional configuration of the time source.
type TimeConfig struct {
	GPS  string
	Zone *time.Location
}

// ClockHand combines the I/O for a hand with the motor controlling it.
// The config for each hand is parsed from a configuration file.
type ClockHand struct {
	Stepper *io.Stepper
	Coils   [4]io.IOPin
	Input   io.IOPin
	Motor   *motor.Motor
	Config  *ClockConfig
}

// Config reads and validates a ClockHand config from a config file section.
// Sample config:
//  [minutes]                  # name of hand
//  stepper=14,15,16,17,11.0   # GPIOs for stepper motor, and speed in RPM
//  steps=2048                 # Number of steps in a revolution
//  halfstep=0                 # 1 to use the half step sequence
//  sensor=2                   # GPIO for hall sensor
//  adjust=6                   # Centering adjustment in steps
//  slow=0ms                   # Delay between calibration steps
//  settle=100ms               # Delay after motor power is restored
//  gpio=sysfs                 # GPIO access, sysfs or periph
//  resolution=minute          # Move every minute or every second
//  poll=50ms                  # Time polling interval
//  micro=4                    # Micro-calibrate every N hours, 0 to disable
//  recalibrate=0              # 1 to fully calibrate when micro-calibration misses
func Config(conf *config.Config, name string) (*ClockConfig, error) {
	s := conf.GetSection(name)
	if s == nil {
		return nil, fmt.Errorf("no config for %s", name)
	}
	return parseConfig(s, name)
}

func parseConfig(s section, name string) (*ClockConfig, error) {
	var h ClockConfig
	h.Name = name
	h.Gpio = make([]int, 4)
	n, err := s.Parse("stepper", "%d,%d,%d,%d,%f", &h.Gpio[0], &h.Gpio[1], &h.Gpio[2], &h.Gpio[3], &h.Speed)
	if err != nil {
		return nil, fmt.Errorf("stepper: %v", err)
	}
	if n != 5 {
		return nil, fmt.Errorf("invalid stepper arguments")
	}
	if err := parseInt(s, "steps", &h.Steps); err != nil {
		return nil, err
	}
	if h.Steps < 12 {
		return nil, fmt.Errorf("steps: %d is too small", h.Steps)
	}
	if err := parseInt(s, "sensor", &h.Sensor); err != nil {
		return nil, err
	}
	if err := parseInt(s, "adjust", &h.Adjust); err != nil {
		return nil, err
	}
	if h.HalfStep, err = optBool(s, "halfstep"); err != nil {
		return nil, err
	}
	if h.Slow, err = optDuration(s, "slow", 0); err != nil {
		return nil, err
	}
	if h.Settle, err = optDuration(s, "settle", defaultSettle); err != nil {
		return nil, err
	}
	if h.Poll, err = optDuration(s, "poll", defaultPoll); err != nil {
		return nil, err
	}
	if h.Poll <= 0 {
		return nil, fmt.Errorf("poll: must be positive")
	}
	h.Backend = optString(s, "gpio", io.Sysfs)
	if h.Backend != io.Sysfs && h.Backend != io.Periph {
		return nil, fmt.Errorf("gpio: unknown backend %s", h.Backend)
	}
	switch r := optString(s, "resolution", "minute"); r {
	case "minute":
	case "second":
		h.Seconds = true
	default:
		return nil, fmt.Errorf("resolution: unknown value %s", r)
	}
	h.Micro = defaultMicro
	if _, err := s.GetArg("micro"); err == nil {
		if err := parseInt(s, "micro", &h.Micro); err != nil {
			return nil, err
		}
	}
	if h.Micro < 0 {
		return nil, fmt.Errorf("micro: must not be negative")
	}
	if h.Recalibrate, err = optBool(s, "recalibrate"); err != nil {
		return nil, err
	}
	return &h, nil
}

// section is the part of a config file section used here.
type section interface {
	GetArg(string) (string, error)
	Parse(string, string, ...interface{}) (int, error)
}

// StatusConfigFrom reads the optional [status] section. A missing section
// disables the status server and publisher.
func StatusConfigFrom(conf *config.Config) (*StatusConfig, error) {
	s := conf.GetSection("status")
	if s == nil {
		return &StatusConfig{}, nil
	}
	return parseStatus(s)
}

func parseStatus(s section) (*StatusConfig, error) {
	var st StatusConfig
	if _, err := s.GetArg("port"); err == nil {
		if err := parseInt(s, "port", &st.Port); err != nil {
			return nil, err
		}
	}
	st.Clockface = optString(s, "clockface", "")
	st.Broker = optString(s, "mqtt", "")
	st.Topic = optString(s, "topic", "ringclock")
	st.Client = optString(s, "client", "ringclock")
	st.Serial = optString(s, "serial", "")
	return &st, nil
}

// TimeConfigFrom reads the optional [time] section.
//  [time]
//  gps=/dev/ttyAMA0,9600      # NMEA GPS receiver serial port and baud rate
//  zone=Australia/Sydney      # Time zone shown on the clock
func TimeConfigFrom(conf *config.Config) (*TimeConfig, error) {
	s := conf.GetSection("time")
	if s == nil {
		return &TimeConfig{Zone: time.Local}, nil
	}
	return parseTimeConfig(s)
}

func parseTimeConfig(s section) (*TimeConfig, error) {
	tc := &TimeConfig{GPS: optString(s, "gps", ""), Zone: time.Local}
	if z := optString(s, "zone", ""); z != "" {
		loc, err := time.LoadLocation(z)
		if err != nil {
			return nil, fmt.Errorf("zone: %v", err)
		}
		tc.Zone = loc
	}
	return tc, nil
}

func parseInt(s section, key string, v *int) error {
	n, err := s.Parse(key, "%d", v)
	if err != nil {
		return fmt.Errorf("%s: %v", key, err)
	}
	if n != 1 {
		return fmt.Errorf("%s: argument count", key)
	}
	return nil
}

func optString(s section, key, def string) string {
	v, err := s.GetArg(key)
	if err != nil || v == "" {
		return def
	}
	return v
}

func optBool(s section, key string) (bool, error) {
	switch v := optString(s, key, "0"); v {
	case "0", "false", "no":
		return false, nil
	case "1", "true", "yes":
		return true, nil
	default:
		return false, fmt.Errorf("%s: invalid value %s", key, v)
	}
}

func optDuration(s section, key string, def time.Duration) (time.Duration, error) {
	v, err := s.GetArg(key)
	if err != nil {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", key, err)
	}
	return d, nil
}

// NewClockHand initialises the I/O and the motor from the
// hand configuration.
func NewClockHand(hc *ClockConfig) (*ClockHand, error) {
	c := new(ClockHand)
	c.Config = hc
	var err error
	var pins [4]motor.Pin
	var setters [4]io.Setter
	for i, v := range hc.Gpio {
		c.Coils[i], err = io.OpenOutput(hc.Backend, v)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("Pin %d: %v", v, err)
		}
		pins[i] = c.Coils[i]
		setters[i] = c.Coils[i]
	}
	c.Stepper = io.NewStepper(hc.Steps, hc.Speed, hc.HalfStep, setters[0], setters[1], setters[2], setters[3])
	c.Input, err = io.OpenInput(hc.Backend, hc.Sensor)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("Sensor %d: %v", hc.Sensor, err)
	}
	gate := motor.NewPowerGate(pins, hc.Settle, nil)
	c.Motor, err = motor.NewMotor(motor.Config{
		Name:      hc.Name,
		Steps:     hc.Steps,
		Adjust:    hc.Adjust,
		SlowDelay: hc.Slow,
	}, c.Stepper, motor.NewPinSensor(c.Input), gate)
	if err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Options returns the driver options from the hand configuration.
func (hc *ClockConfig) Options() Options {
	return Options{
		Seconds:     hc.Seconds,
		Poll:        hc.Poll,
		Micro:       hc.Micro,
		Recalibrate: hc.Recalibrate,
	}
}

// Close shuts down the clock hand and release the resources.
func (c *ClockHand) Close() {
	if c.Motor != nil {
		c.Motor.PowerOff()
	}
	for _, p := range c.Coils {
		if p != nil {
			p.Close()
		}
	}
	if c.Input != nil {
		c.Input.Close()
	}
}
