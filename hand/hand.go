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

// Clock hand processing

package hand

import (
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/aamcrae/ringclock/motor"
)

// The hour change is handled as the minute hand approaches the hour.
const (
	rolloverMinute = 59
	rolloverSecond = 57
)

// TimeSource supplies the current time of day.
type TimeSource interface {
	Now() time.Time
}

// ZoneTime is the system time in a location.
type ZoneTime struct {
	Loc *time.Location
}

func (z ZoneTime) Now() time.Time {
	if z.Loc == nil {
		return time.Now()
	}
	return time.Now().In(z.Loc)
}

// Publisher is sent the motor status whenever it changes.
type Publisher interface {
	Publish(motor.Status) error
}

// Options control the behaviour of a Hand.
type Options struct {
	Seconds     bool          // Move every second rather than every minute
	Poll        time.Duration // Time polling interval
	Micro       int           // Micro-calibrate every Micro hours, 0 to disable
	Recalibrate bool          // Calibrate fully if the micro-calibration misses
	Clock       TimeSource    // Defaults to the system time
	Publisher   Publisher     // Optional
}

// Hand drives the motor of a clock hand from the time of day.
// The time is polled, and whenever the minute (or second) changes, the hand
// is moved to the matching position. Just before the hour changes,
// the hand may be micro-calibrated to remove any accumulated drift.
// All motor operations are issued from the goroutine running the hand.
type Hand struct {
	Name        string
	motor       *motor.Motor
	opts        Options
	calibrate   chan struct{}
	lastHour    int
	lastMinute  int
	lastSecond  int
	lastHourChg int
	published   motor.Status
	ticking     int32
	Errors      int32 // Failed motor operations
}

// NewHand creates and initialises a Hand.
func NewHand(name string, m *motor.Motor, opts Options) *Hand {
	h := new(Hand)
	h.Name = name
	h.motor = m
	h.opts = opts
	if h.opts.Clock == nil {
		h.opts.Clock = ZoneTime{}
	}
	if h.opts.Poll <= 0 {
		h.opts.Poll = defaultPoll
	}
	h.calibrate = make(chan struct{}, 1)
	h.reset()
	h.lastHourChg = -1
	log.Printf("%s: steps %d, seconds %v, poll %s, micro-calibration every %d hours\n", h.Name, m.Steps(), opts.Seconds, h.opts.Poll, opts.Micro)
	return h
}

// Motor returns the motor of the hand.
func (h *Hand) Motor() *motor.Motor {
	return h.motor
}

// Status returns the motor status.
func (h *Hand) Status() motor.Status {
	return h.motor.Status()
}

// Position returns the current position of the hand as well as the
// number of steps in a revolution.
func (h *Hand) Position() (float64, int) {
	return h.motor.Position(), h.motor.Steps()
}

// Ticking returns true once the hand has completed initialisation and is ticking.
func (h *Hand) Ticking() bool {
	return atomic.LoadInt32(&h.ticking) != 0
}

// RequestCalibration asks the running hand to perform a full calibration.
// It returns false if a request is already pending.
func (h *Hand) RequestCalibration() bool {
	select {
	case h.calibrate <- struct{}{}:
		return true
	default:
		return false
	}
}

// Start calibrates the hand and moves it to the current time.
// A calibration failure is returned; the hand will not move until
// a later calibration succeeds.
func (h *Hand) Start() error {
	err := h.motor.Calibrate()
	if err != nil {
		atomic.AddInt32(&h.Errors, 1)
		h.publish()
		return err
	}
	log.Printf("%s: Calibration successful", h.Name)
	h.Tick(h.opts.Clock.Now())
	return nil
}

// Run starts the ticking of the hand. The time is polled and
// the hand moved to match it. Calibration requests are serviced
// between polls. Run does not return.
func (h *Hand) Run() {
	if err := h.Start(); err != nil {
		log.Printf("%s: Calibration failed: %v", h.Name, err)
	}
	ticker := time.NewTicker(h.opts.Poll)
	defer ticker.Stop()
	atomic.StoreInt32(&h.ticking, 1)
	for {
		select {
		case <-h.calibrate:
			h.Recalibrate()
		case <-ticker.C:
			h.Tick(h.opts.Clock.Now())
		}
	}
}

// Recalibrate performs a full calibration and then moves
// the hand back to the current time.
func (h *Hand) Recalibrate() {
	if err := h.motor.Calibrate(); err != nil {
		atomic.AddInt32(&h.Errors, 1)
		log.Printf("%s: Calibration failed: %v", h.Name, err)
	}
	h.reset()
	h.Tick(h.opts.Clock.Now())
}

// reset forces the next tick to move the hand.
func (h *Hand) reset() {
	h.lastHour, h.lastMinute, h.lastSecond = -1, -1, -1
}

// Tick updates the hand for the time. Nothing is done unless the
// second has changed since the last tick.
func (h *Hand) Tick(t time.Time) {
	hour, minute, second := t.Clock()
	if hour == h.lastHour && minute == h.lastMinute && second == h.lastSecond {
		return
	}
	minuteChanged := minute != h.lastMinute
	if hour != h.lastHour && h.lastHour >= 0 {
		log.Printf("%s: Hour changed to %d", h.Name, hour)
	}
	h.lastHour, h.lastMinute, h.lastSecond = hour, minute, second
	if h.opts.Seconds || minuteChanged {
		h.move(minute, second)
	}
	if minute == rolloverMinute && (second == rolloverSecond || second == rolloverSecond+1) {
		next := (hour + 1) % 24
		if next != h.lastHourChg {
			h.hourChange(next, minute, second)
			h.lastHourChg = next
		}
	}
	h.publish()
}

// hourChange runs the micro-calibration on the configured hours,
// and returns the hand to the current time.
func (h *Hand) hourChange(next, minute, second int) {
	if h.opts.Micro <= 0 || next%h.opts.Micro != 0 {
		return
	}
	log.Printf("%s: Hour transition to %d, performing micro-calibration", h.Name, next)
	if err := h.motor.PowerOn(); err != nil {
		log.Printf("%s: Power on: %v", h.Name, err)
	}
	defer func() {
		if err := h.motor.PowerOff(); err != nil {
			log.Printf("%s: Power off: %v", h.Name, err)
		}
	}()
	err := h.motor.MicroCalibrate()
	switch {
	case errors.Is(err, motor.ErrHomeNotFound):
		if h.opts.Recalibrate {
			log.Printf("%s: Hand has drifted from home, recalibrating", h.Name)
			if err := h.motor.Calibrate(); err != nil {
				atomic.AddInt32(&h.Errors, 1)
				log.Printf("%s: Calibration failed: %v", h.Name, err)
			}
		}
	case err != nil:
		atomic.AddInt32(&h.Errors, 1)
		log.Printf("%s: Micro-calibration: %v", h.Name, err)
	}
	h.move(minute, second)
}

func (h *Hand) move(minute, second int) {
	var err error
	if h.opts.Seconds {
		err = h.motor.MoveToSecond(minute, second)
	} else {
		err = h.motor.MoveToMinute(minute)
	}
	if err != nil {
		atomic.AddInt32(&h.Errors, 1)
		log.Printf("%s: Move to %02d:%02d: %v", h.Name, minute, second, err)
	}
}

// publish sends the status if it has changed since last sent.
func (h *Hand) publish() {
	if h.opts.Publisher == nil {
		return
	}
	s := h.motor.Status()
	if s == h.published {
		return
	}
	if err := h.opts.Publisher.Publish(s); err != nil {
		log.Printf("%s: Publish: %v", h.Name, err)
		return
	}
	h.published = s
}
