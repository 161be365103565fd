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

// Simulator clock program

package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/aamcrae/ringclock/hand"
	"github.com/aamcrae/ringclock/motor"
	"github.com/aamcrae/ringclock/sim"
)

// SimHand is a clock hand running on simulated hardware.
type SimHand struct {
	hand *hand.Hand
	hw   *sim.Hand
	home int
}

var params = []struct {
	name      string
	steps     int
	edge1     int
	edge2     int
	hystFwd   int
	hystBack  int
	adjust    int
	seconds   bool
	stepDelay time.Duration
}{
	{"minutes", 2048, 1500, 1590, 29, 9, 6, false, 500 * time.Microsecond},
	{"sweep", 4096, 3000, 3149, 12, 12, 0, true, 100 * time.Microsecond},
}

var port = flag.Int("port", 8080, "Web server port number")
var micro = flag.Int("micro", 1, "Micro-calibrate every N hours")
var slip = flag.Int("slip", 0, "Steps to slip the hands by every minute")

func main() {
	flag.Parse()
	var hands []*SimHand
	var clk []*hand.Hand
	for i := range params {
		sh, err := simHand(i)
		if err != nil {
			log.Fatalf("%s: %v", params[i].name, err)
		}
		hands = append(hands, sh)
		clk = append(clk, sh.hand)
		go sh.hand.Run()
	}
	for {
		ready := 0
		for _, s := range hands {
			if s.hand.Ticking() {
				ready++
			}
		}
		if ready == len(hands) {
			break
		}
		time.Sleep(time.Second)
		fmt.Printf("Waiting for initialisation to complete (%d/%d ready)\n", ready, len(hands))
	}
	fmt.Printf("Clock initialisation complete\n")
	go func() {
		log.Fatal(hand.ClockServer(*port, "", clk))
	}()
	for range time.Tick(time.Minute) {
		for _, s := range hands {
			if *slip != 0 {
				s.hw.Jog(*slip)
			}
			s.report()
		}
	}
}

// report compares the tracked position of the hand with the
// simulated location relative to the calibrated home.
func (s *SimHand) report() {
	p, r := s.hand.Position()
	actual := float64(s.hw.Location() - s.home)
	drift := p - motor.Normalize(actual, float64(r))
	if math.Abs(drift) > float64(r)/2 {
		drift -= math.Copysign(float64(r), drift)
	}
	st := s.hand.Status()
	fmt.Printf("%s: position %.1f, drift %.1f steps, calibrations %d, micro %d, drifts %d, moves %d\n",
		s.hand.Name, p, drift, st.Calibrations, st.MicroCalibrations, st.Drifts, st.Moves)
}

// stepper delays each step to emulate the speed of a real motor.
type stepper struct {
	hw    *sim.Hand
	delay time.Duration
}

func (s *stepper) Step(n int) {
	s.hw.Step(n)
	time.Sleep(time.Duration(math.Abs(float64(n))) * s.delay)
}

func simHand(index int) (*SimHand, error) {
	p := &params[index]
	hw := sim.NewHand(p.steps, p.edge1, p.edge2)
	hw.HystFwd = p.hystFwd
	hw.HystBack = p.hystBack
	// Start somewhere random.
	hw.Jog(int(time.Now().UnixNano() % int64(p.steps)))
	gate := motor.NewPowerGate(hw.Pins(), 10*time.Millisecond, nil)
	m, err := motor.NewMotor(motor.Config{
		Name:   p.name,
		Steps:  p.steps,
		Adjust: p.adjust,
	}, &stepper{hw, p.stepDelay}, hw, gate)
	if err != nil {
		return nil, err
	}
	sh := &SimHand{hw: hw}
	// The home location, from the zone width measured in each direction.
	w1 := p.edge2 + p.hystFwd - p.edge1 + 1
	w2 := p.edge2 - p.edge1 + p.hystBack + 1
	c := (w1 + w2) / 2
	sh.home = p.edge1 - p.hystBack - 1 + c - (c/2 + p.adjust)
	sh.hand = hand.NewHand(p.name, m, hand.Options{
		Seconds: p.seconds,
		Poll:    50 * time.Millisecond,
		Micro:   *micro,
	})
	return sh, nil
}
