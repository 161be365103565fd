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

// Program to exercise a stepper motor and its power gate.

package main

import (
	"flag"
	"log"
	"time"

	"github.com/aamcrae/ringclock/io"
	"github.com/aamcrae/ringclock/motor"
)

var gpios = []*int{
	flag.Int("a1", 14, "GPIO pin for motor input 1"),
	flag.Int("a2", 15, "GPIO pin for motor input 2"),
	flag.Int("a3", 16, "GPIO pin for motor input 3"),
	flag.Int("a4", 17, "GPIO pin for motor input 4"),
}
var backend = flag.String("gpio", io.Sysfs, "GPIO backend, sysfs or periph")
var rpm = flag.Float64("rpm", 10.0, "RPM")
var rev = flag.Int("rev", 2048, "Steps in a revolution")
var half = flag.Bool("half", false, "Use half steps")
var steps = flag.Int("steps", 2048/12, "Steps")

func main() {
	flag.Parse()
	var pins [4]motor.Pin
	var setters [4]io.Setter
	for i, gp := range gpios {
		p, err := io.OpenOutput(*backend, *gp)
		if err != nil {
			log.Fatalf("Pin %d: %v", *gp, err)
		}
		defer p.Close()
		pins[i] = p
		setters[i] = p
	}
	stepper := io.NewStepper(*rev, *rpm, *half, setters[0], setters[1], setters[2], setters[3])
	gate := motor.NewPowerGate(pins, 100*time.Millisecond, nil)
	now := time.Now()
	st := *steps
	for i := 0; i < 10; i++ {
		stepper.Step(st)
		// Power down between moves, restoring the coils before the next.
		if err := gate.PowerOff(); err != nil {
			log.Fatalf("Power off: %v", err)
		}
		log.Printf("Latched coils %v", gate.Latch())
		if err := gate.PowerOn(); err != nil {
			log.Fatalf("Power on: %v", err)
		}
		st = -st
	}
	if err := gate.PowerOff(); err != nil {
		log.Fatalf("Power off: %v", err)
	}
	log.Printf("Elapsed = %s, index = %d\n", time.Since(now), stepper.GetStep())
}
