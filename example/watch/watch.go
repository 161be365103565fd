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

// Program to watch a hall sensor input

package main

import (
	"flag"
	"log"
	"time"

	"github.com/aamcrae/ringclock/io"
	"github.com/aamcrae/ringclock/motor"
)

var gpio = flag.Int("gpio", 2, "GPIO pin for the hall sensor")
var backend = flag.String("backend", io.Sysfs, "GPIO backend, sysfs or periph")
var poll = flag.Duration("poll", 10*time.Millisecond, "Polling interval")
var high = flag.Bool("high", false, "Sensor is active high")
var edge = flag.String("edge", "none", "Wait for sensor transitions instead of polling (sysfs only): none, rising, falling or both")

func main() {
	flag.Parse()
	e, err := io.EdgeMode(*edge)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if e != io.NONE {
		if *backend != io.Sysfs {
			log.Fatalf("%s: edge detection needs the %s backend", *backend, io.Sysfs)
		}
		watchEdge(e)
		return
	}
	p, err := io.OpenInput(*backend, *gpio)
	if err != nil {
		log.Fatalf("Pin %d: %v", *gpio, err)
	}
	defer p.Close()
	s := motor.NewPinSensor(p)
	s.ActiveHigh = *high
	last := motor.Reading(-1)
	for range time.Tick(*poll) {
		r, err := s.Read()
		if err != nil {
			log.Fatalf("Pin %d: Read: %v", *gpio, err)
		}
		if r != last {
			log.Printf("pin %d: sensor %s\n", *gpio, r)
			last = r
		}
	}
}

// watchEdge blocks on the pin until the selected edge occurs,
// and logs each reading.
func watchEdge(e int) {
	g, err := io.Pin(*gpio)
	if err != nil {
		log.Fatalf("Pin %d: %v", *gpio, err)
	}
	defer g.Close()
	if err := g.Edge(e); err != nil {
		log.Fatalf("Pin %d: %v", g.Number(), err)
	}
	s := motor.NewPinSensor(g)
	s.ActiveHigh = *high
	log.Printf("pin %d: waiting for %s edges\n", g.Number(), *edge)
	for {
		r, err := s.Read()
		if err != nil {
			log.Fatalf("Pin %d: Read: %v", g.Number(), err)
		}
		log.Printf("pin %d: sensor %s\n", g.Number(), r)
	}
}
