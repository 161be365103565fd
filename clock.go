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

// Clock program

package main

import (
	"flag"
	stdio "io"
	"log"
	"os"
	"strings"

	"github.com/aamcrae/config"
	"github.com/aamcrae/ringclock/hand"
	"github.com/aamcrae/ringclock/io"
)

var configFile = flag.String("config", "clock.conf", "Configuration file")
var hands = flag.String("hands", "minutes", "Comma separated list of hands to run")
var serialPort = flag.String("serial", "", "Serial port to mirror the log to e.g /dev/ttyUSB0,115200")

func main() {
	flag.Parse()
	conf, err := config.ParseFile(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	sc, err := hand.StatusConfigFrom(conf)
	if err != nil {
		log.Fatalf("%s: status: %v", *configFile, err)
	}
	if *serialPort != "" {
		sc.Serial = *serialPort
	}
	if sc.Serial != "" {
		port, err := io.OpenSerial(sc.Serial)
		if err != nil {
			log.Fatalf("%s: %v", sc.Serial, err)
		}
		defer port.Close()
		log.SetOutput(stdio.MultiWriter(os.Stderr, port))
	}
	tc, err := hand.TimeConfigFrom(conf)
	if err != nil {
		log.Fatalf("%s: time: %v", *configFile, err)
	}
	var clock hand.TimeSource = hand.ZoneTime{Loc: tc.Zone}
	if tc.GPS != "" {
		gps, err := io.OpenSerial(tc.GPS)
		if err != nil {
			log.Fatalf("GPS %s: %v", tc.GPS, err)
		}
		defer gps.Close()
		gc := hand.NewGPSClock(tc.Zone)
		go func() {
			log.Printf("GPS %s: %v", tc.GPS, gc.Run(gps))
		}()
		clock = gc
	}
	var pub *hand.MQTTPublisher
	if sc.Broker != "" {
		pub, err = hand.NewMQTTPublisher(sc.Broker, sc.Client, sc.Topic)
		if err != nil {
			log.Fatalf("MQTT: %v", err)
		}
		defer pub.Close()
	}
	var clk []*hand.Hand
	for _, name := range strings.Split(*hands, ",") {
		hc, err := hand.Config(conf, name)
		if err != nil {
			log.Fatalf("%s: %s: %v", *configFile, name, err)
		}
		ch, err := hand.NewClockHand(hc)
		if err != nil {
			log.Fatalf("%s: %v", name, err)
		}
		defer ch.Close()
		opts := hc.Options()
		opts.Clock = clock
		if pub != nil {
			opts.Publisher = pub
		}
		h := hand.NewHand(name, ch.Motor, opts)
		clk = append(clk, h)
		go h.Run()
	}
	if sc.Port != 0 {
		log.Fatal(hand.ClockServer(sc.Port, sc.Clockface, clk))
	}
	select {}
}
