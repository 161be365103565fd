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

// Calibration utility.
// The hand is calibrated using the configured adjustment, and then
// jogged by hand until it points exactly at 12. The adjustment that
// would have put it there is printed.

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/aamcrae/config"
	"github.com/aamcrae/ringclock/hand"
)

var configFile = flag.String("config", "clock.conf", "Configuration file")
var section = flag.String("hand", "minutes", "Hand to calibrate")

func main() {
	flag.Parse()
	conf, err := config.ParseFile(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	hc, err := hand.Config(conf, *section)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	clk, err := hand.NewClockHand(hc)
	if err != nil {
		log.Fatalf("ClockHand: %s %v", *section, err)
	}
	defer clk.Close()
	m := clk.Motor
	if err := m.Calibrate(); err != nil {
		log.Fatalf("%s: calibration: %v", *section, err)
	}
	reader := bufio.NewReader(os.Stdin)
	for {
		p := m.Position()
		offset := signed(p, m.Steps())
		fmt.Printf("Position %.0f (size %d) - suggested adjust is %d\n", p, m.Steps(), hc.Adjust-offset)
		fmt.Print("Enter steps or command ('help' for help) ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimSpace(text)
		switch text {
		case "help":
			fmt.Println("  help - print help")
			fmt.Println("  [-]NNN - move steps")
			fmt.Println("  h - move to home")
			fmt.Println("  v - verify home")
			fmt.Println("  c - recalibrate")
			fmt.Println("  m - micro-calibrate")
			fmt.Println("  NN:NN - move to minute and second")
			fmt.Println("  q - quit")
		case "q":
			return
		case "h":
			report(m.Home())
		case "v":
			found, err := m.Verify()
			if err == nil {
				fmt.Printf("Sensor at home: %v\n", found)
			}
			report(err)
		case "c":
			report(m.Calibrate())
		case "m":
			report(m.MicroCalibrate())
		default:
			var steps, minute, second int
			if n, err := fmt.Sscanf(text, "%d:%d", &minute, &second); err == nil && n == 2 {
				report(m.MoveToSecond(minute, second))
			} else if n, err := fmt.Sscanf(text, "%d", &steps); err == nil && n == 1 {
				fmt.Printf("Moving %d steps\n", steps)
				report(m.Jog(steps))
			} else {
				fmt.Printf("Unrecognised input\n")
			}
		}
	}
}

// signed returns the position as a signed offset from zero.
func signed(p float64, rev int) int {
	o := int(p + 0.5)
	if o > rev/2 {
		o -= rev
	}
	return o
}

func report(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}
