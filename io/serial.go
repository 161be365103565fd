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

package io

import (
	"fmt"
	"strconv"
	"strings"

	"go.bug.st/serial"
)

const defaultBaud = 115200

// OpenSerial opens a serial port for use as a diagnostic log sink.
// The port is given as "path" or "path,baud" e.g /dev/ttyUSB0,9600
func OpenSerial(port string) (serial.Port, error) {
	path := port
	baud := defaultBaud
	if i := strings.IndexByte(port, ','); i >= 0 {
		path = port[:i]
		b, err := strconv.Atoi(port[i+1:])
		if err != nil || b <= 0 {
			return nil, fmt.Errorf("%s: invalid baud rate", port)
		}
		baud = b
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	return serial.Open(path, mode)
}
