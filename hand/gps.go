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
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// GPSClock is a TimeSource that follows the time reported in the
// RMC sentences of a GPS receiver. The offset between the GPS time and
// the system time is measured on each valid fix; until the first fix
// the system time is used unchanged.
type GPSClock struct {
	loc *time.Location
	now func() time.Time

	mu     sync.Mutex
	offset time.Duration
	synced bool
	fixes  int
}

// NewGPSClock creates a GPSClock reporting time in the location.
func NewGPSClock(loc *time.Location) *GPSClock {
	if loc == nil {
		loc = time.Local
	}
	return &GPSClock{loc: loc, now: time.Now}
}

// Now returns the current GPS corrected time.
func (g *GPSClock) Now() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now().Add(g.offset).In(g.loc)
}

// Synced returns true once a valid fix has been received.
func (g *GPSClock) Synced() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.synced
}

// Offset returns the GPS time less the system time.
func (g *GPSClock) Offset() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.offset
}

// Run reads NMEA sentences from the receiver until the reader fails.
// Sentences that cannot be parsed are ignored.
func (g *GPSClock) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}
		g.Update(line)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

// Update processes one NMEA sentence, returning true if it was
// a valid RMC fix.
func (g *GPSClock) Update(line string) (bool, error) {
	s, err := nmea.Parse(line)
	if err != nil {
		return false, err
	}
	if s.DataType() != nmea.TypeRMC {
		return false, nil
	}
	m := s.(nmea.RMC)
	if m.Validity != nmea.ValidRMC || !m.Time.Valid || !m.Date.Valid {
		return false, nil
	}
	t := time.Date(2000+m.Date.YY, time.Month(m.Date.MM), m.Date.DD,
		m.Time.Hour, m.Time.Minute, m.Time.Second, m.Time.Millisecond*int(time.Millisecond), time.UTC)
	g.mu.Lock()
	defer g.mu.Unlock()
	offset := t.Sub(g.now())
	if !g.synced {
		log.Printf("GPS: time acquired %s, offset %s", t.Format(time.RFC3339), offset)
	}
	g.offset = offset
	g.synced = true
	g.fixes++
	return true, nil
}

func (g *GPSClock) String() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fmt.Sprintf("GPS synced %v, offset %s, fixes %d", g.synced, g.offset, g.fixes)
}
