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

// HTTP server for clock images and hand status
package hand

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/fogleman/gg"
	"github.com/gorilla/websocket"

	"github.com/aamcrae/ringclock/motor"
)

// Size of the dial drawn when there is no clock face image.
const dialSize = 600

// Interval between checks for status changes on a websocket stream.
const streamInterval = 250 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hand lengths and widths as a fraction of the dial radius.
var handStyle = []struct {
	length, width float64
	r, g, b       float64
}{
	{0.85, 0.02, 0, 0, 1},
	{0.6, 0.05, 0, 0, 1},
	{0.95, 0.005, 1, 0, 1},
}

// NewHandler returns the HTTP handler serving the clock hands.
//  /clock.png   image of the dial with the hands drawn at their tracked positions
//  /status      JSON status of each hand
//  /calibrate   POST, with an optional hand=name query, requests a full calibration
//  /metrics     Prometheus metrics
//  /ws          websocket stream of the JSON status, sent whenever it changes
func NewHandler(face image.Image, hands ...*Hand) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/clock.png", imageHandler(face, hands))
	mux.HandleFunc("/status", statusHandler(hands))
	mux.HandleFunc("/calibrate", calibrateHandler(hands))
	mux.Handle("/metrics", metricsHandler(hands))
	mux.HandleFunc("/ws", streamHandler(hands, streamInterval))
	return mux
}

// ClockServer starts a HTTP server on the port. If clockface is set,
// it names an image file used as the dial.
func ClockServer(port int, clockface string, hands []*Hand) error {
	var face image.Image
	if clockface != "" {
		var err error
		face, err = gg.LoadImage(clockface)
		if err != nil {
			return fmt.Errorf("%s: %v", clockface, err)
		}
	}
	url := fmt.Sprintf(":%d", port)
	log.Printf("Starting server on %s", url)
	server := &http.Server{Addr: url, Handler: NewHandler(face, hands...)}
	return server.ListenAndServe()
}

func imageHandler(face image.Image, hands []*Hand) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		c := dial(face)
		for i, h := range hands {
			st := handStyle[i%len(handStyle)]
			c.SetRGB(st.r, st.g, st.b)
			drawHand(c, h, st.length, st.width)
		}
		w.Header().Set("Content-Type", "image/png")
		if err := c.EncodePNG(w); err != nil {
			log.Printf("Error writing image: %v\n", err)
		}
	}
}

// dial returns a drawing context containing the clock face.
func dial(face image.Image) *gg.Context {
	if face != nil {
		return gg.NewContextForImage(face)
	}
	c := gg.NewContext(dialSize, dialSize)
	c.SetRGB(1, 1, 1)
	c.Clear()
	mid := float64(dialSize) / 2
	c.SetRGB(0, 0, 0)
	c.SetLineWidth(4)
	c.DrawCircle(mid, mid, mid-4)
	c.Stroke()
	for i := 0; i < 60; i++ {
		a := float64(i) * 2 * math.Pi / 60
		inner := mid * 0.92
		if i%5 == 0 {
			inner = mid * 0.85
		}
		c.DrawLine(mid+inner*math.Sin(a), mid-inner*math.Cos(a), mid+(mid-8)*math.Sin(a), mid-(mid-8)*math.Cos(a))
		c.Stroke()
	}
	return c
}

func drawHand(c *gg.Context, h *Hand, length, width float64) {
	p, r := h.Position()
	p = float64(r) - p
	midX := float64(c.Width()) / 2
	midY := float64(c.Height()) / 2
	radius := math.Min(midX, midY)
	radians := p*2*math.Pi/float64(r) + math.Pi
	x := radius*length*math.Sin(radians) + midX
	y := radius*length*math.Cos(radians) + midY
	c.SetLineWidth(math.Max(1, radius*width))
	c.DrawLine(midX, midY, x, y)
	c.Stroke()
}

func status(hands []*Hand) []motor.Status {
	st := make([]motor.Status, 0, len(hands))
	for _, h := range hands {
		st = append(st, h.Status())
	}
	return st
}

func changed(a, b []motor.Status) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i] != b[i] {
			return true
		}
	}
	return false
}

func statusHandler(hands []*Hand) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		st := status(hands)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st); err != nil {
			log.Printf("Error writing status: %v\n", err)
		}
	}
}

func calibrateHandler(hands []*Hand) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Query().Get("hand")
		var found bool
		for _, h := range hands {
			if name != "" && h.Name != name {
				continue
			}
			found = true
			if h.RequestCalibration() {
				log.Printf("%s: Calibration requested from %s", h.Name, r.RemoteAddr)
			}
		}
		if !found {
			http.Error(w, fmt.Sprintf("%s: unknown hand", name), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// streamHandler sends the status of the hands over a websocket,
// initially and then each time it changes, until the client goes away.
func streamHandler(hands []*Hand, interval time.Duration) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade: %v", err)
			return
		}
		defer conn.Close()
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var last []motor.Status
		for {
			if st := status(hands); changed(st, last) {
				if err := conn.WriteJSON(st); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						log.Printf("websocket write: %v", err)
					}
					return
				}
				last = st
			}
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}
}
