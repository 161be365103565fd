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
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	positionDesc = prometheus.NewDesc("ringclock_position_steps",
		"Tracked hand position in steps from zero.", []string{"hand"}, nil)
	calibratedDesc = prometheus.NewDesc("ringclock_calibrated",
		"1 if the hand is calibrated.", []string{"hand"}, nil)
	poweredDesc = prometheus.NewDesc("ringclock_powered",
		"1 if the motor coils are powered.", []string{"hand"}, nil)
	calibrationsDesc = prometheus.NewDesc("ringclock_calibrations_total",
		"Successful full calibrations.", []string{"hand"}, nil)
	microDesc = prometheus.NewDesc("ringclock_micro_calibrations_total",
		"Successful micro-calibrations.", []string{"hand"}, nil)
	driftsDesc = prometheus.NewDesc("ringclock_drifts_total",
		"Micro-calibrations that did not find the home sensor.", []string{"hand"}, nil)
	movesDesc = prometheus.NewDesc("ringclock_moves_total",
		"Moves made.", []string{"hand"}, nil)
	skippedDesc = prometheus.NewDesc("ringclock_skipped_moves_total",
		"Moves skipped as being less than a step.", []string{"hand"}, nil)
	errorsDesc = prometheus.NewDesc("ringclock_errors_total",
		"Failed motor operations.", []string{"hand"}, nil)
)

// Collector exports the status of the hands as Prometheus metrics.
// The values are read from the hands at collection time.
type Collector struct {
	hands []*Hand
}

// NewCollector creates a Collector for the hands.
func NewCollector(hands ...*Hand) *Collector {
	return &Collector{hands: hands}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{positionDesc, calibratedDesc, poweredDesc,
		calibrationsDesc, microDesc, driftsDesc, movesDesc, skippedDesc, errorsDesc} {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, h := range c.hands {
		s := h.Status()
		ch <- prometheus.MustNewConstMetric(positionDesc, prometheus.GaugeValue, s.Position, h.Name)
		ch <- prometheus.MustNewConstMetric(calibratedDesc, prometheus.GaugeValue, boolValue(s.Calibrated), h.Name)
		ch <- prometheus.MustNewConstMetric(poweredDesc, prometheus.GaugeValue, boolValue(s.Powered), h.Name)
		ch <- prometheus.MustNewConstMetric(calibrationsDesc, prometheus.CounterValue, float64(s.Calibrations), h.Name)
		ch <- prometheus.MustNewConstMetric(microDesc, prometheus.CounterValue, float64(s.MicroCalibrations), h.Name)
		ch <- prometheus.MustNewConstMetric(driftsDesc, prometheus.CounterValue, float64(s.Drifts), h.Name)
		ch <- prometheus.MustNewConstMetric(movesDesc, prometheus.CounterValue, float64(s.Moves), h.Name)
		ch <- prometheus.MustNewConstMetric(skippedDesc, prometheus.CounterValue, float64(s.Skipped), h.Name)
		ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, float64(atomic.LoadInt32(&h.Errors)), h.Name)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// metricsHandler returns a handler serving the metrics of the hands
// from a private registry.
func metricsHandler(hands []*Hand) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(hands...))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
