// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type programMetrics struct {
	instructions       *prometheus.CounterVec
	instructionLatency *prometheus.HistogramVec
	potsCreated        prometheus.Counter
	potsReleased       prometheus.Counter
	contributedTotal   prometheus.Counter
	releasedTotal      prometheus.Counter
	signaturesTotal    prometheus.Counter
}

func (m *programMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.instructions = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "potluck_instructions_total",
			Help: "number of pot instructions by instruction and result",
		},
		[]string{"instruction", "result"},
	)
	m.instructionLatency = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "potluck_instruction_seconds",
			Help:    "pot instruction latency including commit",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15), // 100us to ~1.6s
		},
		[]string{"instruction"},
	)
	m.potsCreated = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "potluck_pots_created_total",
		Help: "number of pots created",
	})
	m.potsReleased = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "potluck_pots_released_total",
		Help: "number of pots released",
	})
	m.contributedTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "potluck_contributed_total",
		Help: "total units contributed to pots",
	})
	m.releasedTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "potluck_released_total",
		Help: "total units released from pots",
	})
	m.signaturesTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "potluck_signatures_total",
		Help: "number of release signatures collected",
	})
}
