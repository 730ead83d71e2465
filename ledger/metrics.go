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

package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stateMetrics struct {
	invocations      *prometheus.CounterVec
	invokeLatency    prometheus.Histogram
	transferredTotal prometheus.Counter
	accountsCreated  prometheus.Counter
	airdroppedTotal  prometheus.Counter
}

func (m *stateMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.invocations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "potluck_ledger_invocations_total",
			Help: "number of ledger invocations by result",
		},
		[]string{"result"},
	)
	m.invokeLatency = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "potluck_ledger_invoke_seconds",
			Help:    "time spent executing and committing an invocation",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15), // 100us to ~1.6s
		},
	)
	m.transferredTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "potluck_ledger_transferred_total",
		Help: "total units moved between accounts",
	})
	m.accountsCreated = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "potluck_ledger_accounts_created_total",
		Help: "number of program accounts allocated",
	})
	m.airdroppedTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "potluck_ledger_airdropped_total",
		Help: "total units minted by airdrops",
	})
}
