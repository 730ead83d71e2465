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

package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type indexerMetrics struct {
	updates      *prometheus.CounterVec
	reindexTotal prometheus.Counter
	indexedPots  prometheus.Gauge
}

func (m *indexerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.updates = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "potluck_indexer_updates_total",
			Help: "number of pot index updates by result",
		},
		[]string{"result"},
	)
	m.reindexTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "potluck_indexer_reindex_total",
		Help: "number of full index rebuilds",
	})
	m.indexedPots = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "potluck_indexer_pots",
		Help: "number of pots seen by the last full index rebuild",
	})
}
