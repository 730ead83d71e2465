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

package badger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const badgerMetricNamePrefix = "potluck_database_blob_"

type blobMetrics struct {
	reads      prometheus.Counter
	writes     prometheus.Counter
	commits    prometheus.Counter
	conflicts  prometheus.Counter
	gcRewrites prometheus.Counter
}

// registerBlobMetrics creates the blob counters. With a nil registry the
// counters are created but not exported
func (d *BlobStoreBadger) registerBlobMetrics() {
	promautoFactory := promauto.With(d.promRegistry)
	d.metrics = &blobMetrics{
		reads: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "reads_total",
			Help: "Total number of account reads",
		}),
		writes: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "writes_total",
			Help: "Total number of account writes",
		}),
		commits: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "commits_total",
			Help: "Total number of committed blob transactions",
		}),
		conflicts: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "conflicts_total",
			Help: "Total number of blob transactions rejected due to conflicting writes",
		}),
		gcRewrites: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "gc_rewrites_total",
			Help: "Total number of value log files rewritten by GC",
		}),
	}
}
