/*
 * Copyright (c) 2018-2025, NVIDIA CORPORATION. All rights reserved.
 */
package xmerge

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the merge operator's internal counters to a Prometheus
// registry. Metrics export itself is out of scope (spec.md §1); the
// counters below are consulted internally/by tests, not wired to an HTTP
// handler here.
type Metrics struct {
	NetworkBytes  prometheus.Counter
	NetworkRows   prometheus.Counter
	OutputBytes   prometheus.Counter
	OutputRows    prometheus.Counter
	BlockedTotal  prometheus.Counter
}

// NewMetrics registers the merge operator's counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NetworkBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xmerge_network_bytes_total",
			Help: "Total bytes of serialized pages read from exchange clients.",
		}),
		NetworkRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xmerge_network_rows_total",
			Help: "Total rows of serialized pages read from exchange clients.",
		}),
		OutputBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xmerge_output_bytes_total",
			Help: "Total bytes emitted by the merge operator.",
		}),
		OutputRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xmerge_output_rows_total",
			Help: "Total rows emitted by the merge operator.",
		}),
		BlockedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xmerge_blocked_total",
			Help: "Number of GetOutput calls that found the merge engine blocked on a source.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.NetworkBytes, m.NetworkRows, m.OutputBytes, m.OutputRows, m.BlockedTotal)
	}
	return m
}
