/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

// CommandStats is a snapshot of StatsHook counters.
type CommandStats struct {
	Executed     int64
	Failed       int64
	RowsAffected int64
	TotalTime    time.Duration
}

// StatsHook counts executed and failed commands.
type StatsHook struct {
	executed     *atomic.Int64
	failed       *atomic.Int64
	rowsAffected *atomic.Int64
	totalNanos   *atomic.Int64
}

func NewStatsHook() *StatsHook {
	return &StatsHook{
		executed:     atomic.NewInt64(0),
		failed:       atomic.NewInt64(0),
		rowsAffected: atomic.NewInt64(0),
		totalNanos:   atomic.NewInt64(0),
	}
}

var _ CommandHook = (*StatsHook)(nil)

func (h *StatsHook) BeforeCommand(ctx context.Context, _ *CommandEvent) context.Context {
	return ctx
}

func (h *StatsHook) AfterCommand(_ context.Context, event *CommandEvent) {
	h.executed.Inc()
	h.totalNanos.Add(int64(event.Duration()))
	if event.Err != nil {
		h.failed.Inc()
		return
	}
	if event.RowsAffected > 0 {
		h.rowsAffected.Add(event.RowsAffected)
	}
}

func (h *StatsHook) Snapshot() CommandStats {
	return CommandStats{
		Executed:     h.executed.Load(),
		Failed:       h.failed.Load(),
		RowsAffected: h.rowsAffected.Load(),
		TotalTime:    time.Duration(h.totalNanos.Load()),
	}
}

// PrometheusHook exports routine latency and failures.
type PrometheusHook struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewPrometheusHook registers the routinedb collectors with reg.
func NewPrometheusHook(reg prometheus.Registerer) (*PrometheusHook, error) {
	h := &PrometheusHook{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "routinedb",
			Name:      "command_duration_seconds",
			Help:      "Duration of stored routine executions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"routine", "action", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routinedb",
			Name:      "command_failures_total",
			Help:      "Failed stored routine executions by error kind.",
		}, []string{"routine", "kind"}),
	}
	for _, c := range []prometheus.Collector{h.duration, h.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

var _ CommandHook = (*PrometheusHook)(nil)

func (h *PrometheusHook) BeforeCommand(ctx context.Context, _ *CommandEvent) context.Context {
	return ctx
}

func (h *PrometheusHook) AfterCommand(_ context.Context, event *CommandEvent) {
	outcome := "success"
	if event.Err != nil {
		outcome = "failure"
		h.failures.WithLabelValues(event.Routine, Classify(event.Err).Kind.String()).Inc()
	}
	h.duration.WithLabelValues(event.Routine, event.Action, outcome).Observe(event.Duration().Seconds())
}
