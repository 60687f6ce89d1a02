/*
Copyright 2022 The Numaproj Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "numaslice"

	LabelVersion  = "version"
	LabelPlatform = "platform"
	LabelKind     = "kind"
)

var (
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "A metric with a constant value '1', labeled by numaslice binary version and platform",
	}, []string{LabelVersion, LabelPlatform})
)

// Windowing operator metrics
var (
	// EventsCount is the number of events accepted by the operator
	EventsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "operator",
		Name:      "events_total",
		Help:      "Total number of events assigned to a slice",
	}, []string{LabelKind})

	// LateEventsCount is the number of events dropped because their window already fired
	LateEventsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "operator",
		Name:      "late_events_total",
		Help:      "Total number of events dropped as late",
	}, []string{LabelKind})

	// WindowsFiredCount is the number of window results emitted
	WindowsFiredCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "operator",
		Name:      "windows_fired_total",
		Help:      "Total number of fired windows",
	}, []string{LabelKind})

	// SlicesEvictedCount is the number of slices whose state was dropped
	SlicesEvictedCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "operator",
		Name:      "slices_evicted_total",
		Help:      "Total number of evicted slices",
	}, []string{LabelKind})

	// RetainedSlices is the number of slices currently holding state
	RetainedSlices = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "operator",
		Name:      "retained_slices",
		Help:      "Number of slices currently holding state",
	}, []string{LabelKind})
)
