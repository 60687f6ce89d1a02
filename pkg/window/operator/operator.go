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

// Package operator is an in-memory cumulative windowing operator. It keeps slice state per
// key, fires windows when the watermark passes their end and evicts slice state as directed
// by the slice assigner.
package operator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/numaproj/numaslice/pkg/metrics"
	"github.com/numaproj/numaslice/pkg/shared/logging"
	"github.com/numaproj/numaslice/pkg/window"
	"github.com/numaproj/numaslice/pkg/window/slicing"
)

// ErrLateEvent is returned for events whose window has already fired.
var ErrLateEvent = errors.New("event is behind the watermark")

// Event is a keyed value at an event time (milliseconds since epoch).
type Event struct {
	Key   string
	Time  int64
	Value float64
}

// Result is the aggregate of a fired window.
type Result struct {
	Key         string  `json:"key"`
	WindowStart int64   `json:"windowStart"`
	WindowEnd   int64   `json:"windowEnd"`
	Count       int64   `json:"count"`
	Sum         float64 `json:"sum"`
}

type accumulator struct {
	count int64
	sum   float64
}

func (a *accumulator) merge(o *accumulator) {
	a.count += o.count
	a.sum += o.sum
}

type keyState struct {
	// slices holds the state of every retained slice by slice end
	slices map[int64]*accumulator
	// pending holds the firing boundaries of the key that have not fired yet
	pending *window.SortedWindowList
}

// Operator assigns events to slices and materializes cumulative windows. It is safe for
// concurrent use.
type Operator struct {
	assigner slicing.SharedSliceAssigner
	kind     string
	lock     sync.Mutex
	keys     map[string]*keyState
	// watermark is the largest watermark seen; every window ending at or before it has fired
	watermark int64
	retained  int
}

// New returns an operator driven by the given assigner, which must be of a cumulative kind.
func New(assigner slicing.SliceAssigner) (*Operator, error) {
	kind := assigner.Kind()
	if kind != slicing.Cumulative && kind != slicing.HCumulative {
		return nil, fmt.Errorf("operator supports cumulative windows only, got %s", kind)
	}
	shared, ok := slicing.AsShared(assigner)
	if !ok {
		return nil, fmt.Errorf("assigner %s does not share slices", kind)
	}
	return &Operator{
		assigner:  shared,
		kind:      kind.String(),
		keys:      make(map[string]*keyState),
		watermark: minWatermark,
	}, nil
}

const minWatermark = -1 << 63

// Watermark returns the last watermark the operator advanced to.
func (o *Operator) Watermark() int64 {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.watermark
}

// RetainedSlices returns the number of slices holding state, across keys.
func (o *Operator) RetainedSlices() int {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.retained
}

// IsHealthy reports an error once the context is done, so a stopped operator fails
// readiness checks.
func (o *Operator) IsHealthy(ctx context.Context) error {
	return ctx.Err()
}

// Process adds the event to the state of its slice. Events whose window already fired are
// dropped with ErrLateEvent.
func (o *Operator) Process(ctx context.Context, e Event) error {
	sliceEnd, err := o.assigner.AssignSliceEnd(e.Time)
	if err != nil {
		return fmt.Errorf("failed to assign slice for event at %d: %w", e.Time, err)
	}
	windowEnd, err := o.assigner.FirstWindowEnd(sliceEnd)
	if err != nil {
		return fmt.Errorf("failed to find the window of slice %d: %w", sliceEnd, err)
	}

	o.lock.Lock()
	defer o.lock.Unlock()

	if windowEnd <= o.watermark {
		metrics.LateEventsCount.WithLabelValues(o.kind).Inc()
		logging.FromContext(ctx).Infow("Dropping late event", zap.String("key", e.Key),
			zap.Int64("eventTime", e.Time), zap.Int64("windowEnd", windowEnd), zap.Int64("watermark", o.watermark))
		return fmt.Errorf("%w: window %d of event %d already fired", ErrLateEvent, windowEnd, e.Time)
	}

	ks, ok := o.keys[e.Key]
	if !ok {
		ks = &keyState{
			slices:  make(map[int64]*accumulator),
			pending: window.NewSortedWindowList(),
		}
		o.keys[e.Key] = ks
	}
	acc := o.slice(ks, sliceEnd)
	acc.count++
	acc.sum += e.Value
	ks.pending.InsertIfNotPresent(windowEnd)

	metrics.EventsCount.WithLabelValues(o.kind).Inc()
	metrics.RetainedSlices.WithLabelValues(o.kind).Set(float64(o.retained))
	return nil
}

// slice returns the state of the slice, creating it if needed.
func (o *Operator) slice(ks *keyState, sliceEnd int64) *accumulator {
	acc, ok := ks.slices[sliceEnd]
	if !ok {
		acc = &accumulator{}
		ks.slices[sliceEnd] = acc
		o.retained++
	}
	return acc
}

func (o *Operator) evict(ks *keyState, sliceEnd int64) bool {
	if _, ok := ks.slices[sliceEnd]; !ok {
		return false
	}
	delete(ks.slices, sliceEnd)
	o.retained--
	metrics.SlicesEvictedCount.WithLabelValues(o.kind).Inc()
	return true
}

// AdvanceWatermark fires, for every key, the windows ending at or before the watermark in
// increasing order of window end. Once a cumulative window fired, the following windows of
// its cycle fire as well, even if they received no new events. Results are ordered by window
// end, then key. A watermark that does not move forward is a no-op.
func (o *Operator) AdvanceWatermark(ctx context.Context, watermark int64) ([]Result, error) {
	log := logging.FromContext(ctx)

	o.lock.Lock()
	defer o.lock.Unlock()

	if watermark <= o.watermark {
		return nil, nil
	}

	var results []Result
	for key, ks := range o.keys {
		for {
			windowEnd, ok := ks.pending.PopUpTo(watermark)
			if !ok {
				break
			}
			r, last, err := o.fire(key, ks, windowEnd)
			if err != nil {
				return results, err
			}
			log.Debugw("Fired window", zap.String("key", key), zap.Int64("windowStart", r.WindowStart),
				zap.Int64("windowEnd", r.WindowEnd), zap.Int64("count", r.Count))
			results = append(results, r)
			if last {
				continue
			}
			next, err := o.assigner.FirstWindowEnd(windowEnd + 1)
			if err != nil {
				return results, err
			}
			ks.pending.InsertIfNotPresent(next)
		}
		if len(ks.slices) == 0 && ks.pending.Len() == 0 {
			delete(o.keys, key)
		}
	}
	o.watermark = watermark

	sort.Slice(results, func(i, j int) bool {
		if results[i].WindowEnd != results[j].WindowEnd {
			return results[i].WindowEnd < results[j].WindowEnd
		}
		return results[i].Key < results[j].Key
	})
	metrics.WindowsFiredCount.WithLabelValues(o.kind).Add(float64(len(results)))
	metrics.RetainedSlices.WithLabelValues(o.kind).Set(float64(o.retained))
	return results, nil
}

// fire merges the slices of the window into the accumulator slice of its cycle, emits the
// accumulated state and evicts the expired slices. last reports whether the window closed
// its cycle.
func (o *Operator) fire(key string, ks *keyState, windowEnd int64) (Result, bool, error) {
	plan, err := o.assigner.MergeSlices(windowEnd)
	if err != nil {
		return Result{}, false, fmt.Errorf("failed to merge slices of window %d: %w", windowEnd, err)
	}
	expired, err := o.assigner.ExpiredSlices(windowEnd)
	if err != nil {
		return Result{}, false, fmt.Errorf("failed to find expired slices of window %d: %w", windowEnd, err)
	}

	target := o.slice(ks, plan.Target)
	for _, s := range plan.Sources {
		if acc, ok := ks.slices[s]; ok {
			target.merge(acc)
			o.evict(ks, s)
		}
	}
	r := Result{
		Key:         key,
		WindowStart: plan.Start,
		WindowEnd:   windowEnd,
		Count:       target.count,
		Sum:         target.sum,
	}

	last := false
	for _, s := range expired {
		o.evict(ks, s)
		if s == plan.Target {
			last = true
		}
	}
	return r, last, nil
}
