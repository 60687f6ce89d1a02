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

package slicing

import (
	"fmt"
)

// ExpiredSlices returns the slices that can be dropped once the window ending at windowEnd
// has fired. windowEnd must be a firing boundary, and calls for one key must come in
// non-decreasing order of windowEnd.
//
// Cycles of cumulative windows are laid out on the epoch: one starts every max size, shifted
// by the offset, whatever the zone. The first and last firing of a cycle are the first and
// last firing boundaries inside it, so a zone whose firing grid is not aligned to the cycle
// still evicts every accumulator.
//
// Cumulative windows keep the first slice of every cycle as the accumulator of the cycle:
//   - the first firing of a cycle drops nothing;
//   - the last firing of a cycle drops the fired slice and then the first slice;
//   - every other firing drops only the fired slice.
//
// A cycle whose first firing is also its last drops the fired slice alone.
//
// Hopping windows drop the oldest slice of the fired window, which no later window covers.
func (a *Assigner) ExpiredSlices(windowEnd int64) ([]int64, error) {
	switch a.kind {
	case Hopping:
		if err := a.checkFiring(windowEnd); err != nil {
			return nil, err
		}
		start, err := a.proj.Rewind(windowEnd, a.params.Size.Milliseconds())
		if err != nil {
			return nil, err
		}
		oldest, err := a.proj.CeilBoundary(start+1, a.sliceUnit)
		if err != nil {
			return nil, err
		}
		return []int64{oldest}, nil
	case Cumulative, HCumulative:
		c, err := a.cycle(windowEnd)
		if err != nil {
			return nil, err
		}
		switch {
		case c.last && windowEnd == c.first:
			return []int64{windowEnd}, nil
		case windowEnd == c.first:
			return []int64{}, nil
		case c.last:
			return []int64{windowEnd, c.first}, nil
		default:
			return []int64{windowEnd}, nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrSliceNotShared, a.kind)
	}
}

// MergeSlices returns how the state of the window ending at windowEnd is assembled.
//
// Cumulative windows fold the slices completed since the previous firing into the first
// slice of the cycle, whose state then equals the window result. Hopping windows merge every
// slice of the window into a temporary accumulator since the slices are still needed by the
// following windows.
func (a *Assigner) MergeSlices(windowEnd int64) (MergePlan, error) {
	switch a.kind {
	case Hopping:
		if err := a.checkFiring(windowEnd); err != nil {
			return MergePlan{}, err
		}
		start, err := a.proj.Rewind(windowEnd, a.params.Size.Milliseconds())
		if err != nil {
			return MergePlan{}, err
		}
		sources, err := a.sliceEnds(start, windowEnd)
		if err != nil {
			return MergePlan{}, err
		}
		return MergePlan{Start: start, Temporary: true, Sources: sources}, nil
	case Cumulative, HCumulative:
		c, err := a.cycle(windowEnd)
		if err != nil {
			return MergePlan{}, err
		}
		prev, err := a.proj.FloorBoundaryBefore(windowEnd, a.fireUnit)
		if err != nil {
			return MergePlan{}, err
		}
		ends, err := a.sliceEnds(prev, windowEnd)
		if err != nil {
			return MergePlan{}, err
		}
		sources := ends[:0]
		for _, e := range ends {
			if e != c.first {
				sources = append(sources, e)
			}
		}
		if len(sources) == 0 {
			sources = nil
		}
		start, err := a.proj.FloorBoundaryBefore(c.first, a.fireUnit)
		if err != nil {
			return MergePlan{}, err
		}
		return MergePlan{Start: start, Target: c.first, Sources: sources}, nil
	default:
		return MergePlan{}, fmt.Errorf("%w: %s", ErrSliceNotShared, a.kind)
	}
}

// cycleInfo locates a firing boundary within its cumulative cycle.
type cycleInfo struct {
	// first firing boundary of the cycle
	first int64
	// last is true when the firing boundary closes the cycle
	last bool
}

func (a *Assigner) cycle(windowEnd int64) (cycleInfo, error) {
	if err := a.checkFiring(windowEnd); err != nil {
		return cycleInfo{}, err
	}
	start, err := a.cycleStart(windowEnd)
	if err != nil {
		return cycleInfo{}, err
	}
	first, err := a.proj.CeilBoundary(start+1, a.fireUnit)
	if err != nil {
		return cycleInfo{}, err
	}
	next, err := a.proj.CeilBoundary(windowEnd+1, a.fireUnit)
	if err != nil {
		return cycleInfo{}, err
	}
	return cycleInfo{first: first, last: next > start+a.cycleUnit}, nil
}

// cycleStart returns the last multiple of the max size, shifted by the offset, strictly
// before windowEnd.
func (a *Assigner) cycleStart(windowEnd int64) (int64, error) {
	if err := checkRange(windowEnd); err != nil {
		return 0, err
	}
	e := windowEnd - 1 - a.proj.offset
	return e - floorMod(e, a.cycleUnit) + a.proj.offset, nil
}

// cycleWindowStart returns the start of the first window of the cycle holding windowEnd.
func (a *Assigner) cycleWindowStart(windowEnd int64) (int64, error) {
	start, err := a.cycleStart(windowEnd)
	if err != nil {
		return 0, err
	}
	first, err := a.proj.CeilBoundary(start+1, a.fireUnit)
	if err != nil {
		return 0, err
	}
	return a.proj.FloorBoundaryBefore(first, a.fireUnit)
}

// sliceEnds lists the slice ends in (from, to] in ascending order.
func (a *Assigner) sliceEnds(from, to int64) ([]int64, error) {
	var ends []int64
	for t := from; t < to; {
		end, err := a.proj.CeilBoundary(t+1, a.sliceUnit)
		if err != nil {
			return nil, err
		}
		ends = append(ends, end)
		t = end
	}
	return ends, nil
}
