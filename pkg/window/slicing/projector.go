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
	"math"
	"time"
)

const (
	// maxInstant and minInstant bound the instants the projector accepts. The remaining
	// headroom of int64 absorbs offset and unit arithmetic on the local timeline.
	maxInstant = math.MaxInt64 >> 1
	minInstant = -maxInstant

	// maxOverlap bounds how far back a fall-back transition is searched for.
	maxOverlap = int64(24 * time.Hour / time.Millisecond)
)

// Projector translates between absolute instants and the local linear timeline of a zone,
// on which fixed-duration flooring and ceiling are calendar-correct. All values are
// milliseconds since the epoch.
//
// A grid of unit u (shifted by the projector's offset) consists of every instant whose local
// time minus the offset is a multiple of u. Two transition rules keep the grid exact:
//   - a grid point that falls into a spring-forward gap is moved to the first instant after
//     the gap, so the slices it would have delimited collapse into one;
//   - a wall clock repeated after a fall-back transition is never a boundary, only its first
//     occurrence is, so the slice spanning the overlap grows by the repeated span.
//
// Instants must lie within about half of the int64 range, otherwise ErrOutOfRange is
// returned.
//
// Projector is immutable and safe for concurrent use.
type Projector struct {
	zone   Zone
	offset int64
	fixed  bool
}

// NewProjector returns a projector for the zone whose grid is shifted by offset.
func NewProjector(zone Zone, offset time.Duration) *Projector {
	return &Projector{
		zone:   zone,
		offset: offset.Milliseconds(),
		fixed:  IsFixed(zone),
	}
}

// Zone returns the zone used for the projection.
func (p *Projector) Zone() Zone {
	return p.zone
}

// Offset returns the grid offset.
func (p *Projector) Offset() time.Duration {
	return time.Duration(p.offset) * time.Millisecond
}

func (p *Projector) offsetAt(instant int64) (int64, error) {
	d, err := p.zone.OffsetAt(instant)
	if err != nil {
		return 0, err
	}
	return d.Milliseconds(), nil
}

// ToLocal adds the UTC offset in effect at the instant. The result encodes the local wall
// clock as if it were a UTC timestamp.
func (p *Projector) ToLocal(instant int64) (int64, error) {
	if err := checkRange(instant); err != nil {
		return 0, err
	}
	o, err := p.offsetAt(instant)
	if err != nil {
		return 0, err
	}
	return instant + o, nil
}

// ToLocalEnd returns the local wall clock at which an interval ending at end finishes, i.e.
// the clock is read with the offset in effect just before end. It differs from ToLocal only
// when end is a transition instant.
func (p *Projector) ToLocalEnd(end int64) (int64, error) {
	if err := checkRange(end); err != nil {
		return 0, err
	}
	o, err := p.offsetAt(end - 1)
	if err != nil {
		return 0, err
	}
	return end + o, nil
}

// ToInstant converts a local value back to an instant using the offset in effect at the
// resulting instant. A local value inside a spring-forward gap resolves to the first
// instant after the gap.
func (p *Projector) ToInstant(local int64) (int64, error) {
	if err := checkRange(local); err != nil {
		return 0, err
	}
	hint, err := p.offsetAt(local)
	if err != nil {
		return 0, err
	}
	return p.resolve(local, hint)
}

// resolve probes the candidate derived from the hint offset and re-derives it when the zone
// disagrees at the candidate. In an overlap the occurrence matching the hint wins.
func (p *Projector) resolve(local, hint int64) (int64, error) {
	c := local - hint
	if p.fixed {
		return c, nil
	}
	o, err := p.offsetAt(c)
	if err != nil {
		return 0, err
	}
	if o == hint {
		return c, nil
	}
	c2 := local - o
	o2, err := p.offsetAt(c2)
	if err != nil {
		return 0, err
	}
	if o2 == o {
		return c2, nil
	}
	// neither offset is consistent: the local value was skipped
	lo, hi := c, c2
	if lo > hi {
		lo, hi = hi, lo
	}
	oLo, err := p.offsetAt(lo)
	if err != nil {
		return 0, err
	}
	return p.seekTransition(lo, hi, oLo)
}

// CeilBoundary returns the smallest grid boundary of the given unit at or after the instant.
func (p *Projector) CeilBoundary(instant int64, unit int64) (int64, error) {
	if err := checkRange(instant); err != nil {
		return 0, err
	}
	t := instant
	for {
		ok, o, err := p.atBoundary(t, unit)
		if err != nil {
			return 0, err
		}
		if ok {
			return t, nil
		}
		c := t + unit - floorMod(t+o-p.offset, unit)
		if p.fixed {
			return c, nil
		}
		_, end, repeated, err := p.overlap(t, o)
		if err != nil {
			return 0, err
		}
		if repeated {
			t = end
			continue
		}
		oEnd, err := p.offsetAt(c - 1)
		if err != nil {
			return 0, err
		}
		if oEnd == o {
			// c may itself be a transition
			t = c
			continue
		}
		// the offset changes before the candidate; restart from the transition
		if t, err = p.seekTransition(t, c-1, o); err != nil {
			return 0, err
		}
	}
}

// FloorBoundaryBefore returns the largest grid boundary of the given unit strictly before the
// instant.
func (p *Projector) FloorBoundaryBefore(instant int64, unit int64) (int64, error) {
	if err := checkRange(instant); err != nil {
		return 0, err
	}
	t := instant
	for {
		s := t - 1
		o, err := p.offsetAt(s)
		if err != nil {
			return 0, err
		}
		c := s - floorMod(s+o-p.offset, unit)
		if p.fixed {
			return c, nil
		}
		oc, err := p.offsetAt(c)
		if err != nil {
			return 0, err
		}
		if oc != o {
			if t, err = p.seekTransition(c, s, oc); err != nil {
				return 0, err
			}
			ok, _, err := p.atBoundary(t, unit)
			if err != nil {
				return 0, err
			}
			if ok {
				return t, nil
			}
			continue
		}
		start, _, repeated, err := p.overlap(c, o)
		if err != nil {
			return 0, err
		}
		if !repeated {
			return c, nil
		}
		t = start
	}
}

// IsBoundary reports whether the instant is a grid boundary of the given unit.
func (p *Projector) IsBoundary(instant int64, unit int64) (bool, error) {
	if err := checkRange(instant); err != nil {
		return false, err
	}
	ok, _, err := p.atBoundary(instant, unit)
	return ok, err
}

// Rewind moves a boundary back by d on the local timeline, reading the clock the way an
// interval ending at the boundary would.
func (p *Projector) Rewind(end int64, d int64) (int64, error) {
	if err := checkRange(end); err != nil {
		return 0, err
	}
	o, err := p.offsetAt(end - 1)
	if err != nil {
		return 0, err
	}
	return p.resolve(end+o-d, o)
}

// atBoundary also returns the offset in effect at the instant.
func (p *Projector) atBoundary(t int64, unit int64) (bool, int64, error) {
	o, err := p.offsetAt(t)
	if err != nil {
		return false, 0, err
	}
	onGrid := floorMod(t+o-p.offset, unit) == 0
	if p.fixed {
		return onGrid, o, nil
	}
	if onGrid {
		_, _, repeated, err := p.overlap(t, o)
		if err != nil {
			return false, 0, err
		}
		return !repeated, o, nil
	}
	oPrev, err := p.offsetAt(t - 1)
	if err != nil {
		return false, 0, err
	}
	if oPrev >= o {
		return false, o, nil
	}
	// t ends a spring-forward gap and stands in for the grid points of [lo, hi)
	lo, hi := t+oPrev-p.offset, t+o-p.offset
	return lo+floorMod(-lo, unit) < hi, o, nil
}

// overlap reports whether the wall clock at t, read with offset o, already occurred before a
// fall-back transition. If so, [start, end) holds every instant of the repeated wall clock.
func (p *Projector) overlap(t, o int64) (start, end int64, repeated bool, err error) {
	if p.fixed {
		return 0, 0, false, nil
	}
	oBack, err := p.offsetAt(t - maxOverlap)
	if err != nil || oBack <= o {
		return 0, 0, false, err
	}
	d := oBack - o
	earlier, err := p.offsetAt(t - d)
	if err != nil || earlier != oBack {
		return 0, 0, false, err
	}
	if start, err = p.seekTransition(t-d, t, oBack); err != nil {
		return 0, 0, false, err
	}
	return start, start + d, true, nil
}

// seekTransition binary searches (lo, hi] for the first instant whose offset differs from
// oLo. The offset at hi must already differ.
func (p *Projector) seekTransition(lo, hi int64, oLo int64) (int64, error) {
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		o, err := p.offsetAt(mid)
		if err != nil {
			return 0, err
		}
		if o == oLo {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi, nil
}

func floorMod(a, b int64) int64 {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

func checkRange(instant int64) error {
	if instant < minInstant || instant > maxInstant {
		return fmt.Errorf("%w: %d is outside [%d, %d]", ErrOutOfRange, instant, int64(minInstant), int64(maxInstant))
	}
	return nil
}
