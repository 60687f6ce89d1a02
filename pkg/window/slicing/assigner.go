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
	"time"

	"go.uber.org/multierr"
)

// SliceAssigner maps instants to slices and slice ends to the windows they complete.
type SliceAssigner interface {
	// Kind returns the variant tag.
	Kind() Kind
	// AssignSliceEnd returns the end of the slice the instant belongs to.
	AssignSliceEnd(instant int64) (int64, error)
	// GetWindowStart returns the start of the window ending at the given boundary.
	GetWindowStart(windowEnd int64) (int64, error)
	// FirstWindowEnd returns the end of the first window that emits the slice.
	FirstWindowEnd(sliceEnd int64) (int64, error)
}

// SharedSliceAssigner is implemented by variants whose slices are reused across windows.
type SharedSliceAssigner interface {
	SliceAssigner
	// ExpiredSlices returns, in eviction order, the slices whose state can be dropped once the
	// window ending at windowEnd has fired.
	ExpiredSlices(windowEnd int64) ([]int64, error)
	// MergeSlices describes how the slices of the window ending at windowEnd combine into the
	// window result.
	MergeSlices(windowEnd int64) (MergePlan, error)
}

// MergePlan tells the state owner where the result of a fired window is accumulated.
type MergePlan struct {
	// Start is the start of the fired window.
	Start int64 `json:"start"`
	// Target is the slice whose state holds the merged result. Unset when Temporary is true.
	Target int64 `json:"target,omitempty"`
	// Temporary is true when every source is still needed by a later window, so the result
	// has to be merged into a scratch accumulator.
	Temporary bool `json:"temporary,omitempty"`
	// Sources are merged into the target, in ascending order.
	Sources []int64 `json:"sources"`
}

// Params are the durations that define the slice and window grids. Unused fields of a kind
// are ignored.
type Params struct {
	// Size is the window length of Tumbling and Hopping windows.
	Size time.Duration
	// Slide is the firing period of Hopping and HCumulative windows.
	Slide time.Duration
	// Step is the slice length of Cumulative and HCumulative windows; Cumulative windows fire
	// every step.
	Step time.Duration
	// MaxSize is the cycle length of Cumulative and HCumulative windows.
	MaxSize time.Duration
}

// Assigner is the single implementation behind SliceAssigner and SharedSliceAssigner.
// Behaviour is dispatched on the kind tag. An Assigner holds no mutable state.
type Assigner struct {
	kind     Kind
	params   Params
	proj     *Projector
	boundary Boundary
	// sliceUnit is the length of a slice
	sliceUnit int64
	// fireUnit is the period at which windows complete
	fireUnit int64
	// cycleUnit is the period after which cumulative windows restart
	cycleUnit int64
}

var (
	_ SliceAssigner       = (*Assigner)(nil)
	_ SharedSliceAssigner = (*Assigner)(nil)
)

// NewTumbling returns an assigner for non-overlapping windows of the given size.
func NewTumbling(size time.Duration, opts ...Option) (*Assigner, error) {
	return New(Tumbling, Params{Size: size}, opts...)
}

// NewHopping returns an assigner for windows of the given size starting every slide.
func NewHopping(size, slide time.Duration, opts ...Option) (*Assigner, error) {
	return New(Hopping, Params{Size: size, Slide: slide}, opts...)
}

// NewCumulative returns an assigner for windows growing by step up to maxSize.
func NewCumulative(maxSize, step time.Duration, opts ...Option) (*Assigner, error) {
	return New(Cumulative, Params{MaxSize: maxSize, Step: step}, opts...)
}

// NewHCumulative returns an assigner for cumulative windows that fire every slide up to
// maxSize, over slices of length step.
func NewHCumulative(maxSize, slide, step time.Duration, opts ...Option) (*Assigner, error) {
	return New(HCumulative, Params{MaxSize: maxSize, Slide: slide, Step: step}, opts...)
}

// New validates the parameters of the kind and returns an assigner. All violations are
// reported together in an error wrapping ErrInvalidConfig.
func New(kind Kind, params Params, opts ...Option) (*Assigner, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if err := validate(kind, params, o); err != nil {
		return nil, fmt.Errorf("%w for %s window: %w", ErrInvalidConfig, kind, err)
	}
	a := &Assigner{
		kind:     kind,
		params:   params,
		proj:     NewProjector(o.zone, o.offset),
		boundary: o.boundary,
	}
	switch kind {
	case Tumbling:
		a.sliceUnit = params.Size.Milliseconds()
		a.fireUnit = a.sliceUnit
	case Hopping:
		a.sliceUnit = params.Slide.Milliseconds()
		a.fireUnit = a.sliceUnit
	case Cumulative:
		a.sliceUnit = params.Step.Milliseconds()
		a.fireUnit = a.sliceUnit
		a.cycleUnit = params.MaxSize.Milliseconds()
	case HCumulative:
		a.sliceUnit = params.Step.Milliseconds()
		a.fireUnit = params.Slide.Milliseconds()
		a.cycleUnit = params.MaxSize.Milliseconds()
	}
	return a, nil
}

func validate(kind Kind, p Params, o *options) error {
	var errs error
	positive := func(name string, d time.Duration) bool {
		switch {
		case d <= 0:
			errs = multierr.Append(errs, fmt.Errorf("%s must be positive, got %v", name, d))
		case d%time.Millisecond != 0:
			errs = multierr.Append(errs, fmt.Errorf("%s must be a whole number of milliseconds, got %v", name, d))
		default:
			return true
		}
		return false
	}
	multipleOf := func(name string, d time.Duration, baseName string, base time.Duration) {
		if d%base != 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s %v must be an integral multiple of %s %v", name, d, baseName, base))
		}
	}
	switch kind {
	case Tumbling:
		positive("size", p.Size)
	case Hopping:
		size, slide := positive("size", p.Size), positive("slide", p.Slide)
		if size && slide {
			multipleOf("size", p.Size, "slide", p.Slide)
		}
	case Cumulative:
		maxSize, step := positive("max size", p.MaxSize), positive("step", p.Step)
		if maxSize && step {
			multipleOf("max size", p.MaxSize, "step", p.Step)
		}
	case HCumulative:
		maxSize, slide, step := positive("max size", p.MaxSize), positive("slide", p.Slide), positive("step", p.Step)
		if slide && step {
			multipleOf("slide", p.Slide, "step", p.Step)
		}
		if maxSize && slide {
			multipleOf("max size", p.MaxSize, "slide", p.Slide)
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("unsupported window kind %d", int(kind)))
	}
	if o.zone == nil {
		errs = multierr.Append(errs, fmt.Errorf("time zone is missing"))
	}
	if o.offset%time.Millisecond != 0 {
		errs = multierr.Append(errs, fmt.Errorf("offset must be a whole number of milliseconds, got %v", o.offset))
	}
	if o.boundary != RightClosed && o.boundary != LeftClosed {
		errs = multierr.Append(errs, fmt.Errorf("unsupported slice boundary %d", int(o.boundary)))
	}
	return errs
}

// AsShared returns the shared capability of the assigner when its kind reuses slices.
func AsShared(sa SliceAssigner) (SharedSliceAssigner, bool) {
	if !sa.Kind().Shared() {
		return nil, false
	}
	shared, ok := sa.(SharedSliceAssigner)
	return shared, ok
}

func (a *Assigner) Kind() Kind {
	return a.kind
}

// Params returns the durations the assigner was built with.
func (a *Assigner) Params() Params {
	return a.params
}

// Boundary returns the closed end of the slices.
func (a *Assigner) Boundary() Boundary {
	return a.boundary
}

// Projector returns the local-time projector of the assigner.
func (a *Assigner) Projector() *Projector {
	return a.proj
}

// SliceLength returns the length of a slice.
func (a *Assigner) SliceLength() time.Duration {
	return time.Duration(a.sliceUnit) * time.Millisecond
}

// FiringPeriod returns the period at which windows complete.
func (a *Assigner) FiringPeriod() time.Duration {
	return time.Duration(a.fireUnit) * time.Millisecond
}

func (a *Assigner) String() string {
	var dims string
	switch a.kind {
	case Tumbling:
		dims = fmt.Sprintf("size=%v", a.params.Size)
	case Hopping:
		dims = fmt.Sprintf("size=%v, slide=%v", a.params.Size, a.params.Slide)
	case Cumulative:
		dims = fmt.Sprintf("maxSize=%v, step=%v", a.params.MaxSize, a.params.Step)
	case HCumulative:
		dims = fmt.Sprintf("maxSize=%v, slide=%v, step=%v", a.params.MaxSize, a.params.Slide, a.params.Step)
	}
	return fmt.Sprintf("%s(%s, zone=%s, offset=%v, boundary=%s)", a.kind, dims, a.proj.Zone().Name(), a.proj.Offset(), a.boundary)
}

// AssignSliceEnd returns the end of the slice containing the instant. The result is the
// smallest slice boundary at or after the instant (RightClosed) or strictly after it
// (LeftClosed), computed on the local timeline of the zone.
func (a *Assigner) AssignSliceEnd(instant int64) (int64, error) {
	if err := checkRange(instant); err != nil {
		return 0, err
	}
	if a.boundary == LeftClosed {
		instant++
	}
	return a.proj.CeilBoundary(instant, a.sliceUnit)
}

// GetWindowStart returns the start of the window ending at windowEnd. Tumbling and
// HCumulative windows start at the last size or slide boundary strictly before windowEnd, so a
// boundary is attributed to the window it closes. Cumulative windows start with their cycle.
// Hopping windows start size before their end and require windowEnd to be a slide boundary.
func (a *Assigner) GetWindowStart(windowEnd int64) (int64, error) {
	switch a.kind {
	case Tumbling:
		return a.proj.FloorBoundaryBefore(windowEnd, a.sliceUnit)
	case Hopping:
		if err := a.checkFiring(windowEnd); err != nil {
			return 0, err
		}
		return a.proj.Rewind(windowEnd, a.params.Size.Milliseconds())
	case Cumulative:
		return a.cycleWindowStart(windowEnd)
	case HCumulative:
		return a.proj.FloorBoundaryBefore(windowEnd, a.fireUnit)
	default:
		return 0, fmt.Errorf("unsupported window kind %s", a.kind)
	}
}

// FirstWindowEnd returns the first firing boundary at or after the slice end.
func (a *Assigner) FirstWindowEnd(sliceEnd int64) (int64, error) {
	return a.proj.CeilBoundary(sliceEnd, a.fireUnit)
}

func (a *Assigner) checkFiring(windowEnd int64) error {
	ok, err := a.proj.IsBoundary(windowEnd, a.fireUnit)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d is not on the %v firing grid", ErrMisalignedSlice, windowEnd, a.FiringPeriod())
	}
	return nil
}
