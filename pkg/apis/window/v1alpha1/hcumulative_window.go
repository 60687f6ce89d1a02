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

// Package v1alpha1 contains the declarative window specifications handed from the query
// planner to the runtime.
package v1alpha1

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"

	"github.com/numaproj/numaslice/pkg/window/slicing"
)

const (
	FieldNameMaxSize = "maxSize"
	FieldNameSlide   = "slide"
	FieldNameStep    = "step"
)

var ErrInvalidWindow = errors.New("invalid hcumulative window")

// HCumulativeWindow is a hop cumulative window: windows start every MaxSize, fire every
// Slide and grow by Slide at each firing. The window state is kept in slices of length Step.
type HCumulativeWindow struct {
	// MaxSize is the length of the largest window of a cycle.
	MaxSize *metav1.Duration `json:"maxSize" protobuf:"bytes,1,opt,name=maxSize"`
	// Slide is the period at which windows fire.
	Slide *metav1.Duration `json:"slide" protobuf:"bytes,2,opt,name=slide"`
	// Step is the length of a slice. Defaults to Slide.
	// +optional
	Step *metav1.Duration `json:"step,omitempty" protobuf:"bytes,3,opt,name=step"`
}

func NewHCumulativeWindow(maxSize, slide, step time.Duration) HCumulativeWindow {
	return HCumulativeWindow{
		MaxSize: ptr.To(metav1.Duration{Duration: maxSize}),
		Slide:   ptr.To(metav1.Duration{Duration: slide}),
		Step:    ptr.To(metav1.Duration{Duration: step}),
	}
}

// ParseHCumulativeWindow decodes a YAML or JSON document and validates the result.
func ParseHCumulativeWindow(data []byte) (HCumulativeWindow, error) {
	var w HCumulativeWindow
	if err := yaml.UnmarshalStrict(data, &w); err != nil {
		return HCumulativeWindow{}, fmt.Errorf("failed to decode hcumulative window, %w", err)
	}
	if err := w.Validate(); err != nil {
		return HCumulativeWindow{}, err
	}
	return w, nil
}

func (w HCumulativeWindow) GetMaxSize() time.Duration {
	if w.MaxSize == nil {
		return 0
	}
	return w.MaxSize.Duration
}

func (w HCumulativeWindow) GetSlide() time.Duration {
	if w.Slide == nil {
		return 0
	}
	return w.Slide.Duration
}

// GetStep returns the slice length, falling back to the slide when no step is set.
func (w HCumulativeWindow) GetStep() time.Duration {
	if w.Step == nil || w.Step.Duration == 0 {
		return w.GetSlide()
	}
	return w.Step.Duration
}

// Summary describes the window applied to the given windowing expression, e.g.
// "HCUMULATE(ts, max_size=[1 d], slide=[6 h])".
func (w HCumulativeWindow) Summary(windowing string) string {
	return fmt.Sprintf("HCUMULATE(%s, max_size=[%s], slide=[%s])",
		windowing, FormatWithHighestUnit(w.GetMaxSize()), FormatWithHighestUnit(w.GetSlide()))
}

func (w HCumulativeWindow) String() string {
	return fmt.Sprintf("HCUMULATE(max_size=[%s], slide=[%s])",
		FormatWithHighestUnit(w.GetMaxSize()), FormatWithHighestUnit(w.GetSlide()))
}

// Equal reports whether both windows have the same max size and slide. The step is not
// compared, so windows differing only in slice length are interchangeable in plan caches.
func (w HCumulativeWindow) Equal(o HCumulativeWindow) bool {
	return w.GetMaxSize() == o.GetMaxSize() && w.GetSlide() == o.GetSlide()
}

// Key returns a map key consistent with Equal.
func (w HCumulativeWindow) Key() string {
	return fmt.Sprintf("HCumulativeWindow/%d/%d", w.GetMaxSize().Milliseconds(), w.GetSlide().Milliseconds())
}

// Validate checks that all durations are set and form a valid slice grid.
func (w HCumulativeWindow) Validate() error {
	var errs error
	if w.MaxSize == nil {
		errs = multierr.Append(errs, fmt.Errorf("%q is required", FieldNameMaxSize))
	}
	if w.Slide == nil {
		errs = multierr.Append(errs, fmt.Errorf("%q is required", FieldNameSlide))
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWindow, errs)
	}
	if _, err := w.Assigner(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWindow, err)
	}
	return nil
}

// Assigner builds the slice assigner of the window.
func (w HCumulativeWindow) Assigner(opts ...slicing.Option) (*slicing.Assigner, error) {
	return slicing.NewHCumulative(w.GetMaxSize(), w.GetSlide(), w.GetStep(), opts...)
}
