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
	"strings"
)

// Kind is the closed set of slice assigner variants.
type Kind int

const (
	Tumbling Kind = iota
	Hopping
	Cumulative
	HCumulative
)

func (k Kind) String() string {
	switch k {
	case Tumbling:
		return "Tumbling"
	case Hopping:
		return "Hopping"
	case Cumulative:
		return "Cumulative"
	case HCumulative:
		return "HCumulative"
	default:
		return "Unknown"
	}
}

// Shared reports whether slices of this kind are reused by more than one window, in which
// case the owner of the slice state needs ExpiredSlices to know when to drop them.
func (k Kind) Shared() bool {
	return k == Hopping || k == Cumulative || k == HCumulative
}

// ParseKind parses a kind name case-insensitively. "tumble", "hop", "cumulate" and
// "hcumulate" are accepted as the table-function spellings.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tumbling", "tumble":
		return Tumbling, nil
	case "hopping", "hop":
		return Hopping, nil
	case "cumulative", "cumulate":
		return Cumulative, nil
	case "hcumulative", "hcumulate", "":
		return HCumulative, nil
	default:
		return 0, fmt.Errorf("unrecognized window kind %q", s)
	}
}

// Boundary selects which end of a slice is closed.
type Boundary int

const (
	// RightClosed slices are (end-step, end]: an instant on a boundary belongs to the slice
	// ending there.
	RightClosed Boundary = iota
	// LeftClosed slices are [end-step, end): an instant on a boundary opens the next slice.
	LeftClosed
)

func (b Boundary) String() string {
	switch b {
	case RightClosed:
		return "RightClosed"
	case LeftClosed:
		return "LeftClosed"
	default:
		return "Unknown"
	}
}

// ParseBoundary parses "right", "right-closed", "left", "left-closed" and the String forms.
func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "")) {
	case "", "right", "rightclosed":
		return RightClosed, nil
	case "left", "leftclosed":
		return LeftClosed, nil
	default:
		return 0, fmt.Errorf("unrecognized slice boundary %q", s)
	}
}
