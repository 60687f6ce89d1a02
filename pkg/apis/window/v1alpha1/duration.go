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

package v1alpha1

import (
	"fmt"
	"time"
)

type durationUnit struct {
	unit  time.Duration
	label string
}

// units are ordered from the largest to the smallest.
var units = []durationUnit{
	{unit: 24 * time.Hour, label: "d"},
	{unit: time.Hour, label: "h"},
	{unit: time.Minute, label: "min"},
	{unit: time.Second, label: "s"},
	{unit: time.Millisecond, label: "ms"},
	{unit: time.Microsecond, label: "µs"},
	{unit: time.Nanosecond, label: "ns"},
}

// FormatWithHighestUnit renders the duration as an integer count of the largest unit that
// divides it exactly, e.g. "1 d", "90 min" or "1500 ms".
func FormatWithHighestUnit(d time.Duration) string {
	for _, u := range units {
		if d%u.unit == 0 {
			return fmt.Sprintf("%d %s", d/u.unit, u.label)
		}
	}
	// unreachable, every duration is a multiple of a nanosecond
	return d.String()
}
