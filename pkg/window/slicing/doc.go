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

// Package slicing maps event times onto slices, the smallest buckets of window state, and
// decides which windows a slice contributes to and when its state can be dropped.
//
// A slice has the length of the smallest unit of the window definition (the step of a
// cumulative window, the slide of a hopping window, the size of a tumbling window). Slices
// are right-closed by default: an event exactly on a boundary belongs to the slice that ends
// there. Windows are assembled by merging slices, so overlapping windows share slice state
// instead of duplicating every event into every window.
//
// Cumulative windows (HCumulative) start every max size, fire every slide and grow by one
// slide at each firing until they span max size, e.g. with max size 1 day and slide 6 hours
// a day produces four windows starting at 00:00 and ending at 06:00, 12:00, 18:00 and
// 24:00. The first slice of a cycle doubles as the accumulator for the whole cycle
// and is dropped only at the last firing.
//
// All boundaries are computed on the wall clock of a time zone so that, e.g., daily windows
// start at local midnight on both sides of a daylight saving transition. The only dependency
// on the environment is a Zone, which supplies the UTC offset at an instant.
package slicing
