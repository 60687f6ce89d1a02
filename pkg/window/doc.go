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

// Package window contains the windowing building blocks shared by the slice assigners and the
// reference operator.
//
// Event time is divided into slices; a window is the merge of the slices between its start
// and its end. A window is materialized once the watermark passes its end, and the state of
// a slice is dropped as soon as no unfired window needs it. The result of a window is
// therefore materialized exactly once per key, with late events (events whose window already
// fired) dropped.
//
// Subpackages:
//   - slicing assigns events to slices and decides merges and evictions;
//   - tvf parses and validates the HCUMULATE table function;
//   - operator keeps per key slice state and fires windows on watermark progress.
package window
