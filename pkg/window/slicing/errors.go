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

import "errors"

var (
	// ErrInvalidConfig is returned when an assigner is constructed from parameters that violate
	// the slice/window grid rules. It is always wrapped together with the individual violations.
	ErrInvalidConfig = errors.New("invalid slice assigner configuration")
	// ErrMisalignedSlice is returned when a retention or merge query is given a slice end that
	// is not a firing boundary of the assigner.
	ErrMisalignedSlice = errors.New("slice end is not aligned to a firing boundary")
	// ErrSliceNotShared is returned when retention is asked of a variant whose slices are never
	// shared between windows.
	ErrSliceNotShared = errors.New("slices are not shared by this window kind")
	// ErrUnknownZone is returned when a zone id cannot be resolved from the time zone database.
	ErrUnknownZone = errors.New("unknown time zone")
	// ErrOutOfRange is returned for instants too close to the ends of the int64 range for the
	// boundary arithmetic to stay exact.
	ErrOutOfRange = errors.New("instant out of range")
)
