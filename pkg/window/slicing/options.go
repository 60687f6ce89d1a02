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
	"time"
)

type options struct {
	// zone whose wall clock defines the grid
	zone Zone
	// offset shifts the grid away from the epoch
	offset time.Duration
	// boundary selects the closed end of a slice
	boundary Boundary
}

func defaultOptions() *options {
	return &options{
		zone:     UTC,
		offset:   0,
		boundary: RightClosed,
	}
}

type Option func(*options) error

// WithZone sets the zone used for the local projection.
func WithZone(z Zone) Option {
	return func(o *options) error {
		o.zone = z
		return nil
	}
}

// WithTimeZone resolves an IANA zone id and uses it for the local projection.
func WithTimeZone(id string) Option {
	return func(o *options) error {
		z, err := LoadZone(id)
		if err != nil {
			return err
		}
		o.zone = z
		return nil
	}
}

// WithOffset shifts the slice grid by the given duration, e.g. to align daily windows to a
// reference other than midnight.
func WithOffset(d time.Duration) Option {
	return func(o *options) error {
		o.offset = d
		return nil
	}
}

// WithBoundary sets which end of a slice is closed.
func WithBoundary(b Boundary) Option {
	return func(o *options) error {
		o.boundary = b
		return nil
	}
}
