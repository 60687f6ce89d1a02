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
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Zone supplies the UTC offset in effect at an instant. It is the only capability the slice
// arithmetic consumes from its environment, so tests and embedders can inject their own
// transition tables.
type Zone interface {
	// Name returns the zone identifier, e.g. "America/Los_Angeles".
	Name() string
	// OffsetAt returns the offset from UTC in effect at the instant (milliseconds since epoch).
	OffsetAt(instant int64) (time.Duration, error)
}

// UTC is the zone without any offset or transition.
var UTC Zone = FixedZone("UTC", 0)

type fixedZone struct {
	name   string
	offset time.Duration
}

// FixedZone returns a zone with a constant offset.
func FixedZone(name string, offset time.Duration) Zone {
	return fixedZone{name: name, offset: offset}
}

func (z fixedZone) Name() string {
	return z.name
}

func (z fixedZone) OffsetAt(int64) (time.Duration, error) {
	return z.offset, nil
}

type locationZone struct {
	loc *time.Location
}

// LocationZone adapts a *time.Location, backed by the host time zone database.
func LocationZone(loc *time.Location) Zone {
	return locationZone{loc: loc}
}

func (z locationZone) Name() string {
	return z.loc.String()
}

func (z locationZone) OffsetAt(instant int64) (time.Duration, error) {
	_, secs := time.UnixMilli(instant).In(z.loc).Zone()
	return time.Duration(secs) * time.Second, nil
}

type zoneFunc struct {
	name string
	fn   func(instant int64) (time.Duration, error)
}

// ZoneFunc wraps an offset lookup function as a Zone.
func ZoneFunc(name string, fn func(instant int64) (time.Duration, error)) Zone {
	return zoneFunc{name: name, fn: fn}
}

func (z zoneFunc) Name() string {
	return z.name
}

func (z zoneFunc) OffsetAt(instant int64) (time.Duration, error) {
	return z.fn(instant)
}

// locations memoizes parsed tz database entries; time.LoadLocation reads and parses the zone
// file on every call.
var locations, _ = lru.New[string, *time.Location](128)

// LoadZone resolves an IANA zone id. An empty id, "UTC" and "Z" resolve to UTC.
func LoadZone(id string) (Zone, error) {
	id = strings.TrimSpace(id)
	switch strings.ToUpper(id) {
	case "", "UTC", "Z":
		return UTC, nil
	}
	if loc, ok := locations.Get(id); ok {
		return LocationZone(loc), nil
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnknownZone, id, err)
	}
	locations.Add(id, loc)
	return LocationZone(loc), nil
}

// ZoneLocation returns the location that renders wall clocks of the zone. Fixed zones map to
// a fixed location with the same offset. Zones that are not backed by a location, such as
// those of ZoneFunc, report false.
func ZoneLocation(z Zone) (*time.Location, bool) {
	switch z := z.(type) {
	case locationZone:
		return z.loc, true
	case fixedZone:
		if z.offset == 0 && z.name == "UTC" {
			return time.UTC, true
		}
		return time.FixedZone(z.name, int(z.offset/time.Second)), true
	default:
		return nil, false
	}
}

// IsFixed reports whether the zone is known to never change its offset.
func IsFixed(z Zone) bool {
	_, ok := z.(fixedZone)
	return ok
}
