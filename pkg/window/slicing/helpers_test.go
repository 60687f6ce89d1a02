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
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"
)

const (
	hour = int64(time.Hour / time.Millisecond)
	day  = 24 * hour
)

func utcMillis(t *testing.T, s string) int64 {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04:05", s)
	require.NoError(t, err)
	return ts.UnixMilli()
}

func localMillis(t *testing.T, loc *time.Location, s string) int64 {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc)
	require.NoError(t, err)
	return ts.UnixMilli()
}

func mustLocation(t *testing.T, id string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(id)
	require.NoError(t, err)
	return loc
}

// wallClock renders a local value produced by the projector.
func wallClock(local int64) string {
	return time.UnixMilli(local).UTC().Format("2006-01-02T15:04")
}
