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

package commands

import (
	"fmt"

	"github.com/numaproj/numaslice/pkg/window/slicing"
)

// firing describes the window completed at a firing boundary and the slice state it
// touches.
type firing struct {
	WindowStart int64              `json:"windowStart"`
	WindowEnd   int64              `json:"windowEnd"`
	Merge       *slicing.MergePlan `json:"merge,omitempty"`
	Expired     []int64            `json:"expired,omitempty"`
}

func describeFiring(a *slicing.Assigner, windowEnd int64) (firing, error) {
	f := firing{WindowEnd: windowEnd}
	shared, ok := slicing.AsShared(a)
	if !ok {
		start, err := a.GetWindowStart(windowEnd)
		if err != nil {
			return firing{}, err
		}
		f.WindowStart = start
		return f, nil
	}
	plan, err := shared.MergeSlices(windowEnd)
	if err != nil {
		return firing{}, err
	}
	expired, err := shared.ExpiredSlices(windowEnd)
	if err != nil {
		return firing{}, err
	}
	f.WindowStart = plan.Start
	f.Merge = &plan
	f.Expired = expired
	return f, nil
}

var firingHeader = []string{"WINDOW START", "WINDOW END", "MERGE INTO", "MERGED SLICES", "EXPIRED SLICES"}

func (p *printer) firingRow(f firing) []string {
	row := []string{p.instant(f.WindowStart), p.instant(f.WindowEnd), "-", "-", p.instants(f.Expired)}
	if f.Merge != nil {
		if f.Merge.Temporary {
			row[2] = "(temporary)"
		} else {
			row[2] = p.instant(f.Merge.Target)
		}
		row[3] = p.instants(f.Merge.Sources)
	}
	return row
}

func (p *printer) printFirings(firings []firing) error {
	rows := make([][]string, 0, len(firings))
	for _, f := range firings {
		rows = append(rows, p.firingRow(f))
	}
	if firings == nil {
		firings = []firing{}
	}
	return p.print(firingHeader, rows, firings)
}

func errNotShared(kind slicing.Kind) error {
	return fmt.Errorf("%w: %s windows keep no slice state across windows", slicing.ErrSliceNotShared, kind)
}
