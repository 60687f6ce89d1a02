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
	"strconv"

	"github.com/spf13/cobra"
)

type assignment struct {
	Input       string `json:"input"`
	Instant     int64  `json:"instant"`
	SliceEnd    int64  `json:"sliceEnd"`
	WindowEnd   int64  `json:"windowEnd"`
	WindowStart int64  `json:"windowStart"`
}

func NewAssignCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "assign TIMESTAMP...",
		Short: "Print the slice and the first window of each timestamp",
		Example: `  numaslice assign --kind hcumulative --max-size 24h --slide 6h --step 1h --timezone Asia/Shanghai "2024-03-10 01:30:00"
  numaslice assign --kind tumbling --size 1h 1710034200000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWindowing(cmd)
			if err != nil {
				return err
			}
			p, err := newPrinter(cmd, w.loc)
			if err != nil {
				return err
			}
			var (
				assignments []assignment
				rows        [][]string
			)
			for _, arg := range args {
				instant, err := parseInstant(arg, w.loc)
				if err != nil {
					return err
				}
				sliceEnd, err := w.assigner.AssignSliceEnd(instant)
				if err != nil {
					return fmt.Errorf("failed to assign %q, %w", arg, err)
				}
				windowEnd, err := w.assigner.FirstWindowEnd(sliceEnd)
				if err != nil {
					return fmt.Errorf("failed to find the window of %q, %w", arg, err)
				}
				windowStart, err := w.assigner.GetWindowStart(windowEnd)
				if err != nil {
					return fmt.Errorf("failed to find the window start of %q, %w", arg, err)
				}
				assignments = append(assignments, assignment{
					Input:       arg,
					Instant:     instant,
					SliceEnd:    sliceEnd,
					WindowEnd:   windowEnd,
					WindowStart: windowStart,
				})
				rows = append(rows, []string{
					arg,
					strconv.FormatInt(instant, 10),
					p.instant(sliceEnd),
					p.instant(windowStart),
					p.instant(windowEnd),
				})
			}
			return p.print([]string{"TIMESTAMP", "INSTANT", "SLICE END", "WINDOW START", "WINDOW END"}, rows, assignments)
		},
	}
	return command
}
