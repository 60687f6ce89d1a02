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

	"github.com/spf13/cobra"
)

func NewScheduleCommand() *cobra.Command {
	var (
		from  string
		to    string
		limit int
	)

	command := &cobra.Command{
		Use:   "schedule",
		Short: "Print every window firing in a time range",
		Example: `  numaslice schedule --max-size 24h --slide 6h --step 1h --timezone America/Los_Angeles \
    --from "2024-03-09 00:00:00" --to "2024-03-11 00:00:00"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWindowing(cmd)
			if err != nil {
				return err
			}
			p, err := newPrinter(cmd, w.loc)
			if err != nil {
				return err
			}
			start, err := parseInstant(from, w.loc)
			if err != nil {
				return err
			}
			end, err := parseInstant(to, w.loc)
			if err != nil {
				return err
			}
			if start > end {
				return fmt.Errorf("--from %q is after --to %q", from, to)
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			var firings []firing
			windowEnd, err := w.assigner.FirstWindowEnd(start)
			for ; err == nil && windowEnd <= end && len(firings) < limit; windowEnd, err = w.assigner.FirstWindowEnd(windowEnd + 1) {
				f, err := describeFiring(w.assigner, windowEnd)
				if err != nil {
					return err
				}
				firings = append(firings, f)
			}
			if err != nil {
				return err
			}
			return p.printFirings(firings)
		},
	}
	command.Flags().StringVar(&from, "from", "", "First instant of the range")
	command.Flags().StringVar(&to, "to", "", "Last instant of the range, inclusive")
	command.Flags().IntVar(&limit, "limit", 1000, "Maximum number of firings to print")
	_ = command.MarkFlagRequired("from")
	_ = command.MarkFlagRequired("to")
	return command
}
