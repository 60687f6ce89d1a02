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

	"github.com/numaproj/numaslice/pkg/window/slicing"
)

func NewExpireCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "expire WINDOW_END...",
		Short: "Print the slices merged and evicted when a window fires",
		Long: `Print, for each firing boundary, the start of the window it completes, the slice the
window result accumulates into, the slices merged into it and the slices whose state can
be dropped once the window fired.`,
		Example: `  numaslice expire --max-size 24h --slide 6h --step 1h "2024-03-10 12:00:00"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWindowing(cmd)
			if err != nil {
				return err
			}
			if _, ok := slicing.AsShared(w.assigner); !ok {
				return errNotShared(w.assigner.Kind())
			}
			p, err := newPrinter(cmd, w.loc)
			if err != nil {
				return err
			}
			firings := make([]firing, 0, len(args))
			for _, arg := range args {
				windowEnd, err := parseInstant(arg, w.loc)
				if err != nil {
					return err
				}
				f, err := describeFiring(w.assigner, windowEnd)
				if err != nil {
					return fmt.Errorf("failed to describe the window ending at %q, %w", arg, err)
				}
				firings = append(firings, f)
			}
			return p.printFirings(firings)
		},
	}
	return command
}
