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
	"github.com/spf13/cobra"

	"github.com/numaproj/numaslice"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd, nil)
			if err != nil {
				return err
			}
			v := numaslice.GetVersion()
			return p.print([]string{"FIELD", "VALUE"}, [][]string{
				{"Version", v.Version},
				{"BuildDate", v.BuildDate},
				{"GitCommit", v.GitCommit},
				{"GitTag", v.GitTag},
				{"GitTreeState", v.GitTreeState},
				{"GoVersion", v.GoVersion},
				{"Compiler", v.Compiler},
				{"Platform", v.Platform},
			}, v)
		},
	}
}
