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
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"sigs.k8s.io/controller-runtime/pkg/manager/signals"

	"github.com/numaproj/numaslice/pkg/config"
	"github.com/numaproj/numaslice/pkg/shared/logging"
	"github.com/numaproj/numaslice/pkg/window/slicing"
)

const (
	flagConfig = "config"
	flagOutput = "output"
)

var rootCmd = NewRootCommand()

func NewRootCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "numaslice",
		Short:        "Assign events to window slices and plan window firings",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := logging.NewLogger().Named(cmd.Name())
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.HelpFunc()(cmd, args)
			return nil
		},
	}
	command.PersistentFlags().String(flagConfig, "", "Path to a YAML or JSON config file")
	command.PersistentFlags().StringP(flagOutput, "o", outputTable, "Output format: table or json")
	config.AddFlags(command.PersistentFlags())
	command.AddCommand(NewAssignCommand())
	command.AddCommand(NewExpireCommand())
	command.AddCommand(NewScheduleCommand())
	command.AddCommand(NewSimulateCommand())
	command.AddCommand(NewVersionCommand())
	return command
}

func Execute() {
	if err := rootCmd.ExecuteContext(signals.SetupSignalHandler()); err != nil {
		os.Exit(1)
	}
}

// windowing is the window configuration a command runs with.
type windowing struct {
	config   *config.Config
	assigner *slicing.Assigner
	// loc is the zone timestamps are parsed and printed in
	loc *time.Location
}

func loadWindowing(cmd *cobra.Command) (*windowing, error) {
	configFile, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return nil, err
	}
	v, err := config.NewViper(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	c, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	a, err := c.Assigner()
	if err != nil {
		return nil, err
	}
	loc := location(a)
	logging.FromContext(cmd.Context()).Debugw("Loaded window", zap.Stringer("assigner", a))
	return &windowing{config: c, assigner: a, loc: loc}, nil
}

// location renders timestamps in the zone of the assigner, which was loaded once through the
// zone cache.
func location(a *slicing.Assigner) *time.Location {
	if loc, ok := slicing.ZoneLocation(a.Projector().Zone()); ok {
		return loc
	}
	return time.UTC
}
