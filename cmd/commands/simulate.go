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
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/numaproj/numaslice"
	"github.com/numaproj/numaslice/pkg/metrics"
	"github.com/numaproj/numaslice/pkg/shared/logging"
	"github.com/numaproj/numaslice/pkg/window/operator"
)

// eventLine is one JSON encoded input event. Time is epoch milliseconds or a timestamp
// string.
type eventLine struct {
	Key   string      `json:"key"`
	Time  interface{} `json:"time"`
	Value float64     `json:"value"`
}

type simulateOptions struct {
	input       string
	from        string
	count       int
	interval    time.Duration
	keys        int
	lateness    time.Duration
	metricsAddr string
	linger      time.Duration
}

func NewSimulateCommand() *cobra.Command {
	opts := &simulateOptions{}

	command := &cobra.Command{
		Use:   "simulate",
		Short: "Run events through a cumulative windowing operator and print the fired windows",
		Long: `Run events through an in-memory windowing operator and print every fired window.

Events are generated, or read as JSON lines from a file or stdin ("-"):
  {"key": "a", "time": "2024-03-10 01:30:00", "value": 2}

The watermark follows the largest event time minus the allowed lateness. Events whose
window already fired are dropped. At the end of the input every open cycle fires.`,
		Example: `  numaslice simulate --max-size 24h --slide 6h --step 1h --from "2024-03-10" --count 48 --interval 30m
  cat events.jsonl | numaslice simulate --config window.yaml --input -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, opts)
		},
	}
	command.Flags().StringVar(&opts.input, "input", "", `JSON lines event file, "-" for stdin; events are generated when empty`)
	command.Flags().StringVar(&opts.from, "from", "1970-01-01T00:00:00Z", "Time of the first generated event")
	command.Flags().IntVar(&opts.count, "count", 100, "Number of generated events")
	command.Flags().DurationVar(&opts.interval, "interval", time.Minute, "Event time distance of generated events")
	command.Flags().IntVar(&opts.keys, "keys", 1, "Number of keys generated events are spread over")
	command.Flags().DurationVar(&opts.lateness, "allowed-lateness", 0, "Distance of the watermark behind the largest event time")
	command.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address, e.g. :9090")
	command.Flags().DurationVar(&opts.linger, "linger", 0, "Keep serving metrics this long after the simulation")
	return command
}

func runSimulation(cmd *cobra.Command, opts *simulateOptions) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	w, err := loadWindowing(cmd)
	if err != nil {
		return err
	}
	p, err := newPrinter(cmd, w.loc)
	if err != nil {
		return err
	}
	op, err := operator.New(w.assigner)
	if err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		v := numaslice.GetVersion()
		metrics.BuildInfo.WithLabelValues(v.Version, v.Platform).Set(1)
		ms := metrics.NewMetricsServer(metrics.WithAddr(opts.metricsAddr), metrics.WithHealthCheckers(ctx, op))
		shutdown, err := ms.Start(ctx)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				log.Errorw("Failed to shutdown metrics server", zap.Error(err))
			}
		}()
	}

	events, closeEvents, err := openEvents(cmd, opts, w.loc)
	if err != nil {
		return err
	}
	defer closeEvents()
	var (
		results []operator.Result
		maxTime int64
		seen    bool
		late    int
	)
	for {
		e, err := events()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := op.Process(ctx, e); err != nil {
			if errors.Is(err, operator.ErrLateEvent) {
				late++
				continue
			}
			return err
		}
		if !seen || e.Time > maxTime {
			maxTime, seen = e.Time, true
		}
		fired, err := op.AdvanceWatermark(ctx, maxTime-opts.lateness.Milliseconds()-1)
		if err != nil {
			return err
		}
		results = append(results, fired...)
	}
	if seen {
		// Every cycle holding state is complete at its end.
		sliceEnd, err := w.assigner.AssignSliceEnd(maxTime)
		if err != nil {
			return err
		}
		cycleEnd, err := w.assigner.Projector().CeilBoundary(sliceEnd, w.assigner.Params().MaxSize.Milliseconds())
		if err != nil {
			return err
		}
		fired, err := op.AdvanceWatermark(ctx, cycleEnd)
		if err != nil {
			return err
		}
		results = append(results, fired...)
	}
	log.Infow("Simulation finished", zap.Int("windows", len(results)), zap.Int("lateEvents", late),
		zap.Int("retainedSlices", op.RetainedSlices()))

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Key,
			p.instant(r.WindowStart),
			p.instant(r.WindowEnd),
			strconv.FormatInt(r.Count, 10),
			strconv.FormatFloat(r.Sum, 'f', -1, 64),
		})
	}
	if results == nil {
		results = []operator.Result{}
	}
	if err := p.print([]string{"KEY", "WINDOW START", "WINDOW END", "COUNT", "SUM"}, rows, results); err != nil {
		return err
	}

	if opts.metricsAddr != "" && opts.linger > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(opts.linger):
		}
	}
	return nil
}

// openEvents returns an iterator over the input events, which returns io.EOF at the end.
func openEvents(cmd *cobra.Command, opts *simulateOptions, loc *time.Location) (func() (operator.Event, error), func(), error) {
	noop := func() {}
	if opts.input == "" {
		next, err := generateEvents(opts, loc)
		return next, noop, err
	}
	var (
		r       io.Reader
		closeFn = noop
	)
	if opts.input == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(opts.input)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open events file, %w", err)
		}
		closeFn = func() { _ = f.Close() }
		r = f
	}
	scanner := bufio.NewScanner(r)
	line := 0
	return func() (operator.Event, error) {
		for scanner.Scan() {
			line++
			if len(scanner.Bytes()) == 0 {
				continue
			}
			e, err := decodeEvent(scanner.Bytes(), loc)
			if err != nil {
				return operator.Event{}, fmt.Errorf("line %d: %w", line, err)
			}
			return e, nil
		}
		if err := scanner.Err(); err != nil {
			return operator.Event{}, err
		}
		return operator.Event{}, io.EOF
	}, closeFn, nil
}

func decodeEvent(data []byte, loc *time.Location) (operator.Event, error) {
	var l eventLine
	dec := gojson.NewDecoder(bytes.NewReader(data))
	// epoch milliseconds above 2^53 do not survive a float64
	dec.UseNumber()
	if err := dec.Decode(&l); err != nil {
		return operator.Event{}, fmt.Errorf("failed to decode event, %w", err)
	}
	e := operator.Event{Key: l.Key, Value: l.Value}
	switch t := l.Time.(type) {
	case gojson.Number:
		instant, err := t.Int64()
		if err != nil {
			return operator.Event{}, fmt.Errorf("event time must be whole epoch milliseconds, got %s", t)
		}
		e.Time = instant
	case string:
		instant, err := parseInstant(t, loc)
		if err != nil {
			return operator.Event{}, err
		}
		e.Time = instant
	default:
		return operator.Event{}, fmt.Errorf("event time must be epoch milliseconds or a timestamp, got %v", l.Time)
	}
	return e, nil
}

func generateEvents(opts *simulateOptions, loc *time.Location) (func() (operator.Event, error), error) {
	start, err := parseInstant(opts.from, loc)
	if err != nil {
		return nil, err
	}
	if opts.count < 0 || opts.keys <= 0 || opts.interval <= 0 {
		return nil, fmt.Errorf("--count must not be negative, --keys and --interval must be positive")
	}
	i := 0
	return func() (operator.Event, error) {
		if i >= opts.count {
			return operator.Event{}, io.EOF
		}
		e := operator.Event{
			Key:   fmt.Sprintf("key-%d", i%opts.keys),
			Time:  start + int64(i)*opts.interval.Milliseconds(),
			Value: float64(i%10 + 1),
		}
		i++
		return e, nil
	}, nil
}
