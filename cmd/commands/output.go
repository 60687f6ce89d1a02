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
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	gojson "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const (
	outputTable = "table"
	outputJSON  = "json"

	instantLayout = "2006-01-02T15:04:05.000Z07:00"
)

// parseInstant accepts epoch milliseconds or any layout known to dateparse. Layouts without
// a zone are read as wall clock time of loc.
func parseInstant(s string, loc *time.Location) (int64, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return 0, fmt.Errorf("failed to parse timestamp %q, %w", s, err)
	}
	return t.UnixMilli(), nil
}

type printer struct {
	out    io.Writer
	format string
	loc    *time.Location
}

func newPrinter(cmd *cobra.Command, loc *time.Location) (*printer, error) {
	format, err := cmd.Flags().GetString(flagOutput)
	if err != nil {
		return nil, err
	}
	switch format {
	case outputTable, outputJSON:
	default:
		return nil, fmt.Errorf("unsupported output format %q, expected %s or %s", format, outputTable, outputJSON)
	}
	return &printer{out: cmd.OutOrStdout(), format: format, loc: loc}, nil
}

// print writes v as JSON, or the rows as a table.
func (p *printer) print(header []string, rows [][]string, v interface{}) error {
	if p.format == outputJSON {
		enc := gojson.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tablewriter.NewWriter(p.out)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.AppendBulk(rows)
	tw.Render()
	return nil
}

func (p *printer) instant(ms int64) string {
	return time.UnixMilli(ms).In(p.loc).Format(instantLayout)
}

func (p *printer) instants(ms []int64) string {
	if len(ms) == 0 {
		return "-"
	}
	s := make([]string, 0, len(ms))
	for _, m := range ms {
		s = append(s, p.instant(m))
	}
	return strings.Join(s, "\n")
}
