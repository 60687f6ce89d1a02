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

package tvf

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numaproj/numaslice/pkg/apis/window/v1alpha1"
)

func TestParseCall(t *testing.T) {
	call, err := ParseCall("HCUMULATE(TABLE Bid, DESCRIPTOR(bidtime), INTERVAL '2' MINUTES, INTERVAL '10' MINUTES)")
	require.NoError(t, err)
	assert.Equal(t, "HCUMULATE", call.Name)
	require.Len(t, call.Operands, 4)
	assert.Equal(t, TableOperand, call.Operands[0].Kind)
	assert.Equal(t, "Bid", call.Operands[0].Name)
	assert.Equal(t, []string{"bidtime"}, call.Operands[1].Columns)
	assert.Equal(t, 2*time.Minute, call.Operands[2].Interval)
	assert.Equal(t, 10*time.Minute, call.Operands[3].Interval)
	assert.Equal(t, "HCUMULATE(<TABLE>, <COLUMN_LIST>, <INTERVAL MINUTE>, <INTERVAL MINUTE>)", call.TypeSignature())
	assert.Equal(t, "HCUMULATE(TABLE Bid, DESCRIPTOR(bidtime), INTERVAL '2' MINUTE, INTERVAL '10' MINUTE)", call.String())
}

func TestParseCall_Forms(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		slide   time.Duration
		maxSize time.Duration
		column  string
		table   string
	}{
		{
			name:    "lower_case",
			text:    "hcumulate(table orders, descriptor(ts), interval '6' hour, interval '1' day);",
			slide:   6 * time.Hour,
			maxSize: 24 * time.Hour,
			column:  "ts",
			table:   "orders",
		},
		{
			name:    "named",
			text:    "HCUMULATE(DATA => TABLE db.orders, TIMECOL => DESCRIPTOR(`row time`), SIZE => INTERVAL '1' DAY, STEP => INTERVAL '90' MINUTE)",
			slide:   90 * time.Minute,
			maxSize: 24 * time.Hour,
			column:  "row time",
			table:   "db.orders",
		},
		{
			name:    "fractions",
			text:    `HCUMULATE(TABLE "t", DESCRIPTOR("ts"), INTERVAL '1.5' SECOND, INTERVAL '3' SECONDS)`,
			slide:   1500 * time.Millisecond,
			maxSize: 3 * time.Second,
			column:  "ts",
			table:   "t",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, err := ParseCall(tt.text)
			require.NoError(t, err)
			require.NoError(t, NewValidator().Validate(call))
			assert.Equal(t, tt.slide, call.Slide())
			assert.Equal(t, tt.maxSize, call.MaxSize())
			assert.Equal(t, tt.column, call.TimeColumn())
			assert.Equal(t, tt.table, call.Operands[0].Name)
		})
	}
}

func TestParseCall_Errors(t *testing.T) {
	for _, text := range []string{
		"",
		"HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL '1' HOUR, INTERVAL '1' DAY",
		"HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL '1' WEEK, INTERVAL '1' DAY)",
		"HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL 'x' HOUR, INTERVAL '1' DAY)",
		"HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL '1 HOUR, INTERVAL '1' DAY)",
		"HCUMULATE(TABLE t, TIMECOL => DESCRIPTOR(ts))",
		"HCUMULATE(DATA => TABLE t, DATA => TABLE u)",
		"HCUMULATE(DATA => TABLE t, SIZE => INTERVAL '1' DAY)",
		"HCUMULATE(WINDOW => TABLE t)",
		"HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL '1' HOUR, INTERVAL '1' DAY) extra",
	} {
		_, err := ParseCall(text)
		assert.True(t, errors.Is(err, ErrInvalidCall), text)
	}
}

func TestParseCall_IntervalRange(t *testing.T) {
	tests := []struct {
		name     string
		interval string
		want     time.Duration
		wantErr  bool
	}{
		{name: "largest_day", interval: "INTERVAL '106751' DAY", want: 106751 * 24 * time.Hour},
		{name: "day_overflow", interval: "INTERVAL '106752' DAY", wantErr: true},
		{name: "negative_day_overflow", interval: "INTERVAL -'106752' DAY", wantErr: true},
		{name: "hour_overflow", interval: "INTERVAL '2562048' HOUR", wantErr: true},
		{name: "milliseconds", interval: "INTERVAL '250' MILLISECONDS", want: 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, err := ParseCall("HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL '1' HOUR, " + tt.interval + ")")
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidCall))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, call.Operands[3].Interval)
		})
	}

	_, err := ParseCall("HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL '1' HOUR, INTERVAL '106752' DAY)")
	assert.ErrorContains(t, err, "interval '106752' DAY is out of range")
}

func TestParseCall_Literals(t *testing.T) {
	call, err := ParseCall(`"HCUMULATE"(TABLE "my""db".t, DESCRIPTOR(ts), 'it''s', -3, 2.5, ident)`)
	require.NoError(t, err)
	assert.Equal(t, "HCUMULATE", call.Name)
	assert.Equal(t, `my"db.t`, call.Operands[0].Name)
	assert.Equal(t, "HCUMULATE(<TABLE>, <COLUMN_LIST>, <CHAR>, <INTEGER>, <DECIMAL>, <ANY>)", call.TypeSignature())
	assert.Equal(t, `HCUMULATE(TABLE my"db.t, DESCRIPTOR(ts), 'it''s', -3, 2.5, ident)`, call.String())
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		contains string
	}{
		{
			name:     "too_few",
			text:     "HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL '1' HOUR)",
			contains: "was expecting 4 arguments",
		},
		{
			name:     "too_many",
			text:     "HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL '1' HOUR, INTERVAL '1' DAY, INTERVAL '1' HOUR, 1)",
			contains: "was expecting 4 arguments",
		},
		{
			name:     "offset_form",
			text:     "HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL '1' HOUR, INTERVAL '1' DAY, INTERVAL '1' HOUR)",
			contains: AllowedSignature,
		},
		{
			name:     "not_a_table",
			text:     "HCUMULATE(t, DESCRIPTOR(ts), INTERVAL '1' HOUR, INTERVAL '1' DAY)",
			contains: "'HCUMULATE(<ANY>, <COLUMN_LIST>, <INTERVAL HOUR>, <INTERVAL DAY>)'",
		},
		{
			name:     "not_an_interval",
			text:     "HCUMULATE(TABLE t, DESCRIPTOR(ts), 3600, INTERVAL '1' DAY)",
			contains: "<INTEGER>",
		},
		{
			name:     "two_columns",
			text:     "HCUMULATE(TABLE t, DESCRIPTOR(ts, other), INTERVAL '1' HOUR, INTERVAL '1' DAY)",
			contains: "a single column must be specified in DESCRIPTOR",
		},
		{
			name:     "negative_interval",
			text:     "HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL -'1' HOUR, INTERVAL '1' DAY)",
			contains: "STEP must be a positive interval",
		},
		{
			name:     "other_function",
			text:     "CUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL '1' HOUR, INTERVAL '1' DAY)",
			contains: "unexpected function",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, err := ParseCall(tt.text)
			require.NoError(t, err)
			err = NewValidator().Validate(call)
			assert.True(t, errors.Is(err, ErrInvalidCall))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestValidator_TimeAttributeChecker(t *testing.T) {
	v := NewValidator(WithTimeAttributeChecker(func(table, column string) error {
		if column != "rowtime" {
			return fmt.Errorf("column %q of table %q is not a time attribute", column, table)
		}
		return nil
	}))

	call, err := ParseCall("HCUMULATE(TABLE t, DESCRIPTOR(rowtime), INTERVAL '1' HOUR, INTERVAL '1' DAY)")
	require.NoError(t, err)
	assert.NoError(t, v.Validate(call))

	call, err = ParseCall("HCUMULATE(TABLE t, DESCRIPTOR(name), INTERVAL '1' HOUR, INTERVAL '1' DAY)")
	require.NoError(t, err)
	err = v.Validate(call)
	assert.True(t, errors.Is(err, ErrInvalidCall))
	assert.Contains(t, err.Error(), `column "name" of table "t" is not a time attribute`)
}

func TestWindowSpec(t *testing.T) {
	w, err := WindowSpec("HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL '6' HOUR, INTERVAL '1' DAY)", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, v1alpha1.NewHCumulativeWindow(24*time.Hour, 6*time.Hour, time.Hour), w)
	assert.Equal(t, "HCUMULATE(ts, max_size=[1 d], slide=[6 h])", w.Summary("ts"))

	w, err = WindowSpec("HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL '6' HOUR, INTERVAL '1' DAY)", 0)
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, w.GetStep())

	_, err = WindowSpec("HCUMULATE(TABLE t, DESCRIPTOR(ts), INTERVAL '5' HOUR, INTERVAL '1' DAY)", time.Hour)
	assert.True(t, errors.Is(err, ErrInvalidCall))
	assert.True(t, errors.Is(err, v1alpha1.ErrInvalidWindow))

	_, err = WindowSpec("HCUMULATE(TABLE t", time.Hour)
	assert.True(t, errors.Is(err, ErrInvalidCall))
}
