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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numaproj/numaslice/pkg/window/slicing"
)

const testConfig = `
window:
  kind: hcumulative
  timezone: Asia/Shanghai
  maxSize: 24h
  slide: 6h
  step: 1h
  boundary: left
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "numaslice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	v, err := NewViper("", nil)
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "hcumulative", c.Window.Kind)
	assert.Equal(t, "UTC", c.Window.TimeZone)
	assert.Equal(t, "right", c.Window.Boundary)
	assert.Zero(t, c.Window.Slide)
	assert.Error(t, c.Validate())
}

func TestLoad_ConfigFile(t *testing.T) {
	v, err := NewViper(writeConfig(t, testConfig), nil)
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, WindowConfig{
		Kind:     "hcumulative",
		TimeZone: "Asia/Shanghai",
		MaxSize:  24 * time.Hour,
		Slide:    6 * time.Hour,
		Step:     time.Hour,
		Boundary: "left",
	}, c.Window)

	a, err := c.Assigner()
	require.NoError(t, err)
	assert.Equal(t, slicing.HCumulative, a.Kind())
	assert.Equal(t, slicing.LeftClosed, a.Boundary())
	assert.Equal(t, "Asia/Shanghai", a.Projector().Zone().Name())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.ErrorContains(t, err, "failed to load configuration file")
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("NUMASLICE_WINDOW_SLIDE", "12h")
	t.Setenv("NUMASLICE_WINDOW_TIMEZONE", "America/Los_Angeles")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--timezone", "Europe/Berlin", "--offset", "30m"}))

	v, err := NewViper(writeConfig(t, testConfig), fs)
	require.NoError(t, err)
	c, err := Load(v)
	require.NoError(t, err)
	// env over file
	assert.Equal(t, 12*time.Hour, c.Window.Slide)
	// flags over env
	assert.Equal(t, "Europe/Berlin", c.Window.TimeZone)
	assert.Equal(t, 30*time.Minute, c.Window.Offset)
	// untouched flags keep the file value
	assert.Equal(t, 24*time.Hour, c.Window.MaxSize)
	assert.Equal(t, "left", c.Window.Boundary)
}

func TestLoad_InvalidDurations(t *testing.T) {
	v, err := NewViper(writeConfig(t, `
window:
  slide: often
  maxSize: a day
`), nil)
	require.NoError(t, err)
	_, err = Load(v)
	require.Error(t, err)
	assert.ErrorContains(t, err, "window.slide")
	assert.ErrorContains(t, err, "window.maxSize")
}

func TestConfig_Assigner(t *testing.T) {
	tests := []struct {
		name    string
		window  WindowConfig
		kind    slicing.Kind
		params  slicing.Params
		wantErr []string
	}{
		{
			name:   "tumbling",
			window: WindowConfig{Kind: "tumbling", Size: time.Hour},
			kind:   slicing.Tumbling,
			params: slicing.Params{Size: time.Hour},
		},
		{
			name:   "hopping",
			window: WindowConfig{Kind: "hop", Size: 3 * time.Hour, Slide: time.Hour},
			kind:   slicing.Hopping,
			params: slicing.Params{Size: 3 * time.Hour, Slide: time.Hour},
		},
		{
			name:   "cumulative",
			window: WindowConfig{Kind: "cumulative", MaxSize: 24 * time.Hour, Step: time.Hour},
			kind:   slicing.Cumulative,
			params: slicing.Params{MaxSize: 24 * time.Hour, Step: time.Hour},
		},
		{
			name:   "hcumulative step defaults to slide",
			window: WindowConfig{Kind: "hcumulative", MaxSize: 24 * time.Hour, Slide: 6 * time.Hour},
			kind:   slicing.HCumulative,
			params: slicing.Params{MaxSize: 24 * time.Hour, Slide: 6 * time.Hour, Step: 6 * time.Hour},
		},
		{
			name: "call",
			window: WindowConfig{
				Kind: "hcumulative",
				Step: time.Hour,
				Call: "HCUMULATE(TABLE orders, DESCRIPTOR(ts), INTERVAL '6' HOUR, INTERVAL '1' DAY)",
			},
			kind:   slicing.HCumulative,
			params: slicing.Params{MaxSize: 24 * time.Hour, Slide: 6 * time.Hour, Step: time.Hour},
		},
		{
			name: "call with another kind",
			window: WindowConfig{
				Kind: "tumbling",
				Call: "HCUMULATE(TABLE orders, DESCRIPTOR(ts), INTERVAL '6' HOUR, INTERVAL '1' DAY)",
			},
			wantErr: []string{"requires kind hcumulative"},
		},
		{
			name:    "every problem is reported",
			window:  WindowConfig{Kind: "sliding", Boundary: "middle", TimeZone: "Mars/Olympus"},
			wantErr: []string{"unrecognized window kind", "unrecognized slice boundary", "Mars/Olympus"},
		},
		{
			name:    "grid violation",
			window:  WindowConfig{Kind: "hcumulative", MaxSize: 24 * time.Hour, Slide: 5 * time.Hour, Step: time.Hour},
			wantErr: []string{"max size 24h0m0s must be an integral multiple of slide 5h0m0s"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Window: tt.window}
			a, err := c.Assigner()
			if len(tt.wantErr) > 0 {
				require.Error(t, err)
				for _, want := range tt.wantErr {
					assert.ErrorContains(t, err, want)
				}
				assert.Error(t, c.Validate())
				return
			}
			require.NoError(t, err)
			assert.NoError(t, c.Validate())
			assert.Equal(t, tt.kind, a.Kind())
			assert.Equal(t, tt.params, a.Params())
		})
	}
}
