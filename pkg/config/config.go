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

// Package config loads the window configuration from a config file, NUMASLICE_ prefixed
// environment variables and command line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/numaproj/numaslice/pkg/window/slicing"
	"github.com/numaproj/numaslice/pkg/window/tvf"
)

const EnvPrefix = "NUMASLICE"

// Configuration keys
const (
	KeyKind     = "window.kind"
	KeyTimeZone = "window.timezone"
	KeyOffset   = "window.offset"
	KeySize     = "window.size"
	KeySlide    = "window.slide"
	KeyStep     = "window.step"
	KeyMaxSize  = "window.maxSize"
	KeyBoundary = "window.boundary"
	KeyCall     = "window.call"
)

// flags maps command line flags to configuration keys.
var flags = map[string]string{
	"kind":     KeyKind,
	"timezone": KeyTimeZone,
	"offset":   KeyOffset,
	"size":     KeySize,
	"slide":    KeySlide,
	"step":     KeyStep,
	"max-size": KeyMaxSize,
	"boundary": KeyBoundary,
	"call":     KeyCall,
}

type Config struct {
	Window WindowConfig `json:"window"`
}

type WindowConfig struct {
	// Kind is one of tumbling, hopping, cumulative and hcumulative.
	Kind string `json:"kind"`
	// TimeZone is the IANA zone whose wall clock aligns the windows.
	TimeZone string        `json:"timezone"`
	Offset   time.Duration `json:"offset"`
	Size     time.Duration `json:"size"`
	Slide    time.Duration `json:"slide"`
	Step     time.Duration `json:"step"`
	MaxSize  time.Duration `json:"maxSize"`
	// Boundary is right (default) or left.
	Boundary string `json:"boundary"`
	// Call is an HCUMULATE table function call. When set, it supplies the slide and max size
	// of an hcumulative window.
	Call string `json:"call"`
}

// AddFlags registers the window flags.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("kind", "hcumulative", "Window kind: tumbling, hopping, cumulative or hcumulative")
	fs.String("timezone", "UTC", "IANA time zone aligning the windows, e.g. America/Los_Angeles")
	fs.Duration("offset", 0, "Shift of the window grid")
	fs.Duration("size", 0, "Window size of tumbling and hopping windows")
	fs.Duration("slide", 0, "Firing period of hopping and hcumulative windows")
	fs.Duration("step", 0, "Slice length of cumulative and hcumulative windows")
	fs.Duration("max-size", 0, "Cycle length of cumulative and hcumulative windows")
	fs.String("boundary", "right", "Closed end of a slice: right or left")
	fs.String("call", "", "HCUMULATE(TABLE t, DESCRIPTOR(ts), slide, max_size) call defining the window")
}

// NewViper returns a viper instance reading the config file, if any, the environment and
// the flags registered by AddFlags, if any.
func NewViper(configFile string, fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyKind, "hcumulative")
	v.SetDefault(KeyTimeZone, "UTC")
	v.SetDefault(KeyBoundary, "right")
	for _, key := range []string{KeyOffset, KeySize, KeySlide, KeyStep, KeyMaxSize} {
		v.SetDefault(key, "0s")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load configuration file. %w", err)
		}
	}
	if fs != nil {
		for name, key := range flags {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %q. %w", name, err)
				}
			}
		}
	}
	return v, nil
}

// Load reads the configuration. Durations accept Go duration strings such as "6h" or "90m".
func Load(v *viper.Viper) (*Config, error) {
	var errs error
	duration := func(key string) time.Duration {
		d, err := cast.ToDurationE(v.Get(key))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}
	c := &Config{
		Window: WindowConfig{
			Kind:     v.GetString(KeyKind),
			TimeZone: v.GetString(KeyTimeZone),
			Offset:   duration(KeyOffset),
			Size:     duration(KeySize),
			Slide:    duration(KeySlide),
			Step:     duration(KeyStep),
			MaxSize:  duration(KeyMaxSize),
			Boundary: v.GetString(KeyBoundary),
			Call:     v.GetString(KeyCall),
		},
	}
	if errs != nil {
		return nil, fmt.Errorf("failed to load configuration. %w", errs)
	}
	return c, nil
}

// Validate reports every problem of the window configuration at once.
func (c *Config) Validate() error {
	_, err := c.Assigner()
	return err
}

// Assigner builds the slice assigner described by the configuration.
func (c *Config) Assigner() (*slicing.Assigner, error) {
	w := c.Window
	var errs error
	kind, err := slicing.ParseKind(w.Kind)
	errs = multierr.Append(errs, err)
	boundary, err := slicing.ParseBoundary(w.Boundary)
	errs = multierr.Append(errs, err)
	zone, err := slicing.LoadZone(w.TimeZone)
	errs = multierr.Append(errs, err)
	params := slicing.Params{Size: w.Size, Slide: w.Slide, Step: w.Step, MaxSize: w.MaxSize}
	if w.Call != "" {
		if kind != slicing.HCumulative {
			errs = multierr.Append(errs, fmt.Errorf("a window call requires kind hcumulative, got %s", kind))
		}
		hw, err := tvf.WindowSpec(w.Call, w.Step)
		errs = multierr.Append(errs, err)
		if err == nil {
			params = slicing.Params{Slide: hw.GetSlide(), Step: hw.GetStep(), MaxSize: hw.GetMaxSize()}
		}
	} else if kind == slicing.HCumulative && w.Step == 0 {
		params.Step = w.Slide
	}
	if errs != nil {
		return nil, fmt.Errorf("invalid window configuration: %w", errs)
	}
	return slicing.New(kind, params,
		slicing.WithZone(zone),
		slicing.WithOffset(w.Offset),
		slicing.WithBoundary(boundary))
}
