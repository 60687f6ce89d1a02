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

// Package tvf validates HCUMULATE windowing table function calls and turns them into window
// specifications.
package tvf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/numaproj/numaslice/pkg/apis/window/v1alpha1"
)

// FunctionName is the SQL name of the hop cumulative windowing table function.
const FunctionName = "HCUMULATE"

// Parameter names, in positional order.
const (
	ParamData    = "DATA"
	ParamTimeCol = "TIMECOL"
	ParamStep    = "STEP"
	ParamSize    = "SIZE"
	ParamOffset  = "OFFSET"
)

// ParamNames lists the parameters of HCUMULATE in positional order. The trailing OFFSET is
// declared but not supported.
var ParamNames = []string{ParamData, ParamTimeCol, ParamStep, ParamSize, ParamOffset}

// MandatoryOperands is the number of operands every HCUMULATE call must have.
const MandatoryOperands = 4

// AllowedSignature is the only supported form of the call.
const AllowedSignature = FunctionName + "(TABLE table_name, DESCRIPTOR(timecol), datetime interval, datetime interval)"

var ErrInvalidCall = errors.New("invalid HCUMULATE call")

// TimeAttributeChecker verifies that the named column of the table is a time attribute.
type TimeAttributeChecker func(table, column string) error

// Validator checks the operands of HCUMULATE calls.
type Validator struct {
	checker TimeAttributeChecker
}

type ValidatorOption func(*Validator)

// WithTimeAttributeChecker sets the checker for the descriptor column. Without a checker any
// single column is accepted.
func WithTimeAttributeChecker(c TimeAttributeChecker) ValidatorOption {
	return func(v *Validator) {
		v.checker = c
	}
}

func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks the operand count and types of the call: a table, a descriptor of exactly
// one time attribute, then two intervals. The five operand form with OFFSET is rejected.
func (v *Validator) Validate(call *Call) error {
	if !strings.EqualFold(call.Name, FunctionName) {
		return fmt.Errorf("%w: unexpected function %q", ErrInvalidCall, call.Name)
	}
	n := len(call.Operands)
	if n < MandatoryOperands || n > len(ParamNames) {
		return fmt.Errorf("%w: invalid number of arguments to function '%s', was expecting %d arguments",
			ErrInvalidCall, FunctionName, MandatoryOperands)
	}
	if call.Operands[0].Kind != TableOperand || call.Operands[1].Kind != DescriptorOperand {
		return signatureError(call)
	}
	if call.Operands[2].Kind != IntervalOperand || call.Operands[3].Kind != IntervalOperand {
		return signatureError(call)
	}
	if n == len(ParamNames) {
		return signatureError(call)
	}
	columns := call.Operands[1].Columns
	if len(columns) != 1 {
		return fmt.Errorf("%w: a single column must be specified in DESCRIPTOR for %s, got %d",
			ErrInvalidCall, FunctionName, len(columns))
	}
	if v.checker != nil {
		if err := v.checker(call.Operands[0].Name, columns[0]); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCall, err)
		}
	}
	for i := 2; i < MandatoryOperands; i++ {
		if call.Operands[i].Interval <= 0 {
			return fmt.Errorf("%w: %s must be a positive interval, got %s",
				ErrInvalidCall, ParamNames[i], call.Operands[i].Text)
		}
	}
	return nil
}

func signatureError(call *Call) error {
	return fmt.Errorf("%w: cannot apply '%s' to arguments of type '%s'. Supported form(s): '%s'",
		ErrInvalidCall, FunctionName, call.TypeSignature(), AllowedSignature)
}

// Slide returns the firing period of a validated call.
func (c *Call) Slide() time.Duration {
	return c.Operands[2].Interval
}

// MaxSize returns the cycle length of a validated call.
func (c *Call) MaxSize() time.Duration {
	return c.Operands[3].Interval
}

// TimeColumn returns the descriptor column of a validated call.
func (c *Call) TimeColumn() string {
	return c.Operands[1].Columns[0]
}

// WindowSpec validates the call and returns its window specification with slices of the
// given step. A zero step keeps the slide as slice length.
func (v *Validator) WindowSpec(call *Call, step time.Duration) (v1alpha1.HCumulativeWindow, error) {
	if err := v.Validate(call); err != nil {
		return v1alpha1.HCumulativeWindow{}, err
	}
	if step == 0 {
		step = call.Slide()
	}
	w := v1alpha1.NewHCumulativeWindow(call.MaxSize(), call.Slide(), step)
	if err := w.Validate(); err != nil {
		return v1alpha1.HCumulativeWindow{}, fmt.Errorf("%w: %w", ErrInvalidCall, err)
	}
	return w, nil
}

// WindowSpec parses, validates and converts an HCUMULATE call text with the default
// validator.
func WindowSpec(text string, step time.Duration) (v1alpha1.HCumulativeWindow, error) {
	call, err := ParseCall(text)
	if err != nil {
		return v1alpha1.HCumulativeWindow{}, err
	}
	return NewValidator().WindowSpec(call, step)
}
