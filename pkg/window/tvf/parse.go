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
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

type OperandKind int

const (
	// OtherOperand is any literal or column reference.
	OtherOperand OperandKind = iota
	// TableOperand is TABLE name.
	TableOperand
	// DescriptorOperand is DESCRIPTOR(col, ...).
	DescriptorOperand
	// IntervalOperand is INTERVAL 'n' UNIT.
	IntervalOperand
)

func (k OperandKind) String() string {
	switch k {
	case TableOperand:
		return "TABLE"
	case DescriptorOperand:
		return "DESCRIPTOR"
	case IntervalOperand:
		return "INTERVAL"
	default:
		return "OTHER"
	}
}

// Operand is a parsed argument of a table function call.
type Operand struct {
	Kind OperandKind
	// Type is the SQL type name of the operand, e.g. "TABLE", "COLUMN_LIST" or "INTERVAL HOUR".
	Type string
	// Text is the operand as written, normalized.
	Text string
	// Name is the table name of a TableOperand.
	Name string
	// Columns are the column names of a DescriptorOperand.
	Columns []string
	// Interval is the value of an IntervalOperand.
	Interval time.Duration
}

// Call is a parsed table function call with its operands in positional order.
type Call struct {
	Name     string
	Operands []Operand
}

// TypeSignature renders the operand types of the call, e.g.
// "HCUMULATE(<TABLE>, <COLUMN_LIST>, <INTERVAL HOUR>, <INTERVAL DAY>)".
func (c *Call) TypeSignature() string {
	types := make([]string, 0, len(c.Operands))
	for _, o := range c.Operands {
		types = append(types, "<"+o.Type+">")
	}
	return fmt.Sprintf("%s(%s)", strings.ToUpper(c.Name), strings.Join(types, ", "))
}

func (c *Call) String() string {
	texts := make([]string, 0, len(c.Operands))
	for _, o := range c.Operands {
		texts = append(texts, o.Text)
	}
	return fmt.Sprintf("%s(%s)", strings.ToUpper(c.Name), strings.Join(texts, ", "))
}

type intervalUnit struct {
	name   string
	suffix string
	scale  time.Duration
}

var intervalUnits = map[string]intervalUnit{
	"MILLISECOND": {name: "MILLISECOND", suffix: "ms", scale: 1},
	"SECOND":      {name: "SECOND", suffix: "s", scale: 1},
	"MINUTE":      {name: "MINUTE", suffix: "m", scale: 1},
	"HOUR":        {name: "HOUR", suffix: "h", scale: 1},
	"DAY":         {name: "DAY", suffix: "h", scale: 24},
}

var callLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Quoted", Pattern: `"(?:[^"]|"")*"|` + "`[^`]*`"},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "Arrow", Pattern: `=>`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_$]*`},
	{Name: "Punct", Pattern: `[-(),.;]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var callParser = participle.MustBuild[callNode](
	participle.Lexer(callLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(2),
)

type callNode struct {
	Name string     `@(Ident | Quoted) "("`
	Args []*argNode `( @@ ( "," @@ )* )? ")" ";"?`
}

type argNode struct {
	Pos     lexer.Position
	Param   string       `( @Ident "=>" )?`
	Operand *operandNode `@@`
}

type operandNode struct {
	Table      *tableNode      `  @@`
	Descriptor *descriptorNode `| @@`
	Interval   *intervalNode   `| @@`
	Number     *numberNode     `| @@`
	String     *string         `| @String`
	Ident      *string         `| @Ident`
}

type tableNode struct {
	Parts []string `"TABLE" @(Ident | Quoted) ( "." @(Ident | Quoted) )*`
}

type descriptorNode struct {
	Keyword string   `@"DESCRIPTOR" "("`
	Columns []string `( @(Ident | Quoted) ( "," @(Ident | Quoted) )* )? ")"`
}

type intervalNode struct {
	Negative bool   `"INTERVAL" @"-"?`
	Value    string `@String`
	Unit     string `@Ident`
}

type numberNode struct {
	Negative bool   `@"-"?`
	Value    string `@Number`
}

// ParseCall parses a table function call such as
//
//	HCUMULATE(TABLE Bid, DESCRIPTOR(bidtime), INTERVAL '2' MINUTES, INTERVAL '10' MINUTES)
//
// Operands may also be passed by name, e.g. STEP => INTERVAL '2' MINUTES; named operands are
// returned in positional order. Keywords and parameter names are case-insensitive.
func ParseCall(text string) (*Call, error) {
	node, err := callParser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCall, err)
	}
	var (
		positional []Operand
		named      = map[int]Operand{}
	)
	for _, arg := range node.Args {
		op, err := arg.Operand.operand()
		if err != nil {
			return nil, fmt.Errorf("%w: %v at %s", ErrInvalidCall, err, arg.Pos)
		}
		if arg.Param == "" {
			if len(named) > 0 {
				return nil, fmt.Errorf("%w: positional operand after named operands at %s", ErrInvalidCall, arg.Pos)
			}
			positional = append(positional, op)
			continue
		}
		param := paramIndex(arg.Param)
		switch {
		case param < 0:
			return nil, fmt.Errorf("%w: unknown parameter %q, expected one of %s at %s",
				ErrInvalidCall, arg.Param, strings.Join(ParamNames, ", "), arg.Pos)
		case len(positional) > 0:
			return nil, fmt.Errorf("%w: named operand %s after positional operands at %s", ErrInvalidCall, ParamNames[param], arg.Pos)
		}
		if _, ok := named[param]; ok {
			return nil, fmt.Errorf("%w: operand %s is given more than once at %s", ErrInvalidCall, ParamNames[param], arg.Pos)
		}
		named[param] = op
	}
	operands := positional
	if len(named) > 0 {
		if operands, err = orderNamed(named); err != nil {
			return nil, err
		}
	}
	return &Call{Name: unquoteIdent(node.Name), Operands: operands}, nil
}

func paramIndex(name string) int {
	for i, n := range ParamNames {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

func orderNamed(named map[int]Operand) ([]Operand, error) {
	last := -1
	for i := range named {
		if i > last {
			last = i
		}
	}
	operands := make([]Operand, 0, last+1)
	for i := 0; i <= last; i++ {
		op, ok := named[i]
		if !ok {
			return nil, fmt.Errorf("%w: operand %s is missing", ErrInvalidCall, ParamNames[i])
		}
		operands = append(operands, op)
	}
	return operands, nil
}

func (n *operandNode) operand() (Operand, error) {
	switch {
	case n.Table != nil:
		parts := make([]string, 0, len(n.Table.Parts))
		for _, p := range n.Table.Parts {
			parts = append(parts, unquoteIdent(p))
		}
		name := strings.Join(parts, ".")
		return Operand{Kind: TableOperand, Type: "TABLE", Text: "TABLE " + name, Name: name}, nil
	case n.Descriptor != nil:
		var columns []string
		for _, c := range n.Descriptor.Columns {
			columns = append(columns, unquoteIdent(c))
		}
		return Operand{
			Kind:    DescriptorOperand,
			Type:    "COLUMN_LIST",
			Text:    "DESCRIPTOR(" + strings.Join(columns, ", ") + ")",
			Columns: columns,
		}, nil
	case n.Interval != nil:
		return n.Interval.operand()
	case n.Number != nil:
		text := n.Number.Value
		if n.Number.Negative {
			text = "-" + text
		}
		typ := "INTEGER"
		if strings.Contains(text, ".") {
			typ = "DECIMAL"
		}
		return Operand{Kind: OtherOperand, Type: typ, Text: text}, nil
	case n.String != nil:
		return Operand{Kind: OtherOperand, Type: "CHAR", Text: *n.String}, nil
	case n.Ident != nil:
		return Operand{Kind: OtherOperand, Type: "ANY", Text: *n.Ident}, nil
	default:
		return Operand{}, fmt.Errorf("empty operand")
	}
}

func (n *intervalNode) operand() (Operand, error) {
	sign := ""
	if n.Negative {
		sign = "-"
	}
	value := strings.TrimSpace(unquoteString(n.Value))
	unitText := strings.ToUpper(n.Unit)
	unit, ok := intervalUnits[strings.TrimSuffix(unitText, "S")]
	if !ok {
		return Operand{}, fmt.Errorf("unsupported interval unit %s", unitText)
	}
	d, err := time.ParseDuration(sign + value + unit.suffix)
	if err != nil {
		return Operand{}, fmt.Errorf("invalid interval value '%s'", value)
	}
	if d > math.MaxInt64/unit.scale || d < math.MinInt64/unit.scale {
		return Operand{}, fmt.Errorf("interval '%s' %s is out of range", value, unit.name)
	}
	return Operand{
		Kind:     IntervalOperand,
		Type:     "INTERVAL " + unit.name,
		Text:     fmt.Sprintf("INTERVAL %s'%s' %s", sign, value, unit.name),
		Interval: d * unit.scale,
	}, nil
}

// unquoteIdent strips the double or back quotes of a quoted identifier.
func unquoteIdent(s string) string {
	switch {
	case len(s) >= 2 && s[0] == '"':
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	case len(s) >= 2 && s[0] == '`':
		return s[1 : len(s)-1]
	default:
		return s
	}
}

// unquoteString strips a single quoted literal; a doubled quote escapes a quote.
func unquoteString(s string) string {
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
}
