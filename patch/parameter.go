package patch

import (
	"fmt"
	"strconv"
	"strings"
)

// Validator decides whether a target parameter can hold a value.
type Validator interface {
	Validate(value string) error
}

// Range accepts numbers between Low and High inclusive.
type Range struct {
	Low, High float64
}

func (r Range) Validate(value string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("value %q is not a number", value)
	}
	if f < r.Low || f > r.High {
		return fmt.Errorf("value %s is out of range %g to %g", value, r.Low, r.High)
	}
	return nil
}

// Table accepts one of a fixed list of strings, ignoring case.
type Table []string

func (t Table) Validate(value string) error {
	if t.Index(value) < 0 {
		return fmt.Errorf("value %q is not in list %s", value, strings.Join(t, ","))
	}
	return nil
}

// Index returns the position of value in the table or -1.
func (t Table) Index(value string) int {
	for i, s := range t {
		if strings.EqualFold(s, value) {
			return i
		}
	}
	return -1
}

// Morph is the value a parameter reaches when an external controller
// (velocity, mod wheel) is at its maximum.
type Morph struct {
	Max     string
	Source  string
	Control string
	Used    bool
}

// Link makes a parameter mirror a master parameter elsewhere in the patch,
// e.g. two serial filters sharing one resonance control.
type Link struct {
	Master *Parameter
}

// Parameter is one setting of a module. Values are kept as strings; a
// table parameter holds the table entry, a range parameter a number.
type Parameter struct {
	name      string
	Unit      string
	Response  string
	value     string
	initial   string
	validator Validator
	used      bool

	module *Module
	jack   *InputJack

	Morph *Morph
	Link  *Link
}

// NewParameter creates a parameter with an initial value. v may be nil,
// meaning any value is accepted.
func NewParameter(name string, v Validator, initial string) *Parameter {
	return &Parameter{name: name, validator: v, value: initial, initial: initial}
}

// WithUnit sets unit and response type metadata.
func (p *Parameter) WithUnit(unit, response string) *Parameter {
	p.Unit = unit
	p.Response = response
	return p
}

// WithMorph attaches a morph controlled by source/control.
func (p *Parameter) WithMorph(source, control string) *Parameter {
	p.Morph = &Morph{Max: "0", Source: source, Control: control}
	return p
}

func (p *Parameter) Name() string { return p.name }
func (p *Parameter) Prefix() string { return prefixOf(p.name) }
func (p *Parameter) Number() int { return numberOf(p.name) }
func (p *Parameter) Value() string { return p.value }
func (p *Parameter) SetValue(v string) { p.value = v }
func (p *Parameter) Used() bool { return p.used }
func (p *Parameter) SetUsed(b bool) { p.used = b }
func (p *Parameter) Module() *Module { return p.module }
func (p *Parameter) Validator() Validator { return p.validator }
func (p *Parameter) AttenuatedJack() *InputJack { return p.jack }

func (p *Parameter) setNumber(n int) { p.name = withNumber(p.name, n) }

// Validate checks v against the parameter's validator.
func (p *Parameter) Validate(v string) error {
	if p.validator == nil {
		return nil
	}
	return p.validator.Validate(v)
}

// IsZero reports whether the parameter has no effect as an attenuator:
// its value is numerically zero and any morph also ends at zero.
func (p *Parameter) IsZero() bool {
	if !isZeroValue(p.value) {
		return false
	}
	return p.Morph == nil || isZeroValue(p.Morph.Max)
}

func isZeroValue(s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && f == 0
}

// reset restores the initial value and clears usage.
func (p *Parameter) reset() {
	p.value = p.initial
	p.used = false
	if p.Morph != nil {
		p.Morph.Used = false
		p.Morph.Max = "0"
	}
}
