// Package lp provides a concrete in-memory representation of linear and
// mixed-integer programs, with optional bilinear terms, plus writers for
// the MPS and LP interchange formats.
package lp

import (
	"fmt"
	"math"
	"sort"
)

// VarKind classifies a decision variable.
type VarKind string

const (
	Continuous VarKind = "continuous"
	Integer    VarKind = "integer"
	Binary     VarKind = "binary"
)

// Sense is the relational sense of a constraint.
type Sense string

const (
	LE Sense = "<="
	GE Sense = ">="
	EQ Sense = "="
)

// ObjSense is the optimization direction.
type ObjSense string

const (
	Minimize ObjSense = "minimize"
	Maximize ObjSense = "maximize"
)

// Variable is a decision variable with bounds.
// Up may be math.Inf(1) for an unbounded variable.
type Variable struct {
	Name string
	Kind VarKind
	Lo   float64
	Up   float64
}

// BilinearTerm is a product term coef * X * Y appearing in a constraint
// or objective. X and Y reference variables by name.
type BilinearTerm struct {
	X    string
	Y    string
	Coef float64
}

// Constraint is a single row: sum of linear terms (plus optional bilinear
// terms) compared against RHS.
type Constraint struct {
	Name     string
	Sense    Sense
	RHS      float64
	Terms    map[string]float64
	Bilinear []BilinearTerm
}

// SetCoef sets the linear coefficient for a variable. A zero coefficient
// removes the term.
func (c *Constraint) SetCoef(varName string, coef float64) {
	if coef == 0 {
		delete(c.Terms, varName)
		return
	}
	c.Terms[varName] = coef
}

// AddCoef accumulates onto the linear coefficient for a variable.
func (c *Constraint) AddCoef(varName string, coef float64) {
	c.SetCoef(varName, c.Terms[varName]+coef)
}

// AddBilinear appends a bilinear product term to the row.
func (c *Constraint) AddBilinear(x, y string, coef float64) {
	if coef == 0 {
		return
	}
	c.Bilinear = append(c.Bilinear, BilinearTerm{X: x, Y: y, Coef: coef})
}

// Problem is a complete optimization problem. Variables and constraints
// keep insertion order; writers sort where the format requires it.
type Problem struct {
	Name  string
	Sense ObjSense

	vars     []*Variable
	varIndex map[string]int
	cons     []*Constraint
	conIndex map[string]int

	objTerms    map[string]float64
	objBilinear []BilinearTerm
	objOffset   float64
}

// New creates an empty minimization problem.
func New(name string) *Problem {
	return &Problem{
		Name:     name,
		Sense:    Minimize,
		varIndex: make(map[string]int),
		conIndex: make(map[string]int),
		objTerms: make(map[string]float64),
	}
}

// AddVariable adds a variable. Binary variables are clamped to [0,1].
func (p *Problem) AddVariable(name string, kind VarKind, lo, up float64) (*Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("variable name must not be empty")
	}
	if _, exists := p.varIndex[name]; exists {
		return nil, fmt.Errorf("duplicate variable %q", name)
	}
	if kind == Binary {
		lo, up = 0, 1
	}
	if lo > up {
		return nil, fmt.Errorf("variable %q: lower bound %g exceeds upper bound %g", name, lo, up)
	}
	v := &Variable{Name: name, Kind: kind, Lo: lo, Up: up}
	p.varIndex[name] = len(p.vars)
	p.vars = append(p.vars, v)
	return v, nil
}

// Variable returns a variable by name.
func (p *Problem) Variable(name string) (*Variable, bool) {
	i, ok := p.varIndex[name]
	if !ok {
		return nil, false
	}
	return p.vars[i], true
}

// Variables returns all variables in insertion order.
func (p *Problem) Variables() []*Variable {
	return p.vars
}

// AddConstraint adds an empty constraint row to be populated via SetCoef.
func (p *Problem) AddConstraint(name string, sense Sense, rhs float64) (*Constraint, error) {
	if name == "" {
		return nil, fmt.Errorf("constraint name must not be empty")
	}
	if _, exists := p.conIndex[name]; exists {
		return nil, fmt.Errorf("duplicate constraint %q", name)
	}
	switch sense {
	case LE, GE, EQ:
	default:
		return nil, fmt.Errorf("constraint %q: unknown sense %q", name, sense)
	}
	c := &Constraint{Name: name, Sense: sense, RHS: rhs, Terms: make(map[string]float64)}
	p.conIndex[name] = len(p.cons)
	p.cons = append(p.cons, c)
	return c, nil
}

// Constraint returns a constraint by name.
func (p *Problem) Constraint(name string) (*Constraint, bool) {
	i, ok := p.conIndex[name]
	if !ok {
		return nil, false
	}
	return p.cons[i], true
}

// Constraints returns all constraints in insertion order.
func (p *Problem) Constraints() []*Constraint {
	return p.cons
}

// SetObjectiveCoef sets the linear objective coefficient for a variable.
func (p *Problem) SetObjectiveCoef(varName string, coef float64) {
	if coef == 0 {
		delete(p.objTerms, varName)
		return
	}
	p.objTerms[varName] = coef
}

// AddObjectiveCoef accumulates onto the objective coefficient for a variable.
func (p *Problem) AddObjectiveCoef(varName string, coef float64) {
	p.SetObjectiveCoef(varName, p.objTerms[varName]+coef)
}

// AddObjectiveBilinear appends a bilinear product term to the objective.
func (p *Problem) AddObjectiveBilinear(x, y string, coef float64) {
	if coef == 0 {
		return
	}
	p.objBilinear = append(p.objBilinear, BilinearTerm{X: x, Y: y, Coef: coef})
}

// SetObjectiveOffset sets the constant term of the objective.
func (p *Problem) SetObjectiveOffset(v float64) {
	p.objOffset = v
}

// ObjectiveOffset returns the constant term of the objective.
func (p *Problem) ObjectiveOffset() float64 {
	return p.objOffset
}

// ObjectiveTerms returns the linear objective coefficients keyed by
// variable name. The returned map is live; callers must not mutate it.
func (p *Problem) ObjectiveTerms() map[string]float64 {
	return p.objTerms
}

// ObjectiveBilinear returns the bilinear objective terms.
func (p *Problem) ObjectiveBilinear() []BilinearTerm {
	return p.objBilinear
}

// IsMIP reports whether any variable is integer or binary.
func (p *Problem) IsMIP() bool {
	for _, v := range p.vars {
		if v.Kind != Continuous {
			return true
		}
	}
	return false
}

// HasBilinear reports whether any constraint or the objective carries a
// bilinear term. Such problems cannot be written in plain MPS.
func (p *Problem) HasBilinear() bool {
	if len(p.objBilinear) > 0 {
		return true
	}
	for _, c := range p.cons {
		if len(c.Bilinear) > 0 {
			return true
		}
	}
	return false
}

// Validate checks that every referenced variable exists and every bound
// is consistent.
func (p *Problem) Validate() error {
	for _, v := range p.vars {
		if v.Lo > v.Up {
			return fmt.Errorf("variable %q: lower bound %g exceeds upper bound %g", v.Name, v.Lo, v.Up)
		}
		if math.IsInf(v.Lo, 1) {
			return fmt.Errorf("variable %q: lower bound is +inf", v.Name)
		}
	}
	check := func(where, name string) error {
		if _, ok := p.varIndex[name]; !ok {
			return fmt.Errorf("%s references unknown variable %q", where, name)
		}
		return nil
	}
	for _, c := range p.cons {
		for name := range c.Terms {
			if err := check("constraint "+c.Name, name); err != nil {
				return err
			}
		}
		for _, b := range c.Bilinear {
			if err := check("constraint "+c.Name, b.X); err != nil {
				return err
			}
			if err := check("constraint "+c.Name, b.Y); err != nil {
				return err
			}
		}
	}
	for name := range p.objTerms {
		if err := check("objective", name); err != nil {
			return err
		}
	}
	for _, b := range p.objBilinear {
		if err := check("objective", b.X); err != nil {
			return err
		}
		if err := check("objective", b.Y); err != nil {
			return err
		}
	}
	return nil
}

// Stats summarizes problem dimensions.
type Stats struct {
	Rows         int
	Cols         int
	NonZeros     int
	IntegerCols  int
	BinaryCols   int
	BilinearRows int
}

// Stats computes dimension counts for reporting.
func (p *Problem) Stats() Stats {
	s := Stats{Rows: len(p.cons), Cols: len(p.vars)}
	for _, v := range p.vars {
		switch v.Kind {
		case Integer:
			s.IntegerCols++
		case Binary:
			s.BinaryCols++
		}
	}
	for _, c := range p.cons {
		s.NonZeros += len(c.Terms)
		if len(c.Bilinear) > 0 {
			s.BilinearRows++
		}
	}
	return s
}

// sortedNames returns map keys in lexical order, for deterministic output.
func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
