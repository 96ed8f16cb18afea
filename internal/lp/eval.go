package lp

// eval.go - constraint activity and feasibility checks against a point

import (
	"fmt"
	"math"
)

// Point assigns a value to each variable by name.
type Point map[string]float64

// DefaultTolerance is the feasibility tolerance used when callers pass 0.
const DefaultTolerance = 1e-6

// Violation reports a constraint or bound that a point fails to satisfy.
type Violation struct {
	Name     string
	Kind     string // "constraint" or "bound"
	Activity float64
	Bound    float64
	Amount   float64
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: activity %g vs bound %g (by %g)", v.Kind, v.Name, v.Activity, v.Bound, v.Amount)
}

// Activity evaluates the left-hand side of a constraint at a point,
// including bilinear terms.
func (p *Problem) Activity(c *Constraint, pt Point) (float64, error) {
	lhs := 0.0
	for name, coef := range c.Terms {
		val, ok := pt[name]
		if !ok {
			return 0, fmt.Errorf("constraint %q: point is missing variable %q", c.Name, name)
		}
		lhs += coef * val
	}
	for _, b := range c.Bilinear {
		x, ok := pt[b.X]
		if !ok {
			return 0, fmt.Errorf("constraint %q: point is missing variable %q", c.Name, b.X)
		}
		y, ok := pt[b.Y]
		if !ok {
			return 0, fmt.Errorf("constraint %q: point is missing variable %q", c.Name, b.Y)
		}
		lhs += b.Coef * x * y
	}
	return lhs, nil
}

// ObjectiveValue evaluates the objective at a point.
func (p *Problem) ObjectiveValue(pt Point) (float64, error) {
	obj := p.objOffset
	for name, coef := range p.objTerms {
		val, ok := pt[name]
		if !ok {
			return 0, fmt.Errorf("objective: point is missing variable %q", name)
		}
		obj += coef * val
	}
	for _, b := range p.objBilinear {
		x, okX := pt[b.X]
		y, okY := pt[b.Y]
		if !okX || !okY {
			return 0, fmt.Errorf("objective: point is missing a bilinear operand (%q, %q)", b.X, b.Y)
		}
		obj += b.Coef * x * y
	}
	return obj, nil
}

// Violations checks a point against all constraints and variable bounds.
// tol <= 0 selects DefaultTolerance.
func (p *Problem) Violations(pt Point, tol float64) ([]Violation, error) {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	var out []Violation

	for _, v := range p.vars {
		val, ok := pt[v.Name]
		if !ok {
			return nil, fmt.Errorf("point is missing variable %q", v.Name)
		}
		if val < v.Lo-tol {
			out = append(out, Violation{Name: v.Name, Kind: "bound", Activity: val, Bound: v.Lo, Amount: v.Lo - val})
		}
		if !math.IsInf(v.Up, 1) && val > v.Up+tol {
			out = append(out, Violation{Name: v.Name, Kind: "bound", Activity: val, Bound: v.Up, Amount: val - v.Up})
		}
	}

	for _, c := range p.cons {
		lhs, err := p.Activity(c, pt)
		if err != nil {
			return nil, err
		}
		var amount float64
		switch c.Sense {
		case LE:
			amount = lhs - c.RHS
		case GE:
			amount = c.RHS - lhs
		case EQ:
			amount = math.Abs(lhs - c.RHS)
		}
		if amount > tol {
			out = append(out, Violation{Name: c.Name, Kind: "constraint", Activity: lhs, Bound: c.RHS, Amount: amount})
		}
	}

	return out, nil
}

// Feasible reports whether a point satisfies all constraints and bounds.
func (p *Problem) Feasible(pt Point, tol float64) (bool, error) {
	v, err := p.Violations(pt, tol)
	if err != nil {
		return false, err
	}
	return len(v) == 0, nil
}
