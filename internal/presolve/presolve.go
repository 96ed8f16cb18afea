// Package presolve shrinks a problem before it is handed to a solver.
// The reductions follow Andersen & Andersen: empty rows, rows that can
// never bind, singleton rows, fixed variables, and free column
// singletons in equality rows. Each removal is journaled so a solution
// of the reduced problem can be translated back to the original.
package presolve

import (
	"fmt"
	"math"

	"github.com/watertools/wsp/internal/lp"
)

// Options selects which reduction passes run. The zero value disables
// everything; use Defaults for the full set.
type Options struct {
	MaxIter              int
	DelEmptyRows         bool
	DelNonbindingRows    bool
	DelRowSingletons     bool
	DelFixedVars         bool
	DelFreeColSingletons bool
}

// Defaults enables every pass with a bounded iteration count.
func Defaults() Options {
	return Options{
		MaxIter:              10,
		DelEmptyRows:         true,
		DelNonbindingRows:    true,
		DelRowSingletons:     true,
		DelFixedVars:         true,
		DelFreeColSingletons: true,
	}
}

// ErrInfeasible is returned when a reduction proves the problem has no
// feasible point.
var ErrInfeasible = fmt.Errorf("problem is infeasible")

type opKind int

const (
	opFixedVar opKind = iota
	opFreeSingleton
)

// op is one journaled reduction, replayed in reverse by Postsolve.
type op struct {
	kind  opKind
	name  string
	value float64

	// free column singleton: solve name from rowTerms and rowRHS.
	coef     float64
	rowTerms map[string]float64
	rowRHS   float64
}

// Reduced holds the shrunken problem and the journal needed to restore
// eliminated variables.
type Reduced struct {
	Problem *lp.Problem

	RowsRemoved     int
	ColsRemoved     int
	BoundsTightened int
	Iterations      int

	ops []op
}

// Apply runs the selected passes on a copy of the problem until no pass
// makes progress or MaxIter is reached. The input is not modified.
func Apply(orig *lp.Problem, opts Options) (*Reduced, error) {
	if opts.MaxIter <= 0 {
		opts.MaxIter = 1
	}
	r := &Reduced{Problem: orig.Clone()}
	p := r.Problem
	locked := bilinearVars(p)

	for r.Iterations < opts.MaxIter {
		r.Iterations++
		changed := false

		if opts.DelEmptyRows {
			n, err := r.delEmptyRows()
			if err != nil {
				return nil, err
			}
			changed = changed || n > 0
		}
		if opts.DelNonbindingRows {
			n := r.delNonbindingRows()
			changed = changed || n > 0
		}
		if opts.DelRowSingletons {
			n, err := r.delRowSingletons(locked)
			if err != nil {
				return nil, err
			}
			changed = changed || n > 0
		}
		if opts.DelFixedVars {
			n, err := r.delFixedVars(locked)
			if err != nil {
				return nil, err
			}
			changed = changed || n > 0
		}
		if opts.DelFreeColSingletons {
			n := r.delFreeColSingletons(locked)
			changed = changed || n > 0
		}

		if !changed {
			break
		}
	}
	return r, nil
}

// Postsolve maps a solution of the reduced problem back to the original
// variable space, replaying the journal last-removed-first.
func (r *Reduced) Postsolve(pt lp.Point) lp.Point {
	out := make(lp.Point, len(pt)+len(r.ops))
	for name, v := range pt {
		out[name] = v
	}
	for i := len(r.ops) - 1; i >= 0; i-- {
		o := r.ops[i]
		switch o.kind {
		case opFixedVar:
			out[o.name] = o.value
		case opFreeSingleton:
			sum := 0.0
			for name, coef := range o.rowTerms {
				sum += coef * out[name]
			}
			out[o.name] = (o.rowRHS - sum) / o.coef
		}
	}
	return out
}

// bilinearVars collects every variable that appears in a product term.
// Those columns are left alone by every pass.
func bilinearVars(p *lp.Problem) map[string]bool {
	locked := make(map[string]bool)
	for _, b := range p.ObjectiveBilinear() {
		locked[b.X] = true
		locked[b.Y] = true
	}
	for _, c := range p.Constraints() {
		for _, b := range c.Bilinear {
			locked[b.X] = true
			locked[b.Y] = true
		}
	}
	return locked
}

func (r *Reduced) delEmptyRows() (int, error) {
	p := r.Problem
	removed := 0
	rows := append([]*lp.Constraint(nil), p.Constraints()...)
	for _, c := range rows {
		if len(c.Terms) > 0 || len(c.Bilinear) > 0 {
			continue
		}
		sat := false
		switch c.Sense {
		case lp.LE:
			sat = 0 <= c.RHS+lp.DefaultTolerance
		case lp.GE:
			sat = 0 >= c.RHS-lp.DefaultTolerance
		case lp.EQ:
			sat = math.Abs(c.RHS) <= lp.DefaultTolerance
		}
		if !sat {
			return removed, fmt.Errorf("row %s: %w", c.Name, ErrInfeasible)
		}
		if err := p.RemoveConstraint(c.Name); err != nil {
			return removed, err
		}
		removed++
	}
	r.RowsRemoved += removed
	return removed, nil
}

// delNonbindingRows drops inequality rows whose activity range, implied
// by the variable bounds, can never violate the row.
func (r *Reduced) delNonbindingRows() int {
	p := r.Problem
	removed := 0
	rows := append([]*lp.Constraint(nil), p.Constraints()...)
	for _, c := range rows {
		if len(c.Bilinear) > 0 || len(c.Terms) == 0 || c.Sense == lp.EQ {
			continue
		}
		lo, up := activityBounds(p, c)
		drop := false
		switch c.Sense {
		case lp.LE:
			drop = up <= c.RHS+lp.DefaultTolerance
		case lp.GE:
			drop = lo >= c.RHS-lp.DefaultTolerance
		}
		if drop {
			if err := p.RemoveConstraint(c.Name); err == nil {
				removed++
			}
		}
	}
	r.RowsRemoved += removed
	return removed
}

// delRowSingletons turns one-term rows into variable bounds.
func (r *Reduced) delRowSingletons(locked map[string]bool) (int, error) {
	p := r.Problem
	removed := 0
	rows := append([]*lp.Constraint(nil), p.Constraints()...)
	for _, c := range rows {
		if len(c.Bilinear) > 0 || len(c.Terms) != 1 {
			continue
		}
		var name string
		var coef float64
		for n, a := range c.Terms {
			name, coef = n, a
		}
		if locked[name] || coef == 0 {
			continue
		}
		v, ok := p.Variable(name)
		if !ok {
			continue
		}
		bound := c.RHS / coef
		sense := c.Sense
		if coef < 0 {
			switch sense {
			case lp.LE:
				sense = lp.GE
			case lp.GE:
				sense = lp.LE
			}
		}
		switch sense {
		case lp.LE:
			if bound < v.Up {
				v.Up = bound
				r.BoundsTightened++
			}
		case lp.GE:
			if bound > v.Lo {
				v.Lo = bound
				r.BoundsTightened++
			}
		case lp.EQ:
			if bound < v.Lo-lp.DefaultTolerance || bound > v.Up+lp.DefaultTolerance {
				return removed, fmt.Errorf("row %s fixes %s outside its bounds: %w", c.Name, name, ErrInfeasible)
			}
			v.Lo, v.Up = bound, bound
			r.BoundsTightened++
		}
		if v.Lo > v.Up+lp.DefaultTolerance {
			return removed, fmt.Errorf("bounds of %s cross after row %s: %w", name, c.Name, ErrInfeasible)
		}
		if err := p.RemoveConstraint(c.Name); err != nil {
			return removed, err
		}
		removed++
	}
	r.RowsRemoved += removed
	return removed, nil
}

// delFixedVars substitutes variables whose bounds coincide.
func (r *Reduced) delFixedVars(locked map[string]bool) (int, error) {
	p := r.Problem
	removed := 0
	cols := append([]*lp.Variable(nil), p.Variables()...)
	for _, v := range cols {
		if locked[v.Name] {
			continue
		}
		if math.Abs(v.Up-v.Lo) > lp.DefaultTolerance {
			continue
		}
		val := v.Lo
		for _, c := range p.Constraints() {
			if coef, ok := c.Terms[v.Name]; ok {
				c.RHS -= coef * val
				c.SetCoef(v.Name, 0)
			}
		}
		if coef, ok := p.ObjectiveTerms()[v.Name]; ok {
			p.SetObjectiveOffset(p.ObjectiveOffset() + coef*val)
			p.SetObjectiveCoef(v.Name, 0)
		}
		if err := p.RemoveVariable(v.Name); err != nil {
			return removed, err
		}
		r.ops = append(r.ops, op{kind: opFixedVar, name: v.Name, value: val})
		removed++
	}
	r.ColsRemoved += removed
	return removed, nil
}

// delFreeColSingletons removes a free continuous variable that appears
// in exactly one equality row; the row implicitly defines it and both
// can be dropped. Its objective coefficient must be zero, otherwise the
// variable trades off against the row and stays.
func (r *Reduced) delFreeColSingletons(locked map[string]bool) int {
	p := r.Problem
	removed := 0
	cols := append([]*lp.Variable(nil), p.Variables()...)
	for _, v := range cols {
		if locked[v.Name] || v.Kind != lp.Continuous {
			continue
		}
		if !math.IsInf(v.Lo, -1) || !math.IsInf(v.Up, 1) {
			continue
		}
		if _, inObj := p.ObjectiveTerms()[v.Name]; inObj {
			continue
		}
		var host *lp.Constraint
		count := 0
		for _, c := range p.Constraints() {
			if _, ok := c.Terms[v.Name]; ok {
				host = c
				count++
			}
		}
		if count != 1 || host.Sense != lp.EQ || len(host.Bilinear) > 0 {
			continue
		}
		coef := host.Terms[v.Name]
		terms := make(map[string]float64, len(host.Terms)-1)
		for name, a := range host.Terms {
			if name != v.Name {
				terms[name] = a
			}
		}
		r.ops = append(r.ops, op{
			kind:     opFreeSingleton,
			name:     v.Name,
			coef:     coef,
			rowTerms: terms,
			rowRHS:   host.RHS,
		})
		host.SetCoef(v.Name, 0)
		if err := p.RemoveConstraint(host.Name); err != nil {
			continue
		}
		if err := p.RemoveVariable(v.Name); err != nil {
			continue
		}
		removed++
	}
	r.RowsRemoved += removed
	r.ColsRemoved += removed
	return removed
}

// activityBounds computes the smallest and largest value the linear part
// of a row can take given the variable bounds.
func activityBounds(p *lp.Problem, c *lp.Constraint) (lo, up float64) {
	for name, coef := range c.Terms {
		v, ok := p.Variable(name)
		if !ok {
			return math.Inf(-1), math.Inf(1)
		}
		if coef > 0 {
			lo += coef * v.Lo
			up += coef * v.Up
		} else {
			lo += coef * v.Up
			up += coef * v.Lo
		}
	}
	return lo, up
}
