package lp

// clone.go - deep copy and structural edits used by the presolver

import "fmt"

// Clone returns a deep copy of the problem.
func (p *Problem) Clone() *Problem {
	out := New(p.Name)
	out.Sense = p.Sense
	out.objOffset = p.objOffset
	for _, v := range p.vars {
		cp := *v
		out.varIndex[cp.Name] = len(out.vars)
		out.vars = append(out.vars, &cp)
	}
	for _, c := range p.cons {
		cp := &Constraint{Name: c.Name, Sense: c.Sense, RHS: c.RHS, Terms: make(map[string]float64, len(c.Terms))}
		for name, coef := range c.Terms {
			cp.Terms[name] = coef
		}
		cp.Bilinear = append(cp.Bilinear, c.Bilinear...)
		out.conIndex[cp.Name] = len(out.cons)
		out.cons = append(out.cons, cp)
	}
	for name, coef := range p.objTerms {
		out.objTerms[name] = coef
	}
	out.objBilinear = append(out.objBilinear, p.objBilinear...)
	return out
}

// RemoveConstraint deletes a row by name.
func (p *Problem) RemoveConstraint(name string) error {
	i, ok := p.conIndex[name]
	if !ok {
		return fmt.Errorf("constraint %q does not exist", name)
	}
	p.cons = append(p.cons[:i], p.cons[i+1:]...)
	delete(p.conIndex, name)
	for j := i; j < len(p.cons); j++ {
		p.conIndex[p.cons[j].Name] = j
	}
	return nil
}

// RemoveVariable deletes a column by name. The caller is responsible for
// first eliminating its occurrences from rows and objective.
func (p *Problem) RemoveVariable(name string) error {
	i, ok := p.varIndex[name]
	if !ok {
		return fmt.Errorf("variable %q does not exist", name)
	}
	for _, c := range p.cons {
		if _, used := c.Terms[name]; used {
			return fmt.Errorf("variable %q still appears in constraint %q", name, c.Name)
		}
		for _, b := range c.Bilinear {
			if b.X == name || b.Y == name {
				return fmt.Errorf("variable %q still appears in a bilinear term of %q", name, c.Name)
			}
		}
	}
	if _, used := p.objTerms[name]; used {
		return fmt.Errorf("variable %q still appears in the objective", name)
	}
	for _, b := range p.objBilinear {
		if b.X == name || b.Y == name {
			return fmt.Errorf("variable %q still appears in a bilinear objective term", name)
		}
	}
	p.vars = append(p.vars[:i], p.vars[i+1:]...)
	delete(p.varIndex, name)
	for j := i; j < len(p.vars); j++ {
		p.varIndex[p.vars[j].Name] = j
	}
	return nil
}
