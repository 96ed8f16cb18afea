package lp

import (
	"math"
	"testing"
)

func TestProblem_AddVariable(t *testing.T) {
	p := New("test")

	v, err := p.AddVariable("x", Continuous, 0, 10)
	if err != nil {
		t.Fatalf("failed to add variable: %v", err)
	}
	if v.Lo != 0 || v.Up != 10 {
		t.Errorf("expected bounds [0,10], got [%g,%g]", v.Lo, v.Up)
	}

	if _, err := p.AddVariable("x", Continuous, 0, 1); err == nil {
		t.Error("expected error for duplicate variable")
	}
	if _, err := p.AddVariable("", Continuous, 0, 1); err == nil {
		t.Error("expected error for empty variable name")
	}
	if _, err := p.AddVariable("y", Continuous, 5, 1); err == nil {
		t.Error("expected error for crossed bounds")
	}
}

func TestProblem_AddVariable_BinaryClamped(t *testing.T) {
	p := New("test")
	v, err := p.AddVariable("b", Binary, -3, 7)
	if err != nil {
		t.Fatalf("failed to add binary variable: %v", err)
	}
	if v.Lo != 0 || v.Up != 1 {
		t.Errorf("expected binary bounds [0,1], got [%g,%g]", v.Lo, v.Up)
	}
}

func TestProblem_AddConstraint(t *testing.T) {
	p := New("test")
	p.AddVariable("x", Continuous, 0, math.Inf(1))

	c, err := p.AddConstraint("cap", LE, 5)
	if err != nil {
		t.Fatalf("failed to add constraint: %v", err)
	}
	c.SetCoef("x", 2)

	if _, err := p.AddConstraint("cap", LE, 1); err == nil {
		t.Error("expected error for duplicate constraint")
	}
	if _, err := p.AddConstraint("bad", Sense("<>"), 1); err == nil {
		t.Error("expected error for unknown sense")
	}

	got, ok := p.Constraint("cap")
	if !ok {
		t.Fatal("constraint lookup failed")
	}
	if got.Terms["x"] != 2 {
		t.Errorf("expected coefficient 2, got %g", got.Terms["x"])
	}
}

func TestConstraint_SetCoef_ZeroDeletes(t *testing.T) {
	c := &Constraint{Name: "r", Sense: LE, Terms: map[string]float64{"x": 3}}
	c.SetCoef("x", 0)
	if _, ok := c.Terms["x"]; ok {
		t.Error("expected zero coefficient to remove the term")
	}

	c.AddCoef("y", 2)
	c.AddCoef("y", -2)
	if _, ok := c.Terms["y"]; ok {
		t.Error("expected accumulated zero to remove the term")
	}
}

func TestProblem_Validate_UnknownVariable(t *testing.T) {
	p := New("test")
	p.AddVariable("x", Continuous, 0, 1)
	c, _ := p.AddConstraint("r", LE, 1)
	c.SetCoef("ghost", 1)

	if err := p.Validate(); err == nil {
		t.Error("expected validation error for unknown variable in constraint")
	}

	p2 := New("test")
	p2.SetObjectiveCoef("ghost", 1)
	if err := p2.Validate(); err == nil {
		t.Error("expected validation error for unknown variable in objective")
	}
}

func TestProblem_HasBilinear(t *testing.T) {
	p := New("test")
	p.AddVariable("x", Continuous, 0, 1)
	p.AddVariable("y", Continuous, 0, 1)
	if p.HasBilinear() {
		t.Error("expected no bilinear terms")
	}

	c, _ := p.AddConstraint("r", LE, 1)
	c.AddBilinear("x", "y", 2)
	if !p.HasBilinear() {
		t.Error("expected bilinear constraint to be detected")
	}

	p2 := New("test")
	p2.AddVariable("x", Continuous, 0, 1)
	p2.AddVariable("y", Continuous, 0, 1)
	p2.AddObjectiveBilinear("x", "y", 1)
	if !p2.HasBilinear() {
		t.Error("expected bilinear objective to be detected")
	}
}

func TestProblem_Stats(t *testing.T) {
	p := New("test")
	p.AddVariable("i", Integer, 0, 10)
	p.AddVariable("b", Binary, 0, 1)
	p.AddVariable("x", Continuous, 0, math.Inf(1))

	c1, _ := p.AddConstraint("r1", LE, 1)
	c1.SetCoef("i", 1)
	c1.SetCoef("x", 2)
	c2, _ := p.AddConstraint("r2", GE, 0)
	c2.AddBilinear("i", "x", 1)

	s := p.Stats()
	if s.Rows != 2 || s.Cols != 3 {
		t.Errorf("expected 2 rows / 3 cols, got %d / %d", s.Rows, s.Cols)
	}
	if s.IntegerCols != 1 || s.BinaryCols != 1 {
		t.Errorf("expected 1 integer / 1 binary col, got %d / %d", s.IntegerCols, s.BinaryCols)
	}
	if s.NonZeros != 2 {
		t.Errorf("expected 2 nonzeros, got %d", s.NonZeros)
	}
	if s.BilinearRows != 1 {
		t.Errorf("expected 1 bilinear row, got %d", s.BilinearRows)
	}
}

func TestProblem_IsMIP(t *testing.T) {
	p := New("test")
	p.AddVariable("x", Continuous, 0, 1)
	if p.IsMIP() {
		t.Error("continuous-only problem reported as MIP")
	}
	p.AddVariable("i", Integer, 0, 5)
	if !p.IsMIP() {
		t.Error("problem with integer column not reported as MIP")
	}
}
