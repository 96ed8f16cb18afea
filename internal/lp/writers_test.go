package lp

import (
	"math"
	"strings"
	"testing"
)

func buildWriterProblem(t *testing.T) *Problem {
	t.Helper()
	p := New("writer")
	if _, err := p.AddVariable("build", Integer, 0, math.Inf(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := p.AddVariable("flow", Continuous, 0, 25); err != nil {
		t.Fatal(err)
	}
	c, err := p.AddConstraint("demand", GE, 10)
	if err != nil {
		t.Fatal(err)
	}
	c.SetCoef("build", 0.5)
	c.SetCoef("flow", 1)
	p.SetObjectiveCoef("build", 120)
	p.SetObjectiveCoef("flow", 90)
	return p
}

func TestWriteMPS(t *testing.T) {
	p := buildWriterProblem(t)
	var sb strings.Builder
	if err := p.WriteMPS(&sb); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"NAME writer",
		"ROWS",
		" N  OBJ",
		" G  demand",
		"COLUMNS",
		"'INTORG'",
		"'INTEND'",
		"build OBJ 120",
		"flow demand 1",
		"RHS",
		"RHS demand 10",
		"BOUNDS",
		" PL BND build",
		" UP BND flow 25",
		"ENDATA",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("MPS output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteMPS_RejectsBilinear(t *testing.T) {
	p := buildWriterProblem(t)
	p.AddObjectiveBilinear("build", "flow", 1)

	var sb strings.Builder
	if err := p.WriteMPS(&sb); err == nil {
		t.Error("expected bilinear problem to be rejected")
	}
}

func TestWriteLP(t *testing.T) {
	p := buildWriterProblem(t)
	var sb strings.Builder
	if err := p.WriteLP(&sb); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"Minimize",
		" obj: + 120 build + 90 flow",
		"Subject To",
		" demand: + 0.5 build + 1 flow >= 10",
		"Bounds",
		" 0 <= flow <= 25",
		"Generals",
		" build",
		"End",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("LP output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteLP_BilinearSection(t *testing.T) {
	p := buildWriterProblem(t)
	c, _ := p.Constraint("demand")
	c.AddBilinear("build", "flow", 0.5)
	p.AddObjectiveBilinear("build", "flow", -2)

	var sb strings.Builder
	if err := p.WriteLP(&sb); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := sb.String()

	if !strings.Contains(out, "+ [ - 2 build * flow ]") {
		t.Errorf("LP objective missing bilinear section:\n%s", out)
	}
	if !strings.Contains(out, "+ [ 0.5 build * flow ]") {
		t.Errorf("LP constraint missing bilinear section:\n%s", out)
	}
}

func TestWriteLP_FreeVariable(t *testing.T) {
	p := New("free")
	p.AddVariable("eta", Continuous, math.Inf(-1), math.Inf(1))

	var sb strings.Builder
	if err := p.WriteLP(&sb); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.Contains(sb.String(), " eta free") {
		t.Errorf("expected free declaration:\n%s", sb.String())
	}
}

func TestWriteLP_LowerUnboundedVariable(t *testing.T) {
	p := New("bounds")
	p.AddVariable("deficit", Continuous, math.Inf(-1), 8)

	var sb strings.Builder
	if err := p.WriteLP(&sb); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.Contains(sb.String(), " -infinity <= deficit <= 8") {
		t.Errorf("expected -infinity lower bound:\n%s", sb.String())
	}
	if strings.Contains(sb.String(), "Inf") {
		t.Errorf("Go float formatting leaked into the LP file:\n%s", sb.String())
	}
}

func TestClone_Independent(t *testing.T) {
	p := buildWriterProblem(t)
	p.AddObjectiveBilinear("build", "flow", 3)
	cp := p.Clone()

	c, _ := cp.Constraint("demand")
	c.SetCoef("flow", 99)
	cp.SetObjectiveCoef("build", 0)
	v, _ := cp.Variable("flow")
	v.Up = 1

	orig, _ := p.Constraint("demand")
	if orig.Terms["flow"] != 1 {
		t.Error("clone mutation leaked into original constraint")
	}
	if p.ObjectiveTerms()["build"] != 120 {
		t.Error("clone mutation leaked into original objective")
	}
	if ov, _ := p.Variable("flow"); ov.Up != 25 {
		t.Error("clone mutation leaked into original bounds")
	}
	if len(cp.ObjectiveBilinear()) != 1 {
		t.Error("clone lost bilinear objective terms")
	}
}

func TestRemoveVariable_StillReferenced(t *testing.T) {
	p := buildWriterProblem(t)

	if err := p.RemoveVariable("flow"); err == nil {
		t.Error("expected error removing a variable still used in a row")
	}

	c, _ := p.Constraint("demand")
	c.SetCoef("flow", 0)
	if err := p.RemoveVariable("flow"); err == nil {
		t.Error("expected error removing a variable still in the objective")
	}

	p.SetObjectiveCoef("flow", 0)
	if err := p.RemoveVariable("flow"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, ok := p.Variable("flow"); ok {
		t.Error("variable still present after removal")
	}
}

func TestRemoveConstraint(t *testing.T) {
	p := buildWriterProblem(t)
	if err := p.RemoveConstraint("demand"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.Constraint("demand"); ok {
		t.Error("constraint still present after removal")
	}
	if err := p.RemoveConstraint("demand"); err == nil {
		t.Error("expected error removing a missing constraint")
	}
}
