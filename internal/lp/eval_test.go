package lp

import (
	"math"
	"testing"
)

// buildEvalProblem: minimize 3x + 2y + xy subject to x + y >= 4,
// x <= 3, 0 <= x,y <= 10.
func buildEvalProblem(t *testing.T) *Problem {
	t.Helper()
	p := New("eval")
	if _, err := p.AddVariable("x", Continuous, 0, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := p.AddVariable("y", Continuous, 0, 10); err != nil {
		t.Fatal(err)
	}
	demand, err := p.AddConstraint("demand", GE, 4)
	if err != nil {
		t.Fatal(err)
	}
	demand.SetCoef("x", 1)
	demand.SetCoef("y", 1)
	cap, err := p.AddConstraint("cap", LE, 3)
	if err != nil {
		t.Fatal(err)
	}
	cap.SetCoef("x", 1)
	p.SetObjectiveCoef("x", 3)
	p.SetObjectiveCoef("y", 2)
	p.AddObjectiveBilinear("x", "y", 1)
	return p
}

func TestActivity(t *testing.T) {
	p := buildEvalProblem(t)
	c, _ := p.Constraint("demand")

	act, err := p.Activity(c, Point{"x": 1, "y": 2.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if act != 3.5 {
		t.Errorf("expected activity 3.5, got %g", act)
	}

	if _, err := p.Activity(c, Point{"x": 1}); err == nil {
		t.Error("expected error for missing variable")
	}
}

func TestActivity_Bilinear(t *testing.T) {
	p := New("bilin")
	p.AddVariable("x", Continuous, 0, 10)
	p.AddVariable("y", Continuous, 0, 10)
	c, _ := p.AddConstraint("r", LE, 100)
	c.SetCoef("x", 1)
	c.AddBilinear("x", "y", 2)

	act, err := p.Activity(c, Point{"x": 3, "y": 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if act != 3+2*3*4 {
		t.Errorf("expected activity 27, got %g", act)
	}
}

func TestObjectiveValue(t *testing.T) {
	p := buildEvalProblem(t)
	p.SetObjectiveOffset(10)

	// 3*2 + 2*2 + 2*2 + 10 = 24
	obj, err := p.ObjectiveValue(Point{"x": 2, "y": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj != 24 {
		t.Errorf("expected objective 24, got %g", obj)
	}

	if _, err := p.ObjectiveValue(Point{"x": 2}); err == nil {
		t.Error("expected error for missing variable")
	}
}

func TestViolations(t *testing.T) {
	p := buildEvalProblem(t)

	tests := []struct {
		name string
		pt   Point
		want int
	}{
		{name: "feasible", pt: Point{"x": 2, "y": 2}, want: 0},
		{name: "demand violated", pt: Point{"x": 1, "y": 1}, want: 1},
		{name: "cap and bound violated", pt: Point{"x": 11, "y": 0}, want: 2},
		{name: "below lower bound", pt: Point{"x": -1, "y": 6}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Violations(tt.pt, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d violations, got %d: %v", tt.want, len(got), got)
			}
		})
	}
}

func TestFeasible_Tolerance(t *testing.T) {
	p := New("tol")
	p.AddVariable("x", Continuous, 0, math.Inf(1))
	c, _ := p.AddConstraint("r", EQ, 1)
	c.SetCoef("x", 1)

	ok, err := p.Feasible(Point{"x": 1 + 1e-9}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected point within default tolerance to be feasible")
	}

	ok, err = p.Feasible(Point{"x": 1.01}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected point outside tolerance to be infeasible")
	}
}
