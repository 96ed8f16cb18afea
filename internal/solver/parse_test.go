package solver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/watertools/wsp/internal/lp"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseCbcSolution(t *testing.T) {
	content := `Optimal - objective value 5057.50000000
      0 LT_ACTION(LS_RETRO)               30                      120
      1 LT_ACTION(RECLAIM)                10                      340
      5 ST_Q(TRANSFER)@S_40               15                        0
`
	res, err := parseCbcSolution(writeTempFile(t, "solution.txt", content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Errorf("expected optimal, got %s", res.Status)
	}
	if res.Objective != 5057.5 {
		t.Errorf("expected objective 5057.5, got %g", res.Objective)
	}
	if res.Values["LT_ACTION(LS_RETRO)"] != 30 {
		t.Errorf("expected LS_RETRO=30, got %g", res.Values["LT_ACTION(LS_RETRO)"])
	}
	if res.Values["ST_Q(TRANSFER)@S_40"] != 15 {
		t.Errorf("expected TRANSFER@S_40=15, got %g", res.Values["ST_Q(TRANSFER)@S_40"])
	}
}

func TestParseCbcSolution_Infeasible(t *testing.T) {
	content := "Infeasible - objective value 0.00000000\n"
	res, err := parseCbcSolution(writeTempFile(t, "solution.txt", content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusInfeasible {
		t.Errorf("expected infeasible, got %s", res.Status)
	}
}

func TestParseCbcSolution_Empty(t *testing.T) {
	if _, err := parseCbcSolution(writeTempFile(t, "solution.txt", "")); err == nil {
		t.Error("expected error for empty solution file")
	}
}

func TestCbcStatus(t *testing.T) {
	tests := []struct {
		line string
		want Status
	}{
		{"Optimal - objective value 12", StatusOptimal},
		{"Infeasible - objective value 0", StatusInfeasible},
		{"Unbounded", StatusUnbounded},
		{"Stopped on time limit - objective value 99", StatusFeasible},
		{"garbage", StatusUnknown},
	}
	for _, tt := range tests {
		if got := cbcStatus(tt.line); got != tt.want {
			t.Errorf("cbcStatus(%q) = %s, want %s", tt.line, got, tt.want)
		}
	}
}

func TestParseCplexSolution(t *testing.T) {
	data := []byte(`<?xml version = "1.0" encoding="UTF-8" standalone="yes"?>
<CPLEXSolution version="1.2">
 <header
   problemName="two_stage_water_portfolio"
   objectiveValue="5057.5"
   solutionStatusValue="101"
   solutionStatusString="integer optimal solution"
   solutionMethodString="mip"
   primalFeasible="1"
   dualFeasible="1"/>
 <variables>
  <variable name="LT_ACTION(LS_RETRO)" index="0" value="30"/>
  <variable name="ST_Q(TRANSFER)@S_40" index="5" value="15"/>
 </variables>
</CPLEXSolution>
`)
	res, err := parseCplexSolution(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Errorf("expected optimal, got %s", res.Status)
	}
	if res.Objective != 5057.5 {
		t.Errorf("expected objective 5057.5, got %g", res.Objective)
	}
	if res.Values["ST_Q(TRANSFER)@S_40"] != 15 {
		t.Errorf("expected TRANSFER@S_40=15, got %g", res.Values["ST_Q(TRANSFER)@S_40"])
	}
}

func TestParseCplexSolution_BadXML(t *testing.T) {
	if _, err := parseCplexSolution([]byte("not xml")); err == nil {
		t.Error("expected error for malformed XML")
	}
}

func TestCplexStatus(t *testing.T) {
	tests := []struct {
		code int
		want Status
	}{
		{1, StatusOptimal},
		{101, StatusOptimal},
		{102, StatusOptimal},
		{3, StatusInfeasible},
		{103, StatusInfeasible},
		{2, StatusUnbounded},
		{118, StatusUnbounded},
		{107, StatusFeasible},
		{42, StatusUnknown},
	}
	for _, tt := range tests {
		if got := cplexStatus(tt.code); got != tt.want {
			t.Errorf("cplexStatus(%d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestParseGurobiSol(t *testing.T) {
	content := `# Solution for model three_stage_water_portfolio
# Objective value = 6.32500000e+03
LT_ACTION(LS_RETRO) 30
MT_EXP(LS_RETRO)@P_DRY 0.5
ST_Q(TRANSFER)@D_50 2.5e+01
`
	res := &Result{Values: lp.Point{}}
	if err := parseGurobiSol(writeTempFile(t, "model.sol", content), res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Objective != 6325 {
		t.Errorf("expected objective 6325, got %g", res.Objective)
	}
	if res.Values["MT_EXP(LS_RETRO)@P_DRY"] != 0.5 {
		t.Errorf("expected MT_EXP=0.5, got %g", res.Values["MT_EXP(LS_RETRO)@P_DRY"])
	}
	if res.Values["ST_Q(TRANSFER)@D_50"] != 25 {
		t.Errorf("expected TRANSFER=25, got %g", res.Values["ST_Q(TRANSFER)@D_50"])
	}
}

func TestGurobiStatus(t *testing.T) {
	tests := []struct {
		out  string
		want Status
	}{
		{"Optimal solution found (tolerance 1.00e-04)", StatusOptimal},
		{"Model is infeasible", StatusInfeasible},
		{"Model is unbounded", StatusUnbounded},
		{"Time limit reached", StatusFeasible},
		{"something else", StatusUnknown},
	}
	for _, tt := range tests {
		if got := gurobiStatus(tt.out); got != tt.want {
			t.Errorf("gurobiStatus(%q) = %s, want %s", tt.out, got, tt.want)
		}
	}
}

func TestParseGlpkSolution_MIP(t *testing.T) {
	content := `c Problem:    two_stage_water_portfolio
c Rows:       27
c Columns:    3
s mip 27 3 o 5057.5
i 1 40
j 1 30
j 2 0
j 3 15
e o f
`
	cols := []string{"LT_ACTION(LS_RETRO)", "ST_Q(LS_RESTRICT)@S_40", "ST_Q(TRANSFER)@S_40"}
	res, err := parseGlpkSolution(writeTempFile(t, "solution.txt", content), cols)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Errorf("expected optimal, got %s", res.Status)
	}
	if res.Objective != 5057.5 {
		t.Errorf("expected objective 5057.5, got %g", res.Objective)
	}
	if res.Values["LT_ACTION(LS_RETRO)"] != 30 {
		t.Errorf("expected LS_RETRO=30, got %g", res.Values["LT_ACTION(LS_RETRO)"])
	}
	if res.Values["ST_Q(TRANSFER)@S_40"] != 15 {
		t.Errorf("expected TRANSFER@S_40=15, got %g", res.Values["ST_Q(TRANSFER)@S_40"])
	}
	// row lines must not leak into the values
	if len(res.Values) != 3 {
		t.Errorf("expected 3 column values, got %d", len(res.Values))
	}
}

func TestParseGlpkSolution_Basic(t *testing.T) {
	content := `s bas 1 2 f f 12.5
i 1 b 4 0
j 1 b 2.5 0
j 2 l 10 0.25
e o f
`
	res, err := parseGlpkSolution(writeTempFile(t, "solution.txt", content), []string{"flow", "spill"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Errorf("expected optimal, got %s", res.Status)
	}
	if res.Objective != 12.5 {
		t.Errorf("expected objective 12.5, got %g", res.Objective)
	}
	if res.Values["flow"] != 2.5 {
		t.Errorf("expected flow=2.5, got %g", res.Values["flow"])
	}
	if res.Values["spill"] != 10 {
		t.Errorf("expected spill=10, got %g", res.Values["spill"])
	}
}

func TestParseGlpkSolution_Infeasible(t *testing.T) {
	res, err := parseGlpkSolution(writeTempFile(t, "solution.txt", "s mip 1 1 n 0\ne o f\n"), []string{"x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusInfeasible {
		t.Errorf("expected infeasible, got %s", res.Status)
	}
}

func TestParseGlpkSolution_BadColumnIndex(t *testing.T) {
	content := "s mip 1 2 o 0\nj 5 1\n"
	if _, err := parseGlpkSolution(writeTempFile(t, "solution.txt", content), []string{"x"}); err == nil {
		t.Error("expected error for out-of-range column index")
	}
}

func TestParseGlpkSolution_NoStatus(t *testing.T) {
	if _, err := parseGlpkSolution(writeTempFile(t, "solution.txt", "c empty\n"), nil); err == nil {
		t.Error("expected error for a solution file without a status line")
	}
}

func TestGlpkMipStatus(t *testing.T) {
	tests := []struct {
		stat string
		want Status
	}{
		{"o", StatusOptimal},
		{"f", StatusFeasible},
		{"n", StatusInfeasible},
		{"u", StatusUnknown},
	}
	for _, tt := range tests {
		if got := glpkMipStatus(tt.stat); got != tt.want {
			t.Errorf("glpkMipStatus(%q) = %s, want %s", tt.stat, got, tt.want)
		}
	}
}

func TestGlpkBasStatus(t *testing.T) {
	tests := []struct {
		p, d string
		want Status
	}{
		{"f", "f", StatusOptimal},
		{"f", "n", StatusUnbounded},
		{"f", "u", StatusFeasible},
		{"i", "f", StatusInfeasible},
		{"n", "u", StatusInfeasible},
		{"u", "u", StatusUnknown},
	}
	for _, tt := range tests {
		if got := glpkBasStatus(tt.p, tt.d); got != tt.want {
			t.Errorf("glpkBasStatus(%q, %q) = %s, want %s", tt.p, tt.d, got, tt.want)
		}
	}
}

func TestFillMissing(t *testing.T) {
	p := lp.New("fill")
	p.AddVariable("a", lp.Continuous, 0, 1)
	p.AddVariable("b", lp.Continuous, 0, 1)

	res := &Result{Values: lp.Point{"a": 0.5}}
	fillMissing(res, p)
	if res.Values["b"] != 0 {
		t.Errorf("expected omitted variable zeroed, got %g", res.Values["b"])
	}
	if res.Values["a"] != 0.5 {
		t.Errorf("fillMissing overwrote a solved value: %g", res.Values["a"])
	}
}
