// Package portfolio defines the water supply portfolio planning models:
// JSON data schemas, scenario trees, and builders for the per-scenario
// and deterministic-equivalent programs.
//
// Two concrete models are supported. The two-stage model chooses integer
// long-term actions before a shortage is revealed and continuous
// short-term actions after. The three-stage model inserts a mid-term
// expansion decision between a supply projection and the realized
// shortage, which couples stages through bilinear terms.
package portfolio

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
)

// shortageKey is the single index of the shortage parameter in the data
// files ("SH").
const shortageKey = "SH"

// Well-known action keys whose linking constraints are part of the model
// structure.
const (
	keyLSRetro    = "LS_RETRO"    // long-term landscape retrofit
	keyOption     = "OPTION"      // long-term dry-year option contract
	keyLSRestrict = "LS_RESTRICT" // short-term landscape restriction
	keyExOption   = "EX_OPTION"   // two-stage: exercise option
	keyExLTOption = "EX_LT_OPTION"
	keyExMTOption = "EX_MT_OPTION"
)

// TwoStageData is the decoded two_stage data dictionary.
type TwoStageData struct {
	LTMax   map[string]float64 `json:"LT_MAX"`
	LTYield map[string]float64 `json:"LT_QF"`
	LTCost  map[string]float64 `json:"C_LT"`
	STMax   map[string]float64 `json:"ST_MAX"`
	STCost  map[string]float64 `json:"C_ST"`

	// ShortageQ maps scenario name to the shortage parameter values,
	// keyed by "SH".
	ShortageQ map[string]map[string]float64 `json:"SHORTAGE_Q"`
	// ShortageP maps scenario name to its probability.
	ShortageP map[string]float64 `json:"SHORTAGE_P"`
}

// ThreeStageData is the decoded three_stage scenario data dictionary.
// Scenario data is nested by supply projection.
type ThreeStageData struct {
	LTMax   map[string]float64 `json:"LT_MAX"`
	LTYield map[string]float64 `json:"LT_QF"`
	LTCost  map[string]float64 `json:"C_LT"`
	MTMax   map[string]float64 `json:"MT_MAX"`
	MTCost  map[string]float64 `json:"C_MT"`
	STMax   map[string]float64 `json:"ST_MAX"`
	STCost  map[string]float64 `json:"C_ST"`

	ProjectionP map[string]float64                       `json:"PROJECTION_P"`
	ShortageP   map[string]map[string]float64            `json:"SHORTAGE_P"`
	ShortageQ   map[string]map[string]map[string]float64 `json:"SHORTAGE_Q"`
}

// LoadTwoStage reads and validates a two-stage data file.
func LoadTwoStage(path string) (*TwoStageData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	var d TwoStageData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &d, nil
}

// LoadThreeStage reads and validates a three-stage data file.
func LoadThreeStage(path string) (*ThreeStageData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	var d ThreeStageData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &d, nil
}

// Validate checks internal consistency of the two-stage data.
func (d *TwoStageData) Validate() error {
	if len(d.LTMax) == 0 {
		return fmt.Errorf("LT_MAX is empty")
	}
	if len(d.STMax) == 0 {
		return fmt.Errorf("ST_MAX is empty")
	}
	if err := sameKeys("LT_MAX", d.LTMax, "LT_QF", d.LTYield); err != nil {
		return err
	}
	if err := sameKeys("LT_MAX", d.LTMax, "C_LT", d.LTCost); err != nil {
		return err
	}
	if err := sameKeys("ST_MAX", d.STMax, "C_ST", d.STCost); err != nil {
		return err
	}
	for _, key := range []string{keyLSRetro, keyOption} {
		if _, ok := d.LTMax[key]; !ok {
			return fmt.Errorf("LT_MAX is missing required action %q", key)
		}
	}
	for _, key := range []string{keyLSRestrict, keyExOption} {
		if _, ok := d.STMax[key]; !ok {
			return fmt.Errorf("ST_MAX is missing required action %q", key)
		}
	}
	if err := nonNegative("LT_MAX", d.LTMax); err != nil {
		return err
	}
	if err := nonNegative("ST_MAX", d.STMax); err != nil {
		return err
	}
	if err := nonNegative("C_LT", d.LTCost); err != nil {
		return err
	}
	if err := nonNegative("C_ST", d.STCost); err != nil {
		return err
	}
	if len(d.ShortageP) == 0 {
		return fmt.Errorf("SHORTAGE_P is empty")
	}
	sum := 0.0
	for name, p := range d.ShortageP {
		if p < 0 || p > 1 {
			return fmt.Errorf("SHORTAGE_P[%s] = %g out of [0,1]", name, p)
		}
		sum += p
		q, ok := d.ShortageQ[name]
		if !ok {
			return fmt.Errorf("scenario %q has a probability but no SHORTAGE_Q entry", name)
		}
		if _, ok := q[shortageKey]; !ok {
			return fmt.Errorf("SHORTAGE_Q[%s] is missing key %q", name, shortageKey)
		}
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("SHORTAGE_P sums to %g, want 1", sum)
	}
	for name := range d.ShortageQ {
		if _, ok := d.ShortageP[name]; !ok {
			return fmt.Errorf("scenario %q has SHORTAGE_Q but no probability", name)
		}
	}
	return nil
}

// Validate checks internal consistency of the three-stage data.
func (d *ThreeStageData) Validate() error {
	if len(d.LTMax) == 0 {
		return fmt.Errorf("LT_MAX is empty")
	}
	if err := sameKeys("LT_MAX", d.LTMax, "LT_QF", d.LTYield); err != nil {
		return err
	}
	if err := sameKeys("LT_MAX", d.LTMax, "C_LT", d.LTCost); err != nil {
		return err
	}
	if err := sameKeys("ST_MAX", d.STMax, "C_ST", d.STCost); err != nil {
		return err
	}
	// The mid-term expansion is indexed over the long-term actions in
	// the shortage and cost couplings, so MT data must cover LT keys.
	for key := range d.LTMax {
		if _, ok := d.MTMax[key]; !ok {
			return fmt.Errorf("MT_MAX is missing long-term action %q", key)
		}
		if _, ok := d.MTCost[key]; !ok {
			return fmt.Errorf("C_MT is missing long-term action %q", key)
		}
	}
	for _, key := range []string{keyLSRetro, keyOption} {
		if _, ok := d.LTMax[key]; !ok {
			return fmt.Errorf("LT_MAX is missing required action %q", key)
		}
	}
	for _, key := range []string{keyLSRestrict, keyExLTOption, keyExMTOption} {
		if _, ok := d.STMax[key]; !ok {
			return fmt.Errorf("ST_MAX is missing required action %q", key)
		}
	}
	if d.LTYield[keyLSRetro] == 0 {
		return fmt.Errorf("LT_QF[%s] must be non-zero (it divides the restriction coupling)", keyLSRetro)
	}
	if len(d.ProjectionP) == 0 {
		return fmt.Errorf("PROJECTION_P is empty")
	}
	psum := 0.0
	for proj, p := range d.ProjectionP {
		if p < 0 || p > 1 {
			return fmt.Errorf("PROJECTION_P[%s] = %g out of [0,1]", proj, p)
		}
		psum += p
		branch, ok := d.ShortageP[proj]
		if !ok {
			return fmt.Errorf("projection %q has no SHORTAGE_P branch", proj)
		}
		ssum := 0.0
		for name, sp := range branch {
			if sp < 0 || sp > 1 {
				return fmt.Errorf("SHORTAGE_P[%s][%s] = %g out of [0,1]", proj, name, sp)
			}
			ssum += sp
			q, ok := d.ShortageQ[proj][name]
			if !ok {
				return fmt.Errorf("scenario %q under projection %q has no SHORTAGE_Q entry", name, proj)
			}
			if _, ok := q[shortageKey]; !ok {
				return fmt.Errorf("SHORTAGE_Q[%s][%s] is missing key %q", proj, name, shortageKey)
			}
		}
		if math.Abs(ssum-1) > 1e-6 {
			return fmt.Errorf("SHORTAGE_P[%s] sums to %g, want 1", proj, ssum)
		}
	}
	if math.Abs(psum-1) > 1e-6 {
		return fmt.Errorf("PROJECTION_P sums to %g, want 1", psum)
	}
	return nil
}

// Scenario names in deterministic (lexical) order.

func (d *TwoStageData) scenarioNames() []string {
	names := make([]string, 0, len(d.ShortageP))
	for name := range d.ShortageP {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *ThreeStageData) projectionNames() []string {
	names := make([]string, 0, len(d.ProjectionP))
	for name := range d.ProjectionP {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *ThreeStageData) shortageNames(projection string) []string {
	names := make([]string, 0, len(d.ShortageP[projection]))
	for name := range d.ShortageP[projection] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sameKeys(aName string, a map[string]float64, bName string, b map[string]float64) error {
	if len(a) != len(b) {
		return fmt.Errorf("%s and %s have different key sets", aName, bName)
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return fmt.Errorf("%s is missing key %q present in %s", bName, k, aName)
		}
	}
	return nil
}

func nonNegative(name string, m map[string]float64) error {
	for k, v := range m {
		if v < 0 {
			return fmt.Errorf("%s[%s] = %g must be non-negative", name, k, v)
		}
	}
	return nil
}
