package portfolio

import (
	"fmt"

	"github.com/watertools/wsp/internal/ef"
	"github.com/watertools/wsp/internal/lp"
	"github.com/watertools/wsp/internal/scenario"
)

// Model names accepted on the command line and in config files.
const (
	ModelTwoStage   = "two-stage"
	ModelThreeStage = "three-stage"
)

// Model is a stochastic portfolio model built from a data file.
type Model interface {
	// Tree returns the scenario tree implied by the data.
	Tree() (*scenario.Tree, error)

	// ExtensiveForm builds the deterministic equivalent program.
	ExtensiveForm() (*ef.Program, error)

	// Deterministic builds the wait-and-see program for one scenario.
	Deterministic(scenario string) (*lp.Problem, error)

	// ExpectedValueProblem builds the mean-shortage program.
	ExpectedValueProblem() (*lp.Problem, error)

	// MeanShortage returns the expected shortage over all scenarios.
	MeanShortage() float64

	// Shortages maps leaf scenario name to its shortage volume.
	Shortages() map[string]float64

	// Validate checks the data for internal consistency.
	Validate() error
}

// ModelNames lists the supported model names.
func ModelNames() []string {
	return []string{ModelTwoStage, ModelThreeStage}
}

// Load reads the data file for the named model.
func Load(model, path string) (Model, error) {
	switch model {
	case ModelTwoStage:
		return LoadTwoStage(path)
	case ModelThreeStage:
		return LoadThreeStage(path)
	default:
		return nil, fmt.Errorf("unknown model %q (supported: %s, %s)", model, ModelTwoStage, ModelThreeStage)
	}
}
