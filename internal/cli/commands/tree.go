package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/watertools/wsp/internal/scenario"
)

// NewTreeCommand creates the tree command.
func NewTreeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the scenario tree",
		Long: `Print the scenario tree implied by the data file: one node per
decision point, with its branch probability, stage cost label, and the
variable groups decided at that node.`,
		Example: `  wsp tree --data two_stage.json
  wsp tree --model three-stage --data three_stage.json`,
		Args: cobra.NoArgs,
		RunE: runTree,
	}
}

func runTree(cmd *cobra.Command, _ []string) error {
	cfg := getConfig()

	m, err := loadModel(cfg)
	if err != nil {
		return err
	}
	t, err := m.Tree()
	if err != nil {
		return err
	}

	w, closeOut, err := outWriter(cfg, cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	printNode(w, t, t.Root(), 0)
	fmt.Fprintf(w, "\n%d nodes, %d stages, %d scenarios\n",
		t.NodeCount(), t.Stages(), len(t.Scenarios()))
	return nil
}

func printNode(w io.Writer, t *scenario.Tree, name string, depth int) {
	n, ok := t.Node(name)
	if !ok {
		return
	}
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s  p=%.4f  stage=%d  cost=%s  vars=%s\n",
		indent, n.Name, n.Prob, n.Stage, n.CostLabel, strings.Join(n.VarGroups, ","))
	for _, child := range t.Children(name) {
		printNode(w, t, child, depth+1)
	}
}
