package lp

// lpfmt.go - CPLEX/Gurobi LP format writer. Unlike MPS this format can
// carry bilinear terms in [ ] sections, which is what the three-stage
// portfolio model needs (products of first- and second-stage variables).

import (
	"bufio"
	"fmt"
	"io"
	"math"
)

// WriteLP writes the problem in LP format.
func (p *Problem) WriteLP(w io.Writer) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("write lp: %w", err)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "\\ Problem: %s\n", p.Name)

	if p.Sense == Maximize {
		fmt.Fprintln(bw, "Maximize")
	} else {
		fmt.Fprintln(bw, "Minimize")
	}
	bw.WriteString(" obj:")
	writeLinear(bw, p.objTerms)
	writeBilinear(bw, p.objBilinear)
	if p.objOffset != 0 {
		writeSigned(bw, p.objOffset)
	}
	bw.WriteString("\n")

	fmt.Fprintln(bw, "Subject To")
	for _, c := range p.cons {
		fmt.Fprintf(bw, " %s:", c.Name)
		writeLinear(bw, c.Terms)
		writeBilinear(bw, c.Bilinear)
		fmt.Fprintf(bw, " %s %s\n", c.Sense, ftoa(c.RHS))
	}

	fmt.Fprintln(bw, "Bounds")
	for _, v := range p.vars {
		if v.Kind == Binary {
			continue // implied by the Binaries section
		}
		switch {
		case math.IsInf(v.Lo, -1) && math.IsInf(v.Up, 1):
			fmt.Fprintf(bw, " %s free\n", v.Name)
		case math.IsInf(v.Up, 1):
			if v.Lo != 0 {
				fmt.Fprintf(bw, " %s >= %s\n", v.Name, ftoa(v.Lo))
			}
		case math.IsInf(v.Lo, -1):
			fmt.Fprintf(bw, " -infinity <= %s <= %s\n", v.Name, ftoa(v.Up))
		default:
			fmt.Fprintf(bw, " %s <= %s <= %s\n", ftoa(v.Lo), v.Name, ftoa(v.Up))
		}
	}

	var generals, binaries []string
	for _, v := range p.vars {
		switch v.Kind {
		case Integer:
			generals = append(generals, v.Name)
		case Binary:
			binaries = append(binaries, v.Name)
		}
	}
	if len(generals) > 0 {
		fmt.Fprintln(bw, "Generals")
		for _, name := range generals {
			fmt.Fprintf(bw, " %s\n", name)
		}
	}
	if len(binaries) > 0 {
		fmt.Fprintln(bw, "Binaries")
		for _, name := range binaries {
			fmt.Fprintf(bw, " %s\n", name)
		}
	}

	fmt.Fprintln(bw, "End")
	return bw.Flush()
}

// writeLinear emits linear terms in lexical variable order.
func writeLinear(bw *bufio.Writer, terms map[string]float64) {
	for _, name := range sortedNames(terms) {
		coef := terms[name]
		if coef >= 0 {
			fmt.Fprintf(bw, " + %s %s", ftoa(coef), name)
		} else {
			fmt.Fprintf(bw, " - %s %s", ftoa(-coef), name)
		}
	}
}

// writeBilinear emits product terms in a single [ ] section.
func writeBilinear(bw *bufio.Writer, terms []BilinearTerm) {
	if len(terms) == 0 {
		return
	}
	bw.WriteString(" + [")
	for i, b := range terms {
		coef := b.Coef
		sign := "+"
		if coef < 0 {
			sign = "-"
			coef = -coef
		}
		if i == 0 && sign == "+" {
			fmt.Fprintf(bw, " %s %s * %s", ftoa(coef), b.X, b.Y)
		} else {
			fmt.Fprintf(bw, " %s %s %s * %s", sign, ftoa(coef), b.X, b.Y)
		}
	}
	bw.WriteString(" ]")
}

func writeSigned(bw *bufio.Writer, v float64) {
	if v >= 0 {
		fmt.Fprintf(bw, " + %s", ftoa(v))
	} else {
		fmt.Fprintf(bw, " - %s", ftoa(-v))
	}
}
