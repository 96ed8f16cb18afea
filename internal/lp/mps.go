package lp

// mps.go - free-format MPS writer

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
)

// objRowName is the name given to the objective row in MPS output.
const objRowName = "OBJ"

// ftoa formats a coefficient with the shortest round-trip representation.
func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteMPS writes the problem in free-format MPS. Problems carrying
// bilinear terms cannot be expressed in plain MPS and are rejected;
// callers should fall back to WriteLP for those.
func (p *Problem) WriteMPS(w io.Writer) error {
	if p.HasBilinear() {
		return fmt.Errorf("problem %q has bilinear terms and cannot be written as MPS", p.Name)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("write mps: %w", err)
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "NAME %s\n", p.Name)
	if p.Sense == Maximize {
		fmt.Fprintln(bw, "OBJSENSE")
		fmt.Fprintln(bw, "    MAX")
	}

	fmt.Fprintln(bw, "ROWS")
	fmt.Fprintf(bw, " N  %s\n", objRowName)
	for _, c := range p.cons {
		fmt.Fprintf(bw, " %s  %s\n", mpsRowType(c.Sense), c.Name)
	}

	// Column-major entries: for each variable, its objective coefficient
	// followed by every row it appears in. Integer columns are fenced by
	// INTORG/INTEND markers.
	fmt.Fprintln(bw, "COLUMNS")
	inInteger := false
	marker := 0
	for _, v := range p.vars {
		isInt := v.Kind != Continuous
		if isInt && !inInteger {
			fmt.Fprintf(bw, "    MARKER%d 'MARKER' 'INTORG'\n", marker)
			marker++
			inInteger = true
		}
		if !isInt && inInteger {
			fmt.Fprintf(bw, "    MARKER%d 'MARKER' 'INTEND'\n", marker)
			marker++
			inInteger = false
		}
		if coef, ok := p.objTerms[v.Name]; ok {
			fmt.Fprintf(bw, "    %s %s %s\n", v.Name, objRowName, ftoa(coef))
		}
		for _, c := range p.cons {
			if coef, ok := c.Terms[v.Name]; ok {
				fmt.Fprintf(bw, "    %s %s %s\n", v.Name, c.Name, ftoa(coef))
			}
		}
	}
	if inInteger {
		fmt.Fprintf(bw, "    MARKER%d 'MARKER' 'INTEND'\n", marker)
	}

	fmt.Fprintln(bw, "RHS")
	for _, c := range p.cons {
		if c.RHS != 0 {
			fmt.Fprintf(bw, "    RHS %s %s\n", c.Name, ftoa(c.RHS))
		}
	}

	fmt.Fprintln(bw, "BOUNDS")
	for _, v := range p.vars {
		switch {
		case v.Kind == Binary:
			fmt.Fprintf(bw, " BV BND %s\n", v.Name)
		default:
			if math.IsInf(v.Lo, -1) {
				fmt.Fprintf(bw, " MI BND %s\n", v.Name)
			} else if v.Lo != 0 {
				fmt.Fprintf(bw, " LO BND %s %s\n", v.Name, ftoa(v.Lo))
			}
			if !math.IsInf(v.Up, 1) {
				fmt.Fprintf(bw, " UP BND %s %s\n", v.Name, ftoa(v.Up))
			} else if v.Kind == Integer {
				// Integer columns default to an upper bound of 1 in some
				// readers unless declared free upward.
				fmt.Fprintf(bw, " PL BND %s\n", v.Name)
			}
		}
	}

	fmt.Fprintln(bw, "ENDATA")
	return bw.Flush()
}

func mpsRowType(s Sense) string {
	switch s {
	case LE:
		return "L"
	case GE:
		return "G"
	default:
		return "E"
	}
}
