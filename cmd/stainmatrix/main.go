// Command stainmatrix prints the normalized stain matrix, the unmixing
// coefficients and the display colours for a preset or explicit vectors.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"colour-deconvolution/internal/config"
	"colour-deconvolution/internal/lut"
	"colour-deconvolution/internal/stain"
	"colour-deconvolution/pkg/colorutil"
)

func main() {
	preset := flag.String("preset", "H&E", "Built-in stain preset")
	vectors := flag.String("vectors", "", `Explicit stain vectors "r,g,b;r,g,b[;r,g,b]" (overrides -preset)`)
	complement := flag.Bool("complement", false, "Use the legacy complement rule for a missing third stain")
	flag.Parse()

	params := config.DefaultParams().WithPreset(*preset)
	if *vectors != "" {
		vs, err := config.ParseVectors(*vectors)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -vectors: %v\n", err)
			os.Exit(1)
		}
		params = params.WithVectors(vs...)
	}
	params.Cross = !*complement

	set, err := params.VectorSet()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve stains: %v\n", err)
		os.Exit(1)
	}

	m, err := stain.Build(set)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build matrix: %v\n", err)
		os.Exit(1)
	}

	report(os.Stdout, m, params.StainNames())
}

// report prints one row per stain followed by the inverse coefficients.
func report(w io.Writer, m *stain.Matrix, names []string) {
	tables := lut.Build(m.CosX, m.CosY, m.CosZ)

	fmt.Fprintf(w, "%-18s %10s %10s %10s  %s\n", "Stain", "R", "G", "B", "Dye")
	for i, v := range m.Rows {
		name := fmt.Sprintf("Colour_%d", i+1)
		if i < len(names) {
			name = names[i]
		}
		if m.Synthesized(i) {
			name += "*"
		}
		dye := tables[i].At(0)
		fmt.Fprintf(w, "%-18s %10.6f %10.6f %10.6f  %s\n", name, v.R, v.G, v.B,
			colorutil.Hex(dye.R, dye.G, dye.B))
	}

	fmt.Fprintf(w, "\nDeterminant: %.6f\n", m.Det)
	fmt.Fprintln(w, "Unmixing coefficients (channel x source):")
	for k := 0; k < 3; k++ {
		c := m.Coefficients(k)
		fmt.Fprintf(w, "  Colour_%d %10.6f %10.6f %10.6f\n", k+1, c[0], c[1], c[2])
	}
	for _, warning := range m.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	if m.Supplied < 3 {
		fmt.Fprintln(w, "* synthesized")
	}
}
