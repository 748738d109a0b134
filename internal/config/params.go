// Package config holds deconvolution run parameters and loads them from TOML.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"colour-deconvolution/internal/stain"

	"github.com/BurntSushi/toml"
)

// ErrUnknownPreset is returned when a preset name matches no built-in preset.
var ErrUnknownPreset = errors.New("unknown stain preset")

// StainSpec describes one stain. Exactly one of Vector or Color is used;
// Color is a "#rrggbb" transmitted dye colour.
type StainSpec struct {
	Name   string    `toml:"name"`
	Vector []float64 `toml:"vector"`
	Color  string    `toml:"color"`
}

// Params configures a deconvolution run.
type Params struct {
	// Preset names a built-in stain combination. Ignored when Stains is set.
	Preset string `toml:"preset"`

	// Stains lists explicit stain vectors, 1 to 3 of them.
	Stains []StainSpec `toml:"stain"`

	// Cross selects cross-product completion of a missing third stain;
	// false selects the legacy complement rule.
	Cross bool `toml:"cross"`

	OutputDir string `toml:"output_dir"`
	Format    string `toml:"format"`    // "png" or "tiff"
	Composite bool   `toml:"composite"` // also write a recombined preview
	Workers   int    `toml:"workers"`
	BatchRows int    `toml:"batch_rows"`
	LogLevel  string `toml:"log_level"`
}

// DefaultParams returns H&E with cross-product completion, writing PNG next
// to the working directory.
func DefaultParams() Params {
	return Params{
		Preset:    "H&E",
		Cross:     true,
		OutputDir: ".",
		Format:    "png",
		Workers:   0, // GOMAXPROCS
		BatchRows: 16,
		LogLevel:  "info",
	}
}

// Load reads a TOML file over DefaultParams.
func Load(path string) (Params, error) {
	p := DefaultParams()
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return Params{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Params{}, fmt.Errorf("config %s: unknown keys %v", path, undecoded)
	}
	return p, p.Validate()
}

// WithPreset returns a copy of p using a built-in preset.
func (p Params) WithPreset(name string) Params {
	p.Preset = name
	p.Stains = nil
	return p
}

// WithVectors returns a copy of p with explicit stain vectors.
func (p Params) WithVectors(vectors ...stain.Vector) Params {
	p.Stains = make([]StainSpec, len(vectors))
	for i, v := range vectors {
		p.Stains[i] = StainSpec{Vector: []float64{v.R, v.G, v.B}}
	}
	return p
}

// Extension returns the output file extension including the dot.
func (p Params) Extension() string {
	if strings.EqualFold(p.Format, "tiff") || strings.EqualFold(p.Format, "tif") {
		return ".tif"
	}
	return ".png"
}

// Validate checks the parameters without building the matrix.
func (p Params) Validate() error {
	switch strings.ToLower(p.Format) {
	case "png", "tif", "tiff":
	default:
		return fmt.Errorf("unsupported output format %q", p.Format)
	}
	if p.BatchRows < 0 {
		return fmt.Errorf("batch_rows must not be negative, got %d", p.BatchRows)
	}
	_, err := p.VectorSet()
	return err
}

// VectorSet resolves the configured stains.
func (p Params) VectorSet() (stain.VectorSet, error) {
	completion := stain.CompleteComplement
	if p.Cross {
		completion = stain.CompleteCross
	}

	if len(p.Stains) == 0 {
		preset, ok := stain.LookupPreset(p.Preset)
		if !ok {
			return stain.VectorSet{}, fmt.Errorf("%w: %q", ErrUnknownPreset, p.Preset)
		}
		set := preset.VectorSet()
		set.Completion = completion
		return set, nil
	}

	vectors := make([]stain.Vector, len(p.Stains))
	for i, s := range p.Stains {
		v, err := s.resolve()
		if err != nil {
			return stain.VectorSet{}, fmt.Errorf("stain %d: %w", i+1, err)
		}
		vectors[i] = v
	}
	return stain.VectorSet{Vectors: vectors, Completion: completion}, nil
}

// StainNames returns a display name for each supplied stain.
func (p Params) StainNames() []string {
	if len(p.Stains) == 0 {
		if preset, ok := stain.LookupPreset(p.Preset); ok {
			return preset.Stains
		}
		return nil
	}
	names := make([]string, len(p.Stains))
	for i, s := range p.Stains {
		names[i] = s.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("Stain %d", i+1)
		}
	}
	return names
}

func (s StainSpec) resolve() (stain.Vector, error) {
	switch {
	case s.Color != "" && len(s.Vector) > 0:
		return stain.Vector{}, errors.New("set either vector or color, not both")
	case s.Color != "":
		return stain.FromHex(s.Color)
	case len(s.Vector) == 3:
		return stain.Vector{R: s.Vector[0], G: s.Vector[1], B: s.Vector[2]}, nil
	default:
		return stain.Vector{}, fmt.Errorf("vector needs 3 components, got %d", len(s.Vector))
	}
}

// ParseVectors parses "r,g,b;r,g,b" into stain vectors.
func ParseVectors(s string) ([]stain.Vector, error) {
	var vectors []stain.Vector
	for i, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("vector %d: want 3 comma-separated values, got %q", i+1, part)
		}
		var c [3]float64
		for j, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("vector %d: %w", i+1, err)
			}
			c[j] = v
		}
		vectors = append(vectors, stain.Vector{R: c[0], G: c[1], B: c[2]})
	}
	if len(vectors) == 0 {
		return nil, errors.New("no vectors given")
	}
	return vectors, nil
}
