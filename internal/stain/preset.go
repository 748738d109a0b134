package stain

import (
	"sort"
	"strings"
)

// Preset is a named, built-in stain combination.
type Preset struct {
	Name    string
	Stains  []string // stain names, one per vector
	Vectors []Vector
}

// VectorSet returns the preset as a set using cross-product completion.
func (p Preset) VectorSet() VectorSet {
	vs := make([]Vector, len(p.Vectors))
	copy(vs, p.Vectors)
	return NewVectorSet(vs...)
}

var (
	hematoxylin = Vector{R: 0.650, G: 0.704, B: 0.286}
	dab         = Vector{R: 0.268, G: 0.570, B: 0.776}
)

// Published vectors from Ruifrok & Johnston and the ImageJ plugin.
var presets = []Preset{
	{
		Name:    "H&E",
		Stains:  []string{"Hematoxylin", "Eosin"},
		Vectors: []Vector{{0.644211, 0.716556, 0.266844}, {0.092789, 0.954111, 0.283111}},
	},
	{
		Name:    "H&E 2",
		Stains:  []string{"Hematoxylin", "Eosin"},
		Vectors: []Vector{{0.49015734, 0.76897085, 0.41040173}, {0.04615336, 0.8420684, 0.5373925}},
	},
	{
		Name:    "H DAB",
		Stains:  []string{"Hematoxylin", "DAB"},
		Vectors: []Vector{hematoxylin, dab},
	},
	{
		Name:    "H&E DAB",
		Stains:  []string{"Hematoxylin", "Eosin", "DAB"},
		Vectors: []Vector{hematoxylin, {0.072, 0.990, 0.105}, dab},
	},
	{
		Name:    "H AEC",
		Stains:  []string{"Hematoxylin", "AEC"},
		Vectors: []Vector{hematoxylin, {0.2743, 0.6796, 0.6803}},
	},
	{
		Name:    "Feulgen Light Green",
		Stains:  []string{"Feulgen", "Light Green"},
		Vectors: []Vector{{0.46420921, 0.83008335, 0.30827187}, {0.94705542, 0.25373821, 0.19650764}},
	},
	{
		Name:    "Giemsa",
		Stains:  []string{"Methylene Blue", "Eosin"},
		Vectors: []Vector{{0.834750233, 0.513556283, 0.196330403}, {0.092789, 0.954111, 0.283111}},
	},
	{
		Name:    "FastRed FastBlue DAB",
		Stains:  []string{"Fast Red", "Fast Blue", "DAB"},
		Vectors: []Vector{{0.21393921, 0.85112669, 0.47794022}, {0.74890292, 0.60624161, 0.26731082}, dab},
	},
	{
		Name:    "Methyl Green DAB",
		Stains:  []string{"Methyl Green", "DAB"},
		Vectors: []Vector{{0.98003, 0.144316, 0.133146}, dab},
	},
	{
		Name:    "Azan-Mallory",
		Stains:  []string{"Aniline Blue", "Azocarmine", "Orange-G"},
		Vectors: []Vector{{0.853033, 0.508733, 0.112656}, {0.09289875, 0.8662008, 0.49098468}, {0.10732849, 0.36765403, 0.9237484}},
	},
	{
		Name:    "Alcian blue & H",
		Stains:  []string{"Alcian Blue", "Hematoxylin"},
		Vectors: []Vector{{0.874622, 0.457711, 0.158256}, {0.552556, 0.7544, 0.353744}},
	},
	{
		Name:    "H PAS",
		Stains:  []string{"Hematoxylin", "PAS"},
		Vectors: []Vector{{0.644211, 0.716556, 0.266844}, {0.175411, 0.972178, 0.154589}},
	},
	{
		Name:    "Masson Trichrome",
		Stains:  []string{"Methyl Blue", "Ponceau Fuchsin"},
		Vectors: []Vector{{0.7995107, 0.5913521, 0.10528667}, {0.09997159, 0.73738605, 0.6680326}},
	},
	{
		Name:    "Brilliant_Blue",
		Stains:  []string{"Brilliant Blue 1", "Brilliant Blue 2", "Brilliant Blue 3"},
		Vectors: []Vector{{0.31465548, 0.6602395, 0.68196464}, {0.383573, 0.5271141, 0.7583024}, {0.7433543, 0.51731443, 0.4240403}},
	},
	{
		Name:    "RGB",
		Stains:  []string{"Red", "Green", "Blue"},
		Vectors: []Vector{{0, 1, 1}, {1, 0, 1}, {1, 1, 0}},
	},
	{
		Name:    "CMY",
		Stains:  []string{"Cyan", "Magenta", "Yellow"},
		Vectors: []Vector{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	},
}

// LookupPreset finds a preset by name, ignoring case and surrounding space.
func LookupPreset(name string) (Preset, bool) {
	key := strings.TrimSpace(name)
	for _, p := range presets {
		if strings.EqualFold(p.Name, key) {
			return p, true
		}
	}
	return Preset{}, false
}

// PresetNames returns the names of all built-in presets, sorted.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	sort.Strings(names)
	return names
}
