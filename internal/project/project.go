// Package project records a deconvolution run as a JSON manifest written
// next to the channel images.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"colour-deconvolution/internal/lut"
	"colour-deconvolution/internal/stain"
)

// File is the manifest of one deconvolution run (.deconv.json).
type File struct {
	Version  int       `json:"version"`
	Created  time.Time `json:"created"`
	Software string    `json:"software"`

	// SourcePath is relative to the manifest when possible.
	SourcePath string `json:"source"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`

	Preset     string        `json:"preset,omitempty"`
	Completion string        `json:"completion"`
	Stains     []StainRecord `json:"stains"`

	Determinant  float64    `json:"determinant"`
	Coefficients [9]float64 `json:"coefficients"`
	Warnings     []string   `json:"warnings,omitempty"`

	// Outputs are channel image paths relative to the manifest.
	Outputs []string `json:"outputs"`
}

// StainRecord describes one row of the stain matrix.
type StainRecord struct {
	Name        string       `json:"name"`
	Vector      stain.Vector `json:"vector"`
	Synthesized bool         `json:"synthesized"`
	Dye         string       `json:"dye"` // "#rrggbb" at full strength
}

// New creates a manifest from a built matrix.
func New(software string, m *stain.Matrix, completion stain.Completion, names []string) *File {
	f := &File{
		Version:      1,
		Created:      time.Now().UTC(),
		Software:     software,
		Completion:   completion.String(),
		Determinant:  m.Det,
		Coefficients: m.Q,
		Warnings:     m.Warnings,
	}
	for i, v := range m.Rows {
		table := lut.ForStain(v.R, v.G, v.B)
		rec := StainRecord{Vector: v, Synthesized: m.Synthesized(i), Dye: table.Dye().Hex()}
		if i < len(names) {
			rec.Name = names[i]
		}
		f.Stains = append(f.Stains, rec)
	}
	return f
}

// Load loads a manifest from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Save writes the manifest to path.
func (f *File) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetSource records the source image relative to the manifest.
func (f *File) SetSource(manifestPath, imagePath string, width, height int) {
	f.SourcePath = relativeTo(manifestPath, imagePath)
	f.Width, f.Height = width, height
}

// AddOutput records a written channel image relative to the manifest.
func (f *File) AddOutput(manifestPath, outputPath string) {
	f.Outputs = append(f.Outputs, relativeTo(manifestPath, outputPath))
}

// ResolvePath returns rel as an absolute path given the manifest location.
func ResolvePath(manifestPath, rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(filepath.Dir(manifestPath), rel)
}

func relativeTo(manifestPath, target string) string {
	abs, err := filepath.Abs(target)
	if err != nil {
		return target
	}
	dir, err := filepath.Abs(filepath.Dir(manifestPath))
	if err != nil {
		return target
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return target
	}
	return rel
}
