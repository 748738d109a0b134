package main

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cdimage "colour-deconvolution/internal/image"
	"colour-deconvolution/internal/density"
	"colour-deconvolution/internal/project"
)

func writeSlide(t *testing.T, dir string) string {
	t.Helper()
	src := cdimage.NewRGB(4, 2)
	for x := 0; x < 4; x++ {
		src.SetPixel(x, 0, density.Pixel{220, 180, 200})
		src.SetPixel(x, 1, density.Pixel{255, 255, 255})
	}
	path := filepath.Join(dir, "slide.png")
	if err := cdimage.SaveImage(path, src.ToRGBA()); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunWritesChannels(t *testing.T) {
	dir := t.TempDir()
	slide := writeSlide(t, dir)
	out := filepath.Join(dir, "out")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-image", slide,
		"-vectors", "0.65,0.70,0.29;0.07,0.99,0.11",
		"-out", out,
		"-composite",
		"-log-level", "error",
	}, &stdout)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, stdout.String())
	}
	if !strings.Contains(stdout.String(), "(synthesized)") {
		t.Errorf("output does not mark the synthesized stain:\n%s", stdout.String())
	}

	want := [3]uint8{193, 217, 220}
	for k := 0; k < 3; k++ {
		path := filepath.Join(out, "slide-(Colour_"+string(rune('1'+k))+").png")
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("missing channel file: %v", err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}
		pal, ok := img.(*image.Paletted)
		if !ok {
			t.Fatalf("%s decoded as %T, want paletted", path, img)
		}
		if got := pal.ColorIndexAt(0, 0); got != want[k] {
			t.Errorf("channel %d pink = %d, want %d", k+1, got, want[k])
		}
		if got := pal.ColorIndexAt(0, 1); got != 255 {
			t.Errorf("channel %d white = %d, want 255", k+1, got)
		}
	}

	if _, err := os.Stat(filepath.Join(out, "slide-(Composite).png")); err != nil {
		t.Errorf("composite not written: %v", err)
	}
}

func TestRunConfigAndFlagOverride(t *testing.T) {
	dir := t.TempDir()
	slide := writeSlide(t, dir)
	cfg := filepath.Join(dir, "run.toml")
	body := "preset = \"H DAB\"\nformat = \"tiff\"\nlog_level = \"error\"\noutput_dir = \"" + filepath.ToSlash(filepath.Join(dir, "cfg")) + "\"\n"
	if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	if err := run(context.Background(), []string{"-image", slide, "-config", cfg, "-format", "png"}, &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "cfg", "slide-(Colour_1).png")); err != nil {
		t.Errorf("flag did not override config format: %v", err)
	}
	if !strings.Contains(stdout.String(), "DAB") {
		t.Errorf("stain names missing from output:\n%s", stdout.String())
	}
}

func TestRunWritesManifest(t *testing.T) {
	dir := t.TempDir()
	slide := writeSlide(t, dir)
	out := filepath.Join(dir, "out")

	if err := run(context.Background(), []string{
		"-image", slide, "-preset", "H DAB", "-out", out, "-manifest", "-log-level", "error",
	}, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	path := filepath.Join(out, "slide-(Manifest).json")
	f, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Preset != "H DAB" || f.Width != 4 || f.Height != 2 {
		t.Errorf("manifest = %+v", f)
	}
	if len(f.Outputs) != 3 {
		t.Fatalf("Outputs = %v, want 3 channels", f.Outputs)
	}
	for _, rel := range f.Outputs {
		if _, err := os.Stat(project.ResolvePath(path, rel)); err != nil {
			t.Errorf("manifest output %q: %v", rel, err)
		}
	}
	if _, err := os.Stat(project.ResolvePath(path, f.SourcePath)); err != nil {
		t.Errorf("manifest source %q: %v", f.SourcePath, err)
	}
}

func TestRunOpenCVWritesColourizedChannels(t *testing.T) {
	dir := t.TempDir()
	slide := writeSlide(t, dir)
	out := filepath.Join(dir, "cv")

	if err := run(context.Background(), []string{
		"-image", slide, "-preset", "H&E", "-out", out, "-opencv", "-composite", "-log-level", "error",
	}, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	for k := 0; k < 3; k++ {
		path := filepath.Join(out, "slide-(Colour_"+string(rune('1'+k))+").png")
		img, err := cdimage.Load(path)
		if err != nil {
			t.Fatalf("channel %d: %v", k+1, err)
		}
		// White background maps to the white end of every table.
		if got := img.PixelAt(0, 1); got != (density.Pixel{255, 255, 255}) {
			t.Errorf("channel %d white = %v, want white", k+1, got)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "slide-(Composite).png")); err != nil {
		t.Errorf("composite not written: %v", err)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	slide := writeSlide(t, dir)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no image", nil, "-image is required"},
		{"bad preset", []string{"-image", slide, "-preset", "Nope"}, "unknown stain preset"},
		{"bad vectors", []string{"-image", slide, "-vectors", "1,2"}, "-vectors"},
		{"singular", []string{"-image", slide, "-vectors", "1,0,0;2,0,0", "-log-level", "error"}, "singular"},
		{"missing image", []string{"-image", filepath.Join(dir, "none.png")}, "failed to open image"},
		{"unsupported format", []string{"-image", filepath.Join(dir, "slide.bmp")}, "unsupported image format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), append(tt.args, "-out", filepath.Join(dir, "x")), &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestRunListAndVersion(t *testing.T) {
	var stdout bytes.Buffer
	if err := run(context.Background(), []string{"-list"}, &stdout); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "H&E DAB") {
		t.Errorf("-list output missing presets:\n%s", stdout.String())
	}

	stdout.Reset()
	if err := run(context.Background(), []string{"-version"}, &stdout); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout.String(), appTitle) {
		t.Errorf("-version output = %q", stdout.String())
	}
}
