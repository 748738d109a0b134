// Command deconvolve separates a stained RGB image into three stain channels
// and writes each one as a pseudo-coloured 8-bit image.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"colour-deconvolution/internal/config"
	"colour-deconvolution/internal/cvmat"
	"colour-deconvolution/internal/deconv"
	cdimage "colour-deconvolution/internal/image"
	"colour-deconvolution/internal/logger"
	"colour-deconvolution/internal/project"
	"colour-deconvolution/internal/stain"
	"colour-deconvolution/internal/version"
)

const appTitle = "Colour Deconvolution"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Deconvolution failed: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, deconvolves the image and writes the channel files.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("deconvolve", flag.ContinueOnError)
	imagePath := fs.String("image", "", "Path to stained RGB image (TIFF, PNG, or JPEG)")
	configPath := fs.String("config", "", "TOML configuration file")
	preset := fs.String("preset", "", "Built-in stain preset (see -list)")
	vectors := fs.String("vectors", "", `Explicit stain vectors "r,g,b;r,g,b[;r,g,b]"`)
	complement := fs.Bool("complement", false, "Complete a missing third stain with the legacy complement rule instead of the cross product")
	outDir := fs.String("out", "", "Output directory")
	format := fs.String("format", "", "Output format: png or tiff")
	workers := fs.Int("workers", 0, "Worker goroutines (0 = GOMAXPROCS)")
	composite := fs.Bool("composite", false, "Also write a recombined preview of the three channels")
	useOpenCV := fs.Bool("opencv", false, "Read the input and write colourized outputs with OpenCV instead of the Go codecs")
	manifest := fs.Bool("manifest", false, "Also write a JSON manifest describing the run")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	list := fs.Bool("list", false, "List built-in stain presets and exit")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", appTitle, version.String())
		return nil
	}
	if *list {
		for _, name := range stain.PresetNames() {
			p, _ := stain.LookupPreset(name)
			fmt.Fprintf(stdout, "%-22s %s\n", name, strings.Join(p.Stains, ", "))
		}
		return nil
	}
	if *imagePath == "" {
		fs.Usage()
		return errors.New("-image is required")
	}
	if !cdimage.IsSupportedFormat(*imagePath) {
		return fmt.Errorf("unsupported image format %q (supported: %s)",
			filepath.Ext(*imagePath), strings.Join(cdimage.SupportedFormats(), ", "))
	}

	params := config.DefaultParams()
	if *configPath != "" {
		var err error
		if params, err = config.Load(*configPath); err != nil {
			return err
		}
	}

	// Flags given explicitly override the configuration file.
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "preset":
			params = params.WithPreset(*preset)
		case "vectors":
			vs, err := config.ParseVectors(*vectors)
			if err != nil {
				parseErr = fmt.Errorf("-vectors: %w", err)
				return
			}
			params = params.WithVectors(vs...)
		case "complement":
			params.Cross = !*complement
		case "out":
			params.OutputDir = *outDir
		case "format":
			params.Format = *format
		case "workers":
			params.Workers = *workers
		case "composite":
			params.Composite = *composite
		case "log-level":
			params.LogLevel = *logLevel
		}
	})
	if parseErr != nil {
		return parseErr
	}
	if err := params.Validate(); err != nil {
		return err
	}

	level, err := logger.ParseLevel(params.LogLevel)
	if err != nil {
		return err
	}
	appLogger := logger.NewConsole(level)
	appLogger.Info("main", "starting", map[string]interface{}{
		"version": version.Version,
		"image":   *imagePath,
	})

	var src *cdimage.RGB
	if *useOpenCV {
		src, err = cvmat.Load(*imagePath)
	} else {
		src, err = cdimage.Load(*imagePath)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Loaded image: %dx%d pixels\n", src.Width, src.Height)

	set, err := params.VectorSet()
	if err != nil {
		return err
	}

	channels, m, err := deconv.Run(ctx, src, set,
		deconv.WithWorkers(params.Workers),
		deconv.WithBatchRows(params.BatchRows),
		deconv.WithLogger(appLogger),
	)
	if err != nil {
		return err
	}

	printMatrix(stdout, m, params.StainNames())

	if err := os.MkdirAll(params.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	var record *project.File
	manifestPath := cdimage.OutputPath(params.OutputDir, *imagePath, "Manifest", ".json")
	if *manifest {
		record = project.New(appTitle+" "+version.Version, m, set.Completion, params.StainNames())
		if len(params.Stains) == 0 {
			record.Preset = params.Preset
		}
		record.SetSource(manifestPath, *imagePath, src.Width, src.Height)
	}

	ext := params.Extension()
	for _, ch := range channels {
		path := cdimage.OutputPath(params.OutputDir, *imagePath, ch.Name, ext)
		if *useOpenCV {
			err = cvmat.SaveChannel(path, ch)
		} else {
			err = ch.Save(path)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path)
		if record != nil {
			record.AddOutput(manifestPath, path)
		}
	}

	if params.Composite {
		path := cdimage.OutputPath(params.OutputDir, *imagePath, "Composite", ext)
		preview := cdimage.NewComposite(channels[:]...).Render()
		if *useOpenCV {
			err = cvmat.SaveRGB(path, cdimage.FromImage(preview))
		} else {
			err = cdimage.SaveImage(path, preview)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path)
		if record != nil {
			record.AddOutput(manifestPath, path)
		}
	}

	if record != nil {
		if err := record.Save(manifestPath); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
		fmt.Fprintf(stdout, "Wrote %s\n", manifestPath)
	}
	return nil
}

// printMatrix reports the stain vectors in use, marking synthesized rows.
func printMatrix(w io.Writer, m *stain.Matrix, names []string) {
	fmt.Fprintf(w, "\nStain matrix (det %.4f):\n", m.Det)
	for i, v := range m.Rows {
		name := deconv.ChannelName(i)
		if i < len(names) {
			name = names[i]
		}
		note := ""
		if m.Synthesized(i) {
			note = " (synthesized)"
		}
		fmt.Fprintf(w, "  %-18s %s%s\n", name, v, note)
	}
	for _, warning := range m.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
}
