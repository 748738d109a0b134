// Package deconv drives colour deconvolution over a whole image: it builds
// the stain matrix, unmixes every pixel in parallel and attaches the
// pseudo-colour tables to the three output channels.
package deconv

import (
	"context"
	"errors"
	"fmt"
	"time"

	cdimage "colour-deconvolution/internal/image"
	"colour-deconvolution/internal/density"
	"colour-deconvolution/internal/logger"
	"colour-deconvolution/internal/lut"
	"colour-deconvolution/internal/stain"
	"colour-deconvolution/internal/workerpool"
)

const component = "deconv"

// ErrInvalidSource is returned for a nil source or a buffer that does not
// match its dimensions.
var ErrInvalidSource = errors.New("invalid source image")

// Options configures Assemble and Run.
type Options struct {
	Pool      *workerpool.Pool
	Workers   int
	BatchRows int
	Logger    logger.Logger
}

// Option modifies Options.
type Option func(*Options)

// WithPool reuses an existing worker pool instead of creating one per call.
func WithPool(p *workerpool.Pool) Option {
	return func(o *Options) { o.Pool = p }
}

// WithWorkers sets the number of workers for a per-call pool.
// Values <= 0 select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithBatchRows sets how many rows a worker claims at a time. This is also
// the cancellation granularity.
func WithBatchRows(n int) Option {
	return func(o *Options) { o.BatchRows = n }
}

// WithLogger routes progress and warnings to l.
func WithLogger(l logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func defaultOptions() Options {
	return Options{BatchRows: 16, Logger: logger.Nop()}
}

// ChannelName returns the display name of output channel k (0-based).
func ChannelName(k int) string {
	return fmt.Sprintf("Colour_%d", k+1)
}

// Run builds the stain matrix from set and deconvolves src with it.
// A matrix error aborts before any pixel is processed.
func Run(ctx context.Context, src *cdimage.RGB, set stain.VectorSet, opts ...Option) ([3]*cdimage.Channel, *stain.Matrix, error) {
	m, err := stain.Build(set)
	if err != nil {
		return [3]*cdimage.Channel{}, nil, fmt.Errorf("failed to build stain matrix: %w", err)
	}
	channels, err := Assemble(ctx, src, m, opts...)
	if err != nil {
		return [3]*cdimage.Channel{}, nil, err
	}
	return channels, m, nil
}

// Assemble unmixes src with m and returns the three stain channels. Either
// all three channels are returned or none.
func Assemble(ctx context.Context, src *cdimage.RGB, m *stain.Matrix, opts ...Option) ([3]*cdimage.Channel, error) {
	var none [3]*cdimage.Channel

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if m == nil {
		return none, fmt.Errorf("%w: nil matrix", stain.ErrInvalidStainMatrix)
	}
	if !src.Valid() {
		return none, ErrInvalidSource
	}

	for _, w := range m.Warnings {
		o.Logger.Warning(component, w, nil)
	}

	pool := o.Pool
	if pool == nil {
		pool = workerpool.New(o.Workers)
		defer pool.Close()
	}

	o.Logger.Debug(component, "unmixing", map[string]interface{}{
		"width":   src.Width,
		"height":  src.Height,
		"workers": pool.NumWorkers(),
		"det":     m.Det,
	})
	started := time.Now()

	var channels [3]*cdimage.Channel
	for k := range channels {
		channels[k] = cdimage.NewChannel(ChannelName(k), src.Width, src.Height)
	}

	q := &m.Q
	err := pool.ForEachBatch(ctx, src.Height, o.BatchRows, func(start, end int) {
		for y := start; y < end; y++ {
			density.UnmixRow(src.Row(y), q, channels[0].Row(y), channels[1].Row(y), channels[2].Row(y))
		}
	})
	if err != nil {
		return none, fmt.Errorf("deconvolution interrupted: %w", err)
	}

	tables := lut.Build(m.CosX, m.CosY, m.CosZ)
	for k, ch := range channels {
		ch.LUT = tables[k]
	}

	o.Logger.Info(component, "deconvolution complete", map[string]interface{}{
		"pixels":  src.Width * src.Height,
		"elapsed": time.Since(started).String(),
	})
	return channels, nil
}
