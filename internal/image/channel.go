package image

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"colour-deconvolution/internal/lut"

	"golang.org/x/image/tiff"
)

// Channel is one deconvolved stain: an 8-bit single-channel raster plus the
// display table used to pseudo-colour it.
type Channel struct {
	Name   string
	Width  int
	Height int
	Pix    []uint8
	LUT    lut.Table
}

// NewChannel allocates a w×h channel with a grayscale table.
func NewChannel(name string, w, h int) *Channel {
	return &Channel{
		Name:   name,
		Width:  w,
		Height: h,
		Pix:    make([]uint8, w*h),
		LUT:    lut.Gray(),
	}
}

// Row returns the samples of row y.
func (c *Channel) Row(y int) []uint8 {
	return c.Pix[y*c.Width : (y+1)*c.Width]
}

// ValueAt returns the intensity at (x, y), or 0 outside the raster.
func (c *Channel) ValueAt(x, y int) uint8 {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return 0
	}
	return c.Pix[y*c.Width+x]
}

// Gray returns the raw intensities as a grayscale image sharing Pix.
func (c *Channel) Gray() *image.Gray {
	return &image.Gray{Pix: c.Pix, Stride: c.Width, Rect: image.Rect(0, 0, c.Width, c.Height)}
}

// Paletted returns the channel as a paletted image sharing Pix, so encoders
// store the intensities together with the pseudo-colour table.
func (c *Channel) Paletted() *image.Paletted {
	return &image.Paletted{
		Pix:     c.Pix,
		Stride:  c.Width,
		Rect:    image.Rect(0, 0, c.Width, c.Height),
		Palette: c.LUT.Palette(),
	}
}

// Colorized renders the channel through its table into an RGBA image.
func (c *Channel) Colorized() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := 0; y < c.Height; y++ {
		for x, v := range c.Row(y) {
			dst.SetRGBA(x, y, c.LUT.At(v))
		}
	}
	return dst
}

// Save writes the paletted channel to path. The format follows the file
// extension: .png, .tif or .tiff.
func (c *Channel) Save(path string) error {
	return SaveImage(path, c.Paletted())
}

// SaveImage encodes img to path by extension.
func SaveImage(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		err = png.Encode(file, img)
	case ".tif", ".tiff":
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = fmt.Errorf("unsupported output format %q", ext)
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

// OutputPath names a channel file after its source the way ImageJ does:
// "slide.tif" and "Colour_1" give "dir/slide-(Colour_1).png".
func OutputPath(dir, source, channel, ext string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		base = "image"
	}
	return filepath.Join(dir, fmt.Sprintf("%s-(%s)%s", base, channel, ext))
}

// ColorModel implements image.Image.
func (c *Channel) ColorModel() color.Model { return c.LUT.Palette() }

// Bounds implements image.Image.
func (c *Channel) Bounds() image.Rectangle { return image.Rect(0, 0, c.Width, c.Height) }

// At implements image.Image using the pseudo-colour table.
func (c *Channel) At(x, y int) color.Color {
	return c.LUT.At(c.ValueAt(x, y))
}
