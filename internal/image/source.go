// Package image provides the RGB pixel source and single-channel output
// rasters used by the deconvolution pipeline, plus loading, saving and
// compositing helpers.
package image

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"colour-deconvolution/internal/density"
	"colour-deconvolution/pkg/colorutil"

	_ "golang.org/x/image/tiff"
)

// RGB is an 8-bit, 3-channel raster in row-major order without alpha.
// Pixel (x, y) occupies Pix[3*(y*Width+x) : 3*(y*Width+x)+3].
type RGB struct {
	Width  int
	Height int
	Pix    []uint8
	Path   string // source file, if loaded from disk
}

// NewRGB allocates a black w×h raster.
func NewRGB(w, h int) *RGB {
	if w < 0 || h < 0 {
		w, h = 0, 0
	}
	return &RGB{Width: w, Height: h, Pix: make([]uint8, 3*w*h)}
}

// Valid reports whether the buffer matches the declared dimensions.
func (r *RGB) Valid() bool {
	return r != nil && r.Width >= 0 && r.Height >= 0 && len(r.Pix) == 3*r.Width*r.Height
}

// Row returns the interleaved samples of row y.
func (r *RGB) Row(y int) []uint8 {
	start := 3 * y * r.Width
	return r.Pix[start : start+3*r.Width]
}

// PixelAt returns the pixel at (x, y). Out-of-range coordinates return black.
func (r *RGB) PixelAt(x, y int) density.Pixel {
	if x < 0 || x >= r.Width || y < 0 || y >= r.Height {
		return density.Pixel{}
	}
	i := 3 * (y*r.Width + x)
	return density.Pixel{r.Pix[i], r.Pix[i+1], r.Pix[i+2]}
}

// SetPixel writes the pixel at (x, y).
func (r *RGB) SetPixel(x, y int, p density.Pixel) {
	if x < 0 || x >= r.Width || y < 0 || y >= r.Height {
		return
	}
	i := 3 * (y*r.Width + x)
	r.Pix[i], r.Pix[i+1], r.Pix[i+2] = p[0], p[1], p[2]
}

// ColorModel implements image.Image.
func (r *RGB) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (r *RGB) Bounds() image.Rectangle { return image.Rect(0, 0, r.Width, r.Height) }

// At implements image.Image.
func (r *RGB) At(x, y int) color.Color {
	p := r.PixelAt(x, y)
	return color.RGBA{R: p[0], G: p[1], B: p[2], A: 0xff}
}

// FromImage copies any image into an RGB raster. Alpha is not kept; colours
// are read premultiplied, i.e. composited over black.
func FromImage(img image.Image) *RGB {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := NewRGB(w, h)

	if src, ok := img.(*image.RGBA); ok {
		for y := 0; y < h; y++ {
			off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			row := src.Pix[off : off+4*w]
			dst := out.Row(y)
			for x := 0; x < w; x++ {
				dst[3*x], dst[3*x+1], dst[3*x+2] = row[4*x], row[4*x+1], row[4*x+2]
			}
		}
		return out
	}

	for y := 0; y < h; y++ {
		dst := out.Row(y)
		for x := 0; x < w; x++ {
			r, g, b := colorutil.RGB8(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			dst[3*x], dst[3*x+1], dst[3*x+2] = r, g, b
		}
	}
	return out
}

// ToRGBA converts the raster to a standard library image.
func (r *RGB) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(r.Bounds())
	draw.Draw(dst, dst.Bounds(), r, image.Point{}, draw.Src)
	return dst
}

// Load decodes an image file into an RGB raster.
func Load(path string) (*RGB, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	rgb := FromImage(img)
	rgb.Path = path
	return rgb, nil
}

// inputFormats lists the extensions Load can decode.
var inputFormats = map[string]bool{
	".tif":  true,
	".tiff": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// SupportedFormats returns the decodable file extensions, sorted.
func SupportedFormats() []string {
	exts := make([]string, 0, len(inputFormats))
	for ext := range inputFormats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IsSupportedFormat reports whether path has an extension Load can decode.
func IsSupportedFormat(path string) bool {
	return inputFormats[strings.ToLower(filepath.Ext(path))]
}
