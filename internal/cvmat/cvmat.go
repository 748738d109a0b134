// Package cvmat converts between OpenCV matrices and the deconvolution
// rasters, so hosts already working in gocv can feed and consume channels
// without going through image.Image.
package cvmat

import (
	"fmt"

	cdimage "colour-deconvolution/internal/image"

	"gocv.io/x/gocv"
)

// Load reads an image file with OpenCV and returns it as RGB.
func Load(path string) (*cdimage.RGB, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to read image %s", path)
	}

	rgb, err := RGBFromMat(mat)
	if err != nil {
		return nil, err
	}
	rgb.Path = path
	return rgb, nil
}

// RGBFromMat copies an 8-bit BGR matrix into an RGB raster.
func RGBFromMat(mat gocv.Mat) (*cdimage.RGB, error) {
	if mat.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("expected CV_8UC3 matrix, got type %v", mat.Type())
	}

	h, w := mat.Rows(), mat.Cols()
	rgb := cdimage.NewRGB(w, h)
	for y := 0; y < h; y++ {
		row := rgb.Row(y)
		for x := 0; x < w; x++ {
			row[3*x+0] = mat.GetUCharAt(y, x*3+2)
			row[3*x+1] = mat.GetUCharAt(y, x*3+1)
			row[3*x+2] = mat.GetUCharAt(y, x*3+0)
		}
	}
	return rgb, nil
}

// MatFromRGB converts an RGB raster to a gocv.Mat in BGR format.
// The caller owns the returned matrix.
func MatFromRGB(rgb *cdimage.RGB) gocv.Mat {
	mat := gocv.NewMatWithSize(rgb.Height, rgb.Width, gocv.MatTypeCV8UC3)
	for y := 0; y < rgb.Height; y++ {
		row := rgb.Row(y)
		for x := 0; x < rgb.Width; x++ {
			mat.SetUCharAt(y, x*3+0, row[3*x+2])
			mat.SetUCharAt(y, x*3+1, row[3*x+1])
			mat.SetUCharAt(y, x*3+2, row[3*x+0])
		}
	}
	return mat
}

// ChannelMat returns the raw intensities of ch as a CV_8UC1 matrix.
// The caller owns the returned matrix.
func ChannelMat(ch *cdimage.Channel) (gocv.Mat, error) {
	if len(ch.Pix) == 0 {
		return gocv.NewMat(), nil
	}
	view, err := gocv.NewMatFromBytes(ch.Height, ch.Width, gocv.MatTypeCV8U, ch.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap channel %s: %w", ch.Name, err)
	}
	defer view.Close()
	// The view may reference ch.Pix; hand back an owned copy.
	return view.Clone(), nil
}

// ColormapMat returns the channel's display table as the 256×1 BGR matrix
// expected by gocv.ApplyCustomColorMap. The caller owns the returned matrix.
func ColormapMat(ch *cdimage.Channel) gocv.Mat {
	lut := gocv.NewMatWithSize(256, 1, gocv.MatTypeCV8UC3)
	for i := 0; i < 256; i++ {
		lut.SetUCharAt(i, 0, ch.LUT.B[i])
		lut.SetUCharAt(i, 1, ch.LUT.G[i])
		lut.SetUCharAt(i, 2, ch.LUT.R[i])
	}
	return lut
}

// ColorizedMat renders ch through its display table into a BGR matrix.
// The caller owns the returned matrix.
func ColorizedMat(ch *cdimage.Channel) (gocv.Mat, error) {
	src, err := ChannelMat(ch)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer src.Close()

	cmap := ColormapMat(ch)
	defer cmap.Close()

	dst := gocv.NewMat()
	gocv.ApplyCustomColorMap(src, &dst, cmap)
	return dst, nil
}

// SaveChannel writes ch through its display table with OpenCV. The format
// follows the extension of path.
func SaveChannel(path string, ch *cdimage.Channel) error {
	mat, err := ColorizedMat(ch)
	if err != nil {
		return err
	}
	defer mat.Close()

	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}

// SaveRGB writes rgb with OpenCV.
func SaveRGB(path string, rgb *cdimage.RGB) error {
	mat := MatFromRGB(rgb)
	defer mat.Close()

	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}
