package image

import (
	"image"
	"image/color"
	"image/draw"
)

// BlendMode specifies how channels are composited.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	default:
		return "Unknown"
	}
}

// Composite recombines pseudo-coloured channels into one RGB image.
// Transmittances multiply under Beer-Lambert, so BlendMultiply over a white
// background approximates the original stained image.
type Composite struct {
	Width     int
	Height    int
	Channels  []*Channel
	Mode      BlendMode
	BackColor color.RGBA
}

// NewComposite creates a multiply composite of the given channels. The size
// is taken from the first channel.
func NewComposite(channels ...*Channel) *Composite {
	c := &Composite{
		Channels:  channels,
		Mode:      BlendMultiply,
		BackColor: color.RGBA{255, 255, 255, 255},
	}
	if len(channels) > 0 {
		c.Width, c.Height = channels[0].Width, channels[0].Height
	}
	return c
}

// Render produces the composited image.
func (c *Composite) Render() *image.RGBA {
	result := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(result, result.Bounds(), &image.Uniform{c.BackColor}, image.Point{}, draw.Src)

	for _, ch := range c.Channels {
		if ch == nil {
			continue
		}
		c.compositeChannel(result, ch)
	}
	return result
}

// compositeChannel blends one channel onto dst.
func (c *Composite) compositeChannel(dst *image.RGBA, ch *Channel) {
	h := min(c.Height, ch.Height)
	w := min(c.Width, ch.Width)
	for y := 0; y < h; y++ {
		row := ch.Row(y)
		for x := 0; x < w; x++ {
			off := dst.PixOffset(x, y)
			src := ch.LUT.At(row[x])
			px := dst.Pix[off : off+3]
			px[0] = blend(px[0], src.R, c.Mode)
			px[1] = blend(px[1], src.G, c.Mode)
			px[2] = blend(px[2], src.B, c.Mode)
		}
	}
}

// blend combines two 8-bit samples.
func blend(d, s uint8, mode BlendMode) uint8 {
	switch mode {
	case BlendMultiply:
		return uint8((uint32(d)*uint32(s) + 127) / 255)
	case BlendScreen:
		return 255 - uint8((uint32(255-d)*uint32(255-s)+127)/255)
	default:
		return s
	}
}
