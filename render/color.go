package render

import "image/color"

// rgb is a colour accumulated with weight w. Adding weighted colours and
// normalizing gives their weighted mean.
type rgb struct {
	r float64
	g float64
	b float64
	w float64
}

func (c rgb) scale(s float64) rgb {
	return rgb{
		r: c.r * s,
		g: c.g * s,
		b: c.b * s,
		w: c.w * s,
	}
}

func (c rgb) add(c2 rgb) rgb {
	return rgb{
		r: c.r + c2.r,
		g: c.g + c2.g,
		b: c.b + c2.b,
		w: c.w + c2.w,
	}
}

var sky = rgb{r: 235, g: 244, b: 252, w: 1}

var red = rgb{r: 214, g: 39, b: 40, w: 1}

var black = rgb{0, 0, 0, 1}

func (c rgb) normalize() rgb {
	if c.w == 0 {
		return black
	}
	return rgb{
		c.r / c.w,
		c.g / c.w,
		c.b / c.w,
		1,
	}
}

func (c rgb) getColor(alpha uint8) color.RGBA {
	n := c.normalize()
	return color.RGBA{
		clamp(n.r),
		clamp(n.g),
		clamp(n.b),
		alpha}
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
