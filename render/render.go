// Package render draws obstruction diagrams of planned points.
package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/larschri/horisont/plan"
)

// cutoffAlpha is the opacity of the cut-off band drawn over open sky.
const cutoffAlpha = 0.35

// angleAt interpolates the skyline of res at azimuth az (gon). Azimuths wrap
// around 400 gon.
func angleAt(res plan.Result, az float64) float64 {
	n := len(res.Angles)
	if n == 0 {
		return math.Inf(-1)
	}
	f := math.Mod(az, 400) / (400 / float64(n))
	if f < 0 {
		f += float64(n)
	}
	i := int(f) % n
	t := f - math.Floor(f)
	return (1-t)*res.Angles[i] + t*res.Angles[(i+1)%n]
}

// pixel colours the sky position at elevation e (gon) under a skyline at
// angle gon.
func pixel(e, angle, cutoff float64) color.RGBA {
	switch {
	case e <= angle:
		return terrain.getRGB(angle, (angle-e)/angle).getColor(255)
	case e <= cutoff:
		return sky.scale(1 - cutoffAlpha).add(red.scale(cutoffAlpha)).getColor(255)
	}
	return sky.getColor(255)
}

// Panorama draws the skyline of res unrolled from north through east, south
// and west back to north. The vertical axis runs from the horizon at the
// bottom to the zenith at the top. Sky below cutoff gon is tinted red.
func Panorama(res plan.Result, cutoff float64, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for x := 0; x < width; x++ {
		angle := angleAt(res, 400*(float64(x)+0.5)/float64(width))
		for y := 0; y < height; y++ {
			e := 100 * (float64(height-y) - 0.5) / float64(height)
			img.SetRGBA(x, y, pixel(e, angle, cutoff))
		}
	}
	return img
}

// Polar draws the sky of res as seen from below: zenith in the centre,
// horizon on the rim, north up and azimuth increasing clockwise. Pixels
// outside the rim are transparent.
func Polar(res plan.Result, cutoff float64, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	radius := float64(size) / 2

	for y := 0; y < size; y++ {
		dn := radius - (float64(y) + 0.5)
		for x := 0; x < size; x++ {
			de := float64(x) + 0.5 - radius
			r := math.Hypot(de, dn) / radius
			if r > 1 {
				continue
			}
			az := math.Atan2(de, dn) * 200 / math.Pi
			if az < 0 {
				az += 400
			}
			img.SetRGBA(x, y, pixel(100*(1-r), angleAt(res, az), cutoff))
		}
	}
	return img
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}
