package render

import (
	"github.com/lucasb-eyer/go-colorful"
)

// gradient is indexed by obstruction angle along the first axis and by
// depth below the skyline along the second.
type gradient struct {
	gradient [][]rgb
}

var terrain gradient

func hcl1(h, c, l float64) rgb {
	cl := colorful.Hcl(h, c, l).Clamped()
	return rgb{255 * cl.R, 255 * cl.G, 255 * cl.B, 2}
}

func hcl2(h, c, l float64) []rgb {
	return []rgb{hcl1(h, c, l), hcl1(h, c, l-0.5)}
}

func init() {
	var g [][]rgb
	g = append(g, hcl2(130, 0.45, 0.85))
	g = append(g, hcl2(110, 0.45, 0.85))
	g = append(g, hcl2(90, 0.45, 0.85))
	g = append(g, hcl2(70, 0.45, 0.85))
	g = append(g, hcl2(55, 0.45, 0.8))
	g = append(g, hcl2(40, 0.45, 0.75))
	g = append(g, hcl2(30, 0.4, 0.7))
	g = append(g, hcl2(20, 0.35, 0.65))
	terrain.gradient = g
}

func intAndFraction(value float64, max float64, length int) (int, float64) {

	if value <= 0 {
		return 0, 0
	}

	if value >= max {
		return length - 2, 1
	}

	r := float64(length-1) * value / max
	i := int(r)
	return i, r - float64(i)
}

// getRGB blends the colour for terrain whose skyline is at angle gon, seen
// at the given depth (0 at the skyline, 1 at the horizon).
func (g gradient) getRGB(angle, depth float64) rgb {

	ia, ra := intAndFraction(angle, 100, len(g.gradient))
	id, rd := intAndFraction(depth, 1, len(g.gradient[0]))

	c1 := g.gradient[ia][id].scale(1 - ra).add(g.gradient[ia+1][id].scale(ra))
	c2 := g.gradient[ia][id+1].scale(1 - ra).add(g.gradient[ia+1][id+1].scale(ra))

	return c1.scale(1 - rd).add(c2.scale(rd))
}
