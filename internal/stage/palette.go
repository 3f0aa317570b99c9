package stage

// DefaultPalette is the color scheme used when a config names none or an unknown one.
const DefaultPalette = "aurora"

// Gradient is an ordered list of color stops sampled with At.
type Gradient []Color

// At returns the color at position t in [0,1], interpolating between stops.
func (g Gradient) At(t float64) Color {
	if len(g) == 0 {
		return Color{R: 255, G: 255, B: 255}
	}
	if len(g) == 1 {
		return g[0]
	}
	t = Clamp01(t)
	pos := t * float64(len(g)-1)
	i := int(pos)
	if i >= len(g)-1 {
		return g[len(g)-1]
	}
	return Lerp(g[i], g[i+1], pos-float64(i))
}

var paletteOrder = []string{"aurora", "heat", "ocean", "neon", "mono", "matrix"}

var palettes = map[string]Gradient{
	"aurora": {
		{R: 16, G: 25, B: 70},
		{R: 0, G: 174, B: 255},
		{R: 20, G: 255, B: 161},
		{R: 255, G: 230, B: 92},
	},
	"heat": {
		{R: 16, G: 25, B: 70},
		{R: 0, G: 174, B: 255},
		{R: 20, G: 255, B: 161},
		{R: 255, G: 230, B: 92},
		{R: 255, G: 80, B: 60},
	},
	"ocean": {
		{R: 8, G: 20, B: 48},
		{R: 24, G: 90, B: 160},
		{R: 80, G: 200, B: 230},
		{R: 220, G: 250, B: 255},
	},
	"neon": {
		{R: 90, G: 10, B: 140},
		{R: 242, G: 40, B: 200},
		{R: 255, G: 170, B: 60},
	},
	"mono": {
		{R: 60, G: 60, B: 60},
		{R: 235, G: 235, B: 235},
	},
	"matrix": {
		{R: 0, G: 60, B: 10},
		{R: 30, G: 200, B: 70},
		{R: 200, G: 255, B: 210},
	},
}

// Palette returns the gradient registered under name, falling back to DefaultPalette.
func Palette(name string) Gradient {
	if g, ok := palettes[name]; ok {
		return g
	}
	return palettes[DefaultPalette]
}

// HasPalette reports whether name is a known color scheme.
func HasPalette(name string) bool {
	_, ok := palettes[name]
	return ok
}

// PaletteNames lists the color schemes in a stable order.
func PaletteNames() []string {
	out := make([]string, len(paletteOrder))
	copy(out, paletteOrder)
	return out
}
