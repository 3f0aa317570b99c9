package rotation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/visualizer"
)

// randomValue draws a value for f that respects its bounds, step and
// options. Fields without enough information to draw from are skipped.
func randomValue(rng *rand.Rand, f visualizer.Field) (any, bool) {
	switch f.Type {
	case visualizer.FieldNumber:
		if f.Min == nil || f.Max == nil || *f.Max < *f.Min {
			return nil, false
		}
		lo, hi := *f.Min, *f.Max
		v := lo + rng.Float64()*(hi-lo)
		if f.Step != nil && *f.Step > 0 {
			step := *f.Step
			steps := math.Floor((hi - lo) / step)
			v = lo + math.Round(rng.Float64()*steps)*step
		}
		return min(max(v, lo), hi), true
	case visualizer.FieldBoolean:
		return rng.IntN(2) == 1, true
	case visualizer.FieldSelect:
		if len(f.Options) == 0 {
			return nil, false
		}
		return f.Options[rng.IntN(len(f.Options))], true
	case visualizer.FieldColor:
		c := stage.HSV(rng.Float64(), 0.75, 1)
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B), true
	}
	return nil, false
}

// randomConfig builds the partial config sent with a rotation switch.
func (c *Controller) randomConfig(id string) visualizer.Config {
	if !c.cfg.RandomizeColors && !c.cfg.RandomizeConfig {
		return nil
	}
	cfg := visualizer.Config{}
	if c.cfg.RandomizeConfig {
		if schema, ok := c.cat.Schema(id); ok {
			names := make([]string, 0, len(schema))
			for name := range schema {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				if v, ok := randomValue(c.rng, schema[name]); ok {
					cfg[name] = v
				}
			}
		}
	}
	if c.cfg.RandomizeColors {
		names := stage.PaletteNames()
		cfg[visualizer.KeyColorScheme] = names[c.rng.IntN(len(names))]
	}
	return cfg
}
