package stage

import "strings"

// 4x4 ordered dither thresholds used to blend partially transparent layers.
var bayer4 = [4][4]float64{
	{0, 8, 2, 10},
	{12, 4, 14, 6},
	{3, 11, 1, 9},
	{15, 7, 13, 5},
}

func ditherThreshold(x, y int) float64 {
	return (bayer4[y&3][x&3] + 0.5) / 16
}

// cellAt samples a layer at screen position x,y, applying its zoom.
func (l *Layer) cellAt(x, y int) (Cell, bool) {
	if l.canvas == nil || l.opacity <= 0 || l.scale <= 0 {
		return Cell{}, false
	}
	sx, sy := x, y
	if l.scale != 1 {
		cx := float64(l.width-1) / 2
		cy := float64(l.height-1) / 2
		sx = int(cx + (float64(x)-cx)/l.scale + 0.5)
		sy = int(cy + (float64(y)-cy)/l.scale + 0.5)
	}
	cell := l.canvas.At(sx, sy)
	if cell.Ch == 0 {
		return Cell{}, false
	}
	if l.opacity < 1 {
		if ditherThreshold(x, y) >= l.opacity {
			return Cell{}, false
		}
		cell.Color = cell.Color.Scale(0.35 + 0.65*l.opacity)
	}
	return cell, true
}

// Compose flattens the layers into a newline-separated frame. The topmost
// visible cell wins at each position.
func (s *Stage) Compose(p Profile) string {
	var out strings.Builder
	color := newANSIState(p)
	for y := range s.height {
		if y > 0 {
			out.WriteByte('\n')
		}
		for x := range s.width {
			var (
				top   Cell
				found bool
				plain bool
			)
			for i := len(s.layers) - 1; i >= 0; i-- {
				if c, ok := s.layers[i].cellAt(x, y); ok {
					top, found = c, true
					plain = s.layers[i].mode == ModePlain
					break
				}
			}
			if !found {
				color.reset(&out)
				out.WriteByte(' ')
				continue
			}
			if plain {
				color.reset(&out)
			} else {
				color.set(&out, top.Color)
			}
			out.WriteRune(top.Ch)
		}
		color.reset(&out)
	}
	return out.String()
}
