package stage

// Cell is one terminal character with its foreground color. A zero Ch is empty.
type Cell struct {
	Ch    rune
	Color Color
}

// Canvas is a fixed-size grid of cells owned by a single visualization.
type Canvas struct {
	width  int
	height int
	cells  []Cell
}

// NewCanvas allocates an empty canvas.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{}
	c.Resize(width, height)
	return c
}

func (c *Canvas) Width() int  { return c.width }
func (c *Canvas) Height() int { return c.height }

// Resize reallocates the grid; contents are discarded.
func (c *Canvas) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.width = width
	c.height = height
	c.cells = make([]Cell, width*height)
}

// Clear empties every cell.
func (c *Canvas) Clear() {
	clear(c.cells)
}

// Set writes a cell, ignoring out-of-range coordinates.
func (c *Canvas) Set(x, y int, ch rune, col Color) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.cells[y*c.width+x] = Cell{Ch: ch, Color: col}
}

// At returns the cell at x,y or an empty cell when out of range.
func (c *Canvas) At(x, y int) Cell {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return Cell{}
	}
	return c.cells[y*c.width+x]
}

// Text writes s left to right starting at x,y.
func (c *Canvas) Text(x, y int, s string, col Color) {
	for _, r := range s {
		c.Set(x, y, r, col)
		x++
	}
}

// Braille dot positions (col, row) → bit offset:
//
//	(0,0)=0  (1,0)=3
//	(0,1)=1  (1,1)=4
//	(0,2)=2  (1,2)=5
//	(0,3)=6  (1,3)=7
var brailleBits = [2][4]uint{
	{0, 1, 2, 6},
	{3, 4, 5, 7},
}

const brailleBase = 0x2800

// DotSize returns the braille dot resolution: 2 columns and 4 rows per cell.
func (c *Canvas) DotSize() (int, int) {
	return c.width * 2, c.height * 4
}

// Dot lights one braille dot. A cell holding a non-braille rune is overwritten.
func (c *Canvas) Dot(x, y int, col Color) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= c.width || cy >= c.height {
		return
	}
	cell := &c.cells[cy*c.width+cx]
	if cell.Ch < brailleBase || cell.Ch > brailleBase+0xff {
		cell.Ch = brailleBase
	}
	cell.Ch |= 1 << brailleBits[x%2][y%4]
	cell.Color = col
}
