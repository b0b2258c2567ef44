package tui

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/Ning0612/Filegraph/internal/domain"
	"github.com/Ning0612/Filegraph/internal/service"
)

// maxLabel is the longest label drawn next to a node, in runes
const maxLabel = 12

// class is the style of one canvas cell
type class uint8

const (
	clsEmpty class = iota
	clsLink
	clsDir
	clsFile
	clsPinned
	clsSelected
	clsLabel
)

var classStyles = map[class]lipgloss.Style{
	clsEmpty:    lipgloss.NewStyle(),
	clsLink:     lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	clsDir:      lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
	clsFile:     lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
	clsPinned:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
	clsSelected: lipgloss.NewStyle().Reverse(true),
	clsLabel:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

type cell struct {
	ch  rune
	cls class
}

// canvas is a grid of styled cells
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([]cell, w*h)}
	for i := range c.cells {
		c.cells[i] = cell{ch: ' '}
	}
	return c
}

func (c *canvas) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= c.w || row >= c.h {
		return nil
	}
	return &c.cells[row*c.w+col]
}

func (c *canvas) set(col, row int, ch rune, cls class) {
	if p := c.at(col, row); p != nil {
		*p = cell{ch: ch, cls: cls}
	}
}

// setEmpty writes only over blank cells
func (c *canvas) setEmpty(col, row int, ch rune, cls class) {
	if p := c.at(col, row); p != nil && p.cls == clsEmpty {
		*p = cell{ch: ch, cls: cls}
	}
}

// overlay writes over blank and link cells, leaving nodes intact
func (c *canvas) overlay(col, row int, ch rune, cls class) {
	if p := c.at(col, row); p != nil && (p.cls == clsEmpty || p.cls == clsLink) {
		*p = cell{ch: ch, cls: cls}
	}
}

// line draws a link between two cells with Bresenham's algorithm
func (c *canvas) line(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	// bail out of absurdly long lines when zoomed far in
	for steps := 0; steps < 4*(c.w+c.h); steps++ {
		c.setEmpty(x0, y0, '·', clsLink)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *canvas) text(col, row int, s string, cls class) {
	for _, r := range s {
		c.overlay(col, row, r, cls)
		col++
	}
}

// String renders rows, merging runs of the same class into one styled span
func (c *canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.h; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		cur := clsEmpty
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if cur == clsEmpty {
				b.WriteString(run.String())
			} else {
				b.WriteString(classStyles[cur].Render(run.String()))
			}
			run.Reset()
		}
		for col := 0; col < c.w; col++ {
			p := c.cells[row*c.w+col]
			if p.cls != cur {
				flush()
				cur = p.cls
			}
			run.WriteRune(p.ch)
		}
		flush()
	}
	return b.String()
}

// cellOf maps a world position to a canvas cell through the view transform
func cellOf(f service.Frame, x, y float64) (int, int) {
	sx, sy := f.View.WorldToScreen(x, y)
	return int(math.Floor(sx / cellW)), int(math.Floor(sy / cellH))
}

// glyph picks the character for a node by kind and on-screen size
func glyph(n service.RenderNode, scale float64) rune {
	if n.Kind == domain.NodeDir {
		return '◆'
	}
	if n.Radius*scale >= cellW {
		return '●'
	}
	return '•'
}

// truncateLabel shortens a label to maxLabel runes
func truncateLabel(s string) string {
	if utf8.RuneCountInString(s) <= maxLabel {
		return s
	}
	r := []rune(s)
	return string(r[:maxLabel-1]) + "…"
}

func nodeLabel(n service.RenderNode) string {
	l := truncateLabel(n.Label)
	if n.Kind == domain.NodeDir {
		l += "/"
	}
	return l
}

// draw rasterizes a frame: links first, then nodes, then labels in the space left
func draw(f service.Frame, w, h int, labels bool) *canvas {
	c := newCanvas(w, h)

	pos := make(map[string][2]int, len(f.Nodes))
	for _, n := range f.Nodes {
		col, row := cellOf(f, n.X, n.Y)
		pos[n.ID] = [2]int{col, row}
	}

	for _, l := range f.Links {
		a, ok1 := pos[l.SourceID]
		b, ok2 := pos[l.TargetID]
		if !ok1 || !ok2 {
			continue
		}
		if outside(a, w, h) && outside(b, w, h) {
			continue
		}
		c.line(a[0], a[1], b[0], b[1])
	}

	for _, n := range f.Nodes {
		p := pos[n.ID]
		cls := clsFile
		switch {
		case n.ID == f.SelectedID:
			cls = clsSelected
		case n.Pinned:
			cls = clsPinned
		case n.Kind == domain.NodeDir:
			cls = clsDir
		}
		c.set(p[0], p[1], glyph(n, f.View.Scale), cls)
	}

	if labels {
		for _, n := range f.Nodes {
			p := pos[n.ID]
			c.text(p[0]+2, p[1], nodeLabel(n), clsLabel)
		}
	}
	return c
}

func outside(p [2]int, w, h int) bool {
	return p[0] < 0 || p[1] < 0 || p[0] >= w || p[1] >= h
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
