package layout

import "math"

const (
	// theta2 is the squared Barnes-Hut opening angle
	theta2 = 0.9 * 0.9
	// distanceMin2 bounds charge at very short range
	distanceMin2 = 1.0
)

type spring struct {
	src, tgt int
	strength float64
	bias     float64
}

// applyLinks pulls every linked pair toward LinkDistance.
// The lower-degree endpoint moves more.
func (e *Engine) applyLinks(alpha float64) {
	dist := e.params.LinkDistance
	for _, s := range e.springs {
		src, tgt := e.nodes[s.src], e.nodes[s.tgt]
		x := tgt.X + tgt.VX - src.X - src.VX
		y := tgt.Y + tgt.VY - src.Y - src.VY
		if x == 0 {
			x = e.jiggle()
		}
		if y == 0 {
			y = e.jiggle()
		}
		l := math.Sqrt(x*x + y*y)
		l = (l - dist) / l * alpha * s.strength
		x *= l
		y *= l
		tgt.VX -= x * s.bias
		tgt.VY -= y * s.bias
		src.VX += x * (1 - s.bias)
		src.VY += y * (1 - s.bias)
	}
}

// applyCharge applies pairwise repulsion (or attraction for positive strength)
// using the quadtree approximation for distant cells.
func (e *Engine) applyCharge(alpha float64) {
	strength := e.params.ChargeStrength
	if strength == 0 || len(e.nodes) < 2 {
		return
	}
	pts := make([]point, len(e.nodes))
	for i, n := range e.nodes {
		pts[i] = point{n: n, idx: i, x: n.X, y: n.Y}
	}
	root := buildTree(pts)
	for _, n := range e.nodes {
		e.chargeVisit(root, n, strength*alpha)
	}
}

func (e *Engine) chargeVisit(q *quad, n *Node, k float64) {
	if q == nil || q.weight == 0 {
		return
	}
	if q.internal {
		dx, dy := q.cx-n.X, q.cy-n.Y
		w := q.x1 - q.x0
		l := dx*dx + dy*dy
		if w*w/theta2 < l {
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}
			n.VX += dx * k * q.weight / l
			n.VY += dy * k * q.weight / l
			return
		}
		for _, c := range q.kids {
			e.chargeVisit(c, n, k)
		}
		return
	}
	for _, p := range q.points {
		if p.n == n {
			continue
		}
		dx, dy := p.x-n.X, p.y-n.Y
		if dx == 0 {
			dx = e.jiggle()
		}
		if dy == 0 {
			dy = e.jiggle()
		}
		l := dx*dx + dy*dy
		if l < distanceMin2 {
			l = math.Sqrt(distanceMin2 * l)
		}
		n.VX += dx * k / l
		n.VY += dy * k / l
	}
}

// applyCenter translates every node so the centroid moves toward the canvas center
func (e *Engine) applyCenter() {
	strength := e.params.CenterStrength
	if strength == 0 || len(e.nodes) == 0 {
		return
	}
	var sx, sy float64
	for _, n := range e.nodes {
		sx += n.X
		sy += n.Y
	}
	count := float64(len(e.nodes))
	sx = (sx/count - e.params.Width/2) * strength
	sy = (sy/count - e.params.Height/2) * strength
	for _, n := range e.nodes {
		n.X -= sx
		n.Y -= sy
	}
}

// applyCollide separates overlapping nodes, treating each as a circle of
// radius + CollidePadding at its anticipated next position.
func (e *Engine) applyCollide() {
	if len(e.nodes) < 2 {
		return
	}
	pad := e.params.CollidePadding
	pts := make([]point, len(e.nodes))
	for i, n := range e.nodes {
		pts[i] = point{n: n, idx: i, x: n.X + n.VX, y: n.Y + n.VY, r: n.Radius + pad}
	}
	root := buildTree(pts)
	for i, n := range e.nodes {
		ri := n.Radius + pad
		e.collideVisit(root, i, n, n.X+n.VX, n.Y+n.VY, ri)
	}
}

func (e *Engine) collideVisit(q *quad, i int, n *Node, xi, yi, ri float64) {
	if q == nil || q.weight == 0 {
		return
	}
	reach := ri + q.maxR
	if q.x0 > xi+reach || q.x1 < xi-reach || q.y0 > yi+reach || q.y1 < yi-reach {
		return
	}
	if q.internal {
		for _, c := range q.kids {
			e.collideVisit(c, i, n, xi, yi, ri)
		}
		return
	}
	for _, p := range q.points {
		if p.idx <= i {
			continue
		}
		rj := p.r
		r := ri + rj
		x := xi - p.n.X - p.n.VX
		y := yi - p.n.Y - p.n.VY
		l := x*x + y*y
		if l >= r*r {
			continue
		}
		if x == 0 {
			x = e.jiggle()
			l += x * x
		}
		if y == 0 {
			y = e.jiggle()
			l += y * y
		}
		l = math.Sqrt(l)
		l = (r - l) / l
		x *= l
		y *= l
		share := rj * rj / (ri*ri + rj*rj)
		n.VX += x * share
		n.VY += y * share
		p.n.VX -= x * (1 - share)
		p.n.VY -= y * (1 - share)
	}
}
