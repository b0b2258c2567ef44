package layout

// maxDepth stops subdivision so coincident or near-coincident points share a leaf
const maxDepth = 32

type point struct {
	n    *Node
	idx  int
	x, y float64
	r    float64
}

// quad is a Barnes-Hut quadtree cell. Leaves hold points; internal cells hold up to four children.
type quad struct {
	x0, y0, x1, y1 float64
	internal       bool
	kids           [4]*quad
	points         []point

	// aggregates filled by accumulate
	weight float64
	cx, cy float64
	maxR   float64
}

// buildTree indexes the points in a square tree covering their bounding box
func buildTree(pts []point) *quad {
	if len(pts) == 0 {
		return nil
	}
	x0, y0, x1, y1 := pts[0].x, pts[0].y, pts[0].x, pts[0].y
	for _, p := range pts[1:] {
		x0, x1 = min(x0, p.x), max(x1, p.x)
		y0, y1 = min(y0, p.y), max(y1, p.y)
	}
	size := max(x1-x0, y1-y0, 1)
	root := &quad{x0: x0, y0: y0, x1: x0 + size, y1: y0 + size}
	for _, p := range pts {
		root.insert(p, 0)
	}
	root.accumulate()
	return root
}

func (q *quad) insert(p point, depth int) {
	if q.internal {
		q.child(p).insert(p, depth+1)
		return
	}
	if len(q.points) == 0 || depth >= maxDepth || (q.points[0].x == p.x && q.points[0].y == p.y) {
		q.points = append(q.points, p)
		return
	}
	old := q.points
	q.points = nil
	q.internal = true
	for _, o := range old {
		q.child(o).insert(o, depth+1)
	}
	q.child(p).insert(p, depth+1)
}

func (q *quad) child(p point) *quad {
	mx, my := (q.x0+q.x1)/2, (q.y0+q.y1)/2
	i := 0
	x0, y0, x1, y1 := q.x0, q.y0, mx, my
	if p.x >= mx {
		i |= 1
		x0, x1 = mx, q.x1
	}
	if p.y >= my {
		i |= 2
		y0, y1 = my, q.y1
	}
	if q.kids[i] == nil {
		q.kids[i] = &quad{x0: x0, y0: y0, x1: x1, y1: y1}
	}
	return q.kids[i]
}

// accumulate computes point count, centroid and largest radius bottom-up
func (q *quad) accumulate() {
	q.weight, q.cx, q.cy, q.maxR = 0, 0, 0, 0
	if !q.internal {
		for _, p := range q.points {
			q.weight++
			q.cx += p.x
			q.cy += p.y
			q.maxR = max(q.maxR, p.r)
		}
	} else {
		for _, k := range q.kids {
			if k == nil {
				continue
			}
			k.accumulate()
			q.weight += k.weight
			q.cx += k.cx * k.weight
			q.cy += k.cy * k.weight
			q.maxR = max(q.maxR, k.maxR)
		}
	}
	if q.weight > 0 {
		q.cx /= q.weight
		q.cy /= q.weight
	}
}
