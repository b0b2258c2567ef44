// Package layout runs the force-directed simulation over the graph model.
//
// The simulation cools an energy value (alpha) from 1 toward alphaTarget every
// tick and stops once alpha drops under alphaMin. Velocities are damped by
// velocityDecay after each force pass. Pinned nodes keep their fixed position
// and zero velocity, yet still act as sources for every force.
package layout

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Ning0612/Filegraph/internal/domain"
)

const (
	alphaStart    = 1.0
	alphaMin      = 0.001
	velocityDecay = 0.4
	// reheatAlpha is the energy restored when nodes are added or parameters change
	reheatAlpha = 0.3
	// DragAlphaTarget keeps the simulation warm while a node is held
	DragAlphaTarget = 0.3

	initialRadius = 10.0
	spawnRadius   = 10.0
)

var (
	alphaDecay  = 1 - math.Pow(alphaMin, 1.0/300)
	goldenAngle = math.Pi * (3 - math.Sqrt(5))
)

// Node is the live simulation state of one graph node
type Node struct {
	ID     string
	Kind   domain.NodeKind
	Radius float64

	X, Y   float64
	VX, VY float64

	Pinned bool
	FX, FY float64
}

// Frame is handed to the tick callback after every step
type Frame struct {
	Alpha float64
	Nodes []Node
	Links []domain.Link
}

// Source is the graph the engine follows. *graph.Model satisfies it.
type Source interface {
	IDs() []string
	Links() []domain.Link
	Kind(id string) (domain.NodeKind, bool)
	Radius(id string) float64
	ParentID(id string) string
}

// Engine owns node positions and integrates forces. It is not safe for concurrent use.
type Engine struct {
	params Params

	nodes   []*Node
	index   map[string]*Node
	links   []domain.Link
	springs []spring

	alpha       float64
	alphaTarget float64

	rng    *rand.Rand
	onTick func(Frame)
}

// Option configures an Engine
type Option func(*Engine)

// WithSeed makes jitter and spawn placement reproducible
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// New creates an empty engine. Params are clamped into range.
func New(p Params, opts ...Option) *Engine {
	e := &Engine{
		params: p.Clamp(),
		index:  make(map[string]*Node),
		alpha:  alphaStart,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnTick registers the callback invoked after every step
func (e *Engine) OnTick(fn func(Frame)) {
	e.onTick = fn
}

// Params returns the current parameters
func (e *Engine) Params() Params {
	return e.params
}

// SetParams replaces the force parameters without touching positions and reheats the simulation
func (e *Engine) SetParams(p Params) error {
	p = p.Clamp()
	if err := p.Validate(); err != nil {
		return err
	}
	e.params = p
	e.Reheat(reheatAlpha)
	return nil
}

// Sync follows the source graph: new nodes spawn next to their parent, vanished
// nodes are dropped, and surviving nodes keep position, velocity and pin state.
// Radii are refreshed for every node.
func (e *Engine) Sync(src Source) {
	ids := src.IDs()
	keep := make(map[string]bool, len(ids))
	nodes := make([]*Node, 0, len(ids))
	changed := false

	for _, id := range ids {
		keep[id] = true
		n, ok := e.index[id]
		if !ok {
			kind, _ := src.Kind(id)
			n = &Node{ID: id, Kind: kind}
			e.spawn(n, src.ParentID(id), len(nodes))
			e.index[id] = n
			changed = true
		}
		n.Radius = src.Radius(id)
		nodes = append(nodes, n)
	}
	for id := range e.index {
		if !keep[id] {
			delete(e.index, id)
			changed = true
		}
	}
	e.nodes = nodes
	e.setLinks(src.Links())

	if changed {
		e.Reheat(reheatAlpha)
	}
}

// spawn places a new node near its parent, or on a phyllotaxis spiral around
// the canvas center when it has no placed parent.
func (e *Engine) spawn(n *Node, parentID string, i int) {
	if p, ok := e.index[parentID]; ok && parentID != "" {
		angle := e.rng.Float64() * 2 * math.Pi
		n.X = p.X + spawnRadius*math.Cos(angle)
		n.Y = p.Y + spawnRadius*math.Sin(angle)
		return
	}
	r := initialRadius * math.Sqrt(0.5+float64(i))
	a := float64(i) * goldenAngle
	n.X = e.params.Width/2 + r*math.Cos(a)
	n.Y = e.params.Height/2 + r*math.Sin(a)
}

func (e *Engine) setLinks(links []domain.Link) {
	pos := make(map[string]int, len(e.nodes))
	for i, n := range e.nodes {
		pos[n.ID] = i
	}
	count := make([]int, len(e.nodes))
	e.links = e.links[:0]
	e.springs = e.springs[:0]
	for _, l := range links {
		s, okS := pos[l.SourceID]
		t, okT := pos[l.TargetID]
		if !okS || !okT {
			continue
		}
		e.links = append(e.links, l)
		e.springs = append(e.springs, spring{src: s, tgt: t})
		count[s]++
		count[t]++
	}
	for i := range e.springs {
		s := &e.springs[i]
		cs, ct := float64(count[s.src]), float64(count[s.tgt])
		s.strength = 1 / math.Min(cs, ct)
		s.bias = cs / (cs + ct)
	}
}

// Reset drops every node and restores full energy
func (e *Engine) Reset() {
	e.nodes = nil
	e.index = make(map[string]*Node)
	e.links = nil
	e.springs = nil
	e.alpha = alphaStart
	e.alphaTarget = 0
}

// Reheat raises alpha to at least a
func (e *Engine) Reheat(a float64) {
	e.alpha = math.Max(e.alpha, a)
}

// Alpha returns the current energy
func (e *Engine) Alpha() float64 {
	return e.alpha
}

// SetAlphaTarget sets the energy the simulation cools toward
func (e *Engine) SetAlphaTarget(t float64) {
	e.alphaTarget = math.Max(0, math.Min(1, t))
}

// Active reports whether Tick would advance the simulation
func (e *Engine) Active() bool {
	return e.alpha >= alphaMin || e.alphaTarget >= alphaMin
}

// Tick advances the simulation one step. It returns false without moving
// anything once the simulation has converged.
func (e *Engine) Tick() bool {
	if !e.Active() {
		return false
	}
	e.alpha += (e.alphaTarget - e.alpha) * alphaDecay

	e.applyLinks(e.alpha)
	e.applyCharge(e.alpha)
	e.applyCenter()
	e.applyCollide()

	for _, n := range e.nodes {
		if n.Pinned {
			n.X, n.Y = n.FX, n.FY
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX *= 1 - velocityDecay
		n.VY *= 1 - velocityDecay
		n.X += n.VX
		n.Y += n.VY
	}

	if e.onTick != nil {
		e.onTick(e.frame())
	}
	return true
}

func (e *Engine) frame() Frame {
	return Frame{Alpha: e.alpha, Nodes: e.Nodes(), Links: e.Links()}
}

// Pin fixes a node at (x, y) until Unpin
func (e *Engine) Pin(id string, x, y float64) error {
	n, ok := e.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	n.Pinned = true
	n.FX, n.FY = x, y
	n.X, n.Y = x, y
	n.VX, n.VY = 0, 0
	return nil
}

// Unpin releases a node back into free integration
func (e *Engine) Unpin(id string) error {
	n, ok := e.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	n.Pinned = false
	n.FX, n.FY = 0, 0
	return nil
}

// UnpinAll releases every pinned node
func (e *Engine) UnpinAll() {
	for _, n := range e.nodes {
		n.Pinned = false
		n.FX, n.FY = 0, 0
	}
}

// Node returns a copy of one node's state
func (e *Engine) Node(id string) (Node, bool) {
	n, ok := e.index[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns copies of every node in graph order
func (e *Engine) Nodes() []Node {
	out := make([]Node, len(e.nodes))
	for i, n := range e.nodes {
		out[i] = *n
	}
	return out
}

// Links returns the links currently simulated
func (e *Engine) Links() []domain.Link {
	return append([]domain.Link(nil), e.links...)
}

// Len returns the number of simulated nodes
func (e *Engine) Len() int {
	return len(e.nodes)
}

// NodeAt returns the topmost node whose circle contains the world point (x, y).
// Later nodes are drawn above earlier ones.
func (e *Engine) NodeAt(x, y float64) (string, bool) {
	for i := len(e.nodes) - 1; i >= 0; i-- {
		n := e.nodes[i]
		dx, dy := x-n.X, y-n.Y
		r := math.Max(n.Radius, 1)
		if dx*dx+dy*dy <= r*r {
			return n.ID, true
		}
	}
	return "", false
}

func (e *Engine) jiggle() float64 {
	return (e.rng.Float64() - 0.5) * 1e-6
}
