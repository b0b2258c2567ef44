package service

import (
	"github.com/Ning0612/Filegraph/internal/core/aggregate"
	"github.com/Ning0612/Filegraph/internal/core/interaction"
	"github.com/Ning0612/Filegraph/internal/core/layout"
	"github.com/Ning0612/Filegraph/internal/domain"
	"github.com/Ning0612/Filegraph/internal/progress"
)

// RenderNode is a simulation node plus what the surface needs to draw it
type RenderNode struct {
	layout.Node
	Label string
}

// Frame is a consistent copy of everything a surface draws
type Frame struct {
	Version uint64
	Root    string
	Alpha   float64
	Nodes   []RenderNode
	Links   []domain.Link
	View    interaction.View

	Selection    *domain.Selection
	SelectedID   string
	DraggedID    string
	Status       progress.Update
	Params       layout.Params
	Dirs, Files  int
	TotalBytes   int64
	DiskBytes    int64
	Gesture      interaction.State
	SimulationOn bool
}

// Version returns a counter that changes whenever the next Snapshot would differ
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Snapshot copies the current state for rendering
func (s *Session) Snapshot() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := s.engine.Nodes()
	out := make([]RenderNode, len(nodes))
	for i, n := range nodes {
		out[i] = RenderNode{Node: n, Label: s.label(n)}
	}

	f := Frame{
		Version:      s.version,
		Root:         s.root,
		Alpha:        s.engine.Alpha(),
		Nodes:        out,
		Links:        s.engine.Links(),
		View:         s.ctl.View(),
		Status:       s.status,
		Params:       s.engine.Params(),
		Dirs:         s.model.DirCount(),
		Files:        s.model.FileCount(),
		Gesture:      s.ctl.State(),
		SimulationOn: s.engine.Active(),
	}
	totals := aggregate.Stats(s.store, domain.RootDir)
	f.TotalBytes, f.DiskBytes = totals.Bytes, totals.BytesOnDisk
	if sel, ok := s.ctl.Selection(); ok {
		f.Selection = &sel
		f.SelectedID, _ = s.ctl.SelectedID()
	}
	if id, ok := s.ctl.DraggedID(); ok {
		f.DraggedID = id
	}
	return f
}

// label is the directory name or the file display name
func (s *Session) label(n layout.Node) string {
	if n.Kind == domain.NodeDir {
		if d, ok := s.model.Directory(n.ID); ok {
			return d.Name
		}
		return n.ID
	}
	if f, ok := s.model.File(n.ID); ok {
		return f.DisplayName
	}
	return n.ID
}

// guarded runs fn under the lock unless the session is closed
func (s *Session) guarded(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	fn()
	s.version++
	s.wake()
	return nil
}

// PointerDown starts a drag or pan at a screen position
func (s *Session) PointerDown(x, y float64) error {
	return s.guarded(func() { s.ctl.PointerDown(x, y) })
}

// PointerMove continues the active gesture
func (s *Session) PointerMove(x, y float64) error {
	return s.guarded(func() { s.ctl.PointerMove(x, y) })
}

// PointerUp ends the active gesture; a click selects
func (s *Session) PointerUp(x, y float64) error {
	return s.guarded(func() { s.ctl.PointerUp(x, y) })
}

// Wheel zooms around a screen position
func (s *Session) Wheel(x, y, factor float64) error {
	return s.guarded(func() { s.ctl.Wheel(x, y, factor) })
}

// Pan shifts the view
func (s *Session) Pan(dx, dy float64) error {
	return s.guarded(func() { s.ctl.Pan(dx, dy) })
}

// ResetView restores the identity transform
func (s *Session) ResetView() error {
	return s.guarded(s.ctl.ResetView)
}

// Select selects a node by id with a freshly computed aggregate
func (s *Session) Select(id string) error {
	var found bool
	if err := s.guarded(func() { found = s.ctl.Select(id) }); err != nil {
		return err
	}
	if !found {
		return domain.ErrNodeNotFound
	}
	return nil
}

// ClearSelection drops the selection
func (s *Session) ClearSelection() error {
	return s.guarded(s.ctl.ClearSelection)
}

// Cancel forces gestures back to idle and releases pins
func (s *Session) Cancel() error {
	return s.guarded(s.ctl.Cancel)
}

// Reheat restarts the cooling schedule without moving nodes
func (s *Session) Reheat() error {
	return s.guarded(func() { s.engine.Reheat(1) })
}

// SetParams applies new force parameters; positions are kept
func (s *Session) SetParams(p layout.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if err := s.engine.SetParams(p); err != nil {
		return err
	}
	s.version++
	s.wake()
	s.log.Debug("layout params changed",
		"link_distance", p.LinkDistance,
		"charge_strength", p.ChargeStrength,
		"center_strength", p.CenterStrength,
		"collide_padding", p.CollidePadding)
	return nil
}

// Params returns the active force parameters
func (s *Session) Params() layout.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Params()
}

// Aggregate returns the recursive byte total under a relative directory
func (s *Session) Aggregate(relDir string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return aggregate.Aggregate(s.store, relDir)
}

// Graph returns a value copy of the node and link collections
func (s *Session) Graph() domain.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Snapshot()
}
