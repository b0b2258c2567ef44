// Package interaction turns pointer gestures into pin operations, selection
// updates and view changes.
//
// Gestures follow a small state machine:
//
//	Idle --down on node--> Dragging --up--> Idle (click if the pointer never moved)
//	Idle --down on background--> Panning --up--> Idle
//
// Cancel forces the machine back to Idle from any state and releases the pin
// held by an active drag.
package interaction

import (
	"github.com/Ning0612/Filegraph/internal/core/aggregate"
	"github.com/Ning0612/Filegraph/internal/core/layout"
	"github.com/Ning0612/Filegraph/internal/domain"
)

// ClickSlop is how far in screen units the pointer may travel before a press becomes a drag
const ClickSlop = 3.0

// State is the gesture state
type State int

const (
	Idle State = iota
	Dragging
	Panning
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Panning:
		return "panning"
	default:
		return "idle"
	}
}

// Engine is the part of the layout engine the controller drives
type Engine interface {
	NodeAt(x, y float64) (string, bool)
	Node(id string) (layout.Node, bool)
	Pin(id string, x, y float64) error
	Unpin(id string) error
	SetAlphaTarget(t float64)
}

// Graph resolves node ids for selection
type Graph interface {
	Directory(id string) (domain.DirectoryNode, bool)
	File(id string) (domain.FileNode, bool)
}

// Controller holds gesture and view state for one root session
type Controller struct {
	engine  Engine
	graph   Graph
	records aggregate.Source

	view  View
	state State

	// active gesture
	nodeID         string
	grabDX, grabDY float64
	downX, downY   float64
	lastX, lastY   float64
	moved          bool

	selection  *domain.Selection
	selectedID string
}

// New creates an idle controller with an identity view
func New(engine Engine, graph Graph, records aggregate.Source, view View) *Controller {
	return &Controller{engine: engine, graph: graph, records: records, view: view}
}

// State returns the current gesture state
func (c *Controller) State() State {
	return c.state
}

// View returns the current view transform
func (c *Controller) View() View {
	return c.view
}

// DraggedID returns the node held by an active drag
func (c *Controller) DraggedID() (string, bool) {
	return c.nodeID, c.state == Dragging
}

// PointerDown starts a drag on the node under the pointer, or a pan on the background
func (c *Controller) PointerDown(sx, sy float64) {
	if c.state == Dragging {
		c.release()
	}
	c.reset()
	c.downX, c.downY = sx, sy
	c.lastX, c.lastY = sx, sy
	c.moved = false

	wx, wy := c.view.ScreenToWorld(sx, sy)
	id, ok := c.engine.NodeAt(wx, wy)
	if !ok {
		c.state = Panning
		return
	}
	n, _ := c.engine.Node(id)
	if err := c.engine.Pin(id, n.X, n.Y); err != nil {
		c.state = Panning
		return
	}
	c.engine.SetAlphaTarget(layout.DragAlphaTarget)
	c.nodeID = id
	c.grabDX, c.grabDY = n.X-wx, n.Y-wy
	c.state = Dragging
}

// PointerMove repositions the dragged node or pans the view
func (c *Controller) PointerMove(sx, sy float64) {
	if c.state == Idle {
		return
	}
	if !c.moved {
		dx, dy := sx-c.downX, sy-c.downY
		c.moved = dx*dx+dy*dy > ClickSlop*ClickSlop
	}
	switch c.state {
	case Dragging:
		if !c.moved {
			return
		}
		wx, wy := c.view.ScreenToWorld(sx, sy)
		if err := c.engine.Pin(c.nodeID, wx+c.grabDX, wy+c.grabDY); err != nil {
			c.engine.SetAlphaTarget(0)
			c.reset()
			return
		}
	case Panning:
		c.view.Pan(sx-c.lastX, sy-c.lastY)
	}
	c.lastX, c.lastY = sx, sy
}

// PointerUp ends the gesture. A press that never moved past ClickSlop on a node selects it.
func (c *Controller) PointerUp(sx, sy float64) {
	switch c.state {
	case Dragging:
		id, click := c.nodeID, !c.moved
		c.release()
		if click {
			c.Select(id)
		}
	case Panning:
		c.PointerMove(sx, sy)
	}
	c.reset()
}

// Wheel zooms around the pointer by factor
func (c *Controller) Wheel(sx, sy, factor float64) {
	c.view.ZoomAt(sx, sy, factor)
}

// Pan shifts the view by a screen delta outside of a pointer gesture
func (c *Controller) Pan(dx, dy float64) {
	c.view.Pan(dx, dy)
}

// ResetView restores the identity transform
func (c *Controller) ResetView() {
	c.view.Reset()
}

// Select updates the current selection for a node id.
// Directory totals are aggregated from the record store on every call.
func (c *Controller) Select(id string) bool {
	if f, ok := c.graph.File(id); ok {
		rec := f.Record
		c.selection = &domain.Selection{Kind: domain.NodeFile, File: &rec}
		c.selectedID = id
		return true
	}
	d, ok := c.graph.Directory(id)
	if !ok {
		return false
	}
	totals := aggregate.Stats(c.records, d.RelPath)
	c.selection = &domain.Selection{
		Kind:          domain.NodeDir,
		AbsPath:       d.AbsPath,
		ParentAbsPath: d.ParentAbsPath,
		TotalSize:     totals.Bytes,
		FileCount:     totals.Files,
	}
	c.selectedID = id
	return true
}

// Selection returns the current selection
func (c *Controller) Selection() (domain.Selection, bool) {
	if c.selection == nil {
		return domain.Selection{}, false
	}
	return *c.selection, true
}

// SelectedID returns the id of the selected node
func (c *Controller) SelectedID() (string, bool) {
	return c.selectedID, c.selection != nil
}

// ClearSelection drops the current selection
func (c *Controller) ClearSelection() {
	c.selection = nil
	c.selectedID = ""
}

// Cancel returns to Idle from any state, releasing an active drag's pin and the selection
func (c *Controller) Cancel() {
	if c.state == Dragging {
		c.release()
	}
	c.reset()
	c.ClearSelection()
}

func (c *Controller) release() {
	_ = c.engine.Unpin(c.nodeID)
	c.engine.SetAlphaTarget(0)
}

func (c *Controller) reset() {
	c.state = Idle
	c.nodeID = ""
	c.grabDX, c.grabDY = 0, 0
	c.moved = false
}
