// Package graph holds the live node and link collections consumed by the layout engine.
package graph

import (
	"fmt"
	"math"

	"github.com/Ning0612/Filegraph/internal/core/hierarchy"
	"github.com/Ning0612/Filegraph/internal/domain"
)

const (
	// DirRadius is the visual radius of every directory node
	DirRadius = 12.0
	// MinFileRadius and MaxFileRadius bound the sqrt size scale for files
	MinFileRadius = 4.0
	MaxFileRadius = 20.0
)

// Model is an id-keyed node table plus links that reference nodes by id.
// It is not safe for concurrent use.
type Model struct {
	dirs   map[string]domain.DirectoryNode
	files  map[string]domain.FileNode
	order  []string // node ids in insertion order
	links  []domain.Link
	degree map[string]int

	minSize int64
	maxSize int64
}

// New creates an empty model
func New() *Model {
	m := &Model{}
	m.Reset()
	return m
}

// Reset drops every node and link
func (m *Model) Reset() {
	m.dirs = make(map[string]domain.DirectoryNode)
	m.files = make(map[string]domain.FileNode)
	m.order = nil
	m.links = nil
	m.degree = make(map[string]int)
	m.minSize = 0
	m.maxSize = 0
}

// Apply adds the nodes and links of a delta.
// Every link endpoint must resolve after the delta's nodes are added; otherwise nothing changes.
func (m *Model) Apply(d hierarchy.Delta) error {
	pending := make(map[string]bool, len(d.Directories)+len(d.Files))
	for _, dir := range d.Directories {
		if m.Has(dir.ID) || pending[dir.ID] {
			return fmt.Errorf("%w: directory %s already present", domain.ErrDuplicateRecord, dir.ID)
		}
		pending[dir.ID] = true
	}
	for _, f := range d.Files {
		if m.Has(f.ID) || pending[f.ID] {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateRecord, f.Record.Path)
		}
		if !m.Has(f.ParentID) && !pending[f.ParentID] {
			return fmt.Errorf("%w: %s has no parent %s", domain.ErrUnresolvableParent, f.ID, f.ParentID)
		}
		pending[f.ID] = true
	}
	for _, l := range d.Links {
		for _, id := range []string{l.SourceID, l.TargetID} {
			if !m.Has(id) && !pending[id] {
				return fmt.Errorf("%w: link endpoint %s", domain.ErrNodeNotFound, id)
			}
		}
	}

	for _, dir := range d.Directories {
		m.dirs[dir.ID] = dir
		m.order = append(m.order, dir.ID)
	}
	for _, f := range d.Files {
		if len(m.files) == 0 {
			m.minSize, m.maxSize = f.Record.Size, f.Record.Size
		} else {
			m.minSize = min(m.minSize, f.Record.Size)
			m.maxSize = max(m.maxSize, f.Record.Size)
		}
		m.files[f.ID] = f
		m.order = append(m.order, f.ID)
	}
	for _, l := range d.Links {
		m.links = append(m.links, l)
		m.degree[l.SourceID]++
		m.degree[l.TargetID]++
	}
	return nil
}

// Has reports whether a node id exists
func (m *Model) Has(id string) bool {
	if _, ok := m.dirs[id]; ok {
		return true
	}
	_, ok := m.files[id]
	return ok
}

// Kind returns the kind of a node
func (m *Model) Kind(id string) (domain.NodeKind, bool) {
	if _, ok := m.dirs[id]; ok {
		return domain.NodeDir, true
	}
	if _, ok := m.files[id]; ok {
		return domain.NodeFile, true
	}
	return "", false
}

// Directory returns a directory node by id
func (m *Model) Directory(id string) (domain.DirectoryNode, bool) {
	d, ok := m.dirs[id]
	return d, ok
}

// File returns a file node by id
func (m *Model) File(id string) (domain.FileNode, bool) {
	f, ok := m.files[id]
	return f, ok
}

// IDs returns node ids in insertion order
func (m *Model) IDs() []string {
	return append([]string(nil), m.order...)
}

// Links returns a copy of all links
func (m *Model) Links() []domain.Link {
	return append([]domain.Link(nil), m.links...)
}

// Degree returns the number of links touching a node
func (m *Model) Degree(id string) int {
	return m.degree[id]
}

// Len returns the number of nodes
func (m *Model) Len() int {
	return len(m.order)
}

// DirCount returns the number of directory nodes including the root
func (m *Model) DirCount() int {
	return len(m.dirs)
}

// FileCount returns the number of file nodes
func (m *Model) FileCount() int {
	return len(m.files)
}

// ParentID returns the id of the node's parent directory, "" for the root
func (m *Model) ParentID(id string) string {
	if f, ok := m.files[id]; ok {
		return f.ParentID
	}
	if d, ok := m.dirs[id]; ok && !d.IsRoot() {
		return domain.DirID(domain.ParentOf(d.RelPath))
	}
	return ""
}

// Radius returns the visual radius of a node: fixed for directories, a sqrt
// scale of size over the current file size range for files.
func (m *Model) Radius(id string) float64 {
	if _, ok := m.dirs[id]; ok {
		return DirRadius
	}
	f, ok := m.files[id]
	if !ok {
		return 0
	}
	return m.fileRadius(f.Record.Size)
}

func (m *Model) fileRadius(size int64) float64 {
	lo := math.Sqrt(float64(m.minSize))
	hi := math.Sqrt(float64(m.maxSize))
	t := 0.5
	if hi > lo {
		t = (math.Sqrt(float64(size)) - lo) / (hi - lo)
	}
	return MinFileRadius + t*(MaxFileRadius-MinFileRadius)
}

// Snapshot returns a value copy of the graph in insertion order
func (m *Model) Snapshot() domain.Graph {
	var g domain.Graph
	for _, id := range m.order {
		if d, ok := m.dirs[id]; ok {
			g.Directories = append(g.Directories, d)
			continue
		}
		g.Files = append(g.Files, m.files[id])
	}
	g.Links = m.Links()
	return g
}
