package domain

import (
	"sort"
	"strings"
)

// NodeKind distinguishes directory and file nodes
type NodeKind string

const (
	NodeDir  NodeKind = "dir"
	NodeFile NodeKind = "file"
)

// RootID is the id of the synthetic root directory node
const RootID = "dir:root"

// DirID returns the node id for a normalized relative directory
func DirID(relPath string) string {
	if relPath == RootDir {
		return RootID
	}
	return "dir:" + relPath
}

// FileID returns the node id for a record path
func FileID(path string) string {
	return "file:" + path
}

// DirectoryNode is a directory implied by the parent_dir values in the store
type DirectoryNode struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	RelPath       string `json:"rel"`
	AbsPath       string `json:"abs"`
	ParentAbsPath string `json:"parent"`
}

// IsRoot reports whether this is the synthetic root
func (d DirectoryNode) IsRoot() bool {
	return d.RelPath == RootDir
}

// FileNode is the graph view of a FileRecord
type FileNode struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"name"`
	ParentID    string     `json:"parent"`
	Record      FileRecord `json:"record"`
}

// DisplayNameOf strips directories and the last extension from a path
func DisplayNameOf(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if dot := strings.LastIndex(base, "."); dot > 0 {
		base = base[:dot]
	}
	return base
}

// Link connects a parent directory (source) to a child node (target).
// Links hold ids, never node references.
type Link struct {
	SourceID string `json:"source"`
	TargetID string `json:"target"`
}

// Graph is a value snapshot of the directory and file nodes plus links
type Graph struct {
	Directories []DirectoryNode `json:"directories"`
	Files       []FileNode      `json:"files"`
	Links       []Link          `json:"links"`
}

// NodeCount returns the total number of nodes
func (g Graph) NodeCount() int {
	return len(g.Directories) + len(g.Files)
}

// Canonical sorts every slice by id so two graphs built in a different order compare equal
func (g Graph) Canonical() Graph {
	out := Graph{
		Directories: append([]DirectoryNode(nil), g.Directories...),
		Files:       append([]FileNode(nil), g.Files...),
		Links:       append([]Link(nil), g.Links...),
	}
	sort.Slice(out.Directories, func(i, j int) bool { return out.Directories[i].ID < out.Directories[j].ID })
	sort.Slice(out.Files, func(i, j int) bool { return out.Files[i].ID < out.Files[j].ID })
	sort.Slice(out.Links, func(i, j int) bool {
		if out.Links[i].SourceID != out.Links[j].SourceID {
			return out.Links[i].SourceID < out.Links[j].SourceID
		}
		return out.Links[i].TargetID < out.Links[j].TargetID
	})
	return out
}

// Selection is the single "current selection" value shown by the detail panel
type Selection struct {
	Kind NodeKind `json:"type"`

	// File is set for file selections
	File *FileRecord `json:"file,omitempty"`

	// Directory fields
	AbsPath       string `json:"abs,omitempty"`
	ParentAbsPath string `json:"parent,omitempty"`
	TotalSize     int64  `json:"totalSize"`
	FileCount     int    `json:"fileCount,omitempty"`
}
