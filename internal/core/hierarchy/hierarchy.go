// Package hierarchy derives the implicit directory tree from flat file records.
//
// Index applies one record at a time and reports only what the record added;
// Rebuild recomputes the whole graph from a record set. For any sequence of
// accepted records the accumulated deltas equal the Rebuild result.
package hierarchy

import (
	"fmt"
	"strings"

	"github.com/Ning0612/Filegraph/internal/domain"
)

// Delta lists the nodes and links introduced by one record.
// Directories are ordered parent first.
type Delta struct {
	Directories []domain.DirectoryNode
	Files       []domain.FileNode
	Links       []domain.Link
}

// Empty reports whether the delta adds nothing
func (d Delta) Empty() bool {
	return len(d.Directories) == 0 && len(d.Files) == 0 && len(d.Links) == 0
}

// Root describes the scan root inferred from the first record.
// AbsPath keeps the separator style of the record paths.
type Root struct {
	Name    string
	AbsPath string
	Sep     string
}

// DirAbs returns the absolute path of a normalized relative directory
func (r Root) DirAbs(rel string) string {
	if rel == domain.RootDir {
		return r.AbsPath
	}
	sep := r.Sep
	if sep == "" {
		sep = "/"
	}
	return strings.TrimSuffix(r.AbsPath, sep) + sep + strings.ReplaceAll(rel, "/", sep)
}

// Node builds the DirectoryNode for a normalized relative directory
func (r Root) Node(rel string) domain.DirectoryNode {
	if rel == domain.RootDir {
		return domain.DirectoryNode{
			ID:            domain.RootID,
			Name:          r.Name,
			RelPath:       domain.RootDir,
			AbsPath:       r.AbsPath,
			ParentAbsPath: r.AbsPath,
		}
	}
	segs := strings.Split(rel, "/")
	return domain.DirectoryNode{
		ID:            domain.DirID(rel),
		Name:          segs[len(segs)-1],
		RelPath:       rel,
		AbsPath:       r.DirAbs(rel),
		ParentAbsPath: r.DirAbs(domain.ParentOf(rel)),
	}
}

// Index keeps the set of known directories for the active root
type Index struct {
	root  *Root
	known map[string]struct{}
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{known: make(map[string]struct{})}
}

// Root returns the inferred root, or false before the first record
func (ix *Index) Root() (Root, bool) {
	if ix.root == nil {
		return Root{}, false
	}
	return *ix.root, true
}

// Known reports whether a normalized relative directory has been registered
func (ix *Index) Known(rel string) bool {
	if rel == domain.RootDir {
		return ix.root != nil
	}
	_, ok := ix.known[rel]
	return ok
}

// DirCount returns the number of non-root directories
func (ix *Index) DirCount() int {
	return len(ix.known)
}

// Add registers a record and returns what it adds to the graph.
// On error nothing is changed.
func (ix *Index) Add(rec domain.FileRecord) (Delta, error) {
	if err := rec.Validate(); err != nil {
		return Delta{}, err
	}
	rel, err := cleanParent(rec.ParentDir)
	if err != nil {
		return Delta{}, err
	}

	root := ix.root
	var delta Delta
	if root == nil {
		r, err := deriveRoot(rec.Path, rel)
		if err != nil {
			return Delta{}, err
		}
		root = &r
		delta.Directories = append(delta.Directories, r.Node(domain.RootDir))
	} else if err := checkPlacement(*root, rec.Path, rel); err != nil {
		return Delta{}, err
	}

	var added []string
	if rel != domain.RootDir {
		acc := ""
		for _, seg := range strings.Split(rel, "/") {
			if acc == "" {
				acc = seg
			} else {
				acc = acc + "/" + seg
			}
			if _, ok := ix.known[acc]; ok {
				continue
			}
			added = append(added, acc)
			delta.Directories = append(delta.Directories, root.Node(acc))
			delta.Links = append(delta.Links, domain.Link{
				SourceID: domain.DirID(domain.ParentOf(acc)),
				TargetID: domain.DirID(acc),
			})
		}
	}

	file := FileNodeFor(rec, rel)
	delta.Files = append(delta.Files, file)
	delta.Links = append(delta.Links, domain.Link{SourceID: file.ParentID, TargetID: file.ID})

	// commit
	ix.root = root
	for _, d := range added {
		ix.known[d] = struct{}{}
	}
	return delta, nil
}

// Reset forgets the root and every directory
func (ix *Index) Reset() {
	ix.root = nil
	ix.known = make(map[string]struct{})
}

// FileNodeFor builds the FileNode of a record whose parent_dir normalizes to rel
func FileNodeFor(rec domain.FileRecord, rel string) domain.FileNode {
	return domain.FileNode{
		ID:          domain.FileID(rec.Path),
		DisplayName: domain.DisplayNameOf(rec.Path),
		ParentID:    domain.DirID(rel),
		Record:      rec,
	}
}

// cleanParent normalizes parent_dir and rejects values that escape the root
func cleanParent(parentDir string) (string, error) {
	raw := strings.ReplaceAll(parentDir, `\`, "/")
	if strings.HasPrefix(raw, "/") || (len(raw) >= 2 && raw[1] == ':') {
		return "", fmt.Errorf("%w: absolute parent_dir %q", domain.ErrUnresolvableParent, parentDir)
	}
	for _, seg := range domain.SplitDir(raw) {
		if seg == ".." {
			return "", fmt.Errorf("%w: parent_dir %q leaves the root", domain.ErrUnresolvableParent, parentDir)
		}
	}
	return domain.NormalizeDir(raw), nil
}

// fileDir returns the slash-normalized directory part of a record path
func fileDir(path string) (string, error) {
	p := strings.ReplaceAll(path, `\`, "/")
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", fmt.Errorf("%w: path %q has no directory", domain.ErrUnresolvableParent, path)
	}
	if i == 0 {
		return "/", nil
	}
	return p[:i], nil
}

// deriveRoot infers the scan root from the first record: the record's directory
// with the parent_dir segments removed from its tail.
func deriveRoot(path, rel string) (Root, error) {
	dir, err := fileDir(path)
	if err != nil {
		return Root{}, err
	}
	abs := dir
	if rel != domain.RootDir {
		suffix := "/" + rel
		if !strings.HasSuffix(dir, suffix) {
			return Root{}, fmt.Errorf("%w: parent_dir %q does not match path %q",
				domain.ErrUnresolvableParent, rel, path)
		}
		abs = strings.TrimSuffix(dir, suffix)
		if abs == "" {
			abs = "/"
		}
	}
	name := abs
	if segs := domain.SplitDir(abs); len(segs) > 0 {
		name = segs[len(segs)-1]
	}
	if strings.Contains(path, `\`) {
		return Root{Name: name, AbsPath: strings.ReplaceAll(abs, "/", `\`), Sep: `\`}, nil
	}
	return Root{Name: name, AbsPath: abs, Sep: "/"}, nil
}

// checkPlacement verifies that a record's path lies where its parent_dir says
func checkPlacement(root Root, path, rel string) error {
	dir, err := fileDir(path)
	if err != nil {
		return err
	}
	if want := strings.ReplaceAll(root.DirAbs(rel), `\`, "/"); dir != want {
		return fmt.Errorf("%w: %q is not under %q", domain.ErrUnresolvableParent, path, want)
	}
	return nil
}
