package hierarchy

import (
	"strings"

	"github.com/Ning0612/Filegraph/internal/domain"
)

// Rebuild computes the graph for a record set from scratch.
// Records that the Index would reject are skipped and returned as errors.
func Rebuild(records []domain.FileRecord) (domain.Graph, []error) {
	var (
		g       domain.Graph
		errs    []error
		root    *Root
		seen    = make(map[string]struct{})
		dirSet  = make(map[string]struct{})
		dirList []string
	)

	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[rec.Path]; dup {
			errs = append(errs, domain.ErrDuplicateRecord)
			continue
		}
		rel, err := cleanParent(rec.ParentDir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if root == nil {
			r, err := deriveRoot(rec.Path, rel)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			root = &r
		} else if err := checkPlacement(*root, rec.Path, rel); err != nil {
			errs = append(errs, err)
			continue
		}
		seen[rec.Path] = struct{}{}

		if rel != domain.RootDir {
			segs := strings.Split(rel, "/")
			for i := range segs {
				p := strings.Join(segs[:i+1], "/")
				if _, ok := dirSet[p]; !ok {
					dirSet[p] = struct{}{}
					dirList = append(dirList, p)
				}
			}
		}
		g.Files = append(g.Files, FileNodeFor(rec, rel))
	}

	if root == nil {
		return g, errs
	}

	g.Directories = append(g.Directories, root.Node(domain.RootDir))
	for _, rel := range dirList {
		g.Directories = append(g.Directories, root.Node(rel))
		g.Links = append(g.Links, domain.Link{
			SourceID: domain.DirID(domain.ParentOf(rel)),
			TargetID: domain.DirID(rel),
		})
	}
	for _, f := range g.Files {
		g.Links = append(g.Links, domain.Link{SourceID: f.ParentID, TargetID: f.ID})
	}
	return g, errs
}
