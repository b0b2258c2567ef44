package hierarchy

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/Ning0612/Filegraph/internal/domain"
)

func rec(path, parent string, size int64) domain.FileRecord {
	return domain.FileRecord{Path: path, ParentDir: parent, Size: size}
}

// collect applies every record to a fresh index and merges the deltas into a graph
func collect(t *testing.T, records []domain.FileRecord) domain.Graph {
	t.Helper()
	ix := NewIndex()
	seen := make(map[string]bool)
	var g domain.Graph
	for _, r := range records {
		if seen[r.Path] {
			continue
		}
		d, err := ix.Add(r)
		if err != nil {
			continue
		}
		seen[r.Path] = true
		g.Directories = append(g.Directories, d.Directories...)
		g.Files = append(g.Files, d.Files...)
		g.Links = append(g.Links, d.Links...)
	}
	return g
}

func TestIndex_RootAndSubdirectoryRecords(t *testing.T) {
	ix := NewIndex()

	d1, err := ix.Add(rec("/r/a.txt", ".", 10))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if len(d1.Directories) != 1 || d1.Directories[0].ID != domain.RootID {
		t.Fatalf("first delta should carry the root only, got %+v", d1.Directories)
	}
	root := d1.Directories[0]
	if root.Name != "r" || root.AbsPath != "/r" || root.RelPath != "." {
		t.Errorf("root = %+v", root)
	}
	if len(d1.Files) != 1 || d1.Files[0].ParentID != domain.RootID || d1.Files[0].DisplayName != "a" {
		t.Errorf("file = %+v", d1.Files)
	}

	d2, err := ix.Add(rec("/r/sub/b.txt", "sub", 20))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if len(d2.Directories) != 1 {
		t.Fatalf("expected one new directory, got %+v", d2.Directories)
	}
	sub := d2.Directories[0]
	want := domain.DirectoryNode{ID: "dir:sub", Name: "sub", RelPath: "sub", AbsPath: "/r/sub", ParentAbsPath: "/r"}
	if sub != want {
		t.Errorf("sub = %+v, want %+v", sub, want)
	}
	wantLinks := []domain.Link{
		{SourceID: domain.RootID, TargetID: "dir:sub"},
		{SourceID: "dir:sub", TargetID: "file:/r/sub/b.txt"},
	}
	if !reflect.DeepEqual(d2.Links, wantLinks) {
		t.Errorf("links = %+v, want %+v", d2.Links, wantLinks)
	}
}

func TestIndex_MaterializesIntermediateAncestors(t *testing.T) {
	ix := NewIndex()
	if _, err := ix.Add(rec("/r/top.txt", ".", 1)); err != nil {
		t.Fatal(err)
	}
	d, err := ix.Add(rec("/r/a/b/c/deep.txt", "a/b/c", 1))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	var ids []string
	for _, dir := range d.Directories {
		ids = append(ids, dir.ID)
	}
	if !reflect.DeepEqual(ids, []string{"dir:a", "dir:a/b", "dir:a/b/c"}) {
		t.Errorf("directories = %v", ids)
	}
	if d.Directories[2].ParentAbsPath != "/r/a/b" {
		t.Errorf("parent abs = %q", d.Directories[2].ParentAbsPath)
	}

	// A sibling under an existing ancestor adds only the new leaf
	d, err = ix.Add(rec("/r/a/b/x/y.txt", "a/b/x", 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Directories) != 1 || d.Directories[0].ID != "dir:a/b/x" {
		t.Errorf("directories = %+v", d.Directories)
	}
	if ix.DirCount() != 4 {
		t.Errorf("DirCount() = %d, want 4", ix.DirCount())
	}
}

func TestIndex_RootFromNestedFirstRecord(t *testing.T) {
	ix := NewIndex()
	d, err := ix.Add(rec("/home/u/proj/src/main.go", "src", 1))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	root, ok := ix.Root()
	if !ok || root.Name != "proj" || root.AbsPath != "/home/u/proj" {
		t.Errorf("root = %+v", root)
	}
	if d.Directories[0].ID != domain.RootID || d.Directories[1].ID != "dir:src" {
		t.Errorf("directories = %+v", d.Directories)
	}
}

func TestIndex_WindowsSeparators(t *testing.T) {
	ix := NewIndex()
	if _, err := ix.Add(rec(`C:\data\a.txt`, ".", 1)); err != nil {
		t.Fatal(err)
	}
	d, err := ix.Add(rec(`C:\data\x\y\b.txt`, `x\y`, 1))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if d.Directories[1].ID != "dir:x/y" || d.Directories[1].AbsPath != `C:\data\x\y` {
		t.Errorf("directories = %+v", d.Directories)
	}
	if d.Directories[1].ParentAbsPath != `C:\data\x` {
		t.Errorf("parent = %q", d.Directories[1].ParentAbsPath)
	}
	if root, _ := ix.Root(); root.AbsPath != `C:\data` || root.Name != "data" {
		t.Errorf("root = %+v", root)
	}
}

func TestIndex_RejectsDataErrors(t *testing.T) {
	ix := NewIndex()
	if _, err := ix.Add(rec("/r/a.txt", ".", 1)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		rec  domain.FileRecord
		want error
	}{
		{"negative size", rec("/r/n.txt", ".", -1), domain.ErrInvalidRecord},
		{"escapes root", rec("/r/x.txt", "../etc", 1), domain.ErrUnresolvableParent},
		{"absolute parent", rec("/r/x.txt", "/etc", 1), domain.ErrUnresolvableParent},
		{"different root", rec("/other/x.txt", ".", 1), domain.ErrUnresolvableParent},
		{"parent mismatch", rec("/r/real/x.txt", "fake", 1), domain.ErrUnresolvableParent},
		{"no directory", rec("x.txt", ".", 1), domain.ErrUnresolvableParent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := ix.DirCount()
			_, err := ix.Add(tt.rec)
			if !errors.Is(err, tt.want) {
				t.Errorf("Add() = %v, want %v", err, tt.want)
			}
			if ix.DirCount() != before {
				t.Error("rejected record changed the index")
			}
		})
	}
}

func TestIndex_FirstRecordMismatchLeavesNoRoot(t *testing.T) {
	ix := NewIndex()
	if _, err := ix.Add(rec("/r/real/x.txt", "fake", 1)); !errors.Is(err, domain.ErrUnresolvableParent) {
		t.Fatalf("Add() = %v", err)
	}
	if _, ok := ix.Root(); ok {
		t.Error("root inferred from a rejected record")
	}
}

func TestIndex_Reset(t *testing.T) {
	ix := NewIndex()
	if _, err := ix.Add(rec("/r/sub/a.txt", "sub", 1)); err != nil {
		t.Fatal(err)
	}
	ix.Reset()
	if _, ok := ix.Root(); ok || ix.DirCount() != 0 || ix.Known("sub") {
		t.Error("Reset() kept state")
	}
	// New root is accepted after reset
	if _, err := ix.Add(rec("/other/b.txt", ".", 1)); err != nil {
		t.Errorf("Add() after Reset() = %v", err)
	}
}

func TestRebuild_CountsNodes(t *testing.T) {
	records := []domain.FileRecord{
		rec("/r/a.txt", ".", 10),
		rec("/r/sub/b.txt", "sub", 20),
		rec("/r/sub/deeper/c.txt", "sub/deeper", 5),
		rec("/r/other/x/y/z.txt", "other/x/y", 1),
		rec("/r/foobar/q.txt", "foobar", 1),
	}
	g, errs := Rebuild(records)
	if len(errs) != 0 {
		t.Fatalf("Rebuild() errors = %v", errs)
	}

	roots := 0
	for _, d := range g.Directories {
		if d.IsRoot() {
			roots++
		}
	}
	if roots != 1 {
		t.Errorf("roots = %d, want 1", roots)
	}
	if len(g.Files) != len(records) {
		t.Errorf("files = %d, want %d", len(g.Files), len(records))
	}
	// sub, sub/deeper, other, other/x, other/x/y, foobar
	if got := len(g.Directories) - 1; got != 6 {
		t.Errorf("non-root directories = %d, want 6", got)
	}
	// one link per non-root directory and one per file
	if len(g.Links) != 6+len(records) {
		t.Errorf("links = %d, want %d", len(g.Links), 6+len(records))
	}
}

func TestRebuild_Empty(t *testing.T) {
	g, errs := Rebuild(nil)
	if g.NodeCount() != 0 || len(errs) != 0 {
		t.Errorf("Rebuild(nil) = %+v, %v", g, errs)
	}
}

func TestIncrementalMatchesRebuild(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	dirs := []string{".", "a", "a/b", "a/b/c", "d", "d/e", "foo", "foobar", "foo/bar"}

	for round := 0; round < 20; round++ {
		var records []domain.FileRecord
		for i := 0; i < 40; i++ {
			dir := dirs[rng.Intn(len(dirs))]
			path := fmt.Sprintf("/root/%s/f%d.dat", dir, i)
			if dir == "." {
				path = fmt.Sprintf("/root/f%d.dat", i)
			}
			records = append(records, rec(path, dir, int64(rng.Intn(1000))))
		}
		// sprinkle a duplicate and an invalid record
		records = append(records, records[3], rec("/elsewhere/x", ".", 1))
		rng.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })
		// keep the first record valid so both sides agree on the root
		for i, r := range records {
			if r.Path != "/elsewhere/x" {
				records[0], records[i] = records[i], records[0]
				break
			}
		}

		full, _ := Rebuild(records)
		inc := collect(t, records)
		if !reflect.DeepEqual(full.Canonical(), inc.Canonical()) {
			t.Fatalf("round %d: incremental graph differs from rebuild", round)
		}
	}
}
