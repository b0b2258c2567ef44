package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Ning0612/Filegraph/internal/domain"
	"github.com/Ning0612/Filegraph/internal/testutil"
)

type collector struct {
	mu      sync.Mutex
	records []domain.FileRecord
}

func (c *collector) emit(r domain.FileRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	return nil
}

func (c *collector) snapshot() []domain.FileRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.FileRecord(nil), c.records...)
}

func (c *collector) byPath() map[string]domain.FileRecord {
	out := make(map[string]domain.FileRecord)
	for _, r := range c.snapshot() {
		out[r.Path] = r
	}
	return out
}

func TestScan_RecordsAndSkips(t *testing.T) {
	root, cleanup := testutil.TempDir(t)
	defer cleanup()

	testutil.CreateTree(t, root, map[string]int64{
		"a.txt":               10,
		"sub/b.JPG":           20,
		"sub/deeper/Makefile": 5,
		".hidden":             7,
		".git/config":         9,
		"sub/.cache/x.bin":    11,
	})
	if err := os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Logf("symlink unsupported: %v", err)
	}

	s, err := New(root, WithWorkers(3))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var c collector
	res, err := s.Scan(context.Background(), c.emit)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	got := c.byPath()
	want := map[string]struct {
		parent, typ string
		size        int64
	}{
		filepath.Join(root, "a.txt"):                     {".", "txt", 10},
		filepath.Join(root, "sub", "b.JPG"):              {"sub", "jpg", 20},
		filepath.Join(root, "sub", "deeper", "Makefile"): {"sub/deeper", domain.FileTypeNone, 5},
	}
	if len(got) != len(want) {
		t.Fatalf("Scan() emitted %v", testutil.Paths(c.snapshot()))
	}
	for p, w := range want {
		r, ok := got[p]
		if !ok {
			t.Errorf("missing record %s", p)
			continue
		}
		if r.ParentDir != w.parent || r.FileType != w.typ || r.Size != w.size {
			t.Errorf("%s = %+v, want parent=%s type=%s size=%d", p, r, w.parent, w.typ, w.size)
		}
		if r.Accessed.IsZero() || r.Created.IsZero() {
			t.Errorf("%s missing timestamps", p)
		}
	}
	if res.Files != 3 || res.Bytes != 35 {
		t.Errorf("Result = %+v", res)
	}
}

func TestScan_IncludeHidden(t *testing.T) {
	root, cleanup := testutil.TempDir(t)
	defer cleanup()
	testutil.CreateTree(t, root, map[string]int64{".env": 3, ".config/app.yaml": 4})

	s, err := New(root, WithHidden(true))
	if err != nil {
		t.Fatal(err)
	}
	var c collector
	if _, err := s.Scan(context.Background(), c.emit); err != nil {
		t.Fatal(err)
	}
	if n := len(c.snapshot()); n != 2 {
		t.Errorf("emitted %d records, want 2", n)
	}
}

func TestScan_EmitErrorStops(t *testing.T) {
	root, cleanup := testutil.TempDir(t)
	defer cleanup()
	files := make(map[string]int64)
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files["d/"+n+".dat"] = 1
	}
	testutil.CreateTree(t, root, files)

	s, err := New(root, WithWorkers(2))
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("peer gone")
	calls := 0
	_, err = s.Scan(context.Background(), func(domain.FileRecord) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Scan() error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("emit called %d times after failing", calls)
	}
}

func TestScan_Cancelled(t *testing.T) {
	root, cleanup := testutil.TempDir(t)
	defer cleanup()
	testutil.CreateTree(t, root, map[string]int64{"a": 1, "b/c": 1})

	s, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Scan(ctx, func(domain.FileRecord) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}

func TestNew_InvalidRoot(t *testing.T) {
	root, cleanup := testutil.TempDir(t)
	defer cleanup()
	file := testutil.CreateTestFile(t, root, "plain.txt", []byte("x"))

	if _, err := New(filepath.Join(root, "missing")); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("New(missing) error = %v", err)
	}
	if _, err := New(file); !errors.Is(err, domain.ErrNotDirectory) {
		t.Errorf("New(file) error = %v", err)
	}
}

func TestWatch_EmitsNewFilesOnce(t *testing.T) {
	root, cleanup := testutil.TempDir(t)
	defer cleanup()
	testutil.CreateTree(t, root, map[string]int64{"old.txt": 1})

	s, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	var c collector
	if _, err := s.Scan(context.Background(), c.emit); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, c.emit) }()

	testutil.CreateTestFile(t, root, "new.txt", []byte("hello"))
	testutil.CreateTestFile(t, root, "fresh/dir/inner.txt", []byte("x"))
	testutil.CreateTestFile(t, root, ".tmp", []byte("x"))

	testutil.AssertEventually(t, 5*time.Second, func() bool {
		return len(c.snapshot()) == 3
	}, "new files not reported")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch() did not return after cancel")
	}

	paths := testutil.Paths(c.snapshot())
	want := []string{
		filepath.Join(root, "fresh", "dir", "inner.txt"),
		filepath.Join(root, "new.txt"),
		filepath.Join(root, "old.txt"),
	}
	sort.Strings(want)
	for i := range want {
		if i >= len(paths) || paths[i] != want[i] {
			t.Fatalf("paths = %v, want %v", paths, want)
		}
	}
	if r := c.byPath()[filepath.Join(root, "fresh", "dir", "inner.txt")]; r.ParentDir != "fresh/dir" {
		t.Errorf("ParentDir = %q", r.ParentDir)
	}
}
