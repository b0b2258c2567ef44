// Package testutil holds helpers shared by scanner, server and session tests.
package testutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/Ning0612/Filegraph/internal/domain"
)

// TempDir creates a temporary scan root for testing.
// It returns the directory path and a cleanup function.
func TempDir(t *testing.T) (string, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "filegraph-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	// macOS temp dirs live behind a /var -> /private/var symlink
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	cleanup := func() {
		os.RemoveAll(dir)
	}

	return dir, cleanup
}

// CreateTestFile creates a file with the given content, creating parent directories.
// name may contain slashes.
func CreateTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	return path
}

// CreateTestFileWithSize creates a file with random content of the given size
func CreateTestFileWithSize(t *testing.T, dir, name string, size int64) string {
	t.Helper()

	buf := make([]byte, size)
	rand.Read(buf)
	return CreateTestFile(t, dir, name, buf)
}

// CreateTree creates files keyed by slash-separated relative path with the given sizes
func CreateTree(t *testing.T, dir string, files map[string]int64) {
	t.Helper()

	for name, size := range files {
		CreateTestFileWithSize(t, dir, name, size)
	}
}

// Record builds a FileRecord for path under parentDir with size bytes
func Record(path, parentDir string, size int64) domain.FileRecord {
	return domain.FileRecord{
		Path:      path,
		ParentDir: parentDir,
		Size:      size,
		FileType:  domain.FileTypeOf(path),
	}
}

// SyntheticRecords returns n records spread over depth-level directories under root.
// Paths use forward slashes regardless of platform.
func SyntheticRecords(root string, n, fanout int) []domain.FileRecord {
	if fanout < 1 {
		fanout = 1
	}
	out := make([]domain.FileRecord, 0, n)
	for i := 0; i < n; i++ {
		parent := domain.RootDir
		if i%3 != 0 {
			parent = fmt.Sprintf("d%d", i%fanout)
			if i%2 == 0 {
				parent += fmt.Sprintf("/e%d", i%(fanout+1))
			}
		}
		dir := root
		if parent != domain.RootDir {
			dir += "/" + parent
		}
		out = append(out, Record(fmt.Sprintf("%s/f%d.dat", dir, i), parent, int64(i*10)))
	}
	return out
}

// Paths returns the sorted paths of records
func Paths(records []domain.FileRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Path
	}
	sort.Strings(out)
	return out
}

// WaitForCondition waits for a condition to be true with timeout
func WaitForCondition(timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if condition() {
			return true
		}

		if time.Now().After(deadline) {
			return false
		}

		<-ticker.C
	}
}

// AssertEventually asserts that a condition becomes true within timeout
func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msgAndArgs ...interface{}) {
	t.Helper()

	if !WaitForCondition(timeout, condition) {
		if len(msgAndArgs) > 0 {
			t.Fatalf("condition not met within %v: %v", timeout, msgAndArgs[0])
		} else {
			t.Fatalf("condition not met within %v", timeout)
		}
	}
}
