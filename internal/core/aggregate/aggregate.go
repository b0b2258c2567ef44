// Package aggregate computes recursive directory totals from the record store.
// Nothing is cached: every call walks the current records.
package aggregate

import (
	"github.com/Ning0612/Filegraph/internal/domain"
)

// Source is the read side of the record store
type Source interface {
	Each(fn func(domain.FileRecord) bool)
}

// Totals summarizes the records under one directory
type Totals struct {
	Bytes       int64
	BytesOnDisk int64
	Files       int
}

// Aggregate returns the total size of every record whose directory is relDir
// or one of its descendants. relDir "." covers every record.
func Aggregate(src Source, relDir string) int64 {
	return Stats(src, relDir).Bytes
}

// Stats returns byte and file totals for the subtree rooted at relDir
func Stats(src Source, relDir string) Totals {
	dir := domain.NormalizeDir(relDir)
	var t Totals
	src.Each(func(r domain.FileRecord) bool {
		if dir == domain.RootDir || domain.WithinDir(domain.NormalizeDir(r.ParentDir), dir) {
			t.Bytes += r.Size
			t.BytesOnDisk += r.SizeOnDisk
			t.Files++
		}
		return true
	})
	return t
}
