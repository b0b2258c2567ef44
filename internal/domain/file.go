package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RootDir is the parent_dir marker for files that live directly in the scan root
const RootDir = "."

// FileTypeNone is reported for files without an extension
const FileTypeNone = "<none>"

// FileRecord is the metadata of one discovered file as pushed by the scanner.
// Records are immutable once received; Path is the identity.
type FileRecord struct {
	// Path is the absolute path of the file on the scanning host
	Path string `json:"path"`

	// Size in bytes
	Size int64 `json:"size"`

	// ParentDir is the directory relative to the scan root ("." for root-level files)
	ParentDir string `json:"parent_dir"`

	// FileType is the lower-case extension without the dot
	FileType string `json:"file_type"`

	// SizeOnDisk is the allocated size (blocks * 512), 0 when the platform cannot tell
	SizeOnDisk int64 `json:"size_on_disk"`

	// Created is the inode change time on unix, the creation time on windows
	Created Timestamp `json:"created"`

	// Accessed is the last access time
	Accessed Timestamp `json:"accessed"`
}

// Validate checks the record-local invariants.
// Placement against the scan root is checked by the hierarchy index.
func (r FileRecord) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidRecord)
	}
	if r.Size < 0 {
		return fmt.Errorf("%w: negative size %d for %s", ErrInvalidRecord, r.Size, r.Path)
	}
	if r.SizeOnDisk < 0 {
		return fmt.Errorf("%w: negative size_on_disk %d for %s", ErrInvalidRecord, r.SizeOnDisk, r.Path)
	}
	return nil
}

// FileTypeOf derives the file_type tag from a file name
func FileTypeOf(name string) string {
	base := name
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	dot := strings.LastIndex(base, ".")
	if dot <= 0 || dot == len(base)-1 {
		return FileTypeNone
	}
	return strings.ToLower(base[dot+1:])
}

// timestampLayouts are accepted when decoding. Python's isoformat() omits the zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp is a time.Time that tolerates the zone-less ISO-8601 strings some scanners emit
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// MarshalJSON encodes as RFC3339 with nanoseconds, or null for the zero time
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts RFC3339 and zone-less ISO-8601 (interpreted as local time)
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: timestamp: %v", ErrInvalidRecord, err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for i, layout := range timestampLayouts {
		var parsed time.Time
		var err error
		if i == 0 {
			parsed, err = time.Parse(layout, s)
		} else {
			parsed, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("%w: unrecognised timestamp %q", ErrInvalidRecord, s)
}
