//go:build windows
// +build windows

package scanner

import (
	"os"
	"syscall"
	"time"
)

// Windows reports no block count; size_on_disk stays 0
func statMeta(info os.FileInfo) fileMeta {
	st, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return fileMeta{created: info.ModTime(), accessed: info.ModTime()}
	}
	return fileMeta{
		created:  time.Unix(0, st.CreationTime.Nanoseconds()),
		accessed: time.Unix(0, st.LastAccessTime.Nanoseconds()),
	}
}
