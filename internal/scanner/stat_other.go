//go:build !linux && !darwin && !windows
// +build !linux,!darwin,!windows

package scanner

import "os"

func statMeta(info os.FileInfo) fileMeta {
	return fileMeta{created: info.ModTime(), accessed: info.ModTime()}
}
