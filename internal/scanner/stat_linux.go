//go:build linux
// +build linux

package scanner

import (
	"os"
	"syscall"
	"time"
)

func statMeta(info os.FileInfo) fileMeta {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileMeta{created: info.ModTime(), accessed: info.ModTime()}
	}
	return fileMeta{
		sizeOnDisk: int64(st.Blocks) * 512,
		created:    time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec)),
		accessed:   time.Unix(int64(st.Atim.Sec), int64(st.Atim.Nsec)),
	}
}
