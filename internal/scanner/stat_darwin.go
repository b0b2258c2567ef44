//go:build darwin
// +build darwin

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
		sizeOnDisk: st.Blocks * 512,
		created:    time.Unix(st.Ctimespec.Sec, st.Ctimespec.Nsec),
		accessed:   time.Unix(st.Atimespec.Sec, st.Atimespec.Nsec),
	}
}
