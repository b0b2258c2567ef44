// Package daemon tracks the running `filegraph serve` process with a pid file
// in the data directory, so two servers never share one history database and
// `filegraph stop` can find the one that is running.
package daemon

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Ning0612/Filegraph/internal/domain"
)

// PIDName is the pid file created in the data directory
const PIDName = "serve.pid"

// Info is what a running server records about itself
type Info struct {
	PID  int
	Addr string
}

// PIDFile manages the server pid file
type PIDFile struct {
	path string
}

// NewPIDFile creates a pid file manager for path
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// PathIn returns the pid file path inside a data directory
func PathIn(dataDir string) string {
	return filepath.Join(dataDir, PIDName)
}

// Path returns the pid file location
func (p *PIDFile) Path() string {
	return p.path
}

// Acquire records the current process as the server listening on addr.
// A pid file left by a dead process is replaced.
func (p *PIDFile) Acquire(addr string) error {
	if info, running, err := p.Running(); err == nil && running {
		return fmt.Errorf("%w: pid %d on %s (%s)", domain.ErrServerRunning, info.PID, info.Addr, p.path)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}
	content := fmt.Sprintf("%d\n%s\n", os.Getpid(), addr)
	if err := os.WriteFile(p.path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

// Read parses the pid file
func (p *PIDFile) Read() (Info, error) {
	f, err := os.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, fmt.Errorf("%w: no pid file at %s", domain.ErrServerNotRunning, p.path)
		}
		return Info{}, fmt.Errorf("failed to read pid file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return Info{}, fmt.Errorf("failed to read pid file: %w", err)
	}
	if len(lines) == 0 {
		return Info{}, fmt.Errorf("empty pid file: %s", p.path)
	}

	pid, err := strconv.Atoi(lines[0])
	if err != nil || pid <= 0 {
		return Info{}, fmt.Errorf("invalid pid in file: %q", lines[0])
	}
	info := Info{PID: pid}
	if len(lines) > 1 {
		info.Addr = lines[1]
	}
	return info, nil
}

// Running reports whether the recorded process is alive
func (p *PIDFile) Running() (Info, bool, error) {
	info, err := p.Read()
	if err != nil {
		return Info{}, false, err
	}
	return info, isProcessRunning(info.PID), nil
}

// Release removes the pid file if it still names the current process
func (p *PIDFile) Release() error {
	info, err := p.Read()
	if err != nil || info.PID != os.Getpid() {
		return nil
	}
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove pid file: %w", err)
	}
	return nil
}

// Stop asks the recorded server to shut down
func (p *PIDFile) Stop() (Info, error) {
	info, running, err := p.Running()
	if err != nil {
		return Info{}, err
	}
	if !running {
		return info, fmt.Errorf("%w: stale pid %d", domain.ErrServerNotRunning, info.PID)
	}
	return info, stopProcess(info.PID)
}
