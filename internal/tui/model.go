// Package tui is the terminal rendering surface: it draws the current
// session's frame and turns mouse and key events into session gestures.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Ning0612/Filegraph/internal/service"
)

// DefaultFrameInterval is how often the surface polls the session for changes
const DefaultFrameInterval = 33 * time.Millisecond

// Terminal cells are taller than wide; one cell covers cellW x cellH screen units
const (
	cellW = 8.0
	cellH = 16.0
)

// Rows reserved outside the canvas
const (
	headerRows = 1
	footerRows = 3
)

// Options configures the surface
type Options struct {
	ShowLabels    bool
	FrameInterval time.Duration

	// Root is opened instead of the first folder when set
	Root string
}

// Model holds the TUI state
type Model struct {
	ctx    context.Context
	viewer *service.Viewer
	opts   Options

	width, height int

	folders   []string
	folderIdx int

	frame    service.Frame
	hasFrame bool
	centered bool

	showLabels bool
	showHelp   bool
	param      int

	err error
}

type foldersMsg struct {
	folders []string
	err     error
}

type frameMsg time.Time

// New creates the surface model
func New(ctx context.Context, viewer *service.Viewer, opts Options) Model {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	return Model{
		ctx:        ctx,
		viewer:     viewer,
		opts:       opts,
		showLabels: opts.ShowLabels,
	}
}

// Init fetches the folder list and starts the frame clock
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadFolders(), m.nextFrame())
}

func (m Model) loadFolders() tea.Cmd {
	return func() tea.Msg {
		folders, err := m.viewer.LoadFolders(m.ctx)
		return foldersMsg{folders: folders, err: err}
	}
}

func (m Model) nextFrame() tea.Cmd {
	return tea.Tick(m.opts.FrameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// canvasSize returns the canvas in cells
func (m Model) canvasSize() (int, int) {
	w, h := m.width, m.height-headerRows-footerRows
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Run starts the program and blocks until the user quits or ctx is cancelled
func Run(ctx context.Context, viewer *service.Viewer, opts Options) error {
	p := tea.NewProgram(New(ctx, viewer, opts),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
