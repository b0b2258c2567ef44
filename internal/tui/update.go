package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Ning0612/Filegraph/internal/core/layout"
	"github.com/Ning0612/Filegraph/internal/logger"
	"github.com/Ning0612/Filegraph/internal/service"
)

// wheelStep is the zoom factor of one wheel notch
const wheelStep = 1.1

// panStep is how far an arrow key pans, in cells
const panStep = 4

// tunable describes one live-adjustable force parameter
type tunable struct {
	name string
	step float64
	get  func(layout.Params) float64
	set  func(*layout.Params, float64)
}

var tunables = []tunable{
	{"link", 10,
		func(p layout.Params) float64 { return p.LinkDistance },
		func(p *layout.Params, v float64) { p.LinkDistance = v }},
	{"charge", 20,
		func(p layout.Params) float64 { return p.ChargeStrength },
		func(p *layout.Params, v float64) { p.ChargeStrength = v }},
	{"center", 0.05,
		func(p layout.Params) float64 { return p.CenterStrength },
		func(p *layout.Params, v float64) { p.CenterStrength = v }},
	{"padding", 1,
		func(p layout.Params) float64 { return p.CollidePadding },
		func(p *layout.Params, v float64) { p.CollidePadding = v }},
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.centered = false
		return m, nil

	case foldersMsg:
		m.folders, m.err = msg.folders, msg.err
		root := m.opts.Root
		if root == "" && len(m.folders) > 0 {
			root = m.folders[0]
		}
		if root != "" {
			m.openRoot(root)
		}
		return m, nil

	case frameMsg:
		m.refresh()
		return m, m.nextFrame()

	case tea.MouseMsg:
		m.handleMouse(msg)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// refresh pulls a new frame when the session changed
func (m *Model) refresh() {
	s := m.viewer.Session()
	if s == nil {
		m.hasFrame = false
		return
	}
	if !m.centered && m.width > 0 {
		m.center(s)
	}
	if m.hasFrame && m.frame.Root == s.Root() && m.frame.Version == s.Version() {
		return
	}
	m.frame = s.Snapshot()
	m.hasFrame = true
}

// center places the middle of the world canvas in the middle of the terminal
func (m *Model) center(s *service.Session) {
	w, h := m.canvasSize()
	p := s.Params()
	if err := s.ResetView(); err != nil {
		return
	}
	if err := s.Pan(float64(w)*cellW/2-p.Width/2, float64(h)*cellH/2-p.Height/2); err != nil {
		return
	}
	m.centered = true
}

func (m *Model) openRoot(root string) {
	if _, err := m.viewer.SelectRoot(m.ctx, root); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.hasFrame = false
	m.centered = false
	for i, f := range m.folders {
		if f == root {
			m.folderIdx = i
		}
	}
}

func (m *Model) cycleRoot(delta int) {
	if len(m.folders) == 0 {
		return
	}
	i := (m.folderIdx + delta + len(m.folders)) % len(m.folders)
	m.openRoot(m.folders[i])
}

// pointer maps a terminal cell to the screen space of the view transform
func pointer(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * cellW, (float64(row) + 0.5) * cellH
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	s := m.viewer.Session()
	if s == nil {
		return
	}
	x, y := pointer(msg.X, msg.Y-headerRows)

	var err error
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		err = s.Wheel(x, y, wheelStep)
	case msg.Button == tea.MouseButtonWheelDown:
		err = s.Wheel(x, y, 1/wheelStep)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		err = s.PointerDown(x, y)
	case msg.Action == tea.MouseActionMotion:
		err = s.PointerMove(x, y)
	case msg.Action == tea.MouseActionRelease:
		err = s.PointerUp(x, y)
	}
	if err != nil {
		m.err = err
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.viewer.Session()
	w, h := m.canvasSize()
	midX, midY := float64(w)*cellW/2, float64(h)*cellH/2

	var err error
	switch msg.String() {
	case "ctrl+c", "q":
		m.viewer.Close()
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
	case "l":
		m.showLabels = !m.showLabels
	case "v":
		if logger.CurrentLevel() == logger.LevelDebug {
			logger.SetLevel(logger.LevelInfo)
		} else {
			logger.SetLevel(logger.LevelDebug)
		}
	case "tab", "n":
		m.cycleRoot(1)
	case "shift+tab", "p":
		m.cycleRoot(-1)
	case "1", "2", "3", "4":
		m.param = int(msg.String()[0] - '1')
	case "-", "_":
		err = m.adjust(-1)
	case "=", "+":
		err = m.adjust(1)
	}
	if s != nil {
		switch msg.String() {
		case "esc":
			err = s.Cancel()
		case "r":
			m.centered = false
		case " ":
			err = s.Reheat()
		case "up":
			err = s.Pan(0, panStep*cellH)
		case "down":
			err = s.Pan(0, -panStep*cellH)
		case "left":
			err = s.Pan(panStep*cellW, 0)
		case "right":
			err = s.Pan(-panStep*cellW, 0)
		case "z":
			err = s.Wheel(midX, midY, wheelStep)
		case "x":
			err = s.Wheel(midX, midY, 1/wheelStep)
		}
	}
	if err != nil {
		m.err = err
	}
	m.refresh()
	return m, nil
}

// adjust nudges the selected force parameter by one step in dir
func (m *Model) adjust(dir float64) error {
	p := m.viewer.Params()
	t := tunables[m.param]
	t.set(&p, t.get(p)+dir*t.step)
	return m.viewer.SetParams(p)
}
