package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Ning0612/Filegraph/internal/domain"
	"github.com/Ning0612/Filegraph/internal/progress"
	"github.com/Ning0612/Filegraph/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))

	activeParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))

	helpStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63"))
)

const helpText = `mouse     drag node to pin, drag background to pan, wheel to zoom, click to select
arrows    pan           z / x   zoom in / out     r   reset view
tab / n   next root     p       previous root     l   toggle labels
1-4       pick force    - / =   adjust force      space  reheat
esc       cancel gesture and clear selection      v   toggle debug log
q         quit`

// View renders the model
func (m Model) View() string {
	if m.width == 0 {
		return "\n  Loading...\n"
	}
	if m.showHelp {
		return helpStyle.Render(helpText)
	}

	w, h := m.canvasSize()
	var body string
	if m.hasFrame {
		body = draw(m.frame, w, h, m.showLabels).String()
	} else {
		body = strings.Repeat("\n", h-1)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		body,
		m.detail(),
		m.paramsLine(),
		m.statusLine(),
	)
}

func (m Model) header() string {
	root := "no root"
	if m.hasFrame {
		root = m.frame.Root
	}
	pos := ""
	if len(m.folders) > 0 {
		pos = fmt.Sprintf(" [%d/%d]", m.folderIdx+1, len(m.folders))
	}
	title := titleStyle.Render("filegraph")
	info := dimStyle.Render(fmt.Sprintf(" %s%s", root, pos))
	if !m.hasFrame {
		return title + info
	}
	totals := fmt.Sprintf("  %d dirs, %s files, %s (%s on disk)",
		m.frame.Dirs, progress.FormatCount(m.frame.Files),
		progress.FormatBytes(m.frame.TotalBytes), progress.FormatBytes(m.frame.DiskBytes))
	return truncate(title+info+dimStyle.Render(totals), m.width)
}

// detail describes the current selection
func (m Model) detail() string {
	if !m.hasFrame || m.frame.Selection == nil {
		return dimStyle.Render("click a node to inspect it, ? for help")
	}
	return truncate(detailStyle.Render(describe(*m.frame.Selection)), m.width)
}

func describe(sel domain.Selection) string {
	if sel.Kind == domain.NodeFile && sel.File != nil {
		f := sel.File
		parts := []string{
			f.Path,
			progress.FormatBytes(f.Size),
			progress.FormatBytes(f.SizeOnDisk) + " on disk",
			"type " + f.FileType,
		}
		if !f.Created.IsZero() {
			parts = append(parts, "created "+humanize.Time(f.Created.Time))
		}
		if !f.Accessed.IsZero() {
			parts = append(parts, "accessed "+humanize.Time(f.Accessed.Time))
		}
		return strings.Join(parts, "  ")
	}
	return fmt.Sprintf("%s/  %s in %s files  parent %s",
		sel.AbsPath, progress.FormatBytes(sel.TotalSize),
		progress.FormatCount(sel.FileCount), sel.ParentAbsPath)
}

func (m Model) paramsLine() string {
	p := m.viewer.Params()
	if m.hasFrame {
		p = m.frame.Params
	}
	parts := make([]string, len(tunables))
	for i, t := range tunables {
		s := fmt.Sprintf("%d %s %s", i+1, t.name, humanize.Ftoa(t.get(p)))
		if i == m.param {
			parts[i] = activeParamStyle.Render(s)
		} else {
			parts[i] = dimStyle.Render(s)
		}
	}
	line := strings.Join(parts, dimStyle.Render("  "))
	if m.hasFrame {
		line += dimStyle.Render(fmt.Sprintf("  alpha %.3f  zoom %.2fx  %s",
			m.frame.Alpha, m.frame.View.Scale, m.frame.Gesture))
	}
	return truncate(line, m.width)
}

func (m Model) statusLine() string {
	if m.err != nil {
		return truncate(errorStyle.Render("Error: "+m.err.Error()), m.width)
	}
	if msg := m.viewer.Message(); msg != "" && !m.hasFrame {
		return errorStyle.Render(msg)
	}
	if !m.hasFrame {
		return dimStyle.Render("waiting for a root")
	}
	return truncate(status(m.frame), m.width)
}

func status(f service.Frame) string {
	st := f.Status
	s := progress.Summary(st)
	if st.RecordsPerSecond > 0 {
		s += ", " + progress.FormatRate(st.RecordsPerSecond)
	}
	if st.Message == "" {
		return dimStyle.Render(s)
	}
	msg := detailStyle.Render(st.Message)
	if failed(st.Message) {
		msg = errorStyle.Render(st.Message)
	}
	return msg + dimStyle.Render("  "+s)
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

func failed(msg string) bool {
	return msg == progress.MsgTransport || msg == progress.MsgLost || strings.HasPrefix(msg, progress.ErrorMessage(""))
}
