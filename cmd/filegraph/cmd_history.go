package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ning0612/Filegraph/internal/config"
	"github.com/Ning0612/Filegraph/internal/progress"
	"github.com/Ning0612/Filegraph/internal/state"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	root, _ := cmd.Flags().GetString("root")

	m, err := state.NewManager(cfg.Server.DataDir)
	if err != nil {
		return err
	}
	defer m.Close()

	var scans []state.ScanRecord
	if root != "" {
		root = config.ExpandPath(root)
		scans, err = m.GetHistory(root, limit)
	} else {
		scans, err = m.GetAllHistory(limit)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(scans) == 0 {
		fmt.Fprintln(out, "no scans recorded")
		return nil
	}
	fmt.Fprintln(out, historyTable(scans))

	if root != "" {
		last, err := m.GetLastComplete(root)
		if err != nil {
			return err
		}
		if last == nil {
			fmt.Fprintln(out, "no complete scan of", root)
		} else {
			fmt.Fprintf(out, "last complete scan %s: %s files, %s\n",
				humanize.Time(last.EndTime), progress.FormatCount(last.Files), progress.FormatBytes(last.Bytes))
		}
	}
	return nil
}

func historyTable(scans []state.ScanRecord) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "ROOT", "STARTED", "DURATION", "STATUS", "FILES", "BYTES", "SKIPPED", "CODE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, s := range scans {
		status := s.Status
		if s.Error != "" {
			status += ": " + s.Error
		}
		t.Row(
			strconv.FormatInt(s.ID, 10),
			s.Root,
			humanize.Time(s.StartTime),
			s.Duration().Round(time.Millisecond).String(),
			status,
			progress.FormatCount(s.Files),
			progress.FormatBytes(s.Bytes),
			progress.FormatCount(s.Skipped),
			strconv.Itoa(s.CloseCode),
		)
	}
	return t.String()
}
