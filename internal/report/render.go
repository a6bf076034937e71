package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mattjoyce/witnessgen/internal/history"
)

// HistoryTable renders recorded runs, newest first as given.
func HistoryTable(theme Theme, runs []*history.Run) string {
	if len(runs) == 0 {
		return theme.Dim.Render("no recorded runs")
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			r.StartedAt.UTC().Format(time.RFC3339),
			string(r.Status),
			r.CacheMode,
			fmt.Sprintf("%d/%d", r.L2ChainID, r.L2BlockNumber),
			formatElapsed(r.Elapsed),
			formatInt(r.ExitCode, r.Signal),
			formatInt(r.PreimageCount, nil),
			shortFingerprint(r.Fingerprint),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(theme.Border).
		Headers("RUN", "STARTED", "STATUS", "CACHE", "CHAIN/BLOCK", "ELAPSED", "EXIT", "PREIMAGES", "FINGERPRINT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.Header
			}
			style := lipgloss.NewStyle().Padding(0, 1)
			if col == 2 && row >= 0 && row < len(runs) {
				return theme.Status(runs[row].Status).Padding(0, 1)
			}
			return style
		})
	return t.Render()
}

// RunDetail renders one run as aligned key/value lines.
func RunDetail(theme Theme, r *history.Run) string {
	var b strings.Builder
	line := func(k, v string) {
		fmt.Fprintf(&b, "%s %s\n", theme.Header.Render(fmt.Sprintf("%-12s", k)), v)
	}
	line("run", r.ID)
	line("status", theme.Status(r.Status).Render(string(r.Status)))
	line("binary", r.Binary)
	line("cache", r.CacheMode)
	line("chain", fmt.Sprintf("%d", r.L2ChainID))
	line("block", fmt.Sprintf("%d", r.L2BlockNumber))
	line("claim", r.L2Claim)
	line("data dir", r.DataDir)
	line("args", strings.Join(r.Args, " "))
	line("started", r.StartedAt.UTC().Format(time.RFC3339))
	if r.CompletedAt != nil {
		line("completed", r.CompletedAt.UTC().Format(time.RFC3339))
	}
	line("elapsed", formatElapsed(r.Elapsed))
	line("exit", formatInt(r.ExitCode, r.Signal))
	line("preimages", formatInt(r.PreimageCount, nil))
	if r.Fingerprint != nil {
		line("fingerprint", *r.Fingerprint)
	}
	if r.LastError != nil {
		line("error", theme.StatusFailed.Render(*r.LastError))
	}
	return b.String()
}

// WitnessSummary is the one-block report printed after a generation.
func WitnessSummary(theme Theme, runID string, elapsed time.Duration, count int, fingerprint string) string {
	lines := []string{
		theme.Header.Render("witness ready"),
		fmt.Sprintf("  run:         %s", orDash(runID)),
		fmt.Sprintf("  generation:  %s", theme.Highlight.Render(elapsed.Round(time.Millisecond).String())),
		fmt.Sprintf("  preimages:   %d", count),
		fmt.Sprintf("  fingerprint: %s", fingerprint),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func shortFingerprint(fp *string) string {
	if fp == nil {
		return "-"
	}
	if len(*fp) <= 12 {
		return *fp
	}
	return (*fp)[:12]
}

func formatElapsed(d *time.Duration) string {
	if d == nil {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}

func formatInt(v *int, signal *string) string {
	if signal != nil && *signal != "" {
		return "sig " + *signal
	}
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
