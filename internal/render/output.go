// Package render provides output formatting for terminal consumption.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/joss/unpin/internal/hook"
	"github.com/joss/unpin/internal/report"
	"github.com/joss/unpin/internal/target"
)

// Renderer handles output formatting.
type Renderer struct {
	pretty bool
}

// New creates a new renderer.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// Report formats a full run report, one line per installation attempt.
func (r *Renderer) Report(rep *report.Report) string {
	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("Run %s", rep.RunID) + "\n")
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	} else {
		fmt.Fprintf(&sb, "run=%s device=%s\n", rep.RunID, rep.Device)
	}

	for _, h := range rep.Hooks {
		r.formatHook(&sb, h)
	}

	if r.pretty {
		sb.WriteString(strings.Repeat("─", 60) + "\n")
		fmt.Fprintf(&sb, "%s installed, %s failed, %d heuristic matches in %s\n",
			color.GreenString("%d", rep.InstalledCount()),
			color.RedString("%d", rep.FailedCount()),
			rep.HeuristicMatches,
			FormatDuration(rep.Duration()))
	} else {
		fmt.Fprintf(&sb, "installed=%d failed=%d matches=%d duration=%s\n",
			rep.InstalledCount(), rep.FailedCount(), rep.HeuristicMatches,
			FormatDuration(rep.Duration()))
	}

	return sb.String()
}

// maxReasonLen caps failure reasons on report lines; agents can send
// multi-line stack traces.
const maxReasonLen = 200

func (r *Renderer) formatHook(sb *strings.Builder, h hook.Record) {
	status := color.GreenString(StatusIcon(string(h.Status)))
	if h.Status == hook.StatusFailed {
		status = color.RedString(StatusIcon(string(h.Status)))
	}

	origin := ""
	if h.Heuristic {
		origin = " (heuristic)"
	}

	if r.pretty {
		fmt.Fprintf(sb, "%s %s%s\n", status, h.Description(), origin)
		if h.Reason != "" {
			fmt.Fprintf(sb, "    %s\n", color.HiBlackString(Truncate(h.Reason, maxReasonLen)))
		}
	} else {
		fmt.Fprintf(sb, "[%s] %s%s", h.Status, h.Description(), origin)
		if h.Reason != "" {
			fmt.Fprintf(sb, " reason=%q", Truncate(h.Reason, maxReasonLen))
		}
		sb.WriteString("\n")
	}
}

// Summaries formats archived run summaries, newest first.
func (r *Renderer) Summaries(summaries []report.Summary) string {
	if len(summaries) == 0 {
		return "No archived runs"
	}

	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("Archived Runs\n"))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	}

	for _, s := range summaries {
		timeStr := s.StartedAt.Format("2006-01-02 15:04:05")
		device := s.Device
		if device == "" {
			device = "-"
		}
		if r.pretty {
			fmt.Fprintf(&sb, "%s %s  %-16s %s/%s\n",
				color.HiBlackString(timeStr), s.RunID, device,
				color.GreenString("%d", s.Installed), color.RedString("%d", s.Failed))
		} else {
			fmt.Fprintf(&sb, "[%s] %s device=%s installed=%d failed=%d\n",
				timeStr, s.RunID, device, s.Installed, s.Failed)
		}
	}

	return sb.String()
}

// Targets formats the static target table.
func (r *Renderer) Targets(targets []target.Descriptor) string {
	if len(targets) == 0 {
		return "No targets configured"
	}

	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("Static Targets\n"))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	}

	for _, d := range targets {
		if r.pretty {
			fmt.Fprintf(&sb, "• %s\n", d.Description())
			if d.Note != "" {
				fmt.Fprintf(&sb, "    %s\n", color.HiBlackString(d.Note))
			}
		} else {
			fmt.Fprintf(&sb, "%s\n", d.Description())
		}
	}

	return sb.String()
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
