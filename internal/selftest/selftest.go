// Package selftest provides runtime environment validation and self-diagnostics.
package selftest

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/joss/unpin/internal/config"
)

// Environment describes the workstation this tool is running on.
type Environment struct {
	HasTTY          bool
	ADBPath         string
	ADBVersion      string
	Devices         []string
	GadgetAddr      string
	GadgetReachable bool
	Warnings        []string
	Errors          []string
}

// Check performs a complete environment validation. Findings land in
// Warnings and Errors; Check itself never fails.
func Check() *Environment {
	env := &Environment{
		GadgetAddr: config.Env().GadgetAddr,
	}

	env.HasTTY = term.IsTerminal(int(os.Stdin.Fd()))

	env.detectADB()
	if env.ADBPath != "" {
		env.listDevices()
	}
	env.probeGadget()

	return env
}

func (e *Environment) detectADB() {
	path, err := exec.LookPath("adb")
	if err != nil {
		e.Warnings = append(e.Warnings, "adb not found in PATH (device attach unavailable)")
		return
	}
	e.ADBPath = path

	cmd := exec.Command(path, "version")
	out, err := cmd.Output()
	if err != nil {
		e.Errors = append(e.Errors, fmt.Sprintf("adb present but not runnable: %v", err))
		return
	}
	if line, _, ok := strings.Cut(string(out), "\n"); ok {
		e.ADBVersion = strings.TrimSpace(line)
	} else {
		e.ADBVersion = strings.TrimSpace(string(out))
	}
}

func (e *Environment) listDevices() {
	cmd := exec.Command(e.ADBPath, "devices")
	out, err := cmd.Output()
	if err != nil {
		e.Warnings = append(e.Warnings, fmt.Sprintf("adb devices failed: %v", err))
		return
	}
	for _, line := range strings.Split(string(out), "\n")[1:] {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == "device" {
			e.Devices = append(e.Devices, fields[0])
		}
	}
	if len(e.Devices) == 0 {
		e.Warnings = append(e.Warnings, "no devices attached")
	}
}

func (e *Environment) probeGadget() {
	conn, err := net.DialTimeout("tcp", e.GadgetAddr, 2*time.Second)
	if err != nil {
		e.Warnings = append(e.Warnings, fmt.Sprintf("agent not reachable at %s", e.GadgetAddr))
		return
	}
	conn.Close()
	e.GadgetReachable = true
}

// IsHealthy returns true when nothing blocks a run. Warnings do not count;
// a dry run needs neither a device nor an agent.
func (e *Environment) IsHealthy() bool {
	return len(e.Errors) == 0
}

// CanAttach returns true when a live run has something to attach to.
func (e *Environment) CanAttach() bool {
	return e.IsHealthy() && (e.GadgetReachable || len(e.Devices) > 0)
}

// Summary returns a human-readable summary.
func (e *Environment) Summary() string {
	var sb strings.Builder

	sb.WriteString("UNPIN ENVIRONMENT CHECK\n")
	sb.WriteString(strings.Repeat("─", 40) + "\n")

	ttyStatus := "No (plain output)"
	if e.HasTTY {
		ttyStatus = "Yes (interactive output available)"
	}
	sb.WriteString(fmt.Sprintf("TTY:          %s\n", ttyStatus))

	if e.ADBPath == "" {
		sb.WriteString("adb:          NOT FOUND\n")
	} else {
		sb.WriteString(fmt.Sprintf("adb:          %s\n", e.ADBVersion))
	}

	if len(e.Devices) == 0 {
		sb.WriteString("Devices:      none\n")
	} else {
		sb.WriteString(fmt.Sprintf("Devices:      %s\n", strings.Join(e.Devices, ", ")))
	}

	gadgetStatus := "Not reachable"
	if e.GadgetReachable {
		gadgetStatus = "Reachable"
	}
	sb.WriteString(fmt.Sprintf("Agent:        %s (%s)\n", gadgetStatus, e.GadgetAddr))

	if len(e.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range e.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", w))
		}
	}

	if len(e.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, err := range e.Errors {
			sb.WriteString(fmt.Sprintf("  ✗ %s\n", err))
		}
	}

	sb.WriteString("\n")
	if e.IsHealthy() {
		sb.WriteString("Status: HEALTHY\n")
	} else {
		sb.WriteString("Status: UNHEALTHY - fix errors above\n")
	}

	return sb.String()
}

// QuickCheck returns a one-line status suitable for non-verbose output.
func (e *Environment) QuickCheck() string {
	if !e.IsHealthy() {
		return fmt.Sprintf("Environment unhealthy: %s", strings.Join(e.Errors, "; "))
	}

	mode := "plain"
	if e.HasTTY {
		mode = "interactive"
	}

	agent := "agent:down"
	if e.GadgetReachable {
		agent = "agent:up"
	}

	return fmt.Sprintf("devices:%d mode:%s %s", len(e.Devices), mode, agent)
}
