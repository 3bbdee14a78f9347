// Package main provides the unpin CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joss/unpin/internal/bridge"
	"github.com/joss/unpin/internal/bridge/fake"
	"github.com/joss/unpin/internal/bridge/wire"
	"github.com/joss/unpin/internal/config"
	"github.com/joss/unpin/internal/heuristic"
	"github.com/joss/unpin/internal/orchestrator"
	"github.com/joss/unpin/internal/render"
	"github.com/joss/unpin/internal/report"
	"github.com/joss/unpin/internal/selftest"
	"github.com/joss/unpin/internal/target"
)

var (
	version = "0.1.0"
	pretty  = true
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "unpin",
		Short: "Trust-check interception for managed-runtime processes",
		Long: `unpin locates certificate-pinning and trust-verification checks in a
running managed-runtime process and installs permissive replacements,
so intercepted TLS traffic is accepted.

Use 'unpin run' against a live agent, or 'unpin run --dry-run' to
exercise the engine against a built-in synthetic app.`,
	}

	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "Pretty print output")

	rootCmd.AddCommand(
		runCmd(),
		scanCmd(),
		targetsCmd(),
		reportCmd(),
		doctorCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect picks the bridge for a command: the built-in synthetic app in
// dry-run mode, otherwise the agent at the configured address.
func connect(dryRun bool) (bridge.Bridge, func(), error) {
	if dryRun {
		return fake.Seeded(), func() {}, nil
	}

	addr := config.Env().GadgetAddr
	client, err := wire.Dial(addr)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { client.Close() }, nil
}

func runCmd() *cobra.Command {
	var dryRun bool
	var noSave bool
	var noHeuristics bool
	var device string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Install trust-check bypasses in the target process",
		Long: `Run the full pass: the static target table first, then the heuristic
scan over the loaded class namespace. Every attempt is recorded; a
missing class or a rejected override never aborts the run.

Examples:
  unpin run --dry-run          # Exercise the engine against a synthetic app
  unpin run --device emulator-5554
  unpin run --no-heuristics    # Static targets only`,
		Run: func(cmd *cobra.Command, args []string) {
			b, closeBridge, err := connect(dryRun)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer closeBridge()

			if device == "" {
				device = config.Env().Device
			}
			heuristics := !noHeuristics && !config.Env().NoHeuristics

			opts := []orchestrator.Option{
				orchestrator.WithDevice(device),
				orchestrator.WithHeuristics(heuristics),
			}
			if probes := config.Env().ProbeAlphabet; len(probes) > 0 {
				opts = append(opts, orchestrator.WithMatcher(heuristic.New(nil, probes)))
			}

			rep := orchestrator.New(b, opts...).Run(context.Background())

			fmt.Print(render.New(pretty).Report(rep))

			if noSave {
				return
			}
			if err := saveReport(rep); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: archive failed: %v\n", err)
			}
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run against a built-in synthetic app")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Skip archiving the run report")
	cmd.Flags().BoolVar(&noHeuristics, "no-heuristics", false, "Skip the heuristic scan phase")
	cmd.Flags().StringVarP(&device, "device", "d", "", "Device serial for the report")

	return cmd
}

func saveReport(rep *report.Report) error {
	store, err := report.Open(config.DBPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(context.Background(), rep)
}

func scanCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List heuristic matches without installing anything",
		Long: `Enumerate the loaded class namespace and report every class and method
the heuristic matcher would patch. Nothing is installed.`,
		Run: func(cmd *cobra.Command, args []string) {
			b, closeBridge, err := connect(dryRun)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer closeBridge()

			matcher := heuristic.New(nil, config.Env().ProbeAlphabet)
			matches, err := matcher.Scan(context.Background(), b)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			w := render.Stdout()
			if len(matches) == 0 {
				w.Empty("No heuristic matches")
				return
			}
			w.Header("heuristic matches: %d", len(matches))
			for _, m := range matches {
				w.Item("%s %s.%s", render.StatusIcon("candidate"), m.Class, m.Method)
			}
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Scan the built-in synthetic app")

	return cmd
}

func targetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "Show the static target table",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(render.New(pretty).Targets(target.Defaults()))
		},
	}
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect archived runs",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			store, err := report.Open(config.DBPath())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer store.Close()

			summaries, err := store.List(context.Background(), limit)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			fmt.Print(render.New(pretty).Summaries(summaries))
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")

	showCmd := &cobra.Command{
		Use:   "show <run_id>",
		Short: "Show a full archived run report",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			store, err := report.Open(config.DBPath())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer store.Close()

			rep, err := store.Get(context.Background(), args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			fmt.Print(render.New(pretty).Report(rep))
		},
	}

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

func doctorCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check environment health",
		Long: `Diagnose the workstation environment.

Checks:
  - TTY availability
  - adb presence and attached devices
  - Agent reachability at the configured address`,
		Run: func(cmd *cobra.Command, args []string) {
			env := selftest.Check()

			w := render.Stdout()
			if verbose {
				w.Print("%s", env.Summary())
			} else {
				w.Println("%s", env.QuickCheck())
			}

			if !env.IsHealthy() {
				for _, e := range env.Errors {
					render.Stderr().Item("%s %s", render.StatusIcon("failed"), e)
				}
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostics")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show unpin version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("unpin version %s\n", version)
		},
	}
}
