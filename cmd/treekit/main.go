// Command treekit browses node files (JSON, YAML or SQLite) as a
// virtualized tree in the terminal.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/treekit/pkg/config"
	"github.com/vanderheijden86/treekit/pkg/debug"
	"github.com/vanderheijden86/treekit/pkg/metrics"
	"github.com/vanderheijden86/treekit/pkg/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the state shared by all subcommands.
type app struct {
	configPath  string
	cpuProfile  string
	showMetrics bool

	cfg      config.Config
	stopProf func()
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "treekit [files...]",
		Short:         "Browse node files as a virtualized tree",
		Long:          "treekit shows JSON, YAML and SQLite node files as an expandable, filterable tree.\nWithout a terminal the visible outline is printed instead.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runView(cmd, args, viewFlags{})
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: XDG config dir)")
	root.PersistentFlags().StringVar(&a.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	root.PersistentFlags().BoolVar(&a.showMetrics, "metrics", false, "Print timing metrics to stderr on exit")

	root.AddCommand(
		newViewCmd(a),
		newDumpCmd(a),
		newConvertCmd(a),
		newDiffCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFrom(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	debug.Dump("config", a.cfg)

	if a.cpuProfile != "" {
		f, err := os.Create(a.cpuProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		a.stopProf = func() {
			pprof.StopCPUProfile()
			f.Close()
		}
	}
	return nil
}

func (a *app) teardown(cmd *cobra.Command) {
	if a.stopProf != nil {
		a.stopProf()
		a.stopProf = nil
	}
	if !a.showMetrics {
		return
	}
	report := struct {
		Timings  []metrics.TimingStats  `json:"timings"`
		Counters []metrics.CounterStats `json:"counters"`
	}{metrics.AllTimingStats(), metrics.AllCounterStats()}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), string(data))
}

// saveConfig writes the config back to where it was read from.
func (a *app) saveConfig() error {
	if a.configPath != "" {
		return config.SaveTo(a.cfg, a.configPath)
	}
	return config.Save(a.cfg)
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set TREEKIT_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TREEKIT_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
