// Command procguard-monitor is a standalone debug tool for
// internal/security/procguard: scan running processes against the
// blocklist and, in watch mode, print every blocked-process sighting
// and kill as it happens without wiring up the full lockdown engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openlock/agent/internal/model"
	"github.com/openlock/agent/internal/security/procguard"
)

var (
	version = "1.0.0"

	blocklistPath string
	interval      time.Duration
	dryRun        bool

	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorYellow = color.New(color.FgYellow)
	colorCyan   = color.New(color.FgCyan)
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		colorRed.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "procguard-monitor",
	Short:   "standalone debug tool for the process guard's blocklist and scanner",
	Version: version,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "scan running processes once and print which ones would be blocked",
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	bl := loadBlocklist()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	procs, err := procguard.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	colorCyan.Printf("%d processes visible\n", len(procs))
	blocked := 0
	for _, p := range procs {
		if bl.IsBlocked(p.Name, p.Cmdline, p.Exe) {
			blocked++
			colorRed.Printf("  BLOCKED  pid=%d name=%s exe=%s\n", p.PID, p.Name, p.Exe)
		}
	}
	colorGreen.Printf("%d blocked\n", blocked)
	return nil
}

// recordingSink prints every event to stdout instead of forwarding it
// to a lockdown engine.
type recordingSink struct{}

func (recordingSink) Emit(event model.Event) {
	switch event.Kind {
	case model.EventBlockedProcessDetected:
		colorYellow.Printf("[detected] pid=%d name=%s\n", event.Process.PID, event.Process.Name)
	case model.EventBlockedProcessKilled:
		colorRed.Printf("[killed]   pid=%d name=%s\n", event.Process.PID, event.Process.Name)
	default:
		fmt.Printf("[%s] %s\n", event.Kind, event.Message)
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "run the scan/kill loop standalone and print every event",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if dryRun {
		colorYellow.Println("dry-run mode is not implemented in this tool: it always terminates. Use scan for a read-only check.")
	}

	bl := loadBlocklist()
	mgr := procguard.NewManager(bl, recordingSink{})

	colorCyan.Printf("watching every %v (Ctrl+C to stop)\n", interval)
	mgr.Start(interval)
	defer mgr.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println()
	colorGreen.Println("stopped")
	return nil
}

func loadBlocklist() *procguard.Blocklist {
	bl := procguard.NewBlocklist()
	if blocklistPath != "" {
		if err := bl.LoadFromFile(blocklistPath); err != nil {
			colorYellow.Printf("failed to load %s, using defaults: %v\n", blocklistPath, err)
			bl.LoadDefaults()
		}
	} else {
		bl.LoadDefaults()
	}
	return bl
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&blocklistPath, "blocklist", "b", "", "path to blocklist.json (default: built-in defaults)")
	watchCmd.Flags().DurationVarP(&interval, "interval", "i", 2*time.Second, "scan interval")
	watchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "reserved for future read-only watch mode")

	rootCmd.AddCommand(scanCmd, watchCmd)
}
