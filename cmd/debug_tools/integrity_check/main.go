// Command integrity-checker is a standalone debug tool for
// internal/security/integrity: run a one-shot check, print a baseline
// digest, or watch continuously and print every violation as it's
// observed.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openlock/agent/internal/model"
	"github.com/openlock/agent/internal/security/integrity"
)

var (
	version = "1.0.0"
	appName = "integrity-checker"

	targetFile    string
	checkInterval time.Duration
	digestAlgo    string
	detectVM      bool
	detectDbg     bool
	verboseMode   bool

	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorYellow = color.New(color.FgYellow)
	colorCyan   = color.New(color.FgCyan)
	colorWhite  = color.New(color.FgWhite)
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		colorRed.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     appName,
	Short:   "standalone debug tool for the integrity assessor",
	Version: version,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "run PerformFullCheck once and print the report",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	target, err := resolveTargetFile()
	if err != nil {
		return err
	}
	colorCyan.Printf("target: %s\n", target)

	assessor := integrity.NewAssessor(integrity.AssessorOptions{
		DetectVM:        detectVM,
		DetectDebugger:  detectDbg,
		DigestAlgorithm: digestAlgo,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := assessor.PerformFullCheck(ctx)
	if err != nil {
		colorRed.Printf("check failed to run: %v\n", err)
		return err
	}

	printReport(report)
	return nil
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "compute the self-digest baseline for the target file",
	RunE:  runBaseline,
}

func runBaseline(cmd *cobra.Command, args []string) error {
	target, err := resolveTargetFile()
	if err != nil {
		return err
	}

	hash, err := integrity.ComputeFileDigest(target, digestAlgo)
	if err != nil {
		return fmt.Errorf("digest failed: %w", err)
	}

	colorCyan.Println("baseline:")
	fmt.Printf("  path      : %s\n", target)
	fmt.Printf("  algorithm : %s\n", digestAlgo)
	fmt.Printf("  digest    : %s\n", hash)
	fmt.Printf("  generated : %s\n", time.Now().Format(time.RFC3339))
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "run the continuous integrity monitor and print every violation",
	RunE:  runWatch,
}

// debugReporter implements integrity.Reporter for standalone tooling.
type debugReporter struct{}

func (debugReporter) Report(report *model.IntegrityReport) {
	printReport(report)
}

func runWatch(cmd *cobra.Command, args []string) error {
	assessor := integrity.NewAssessor(integrity.AssessorOptions{
		DetectVM:        detectVM,
		DetectDebugger:  detectDbg,
		DigestAlgorithm: digestAlgo,
	})
	monitor := integrity.NewMonitor(assessor, debugReporter{})

	colorYellow.Printf("watching every %v (Ctrl+C to stop)\n", checkInterval)
	monitor.Start(checkInterval)
	defer monitor.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println()
	colorGreen.Println("stopped")
	return nil
}

func printReport(report *model.IntegrityReport) {
	if report.Passed {
		colorGreen.Println("integrity check passed")
		return
	}
	colorRed.Println("integrity violation:")
	if report.VMDetected {
		fmt.Printf("  vm          : %s (%d%% confidence)\n", report.VMType, report.VMConfidencePercent)
	}
	if report.DebuggerDetected {
		fmt.Printf("  debugger    : %s\n", report.DebuggerType)
	}
	if report.BinaryTampered {
		fmt.Println("  binary      : tampered")
	}
	if report.LDPreloadDetected {
		fmt.Println("  ld_preload  : set")
	}
	if len(report.SuspiciousLibraries) > 0 {
		fmt.Printf("  suspicious  : %v\n", report.SuspiciousLibraries)
	}
	for _, w := range report.Warnings {
		colorYellow.Printf("  warning     : %s\n", w)
	}
}

func resolveTargetFile() (string, error) {
	if targetFile != "" {
		return filepath.Abs(targetFile)
	}
	return integrity.GetSelfExecutablePath()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&targetFile, "file", "f", "", "target file (default: this program's own binary)")
	rootCmd.PersistentFlags().StringVar(&digestAlgo, "algorithm", "sha256", "self-digest algorithm: sha256 or sm3")
	rootCmd.PersistentFlags().BoolVar(&detectVM, "detect-vm", true, "run VM detection")
	rootCmd.PersistentFlags().BoolVar(&detectDbg, "detect-debugger", true, "run debugger detection")
	rootCmd.PersistentFlags().BoolVarP(&verboseMode, "verbose", "v", false, "verbose output")

	watchCmd.Flags().DurationVarP(&checkInterval, "interval", "i", 30*time.Second, "check interval")

	rootCmd.AddCommand(checkCmd, baselineCmd, watchCmd)
}
