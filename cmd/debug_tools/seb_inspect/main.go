// Command seb-inspect is a standalone debug tool for internal/sebcrypto:
// decode a .seb or .openlock file, print its settings and derived Config
// Key, and for a given URL show the Config Key request-hash header and
// the navigation decision. The Browser Exam Key and its request-hash
// header are not shown.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openlock/agent/internal/config"
	"github.com/openlock/agent/internal/sebcrypto"
)

var (
	version = "1.0.0"

	configPath string
	password   string
	targetURL  string

	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorCyan   = color.New(color.FgCyan)
	colorYellow = color.New(color.FgYellow)
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		colorRed.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "seb-inspect",
	Short:   "standalone debug tool for the SEB configuration and key-derivation pipeline",
	Version: version,
	RunE:    runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	if configPath == "" {
		return fmt.Errorf("--config is required")
	}

	examConfig, err := config.LoadExamConfig(configPath, password)
	if err != nil {
		return fmt.Errorf("load exam configuration: %w", err)
	}

	colorCyan.Println("configuration:")
	fmt.Printf("  exam_name  : %s\n", examConfig.ExamName)
	fmt.Printf("  start_url  : %s\n", examConfig.StartURL)
	fmt.Printf("  seb_mode   : %v\n", examConfig.SebMode)
	fmt.Printf("  raw_bytes  : %d\n", len(examConfig.RawConfigData))

	if examConfig.SettingsMap != nil {
		colorCyan.Println("settings (sorted keys):")
		keys := make([]string, 0, len(examConfig.SettingsMap))
		for k := range examConfig.SettingsMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-32s : %v\n", k, examConfig.SettingsMap[k])
		}
	}

	settings := examConfig.SettingsMap
	if settings == nil {
		settings, _ = sebcrypto.ParsePlist(examConfig.RawConfigData)
	}
	configKey := sebcrypto.DeriveConfigKey(settings)
	colorCyan.Println("derived key material:")
	fmt.Printf("  config_key : %s\n", hex.EncodeToString(configKey[:]))

	if targetURL != "" {
		reqHash, err := sebcrypto.RequestHash(targetURL, configKey)
		if err != nil {
			return fmt.Errorf("compute request hash: %w", err)
		}
		colorYellow.Printf("  %s : %s (config-key-keyed, for %s)\n", sebcrypto.HeaderConfigKeyHash, reqHash, targetURL)

		nav := sebcrypto.NewNavigationFilter(examConfig.Navigation.AllowPatterns, examConfig.Navigation.BlockPatterns)
		decision := nav.Classify(targetURL)
		colorGreen.Printf("  navigation decision for %s: %s\n", targetURL, decision)
	}

	return nil
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to .openlock or .seb configuration")
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "password for an encrypted .seb file")
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "compute the Config Key request-hash header and navigation decision for this URL")
}
