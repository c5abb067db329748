// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the translate-runner CLI.
// See docs/ARCHITECTURE § CLI Surface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the translate-runner CLI.
var rootCmd = &cobra.Command{
	Use:   "translate-runner",
	Short: "Batch orchestration for long-running book translation",
	Long: `translate-runner sequences a multi-part book translation through an
external pipeline, one work unit at a time. Progress survives restarts:
a unit whose output carries the completion marker is skipped, and a
failed unit never stops the units behind it.

Every run appends to a shared translation log. Progress checks (status,
watch, serve) read that log and the output directories without touching
pipeline state, so they are safe to run next to a live translation.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./translate-runner.yaml or ~/.config/translate-runner/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("translate-runner")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "translate-runner"))
		}
	}

	viper.SetEnvPrefix("TRANSLATE_RUNNER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// stringSetting resolves a string option: explicit flag first, then the
// config file or environment, then the flag default.
func stringSetting(cmd *cobra.Command, name string) string {
	if !cmd.Flags().Changed(name) && viper.IsSet(name) {
		return viper.GetString(name)
	}
	v, _ := cmd.Flags().GetString(name)
	return v
}

func intSetting(cmd *cobra.Command, name string) int {
	if !cmd.Flags().Changed(name) && viper.IsSet(name) {
		return viper.GetInt(name)
	}
	v, _ := cmd.Flags().GetInt(name)
	return v
}

func durationSetting(cmd *cobra.Command, name string) time.Duration {
	if !cmd.Flags().Changed(name) && viper.IsSet(name) {
		return viper.GetDuration(name)
	}
	v, _ := cmd.Flags().GetDuration(name)
	return v
}

// settingOverridden reports whether the user supplied a value through a
// flag, config file, or environment.
func settingOverridden(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Changed(name) || viper.IsSet(name)
}

// splitCSV splits a comma-separated flag value, dropping empty parts.
func splitCSV(s string) []string {
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
