// ABOUTME: Interactive config file generation for skystate
// ABOUTME: Prompts for storage, locale and logging settings and writes YAML

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/2389/skystate/internal/config"
)

func runInit(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "skystate configuration setup")
	fmt.Fprintln(out, "============================")
	fmt.Fprintln(out)

	defaults := config.Default(getDataPath())

	outputFile := prompt(reader, out, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, out, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	fmt.Fprintln(out, "\n--- Storage Configuration ---")
	dbPath := prompt(reader, out, "SQLite database path", defaults.Storage.Path)

	fmt.Fprintln(out, "\n--- Locale Configuration ---")
	localesRaw := prompt(reader, out, "Device locales (comma separated)", "en")
	var locales []string
	for _, loc := range strings.Split(localesRaw, ",") {
		if loc = strings.TrimSpace(loc); loc != "" {
			locales = append(locales, loc)
		}
	}

	fmt.Fprintln(out, "\n--- Logging Configuration ---")
	logLevel := prompt(reader, out, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, out, "Log format (text/json)", "text")

	cfg := config.Config{
		Storage: config.StorageConfig{
			Path:      dbPath,
			LegacyKey: config.DefaultLegacyKey,
			StateKey:  config.DefaultStateKey,
		},
		Locale: config.LocaleConfig{DeviceLocales: locales},
		Migration: config.MigrationConfig{
			TimeoutRaw: config.DefaultTimeout.String(),
		},
		Logging: config.LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}
	cfg.Migration.Timeout = config.DefaultTimeout
	if err := cfg.Validate(); err != nil {
		return err
	}

	body, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	content := "# skystate configuration\n# Generated by skystate init\n\n" + string(body)

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", outputFile)
	fmt.Fprintf(out, "Data directory: %s\n", dataDir)
	fmt.Fprintln(out, "\nTo migrate legacy state:")
	fmt.Fprintln(out, "  skystate migrate")

	return nil
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
