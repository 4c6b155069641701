// ABOUTME: Entry point for skystate, the persisted client state tool
// ABOUTME: Runs the legacy migration and inspects or edits persisted state

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/2389/skystate/internal/app"
	"github.com/2389/skystate/internal/config"
	"github.com/2389/skystate/internal/legacy"
	"github.com/2389/skystate/internal/persisted"
	"github.com/2389/skystate/internal/session"
	"github.com/2389/skystate/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const usage = `Usage: skystate <command> [args]

Commands:
  init                        Create a new config file interactively
  migrate                     Migrate legacy state (runs on every command)
  show [--format json|yaml]   Print the persisted state
  import-legacy FILE          Store FILE as the legacy state blob
  forget-legacy               Remove the legacy blob once it is migrated
  keys                        List the keys held in storage
  accounts                    List accounts and token status
  switch DID                  Make an account current
  logout DID                  Remove an account
  lang primary CODE           Set the primary language
  lang content CODE...        Set content languages (none = all)
  lang toggle CODE            Toggle a content language
  lang post CODES             Set post language(s), comma separated
  color system|light|dark     Set the color mode
  mute-thread URI             Toggle muting a thread
  version                     Print the version
`

// getConfigPath returns the path to the config file.
// Priority: SKYSTATE_CONFIG env var > XDG_CONFIG_HOME/skystate/config.yaml > ~/.config/skystate/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SKYSTATE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "skystate", "config.yaml")
}

// getDataPath returns the path to the skystate data directory.
// Priority: XDG_DATA_HOME/skystate > ~/.local/share/skystate
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "skystate")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches a command. Command output goes to out; logs go to stderr.
func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("missing command")
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "init":
		return runInit(os.Stdin, out)
	case "version":
		fmt.Fprintln(out, version)
		return nil
	case "import-legacy":
		return runImportLegacy(ctx, rest, out)
	case "migrate", "show", "accounts", "switch", "logout", "lang", "color", "mute-thread",
		"forget-legacy", "keys":
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.Open(ctx, cfg, setupLogger(cfg.Logging, os.Stderr))
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "migrate":
		return runMigrate(a, out)
	case "show":
		return runShow(a, rest, out)
	case "forget-legacy":
		return runForgetLegacy(ctx, a, cfg.Storage.LegacyKey, out)
	case "keys":
		keys, err := a.Storage.Keys(ctx)
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Fprintln(out, key)
		}
		return nil
	case "accounts":
		return runAccounts(a, out)
	case "switch":
		if len(rest) != 1 {
			return errors.New("usage: skystate switch DID")
		}
		if err := a.Session.SwitchAccount(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "Current account: %s\n", a.Session.CurrentAccount().Handle)
		return nil
	case "logout":
		if len(rest) != 1 {
			return errors.New("usage: skystate logout DID")
		}
		if err := a.Session.RemoveAccount(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %s\n", rest[0])
		return nil
	case "lang":
		return runLang(ctx, a, rest, out)
	case "color":
		if len(rest) != 1 {
			return errors.New("usage: skystate color system|light|dark")
		}
		return a.Preferences.SetColorMode(ctx, persisted.ColorMode(rest[0]))
	case "mute-thread":
		if len(rest) != 1 {
			return errors.New("usage: skystate mute-thread URI")
		}
		muted, err := a.Preferences.ToggleMutedThread(ctx, rest[0])
		if err != nil {
			return err
		}
		if muted {
			fmt.Fprintln(out, "Thread muted")
		} else {
			fmt.Fprintln(out, "Thread unmuted")
		}
		return nil
	}
	return nil
}

// loadConfig loads the config file, falling back to defaults when none exists.
func loadConfig() (*config.Config, error) {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(getDataPath()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func runMigrate(a *app.App, out io.Writer) error {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	switch a.Migration {
	case legacy.ResultMigrated:
		green.Fprint(out, "▶ ")
		fmt.Fprintln(out, "Legacy state migrated")
	case legacy.ResultAlreadyMigrated:
		gray.Fprintln(out, "Already migrated, nothing to do")
	case legacy.ResultNoLegacyData:
		gray.Fprintln(out, "No legacy state found")
	case legacy.ResultFailed:
		yellow.Fprintln(out, "Migration failed; starting from defaults (see log)")
	default:
		gray.Fprintln(out, "Migration skipped by config")
	}
	return nil
}

func runShow(a *app.App, args []string, out io.Writer) error {
	format := "json"
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--format" || arg == "-f":
			if i+1 >= len(args) {
				return fmt.Errorf("--format requires a value")
			}
			format = args[i+1]
			i++
		case strings.HasPrefix(arg, "--format="):
			format = strings.TrimPrefix(arg, "--format=")
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
	}
	return renderState(out, a.State.Get(), format)
}

// renderState writes state as indented JSON or YAML using the JSON field names.
func renderState(out io.Writer, state persisted.Schema, format string) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	switch format {
	case "json":
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "yaml":
		var tree map[string]any
		if err := json.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("decoding state: %w", err)
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (json, yaml)", format)
	}
}

func runAccounts(a *app.App, out io.Writer) error {
	accounts := a.Session.Accounts()
	if len(accounts) == 0 {
		fmt.Fprintln(out, "No accounts")
		return nil
	}

	current := a.Session.CurrentAccount()
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)
	now := time.Now()

	for _, acct := range accounts {
		marker := "  "
		if current != nil && current.DID == acct.DID {
			marker = green.Sprint("* ")
		}
		fmt.Fprintf(out, "%s%s %s", marker, acct.Handle, gray.Sprint(acct.DID))

		status := session.Inspect(acct, now)
		if status.NeedsLogin() {
			red.Fprintf(out, " [login required: refresh %s]", status.Refresh.State)
		} else if status.Refresh.State == session.TokenValid {
			gray.Fprintf(out, " [session until %s]", status.Refresh.ExpiresAt.Local().Format(time.DateTime))
		}
		fmt.Fprintln(out)
	}
	return nil
}

func runLang(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		prefs := a.Preferences.LanguagePrefs()
		fmt.Fprintf(out, "Primary:  %s\n", prefs.PrimaryLanguage)
		fmt.Fprintf(out, "Content:  %s\n", strings.Join(prefs.ContentLanguages, ", "))
		fmt.Fprintf(out, "Post:     %s\n", prefs.PostLanguage)
		fmt.Fprintf(out, "History:  %s\n", strings.Join(prefs.PostLanguageHistory, " | "))
		return nil
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "primary":
		if len(rest) != 1 {
			return errors.New("usage: skystate lang primary CODE")
		}
		return a.Preferences.SetPrimaryLanguage(ctx, rest[0])
	case "content":
		return a.Preferences.SetContentLanguages(ctx, rest)
	case "toggle":
		if len(rest) != 1 {
			return errors.New("usage: skystate lang toggle CODE")
		}
		return a.Preferences.ToggleContentLanguage(ctx, rest[0])
	case "post":
		if len(rest) != 1 {
			return errors.New("usage: skystate lang post CODES")
		}
		if err := a.Preferences.SetPostLanguage(ctx, rest[0]); err != nil {
			return err
		}
		return a.Preferences.SavePostLanguageToHistory(ctx)
	default:
		return fmt.Errorf("unknown lang command: %s", sub)
	}
}

// runImportLegacy stores a file as the legacy blob without migrating it.
// It refuses files that would not parse as legacy state.
func runImportLegacy(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: skystate import-legacy FILE")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading legacy file: %w", err)
	}
	if _, err := legacy.Parse(data); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	storage, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer storage.Close()

	if err := storage.SetItem(ctx, cfg.Storage.LegacyKey, string(data)); err != nil {
		return err
	}
	fmt.Fprintf(out, "Legacy state stored under %q in %s\n", cfg.Storage.LegacyKey, cfg.Storage.Path)
	return nil
}

// runForgetLegacy removes the legacy blob, but only when this start either
// migrated it or found the persisted state already in place.
func runForgetLegacy(ctx context.Context, a *app.App, legacyKey string, out io.Writer) error {
	switch a.Migration {
	case legacy.ResultMigrated, legacy.ResultAlreadyMigrated, legacy.ResultNoLegacyData:
	default:
		return errors.New("legacy state has not been migrated; refusing to remove it")
	}

	if err := a.Storage.RemoveItem(ctx, legacyKey); err != nil {
		return fmt.Errorf("removing legacy state: %w", err)
	}
	fmt.Fprintf(out, "Removed legacy state %q\n", legacyKey)
	return nil
}

// setupLogger builds the process logger and installs it as the slog default.
func setupLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = &colorHandler{
			mu:    &sync.Mutex{},
			out:   w,
			level: level,
		}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
