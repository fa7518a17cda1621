package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pacwrap/alpm-go/internal/config"
	"github.com/pacwrap/alpm-go/pkg/alpm"
	"github.com/pacwrap/alpm-go/pkg/alpm/logging"
)

// app holds the global flags shared by every subcommand.
type app struct {
	cfgFile string
	root    string
	dbpath  string
	verbose bool

	stdout io.Writer
	stderr io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "goalpm",
		Short: "Query pacman databases",
		Long: titleStyle.Render("goalpm") + mutedStyle.Render(" - query pacman databases") + `

goalpm reads the local and sync databases of a pacman installation through
libalpm, or through the built-in reader when built without the libalpm tag.

Settings come from --config (YAML, TOML or JSON) and GOALPM_* environment
variables; --root and --dbpath override both.`,
		Version:       fmt.Sprintf("%s (commit: %s, libalpm %s, native: %t)", Version, Commit, alpm.Version(), alpm.Native()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&a.root, "root", "r", "", "installation root (default /)")
	rootCmd.PersistentFlags().StringVarP(&a.dbpath, "dbpath", "b", "", "database directory (default /var/lib/pacman/)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log libalpm debug output")

	rootCmd.AddCommand(newInfoCommand(a))
	rootCmd.AddCommand(newFilesCommand(a))
	rootCmd.AddCommand(newDepsCommand(a))
	rootCmd.AddCommand(newOptionsCommand(a))
	rootCmd.AddCommand(newRemoveCommand(a))
	rootCmd.AddCommand(newMetricsCommand(a))
	rootCmd.AddCommand(newWaitLockCommand(a))

	return rootCmd
}

func (a *app) logger() *slog.Logger {
	level := log.WarnLevel
	if a.verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(a.stderr, log.Options{
		Prefix:          "goalpm",
		Level:           level,
		ReportTimestamp: a.verbose,
		TimeFormat:      time.TimeOnly,
	})
	return slog.New(handler)
}

// open loads the configuration and opens a handle with every repo
// registered. The caller releases the handle.
func (a *app) open(ctx context.Context) (*alpm.Alpm, *config.Config, error) {
	overrides := map[string]any{}
	if a.root != "" {
		overrides["root"] = a.root
	}
	if a.dbpath != "" {
		overrides["dbpath"] = a.dbpath
	}
	cfg, err := config.Load(ctx, config.LoadOptions{ConfigFile: a.cfgFile, Overrides: overrides})
	if err != nil {
		return nil, nil, err
	}
	slogger := a.logger()
	h, err := cfg.Open(alpm.WithLogger(logging.New(slogger)))
	if err != nil {
		return nil, nil, err
	}
	return h, cfg, nil
}

// withHandle runs fn with an open handle and releases it afterwards.
func (a *app) withHandle(cmd *cobra.Command, fn func(h *alpm.Alpm) error) error {
	h, _, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if rerr := h.Release(); rerr != nil {
			fmt.Fprintln(a.stderr, errorStyle.Render("release: ")+rerr.Error())
		}
	}()
	return fn(h)
}

// findPkg looks a package up in the local database, then in the sync
// databases in registration order.
func findPkg(h *alpm.Alpm, name string, syncOnly bool) (alpm.Package, error) {
	if !syncOnly {
		p, ok, err := h.LocalDB().Pkg(name)
		if err != nil || ok {
			return p, err
		}
	}
	for db := range h.SyncDBs().All() {
		if db.IsValid() != nil {
			continue
		}
		p, ok, err := db.Pkg(name)
		if err != nil || ok {
			return p, err
		}
	}
	return alpm.Package{}, &exitError{code: 2, err: fmt.Errorf("package %q not found", name)}
}
