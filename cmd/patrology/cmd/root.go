// Package cmd provides the CLI commands for patrology.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/patrology/internal/config"
	perrors "github.com/Aman-CERP/patrology/internal/errors"
	"github.com/Aman-CERP/patrology/internal/logging"
	"github.com/Aman-CERP/patrology/internal/profiling"
	"github.com/Aman-CERP/patrology/pkg/version"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	debug   bool
	dataDir string
	logFile string
	profile profiling.Options

	cfg        *config.Config
	logCleanup func()
	profiler   *profiling.Session
}

// NewRootCmd creates the root command for the patrology CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "patrology",
		Short: "Phrase search over the writings of the Church Fathers",
		Long: `patrology indexes patristic texts chapter by chapter and answers
exact, proximity, fuzzy, boolean and combined phrase queries.

Index the bundled demo corpus and search it:

  patrology index --demo
  patrology search "illustrious apostles"`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.before,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.after()
		},
	}
	cmd.SetVersionTemplate("patrology version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.BoolVar(&a.debug, "debug", false, "Enable debug logging (also mirrored to stderr)")
	pf.StringVar(&a.dataDir, "data-dir", "", "Corpus data directory (overrides config and PATROLOGY_DATA_DIR)")
	pf.StringVar(&a.logFile, "log-file", "", "Log file path (default ~/.patrology/logs/patrology.log)")
	pf.StringVar(&a.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	pf.StringVar(&a.profile.Heap, "profile-mem", "", "Write heap profile to file")
	pf.StringVar(&a.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(
		newIndexCmd(a),
		newSearchCmd(a),
		newStatsCmd(a),
		newAuthorsCmd(a),
		newChaptersCmd(a),
		newDeleteCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newLogsCmd(a),
		newDoctorCmd(a),
		newValidateCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// before loads configuration, then starts logging and profiling.
func (a *app) before(cmd *cobra.Command, _ []string) error {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	cfg, err := config.Load(wd)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.Paths.DataDir = a.dataDir
	}
	a.cfg = cfg

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Server.LogLevel
	switch {
	case cmd.Name() == "serve":
		level := cfg.Server.LogLevel
		if a.debug {
			level = "debug"
		}
		logCfg = logging.ServeConfig(level)
	case a.debug:
		logCfg = logging.DebugConfig()
	}
	if a.logFile != "" {
		logCfg.FilePath = a.logFile
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	a.logCleanup = cleanup
	slog.SetDefault(logger)
	slog.Debug("command_started",
		slog.String("command", cmd.CommandPath()),
		slog.String("data_dir", cfg.Paths.DataDir),
		slog.String("version", version.Version))

	if a.profile.Enabled() {
		a.profiler, err = profiling.Start(a.profile)
		if err != nil {
			return err
		}
	}
	return nil
}

// after stops profiling and flushes logs.
func (a *app) after() error {
	var err error
	if a.profiler != nil {
		err = a.profiler.Stop()
		a.profiler = nil
	}
	if a.logCleanup != nil {
		a.logCleanup()
		a.logCleanup = nil
	}
	return err
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx and prints any error in
// the CLI error format.
func ExecuteContext(ctx context.Context) error {
	root := NewRootCmd()
	root.SilenceErrors = true
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprint(root.ErrOrStderr(), perrors.FormatForCLI(err))
	}
	return err
}
