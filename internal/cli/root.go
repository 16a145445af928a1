// Package cli implements the wsedit command-line interface. Commands only
// call the registry façade and render what it returns.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/wsedit/internal/logging"
	"github.com/mesh-intelligence/wsedit/internal/paths"
	"github.com/mesh-intelligence/wsedit/internal/query"
	"github.com/mesh-intelligence/wsedit/internal/registry"
	"github.com/mesh-intelligence/wsedit/internal/sources"
	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	profile   string
	configDir string
	jsonMode  bool
	verbose   bool
	noColor   bool
}

// app is the state shared by the commands of one invocation. It is filled
// in by the root command's PersistentPreRunE.
type app struct {
	flags     rootFlags
	configDir string
	settings  settings
	logger    *zap.Logger
	reg       *registry.Registry
	extra     []registry.Option
}

// NewRootCmd creates the top-level "wsedit" command with global flags and
// all subcommands registered. opts are applied after the options derived
// from the configuration.
func NewRootCmd(opts ...registry.Option) *cobra.Command {
	a := &app{extra: opts, logger: logging.Nop()}

	root := &cobra.Command{
		Use:   "wsedit",
		Short: "Inspect and edit the recent workspaces of VS Code family editors and Zed",
		Long: "wsedit lists, searches and edits the recently opened workspaces that\n" +
			"VS Code, its forks and Zed keep in their profile directories.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.profile, "profile", "p", "", "profile name, root directory or ::zed (default: first discovered)")
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVar(&a.flags.verbose, "verbose", false, "log debug diagnostics to stderr")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newProfilesCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newExistsCmd(a),
		newParseCmd(a),
		newAddCmd(a),
		newRenameCmd(a),
		newDeleteCmd(a),
		newWatchCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "wsedit:", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// setup loads the configuration, then builds the logger and the registry.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.flags.noColor {
		color.NoColor = true
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	a.configDir = configDir

	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	s, err := readSettings(v)
	if err != nil {
		return usageError{err}
	}
	if a.flags.jsonMode {
		s.Output = outputJSON
	}
	if a.flags.profile != "" {
		s.Profile = a.flags.profile
	}
	a.settings = s

	logCfg := logging.DefaultConfig()
	logCfg.Level = s.LogLevel
	if a.flags.verbose {
		logCfg = logging.VerboseConfig()
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return usageError{fmt.Errorf("log_level: %w", err)}
	}
	a.logger = logger

	a.reg = registry.New(append(a.registryOptions(), a.extra...)...)
	logger.Debug("configuration loaded",
		zap.String("config_dir", configDir),
		zap.String("profile", s.Profile),
		zap.String("output", s.Output))
	return nil
}

// registryOptions translates the settings into registry options.
func (a *app) registryOptions() []registry.Option {
	cfg := a.settings.Registry
	opts := []registry.Option{
		registry.WithLogger(a.logger),
		registry.WithExtraRoots(cfg.ExtraRoots...),
	}
	switch cfg.FoldCase {
	case types.FoldOn:
		opts = append(opts, registry.WithFoldCase(true))
	case types.FoldOff:
		opts = append(opts, registry.WithFoldCase(false))
	}
	switch {
	case !cfg.ZedEnabled:
		opts = append(opts, registry.WithZed(nil))
	case cfg.ZedDBDir != "":
		opts = append(opts, registry.WithZed(sources.NewZed(cfg.ZedDBDir, a.logger)))
	}
	return opts
}

// zedDBDir is the directory holding the Zed channel databases.
func (a *app) zedDBDir() string {
	if d := a.settings.Registry.ZedDBDir; d != "" {
		return d
	}
	return paths.ZedDBDir()
}

// usageError marks errors caused by the invocation rather than the system.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue usageError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, target := range []error{
		types.ErrNotFound,
		types.ErrInvalidPath,
		types.ErrDuplicateWorkspace,
		types.ErrLabelUnsupported,
		types.ErrNotWritable,
		types.ErrUnsupported,
		query.ErrInvalidQuery,
	} {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// exactArgs is cobra.ExactArgs with the error marked as a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// minimumArgs is cobra.MinimumNArgs with the error marked as a usage error.
func minimumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
