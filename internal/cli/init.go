package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file and report discovered profiles",
		Long: "Create the configuration directory and config.yaml if missing, then list\n" +
			"the editor profiles found on this machine. With --force, config.yaml is\n" +
			"rewritten from the effective settings, including --profile and --json.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "rewrite config.yaml from the effective settings")
	return cmd
}

func (a *app) runInit(cmd *cobra.Command, force bool) error {
	path := filepath.Join(a.configDir, configFileExt)
	if force {
		if err := writeConfig(path, a.settings); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
	} else if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "config: %s\n", path)
	profiles := a.reg.Discover()
	if len(profiles) == 0 {
		fmt.Fprintln(out, "no editor profiles found")
		return nil
	}
	fmt.Fprintf(out, "profiles (%d):\n", len(profiles))
	for _, p := range profiles {
		fmt.Fprintf(out, "  %s\n", p.Identifier())
	}
	return nil
}
