package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path-or-uri>",
		Short: "Register a workspace with the profile",
		Long: "Add a local path or a remote URI to the profile's recent workspaces.\n" +
			"Relative local paths are made absolute. Adding a registered path\n" +
			"changes nothing and exits with status 1.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.reg.Add(cmd.Context(), a.settings.Profile, args[0])
			if err != nil && !errors.Is(err, types.ErrDuplicateWorkspace) {
				return err
			}
			verb := "added"
			if err != nil {
				verb = "already registered"
			}
			if perr := a.printResult(cmd, verb, rec); perr != nil {
				return perr
			}
			return err
		},
	}
}

func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id-or-path> <name>",
		Short: "Set the display name of a workspace",
		Long: "Store a display name on every source of the workspace that keeps one.\n" +
			"An empty name removes the display name.",
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rec, err := a.reg.Find(ctx, a.settings.Profile, args[0])
			if err != nil {
				return err
			}
			rec, err = a.reg.Rename(ctx, a.settings.Profile, rec.ID, args[1])
			if err != nil {
				return err
			}
			return a.printResult(cmd, "renamed", rec)
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id-or-path>...",
		Short: "Remove workspaces from every store that lists them",
		Args:  minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			var errs []error
			for _, ref := range args {
				rec, err := a.reg.Find(ctx, a.settings.Profile, ref)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if err := a.reg.Delete(ctx, a.settings.Profile, rec.ID); err != nil {
					var pdf *types.PartialDeleteFailure
					if errors.As(err, &pdf) {
						fmt.Fprintf(out, "partially deleted %s %s\n", idColor.Sprint(shortID(rec.ID)), rec.Path)
					}
					errs = append(errs, fmt.Errorf("delete %s: %w", rec.Path, err))
					continue
				}
				if a.settings.Output != outputJSON {
					fmt.Fprintf(out, "deleted %s %s\n", idColor.Sprint(shortID(rec.ID)), rec.Path)
				}
			}
			return errors.Join(errs...)
		},
	}
}

// printResult reports the record affected by a mutation.
func (a *app) printResult(cmd *cobra.Command, verb string, rec types.WorkspaceRecord) error {
	out := cmd.OutOrStdout()
	if a.settings.Output == outputJSON {
		return printJSON(out, rec)
	}
	_, err := fmt.Fprintf(out, "%s %s %s\n", verb, idColor.Sprint(shortID(rec.ID)), rec.Label())
	return err
}
