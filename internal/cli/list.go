package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wsedit/internal/classify"
	"github.com/mesh-intelligence/wsedit/pkg/types"
)

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the editor profiles found on this machine",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles := a.reg.Discover()
			out := cmd.OutOrStdout()
			if a.settings.Output == outputJSON {
				if profiles == nil {
					profiles = []types.Profile{}
				}
				return printJSON(out, profiles)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tEDITOR\tROOT")
			for _, p := range profiles {
				root := p.Root
				if p.Pseudo {
					root = faintColor.Sprint("(pseudo-profile)")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Editor, root)
			}
			return tw.Flush()
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var q, format string
	cmd := &cobra.Command{
		Use:   "list [filter...]",
		Short: "List the workspaces of a profile",
		Long: `List the merged workspaces of a profile, most recently used first.

Filters narrow the list. Free text matches the path, name and label; the
prefixed filters are:

  :remote:yes|no
  :type:folder|file|workspace
  :tag:<substring>
  :path:<substring>
  :existing:yes|no

Example:
  wsedit list
  wsedit list :remote:no :type:workspace
  wsedit -p ::zed list --format paths`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				q = strings.TrimSpace(q + " " + strings.Join(args, " "))
			}
			if format == "" {
				format = a.settings.Output
			}
			if format != outputText && format != outputJSON && format != outputPaths {
				return usageError{fmt.Errorf("%w: %q", ErrOutputUnknown, format)}
			}
			return a.runList(cmd, q, format)
		},
	}
	cmd.Flags().StringVarP(&q, "query", "q", "", "filter expression")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: text, json or paths")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, q, format string) error {
	records, err := a.reg.Search(cmd.Context(), a.settings.Profile, q)
	var scanErr *types.ScanError
	if err != nil && !errors.As(err, &scanErr) {
		return err
	}
	if scanErr != nil {
		printFailures(cmd.ErrOrStderr(), scanErr.Failures)
	}
	return a.renderRecords(cmd, records, format)
}

func (a *app) renderRecords(cmd *cobra.Command, records []types.WorkspaceRecord, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case outputJSON:
		if records == nil {
			records = []types.WorkspaceRecord{}
		}
		return printJSON(out, records)
	case outputPaths:
		return printPaths(out, records)
	default:
		if len(records) == 0 {
			_, err := fmt.Fprintln(out, "no workspaces")
			return err
		}
		return printRecords(out, records)
	}
}

// recordView is the JSON shape of show and exists.
type recordView struct {
	types.WorkspaceRecord
	Exists bool `json:"exists"`
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id-or-path>",
		Short: "Show a workspace with its sources and classification",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.reg.Find(cmd.Context(), a.settings.Profile, args[0])
			if err != nil {
				return err
			}
			exists := a.reg.Exists(rec)
			if a.settings.Output == outputJSON {
				return printJSON(cmd.OutOrStdout(), recordView{WorkspaceRecord: rec, Exists: exists})
			}
			return printRecord(cmd.OutOrStdout(), rec, exists)
		},
	}
}

func newExistsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <id-or-path>",
		Short: "Report whether a workspace is present on disk",
		Long: "Print true or false and exit non-zero when the workspace path is missing.\n" +
			"Remote workspaces are reported as present without contacting the host.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.reg.Find(cmd.Context(), a.settings.Profile, args[0])
			if err != nil {
				return err
			}
			exists := a.reg.Exists(rec)
			out := cmd.OutOrStdout()
			if a.settings.Output == outputJSON {
				err = printJSON(out, recordView{WorkspaceRecord: rec, Exists: exists})
			} else {
				_, err = fmt.Fprintln(out, exists)
			}
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: %s is not on disk", types.ErrNotFound, rec.Path)
			}
			return nil
		},
	}
}

// parseView is the JSON shape of parse.
type parseView struct {
	Info types.WorkspacePathInfo `json:"parsed_info"`
	Key  string                  `json:"key"`
	ID   string                  `json:"id"`
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <path-or-uri>",
		Short: "Classify a path the way stored entries are classified",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := classify.Classify(args[0])
			if err != nil {
				return err
			}
			key := classify.Key(info, a.reg.FoldCase())
			id := classify.ID(key)
			if a.settings.Output == outputJSON {
				return printJSON(cmd.OutOrStdout(), parseView{Info: info, Key: key, ID: id})
			}
			return printInfo(cmd.OutOrStdout(), info, key, id)
		},
	}
}
