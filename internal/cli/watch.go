package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/wsedit/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		q        string
		format   string
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-list the profile whenever its stores change",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = a.settings.Output
			}
			profile, err := a.reg.ResolveProfile(a.settings.Profile)
			if err != nil {
				return err
			}
			w, err := watch.New(watch.Dirs(profile, a.zedDBDir()), debounce, a.logger)
			if err != nil {
				return err
			}
			a.logger.Debug("watching", zap.Strings("dirs", w.Watched()))

			// Pin the resolved profile for every later list.
			a.settings.Profile = profile.Identifier()
			render := func() {
				if format == outputText {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
						faintColor.Sprint(time.Now().Format(time.TimeOnly)), profile.Identifier())
				}
				if err := a.runList(cmd, q, format); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "wsedit:", err)
				}
			}
			render()
			return w.Run(cmd.Context(), render)
		},
	}
	cmd.Flags().StringVarP(&q, "query", "q", "", "filter expression")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: text, json or paths")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-listing")
	return cmd
}
