package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scout/internal/output"
)

func newPruneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove generations no index is bound to",
		Long: `Remove every generation directory that the catalog does not bind to an
index. Generations still open by a reader or writer are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			keep, err := a.catalog.Refs()
			if err != nil {
				return err
			}
			removed, err := a.store.Prune(keep)
			out := output.New(cmd.OutOrStdout())
			for _, ref := range removed {
				out.Infof("removed %s", ref)
			}
			if err != nil {
				return err
			}
			out.Successf("Pruned %d generations", len(removed))
			return nil
		},
	}
}
