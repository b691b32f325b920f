package blogctl

import (
	"database/sql"

	"github.com/dmitrijs2005/gophblog/internal/server/repositories/repomanager"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts.dsn, func(db *sql.DB, rm repomanager.RepositoryManager) error {
				if err := rm.RunMigrations(cmd.Context(), db); err != nil {
					return err
				}
				pterm.Success.WithWriter(cmd.OutOrStdout()).Println("Database is up to date")
				return nil
			})
		},
	}
}
