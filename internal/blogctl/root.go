// Package blogctl implements the blog administration command line:
// schema migrations and account bootstrap against the blog database.
package blogctl

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophblog/internal/dbx"
	"github.com/dmitrijs2005/gophblog/internal/server/config"
	"github.com/dmitrijs2005/gophblog/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

// seams for tests
var (
	openDB               = dbx.Open
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
)

type options struct {
	dsn string
}

// NewRootCmd builds the blogctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{dsn: defaultDSN()}

	root := &cobra.Command{
		Use:           "blogctl",
		Short:         "Blog administration tool",
		Long:          `blogctl applies database migrations and manages admin accounts of the blog server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", opts.dsn, "PostgreSQL DSN (also set via DATABASE_DSN)")

	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newUsersCmd(opts))
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultDSN() string {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		return v
	}
	c := &config.Config{}
	c.LoadDefaults()
	return c.DatabaseDSN
}

// withStore opens the database, runs fn and closes it again.
func withStore(ctx context.Context, dsn string, fn func(db *sql.DB, rm repomanager.RepositoryManager) error) error {
	db, err := openDB(ctx, dsn)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	return fn(db, newRepositoryManager())
}
