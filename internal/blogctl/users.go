package blogctl

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/cryptox"
	"github.com/dmitrijs2005/gophblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophblog/internal/server/services"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newUsersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage admin accounts",
	}
	cmd.AddCommand(newUsersCreateCmd(opts))
	return cmd
}

func newUsersCreateCmd(opts *options) *cobra.Command {
	var (
		username      string
		passwordStdin bool
		cost          int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Long: `Create an admin account. The password is prompted for twice on the
terminal, or read from the first line of stdin with --password-stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				password string
				err      error
			)
			if passwordStdin {
				password, err = readLine(cmd.InOrStdin())
			} else {
				password, err = promptPassword(cmd.ErrOrStderr())
			}
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			return withStore(cmd.Context(), opts.dsn, func(db *sql.DB, rm repomanager.RepositoryManager) error {
				us := services.NewUserService(db, rm, nil, cost)

				u, err := us.Register(cmd.Context(), username, password)
				if errors.Is(err, common.ErrDuplicateUsername) {
					return fmt.Errorf("user %q already exists", username)
				}
				if msg, ok := services.IsValidation(err); ok {
					return errors.New(msg)
				}
				if err != nil {
					return err
				}

				pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("Created user %s (%s)", u.UserName, u.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name of the new account")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().IntVar(&cost, "cost", cryptox.DefaultCost, "bcrypt cost")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
