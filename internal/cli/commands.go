package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/dmitrijs2005/babypal/internal/server/services"
	"github.com/spf13/cobra"
)

func (a *App) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.repos.RunMigrations(cmd.Context(), a.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func (a *App) createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Register an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			reader := bufio.NewReader(cmd.InOrStdin())

			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")

			var err error
			if username == "" {
				if username, err = GetSimpleText(reader, "Username", out); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = GetSimpleText(reader, "Email", out); err != nil {
					return err
				}
			}
			password, err := GetNewPassword(out)
			if err != nil {
				return err
			}

			u, err := a.users().SignUp(ctx, services.SignUpRequest{Username: username, Email: email, Password: password})
			if err != nil {
				return errors.New(common.Message(err))
			}
			if err := a.admin().UpdateRole(ctx, operator, u.ID, string(models.RoleAdmin)); err != nil {
				return errors.New(common.Message(err))
			}

			fmt.Fprintf(out, "Administrator %s created (id %d)\n", u.UserName, u.ID)
			return nil
		},
	}
	cmd.Flags().String("username", "", "login name")
	cmd.Flags().String("email", "", "email address")
	return cmd
}

func (a *App) setRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <username> <role>",
		Short: "Change a user's role (ROLE_USER or ROLE_ADMIN)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := a.userID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("user %s: %s", args[0], common.Message(err))
			}
			if err := a.admin().UpdateRole(ctx, operator, id, args[1]); err != nil {
				return errors.New(common.Message(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s now has role %s\n", args[0], args[1])
			return nil
		},
	}
}

func (a *App) lockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock <username>",
		Short: "Lock an account, or unlock it with --unlock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			unlock, _ := cmd.Flags().GetBool("unlock")

			id, err := a.userID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("user %s: %s", args[0], common.Message(err))
			}
			if err := a.admin().UpdateLockStatus(ctx, operator, id, !unlock); err != nil {
				return errors.New(common.Message(err))
			}

			state := "locked"
			if unlock {
				state = "unlocked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s %s\n", args[0], state)
			return nil
		},
	}
	cmd.Flags().Bool("unlock", false, "unlock instead of lock")
	return cmd
}

func (a *App) exportLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-logs",
		Short: "Write the audit log to an xlsx file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("out")

			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := a.admin().ExportLogs(cmd.Context(), operator, f); err != nil {
				_ = f.Close()
				return errors.New(common.Message(err))
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Audit log written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().String("out", "logs.xlsx", "output file")
	return cmd
}
