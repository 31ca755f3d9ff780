package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"ayaocrm/internal/auth"
	"ayaocrm/internal/handlers"
	"ayaocrm/internal/models"

	"github.com/spf13/cobra"
)

func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the datastore and the default admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "datastore ready at %s\n", a.db.Path)
			return nil
		},
	}
}

func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Push a datastore snapshot to the backup repository",
		Long: `Push a datastore snapshot to the backup repository.

Credentials come from CRM_GITHUB_TOKEN, CRM_GITHUB_REPO and CRM_GITHUB_USERNAME.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			creds, err := handlers.EnvCredentials(cmd.Context())
			if err != nil {
				return err
			}

			result, err := a.backup.BackupToRemote(cmd.Context(), models.SystemActor, creds)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Owner string
	Days  int
	Out   string
}

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <customers|followups>",
		Short: "Write a spreadsheet export",
		Example: `  ayaocrm export customers --owner alice --out alice.xlsx
  ayaocrm export followups --days 7 --out week.xlsx`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"customers", "followups"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			defer a.Close()

			var data []byte
			switch args[0] {
			case "customers":
				data, err = a.export.Customers(cmd.Context(), models.SystemActor, models.CustomerFilter{Owner: opts.Owner})
			case "followups":
				var since time.Time
				if opts.Days > 0 {
					since = time.Now().UTC().AddDate(0, 0, -opts.Days)
				}
				data, err = a.export.RecentFollowups(cmd.Context(), models.SystemActor, since)
			default:
				return fmt.Errorf("unknown export %q: must be customers or followups", args[0])
			}
			if err != nil {
				return err
			}

			out := opts.Out
			if out == "" {
				out = fmt.Sprintf("%s_%s.xlsx", args[0], time.Now().UTC().Format("20060102_150405"))
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "only customers with this main owner")
	cmd.Flags().IntVar(&opts.Days, "days", 0, "only follow-ups from the last N days")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file")

	return cmd
}

// UserOptions holds flags for the user add command.
type UserOptions struct {
	*RootOptions
	Role     string
	Language string
	Password string
}

func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UserOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create or replace a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.users.Add(cmd.Context(), models.SystemActor, auth.NewUser{
				Username: args[0],
				Password: opts.Password,
				Role:     opts.Role,
				Language: opts.Language,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s saved with role %s\n", user.Username, user.Role)
			return nil
		},
	}
	add.Flags().StringVar(&opts.Password, "password", "", "initial password (required)")
	add.Flags().StringVar(&opts.Role, "role", models.RoleUser, "admin or user")
	add.Flags().StringVar(&opts.Language, "language", models.DefaultLanguage, "preferred UI language")
	_ = add.MarkFlagRequired("password")

	cmd.AddCommand(add)
	return cmd
}
