package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/keshon/rbot/internal/permission"
	"github.com/keshon/rbot/internal/role"
	"github.com/keshon/rbot/internal/storage"
)

func newRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Inspect and change stored user roles",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every known user and their role",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, _, closer, err := setup(cmd)
				if err != nil {
					return err
				}
				defer closer.Close()

				store, err := storage.Open(cfg.StorageDriver, cfg.StoragePath)
				if err != nil {
					return err
				}
				defer store.Close()

				users, err := store.Users(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "USER\tROLE\tUPDATED")
				for _, u := range users {
					fmt.Fprintf(w, "%s\t%s\t%s\n", u.UserID, u.Role, u.UpdatedAt.Format("2006-01-02 15:04"))
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "set <userId> <Guest|User|Moderator|Admin>",
			Short: "Store the role of a user",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				r, err := role.Parse(args[1])
				if err != nil {
					return err
				}

				cfg, logger, closer, err := setup(cmd)
				if err != nil {
					return err
				}
				defer closer.Close()

				store, err := storage.Open(cfg.StorageDriver, cfg.StoragePath)
				if err != nil {
					return err
				}
				defer store.Close()

				if err := permission.NewGate(store, nil, "", logger).SetRole(cmd.Context(), args[0], r); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], r)
				return nil
			},
		},
	)
	return cmd
}
