package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/keshon/rbot/internal/approval"
	"github.com/keshon/rbot/internal/bot"
	"github.com/keshon/rbot/internal/chat"
	"github.com/keshon/rbot/internal/command"
	builtin "github.com/keshon/rbot/internal/commands"
	"github.com/keshon/rbot/internal/console"
	"github.com/keshon/rbot/internal/permission"
	"github.com/keshon/rbot/internal/role"
	"github.com/keshon/rbot/internal/storage"
)

func newExecCmd() *cobra.Command {
	var (
		as      string
		asRole  string
		guild   string
		channel string
	)

	cmd := &cobra.Command{
		Use:   "exec <command line>",
		Short: "Run one bot command locally and print the replies",
		Long: `exec runs a command line through the same dispatcher the bot uses,
without connecting to Discord. Replies are printed to stdout. Commands that
need the Discord API report that they are unavailable.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

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

			gate := permission.NewGate(store, nil, "", logger)
			if asRole != "" {
				r, err := role.Parse(asRole)
				if err != nil {
					return err
				}
				if err := gate.Assume(as, r); err != nil {
					return err
				}
			}

			out := console.New(cmd.OutOrStdout())
			workflow := approval.NewWorkflow(approval.NewMemoryStore[approval.Pending](), out, nil, nil, logger)

			reg, err := builtin.Build(builtin.Deps{
				Gate:              gate,
				Store:             store,
				Workflow:          workflow,
				ArchiveCategoryID: cfg.ArchiveCategoryID,
				Logger:            logger,
			})
			if err != nil {
				return err
			}

			dispatcher := command.NewDispatcher(reg, gate, out, logger, command.Options{
				NotFoundReply: cfg.NotFoundReply,
				Maintainer:    cfg.Maintainer,
			})
			b := bot.New(dispatcher, workflow, nil, out, logger, bot.Options{})

			line := strings.Join(args, " ")
			return b.Execute(ctx, line, chat.MessageEvent{
				Content:    line,
				AuthorID:   as,
				AuthorName: as,
				ChannelID:  channel,
				GuildID:    guild,
				MessageID:  "console-trigger",
			})
		},
	}

	cmd.Flags().StringVar(&as, "as", "console", "user id to run the command as")
	cmd.Flags().StringVar(&asRole, "role", "", "act with this role for this run only; the stored role is unchanged")
	cmd.Flags().StringVar(&guild, "guild", "console", "server id recorded in the command history")
	cmd.Flags().StringVar(&channel, "channel", "console", "channel id the command is issued in")
	return cmd
}
