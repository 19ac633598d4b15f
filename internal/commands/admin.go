package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/keshon/rbot/internal/chat"
	"github.com/keshon/rbot/internal/command"
	"github.com/keshon/rbot/internal/parse"
	"github.com/keshon/rbot/internal/role"
)

func usersCommand(d Deps) command.Command {
	return command.Command{
		Name:        "users",
		Description: "List known users and their role",
		Usage:       "@BOT users",
		Permission:  role.Admin,
		Handler: command.HandlerFunc(func(ctx context.Context, _ *command.Invocation) (string, error) {
			users, err := d.Store.Users(ctx)
			if err != nil {
				return "", err
			}
			if len(users) == 0 {
				return "No users yet", nil
			}

			var sb strings.Builder
			for _, u := range users {
				fmt.Fprintf(&sb, "%s => %s\n", chat.UserMention(u.UserID), u.Role)
			}
			return sb.String(), nil
		}),
	}
}

func promoteCommand(d Deps) command.Command {
	return command.Command{
		Name:        "promote",
		Description: "Set the role of a user",
		Usage:       "@BOT promote @user <Guest|User|Moderator|Admin>",
		Permission:  role.Admin,
		MinArgs:     2,
		MaxArgs:     2,
		Handler: command.HandlerFunc(func(ctx context.Context, inv *command.Invocation) (string, error) {
			userID, _, err := parse.DiscordID(inv.Args[1], parse.KindUser)
			if err != nil {
				return err.Error(), nil
			}
			r, err := role.Parse(inv.Args[2])
			if err != nil {
				return "Role not found", nil
			}
			if err := d.Gate.SetRole(ctx, userID, r); err != nil {
				return "", err
			}
			return command.OK, nil
		}),
	}
}

const defaultHistoryLength = 10

func historyCommand(d Deps) command.Command {
	return command.Command{
		Name:        "history",
		Description: "Show the latest commands run in this server",
		Usage:       "@BOT history [count]",
		Permission:  role.Moderator,
		MaxArgs:     1,
		Handler: command.HandlerFunc(func(ctx context.Context, inv *command.Invocation) (string, error) {
			if inv.Message.GuildID == "" {
				return "History is only kept for servers", nil
			}

			limit := defaultHistoryLength
			if p := inv.Params(); len(p) == 1 {
				n, err := strconv.Atoi(p[0])
				if err != nil || n < 1 {
					return "Count must be a positive number", nil
				}
				limit = n
			}

			records, err := d.Store.History(ctx, inv.Message.GuildID, limit)
			if err != nil {
				return "", err
			}
			if len(records) == 0 {
				return "No commands recorded yet", nil
			}

			var sb strings.Builder
			for _, r := range records {
				line := r.Command
				if r.Args != "" {
					line += " " + r.Args
				}
				fmt.Fprintf(&sb, "`%s` %s in %s: %s\n",
					r.Datetime.Format("2006-01-02 15:04"), r.Username, chat.ChannelMention(r.ChannelID), line)
			}
			return sb.String(), nil
		}),
	}
}
