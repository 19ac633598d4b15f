package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/rbot/internal/command"
	"github.com/keshon/rbot/internal/role"
)

func pingCommand() command.Command {
	return command.Command{
		Name:        "ping",
		Description: "Check the bot is alive",
		Usage:       "@BOT ping",
		Permission:  role.Guest,
		Handler: command.HandlerFunc(func(context.Context, *command.Invocation) (string, error) {
			return "pong", nil
		}),
	}
}

func helpCommand(registry func() *command.Registry) command.Command {
	return command.Command{
		Name:        "help",
		Description: "List the available commands",
		Usage:       "@BOT help",
		Permission:  role.Guest,
		Handler: command.HandlerFunc(func(context.Context, *command.Invocation) (string, error) {
			var sb strings.Builder
			sb.WriteString("Available commands: \nNAME => USAGE | PERMISSION\n")
			for _, c := range registry().All() {
				fmt.Fprintf(&sb, "%s => Usage: %s | {%s}\n", c.Name, c.UsageText(), c.Permission)
			}
			return sb.String(), nil
		}),
	}
}
