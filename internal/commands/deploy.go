package commands

import (
	"context"

	"github.com/keshon/rbot/internal/command"
	"github.com/keshon/rbot/internal/role"
)

func deployCommand(d Deps) command.Command {
	return command.Command{
		Name:        "deploy",
		Description: "Ask approvers to confirm a deployment",
		Usage:       `@BOT deploy <deploymentId> ["summary"]`,
		Permission:  role.Admin,
		MinArgs:     1,
		MaxArgs:     2,
		Handler: command.HandlerFunc(func(ctx context.Context, inv *command.Invocation) (string, error) {
			if d.Bridge == nil || d.DeploymentChannelID == "" {
				return "Deployments are not configured", nil
			}

			var summary string
			if p := inv.Params(); len(p) == 2 {
				summary = p[1]
			}
			_, err := d.Bridge.Open(ctx, d.DeploymentChannelID, inv.Message.GuildID, inv.Args[1], summary, inv.Message.AuthorID)
			if err != nil {
				return "", err
			}
			return command.OK, nil
		}),
	}
}
