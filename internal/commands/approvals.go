package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/keshon/rbot/internal/approval"
	"github.com/keshon/rbot/internal/command"
	"github.com/keshon/rbot/internal/role"
)

const bumpCounter = "bump"

func bumpCommand(d Deps) command.Command {
	return command.Command{
		Name:        "bump",
		Description: "Propose to increase the shared counter",
		Usage:       "@BOT bump [amount]",
		Permission:  role.User,
		MaxArgs:     1,
		Handler: command.HandlerFunc(func(ctx context.Context, inv *command.Invocation) (string, error) {
			by := 1
			if p := inv.Params(); len(p) == 1 {
				n, err := strconv.Atoi(p[0])
				if err != nil || n < 1 {
					return "Amount must be a positive number", nil
				}
				by = n
			}

			action := approval.Increment{Counter: bumpCounter, By: by}
			if _, err := d.Workflow.Request(ctx, inv.Message, fmt.Sprintf("Bump the counter by %d?", by), action); err != nil {
				return "", err
			}
			return "", nil
		}),
	}
}

func countCommand(d Deps) command.Command {
	return command.Command{
		Name:        "count",
		Description: "Show the shared counter",
		Usage:       "@BOT count",
		Permission:  role.Guest,
		Handler: command.HandlerFunc(func(context.Context, *command.Invocation) (string, error) {
			return fmt.Sprintf("Counter is at %d", d.Workflow.Tally().Value(bumpCounter)), nil
		}),
	}
}

func pendingCommand(d Deps) command.Command {
	return command.Command{
		Name:        "pending",
		Description: "Count the confirmations still waiting for a reaction",
		Usage:       "@BOT pending",
		Permission:  role.Moderator,
		Handler: command.HandlerFunc(func(ctx context.Context, _ *command.Invocation) (string, error) {
			approvals, err := d.Workflow.Pending(ctx)
			if err != nil {
				return "", err
			}
			deployments := 0
			if d.Bridge != nil {
				if deployments, err = d.Bridge.Pending(ctx); err != nil {
					return "", err
				}
			}
			return fmt.Sprintf("%d approval(s) and %d deployment(s) pending", approvals, deployments), nil
		}),
	}
}
