// Package commands holds the bot's built-in commands and assembles the
// command registry.
package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/keshon/rbot/internal/approval"
	"github.com/keshon/rbot/internal/chat"
	"github.com/keshon/rbot/internal/command"
	"github.com/keshon/rbot/internal/deployment"
	"github.com/keshon/rbot/internal/permission"
	"github.com/keshon/rbot/internal/storage"
)

// ChannelLister lists the channels of a guild.
type ChannelLister interface {
	Channels(ctx context.Context, guildID string) ([]chat.Channel, error)
}

// Deps are the collaborators the built-in commands use. Channels and Bridge
// may be nil; the commands needing them then explain they are unavailable.
// Without a Store no history is recorded.
type Deps struct {
	Gate     *permission.Gate
	Store    storage.Store
	Workflow *approval.Workflow
	Bridge   *deployment.Bridge
	Channels ChannelLister

	ArchiveCategoryID   string
	DeploymentChannelID string
	// Restrictions pins command names to a single channel id.
	Restrictions map[string]string

	Logger zerolog.Logger
}

// Build returns the registry of every built-in command.
func Build(d Deps) (*command.Registry, error) {
	var reg *command.Registry

	cmds := []command.Command{
		pingCommand(),
		helpCommand(func() *command.Registry { return reg }),
		usersCommand(d),
		promoteCommand(d),
		historyCommand(d),
		archiveCommand(d),
		reorderCommand(d),
		bumpCommand(d),
		countCommand(d),
		pendingCommand(d),
		deployCommand(d),
	}

	var mws []command.Middleware
	if d.Store != nil {
		mws = append(mws, command.WithHistory(d.Store, d.Logger))
	}
	mws = append(mws, command.WithTiming(d.Logger))

	for i, c := range cmds {
		if ch, ok := d.Restrictions[c.Name]; ok {
			c.Channel = ch
		}
		cmds[i] = command.Apply(c, mws...)
	}

	var err error
	reg, err = command.NewRegistry(cmds...)
	if err != nil {
		return nil, fmt.Errorf("build commands: %w", err)
	}
	return reg, nil
}
