package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/keshon/rbot/internal/approval"
	"github.com/keshon/rbot/internal/chat"
	"github.com/keshon/rbot/internal/command"
	"github.com/keshon/rbot/internal/parse"
	"github.com/keshon/rbot/internal/role"
)

// inactivityThreshold is how long a channel must stay silent to be archived.
const inactivityThreshold = 30 * 24 * time.Hour

const nothingToDo = "Nothing to do"

const noChannels = "Channel management is not available here"

// categoryArg returns the category id named by the optional first argument;
// empty means channels outside any category.
func categoryArg(inv *command.Invocation) (string, string) {
	p := inv.Params()
	if len(p) == 0 {
		return "", ""
	}
	id, _, err := parse.DiscordID(p[0], parse.KindChannel)
	if err != nil {
		return "", err.Error()
	}
	return id, ""
}

func textChannelsIn(channels []chat.Channel, categoryID string) []chat.Channel {
	var out []chat.Channel
	for _, c := range channels {
		if !c.Category && c.ParentID == categoryID {
			out = append(out, c)
		}
	}
	return out
}

func archiveCommand(d Deps) command.Command {
	return command.Command{
		Name:        "archive",
		Description: "Propose to archive channels inactive for 30 days",
		Usage:       "@BOT archive [#category]",
		Permission:  role.Moderator,
		MaxArgs:     1,
		Handler: command.HandlerFunc(func(ctx context.Context, inv *command.Invocation) (string, error) {
			if d.Channels == nil {
				return noChannels, nil
			}
			if d.ArchiveCategoryID == "" {
				return "No archive category configured", nil
			}
			category, problem := categoryArg(inv)
			if problem != "" {
				return problem, nil
			}

			channels, err := d.Channels.Channels(ctx, inv.Message.GuildID)
			if err != nil {
				return "", err
			}

			cutoff := time.Now().Add(-inactivityThreshold)
			var stale []string
			for _, c := range textChannelsIn(channels, category) {
				if c.ID == d.ArchiveCategoryID || c.LastActivity.IsZero() || c.LastActivity.After(cutoff) {
					continue
				}
				stale = append(stale, c.ID)
			}
			if len(stale) == 0 {
				return nothingToDo, nil
			}

			action := approval.ArchiveChannels{
				GuildID:    inv.Message.GuildID,
				CategoryID: d.ArchiveCategoryID,
				ChannelIDs: stale,
			}
			text := "Channels without activity for 30 days:\n" + action.Describe()
			if _, err := d.Workflow.Request(ctx, inv.Message, text, action); err != nil {
				return "", err
			}
			return "", nil
		}),
	}
}

func reorderCommand(d Deps) command.Command {
	return command.Command{
		Name:        "reorder",
		Description: "Propose to sort the channels of a category by name",
		Usage:       "@BOT reorder [#category]",
		Permission:  role.Moderator,
		MaxArgs:     1,
		Handler: command.HandlerFunc(func(ctx context.Context, inv *command.Invocation) (string, error) {
			if d.Channels == nil {
				return noChannels, nil
			}
			category, problem := categoryArg(inv)
			if problem != "" {
				return problem, nil
			}

			channels, err := d.Channels.Channels(ctx, inv.Message.GuildID)
			if err != nil {
				return "", err
			}

			current := textChannelsIn(channels, category)
			slices.SortStableFunc(current, func(a, b chat.Channel) int { return a.Position - b.Position })

			sorted := slices.Clone(current)
			slices.SortStableFunc(sorted, func(a, b chat.Channel) int {
				return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
			})

			if slices.EqualFunc(current, sorted, func(a, b chat.Channel) bool { return a.ID == b.ID }) {
				return nothingToDo, nil
			}

			order := make([]string, len(sorted))
			for i, c := range sorted {
				order[i] = c.ID
			}
			action := approval.ReorderChannels{GuildID: inv.Message.GuildID, CategoryID: category, Order: order}
			if _, err := d.Workflow.Request(ctx, inv.Message, fmt.Sprintf("Apply this order?\n%s", action.Describe()), action); err != nil {
				return "", err
			}
			return "", nil
		}),
	}
}
