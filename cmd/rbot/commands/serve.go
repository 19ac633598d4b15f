package commands

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/keshon/rbot/internal/approval"
	"github.com/keshon/rbot/internal/bot"
	"github.com/keshon/rbot/internal/command"
	builtin "github.com/keshon/rbot/internal/commands"
	"github.com/keshon/rbot/internal/deployment"
	"github.com/keshon/rbot/internal/discord"
	"github.com/keshon/rbot/internal/permission"
	"github.com/keshon/rbot/internal/storage"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and handle events until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := cfg.RequireDiscord(); err != nil {
		return err
	}

	store, err := storage.Open(cfg.StorageDriver, cfg.StoragePath)
	if err != nil {
		return err
	}
	defer store.Close()

	stores, err := openApprovalStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.close()

	session, err := discord.New(cfg.DiscordToken, logger)
	if err != nil {
		return err
	}

	gate := permission.NewGate(store, session, cfg.MemberRoleID, logger)
	if err := gate.SeedAdmins(ctx, cfg.Access.Admins); err != nil {
		return err
	}

	workflow := approval.NewWorkflow(stores.pending, session, session, nil, logger)

	var bridge *deployment.Bridge
	if cfg.DeploymentChannelID != "" {
		if cfg.SupervisorURL == "" {
			logger.Warn().Msg("CODEFLOW_SUPERVISOR_URL is not set, deployment decisions will stay pending")
		}
		client := deployment.NewClient(cfg.SupervisorURL, cfg.SupervisorAPIKey, logger)
		bridge = deployment.NewBridge(stores.deployments, session, session, client,
			deployment.Config{
				ApproverRoles: cfg.Access.ApproverRoles,
				ApproveEmoji:  cfg.DeployApproveEmoji,
				RejectEmoji:   cfg.DeployRejectEmoji,
			}, logger)
	}

	reg, err := builtin.Build(builtin.Deps{
		Gate:                gate,
		Store:               store,
		Workflow:            workflow,
		Bridge:              bridge,
		Channels:            session,
		ArchiveCategoryID:   cfg.ArchiveCategoryID,
		DeploymentChannelID: cfg.DeploymentChannelID,
		Restrictions:        cfg.Access.Channels,
		Logger:              logger,
	})
	if err != nil {
		return err
	}

	dispatcher := command.NewDispatcher(reg, gate, session, logger, command.Options{
		NotFoundReply: cfg.NotFoundReply,
		SilentUnknown: cfg.SilentUnknown,
		Maintainer:    cfg.Maintainer,
	})
	b := bot.New(dispatcher, workflow, bridge, session, logger, bot.Options{
		Workers: cfg.EventWorkers,
		BotID:   session.BotID,
	})

	logger.Info().Int("commands", reg.Len()).Str("storage", cfg.StorageDriver).Msg("starting rbot")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return session.Run(gctx) })
	g.Go(func() error { return b.Run(gctx, session.Events()) })

	err = g.Wait()
	logger.Info().Msg("rbot exited")
	return err
}
