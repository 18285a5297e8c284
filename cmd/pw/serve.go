package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulseward/pulseward/internal/advisory"
	"github.com/pulseward/pulseward/internal/campaign"
	"github.com/pulseward/pulseward/internal/config"
	"github.com/pulseward/pulseward/internal/dashboard"
	"github.com/pulseward/pulseward/internal/db"
	"github.com/pulseward/pulseward/internal/flows"
	"github.com/pulseward/pulseward/internal/intake"
	"github.com/pulseward/pulseward/internal/media"
	"github.com/pulseward/pulseward/internal/models"
	"github.com/pulseward/pulseward/internal/transport"
	"github.com/pulseward/pulseward/internal/transport/discord"
	"github.com/pulseward/pulseward/internal/transport/slack"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Pulseward bot, scheduler, and dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pulseward.yaml", "path to Pulseward config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	registry, err := flows.Registry()
	if err != nil {
		return err
	}

	mediaDir := cfg.Media.Bucket
	if mediaDir == "" {
		mediaDir = "media"
	}
	pipeline, err := media.NewFilePipeline(mediaDir, cfg.Media.Prefix)
	if err != nil {
		return err
	}

	adapter, err := buildAdapter(cfg, pipeline)
	if err != nil {
		return err
	}

	// The engine's async sink and the router reference each other, so the
	// sink closes over the router variable assigned below.
	var router *transport.Router
	engine, err := intake.NewEngine(intake.EngineOpts{
		DB:            gormDB,
		Flows:         registry,
		BatchDebounce: time.Duration(cfg.Intake.BatchDebounceSeconds) * time.Second,
		Sink: func(participantID uint, outcome intake.Outcome) {
			router.DeliverOutcome(participantID, outcome)
		},
	})
	if err != nil {
		return err
	}

	var adviser *advisory.Adviser
	if cfg.Advisory.Enabled {
		gemini, err := advisory.NewGemini(cmd.Context(), cfg.Advisory.APIKey, cfg.Advisory.Model)
		if err != nil {
			return err
		}
		adviser, err = advisory.New(advisory.Opts{DB: gormDB, Generator: gemini})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Advisory enabled (%s)\n", gemini.Name())
	}

	routerOpts := transport.RouterOpts{
		DB:        gormDB,
		Engine:    engine,
		Adapter:   adapter,
		Flows:     registry,
		Operators: cfg.Operators,
		Out:       out,
	}
	if adviser != nil {
		routerOpts.Adviser = adviser
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := adapter.Connect(ctx); err != nil {
		return err
	}
	defer adapter.Close()
	routerOpts.BotUserID = adapter.BotUserID()

	router, err = transport.NewRouter(routerOpts)
	if err != nil {
		return err
	}

	var digest func(ctx context.Context, p models.Participant, day int) error
	if adviser != nil {
		digest = func(ctx context.Context, p models.Participant, day int) error {
			text, err := adviser.Digest(ctx, p, day)
			if err != nil {
				return err
			}
			if text == "" {
				return nil
			}
			router.DeliverPrompt(p, intake.Outcome{
				Kind:    intake.OutcomeAdvance,
				Message: "Weekly progress:\n\n" + text,
			})
			return nil
		}
	}

	dispatcher, err := campaign.NewDispatcher(campaign.DispatcherOpts{
		DB:          gormDB,
		Engine:      engine,
		TickSpec:    cfg.Campaign.TickSpec,
		Concurrency: cfg.Campaign.Concurrency,
		Deliver: func(p models.Participant, outcome intake.Outcome) {
			router.DeliverPrompt(p, outcome)
		},
		Digest: digest,
	})
	if err != nil {
		return err
	}

	// Shut everything down on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(out, "\nReceived %v, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := dispatcher.Start(ctx); err != nil {
		return err
	}
	defer dispatcher.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return router.Run(gctx)
	})
	if cfg.Dashboard.Enabled {
		g.Go(func() error {
			return dashboard.Start(gctx, dashboard.StartOpts{
				DB:   gormDB,
				Port: cfg.Dashboard.Port,
				Out:  out,
			})
		})
	}

	fmt.Fprintf(out, "Pulseward running on %s (db %s)\n", cfg.Platform, cfg.Database.Driver)
	return g.Wait()
}

// chatAdapter is a transport.Adapter that reports the bot's own user ID
// after connecting, so the router can filter self-messages.
type chatAdapter interface {
	transport.Adapter
	BotUserID() string
}

// buildAdapter creates the chat adapter named by the config.
func buildAdapter(cfg *config.Config, pipeline *media.FilePipeline) (chatAdapter, error) {
	switch cfg.Platform {
	case "discord":
		return discord.New(discord.AdapterOpts{
			BotToken: cfg.Discord.BotToken,
			Media:    pipeline,
		})
	case "slack":
		return slack.New(slack.AdapterOpts{
			AppToken: cfg.Slack.AppToken,
			BotToken: cfg.Slack.BotToken,
			Media:    pipeline,
		})
	default:
		return nil, fmt.Errorf("platform %q is not supported", cfg.Platform)
	}
}
