package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/miyasty1919/discordmaidbot/bot"
	"github.com/miyasty1919/discordmaidbot/config"
	"github.com/miyasty1919/discordmaidbot/db"
	"github.com/miyasty1919/discordmaidbot/health"
	"github.com/miyasty1919/discordmaidbot/model"
	"github.com/miyasty1919/discordmaidbot/utils"
)

var (
	configPath string
	cfg        *model.Config
)

var rootCmd = &cobra.Command{
	Use:           "maidbot",
	Short:         "Discord maid bot with an in-channel review database",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		_, err = utils.InitLogger(cfg.Log.Level, cfg.Log.Format)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		utils.Logger().Sync()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and serve interactions",
	RunE:  runBot,
}

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Manage slash command registration",
}

var commandsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Overwrite the slash commands of the configured guilds",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBot(cmd.Context(), func(b *bot.Bot) error {
			return b.SyncCommands(cmd.Context(), cfg.Commands.Guilds)
		})
	},
}

var commandsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove every slash command from the configured guilds",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBot(cmd.Context(), func(b *bot.Bot) error {
			return b.PurgeCommands(cmd.Context(), cfg.Commands.Guilds)
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.Open(cmd.Context(), cfg.Database.Path, utils.Logger())
		if err != nil {
			return err
		}
		return store.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the config file (default: ./config.yaml if present)")
	commandsCmd.AddCommand(commandsSyncCmd, commandsPurgeCmd)
	rootCmd.AddCommand(runCmd, commandsCmd, migrateCmd)
}

func withBot(ctx context.Context, fn func(*bot.Bot) error) error {
	b, err := bot.New(ctx, *cfg, utils.Logger())
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}

func runBot(cmd *cobra.Command, args []string) error {
	logger := utils.Logger()
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.Watch(func(c model.Config) {
		logger.Info("config reloaded")
		if _, err := utils.InitLogger(c.Log.Level, c.Log.Format); err != nil {
			logger.Warn("failed to rebuild logger", zap.Error(err))
		}
	}, func(err error) {
		logger.Warn("ignoring invalid config change", zap.Error(err))
	})

	b, err := bot.New(ctx, *cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()
	if err := b.Open(ctx, cfg.Commands.Guilds); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Health.Addr != "" {
		g.Go(func() error {
			return health.Serve(gctx, cfg.Health.Addr, health.NewRouter(b.Store(), cfg.System.Version), logger)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	logger.Info("Bot is now running. Press CTRL-C to exit.")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutting down")
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
