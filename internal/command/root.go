// Package command implements the loom operator CLI: run thread discovery and
// collection from a terminal, resolve identifiers, and manage the snapshot
// cache.
package command

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"loom/internal/cache"
	"loom/internal/config"
	"loom/internal/engine"
	"loom/internal/faults"
	"loom/internal/logging"
	"loom/internal/models"
	"loom/internal/slack"
)

const AppName = "loom"

// app holds the wired components a command runs against.
type app struct {
	cfg    *config.Config
	cache  *cache.Cache
	engine *engine.Engine
	store  *cache.Store
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// opTimeout returns a context bounded by the configured operation deadline.
func (a *app) opContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.cfg.Engine.OperationTimeout.Std())
}

// channelID resolves a channel name or id argument to a channel id. When the
// directory cannot be consulted and the argument already looks like a raw id,
// it is passed through untouched.
func (a *app) channelID(ctx context.Context, arg string) (string, error) {
	ch, found, err := a.cache.ResolveChannel(ctx, arg)
	if err != nil {
		if faults.Is(err, faults.CodeUnavailable) && models.LooksLikeChannelID(arg) {
			return arg, nil
		}
		return "", err
	}
	if !found {
		if models.LooksLikeChannelID(arg) {
			return arg, nil
		}
		return "", faults.NotFound("no channel matches %q", arg)
	}
	return ch.ID, nil
}

func buildApp(cmd *cobra.Command) (*app, error) {
	_ = godotenv.Load()

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logging.New(cfg.Log.Level)

	if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o755); err != nil {
		return nil, err
	}
	store, err := cache.OpenStore(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}

	clientOpts := []slack.Option{
		slack.WithLogger(log),
		slack.WithPacing(cfg.Slack.RateLimit, cfg.Slack.RateWindow.Std()),
	}
	if cfg.Slack.BaseURL != "" {
		clientOpts = append(clientOpts, slack.WithBaseURL(cfg.Slack.BaseURL))
	}
	client := slack.New(cfg.Slack.Token, clientOpts...)

	idc, err := cache.New(client, store, cache.Config{
		ChannelTTL:     cfg.Cache.ChannelTTL.Std(),
		PrincipalTTL:   cfg.Cache.PrincipalTTL.Std(),
		RefreshTimeout: cfg.Cache.RefreshTimeout.Std(),
	}, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	eng := engine.New(client, idc, engine.Config{
		PageSize:    cfg.Engine.PageSize,
		MaxPages:    cfg.Engine.MaxPages,
		Concurrency: cfg.Engine.Concurrency,
	}, log)

	return &app{cfg: cfg, cache: idc, engine: eng, store: store}, nil
}

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Loom - thread discovery for Slack workspaces",
		Long:          "Loom reconstructs thread conversations from a Slack workspace's flat message history.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("config", "", "path to config file")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")

	cmd.AddCommand(
		NewThreadsCmd(),
		NewCollectCmd(),
		NewResolveCmd(),
		NewCacheCmd(),
	)
	return cmd
}
