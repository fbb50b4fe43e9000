package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"loom/internal/cache"
	"loom/internal/config"
	"loom/internal/engine"
	"loom/internal/logging"
	"loom/internal/server"
	"loom/internal/slack"
)

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func main() {
	defaultConfig, _ := config.DefaultPath()
	configPath := flag.String("config", defaultConfig, "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level)

	if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o755); err != nil {
		log.Error().Err(err).Msg("create cache directory")
		os.Exit(1)
	}
	store, err := cache.OpenStore(cfg.Cache.Path)
	if err != nil {
		log.Error().Err(err).Msg("open snapshot store")
		os.Exit(1)
	}
	defer store.Close()

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
		log.Error().Err(err).Msg("initialize identifier cache")
		os.Exit(1)
	}

	eng := engine.New(client, idc, engine.Config{
		PageSize:    cfg.Engine.PageSize,
		MaxPages:    cfg.Engine.MaxPages,
		Concurrency: cfg.Engine.Concurrency,
	}, log)

	srv, err := server.New(eng, idc, cfg.Engine.OperationTimeout.Std(), Version, log)
	if err != nil {
		log.Error().Err(err).Msg("build MCP server")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("MCP server exited")
		os.Exit(1)
	}
}
