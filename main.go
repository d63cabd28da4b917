package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"chatapp-client/internal/async"
	"chatapp-client/internal/config"
	"chatapp-client/internal/database"
	"chatapp-client/internal/dispatch"
	"chatapp-client/internal/gateway"
	"chatapp-client/internal/handlers"
	"chatapp-client/internal/hub"
	"chatapp-client/internal/logger"
	"chatapp-client/internal/rest"
	"chatapp-client/internal/snowflake"
	"chatapp-client/internal/state"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chatapp-client",
	Short: "Chat platform client keeping an entity cache and serving a control API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "config file path")
}

func run(ctx context.Context) error {
	fmt.Println("Reading config file...")
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return err
	}

	fmt.Println("Setting up logger...")
	sugar, err := logger.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer sugar.Sync()

	err = snowflake.Setup(cfg.SnowflakeWorkerID)
	if err != nil {
		sugar.Fatal(err)
	}

	var redisClient *redis.Client
	var db *sql.DB

	switch cfg.Cache.Backend {
	case "redis":
		sugar.Info("Connecting to redis...")
		redisClient, err = state.SetupRedis(ctx, cfg.Cache)
		if err != nil {
			sugar.Fatal(err)
		}
		defer redisClient.Close()
	case "sql":
		db, err = database.Setup(cfg.Cache, sugar)
		if err != nil {
			sugar.Fatal(err)
		}
		defer db.Close()
	}

	st, err := state.Setup(ctx, cfg.Cache, redisClient, db, sugar)
	if err != nil {
		sugar.Fatal(err)
	}

	eventHub := hub.New(st, sugar)
	eventHub.Run(ctx)
	defer eventHub.Close()

	client := rest.NewClient(cfg.Api, async.NewExecutor(cfg.Api.Concurrency), sugar)
	dispatcher := dispatch.New(client, dispatch.WithLogger(sugar))

	if cfg.Gateway.Enable {
		conn, err := gateway.Dial(ctx, cfg.Gateway.URL)
		if err != nil {
			sugar.Fatal(err)
		}
		feed := gateway.NewFeed(conn, eventHub, sugar)
		go func() {
			if err := feed.Run(ctx); err != nil {
				sugar.Errorf("Gateway feed stopped: %v", err)
			}
		}()
	}

	handlers.Setup(sugar, st, eventHub, dispatcher)

	if !cfg.Http.Enable {
		<-ctx.Done()
		return nil
	}
	return handlers.Serve(ctx, cfg.Http)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
