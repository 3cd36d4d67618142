// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

// till-storefront is the storefront service: it watches a Matrix
// storefront room for !loja commands, maintains the product catalog
// and tenant configuration, and provisions per-customer cart rooms.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tillworks/till/lib/cart"
	"github.com/tillworks/till/lib/clock"
	"github.com/tillworks/till/lib/config"
	"github.com/tillworks/till/lib/secret"
	"github.com/tillworks/till/lib/service"
	"github.com/tillworks/till/lib/storedb"
	"github.com/tillworks/till/messaging"
)

// accessTokenEnv is the environment variable holding the Matrix access
// token of the storefront account. Its absence is the one fatal
// startup condition.
const accessTokenEnv = "TILL_ACCESS_TOKEN"

const versionString = "0.3.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	pflag.StringVar(&configPath, "config", "", "path to the service configuration file (overrides TILL_CONFIG)")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("till-storefront %s\n", versionString)
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return fmt.Errorf("preparing state directories: %w", err)
	}

	token, err := secret.FromEnv(accessTokenEnv)
	if err != nil {
		return fmt.Errorf("%s: %w", accessTokenEnv, err)
	}

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.HomeserverURL,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	if _, err := client.ServerVersions(ctx); err != nil {
		return fmt.Errorf("homeserver unreachable: %w", err)
	}

	session, err := client.SessionFromToken(cfg.UserID, token)
	if err != nil {
		return err
	}
	defer session.Close()

	userID, err := session.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("validating access token: %w", err)
	}
	if userID != cfg.UserID {
		return fmt.Errorf("access token belongs to %s, configuration expects %s", userID, cfg.UserID)
	}
	logger.Info("matrix session valid", "user_id", userID)

	storeRoomID, err := session.ResolveAlias(ctx, cfg.StoreRoomAlias)
	if err != nil {
		return fmt.Errorf("resolving storefront room: %w", err)
	}
	if _, err := session.JoinRoom(ctx, storeRoomID); err != nil {
		return fmt.Errorf("joining storefront room: %w", err)
	}
	logger.Info("storefront room ready", "room_id", storeRoomID, "alias", cfg.StoreRoomAlias)

	store, err := storedb.Open(cfg.StorePath(), logger)
	if err != nil {
		return err
	}

	clk := clock.Real()
	storefront := &Storefront{
		session:   session,
		store:     store,
		carts:     cart.NewService(session, store, logger, clk),
		storeRoom: storeRoomID,
		clk:       clk,
		startedAt: clk.Now(),
		logger:    logger,
	}

	// Initial /sync rebuilds the cart index from existing cart rooms.
	sinceToken, err := storefront.initialSync(ctx)
	if err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}

	// Diagnostics socket. An empty socket_path disables it.
	socketDone := make(chan error, 1)
	if cfg.SocketPath != "" {
		socketServer := service.NewSocketServer(cfg.SocketPath, logger)
		storefront.registerActions(socketServer)
		go func() {
			socketDone <- socketServer.Serve(ctx)
		}()
	} else {
		socketDone <- nil
	}

	// Incremental sync loop: command dispatch lives in handleSync.
	go service.RunSyncLoop(ctx, session, service.SyncConfig{
		Filter: syncFilter,
	}, sinceToken, storefront.handleSync, clk, logger)

	openCarts, approvedCarts := storefront.carts.Counts()
	logger.Info("storefront running",
		"store_room", storeRoomID,
		"products", store.Len(),
		"open_carts", openCarts,
		"approved_carts", approvedCarts,
		"socket", cfg.SocketPath,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}
	return nil
}
