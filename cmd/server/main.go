package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parlor/internal/api"
	"parlor/internal/config"
	"parlor/internal/db"
	"parlor/internal/notify"
	"parlor/internal/service"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting server", "name", cfg.Server.Name)

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.Info("database opened", "path", cfg.Database.Path)

	txManager := db.NewStore(database)

	usersService, err := service.NewUsersService(txManager, service.AuthParams{
		TokenTTL:                  cfg.Auth.TokenTTL.Std(),
		TokenRollingTTL:           cfg.Auth.TokenRollingTTL.Std(),
		MaxTokensPerUser:          cfg.Auth.MaxTokensPerUser,
		RegistrationInvitationTTL: cfg.Auth.RegistrationInvitationTTL.Std(),
	})
	if err != nil {
		slog.Error("failed to create users service", "error", err)
		os.Exit(1)
	}

	hub := notify.NewHub()
	go hub.Run()

	channelsService := service.NewChannelsService(txManager, hub)

	cleanupService := db.NewCleanupService(
		database,
		cfg.Auth.TokenTTL.Std(),
		cfg.Auth.TokenRollingTTL.Std(),
		cfg.Auth.RegistrationInvitationTTL.Std(),
	)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go cleanupService.Start(cleanupCtx)

	server := api.NewServer(cfg, database, usersService, channelsService, hub)

	addr := cfg.Addr()
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server,
	}

	go func() {
		slog.Info("server listening", "addr", addr, "base_url", cfg.Server.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")

	cleanupCancel()

	server.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
