// Package main wires together the feed service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vmakarov/tgparse/internal/api"
	"github.com/vmakarov/tgparse/internal/config"
	"github.com/vmakarov/tgparse/internal/feed"
	"github.com/vmakarov/tgparse/internal/fetcher"
	"github.com/vmakarov/tgparse/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pageFetcher := fetcher.New(fetcher.Config{
		UserAgent:      cfg.Upstream.UserAgent,
		AcceptLanguage: cfg.Upstream.AcceptLanguage,
	}, logger.Named("fetcher"))
	resolver := feed.NewResolver(pageFetcher, cfg.Upstream.BaseURL, cfg.EmbedTimeout(), logger.Named("resolver"))
	service := feed.NewService(pageFetcher, resolver, feed.Options{
		BaseURL:            cfg.Upstream.BaseURL,
		ChannelTimeout:     cfg.ChannelTimeout(),
		MaxLimit:           cfg.Feed.MaxLimit,
		ResolveConcurrency: cfg.Resolver.Concurrency,
	}, logger.Named("feed"))
	apiServer := api.NewServer(service, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
