package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mr1hm/go-emergency-alerts/internal/api"
	"github.com/mr1hm/go-emergency-alerts/internal/clock"
	"github.com/mr1hm/go-emergency-alerts/internal/config"
	"github.com/mr1hm/go-emergency-alerts/internal/connectivity"
	"github.com/mr1hm/go-emergency-alerts/internal/dispatch"
	internalgrpc "github.com/mr1hm/go-emergency-alerts/internal/grpc"
	"github.com/mr1hm/go-emergency-alerts/internal/ingestion"
	"github.com/mr1hm/go-emergency-alerts/internal/logging"
	"github.com/mr1hm/go-emergency-alerts/internal/models"
	"github.com/mr1hm/go-emergency-alerts/internal/permission"
	"github.com/mr1hm/go-emergency-alerts/internal/reporting"
	"github.com/mr1hm/go-emergency-alerts/internal/repository"
	"github.com/mr1hm/go-emergency-alerts/internal/source"
	"github.com/mr1hm/go-emergency-alerts/internal/state"
	"github.com/mr1hm/go-emergency-alerts/internal/ui"
)

var (
	host      string
	port      int
	logLevel  string
	rateLimit int
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "emergency-alert",
		Short: "Emergency alert service for the community safety page",
		Long: `emergency-alert polls for emergency alerts, shows them on the hosting
page, and forwards emergency reports to the dispatch backend.`,
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd)
		},
	}
	serveCmd.Flags().StringVar(&host, "host", "", "Listen host (overrides SERVER_HOST)")
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides SERVER_PORT)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	serveCmd.Flags().IntVar(&rateLimit, "rate-limit", 20, "Global request rate limit per second")

	rootCmd.AddCommand(serveCmd)
	addDistanceCmd(rootCmd)
	addCPRCmd(rootCmd)
	addCallCmd(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "platform", cfg.Platform.Mode)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := clock.Real{}
	st := state.New()

	hub := ui.NewHub()
	presenter := ui.NewPresenter(hub, sched, cfg.UI.BannerTTL)

	submitter := reporting.NewHTTPSubmitter(cfg.Dispatch.URL, cfg.Dispatch.APIKey, cfg.Dispatch.Timeout, cfg.Dispatch.RetryMax)
	reports := reporting.NewService(submitter, db)
	dispatcher := dispatch.NewDispatcher(st, ui.NewPageNotifier(hub), presenter, reports, sched, cfg.Dispatch.SimulatedLatency)

	gateway := permission.NewGateway(newPlatform(cfg), st, permission.PositionOptions{
		HighAccuracy: cfg.Location.HighAccuracy,
		Timeout:      cfg.Location.Timeout,
		MaximumAge:   cfg.Location.MaximumAge,
	})
	go gateway.Initialize(ctx)

	// Start gRPC health server
	grpcServer := internalgrpc.NewServer()
	go func() {
		grpcAddr := fmt.Sprintf(":%d", cfg.GRPC.Port)
		if err := grpcServer.Start(grpcAddr); err != nil {
			logging.Fatalf("gRPC server error: %v", err)
		}
	}()

	watcher := connectivity.NewWatcher(presenter)
	watcher.OnChange(grpcServer.SetServing)

	var prober *connectivity.Prober
	if cfg.Connectivity.ProbeURL != "" {
		prober = connectivity.NewProber(cfg.Connectivity.ProbeURL, cfg.Connectivity.ProbeInterval, watcher)
		prober.Start(ctx)
	}

	// Polling waits until the notification permission is known.
	mgr := ingestion.NewManager(cfg, newSource(cfg), dispatcher, st.PermissionResolved())
	mgr.Start(ctx)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Cache-Control"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(rateLimit, "/api/v1/ui/events"))

	handler := api.NewHandler(api.Deps{
		Config:       cfg,
		State:        st,
		Gateway:      gateway,
		Dispatcher:   dispatcher,
		Presenter:    presenter,
		Hub:          hub,
		Reports:      reports,
		Connectivity: watcher,
		Scheduler:    sched,
		Alerts:       mgr,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	hub.Close() // Close all event streams gracefully

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// The alert queue stays open until no handler can reach it.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	mgr.Stop()
	if prober != nil {
		prober.Stop()
	}
	grpcServer.Stop()

	slog.Info("shutdown complete")
	return nil
}

func newPlatform(cfg *config.Config) permission.Platform {
	if cfg.Platform.Mode != "static" {
		return permission.NewPagePlatform(cfg.Platform.PermissionWaitTimeout)
	}

	p := &permission.StaticPlatform{Permission: permission.PermissionDenied}
	if cfg.Platform.NotificationsGranted {
		p.Permission = permission.PermissionGranted
	}
	if cfg.Platform.LocationKnown {
		p.Location = &models.Coordinate{
			Latitude:  cfg.Platform.Latitude,
			Longitude: cfg.Platform.Longitude,
			Accuracy:  cfg.Platform.Accuracy,
		}
	}
	switch cfg.Platform.LocationFailure {
	case "denied":
		p.Failure = permission.CodePermissionDenied
	case "unavailable":
		p.Failure = permission.CodePositionUnavailable
	case "timeout":
		p.Failure = permission.CodeTimeout
	}
	return p
}

func newSource(cfg *config.Config) source.AlertSource {
	if cfg.Poller.FeedURL != "" {
		slog.Info("using alert feed", "url", cfg.Poller.FeedURL)
		return source.NewFeedSource(cfg.Poller.FeedURL, cfg.Dispatch.Timeout, cfg.Dispatch.RetryMax)
	}
	return source.NewRandomSource(cfg.Poller.Probability, nil)
}
