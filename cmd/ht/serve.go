package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/routelab/hoptrace/internal/alert"
	"github.com/routelab/hoptrace/internal/config"
	"github.com/routelab/hoptrace/internal/events"
	"github.com/routelab/hoptrace/internal/server"
	"github.com/routelab/hoptrace/internal/store"
	"github.com/routelab/hoptrace/internal/store/postgres"
	hopsync "github.com/routelab/hoptrace/internal/sync"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the hoptrace collector daemon",
	GroupID: "system",
	// Override PersistentPreRunE so we don't build an HTTP client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Connect to Postgres when an archive is configured. Without it
		// the collector runs buffer-only.
		var st store.Store
		if cfg.DatabaseURL != "" {
			pg, err := postgres.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			st = pg
			logger.Info("archive enabled")
		} else {
			logger.Info("archive disabled (HOPTRACE_DATABASE_URL not set)")
		}

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				if st != nil {
					st.Close()
				}
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (HOPTRACE_NATS_URL not set)")
		}

		// Create the collector.
		srv := server.NewPerfServer(st, publisher, cfg.BufferSize)
		srv.NodeName = cfg.NodeName
		srv.StampReceipt = cfg.StampReceipt
		srv.PresenceTTL = cfg.PresenceTTL
		if cfg.SlowThreshold > 0 && cfg.SlowHook != "" {
			srv.Alert = alert.NewHook(cfg.SlowThreshold, cfg.SlowHook, logger)
			logger.Info("slow-trace hook enabled", "threshold", cfg.SlowThreshold)
		}

		// Start gRPC listener.
		grpcServer := server.NewGRPCServer(cfg.AuthToken)
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			publisher.Close()
			if st != nil {
				st.Close()
			}
			return err
		}

		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		// Start HTTP server.
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Evict nodes that stopped reporting.
		srv.Presence.StartSweeper(nil)

		// Start sync scheduler if the archive and any destinations are
		// configured.
		var scheduler *hopsync.Scheduler
		if cfg.SyncInterval > 0 && st != nil {
			var dests []hopsync.Destination

			if cfg.SyncS3Bucket != "" {
				s3Dest, err := hopsync.NewS3Destination(
					context.Background(),
					cfg.SyncS3Bucket,
					cfg.SyncS3Key,
					cfg.SyncS3Region,
					cfg.SyncS3Endpoint,
				)
				if err != nil {
					logger.Error("failed to create S3 sync destination", "err", err)
				} else {
					dests = append(dests, s3Dest)
					logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
				}
			}

			if cfg.SyncGitRepo != "" {
				gitDest := hopsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch)
				dests = append(dests, gitDest)
				logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
			}

			if len(dests) > 0 {
				scheduler = hopsync.NewScheduler(st, dests, cfg.SyncInterval, logger)
				scheduler.Start()
				logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
			}
		}

		// Log startup info.
		logger.Info("hoptrace collector started",
			"node", cfg.NodeName,
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		srv.Presence.Stop()

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if st != nil {
			if err := st.Close(); err != nil {
				logger.Error("error closing store", "err", err)
			}
		}

		logger.Info("shutdown complete")
		return nil
	},
}
