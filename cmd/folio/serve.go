package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/folio/internal/auth"
	"github.com/alfredjeanlab/folio/internal/backup"
	"github.com/alfredjeanlab/folio/internal/config"
	"github.com/alfredjeanlab/folio/internal/events"
	"github.com/alfredjeanlab/folio/internal/logging"
	"github.com/alfredjeanlab/folio/internal/media"
	"github.com/alfredjeanlab/folio/internal/model"
	"github.com/alfredjeanlab/folio/internal/ratelimit"
	"github.com/alfredjeanlab/folio/internal/render"
	"github.com/alfredjeanlab/folio/internal/server"
	"github.com/alfredjeanlab/folio/internal/store"
	"github.com/alfredjeanlab/folio/internal/store/file"
	"github.com/alfredjeanlab/folio/internal/store/postgres"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the folio backend (HTTP, and gRPC when FOLIO_GRPC_ADDR is set)",
	GroupID: "system",
	// serve is the backend, it does not talk to one.
	PersistentPreRunE: skipConnect,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		ctx := context.Background()

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := st.Close(); err != nil {
				logger.Error("error closing store", "err", err)
			}
		}()

		admin, err := auth.SeedAdmin(cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return err
		}
		if err := store.EnsureDocument(ctx, st, func() *model.Document {
			logger.Info("creating default document", "admin", admin.Username)
			return model.NewDocument(admin)
		}); err != nil {
			return fmt.Errorf("initialising document: %w", err)
		}

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (FOLIO_NATS_URL not set)")
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("error closing publisher", "err", err)
			}
		}()

		// Sessions and the contact form limiter share Redis when configured.
		var rdb *redis.Client
		if cfg.RedisAddr != "" {
			rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := rdb.Ping(pingCtx).Err()
			cancel()
			if err != nil {
				rdb.Close()
				return fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
			}
			defer rdb.Close()
			logger.Info("redis enabled", "addr", cfg.RedisAddr)
		}
		sessions, limiter, err := openSessions(cfg, rdb)
		if err != nil {
			return err
		}

		lib, assetsDir, err := openMedia(ctx, cfg)
		if err != nil {
			return err
		}
		renderer, err := render.New()
		if err != nil {
			return err
		}

		srv := server.New(server.Options{
			Store:     st,
			Auth:      auth.NewService(st, sessions, cfg.AuthToken),
			Media:     lib,
			Publisher: publisher,
			Limiter:   limiter,
			Renderer:  renderer,
			AssetsDir: assetsDir,
			SiteDir:   cfg.SiteDir,
		})

		// Start gRPC listener.
		var grpcServer interface{ GracefulStop() }
		if cfg.GRPCAddr != "" {
			lis, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				return err
			}
			gs := server.NewGRPCServer(srv)
			grpcServer = gs
			go func() {
				logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
				if err := gs.Serve(lis); err != nil {
					logger.Error("gRPC server error", "err", err)
				}
			}()
		}

		// Start HTTP server.
		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := startBackups(ctx, cfg, st, srv.Events(), logger)

		logger.Info("folio server started", "http_addr", cfg.HTTPAddr, "grpc_addr", cfg.GRPCAddr, "store", cfg.Store, "media", cfg.Media)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("backup scheduler stopped")
		}
		if grpcServer != nil {
			grpcServer.GracefulStop()
			logger.Info("gRPC server stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	},
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case "postgres":
		return postgres.New(cfg.DatabaseURL)
	default:
		return file.New(cfg.DataDir)
	}
}

// openSessions picks Redis-backed sessions and limiter when rdb is set and
// in-process ones otherwise.
func openSessions(cfg *config.Config, rdb *redis.Client) (auth.Sessions, ratelimit.Limiter, error) {
	var sessions auth.Sessions = auth.NewMemorySessions(cfg.SessionTTL)
	if rdb != nil {
		sessions = auth.NewRedisSessions(rdb, cfg.SessionTTL)
	}
	if cfg.MessageRateLimit == 0 {
		return sessions, ratelimit.Unlimited{}, nil
	}
	if rdb != nil {
		l, err := ratelimit.NewRedisLimiter(rdb, "folio:ratelimit:messages", cfg.MessageRateLimit, time.Minute)
		return sessions, l, err
	}
	l, err := ratelimit.NewMemoryLimiter(cfg.MessageRateLimit, time.Minute)
	return sessions, l, err
}

// openMedia returns the image library and, for local media, the directory
// to serve under /assets/.
func openMedia(ctx context.Context, cfg *config.Config) (*media.Library, string, error) {
	if cfg.Media == "minio" {
		ms, err := media.NewMinioStore(ctx, media.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			return nil, "", err
		}
		return media.NewLibrary(ms), "", nil
	}
	ls, err := media.NewLocalStore(cfg.AssetsDir)
	if err != nil {
		return nil, "", err
	}
	return media.NewLibrary(ls), ls.Root(), nil
}

// startBackups starts the periodic backup scheduler when an interval and at
// least one destination are configured.
func startBackups(ctx context.Context, cfg *config.Config, st store.Store, pub events.Publisher, logger *slog.Logger) *backup.Scheduler {
	if cfg.BackupInterval <= 0 {
		return nil
	}
	var dests []backup.Destination
	if cfg.BackupS3Bucket != "" {
		d, err := backup.NewS3Destination(ctx, backup.S3Options{
			Bucket:   cfg.BackupS3Bucket,
			Prefix:   cfg.BackupS3Prefix,
			Region:   cfg.BackupS3Region,
			Endpoint: cfg.BackupS3Endpoint,
		})
		if err != nil {
			logger.Error("failed to create S3 backup destination", "err", err)
		} else {
			dests = append(dests, d)
			logger.Info("backup S3 destination enabled", "bucket", cfg.BackupS3Bucket, "prefix", cfg.BackupS3Prefix)
		}
	}
	if cfg.BackupDir != "" {
		d, err := backup.NewDirDestination(cfg.BackupDir)
		if err != nil {
			logger.Error("failed to create backup directory", "err", err)
		} else {
			dests = append(dests, d)
			logger.Info("backup directory enabled", "dir", cfg.BackupDir)
		}
	}
	if len(dests) == 0 {
		logger.Warn("FOLIO_BACKUP_INTERVAL set but no backup destination configured")
		return nil
	}
	s := backup.NewScheduler(st, dests, cfg.BackupInterval, pub, logger)
	s.Start()
	logger.Info("backup scheduler started", "interval", cfg.BackupInterval)
	return s
}
