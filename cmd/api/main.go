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

	"github.com/redis/go-redis/v9"
	"github.com/rskariadi-dev/manrura/internal/cache"
	"github.com/rskariadi-dev/manrura/internal/checklist"
	"github.com/rskariadi-dev/manrura/internal/config"
	"github.com/rskariadi-dev/manrura/internal/export"
	"github.com/rskariadi-dev/manrura/internal/handler"
	"github.com/rskariadi-dev/manrura/internal/notify"
	"github.com/rskariadi-dev/manrura/internal/repository"
	"github.com/rskariadi-dev/manrura/internal/seed"
)

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * config
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	/**********************************************
	 * database
	 **********************************************/
	db, err := repository.Open(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}
	defer db.Close()

	repo := repository.NewRepository(cfg, db)
	if err := repo.Migrate(); err != nil {
		logger.Error("failed to migrate database", "error", err)
		return
	}

	/**********************************************
	 * initial admin
	 **********************************************/
	if err := seed.EnsureInitialAdmin(repo, cfg); err != nil {
		logger.Error("failed to create initial admin", "error", err)
		return
	}

	cl := checklist.Default()

	/**********************************************
	 * rabbitmq, optional
	 **********************************************/
	var publisher notify.Publisher = notify.Nop{}
	if cfg.RabbitMQ.DSN != "" {
		conn, ch, err := notify.Dial(cfg.RabbitMQ.DSN, cfg.RabbitMQ.Queue)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			return
		}
		defer conn.Close()
		defer ch.Close()
		publisher = notify.NewAMQPPublisher(ch, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
	} else {
		logger.Info("rabbitmq not configured, mail notifications disabled")
	}

	/**********************************************
	 * redis, optional
	 **********************************************/
	var snapshots cache.SnapshotCache = cache.Nop{}
	if cfg.Database.Driver == "sqlite3" {
		// one server process owns the database file
		snapshots = cache.NewMemory(time.Duration(cfg.Redis.SnapshotTTL) * time.Second)
	}
	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
			ReadTimeout:  time.Duration(cfg.Redis.OperationTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Redis.OperationTimeout) * time.Second,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			// the cache only saves reads, run without it
			logger.Warn("redis unreachable, snapshot cache not shared", "error", err)
		} else {
			snapshots = cache.NewRedisCache(rdb, time.Duration(cfg.Redis.SnapshotTTL)*time.Second)
		}
	}

	/**********************************************
	 * spreadsheet export, optional
	 **********************************************/
	if cfg.Export.SpreadsheetID != "" {
		writer, err := export.NewSheetsWriter(context.Background(), cfg.Export.CredentialsFile, cfg.Export.SpreadsheetID)
		if err != nil {
			logger.Error("failed to create sheets client", "error", err)
			return
		}
		exporter := export.NewExporter(repo, writer, cl, cfg.Export.SheetName, logger)
		scheduler, err := export.Schedule(exporter, cfg.Export.Cron, time.Duration(cfg.Export.Timeout)*time.Second)
		if err != nil {
			logger.Error("failed to schedule export", "error", err)
			return
		}
		defer scheduler.Stop()
		logger.Info("spreadsheet export scheduled", "cron", cfg.Export.Cron)
	}

	/**********************************************
	 * handler
	 **********************************************/
	h, err := handler.NewHandler(cfg, repo, cl, snapshots, publisher)
	if err != nil {
		logger.Error("failed to create handler", "error", err)
		return
	}
	h.RegisterRoutes()

	/**********************************************
	 * http server
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}
