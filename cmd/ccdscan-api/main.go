// Command ccdscan-api serves the GraphQL read API over HTTP and
// WebSocket against the schema the indexer populates (spec.md §2, §6).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ccdscan/backend/internal/config"
	"github.com/ccdscan/backend/internal/graphql"
	"github.com/ccdscan/backend/internal/logger"
	"github.com/ccdscan/backend/internal/notify"
	"github.com/ccdscan/backend/internal/store"
)

var log = logger.Get(logger.TagGQL)

func main() {
	cfg, err := config.ParseAPIConfig(os.Args[1:])
	if err != nil {
		log.Errorf("parse config: %v", err)
		os.Exit(1)
	}
	if cfg.LogFile != "" {
		if err := logger.InitLogRotator(cfg.LogFile); err != nil {
			log.Errorf("init log rotator: %v", err)
			os.Exit(1)
		}
	}
	if err := logger.SetLevels(cfg.LogLevel); err != nil {
		log.Errorf("set log level: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Errorf("open database: %v", err)
		os.Exit(1)
	}
	if err := db.CheckSchemaVersion(); err != nil {
		log.Errorf("check schema version: %v", err)
		os.Exit(1)
	}

	hub := graphql.NewHub(db)
	listener := notify.NewListener(func(ctx context.Context) (*pgx.Conn, error) {
		return pgx.Connect(ctx, cfg.DatabaseURL)
	}, notify.DefaultReconnectDelay, notify.ChannelBlockAdded, notify.ChannelAccountUpdated)
	hub.Attach(listener)
	go func() {
		if err := listener.Run(ctx); err != nil {
			log.Errorf("notification listener stopped: %v", err)
		}
	}()

	resolver := graphql.NewResolver(db, hub)
	server := graphql.NewServer(resolver)

	mux := http.NewServeMux()
	mux.Handle(cfg.GraphQLPath, server)
	mux.HandleFunc(cfg.WebsocketPath, server.ServeWS)

	httpServer := &http.Server{Addr: cfg.HTTPListen, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Infof("listening on %s (graphql=%s ws=%s)", cfg.HTTPListen, cfg.GraphQLPath, cfg.WebsocketPath)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorf("serve: %v", err)
		os.Exit(1)
	}
}
