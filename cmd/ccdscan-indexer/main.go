// Command ccdscan-indexer runs the two-stage preprocessing/processing
// pipeline against a Postgres database and one or more Concordium node
// endpoints (spec.md §2).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ccdscan/backend/internal/config"
	"github.com/ccdscan/backend/internal/indexer"
	"github.com/ccdscan/backend/internal/logger"
	"github.com/ccdscan/backend/internal/metrics"
	"github.com/ccdscan/backend/internal/nodeclient"
	"github.com/ccdscan/backend/internal/notify"
	"github.com/ccdscan/backend/internal/store"
	"github.com/jackc/pgx/v5"
)

var log = logger.Get(logger.TagPrep)

func main() {
	cfg, err := config.ParseIndexerConfig(os.Args[1:])
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
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Errorf("migrate database: %v", err)
		os.Exit(1)
	}
	if err := db.CheckSchemaVersion(); err != nil {
		log.Errorf("check schema version: %v", err)
		os.Exit(1)
	}

	m := metrics.New()

	pool := nodeclient.New(nodeclient.Config{
		Endpoints:         cfg.NodeEndpoints,
		LagTolerance:      cfg.NodeLagTolerance,
		ConnectTimeout:    cfg.RPCConnectTimeout,
		RequestTimeout:    cfg.RPCRequestTimeout,
		RequestsPerSecond: 0,
		MaxConcurrent:     0,
	}, m)
	defer pool.Close()

	tx := db.Begin(ctx)
	genesisHash, err := store.GenesisHash(tx)
	if err != nil {
		tx.RollbackUnlessClosed()
		log.Errorf("load genesis hash: %v", err)
		os.Exit(1)
	}
	startHeight, have, err := store.LatestBlockHeight(tx)
	if err != nil {
		tx.RollbackUnlessClosed()
		log.Errorf("load latest block height: %v", err)
		os.Exit(1)
	}
	if err := tx.Commit(); err != nil {
		log.Errorf("commit startup read: %v", err)
		os.Exit(1)
	}
	if have {
		startHeight++
	}

	prep := indexer.NewPreprocessor(pool, genesisHash, m)
	pipeline := indexer.NewPipeline(prep, cfg.MaxParallelPreprocessors, cfg.MaxProcessingBatch, cfg.MaxSuccessiveFailures, m)

	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Errorf("open notify connection: %v", err)
		os.Exit(1)
	}
	defer conn.Close(context.Background())
	notifier := notify.NewPublisher(conn)

	processor := indexer.NewProcessor(db, cfg.MaxProcessingBatch, cfg.MaxSuccessiveFailures, m, notifier)
	if err := processor.Start(ctx); err != nil {
		log.Errorf("start processor: %v", err)
		os.Exit(1)
	}

	go pipeline.Run(ctx, startHeight)

	go func() {
		for err := range pipeline.Err {
			log.Errorf("pipeline: %v", err)
		}
	}()

	if err := processor.Run(ctx, pipeline.Out); err != nil {
		log.Errorf("processor stopped: %v", err)
		os.Exit(1)
	}
	log.Infof("indexer shut down cleanly")
}
