// Package config defines the environment-driven configuration structs
// for the indexer and API processes. Flag/env parsing detail is a thin
// ambient concern here; the design focus of this repository is the
// indexing pipeline (see internal/indexer) and the schema it populates
// (see internal/store).
package config

import (
	"time"

	flags "github.com/jessevdk/go-flags"
)

// IndexerConfig holds CCDSCAN_INDEXER_* environment-driven settings.
type IndexerConfig struct {
	NodeEndpoints []string `long:"node-endpoint" env:"CCDSCAN_INDEXER_NODE_ENDPOINTS" env-delim:"," description:"Concordium node gRPC v2 endpoints, round-robin"`
	DatabaseURL   string   `long:"database-url" env:"CCDSCAN_INDEXER_DATABASE_URL" description:"Postgres connection string"`

	MaxParallelPreprocessors int           `long:"max-parallel-preprocessors" env:"CCDSCAN_INDEXER_MAX_PARALLEL_PREPROCESSORS" default:"8"`
	MaxProcessingBatch       int           `long:"max-processing-batch" env:"CCDSCAN_INDEXER_MAX_PROCESSING_BATCH" default:"8"`
	MaxSuccessiveFailures    int           `long:"max-successive-failures" env:"CCDSCAN_INDEXER_MAX_SUCCESSIVE_FAILURES" default:"10"`
	NodeLagTolerance         time.Duration `long:"node-lag-tolerance" env:"CCDSCAN_INDEXER_NODE_LAG_TOLERANCE" default:"30s"`
	RPCConnectTimeout        time.Duration `long:"rpc-connect-timeout" env:"CCDSCAN_INDEXER_RPC_CONNECT_TIMEOUT" default:"10s"`
	RPCRequestTimeout        time.Duration `long:"rpc-request-timeout" env:"CCDSCAN_INDEXER_RPC_REQUEST_TIMEOUT" default:"30s"`

	LogLevel string `long:"log-level" env:"CCDSCAN_INDEXER_LOG_LEVEL" default:"info"`
	LogFile  string `long:"log-file" env:"CCDSCAN_INDEXER_LOG_FILE"`
}

// APIConfig holds CCDSCAN_API_* environment-driven settings.
type APIConfig struct {
	DatabaseURL  string `long:"database-url" env:"CCDSCAN_API_DATABASE_URL" description:"Postgres connection string"`
	HTTPListen   string `long:"listen" env:"CCDSCAN_API_LISTEN" default:"0.0.0.0:8000"`
	GraphQLPath  string `long:"graphql-path" env:"CCDSCAN_API_GRAPHQL_PATH" default:"/api/graphql"`
	WebsocketPath string `long:"ws-path" env:"CCDSCAN_API_WS_PATH" default:"/ws/graphql"`

	LogLevel string `long:"log-level" env:"CCDSCAN_API_LOG_LEVEL" default:"info"`
	LogFile  string `long:"log-file" env:"CCDSCAN_API_LOG_FILE"`
}

// ParseIndexerConfig parses CLI flags and environment variables into an
// IndexerConfig.
func ParseIndexerConfig(args []string) (*IndexerConfig, error) {
	cfg := &IndexerConfig{}
	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseAPIConfig parses CLI flags and environment variables into an
// APIConfig.
func ParseAPIConfig(args []string) (*APIConfig, error) {
	cfg := &APIConfig{}
	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return cfg, nil
}
