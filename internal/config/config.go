package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string // HOPTRACE_HTTP_ADDR (default ":8080")
	GRPCAddr    string // HOPTRACE_GRPC_ADDR (default ":9090")
	DatabaseURL string // HOPTRACE_DATABASE_URL (optional, empty = buffer-only, no archive)
	NATSURL     string // HOPTRACE_NATS_URL (optional, empty = no event bus)
	AuthToken   string // HOPTRACE_AUTH_TOKEN (optional, empty = auth disabled)

	// Collector settings
	NodeName     string        // HOPTRACE_NODE_NAME (default hostname; receipt-stamp identity)
	StampReceipt bool          // HOPTRACE_STAMP_RECEIPT (default false)
	BufferSize   int           // HOPTRACE_BUFFER_SIZE (default 10 chains per module)
	PresenceTTL  time.Duration // HOPTRACE_PRESENCE_TTL (default 5m)

	// Slow-trace hook
	SlowThreshold time.Duration // HOPTRACE_SLOW_THRESHOLD (0 = disabled)
	SlowHook      string        // HOPTRACE_SLOW_HOOK (command run via sh -c)

	// Sync settings
	SyncInterval   time.Duration // HOPTRACE_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // HOPTRACE_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // HOPTRACE_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // HOPTRACE_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // HOPTRACE_SYNC_S3_KEY (default "hoptrace/traces.jsonl")
	SyncGitRepo    string        // HOPTRACE_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // HOPTRACE_SYNC_GIT_FILE (default "traces.jsonl")
	SyncGitBranch  string        // HOPTRACE_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:       envOrDefault("HOPTRACE_HTTP_ADDR", ":8080"),
		GRPCAddr:       envOrDefault("HOPTRACE_GRPC_ADDR", ":9090"),
		DatabaseURL:    os.Getenv("HOPTRACE_DATABASE_URL"),
		NATSURL:        os.Getenv("HOPTRACE_NATS_URL"),
		AuthToken:      os.Getenv("HOPTRACE_AUTH_TOKEN"),
		SlowHook:       os.Getenv("HOPTRACE_SLOW_HOOK"),
		SyncS3Bucket:   os.Getenv("HOPTRACE_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("HOPTRACE_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("HOPTRACE_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("HOPTRACE_SYNC_S3_KEY", "hoptrace/traces.jsonl"),
		SyncGitRepo:    os.Getenv("HOPTRACE_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("HOPTRACE_SYNC_GIT_FILE", "traces.jsonl"),
		SyncGitBranch:  envOrDefault("HOPTRACE_SYNC_GIT_BRANCH", "main"),
	}

	c.NodeName = os.Getenv("HOPTRACE_NODE_NAME")
	if c.NodeName == "" {
		c.NodeName, _ = os.Hostname()
	}
	if c.NodeName == "" {
		c.NodeName = "hoptrace"
	}

	if v := os.Getenv("HOPTRACE_STAMP_RECEIPT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("HOPTRACE_STAMP_RECEIPT: %w", err)
		}
		c.StampReceipt = b
	}

	c.BufferSize = 10
	if v := os.Getenv("HOPTRACE_BUFFER_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("HOPTRACE_BUFFER_SIZE: %w", err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("HOPTRACE_BUFFER_SIZE: must be positive, got %d", n)
		}
		c.BufferSize = n
	}

	var err error
	if c.PresenceTTL, err = durationEnv("HOPTRACE_PRESENCE_TTL", "5m"); err != nil {
		return nil, err
	}
	if c.SlowThreshold, err = durationEnv("HOPTRACE_SLOW_THRESHOLD", "0s"); err != nil {
		return nil, err
	}
	if c.SyncInterval, err = durationEnv("HOPTRACE_SYNC_INTERVAL", "3m"); err != nil {
		return nil, err
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
