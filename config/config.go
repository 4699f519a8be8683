// Package config loads the orchestration core's process-wide configuration
// from the environment, resolving every timeout, capacity, and weight named
// in the orchestration design notes to a concrete default when unset.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/graphmind/orchestrator/types"
)

// Config is the immutable, process-wide configuration for the
// orchestration core. It is built once at startup by NewFromEnv.
type Config struct {
	WorkspaceID string

	// Graph backend.
	GraphURI       string
	GraphUser      string
	GraphPassword  string
	FulltextIndex  string

	// Optional durability / fan-out backends.
	EtcdEndpoints []string
	RedisURL      string

	// Foundation-model backend.
	AnthropicModel string

	// Timeouts.
	RequestTimeout time.Duration
	AgentTimeout   time.Duration
	GraphTimeout   time.Duration
	ProbeTimeout   time.Duration
	GraceTimeout   time.Duration

	// Capacities.
	DebateParallelism int // P
	SharedMemoryCap   int // K
	MaxInFlight       int // Qmax

	// Resolver tuning.
	DedupThreshold  float64
	ConfidenceGap   float64 // δ
	LexicalWeight   float64
	FulltextWeight  float64
	HintWeight      float64

	// Router tuning.
	RouteMargin float64 // τ

	HTTPAddr string
}

// Defaults mirror the values named in SPEC_FULL.md §5 and §9.
func Defaults() Config {
	return Config{
		FulltextIndex:     "entity_fulltext",
		AnthropicModel:    "claude-sonnet-4-5",
		RequestTimeout:    120 * time.Second,
		AgentTimeout:      60 * time.Second,
		GraphTimeout:      10 * time.Second,
		ProbeTimeout:      30 * time.Second,
		GraceTimeout:      1 * time.Second,
		DebateParallelism: 8,
		SharedMemoryCap:   100,
		MaxInFlight:       64,
		DedupThreshold:    0.85,
		ConfidenceGap:     0.15,
		LexicalWeight:     0.5,
		FulltextWeight:    0.4,
		HintWeight:        0.1,
		RouteMargin:       0.2,
		HTTPAddr:          ":8080",
	}
}

// NewFromEnv builds a Config starting from Defaults and overriding with
// any GRAPHMIND_* environment variables that are set. It fails fast when a
// required setting (the graph connection URI) is missing, rather than
// surfacing that failure on the first request.
func NewFromEnv() (Config, error) {
	cfg := Defaults()

	cfg.WorkspaceID = getenv("GRAPHMIND_WORKSPACE_ID", "default")
	cfg.GraphURI = os.Getenv("GRAPHMIND_GRAPH_URI")
	cfg.GraphUser = getenv("GRAPHMIND_GRAPH_USER", "neo4j")
	cfg.GraphPassword = os.Getenv("GRAPHMIND_GRAPH_PASSWORD")
	cfg.FulltextIndex = getenv("GRAPHMIND_FULLTEXT_INDEX", cfg.FulltextIndex)
	cfg.AnthropicModel = getenv("GRAPHMIND_MODEL", cfg.AnthropicModel)
	cfg.RedisURL = os.Getenv("GRAPHMIND_REDIS_URL")
	cfg.HTTPAddr = getenv("GRAPHMIND_HTTP_ADDR", cfg.HTTPAddr)

	if v := os.Getenv("GRAPHMIND_ETCD_ENDPOINTS"); v != "" {
		cfg.EtcdEndpoints = splitCSV(v)
	}

	var err error
	if cfg.RequestTimeout, err = durationEnv("GRAPHMIND_T_REQUEST", cfg.RequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.AgentTimeout, err = durationEnv("GRAPHMIND_T_AGENT", cfg.AgentTimeout); err != nil {
		return Config{}, err
	}
	agentBounds := types.TimeoutConfig{Default: cfg.AgentTimeout}
	if agentBounds.Min, err = durationEnv("GRAPHMIND_T_AGENT_MIN", 0); err != nil {
		return Config{}, err
	}
	if agentBounds.Max, err = durationEnv("GRAPHMIND_T_AGENT_MAX", 0); err != nil {
		return Config{}, err
	}
	if err := agentBounds.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: agent timeout bounds: %w", err)
	}
	cfg.AgentTimeout = agentBounds.ResolveTimeout(0)
	if cfg.GraphTimeout, err = durationEnv("GRAPHMIND_T_GRAPH", cfg.GraphTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ProbeTimeout, err = durationEnv("GRAPHMIND_T_PROBE", cfg.ProbeTimeout); err != nil {
		return Config{}, err
	}
	if cfg.GraceTimeout, err = durationEnv("GRAPHMIND_T_GRACE", cfg.GraceTimeout); err != nil {
		return Config{}, err
	}
	if cfg.DebateParallelism, err = intEnv("GRAPHMIND_P", cfg.DebateParallelism); err != nil {
		return Config{}, err
	}
	if cfg.SharedMemoryCap, err = intEnv("GRAPHMIND_K", cfg.SharedMemoryCap); err != nil {
		return Config{}, err
	}
	if cfg.MaxInFlight, err = intEnv("GRAPHMIND_QMAX", cfg.MaxInFlight); err != nil {
		return Config{}, err
	}

	if cfg.GraphURI == "" {
		return Config{}, fmt.Errorf("config: GRAPHMIND_GRAPH_URI is required")
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func splitCSV(v string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out
}
