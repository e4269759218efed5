package model

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultMetadataEndpoint is the bibliographic lookup service used by docman
const DefaultMetadataEndpoint = "http://docman.zhuof.wang"

// Config is the complete judge configuration
type Config struct {
	Judge    JudgeConfig    `yaml:"judge" mapstructure:"judge"`
	Build    BuildConfig    `yaml:"build" mapstructure:"build"`
	Corpus   CorpusConfig   `yaml:"corpus" mapstructure:"corpus"`
	Metadata MetadataConfig `yaml:"metadata" mapstructure:"metadata"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// JudgeConfig controls case execution
type JudgeConfig struct {
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`       // per-process deadline
	WaitDelay time.Duration `yaml:"wait_delay" mapstructure:"wait_delay"` // pipe drain bound after kill
	Seed      uint64        `yaml:"seed" mapstructure:"seed"`             // 0 picks a fresh seed
	Generate  int           `yaml:"generate" mapstructure:"generate"`     // random base fixtures per run
}

// BuildConfig describes how a workspace is built
type BuildConfig struct {
	System     string `yaml:"system" mapstructure:"system"` // only "cmake"
	Dir        string `yaml:"dir" mapstructure:"dir"`
	Executable string `yaml:"executable" mapstructure:"executable"` // relative to Dir, without .exe
}

// CorpusConfig points at fixture directories; empty means the builtin set
type CorpusConfig struct {
	InputDir    string `yaml:"input_dir" mapstructure:"input_dir"`
	CitationDir string `yaml:"citation_dir" mapstructure:"citation_dir"`
}

// MetadataConfig configures the bibliographic lookup client
type MetadataConfig struct {
	Endpoint          string        `yaml:"endpoint" mapstructure:"endpoint"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	WebpageSource     string        `yaml:"webpage_source" mapstructure:"webpage_source"` // service or direct
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	PrefetchWorkers   int           `yaml:"prefetch_workers" mapstructure:"prefetch_workers"`
}

// CacheConfig configures the lookup cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ReportConfig selects the reporting sink
type ReportConfig struct {
	Format   string `yaml:"format" mapstructure:"format"` // stream or json
	JSONPath string `yaml:"json_path,omitempty" mapstructure:"json_path"`
	NoColor  bool   `yaml:"no_color" mapstructure:"no_color"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Webpage metadata sources
const (
	WebpageSourceService = "service"
	WebpageSourceDirect  = "direct"
)

// Report formats
const (
	ReportStream = "stream"
	ReportJSON   = "json"
)

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "docjudge-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".docjudge", "cache")
	}

	return &Config{
		Judge: JudgeConfig{
			Timeout:   60 * time.Second,
			WaitDelay: 5 * time.Second,
			Generate:  3,
		},
		Build: BuildConfig{
			System:     "cmake",
			Dir:        "build",
			Executable: "docman",
		},
		Metadata: MetadataConfig{
			Endpoint:          DefaultMetadataEndpoint,
			Timeout:           10 * time.Second,
			UserAgent:         "docjudge/0.3 (+https://github.com/pku-software/docman-homework-judge-action)",
			MaxRetries:        3,
			RequestsPerSecond: 5,
			Burst:             5,
			WebpageSource:     WebpageSourceService,
			RespectRobots:     true,
			PrefetchWorkers:   4,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Report: ReportConfig{
			Format: ReportStream,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
