package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	internal "github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Scan       ScanConfig       `mapstructure:"scan"`
	Similarity SimilarityConfig `mapstructure:"similarity"`
	Relocate   RelocateConfig   `mapstructure:"relocate"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
}

// ScanConfig controls traversal and hashing.
type ScanConfig struct {
	Workers        int      `mapstructure:"workers"`
	ChunkSizeBytes int      `mapstructure:"chunkSizeBytes"`
	FollowSymlinks bool     `mapstructure:"followSymlinks"`
	IgnoreFile     string   `mapstructure:"ignoreFile"`
	ExcludeDirs    []string `mapstructure:"excludeDirs"`
}

// SimilarityConfig controls near-duplicate clustering.
type SimilarityConfig struct {
	Threshold int    `mapstructure:"threshold"`
	Algorithm string `mapstructure:"algorithm"`
	Workers   int    `mapstructure:"workers"`
}

// RelocateConfig controls where duplicates are moved.
type RelocateConfig struct {
	// Destination overrides the review area. Empty means a DirName sibling of the scan root.
	Destination string `mapstructure:"destination"`
	DirName     string `mapstructure:"dirName"`
	Workers     int    `mapstructure:"workers"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var AppConfig Config

var validAlgorithms = map[string]bool{
	"average":    true,
	"difference": true,
	"perception": true,
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	SetDefaults(v)

	v.SetEnvPrefix(internal.DefaultEnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // scan.workers -> DUPEFINDER_SCAN_WORKERS

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return &AppConfig, nil
}

// SetDefaults registers every known key so env overrides resolve during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scan.workers", internal.DefaultScanWorkers)
	v.SetDefault("scan.chunkSizeBytes", internal.DefaultChunkSizeBytes)
	v.SetDefault("scan.followSymlinks", false)
	v.SetDefault("scan.ignoreFile", internal.DefaultIgnoreFileName)
	v.SetDefault("scan.excludeDirs", []string{})

	v.SetDefault("similarity.threshold", internal.DefaultSimilarityThreshold)
	v.SetDefault("similarity.algorithm", internal.DefaultHashAlgorithm)
	v.SetDefault("similarity.workers", runtime.NumCPU())

	v.SetDefault("relocate.destination", "")
	v.SetDefault("relocate.dirName", internal.DefaultReviewDirName)
	v.SetDefault("relocate.workers", internal.DefaultRelocateWorkers)

	v.SetDefault("server.addr", internal.DefaultServerAddr)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
}

// Default returns the configuration used when nothing is loaded.
func Default() Config {
	return Config{
		Scan: ScanConfig{
			Workers:        internal.DefaultScanWorkers,
			ChunkSizeBytes: internal.DefaultChunkSizeBytes,
			IgnoreFile:     internal.DefaultIgnoreFileName,
		},
		Similarity: SimilarityConfig{
			Threshold: internal.DefaultSimilarityThreshold,
			Algorithm: internal.DefaultHashAlgorithm,
			Workers:   runtime.NumCPU(),
		},
		Relocate: RelocateConfig{
			DirName: internal.DefaultReviewDirName,
			Workers: internal.DefaultRelocateWorkers,
		},
		Server: ServerConfig{Addr: internal.DefaultServerAddr},
		Log:    LogConfig{Level: "info", Format: "auto"},
	}
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Similarity.Threshold < 0 || c.Similarity.Threshold > 64 {
		return fmt.Errorf("similarity.threshold must be within 0..64, got %d", c.Similarity.Threshold)
	}
	if !validAlgorithms[strings.ToLower(c.Similarity.Algorithm)] {
		return fmt.Errorf("similarity.algorithm %q is not one of average, difference, perception", c.Similarity.Algorithm)
	}
	if c.Scan.ChunkSizeBytes <= 0 {
		return fmt.Errorf("scan.chunkSizeBytes must be positive, got %d", c.Scan.ChunkSizeBytes)
	}
	if c.Relocate.DirName == "" && c.Relocate.Destination == "" {
		return errors.New("relocate.dirName must not be empty when relocate.destination is unset")
	}
	return nil
}
