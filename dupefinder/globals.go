package internal

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// DefaultAppName is used for the config directory and the env prefix
	DefaultAppName        = "dupefinder"
	DefaultAppCMDShortCut = "dupefinder"
	DefaultConfigPath     = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultEnvPrefix      = strings.ToUpper(DefaultAppName)

	// Scan defaults
	DefaultIgnoreFileName = "." + DefaultAppName + "-ignore"
	DefaultChunkSizeBytes = 64 * 1024
	DefaultScanWorkers    = min(max(runtime.NumCPU()*2, 4), 32)

	// Similarity defaults
	DefaultSimilarityThreshold = 20
	DefaultHashAlgorithm       = "average"

	// Relocation defaults
	DefaultReviewDirName   = "duplicates_review"
	DefaultRelocateWorkers = 4

	// Server defaults
	DefaultServerAddr = "127.0.0.1:5055"

	EmptyScanMessage = "No media files found in the specified directory."

	// Version is overridden at build time with -ldflags "-X".
	Version = "dev"
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// NewLogger builds a logger writing to w. format is "json" or "console";
// an unknown level falls back to info.
func NewLogger(level, format string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
