package options

import (
	internal "github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/config"
)

// ConflictStrategy defines how to handle a name already taken at the destination
type ConflictStrategy string

const (
	ConflictSkip   ConflictStrategy = "skip"
	ConflictRename ConflictStrategy = "rename"
)

// HashAlgorithm selects the perceptual fingerprint.
type HashAlgorithm string

const (
	HashAverage    HashAlgorithm = "average"
	HashDifference HashAlgorithm = "difference"
	HashPerception HashAlgorithm = "perception"
)

// ScanOptions configures traversal and hashing
type ScanOptions struct {
	Workers        int           // Concurrent directory readers and hashers
	ChunkSizeBytes int           // Read buffer for content digests
	FollowSymlinks bool          // Descend into symlinked directories; symlinked files are always hashed
	IgnoreFileName string        // Per-directory gitignore-style file; empty disables
	ExcludeDirs    []string      // Directories skipped entirely, relative to root or absolute
	Algorithm      HashAlgorithm // Perceptual fingerprint for images
}

// ClusterOptions configures near-duplicate clustering
type ClusterOptions struct {
	Threshold int // Maximum Hamming distance joining two images
	Workers   int // Row shards compared in parallel
}

// RelocateOptions configures moving duplicates into a review area
type RelocateOptions struct {
	DryRun         bool             // Plan moves without touching the filesystem
	Conflict       ConflictStrategy // What to do when the target name is taken
	Workers        int              // Concurrent moves
	FallbackToCopy bool             // Use copy+delete for cross-device moves
}

// DefaultScanOptions returns sensible default options for scanning
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Workers:        internal.DefaultScanWorkers,
		ChunkSizeBytes: internal.DefaultChunkSizeBytes,
		IgnoreFileName: internal.DefaultIgnoreFileName,
		Algorithm:      HashAlgorithm(internal.DefaultHashAlgorithm),
	}
}

// DefaultClusterOptions returns the original threshold of 20 bits.
func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{
		Threshold: internal.DefaultSimilarityThreshold,
		Workers:   1,
	}
}

// DefaultRelocateOptions returns sensible default options for relocation
func DefaultRelocateOptions() RelocateOptions {
	return RelocateOptions{
		Conflict:       ConflictRename,
		Workers:        internal.DefaultRelocateWorkers,
		FallbackToCopy: true,
	}
}

// FromConfig derives the three option sets from application configuration.
func FromConfig(cfg *config.Config) (ScanOptions, ClusterOptions, RelocateOptions) {
	scan := DefaultScanOptions()
	cluster := DefaultClusterOptions()
	relocate := DefaultRelocateOptions()
	if cfg == nil {
		return scan, cluster, relocate
	}

	if cfg.Scan.Workers > 0 {
		scan.Workers = cfg.Scan.Workers
	}
	if cfg.Scan.ChunkSizeBytes > 0 {
		scan.ChunkSizeBytes = cfg.Scan.ChunkSizeBytes
	}
	scan.FollowSymlinks = cfg.Scan.FollowSymlinks
	scan.IgnoreFileName = cfg.Scan.IgnoreFile
	scan.ExcludeDirs = append([]string(nil), cfg.Scan.ExcludeDirs...)
	if cfg.Similarity.Algorithm != "" {
		scan.Algorithm = HashAlgorithm(cfg.Similarity.Algorithm)
	}

	cluster.Threshold = cfg.Similarity.Threshold
	if cfg.Similarity.Workers > 0 {
		cluster.Workers = cfg.Similarity.Workers
	}

	if cfg.Relocate.Workers > 0 {
		relocate.Workers = cfg.Relocate.Workers
	}

	return scan, cluster, relocate
}
