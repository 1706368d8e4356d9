package filesystem

import (
	"context"
	"fmt"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/config"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/common"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/fileops"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/hashing"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/interfaces"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/options"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/services"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/grouping"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/trees"

	"github.com/rs/zerolog"
)

// FileSystem is the entry point for scanning a media tree, grouping its
// duplicates and moving them into a review area.
type FileSystem struct {
	// Core services
	hasher           interfaces.Hasher
	scanner          *ConcurrentScanner
	clusterer        *grouping.Clusterer
	conflictResolver interfaces.ConflictResolver
	fileOperations   *fileops.FileOps
	relocator        interfaces.Relocator
	journal          *trees.MoveJournal

	// Options derived from config
	scanOpts     options.ScanOptions
	relocateOpts options.RelocateOptions

	pathUtils *common.PathUtils
	config    *config.Config
	logger    zerolog.Logger
}

// New wires every service from cfg. A nil cfg uses the defaults.
func New(cfg *config.Config, logger zerolog.Logger) (*FileSystem, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	scanOpts, clusterOpts, relocateOpts := options.FromConfig(cfg)

	hasher := hashing.NewMediaHasher(scanOpts.ChunkSizeBytes, scanOpts.Algorithm)
	journal := trees.NewMoveJournal()
	conflictResolver := services.NewConflictResolverService()
	fileOperations := fileops.NewFileOps(conflictResolver, relocateOpts.Workers, logger)

	return &FileSystem{
		hasher:           hasher,
		scanner:          NewConcurrentScanner(scanOpts, hasher, logger),
		clusterer:        grouping.NewClusterer(clusterOpts, logger),
		conflictResolver: conflictResolver,
		fileOperations:   fileOperations,
		relocator:        services.NewRelocationService(fileOperations, journal, logger),
		journal:          journal,
		scanOpts:         scanOpts,
		relocateOpts:     relocateOpts,
		pathUtils:        common.NewPathUtils(),
		config:           cfg,
		logger:           logger.With().Str("component", "filesystem").Logger(),
	}, nil
}

// Scan walks root and returns its records with exact-duplicate groups,
// near-duplicate clusters and summary counts.
func (fs *FileSystem) Scan(ctx context.Context, root string) (*types.ScanReport, error) {
	return fs.scanWith(ctx, fs.scanner, root)
}

func (fs *FileSystem) scanWith(ctx context.Context, scanner interfaces.MediaScanner, root string) (*types.ScanReport, error) {
	result, err := scanner.Scan(ctx, root)
	if err != nil {
		return nil, err
	}

	groups := grouping.GroupByDigest(result.Records)
	grouping.AssignDuplicateGroupIDs(result.Records)

	clusters, err := fs.clusterer.Cluster(ctx, result.Records)
	if err != nil {
		return nil, fmt.Errorf("failed to cluster near duplicates: %w", err)
	}
	grouping.AssignClusterIDs(result.Records, clusters)

	report := &types.ScanReport{
		ScanResult:            *result,
		DuplicateGroups:       groups,
		NearDuplicateClusters: clusters,
		Summary:               grouping.Summarize(result.Records, groups, clusters),
	}

	fs.logger.Info().
		Str("run_id", result.RunID.String()).
		Int("files", report.Summary.TotalFiles).
		Int("duplicate_groups", len(groups)).
		Int("near_duplicate_clusters", len(clusters)).
		Int("diagnostics", len(result.Diagnostics)).
		Msg("Scan report ready")

	return report, nil
}

// Relocate moves the duplicates of groups found under root into destination.
func (fs *FileSystem) Relocate(ctx context.Context, groups []types.DuplicateGroup, root, destination string, dryRun bool) (*types.RelocationResult, error) {
	opts := fs.relocateOpts
	opts.DryRun = dryRun
	return fs.relocator.Relocate(ctx, groups, root, fs.ResolveDestination(root, destination), opts)
}

// ScanAndRelocate scans root and relocates every exact duplicate it finds.
// The scan finishes before the first move starts, and a destination inside
// root is left out of the scan. When relocation is cut short the partial
// result is returned with the error, so completed moves stay undoable.
func (fs *FileSystem) ScanAndRelocate(ctx context.Context, root, destination string, dryRun bool) (*types.ScanReport, *types.RelocationResult, error) {
	destination = fs.ResolveDestination(root, destination)

	scanner := fs.scanner
	canonicalDest := fs.pathUtils.CanonicalPathNearest(destination)
	if fs.pathUtils.IsSubpath(fs.pathUtils.CanonicalPath(root), canonicalDest) {
		scanner = fs.scanner.WithExcludes(canonicalDest)
	}

	report, err := fs.scanWith(ctx, scanner, root)
	if err != nil {
		return nil, nil, err
	}

	result, err := fs.Relocate(ctx, report.DuplicateGroups, report.Root, destination, dryRun)
	return report, result, err
}

// Undo moves a relocated file back to its original path.
func (fs *FileSystem) Undo(ctx context.Context, destinationPath, originalPath string) error {
	return fs.relocator.Undo(ctx, destinationPath, originalPath)
}

// UndoUnder undoes every journaled move whose destination lies under prefix.
func (fs *FileSystem) UndoUnder(ctx context.Context, prefix string) (*types.UndoResult, error) {
	return fs.relocator.UndoUnder(ctx, prefix)
}

// ResolveDestination picks the review area: the explicit destination, then
// the configured one, then a sibling of root.
func (fs *FileSystem) ResolveDestination(root, destination string) string {
	if destination == "" {
		destination = fs.config.Relocate.Destination
	}
	if destination == "" {
		return fs.pathUtils.DefaultReviewRoot(fs.pathUtils.CanonicalPath(root), fs.config.Relocate.DirName)
	}
	return fs.pathUtils.NormalizePath(destination)
}

// Moves lists journaled moves whose destination lies under prefix, or every
// move when prefix is empty.
func (fs *FileSystem) Moves(prefix string) []types.MoveRecord {
	if prefix == "" {
		return fs.journal.All()
	}
	return fs.journal.UnderPrefix(prefix)
}

// LookupMove finds the journaled move that produced destinationPath.
func (fs *FileSystem) LookupMove(destinationPath string) (types.MoveRecord, bool) {
	return fs.journal.Lookup(destinationPath)
}

// Stats is a snapshot of in-process counters.
type Stats struct {
	Scanner        map[string]interface{} `json:"scanner"`
	FileOperations map[string]interface{} `json:"file_operations"`
	Journal        trees.JournalStats     `json:"journal"`
	JournalEntries int                    `json:"journal_entries"`
}

// Stats reports scan, move and journal counters since the filesystem was built.
func (fs *FileSystem) Stats() Stats {
	return Stats{
		Scanner:        fs.scanner.Metrics(),
		FileOperations: fs.fileOperations.GetMetrics(),
		Journal:        fs.journal.Stats(),
		JournalEntries: fs.journal.Len(),
	}
}

// Journal exposes the moves recorded by this process.
func (fs *FileSystem) Journal() *trees.MoveJournal {
	return fs.journal
}

// Config returns the configuration the filesystem was built with.
func (fs *FileSystem) Config() *config.Config {
	return fs.config
}
