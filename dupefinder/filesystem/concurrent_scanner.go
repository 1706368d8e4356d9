package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	internal "github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/common"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/interfaces"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/options"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sourcegraph/conc/pool"
)

// IgnoreChecker matches slash-separated paths relative to the directory that
// holds the ignore file.
type IgnoreChecker interface {
	MatchesPath(path string) bool
}

// ignoreRule scopes a compiled ignore file to the directory it was found in.
type ignoreRule struct {
	base    string
	checker IgnoreChecker
}

func (r ignoreRule) matches(path string, isDir bool) bool {
	rel, err := filepath.Rel(r.base, path)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	rel = filepath.ToSlash(rel)
	if r.checker.MatchesPath(rel) {
		return true
	}
	return isDir && r.checker.MatchesPath(rel+"/")
}

// dirTask is one directory queued for reading.
type dirTask struct {
	path     string       // as walked from the root
	realPath string       // symlinks resolved
	rules    []ignoreRule // inherited from ancestors
}

// candidate is a media file waiting to be hashed.
type candidate struct {
	path string
	kind types.MediaKind
	info os.FileInfo
}

// ScanStats tracks performance metrics during a scan
type ScanStats struct {
	DirsProcessed  int64
	EntriesSeen    int64
	MediaFiles     int64
	Diagnostics    int64
	StartTime      time.Time
	TraversalEnded time.Time
	EndTime        time.Time
}

// scanState is the mutable state of one Scan call.
type scanState struct {
	root        string
	excludes    map[string]bool
	mu          sync.Mutex
	visited     map[string]bool
	candidates  []candidate
	diagnostics []types.Diagnostic
	stats       ScanStats
}

func (s *scanState) markVisited(realPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visited[realPath] {
		return false
	}
	s.visited[realPath] = true
	return true
}

func (s *scanState) addDiagnostic(path string, op types.DiagnosticOp, err error) {
	atomic.AddInt64(&s.stats.Diagnostics, 1)
	common.ScanDiagnosticsTotal.WithLabelValues(string(op)).Inc()

	s.mu.Lock()
	s.diagnostics = append(s.diagnostics, types.Diagnostic{Path: path, Op: op, Err: err})
	s.mu.Unlock()
}

// ConcurrentScanner walks a directory tree level by level with bounded
// concurrency and hashes every media file it finds.
type ConcurrentScanner struct {
	opts       options.ScanOptions
	hasher     interfaces.Hasher
	logger     zerolog.Logger
	validation *common.ValidationUtils
	pathUtils  *common.PathUtils
	metrics    *common.BaseMetrics
}

var _ interfaces.MediaScanner = (*ConcurrentScanner)(nil)

// NewConcurrentScanner creates a scanner. A worker count of zero uses
// CPU cores * 2 bounded to [4, 32].
func NewConcurrentScanner(opts options.ScanOptions, hasher interfaces.Hasher, logger zerolog.Logger) *ConcurrentScanner {
	if opts.Workers <= 0 {
		opts.Workers = internal.DefaultScanWorkers
	}

	return &ConcurrentScanner{
		opts:       opts,
		hasher:     hasher,
		logger:     logger.With().Str("component", "scanner").Logger(),
		validation: common.NewValidationUtils(),
		pathUtils:  common.NewPathUtils(),
		metrics:    &common.BaseMetrics{},
	}
}

// WithExcludes returns a scanner that also skips dirs. It shares hasher and
// metrics with cs.
func (cs *ConcurrentScanner) WithExcludes(dirs ...string) *ConcurrentScanner {
	clone := *cs
	clone.opts.ExcludeDirs = append(append([]string(nil), cs.opts.ExcludeDirs...), dirs...)
	return &clone
}

// Scan validates root, walks it and returns one record per readable media
// file, sorted by path. A missing or non-directory root is the only fatal
// error besides cancellation; everything else becomes a diagnostic.
func (cs *ConcurrentScanner) Scan(ctx context.Context, root string) (*types.ScanResult, error) {
	start := time.Now()

	if err := cs.validation.ValidateRoot(root); err != nil {
		return nil, err
	}

	canonicalRoot := cs.pathUtils.CanonicalPath(root)
	state := &scanState{
		root:     canonicalRoot,
		excludes: cs.resolveExcludes(canonicalRoot),
		visited:  make(map[string]bool),
	}
	state.stats.StartTime = start

	cs.logger.Info().
		Str("root", canonicalRoot).
		Int("workers", cs.opts.Workers).
		Bool("follow_symlinks", cs.opts.FollowSymlinks).
		Msg("Starting scan")

	if err := cs.traverse(ctx, state); err != nil {
		cs.metrics.UpdateBaseMetrics(start, false)
		return nil, err
	}
	state.stats.TraversalEnded = time.Now()

	records, err := cs.hashCandidates(ctx, state)
	if err != nil {
		cs.metrics.UpdateBaseMetrics(start, false)
		return nil, err
	}

	sort.Slice(state.diagnostics, func(i, j int) bool {
		if state.diagnostics[i].Path != state.diagnostics[j].Path {
			return state.diagnostics[i].Path < state.diagnostics[j].Path
		}
		return state.diagnostics[i].Op < state.diagnostics[j].Op
	})

	result := &types.ScanResult{
		RunID:       uuid.New(),
		Root:        canonicalRoot,
		Records:     records,
		Diagnostics: state.diagnostics,
		Duration:    time.Since(start),
	}
	if len(records) == 0 {
		result.Message = internal.EmptyScanMessage
	}

	state.stats.EndTime = time.Now()
	common.ScanDuration.Observe(result.Duration.Seconds())
	cs.metrics.UpdateBaseMetrics(start, true)
	cs.logPerformanceStats(&state.stats, len(records))

	return result, nil
}

// Metrics returns counters for scans run by this scanner.
func (cs *ConcurrentScanner) Metrics() map[string]interface{} {
	return cs.metrics.GetBaseMetrics()
}

func (cs *ConcurrentScanner) resolveExcludes(root string) map[string]bool {
	excludes := make(map[string]bool, len(cs.opts.ExcludeDirs))
	for _, dir := range cs.opts.ExcludeDirs {
		if dir == "" {
			continue
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		excludes[filepath.Clean(dir)] = true
		excludes[cs.pathUtils.CanonicalPath(dir)] = true
	}
	return excludes
}

// traverse reads directories breadth first, one level per pool, collecting
// media candidates into state.
func (cs *ConcurrentScanner) traverse(ctx context.Context, state *scanState) error {
	rootTask := dirTask{path: state.root, realPath: state.root}
	state.markVisited(state.root)

	currentLevel := []dirTask{rootTask}
	for depth := 0; len(currentLevel) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var (
			nextLevel   []dirTask
			nextLevelMu sync.Mutex
		)

		levelPool := pool.New().WithMaxGoroutines(cs.opts.Workers).WithContext(ctx)
		for _, task := range currentLevel {
			levelPool.Go(func(ctx context.Context) error {
				children := cs.processDirectory(ctx, state, task)
				atomic.AddInt64(&state.stats.DirsProcessed, 1)

				nextLevelMu.Lock()
				nextLevel = append(nextLevel, children...)
				nextLevelMu.Unlock()
				return nil
			})
		}
		if err := levelPool.Wait(); err != nil {
			return err
		}

		cs.logger.Debug().Int("depth", depth).Int("next_level", len(nextLevel)).Msg("Level processed")
		currentLevel = nextLevel
	}

	return ctx.Err()
}

// processDirectory reads one directory and returns its subdirectories.
func (cs *ConcurrentScanner) processDirectory(ctx context.Context, state *scanState, task dirTask) []dirTask {
	if ctx.Err() != nil {
		return nil
	}

	entries, err := os.ReadDir(task.path)
	if err != nil {
		cs.logger.Warn().Err(err).Str("path", task.path).Msg("Failed to read directory")
		state.addDiagnostic(task.path, types.OpReadDir, err)
		return nil
	}

	rules := task.rules
	if hasEntry(entries, cs.opts.IgnoreFileName) {
		rules = cs.loadIgnoreRules(state, task.path, task.rules)
	}

	var (
		children []dirTask
		found    []candidate
	)

	for _, entry := range entries {
		atomic.AddInt64(&state.stats.EntriesSeen, 1)
		childPath := filepath.Join(task.path, entry.Name())
		isDir := entry.IsDir()
		isLink := entry.Type()&os.ModeSymlink != 0

		var (
			info     os.FileInfo
			realPath = filepath.Join(task.realPath, entry.Name())
		)

		if isLink {
			resolved, err := filepath.EvalSymlinks(childPath)
			if err != nil {
				state.addDiagnostic(childPath, types.OpStat, err)
				continue
			}
			info, err = os.Stat(resolved)
			if err != nil {
				state.addDiagnostic(childPath, types.OpStat, err)
				continue
			}
			realPath = resolved
			isDir = info.IsDir()
		}

		if ignoredBy(rules, childPath, isDir) {
			cs.logger.Debug().Str("path", childPath).Msg("Ignoring entry")
			continue
		}

		if isDir {
			if state.excludes[childPath] || state.excludes[realPath] {
				continue
			}
			// linked files are always read; only linked directories can loop
			if isLink && !cs.opts.FollowSymlinks {
				cs.logger.Debug().Str("path", childPath).Str("target", realPath).Msg("Not following directory symlink")
				state.addDiagnostic(childPath, types.OpSymlink, common.ErrSymlinkNotFollowed)
				continue
			}
			if !state.markVisited(realPath) {
				cs.logger.Debug().Str("path", childPath).Str("real_path", realPath).Msg("Directory already visited")
				continue
			}
			children = append(children, dirTask{path: childPath, realPath: realPath, rules: rules})
			continue
		}

		kind := utils.Classify(entry.Name())
		if kind == "" {
			continue
		}

		if info == nil {
			info, err = entry.Info()
			if err != nil {
				state.addDiagnostic(childPath, types.OpStat, err)
				continue
			}
		}
		if !info.Mode().IsRegular() {
			continue
		}

		found = append(found, candidate{path: childPath, kind: kind, info: info})
	}

	if len(found) > 0 {
		atomic.AddInt64(&state.stats.MediaFiles, int64(len(found)))
		state.mu.Lock()
		state.candidates = append(state.candidates, found...)
		state.mu.Unlock()
	}

	return children
}

// loadIgnoreRules returns the rules for dir: the inherited ones plus dir's own
// ignore file when present.
func (cs *ConcurrentScanner) loadIgnoreRules(state *scanState, dir string, inherited []ignoreRule) []ignoreRule {
	checker, err := cs.GetIgnoreChecker(dir)
	if err != nil {
		cs.logger.Warn().Err(err).Str("path", dir).Msg("Failed to load ignore file")
		state.addDiagnostic(filepath.Join(dir, cs.opts.IgnoreFileName), types.OpIgnoreFile, err)
		return inherited
	}
	if checker == nil {
		return inherited
	}

	rules := make([]ignoreRule, 0, len(inherited)+1)
	rules = append(rules, inherited...)
	return append(rules, ignoreRule{base: dir, checker: checker})
}

// GetIgnoreChecker compiles dir's ignore file. A missing file yields nil.
func (cs *ConcurrentScanner) GetIgnoreChecker(dir string) (IgnoreChecker, error) {
	if cs.opts.IgnoreFileName == "" {
		return nil, nil
	}
	ignorePath := filepath.Join(dir, cs.opts.IgnoreFileName)

	if _, err := os.Stat(ignorePath); err == nil {
		ignored, err := ignore.CompileIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", ignorePath, err)
		}
		return ignored, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error checking for %s: %w", ignorePath, err)
	}

	return nil, nil
}

func hasEntry(entries []os.DirEntry, name string) bool {
	if name == "" {
		return false
	}
	for _, entry := range entries {
		if entry.Name() == name && !entry.IsDir() {
			return true
		}
	}
	return false
}

func ignoredBy(rules []ignoreRule, path string, isDir bool) bool {
	for _, rule := range rules {
		if rule.matches(path, isDir) {
			return true
		}
	}
	return false
}

// hashCandidates digests and fingerprints candidates on a bounded pool. Output
// order follows the sorted candidate list, never completion order.
func (cs *ConcurrentScanner) hashCandidates(ctx context.Context, state *scanState) ([]*types.FileRecord, error) {
	candidates := state.candidates
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].path < candidates[j].path })

	slots := make([]*types.FileRecord, len(candidates))
	hashPool := pool.New().WithMaxGoroutines(cs.opts.Workers).WithContext(ctx)

	for i, c := range candidates {
		hashPool.Go(func(ctx context.Context) error {
			slots[i] = cs.buildRecord(ctx, state, c)
			return nil
		})
	}
	if err := hashPool.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]*types.FileRecord, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// buildRecord returns nil when the content digest cannot be computed.
func (cs *ConcurrentScanner) buildRecord(ctx context.Context, state *scanState, c candidate) *types.FileRecord {
	if ctx.Err() != nil {
		return nil
	}

	digest, err := cs.hasher.ContentDigest(ctx, c.path)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		cs.logger.Warn().Err(err).Str("path", c.path).Msg("Failed to compute content digest")
		state.addDiagnostic(c.path, types.OpDigest, err)
		return nil
	}

	rel, err := cs.pathUtils.GetRelativePath(state.root, c.path)
	if err != nil {
		rel = filepath.Base(c.path)
	}

	rec := &types.FileRecord{
		Path:             c.path,
		RelPath:          rel,
		SizeBytes:        uint64(c.info.Size()),
		Kind:             c.kind,
		ContentDigest:    digest,
		ModifiedAt:       c.info.ModTime(),
		DuplicateGroupID: 1,
	}

	if c.kind == types.KindImage {
		fp, err := cs.hasher.Fingerprint(c.path)
		if err != nil {
			cs.logger.Debug().Err(err).Str("path", c.path).Msg("Failed to compute perceptual fingerprint")
			state.addDiagnostic(c.path, types.OpFingerprint, err)
		} else {
			rec.Fingerprint = fp
			rec.HasFingerprint = true
		}
		if taken, ok := utils.CaptureTime(c.path); ok {
			rec.TakenAt = &taken
		}
	}

	common.FilesScannedTotal.WithLabelValues(string(c.kind)).Inc()
	return rec
}

func (cs *ConcurrentScanner) logPerformanceStats(stats *ScanStats, records int) {
	traversal := stats.TraversalEnded.Sub(stats.StartTime)
	total := stats.EndTime.Sub(stats.StartTime)

	var dirsPerSec float64
	if traversal > 0 {
		dirsPerSec = float64(stats.DirsProcessed) / traversal.Seconds()
	}

	cs.logger.Info().
		Int64("dirs_processed", stats.DirsProcessed).
		Int64("entries_seen", stats.EntriesSeen).
		Int64("media_files", stats.MediaFiles).
		Int("records", records).
		Int64("diagnostics", stats.Diagnostics).
		Dur("traversal", traversal).
		Dur("duration", total).
		Float64("dirs_per_sec", dirsPerSec).
		Msg("Scan completed")
}
