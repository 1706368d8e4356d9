package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/common"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/interfaces"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/options"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RelocationService moves the non-original members of exact-duplicate groups
// into a review area and can move them back.
type RelocationService struct {
	fileOps    interfaces.FileOperations
	journal    interfaces.MoveJournal
	logger     zerolog.Logger
	pathUtils  *common.PathUtils
	validation *common.ValidationUtils
}

var _ interfaces.Relocator = (*RelocationService)(nil)

// NewRelocationService creates a relocation service
func NewRelocationService(fileOps interfaces.FileOperations, journal interfaces.MoveJournal, logger zerolog.Logger) *RelocationService {
	return &RelocationService{
		fileOps:    fileOps,
		journal:    journal,
		logger:     logger.With().Str("component", "relocator").Logger(),
		pathUtils:  common.NewPathUtils(),
		validation: common.NewValidationUtils(),
	}
}

// planItem is one entry of a relocation plan. Items with err set are
// recorded as errors without being executed.
type planItem struct {
	op  types.MoveOperation
	err error
}

// Relocate moves every duplicate of every group under destination, mirroring
// its path relative to root. An empty destination means a duplicates_review
// sibling of root. Only a destination that cannot be created is fatal;
// per-file failures are returned in the result in plan order.
func (rs *RelocationService) Relocate(ctx context.Context, groups []types.DuplicateGroup, root, destination string, opts options.RelocateOptions) (*types.RelocationResult, error) {
	start := time.Now()

	if err := rs.validation.ValidatePath(root); err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}
	root = rs.pathUtils.CanonicalPath(root)

	if destination == "" {
		destination = rs.pathUtils.DefaultReviewRoot(root, internal.DefaultReviewDirName)
	}
	destination = rs.pathUtils.NormalizePath(destination)
	if rs.pathUtils.CanonicalPath(destination) == root {
		return nil, fmt.Errorf("%w: destination %s is the scan root", common.ErrDestinationUnavailable, destination)
	}

	if !opts.DryRun {
		if err := rs.fileOps.EnsureDir(destination); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrDestinationUnavailable, err)
		}
	}

	result := &types.RelocationResult{
		BatchID:          uuid.New(),
		GroupsConsidered: len(groups),
		DestinationRoot:  destination,
		Moves:            []types.MoveRecord{},
		Errors:           []types.Diagnostic{},
		DryRun:           opts.DryRun,
	}

	plan := rs.buildPlan(groups, root, destination)
	operations := make([]types.MoveOperation, 0, len(plan))
	for _, item := range plan {
		if item.err == nil {
			operations = append(operations, item.op)
		}
	}

	rs.logger.Info().
		Str("batch_id", result.BatchID.String()).
		Str("root", root).
		Str("destination", destination).
		Int("groups", len(groups)).
		Int("moves", len(operations)).
		Bool("dry_run", opts.DryRun).
		Msg("Starting relocation")

	var outcomes []types.MoveOutcome
	if opts.DryRun {
		outcomes = rs.predict(operations)
	} else {
		outcomes = rs.fileOps.MoveBatch(ctx, operations, opts)
	}

	next := 0
	for _, item := range plan {
		if item.err != nil {
			result.Errors = append(result.Errors, types.Diagnostic{Path: item.op.SourcePath, Op: types.OpInvariant, Err: item.err})
			common.RelocationErrorsTotal.Inc()
			continue
		}

		outcome := outcomes[next]
		next++

		if outcome.Err != nil {
			op := types.OpMove
			if errors.Is(outcome.Err, common.ErrCreateDirectory) {
				op = types.OpMkdir
			}
			result.Errors = append(result.Errors, types.Diagnostic{Path: outcome.SourcePath, Op: op, Err: outcome.Err})
			common.RelocationErrorsTotal.Inc()
			continue
		}

		rec := types.MoveRecord{
			ID:              uuid.New(),
			SourcePath:      outcome.SourcePath,
			DestinationPath: outcome.ResolvedPath,
			RootDirectory:   root,
			MovedAt:         time.Now(),
		}
		result.Moves = append(result.Moves, rec)

		if opts.DryRun {
			continue
		}
		result.Moved++
		rs.journal.Record(rec)
		common.FilesRelocatedTotal.Inc()
	}

	rs.logger.Info().
		Str("batch_id", result.BatchID.String()).
		Int("moved", result.Moved).
		Int("errors", len(result.Errors)).
		Dur("duration", time.Since(start)).
		Msg("Relocation completed")

	return result, ctx.Err()
}

func (rs *RelocationService) buildPlan(groups []types.DuplicateGroup, root, destination string) []planItem {
	var plan []planItem
	for _, group := range groups {
		if group.Count() < 2 {
			plan = append(plan, planItem{
				op:  types.MoveOperation{SourcePath: group.Original()},
				err: fmt.Errorf("%w: duplicate group %s has %d member(s)", common.ErrInvariantViolation, group.Digest.Short(), group.Count()),
			})
			continue
		}

		for _, dup := range group.Duplicates() {
			plan = append(plan, planItem{op: types.MoveOperation{
				SourcePath: dup,
				TargetPath: TargetPath(root, destination, dup),
			}})
		}
	}
	return plan
}

// predict resolves each target to the name a real run would most likely
// pick, without touching the filesystem.
func (rs *RelocationService) predict(operations []types.MoveOperation) []types.MoveOutcome {
	planner := NewConflictResolverService()
	outcomes := make([]types.MoveOutcome, len(operations))
	for i, op := range operations {
		outcomes[i] = types.MoveOutcome{
			MoveOperation: op,
			ResolvedPath:  planner.GenerateUniqueFilename(op.TargetPath),
		}
		if !rs.pathUtils.Exists(op.SourcePath) {
			outcomes[i].Err = fmt.Errorf("%w: %s", common.ErrSourceNotExist, op.SourcePath)
		}
	}
	return outcomes
}

// TargetPath maps path under destination, keeping its location relative to
// root. Paths outside root keep only their base name.
func TargetPath(root, destination, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return filepath.Join(destination, filepath.Base(path))
	}
	return filepath.Join(destination, rel)
}

// Undo moves destinationPath back to originalPath, recreating missing parent
// directories. It refuses to overwrite anything at originalPath.
func (rs *RelocationService) Undo(ctx context.Context, destinationPath, originalPath string) error {
	if err := rs.validation.ValidatePath(destinationPath); err != nil {
		return fmt.Errorf("invalid destination path: %w", err)
	}
	if err := rs.validation.ValidatePath(originalPath); err != nil {
		return fmt.Errorf("invalid original path: %w", err)
	}
	destinationPath = rs.pathUtils.NormalizePath(destinationPath)
	originalPath = rs.pathUtils.NormalizePath(originalPath)

	if err := rs.validation.ValidateFileExists(destinationPath); err != nil {
		return err
	}
	if rs.pathUtils.Exists(originalPath) {
		return fmt.Errorf("%w: %s", common.ErrDestinationExists, originalPath)
	}

	opts := options.DefaultRelocateOptions()
	opts.Conflict = options.ConflictSkip

	if _, err := rs.fileOps.RelocateFile(ctx, destinationPath, originalPath, opts); err != nil {
		common.RelocationErrorsTotal.Inc()
		return err
	}

	rs.journal.Remove(destinationPath)
	rs.logger.Info().Str("from", destinationPath).Str("to", originalPath).Msg("Move undone")
	return nil
}

// UndoUnder undoes every journaled move whose destination lies under prefix,
// in destination order. Failures are collected, not fatal.
func (rs *RelocationService) UndoUnder(ctx context.Context, prefix string) (*types.UndoResult, error) {
	if err := rs.validation.ValidatePath(prefix); err != nil {
		return nil, fmt.Errorf("invalid prefix: %w", err)
	}

	result := &types.UndoResult{
		Restored: []types.MoveRecord{},
		Errors:   []types.Diagnostic{},
	}

	for _, rec := range rs.journal.UnderPrefix(prefix) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := rs.Undo(ctx, rec.DestinationPath, rec.SourcePath); err != nil {
			result.Errors = append(result.Errors, types.Diagnostic{Path: rec.DestinationPath, Op: types.OpUndo, Err: err})
			continue
		}
		result.Restored = append(result.Restored, rec)
	}

	return result, nil
}
