package fileops

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/common"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/interfaces"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/options"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"

	"github.com/rs/zerolog"
)

// FileOps provides the low-level moves behind relocation and undo
type FileOps struct {
	conflictResolver interfaces.ConflictResolver
	logger           zerolog.Logger
	metrics          common.BaseMetrics
	bytesCopied      atomic.Int64
	validation       *common.ValidationUtils
	errorUtils       *common.ErrorUtils
	batchOps         *BatchOps

	// rename and remove move and drop the source file; swapped in tests to
	// force the cross-device path and its failures.
	rename func(oldpath, newpath string) error
	remove func(path string) error
}

var _ interfaces.FileOperations = (*FileOps)(nil)

// NewFileOps creates a new file operations instance
func NewFileOps(conflictResolver interfaces.ConflictResolver, maxWorkers int, logger zerolog.Logger) *FileOps {
	fo := &FileOps{
		conflictResolver: conflictResolver,
		logger:           logger.With().Str("component", "fileops").Logger(),
		validation:       common.NewValidationUtils(),
		errorUtils:       common.NewErrorUtils(),
		rename:           os.Rename,
		remove:           os.Remove,
	}
	fo.batchOps = NewBatchOps(fo, maxWorkers)
	return fo
}

// EnsureDir creates path and its parents. Concurrent callers racing on the
// same directory all succeed.
func (fo *FileOps) EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("%w %s: %w", common.ErrCreateDirectory, path, err)
	}
	return nil
}

// RelocateFile moves srcPath to dstPath or, on a name collision, to a name
// chosen by the conflict strategy. It returns where the file landed.
func (fo *FileOps) RelocateFile(ctx context.Context, srcPath, dstPath string, opts options.RelocateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if opts.DryRun {
		return fo.conflictResolver.GenerateUniqueFilename(dstPath), nil
	}
	if err := fo.validation.ValidateFileExists(srcPath); err != nil {
		return "", err
	}
	if err := fo.EnsureDir(filepath.Dir(dstPath)); err != nil {
		return "", fo.errorUtils.ClassifyMoveError(err)
	}

	resolved, err := fo.conflictResolver.Reserve(ctx, dstPath, opts.Conflict)
	if err != nil {
		return "", fo.errorUtils.ClassifyMoveError(err)
	}

	if err := fo.MoveFile(ctx, srcPath, resolved, opts); err != nil {
		if relErr := fo.conflictResolver.Release(resolved); relErr != nil {
			fo.logger.Warn().Err(relErr).Str("path", resolved).Msg("Failed to release reserved name")
		}
		return "", err
	}

	return resolved, nil
}

// MoveFile renames srcPath over the already reserved dstPath, falling back to
// copy and delete across devices.
func (fo *FileOps) MoveFile(ctx context.Context, srcPath, dstPath string, opts options.RelocateOptions) (err error) {
	start := time.Now()
	defer func() { fo.metrics.UpdateBaseMetrics(start, err == nil) }()

	if opts.DryRun {
		fo.logger.Info().Str("src", srcPath).Str("dst", dstPath).Msg("Dry run: would move file")
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if srcPath == dstPath {
		return fmt.Errorf("%w: source and destination are the same: %s", common.ErrDestinationExists, srcPath)
	}

	renameErr := fo.rename(srcPath, dstPath)
	if renameErr == nil {
		return nil
	}
	if !opts.FallbackToCopy || !fo.errorUtils.IsCrossDeviceError(renameErr) {
		return fo.errorUtils.ClassifyMoveError(fmt.Errorf("failed to move file: %w", renameErr))
	}

	fo.logger.Debug().Str("src", srcPath).Str("dst", dstPath).Msg("Cross-device move, copying")

	if err := fo.performFileCopy(srcPath, dstPath); err != nil {
		return fo.errorUtils.ClassifyMoveError(fmt.Errorf("failed to copy file during move: %w", err))
	}

	if err := fo.remove(srcPath); err != nil {
		// the file must live in exactly one place
		if rmErr := os.Remove(dstPath); rmErr != nil {
			fo.logger.Error().Err(rmErr).Str("path", dstPath).Msg("Failed to remove copy after source removal failed")
		}
		return fo.errorUtils.ClassifyMoveError(fmt.Errorf("failed to remove source file after copy: %w", err))
	}

	return nil
}

// MoveBatch relocates every operation concurrently; outcomes follow input order.
func (fo *FileOps) MoveBatch(ctx context.Context, operations []types.MoveOperation, opts options.RelocateOptions) []types.MoveOutcome {
	return fo.batchOps.MoveBatch(ctx, operations, opts)
}

// GetMetrics returns operation counters and bytes copied across devices.
func (fo *FileOps) GetMetrics() map[string]interface{} {
	m := fo.metrics.GetBaseMetrics()
	m["bytes_copied"] = fo.bytesCopied.Load()
	return m
}

// performFileCopy copies srcPath into a temp file beside dstPath and renames
// it over the placeholder, so dstPath only ever holds nothing or the whole
// file. Moves are never interrupted mid-file, so no context is checked here.
func (fo *FileOps) performFileCopy(srcPath, dstPath string) (err error) {
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dstPath), "."+filepath.Base(dstPath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if err != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	n, err := io.CopyBuffer(tmpFile, srcFile, make([]byte, 32*1024))
	if err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync destination file: %w", err)
	}
	if err = tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}

	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		fo.logger.Debug().Err(err).Str("path", tmpPath).Msg("Failed to preserve permissions")
	}
	if err := os.Chtimes(tmpPath, info.ModTime(), info.ModTime()); err != nil {
		fo.logger.Debug().Err(err).Str("path", tmpPath).Msg("Failed to preserve modification time")
	}

	if err = os.Rename(tmpPath, dstPath); err != nil {
		return fmt.Errorf("failed to replace placeholder: %w", err)
	}

	fo.bytesCopied.Add(n)
	return nil
}
