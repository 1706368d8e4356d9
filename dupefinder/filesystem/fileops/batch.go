package fileops

import (
	"context"
	"sync/atomic"
	"time"

	internal "github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/options"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"

	"github.com/sourcegraph/conc/pool"
)

// BatchOps handles batch file operations with concurrency control
type BatchOps struct {
	fileOps    *FileOps
	maxWorkers int
}

// NewBatchOps creates a new batch operations instance
func NewBatchOps(fileOps *FileOps, maxWorkers int) *BatchOps {
	if maxWorkers <= 0 {
		maxWorkers = internal.DefaultRelocateWorkers
	}
	return &BatchOps{
		fileOps:    fileOps,
		maxWorkers: maxWorkers,
	}
}

// MoveBatch performs batch move operations. Each move is independent: a
// failure is recorded in its outcome and never stops the others. Moves that
// have not started when ctx is cancelled report the context error.
func (bo *BatchOps) MoveBatch(ctx context.Context, operations []types.MoveOperation, opts options.RelocateOptions) []types.MoveOutcome {
	start := time.Now()
	outcomes := make([]types.MoveOutcome, len(operations))

	workers := bo.maxWorkers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	var successCount, errorCount int32
	p := pool.New().WithMaxGoroutines(workers)

	for i, op := range operations {
		p.Go(func() {
			opStart := time.Now()
			outcome := types.MoveOutcome{MoveOperation: op}

			resolved, err := bo.fileOps.RelocateFile(ctx, op.SourcePath, op.TargetPath, opts)
			outcome.ResolvedPath = resolved
			outcome.Err = err
			outcome.Duration = time.Since(opStart)
			outcomes[i] = outcome

			if err != nil {
				atomic.AddInt32(&errorCount, 1)
				bo.fileOps.logger.Error().Err(err).
					Int("index", i).
					Str("src", op.SourcePath).
					Str("dst", op.TargetPath).
					Msg("Batch move operation failed")
				return
			}
			atomic.AddInt32(&successCount, 1)
			bo.fileOps.logger.Debug().
				Int("index", i).
				Str("src", op.SourcePath).
				Str("dst", resolved).
				Msg("Batch move operation completed")
		})
	}
	p.Wait()

	bo.fileOps.logger.Info().
		Int("total", len(operations)).
		Int32("successful", successCount).
		Int32("failed", errorCount).
		Dur("duration", time.Since(start)).
		Msg("Batch move operations completed")

	return outcomes
}
