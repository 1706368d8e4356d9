package interfaces

import (
	"context"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/options"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"
)

// Hasher computes content digests and perceptual fingerprints
type Hasher interface {
	ContentDigest(ctx context.Context, path string) (types.Digest, error)
	Fingerprint(path string) (uint64, error)
}

// MediaScanner walks a root and produces one record per media file
type MediaScanner interface {
	Scan(ctx context.Context, root string) (*types.ScanResult, error)
}

// ConflictResolver claims collision-free destination names
type ConflictResolver interface {
	// Reserve atomically claims path or a suffixed variant and returns the
	// claimed name. The caller must replace or Release the placeholder.
	Reserve(ctx context.Context, path string, strategy options.ConflictStrategy) (string, error)
	Release(path string) error
	GenerateUniqueFilename(path string) string
}

// FileOperations defines the file moves used by relocation and undo
type FileOperations interface {
	// MoveFile moves srcPath onto dstPath, which must already be claimed.
	MoveFile(ctx context.Context, srcPath, dstPath string, opts options.RelocateOptions) error
	// RelocateFile creates dstPath's parent, claims a free name and moves srcPath there.
	RelocateFile(ctx context.Context, srcPath, dstPath string, opts options.RelocateOptions) (string, error)
	MoveBatch(ctx context.Context, operations []types.MoveOperation, opts options.RelocateOptions) []types.MoveOutcome
	EnsureDir(path string) error
}

// MoveJournal indexes completed moves by destination path
type MoveJournal interface {
	Record(rec types.MoveRecord)
	Lookup(destinationPath string) (types.MoveRecord, bool)
	Remove(destinationPath string) bool
	UnderPrefix(prefix string) []types.MoveRecord
	Len() int
}

// Relocator moves exact duplicates into a review area and back
type Relocator interface {
	Relocate(ctx context.Context, groups []types.DuplicateGroup, root, destination string, opts options.RelocateOptions) (*types.RelocationResult, error)
	Undo(ctx context.Context, destinationPath, originalPath string) error
	UndoUnder(ctx context.Context, prefix string) (*types.UndoResult, error)
}
