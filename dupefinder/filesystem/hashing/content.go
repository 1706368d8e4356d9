package hashing

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	internal "github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/interfaces"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/options"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"
)

// MediaHasher produces both identities for a media file.
type MediaHasher struct {
	chunkSize int
	algorithm options.HashAlgorithm
}

var _ interfaces.Hasher = (*MediaHasher)(nil)

// NewMediaHasher creates a hasher reading chunkSize bytes at a time.
// Non-positive chunk sizes use the default of 64 KiB.
func NewMediaHasher(chunkSize int, algorithm options.HashAlgorithm) *MediaHasher {
	if chunkSize <= 0 {
		chunkSize = internal.DefaultChunkSizeBytes
	}
	if algorithm == "" {
		algorithm = options.HashAverage
	}
	return &MediaHasher{chunkSize: chunkSize, algorithm: algorithm}
}

// ContentDigest streams path through SHA-256. The result does not depend on
// the chunk size. Cancellation is checked between chunks.
func (h *MediaHasher) ContentDigest(ctx context.Context, path string) (types.Digest, error) {
	var digest types.Digest

	f, err := os.Open(path)
	if err != nil {
		return digest, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sum := sha256.New()
	buf := make([]byte, h.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return digest, err
		}
		n, readErr := f.Read(buf)
		if n > 0 {
			sum.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return digest, fmt.Errorf("read %s: %w", path, readErr)
		}
	}

	copy(digest[:], sum.Sum(nil))
	return digest, nil
}

// Fingerprint decodes path as an image and returns its 64-bit perceptual hash.
func (h *MediaHasher) Fingerprint(path string) (uint64, error) {
	return PerceptualHash(path, h.algorithm)
}
