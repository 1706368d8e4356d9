package hashing

import (
	"fmt"
	"image"
	"os"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/options"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// PerceptualHash decodes the image at path, applying its EXIF orientation, and
// hashes it with the selected algorithm.
func PerceptualHash(path string, algorithm options.HashAlgorithm) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}

	return HashImage(img, algorithm)
}

// HashImage hashes an already decoded image.
func HashImage(img image.Image, algorithm options.HashAlgorithm) (uint64, error) {
	var (
		hash *goimagehash.ImageHash
		err  error
	)

	switch algorithm {
	case options.HashAverage, "":
		hash, err = goimagehash.AverageHash(img)
	case options.HashDifference:
		hash, err = goimagehash.DifferenceHash(img)
	case options.HashPerception:
		hash, err = goimagehash.PerceptionHash(img)
	default:
		return 0, fmt.Errorf("unknown hash algorithm %q", algorithm)
	}
	if err != nil {
		return 0, err
	}

	return hash.GetHash(), nil
}
