package utils

import (
	"os"
	"time"

	exiflib "github.com/rwcarlsen/goexif/exif"
)

// CaptureTime returns when an image was taken according to its EXIF data.
// Files without EXIF, or whose EXIF cannot be decoded, report false.
func CaptureTime(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exiflib.Decode(f)
	if err != nil {
		return time.Time{}, false
	}

	taken, err := x.DateTime()
	if err != nil || taken.IsZero() {
		return time.Time{}, false
	}
	return taken, true
}
