package common

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
)

// Common error types used across filesystem packages
var (
	ErrPathEmpty              = errors.New("path cannot be empty")
	ErrPathTooLong            = errors.New("path too long (max 4096 characters)")
	ErrPathInvalid            = errors.New("path contains invalid characters")
	ErrDirectoryNotFound      = errors.New("directory not found")
	ErrNotADirectory          = errors.New("not a directory")
	ErrSourceNotExist         = errors.New("source does not exist")
	ErrDestinationExists      = errors.New("destination already exists")
	ErrDestinationUnavailable = errors.New("destination root cannot be created")
	ErrCreateDirectory        = errors.New("failed to create directory")
	ErrInvariantViolation     = errors.New("invariant violation")
	ErrTooManyCollisions      = errors.New("too many name collisions")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrFileLocked             = errors.New("file locked or in use")
	ErrSymlinkNotFollowed     = errors.New("directory symlink not followed")
)

// ValidationUtils provides common validation utilities used across packages
type ValidationUtils struct{}

// NewValidationUtils creates a new ValidationUtils instance
func NewValidationUtils() *ValidationUtils {
	return &ValidationUtils{}
}

// ValidatePath rejects empty, overlong or NUL-carrying paths.
func (vu *ValidationUtils) ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrPathEmpty
	}
	if len(path) > 4096 {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return ErrPathInvalid
	}
	return nil
}

// ValidateRoot checks that path names an existing directory. The returned
// error wraps ErrDirectoryNotFound or ErrNotADirectory.
func (vu *ValidationUtils) ValidateRoot(path string) error {
	if err := vu.ValidatePath(path); err != nil {
		return fmt.Errorf("%w: %w", ErrDirectoryNotFound, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDirectoryNotFound, path)
		}
		return fmt.Errorf("failed to access directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, path)
	}
	return nil
}

// ValidateFileExists validates that a file exists
func (vu *ValidationUtils) ValidateFileExists(path string) error {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceNotExist, path)
		}
		return fmt.Errorf("failed to access file %s: %w", path, err)
	}
	return nil
}

// ErrorUtils provides common error handling utilities
type ErrorUtils struct{}

// NewErrorUtils creates a new ErrorUtils instance
func NewErrorUtils() *ErrorUtils {
	return &ErrorUtils{}
}

// ClassifyMoveError maps an OS error from a move to one of the sentinel kinds
// reported to the user, keeping the original error in the chain.
func (eu *ErrorUtils) ClassifyMoveError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrSourceNotExist), errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrFileLocked):
		return err
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrSourceNotExist, err)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case errors.Is(err, syscall.EBUSY), errors.Is(err, syscall.ETXTBSY):
		return fmt.Errorf("%w: %w", ErrFileLocked, err)
	default:
		return err
	}
}

// IsCrossDeviceError reports whether a rename failed because source and
// destination live on different filesystems.
func (eu *ErrorUtils) IsCrossDeviceError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EXDEV) {
		return true
	}
	return strings.Contains(err.Error(), "cross-device link") ||
		strings.Contains(err.Error(), "invalid cross-device link")
}
