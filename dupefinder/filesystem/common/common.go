package common

// This package contains shared utilities and types used across filesystem packages.
// It provides path manipulation, root validation, sentinel errors and the
// prometheus collectors shared by the scanner and the relocator.
