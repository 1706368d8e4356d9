package types

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MediaKind classifies a file by extension. The zero value means "not media".
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// UniqueCluster labels an image with a fingerprint that matched nothing.
const UniqueCluster = "unique"

// Digest is a SHA-256 content digest.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short is the abbreviated form shown in reports.
func (d Digest) Short() string {
	return d.String()[:16] + "..."
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != len(d) {
		return fmt.Errorf("digest must be %d hex characters, got %d", hex.EncodedLen(len(d)), len(text))
	}
	_, err := hex.Decode(d[:], text)
	return err
}

// FileRecord is one media file found by a scan.
type FileRecord struct {
	Path           string    `json:"path"`
	RelPath        string    `json:"rel_path"`
	SizeBytes      uint64    `json:"size_bytes"`
	Kind           MediaKind `json:"kind"`
	ContentDigest  Digest    `json:"content_digest"`
	Fingerprint    uint64    `json:"fingerprint,omitempty"`
	HasFingerprint bool      `json:"has_fingerprint"`
	ModifiedAt     time.Time `json:"modified_at"`
	// TakenAt is the EXIF capture time when the image carries one.
	TakenAt *time.Time `json:"taken_at,omitempty"`

	// DuplicateGroupID is the number of records sharing this digest (1 = unique).
	DuplicateGroupID int `json:"duplicate_group_id"`
	// NearDuplicateClusterID is nd_group_N, UniqueCluster, or empty for records
	// that were never fingerprinted.
	NearDuplicateClusterID string `json:"near_duplicate_cluster_id,omitempty"`
}

// DuplicateGroup is a set of byte-identical files. Paths are sorted and the
// first one is the kept original.
type DuplicateGroup struct {
	Digest Digest   `json:"digest"`
	Paths  []string `json:"files"`
}

func (g DuplicateGroup) Original() string {
	if len(g.Paths) == 0 {
		return ""
	}
	return g.Paths[0]
}

func (g DuplicateGroup) Duplicates() []string {
	if len(g.Paths) < 2 {
		return nil
	}
	return g.Paths[1:]
}

func (g DuplicateGroup) Count() int {
	return len(g.Paths)
}

// NearDuplicateCluster is a connected component of visually similar images.
type NearDuplicateCluster struct {
	ID    string   `json:"group_id"`
	Paths []string `json:"files"`
}

func (c NearDuplicateCluster) Count() int {
	return len(c.Paths)
}

// DiagnosticOp names the step that failed for a file.
type DiagnosticOp string

const (
	OpStat        DiagnosticOp = "stat"
	OpSymlink     DiagnosticOp = "symlink"
	OpReadDir     DiagnosticOp = "read-dir"
	OpIgnoreFile  DiagnosticOp = "ignore-file"
	OpDigest      DiagnosticOp = "digest"
	OpFingerprint DiagnosticOp = "fingerprint"
	OpMkdir       DiagnosticOp = "mkdir"
	OpMove        DiagnosticOp = "move"
	OpUndo        DiagnosticOp = "undo"
	OpInvariant   DiagnosticOp = "invariant"
)

// Diagnostic is a non-fatal, per-file problem.
type Diagnostic struct {
	Path string       `json:"path"`
	Op   DiagnosticOp `json:"op"`
	Err  error        `json:"-"`
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s %s: %v", d.Op, d.Path, d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Message is the error text, exposed for JSON encoding.
func (d Diagnostic) Message() string {
	if d.Err == nil {
		return ""
	}
	return d.Err.Error()
}

func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return marshalDiagnostic(d)
}

// MoveRecord remembers where a duplicate went so the move can be undone.
type MoveRecord struct {
	ID              uuid.UUID `json:"id"`
	SourcePath      string    `json:"source_path"`
	DestinationPath string    `json:"destination_path"`
	RootDirectory   string    `json:"root_directory"`
	MovedAt         time.Time `json:"moved_at"`
}

// ScanResult is the raw output of a scan: records sorted by path.
type ScanResult struct {
	RunID       uuid.UUID     `json:"run_id"`
	Root        string        `json:"root"`
	Records     []*FileRecord `json:"records"`
	Diagnostics []Diagnostic  `json:"diagnostics"`
	Message     string        `json:"message,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Summary holds the aggregate counts shown after a scan.
type Summary struct {
	TotalFiles             int    `json:"total_files"`
	Images                 int    `json:"images"`
	Videos                 int    `json:"videos"`
	Fingerprinted          int    `json:"fingerprinted"`
	DuplicateGroups        int    `json:"duplicate_groups"`
	FilesInDuplicateGroups int    `json:"files_in_duplicate_groups"`
	RedundantFiles         int    `json:"redundant_files"`
	ReclaimableBytes       uint64 `json:"reclaimable_bytes"`
	NearDuplicateClusters  int    `json:"near_duplicate_clusters"`
	FilesInClusters        int    `json:"files_in_clusters"`
}

// ScanReport is a scan plus its exact groups and near-duplicate clusters.
type ScanReport struct {
	ScanResult
	DuplicateGroups       []DuplicateGroup       `json:"duplicate_groups"`
	NearDuplicateClusters []NearDuplicateCluster `json:"near_duplicate_clusters"`
	Summary               Summary                `json:"summary"`
}

// RelocationResult reports a relocation batch. Moves and Errors follow plan order.
type RelocationResult struct {
	BatchID          uuid.UUID    `json:"batch_id"`
	GroupsConsidered int          `json:"groups_considered"`
	Moved            int          `json:"moved"`
	DestinationRoot  string       `json:"destination_root"`
	Moves            []MoveRecord `json:"moves"`
	Errors           []Diagnostic `json:"errors"`
	DryRun           bool         `json:"dry_run"`
}

// UndoResult reports a bulk undo.
type UndoResult struct {
	Restored []MoveRecord `json:"restored"`
	Errors   []Diagnostic `json:"errors"`
}

// MoveOperation is one planned file move.
type MoveOperation struct {
	SourcePath string `json:"source_path"`
	TargetPath string `json:"target_path"`
}

// MoveOutcome reports one executed MoveOperation. ResolvedPath is where the
// file actually landed after collision handling.
type MoveOutcome struct {
	MoveOperation
	ResolvedPath string        `json:"resolved_path,omitempty"`
	Err          error         `json:"-"`
	Duration     time.Duration `json:"duration"`
}
