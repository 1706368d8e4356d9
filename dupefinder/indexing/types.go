package indexing

// RecordID is the position of a record in a scan's sorted record slice. It is
// small and contiguous so it fits roaring bitmaps directly.
type RecordID = uint32
