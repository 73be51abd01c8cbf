package tds

// IntermediateCount is a pseudo-token synthesized by the cursor flow engine
// (never sent on the wire) when a DoneInProcToken with HasCount arrives
// during a FETCHING window, so the consumer can observe rowsUpdated per
// fetch window without seeing the suppressed DoneInProcToken itself.
type IntermediateCount struct {
	RowCount uint64
}

func (IntermediateCount) isMessage() {}
