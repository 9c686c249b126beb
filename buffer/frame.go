// Package buffer is the buffer pool: a fixed array of page frames, backed
// by the disk manager and a replacer. See spec §4.3.
package buffer

import (
	"github.com/relsql/heapcore/common"
	"github.com/relsql/heapcore/types"
)

// PageKey is the logical PageId of spec §3: a page number paired with the
// file it lives in. It's its own small struct here, rather than in the
// types package, because the buffer pool is the one place fd and page_no
// travel together as a single map key; everywhere else (Rid, page headers)
// they're handled separately.
type PageKey struct {
	Fd types.FileID
	No types.PageID
}

// IsValid reports whether k names a real page rather than the empty
// sentinel (types.InvalidFileID, types.InvalidPageID).
func (k PageKey) IsValid() bool {
	return k.No.IsValid()
}

// invalidKey is the sentinel for an empty frame.
var invalidKey = PageKey{Fd: types.InvalidFileID, No: types.InvalidPageID}

// Frame is one slot in the buffer pool, holding at most one resident page.
type Frame struct {
	ID       PageKey
	Data     [common.PageSize]byte
	PinCount uint32
	Dirty    bool
}

func newEmptyFrame() *Frame {
	return &Frame{ID: invalidKey}
}

// reset clears a frame back to its free, unresident state. Bytes are
// zeroed so a stale page's contents never leak into a fresh fetch.
func (f *Frame) reset() {
	f.ID = invalidKey
	f.PinCount = 0
	f.Dirty = false
	for i := range f.Data {
		f.Data[i] = 0
	}
}
