package record

import "github.com/relsql/heapcore/types"

// Rid is a record's stable address within one heap file: which data page
// it's on and which slot within that page. Rids are reused after a
// delete, per spec §3.
type Rid struct {
	PageNo types.PageID
	SlotNo int32
}
