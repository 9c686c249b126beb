package record

import (
	"github.com/relsql/heapcore/common"
	"github.com/relsql/heapcore/types"
)

// Scan is a lazy, finite, non-restartable sequential scan over a heap
// file's live Rids, grounded on original_source/src/record/rm_scan.cpp.
// Concurrent modification of the file during a scan is undefined at this
// layer, per spec §4.4.
type Scan struct {
	h   *FileHandle
	rid Rid
}

// NewScan positions the scan at the first occupied slot from the first
// data page onward.
func NewScan(h *FileHandle) *Scan {
	s := &Scan{h: h, rid: Rid{PageNo: types.PageID(common.RmFirstRecordPage), SlotNo: -1}}
	s.advance()
	return s
}

// advance scans forward from the current (page, slot) — exclusive — to
// the next occupied slot, crossing page boundaries as needed.
func (s *Scan) advance() {
	for int32(s.rid.PageNo) < s.h.hdr.NumPages {
		ph, err := s.h.fetchPageHandle(s.rid.PageNo)
		common.Assertf(err == nil, "record.Scan: page %v missing mid-scan", s.rid.PageNo)

		next := bitmapNextBit(true, ph.bitmap(), int(s.h.hdr.NumRecordsPerPage), int(s.rid.SlotNo))
		s.h.pool.UnpinPage(ph.frame.ID, false)
		if next != -1 {
			s.rid.SlotNo = int32(next)
			return
		}
		s.rid.PageNo++
		s.rid.SlotNo = -1
	}
}

// Next advances the scan to the following occupied slot.
func (s *Scan) Next() {
	s.advance()
}

// IsEnd reports whether the scan has run past the file's last page.
func (s *Scan) IsEnd() bool {
	return int32(s.rid.PageNo) >= s.h.hdr.NumPages
}

// Rid returns the scan's current position. Only meaningful while
// !IsEnd().
func (s *Scan) Rid() Rid {
	return s.rid
}
