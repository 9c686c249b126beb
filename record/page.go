package record

import (
	"encoding/binary"

	"github.com/relsql/heapcore/buffer"
)

// pageHdrSize is sizeof(per-page header) on a data page: num_records and
// next_free_page_no, both int32.
const pageHdrSize = 8

// pageHandle is a pinned data page viewed through its header, bitmap and
// record slots, grounded on the teacher's table-page-wraps-a-pinned-frame
// shape (storage/access/table_page.go) but laid out per spec §6's
// bitmap+fixed-slot format rather than the teacher's offset directory.
type pageHandle struct {
	frame   *buffer.Frame
	fileHdr *FileHdr
}

func newPageHandle(f *buffer.Frame, hdr *FileHdr) *pageHandle {
	return &pageHandle{frame: f, fileHdr: hdr}
}

func (p *pageHandle) header() []byte {
	return p.frame.Data[0:pageHdrSize]
}

func (p *pageHandle) bitmap() []byte {
	start := pageHdrSize
	end := start + int(p.fileHdr.BitmapSize)
	return p.frame.Data[start:end]
}

func (p *pageHandle) slot(i int) []byte {
	start := pageHdrSize + int(p.fileHdr.BitmapSize) + i*int(p.fileHdr.RecordSize)
	return p.frame.Data[start : start+int(p.fileHdr.RecordSize)]
}

func (p *pageHandle) numRecords() int32 {
	return int32(binary.LittleEndian.Uint32(p.header()[0:4]))
}

func (p *pageHandle) setNumRecords(v int32) {
	binary.LittleEndian.PutUint32(p.header()[0:4], uint32(v))
}

func (p *pageHandle) nextFreePageNo() int32 {
	return int32(binary.LittleEndian.Uint32(p.header()[4:8]))
}

func (p *pageHandle) setNextFreePageNo(v int32) {
	binary.LittleEndian.PutUint32(p.header()[4:8], uint32(v))
}
