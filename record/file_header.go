package record

import (
	"encoding/binary"

	"github.com/relsql/heapcore/common"
)

// fileHdrSize is sizeof(FileHdr) as encoded on page 0: five little-endian
// int32 fields, per spec §6.
const fileHdrSize = 20

// FileHdr is the heap file's page-0 header: how big a record is, how many
// fit per page, the bitmap's byte length, how many pages exist, and the
// head of the not-full-pages free list.
type FileHdr struct {
	RecordSize        int32
	NumRecordsPerPage int32
	BitmapSize        int32
	NumPages          int32
	FirstFreePageNo   int32
}

// newFileHdr picks NumRecordsPerPage and BitmapSize so that one data page
// (pageHdr + bitmap + that many fixed-size slots) fits in PageSize, for a
// record of recordSize bytes.
func newFileHdr(recordSize int32) FileHdr {
	budget := common.PageSize - pageHdrSize

	n := int32((budget * 8) / (8*int(recordSize) + 1))
	for n > 0 {
		bitmapSize := (n + 7) / 8
		if int(n)*int(recordSize)+int(bitmapSize) <= budget {
			break
		}
		n--
	}
	common.Assertf(n > 0, "record.newFileHdr: record size %d too large for a %d-byte page", recordSize, common.PageSize)

	return FileHdr{
		RecordSize:        recordSize,
		NumRecordsPerPage: n,
		BitmapSize:        (n + 7) / 8,
		NumPages:          1, // page 0, the header itself
		FirstFreePageNo:   common.RmNoPage,
	}
}

func (h FileHdr) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.RecordSize))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.NumRecordsPerPage))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.BitmapSize))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(h.NumPages))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(h.FirstFreePageNo))
}

func decodeFileHdr(buf []byte) FileHdr {
	return FileHdr{
		RecordSize:        int32(binary.LittleEndian.Uint32(buf[0:4])),
		NumRecordsPerPage: int32(binary.LittleEndian.Uint32(buf[4:8])),
		BitmapSize:        int32(binary.LittleEndian.Uint32(buf[8:12])),
		NumPages:          int32(binary.LittleEndian.Uint32(buf[12:16])),
		FirstFreePageNo:   int32(binary.LittleEndian.Uint32(buf[16:20])),
	}
}
