package record

import (
	"github.com/relsql/heapcore/buffer"
	"github.com/relsql/heapcore/common"
	"github.com/relsql/heapcore/dberr"
	"github.com/relsql/heapcore/types"
)

// FileHandle is a slotted heap file opened on fd: insert/get/update/delete
// records by Rid, backed by a buffer pool. Grounded on
// original_source/src/record/rm_file_handle.cpp for the free-list and
// bitmap semantics, and on the teacher's TableHeap for the
// "handle owns fd + pool, pages are fetched per-call" shape.
type FileHandle struct {
	fd   types.FileID
	pool *buffer.PoolManager
	hdr  FileHdr
}

// Create initializes a brand-new heap file: writes the file header to
// page 0 for records of recordSize bytes.
func Create(fd types.FileID, pool *buffer.PoolManager, recordSize int32) (*FileHandle, error) {
	hdr := newFileHdr(recordSize)
	f, key, ok := pool.NewPage(fd)
	if !ok {
		return nil, dberr.New(dberr.Internal, "record.Create", "")
	}
	common.Assertf(key.No == 0, "record.Create: expected page 0 for a fresh file, got %v", key.No)
	hdr.encode(f.Data[:fileHdrSize])
	pool.UnpinPage(key, true)
	return &FileHandle{fd: fd, pool: pool, hdr: hdr}, nil
}

// Open loads an existing heap file's header from page 0.
func Open(fd types.FileID, pool *buffer.PoolManager) (*FileHandle, error) {
	key := buffer.PageKey{Fd: fd, No: 0}
	f, ok := pool.FetchPage(key)
	if !ok {
		return nil, dberr.New(dberr.PageNotExist, "record.Open", "")
	}
	hdr := decodeFileHdr(f.Data[:fileHdrSize])
	pool.UnpinPage(key, false)
	return &FileHandle{fd: fd, pool: pool, hdr: hdr}, nil
}

// Flush writes the in-memory file header back to page 0.
func (h *FileHandle) Flush() error {
	key := buffer.PageKey{Fd: h.fd, No: 0}
	f, ok := h.pool.FetchPage(key)
	if !ok {
		return dberr.New(dberr.PageNotExist, "record.Flush", "")
	}
	h.hdr.encode(f.Data[:fileHdrSize])
	h.pool.UnpinPage(key, true)
	return nil
}

// NumPages reports how many pages the file has allocated, including the
// header page.
func (h *FileHandle) NumPages() int32 { return h.hdr.NumPages }

// RecordSize reports the fixed size of a record in this file.
func (h *FileHandle) RecordSize() int32 { return h.hdr.RecordSize }

func (h *FileHandle) fetchPageHandle(pageNo types.PageID) (*pageHandle, error) {
	if pageNo < 0 || int32(pageNo) >= h.hdr.NumPages {
		return nil, dberr.New(dberr.PageNotExist, "record.fetchPageHandle", "")
	}
	f, ok := h.pool.FetchPage(buffer.PageKey{Fd: h.fd, No: pageNo})
	if !ok {
		return nil, dberr.New(dberr.PageNotExist, "record.fetchPageHandle", "")
	}
	return newPageHandle(f, &h.hdr), nil
}

func (h *FileHandle) createNewPageHandle() (*pageHandle, error) {
	f, key, ok := h.pool.NewPage(h.fd)
	if !ok {
		return nil, dberr.New(dberr.Internal, "record.createNewPageHandle", "")
	}
	ph := newPageHandle(f, &h.hdr)
	ph.setNumRecords(0)
	ph.setNextFreePageNo(common.RmNoPage)
	bitmapInit(ph.bitmap())
	h.hdr.NumPages++
	h.hdr.FirstFreePageNo = int32(key.No)
	return ph, nil
}

func (h *FileHandle) createPageHandle() (*pageHandle, error) {
	if h.hdr.FirstFreePageNo == common.RmNoPage {
		return h.createNewPageHandle()
	}
	return h.fetchPageHandle(types.PageID(h.hdr.FirstFreePageNo))
}

// releasePageHandle prepends pageNo onto the free list; called exactly
// when a page transitions from full to having a free slot.
func (h *FileHandle) releasePageHandle(ph *pageHandle, pageNo types.PageID) {
	ph.setNextFreePageNo(h.hdr.FirstFreePageNo)
	h.hdr.FirstFreePageNo = int32(pageNo)
}

// GetRecord returns a copy of the record at rid. Returns dberr.RecordNotFound
// if rid's slot is unset.
func (h *FileHandle) GetRecord(rid Rid) ([]byte, error) {
	ph, err := h.fetchPageHandle(rid.PageNo)
	if err != nil {
		return nil, err
	}
	key := ph.frame.ID
	if !bitmapIsSet(ph.bitmap(), int(rid.SlotNo)) {
		h.pool.UnpinPage(key, false)
		return nil, dberr.New(dberr.RecordNotFound, "record.GetRecord", "")
	}
	buf := make([]byte, h.hdr.RecordSize)
	copy(buf, ph.slot(int(rid.SlotNo)))
	h.pool.UnpinPage(key, false)
	return buf, nil
}

// InsertRecord copies buf into the first free slot of the free list's
// head page (allocating a new page if the list is empty), and returns the
// Rid it was assigned.
func (h *FileHandle) InsertRecord(buf []byte) (Rid, error) {
	ph, err := h.createPageHandle()
	if err != nil {
		return Rid{}, err
	}
	key := ph.frame.ID

	slotNo := bitmapNextBit(false, ph.bitmap(), int(h.hdr.NumRecordsPerPage), -1)
	common.Assertf(slotNo != -1, "record.InsertRecord: free-list head page has no free slot")

	copy(ph.slot(slotNo), buf)
	bitmapSet(ph.bitmap(), slotNo)
	ph.setNumRecords(ph.numRecords() + 1)
	if ph.numRecords() == h.hdr.NumRecordsPerPage {
		h.hdr.FirstFreePageNo = ph.nextFreePageNo()
	}

	rid := Rid{PageNo: key.No, SlotNo: int32(slotNo)}
	h.pool.UnpinPage(key, true)
	return rid, nil
}

// InsertRecordAt places buf at a specific, caller-chosen rid — used by
// bulk loaders that already know the target slot. If the slot was
// already occupied, its contents are simply overwritten.
func (h *FileHandle) InsertRecordAt(rid Rid, buf []byte) error {
	ph, err := h.fetchPageHandle(rid.PageNo)
	if err != nil {
		return err
	}
	key := ph.frame.ID

	if !bitmapIsSet(ph.bitmap(), int(rid.SlotNo)) {
		bitmapSet(ph.bitmap(), int(rid.SlotNo))
		ph.setNumRecords(ph.numRecords() + 1)
		if ph.numRecords() == h.hdr.NumRecordsPerPage {
			h.hdr.FirstFreePageNo = ph.nextFreePageNo()
		}
	}
	copy(ph.slot(int(rid.SlotNo)), buf)
	h.pool.UnpinPage(key, true)
	return nil
}

// UpdateRecord overwrites the record at rid in place.
func (h *FileHandle) UpdateRecord(rid Rid, buf []byte) error {
	ph, err := h.fetchPageHandle(rid.PageNo)
	if err != nil {
		return err
	}
	key := ph.frame.ID
	if !bitmapIsSet(ph.bitmap(), int(rid.SlotNo)) {
		h.pool.UnpinPage(key, false)
		return dberr.New(dberr.RecordNotFound, "record.UpdateRecord", "")
	}
	copy(ph.slot(int(rid.SlotNo)), buf)
	h.pool.UnpinPage(key, true)
	return nil
}

// DeleteRecord clears rid's slot. If the page had been full, it's pushed
// back onto the free list.
func (h *FileHandle) DeleteRecord(rid Rid) error {
	ph, err := h.fetchPageHandle(rid.PageNo)
	if err != nil {
		return err
	}
	key := ph.frame.ID
	if !bitmapIsSet(ph.bitmap(), int(rid.SlotNo)) {
		h.pool.UnpinPage(key, false)
		return dberr.New(dberr.RecordNotFound, "record.DeleteRecord", "")
	}
	bitmapReset(ph.bitmap(), int(rid.SlotNo))
	wasFull := ph.numRecords() == h.hdr.NumRecordsPerPage
	ph.setNumRecords(ph.numRecords() - 1)
	if wasFull {
		h.releasePageHandle(ph, rid.PageNo)
	}
	h.pool.UnpinPage(key, true)
	return nil
}
