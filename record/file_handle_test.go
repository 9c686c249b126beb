package record

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/relsql/heapcore/buffer"
	"github.com/relsql/heapcore/dberr"
	"github.com/relsql/heapcore/disk"
	"github.com/relsql/heapcore/types"
)

// newTestFile creates a heap file whose NumRecordsPerPage is exactly 3,
// matching the seed scenarios in spec §8.
func newTestFile(t *testing.T, recordSize int32) (*FileHandle, *buffer.PoolManager, types.FileID) {
	t.Helper()
	dir := t.TempDir()
	dm, err := disk.NewFileManager(filepath.Join(dir, "db.log"))
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}
	t.Cleanup(func() { _ = dm.Close() })

	path := filepath.Join(dir, "t1.tbl")
	if err := dm.CreateFile(path); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	fd, err := dm.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	pool := buffer.NewPoolManager(16, dm)
	h, err := Create(fd, pool, recordSize)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h.hdr.NumRecordsPerPage != 3 {
		t.Fatalf("NumRecordsPerPage = %d, want 3 (record size %d not tuned for this test)", h.hdr.NumRecordsPerPage, recordSize)
	}
	return h, pool, fd
}

func rec(b byte, size int32) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = b
	}
	return buf
}

func TestHeapInsertAndFreeList(t *testing.T) {
	const recordSize = 1213 // tuned so 3 records + bitmap + header fit a 4KiB page
	h, _, _ := newTestFile(t, recordSize)

	var rids []Rid
	for i := 0; i < 4; i++ {
		rid, err := h.InsertRecord(rec(byte('A'+i), recordSize))
		if err != nil {
			t.Fatalf("InsertRecord #%d: %v", i, err)
		}
		rids = append(rids, rid)
	}

	if rids[0].PageNo != 1 || rids[1].PageNo != 1 || rids[2].PageNo != 1 {
		t.Fatalf("expected first 3 records on page 1, got %v", rids[:3])
	}
	if rids[3].PageNo != 2 {
		t.Fatalf("expected 4th record to spill to page 2, got %v", rids[3])
	}
	if h.hdr.FirstFreePageNo != 2 {
		t.Fatalf("FirstFreePageNo = %d, want 2", h.hdr.FirstFreePageNo)
	}

	if err := h.DeleteRecord(rids[1]); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if h.hdr.FirstFreePageNo != 1 {
		t.Fatalf("FirstFreePageNo after delete = %d, want 1", h.hdr.FirstFreePageNo)
	}

	ph, err := h.fetchPageHandle(1)
	if err != nil {
		t.Fatalf("fetchPageHandle(1): %v", err)
	}
	if ph.nextFreePageNo() != 2 {
		t.Fatalf("page 1's next_free_page_no = %d, want 2", ph.nextFreePageNo())
	}
	h.pool.UnpinPage(ph.frame.ID, false)
}

func TestScanSkipsHoles(t *testing.T) {
	const recordSize = 1213
	h, _, _ := newTestFile(t, recordSize)

	var rids []Rid
	for i := 0; i < 5; i++ {
		rid, err := h.InsertRecord(rec(byte('A'+i), recordSize))
		if err != nil {
			t.Fatalf("InsertRecord #%d: %v", i, err)
		}
		rids = append(rids, rid)
	}

	if err := h.DeleteRecord(rids[1]); err != nil { // (1,1)
		t.Fatalf("DeleteRecord(1,1): %v", err)
	}
	if err := h.DeleteRecord(rids[3]); err != nil { // (2,0)
		t.Fatalf("DeleteRecord(2,0): %v", err)
	}

	var got []Rid
	s := NewScan(h)
	for !s.IsEnd() {
		got = append(got, s.Rid())
		s.Next()
	}

	want := []Rid{rids[0], rids[2], rids[4]}
	if len(got) != len(want) {
		t.Fatalf("scan produced %d rids, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scan[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGetUpdateDeleteRoundTrip(t *testing.T) {
	const recordSize = 1213
	h, _, _ := newTestFile(t, recordSize)

	rid, err := h.InsertRecord(rec('X', recordSize))
	if err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}

	got, err := h.GetRecord(rid)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if !bytes.Equal(got, rec('X', recordSize)) {
		t.Fatalf("GetRecord mismatch")
	}

	if err := h.UpdateRecord(rid, rec('Y', recordSize)); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	got, _ = h.GetRecord(rid)
	if !bytes.Equal(got, rec('Y', recordSize)) {
		t.Fatalf("GetRecord after update mismatch")
	}

	if err := h.DeleteRecord(rid); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if _, err := h.GetRecord(rid); !dberr.Is(err, dberr.RecordNotFound) {
		t.Fatalf("GetRecord after delete: want RecordNotFound, got %v", err)
	}
	if err := h.DeleteRecord(rid); !dberr.Is(err, dberr.RecordNotFound) {
		t.Fatalf("double DeleteRecord: want RecordNotFound, got %v", err)
	}
}

func TestFetchPageHandleBounds(t *testing.T) {
	const recordSize = 1213
	h, _, _ := newTestFile(t, recordSize)

	if _, err := h.fetchPageHandle(99); !dberr.Is(err, dberr.PageNotExist) {
		t.Fatalf("fetchPageHandle(99): want PageNotExist, got %v", err)
	}
}

func TestFlushAndReopen(t *testing.T) {
	const recordSize = 1213
	h, pool, fd := newTestFile(t, recordSize)

	rid, err := h.InsertRecord(rec('Z', recordSize))
	if err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if err := h.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	h2, err := Open(fd, pool)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if h2.NumPages() != h.NumPages() {
		t.Fatalf("reopened NumPages = %d, want %d", h2.NumPages(), h.NumPages())
	}
	got, err := h2.GetRecord(rid)
	if err != nil {
		t.Fatalf("GetRecord after reopen: %v", err)
	}
	if !bytes.Equal(got, rec('Z', recordSize)) {
		t.Fatalf("GetRecord after reopen mismatch")
	}
}
