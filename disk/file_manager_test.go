package disk

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/relsql/heapcore/common"
	"github.com/relsql/heapcore/dberr"
	"github.com/relsql/heapcore/types"
)

func newTestFileManager(t *testing.T) (*FileManager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := NewFileManager(filepath.Join(dir, "db.log"))
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m, dir
}

func TestFileManagerCreateOpenClose(t *testing.T) {
	m, dir := newTestFileManager(t)
	path := filepath.Join(dir, "t1.tbl")

	if err := m.CreateFile(path); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := m.CreateFile(path); !dberr.Is(err, dberr.FileExists) {
		t.Fatalf("expected FileExists, got %v", err)
	}

	fd, err := m.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := m.OpenFile(path); !dberr.Is(err, dberr.FileNotClosed) {
		t.Fatalf("expected FileNotClosed, got %v", err)
	}
	if err := m.DestroyFile(path); !dberr.Is(err, dberr.FileNotClosed) {
		t.Fatalf("expected FileNotClosed on destroy-while-open, got %v", err)
	}

	if err := m.CloseFile(fd); err != nil {
		t.Fatalf("CloseFile: %v", err)
	}
	if err := m.CloseFile(fd); !dberr.Is(err, dberr.FileNotOpen) {
		t.Fatalf("expected FileNotOpen, got %v", err)
	}
	if err := m.DestroyFile(path); err != nil {
		t.Fatalf("DestroyFile: %v", err)
	}
	if err := m.DestroyFile(path); !dberr.Is(err, dberr.FileNotFound) {
		t.Fatalf("expected FileNotFound, got %v", err)
	}
	if _, err := m.OpenFile(path); !dberr.Is(err, dberr.FileNotFound) {
		t.Fatalf("expected FileNotFound, got %v", err)
	}
}

func TestFileManagerReadWritePage(t *testing.T) {
	m, dir := newTestFileManager(t)
	path := filepath.Join(dir, "t1.tbl")
	if err := m.CreateFile(path); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	fd, err := m.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	data := make([]byte, common.PageSize)
	copy(data, "a test string")
	if err := m.WritePage(fd, 0, data); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	buf := make([]byte, common.PageSize)
	if err := m.ReadPage(fd, 0, buf); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if !bytes.Equal(data, buf) {
		t.Fatalf("read back mismatch")
	}

	data2 := make([]byte, common.PageSize)
	copy(data2, "another test string")
	if err := m.WritePage(fd, 5, data2); err != nil {
		t.Fatalf("WritePage page 5: %v", err)
	}
	buf2 := make([]byte, common.PageSize)
	if err := m.ReadPage(fd, 5, buf2); err != nil {
		t.Fatalf("ReadPage page 5: %v", err)
	}
	if !bytes.Equal(data2, buf2) {
		t.Fatalf("read back page 5 mismatch")
	}
}

func TestFileManagerAllocatePageMonotonic(t *testing.T) {
	m, dir := newTestFileManager(t)
	path := filepath.Join(dir, "t1.tbl")
	_ = m.CreateFile(path)
	fd, _ := m.OpenFile(path)

	for i := 0; i < 5; i++ {
		got := m.AllocatePage(fd)
		if got != types.PageID(i) {
			t.Fatalf("AllocatePage #%d = %v, want %v", i, got, i)
		}
	}
}

func TestFileManagerReinit(t *testing.T) {
	m, dir := newTestFileManager(t)
	path := filepath.Join(dir, "t1.tbl")
	_ = m.CreateFile(path)
	fd, _ := m.OpenFile(path)

	m.Reinit(fd, 9)
	got := m.AllocatePage(fd)
	if got != 10 {
		t.Fatalf("AllocatePage after Reinit(9) = %v, want 10", got)
	}
}

func TestFileManagerLog(t *testing.T) {
	m, dir := newTestFileManager(t)
	_ = dir

	n, err := m.WriteLog([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("WriteLog: n=%d err=%v", n, err)
	}
	n, err = m.WriteLog([]byte("world"))
	if err != nil || n != 5 {
		t.Fatalf("WriteLog: n=%d err=%v", n, err)
	}

	buf := make([]byte, 5)
	n, err = m.ReadLog(buf, 5)
	if err != nil || n != 5 || string(buf) != "world" {
		t.Fatalf("ReadLog at 5: n=%d err=%v buf=%q", n, err, buf)
	}

	n, err = m.ReadLog(buf, 100)
	if err != nil || n != -1 {
		t.Fatalf("ReadLog past EOF: n=%d err=%v, want -1", n, err)
	}
}

func TestFileManagerDestroyFileOSLevel(t *testing.T) {
	m, dir := newTestFileManager(t)
	path := filepath.Join(dir, "t1.tbl")
	_ = m.CreateFile(path)
	if err := m.DestroyFile(path); err != nil {
		t.Fatalf("DestroyFile: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed from disk")
	}
}
