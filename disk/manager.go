// Package disk is the leaf-most storage-core component: filesystem-level
// file lifecycle and raw fixed-size page I/O, with no caching of its own.
package disk

import "github.com/relsql/heapcore/types"

// Manager names, creates, opens, closes and destroys files; reads and
// writes fixed-size pages by (fd, page_no); allocates monotonically
// increasing page numbers per file; and appends to a single shared log
// file. See spec §4.1.
type Manager interface {
	// CreateFile creates an empty regular file at path. Fails with
	// dberr.FileExists if one is already there.
	CreateFile(path string) error

	// DestroyFile removes path. Fails with dberr.FileNotFound if absent,
	// dberr.FileNotClosed if a handle to it is still open.
	DestroyFile(path string) error

	// OpenFile opens path R/W and returns a handle. At most one handle per
	// path may be open at a time (dberr.FileNotClosed if already open);
	// dberr.FileNotFound if path doesn't exist.
	OpenFile(path string) (types.FileID, error)

	// CloseFile closes fd and clears it from the name<->fd maps. Fails
	// with dberr.FileNotOpen if fd isn't open.
	CloseFile(fd types.FileID) error

	// ReadPage reads exactly len(buf) bytes at offset page_no*PageSize.
	ReadPage(fd types.FileID, pageNo types.PageID, buf []byte) error

	// WritePage writes exactly len(buf) bytes at offset page_no*PageSize.
	WritePage(fd types.FileID, pageNo types.PageID, buf []byte) error

	// AllocatePage atomically post-increments fd's page counter and
	// returns the page number just reserved. It is the only allocator;
	// page numbers are never reused (DeallocatePage is a no-op).
	AllocatePage(fd types.FileID) types.PageID

	// DeallocatePage is a documented no-op: disk-level pages are never
	// reclaimed by the core (spec §9).
	DeallocatePage(fd types.FileID, pageNo types.PageID)

	// Reinit restores fd's next-allocation counter to lastPageNo+1. The
	// disk manager's own counter is not persisted across process restarts
	// (spec §9's Open Question); this hook lets the catalog restore it
	// from a heap file's own num_pages header on open, instead of the
	// disk manager silently guessing.
	Reinit(fd types.FileID, lastPageNo types.PageID)

	// WriteLog appends buf to the shared log file and returns the number
	// of bytes written.
	WriteLog(buf []byte) (int, error)

	// ReadLog reads into buf starting at offset, returning the number of
	// bytes actually read, 0 at EOF, -1 if offset exceeds the log's size.
	ReadLog(buf []byte, offset int64) (int, error)

	// CreateDir/DestroyDir are filesystem convenience used by the catalog
	// when creating or dropping a database directory; not part of the hot
	// path.
	CreateDir(path string) error
	DestroyDir(path string) error

	// Close releases all open handles (used at process shutdown / in
	// tests).
	Close() error
}
