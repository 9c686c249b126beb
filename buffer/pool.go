package buffer

import (
	"fmt"

	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/relsql/heapcore/common"
	"github.com/relsql/heapcore/disk"
	"github.com/relsql/heapcore/replacer"
	"github.com/relsql/heapcore/types"
)

// PoolManager is the buffer pool: a fixed array of frames, a page_table
// mapping resident pages to frames, a free list of never-used frames, and
// a replacer tracking unpinned resident frames. Grounded on the teacher's
// BufferPoolManager (storage/buffer/buffer_pool_manager.go), generalized
// from a single-file PageID to the (fd, page_no) PageKey of spec §3, and
// given the pool lock the teacher's own TODO says it's missing.
type PoolManager struct {
	mu deadlock.Mutex

	disk      disk.Manager
	replacer  replacer.Replacer
	pages     []*Frame
	pageTable map[PageKey]replacer.FrameID
	freeList  []replacer.FrameID
}

// NewPoolManager allocates poolSize empty frames, all initially on the
// free list, backed by dm and victimized via an LRUReplacer.
func NewPoolManager(poolSize uint32, dm disk.Manager) *PoolManager {
	pages := make([]*Frame, poolSize)
	freeList := make([]replacer.FrameID, poolSize)
	for i := uint32(0); i < poolSize; i++ {
		pages[i] = newEmptyFrame()
		freeList[i] = replacer.FrameID(i)
	}
	return &PoolManager{
		disk:      dm,
		replacer:  replacer.NewLRUReplacer(poolSize),
		pages:     pages,
		pageTable: make(map[PageKey]replacer.FrameID),
		freeList:  freeList,
	}
}

// victimFrame returns a frame id to (re)use and whether it came from the
// free list (in which case it holds no page needing write-back).
func (p *PoolManager) victimFrame() (replacer.FrameID, bool, bool) {
	if len(p.freeList) > 0 {
		id := p.freeList[0]
		p.freeList = p.freeList[1:]
		return id, true, true
	}
	id, ok := p.replacer.Victim()
	return id, false, ok
}

// evict writes back frameID's current occupant if dirty and clears its
// page_table entry, preparing the frame to be reused.
func (p *PoolManager) evict(frameID replacer.FrameID) {
	f := p.pages[frameID]
	if !f.ID.IsValid() {
		return
	}
	if f.Dirty {
		_ = p.disk.WritePage(f.ID.Fd, f.ID.No, f.Data[:])
	}
	delete(p.pageTable, f.ID)
	f.reset()
}

// FetchPage returns the frame holding key, reading it from disk on a
// miss. Returns ok=false if the pool is full and nothing can be
// victimized, or if the page cannot be read; in both cases the pool is
// left unchanged.
func (p *PoolManager) FetchPage(key PageKey) (*Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if frameID, ok := p.pageTable[key]; ok {
		f := p.pages[frameID]
		f.PinCount++
		p.replacer.Pin(frameID)
		return f, true
	}

	// Read before picking a victim so a failed read evicts nothing.
	var buf [common.PageSize]byte
	if err := p.disk.ReadPage(key.Fd, key.No, buf[:]); err != nil {
		return nil, false
	}

	frameID, fromFreeList, ok := p.victimFrame()
	if !ok {
		return nil, false
	}
	if !fromFreeList {
		p.evict(frameID)
	}

	f := p.pages[frameID]
	f.Data = buf
	f.ID = key
	f.PinCount = 1
	f.Dirty = false
	p.pageTable[key] = frameID
	p.replacer.Pin(frameID)
	return f, true
}

// NewPage allocates a fresh page number on fd's file and returns its
// (zeroed) frame, pinned once. The page is not written to disk until a
// subsequent flush or dirty eviction.
func (p *PoolManager) NewPage(fd types.FileID) (*Frame, PageKey, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, fromFreeList, ok := p.victimFrame()
	if !ok {
		return nil, PageKey{}, false
	}
	if !fromFreeList {
		p.evict(frameID)
	}

	pageNo := p.disk.AllocatePage(fd)
	key := PageKey{Fd: fd, No: pageNo}

	f := p.pages[frameID]
	f.reset()
	f.ID = key
	f.PinCount = 1
	p.pageTable[key] = frameID
	p.replacer.Pin(frameID)
	return f, key, true
}

// UnpinPage decrements key's pin count, OR-accumulating the dirty flag. A
// clean unpin never clears a flag already set by an earlier dirty unpin.
func (p *PoolManager) UnpinPage(key PageKey, isDirty bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[key]
	if !ok {
		return false
	}
	f := p.pages[frameID]
	if f.PinCount == 0 {
		return false
	}
	f.PinCount--
	f.Dirty = f.Dirty || isDirty
	if f.PinCount == 0 {
		p.replacer.Unpin(frameID)
	}
	return true
}

// FlushPage writes key's frame to disk unconditionally and clears dirty.
// Returns false if key isn't resident.
func (p *PoolManager) FlushPage(key PageKey) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[key]
	if !ok {
		return false
	}
	f := p.pages[frameID]
	if err := p.disk.WritePage(key.Fd, key.No, f.Data[:]); err != nil {
		return false
	}
	f.Dirty = false
	return true
}

// FlushAllPages flushes every resident page belonging to fd.
func (p *PoolManager) FlushAllPages(fd types.FileID) {
	p.mu.Lock()
	keys := make([]PageKey, 0, len(p.pageTable))
	for k := range p.pageTable {
		if k.Fd == fd {
			keys = append(keys, k)
		}
	}
	p.mu.Unlock()

	for _, k := range keys {
		p.FlushPage(k)
	}
}

// DeletePage evicts key from the pool, writing it back first if dirty,
// and returns its frame to the free list. Vacuously true if key isn't
// resident; false if it's still pinned.
func (p *PoolManager) DeletePage(key PageKey) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[key]
	if !ok {
		return true
	}
	f := p.pages[frameID]
	if f.PinCount > 0 {
		return false
	}
	if f.Dirty {
		_ = p.disk.WritePage(key.Fd, key.No, f.Data[:])
	}
	delete(p.pageTable, key)
	p.replacer.Pin(frameID)
	f.reset()
	p.freeList = append(p.freeList, frameID)
	return true
}

// DumpState prints frame/page_table/free_list occupancy, grounded on the
// teacher's circularList.Print debug helper.
func (p *PoolManager) DumpState() {
	p.mu.Lock()
	defer p.mu.Unlock()
	common.Dump("buffer pool", fmt.Sprintf(
		"frames=%d resident=%d free=%d replacer=%d",
		len(p.pages), len(p.pageTable), len(p.freeList), p.replacer.Size(),
	))
}
