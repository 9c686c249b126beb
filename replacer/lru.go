package replacer

import (
	deadlock "github.com/sasha-s/go-deadlock"
)

// node is one entry of the LRU doubly-linked list, grounded on the
// teacher's circularList node (storage/buffer/circular_list.go) but linear
// rather than circular: head is least-recently-unpinned, tail is
// most-recently-unpinned.
type node struct {
	id   FrameID
	next *node
	prev *node
}

// LRUReplacer tracks unpinned frames in strict least-recently-unpinned
// order. Unpin appends an untracked frame at the tail (a frame already
// tracked keeps its place); Victim always removes from the head. It holds at most capacity frames at once,
// mirroring original_source/src/replacer/lru_replacer.cpp's max_size_.
type LRUReplacer struct {
	mu       deadlock.Mutex
	head     *node
	tail     *node
	index    map[FrameID]*node
	size     uint32
	capacity uint32
}

// NewLRUReplacer returns an empty LRUReplacer that tracks at most capacity
// frames.
func NewLRUReplacer(capacity uint32) *LRUReplacer {
	return &LRUReplacer{index: make(map[FrameID]*node), capacity: capacity}
}

func (r *LRUReplacer) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		r.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		r.tail = n.prev
	}
	n.next, n.prev = nil, nil
}

func (r *LRUReplacer) pushTail(n *node) {
	n.prev = r.tail
	n.next = nil
	if r.tail != nil {
		r.tail.next = n
	} else {
		r.head = n
	}
	r.tail = n
}

func (r *LRUReplacer) Victim() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.head == nil {
		return 0, false
	}
	victim := r.head
	r.unlink(victim)
	delete(r.index, victim.id)
	r.size--
	return victim.id, true
}

func (r *LRUReplacer) Pin(id FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.index[id]
	if !ok {
		return
	}
	r.unlink(n)
	delete(r.index, id)
	r.size--
}

func (r *LRUReplacer) Unpin(id FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[id]; ok {
		return
	}
	if r.size >= r.capacity {
		return
	}
	n := &node{id: id}
	r.pushTail(n)
	r.index[id] = n
	r.size++
}

func (r *LRUReplacer) Size() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
