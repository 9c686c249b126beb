package replacer

import "testing"

func TestLRUReplacerBasic(t *testing.T) {
	r := NewLRUReplacer(6)

	r.Unpin(1)
	r.Unpin(2)
	r.Unpin(3)
	r.Unpin(4)
	r.Unpin(5)
	r.Unpin(6)
	r.Unpin(1) // already tracked, no-op

	if got := r.Size(); got != 6 {
		t.Fatalf("Size() = %d, want 6", got)
	}

	for _, want := range []FrameID{1, 2, 3} {
		got, ok := r.Victim()
		if !ok || got != want {
			t.Fatalf("Victim() = (%v, %v), want (%v, true)", got, ok, want)
		}
	}

	// 3 was already victimized, pinning it again is a no-op.
	r.Pin(3)
	r.Pin(4)
	if got := r.Size(); got != 2 {
		t.Fatalf("Size() after pinning = %d, want 2", got)
	}

	r.Unpin(4)

	for _, want := range []FrameID{5, 6, 4} {
		got, ok := r.Victim()
		if !ok || got != want {
			t.Fatalf("Victim() = (%v, %v), want (%v, true)", got, ok, want)
		}
	}

	if _, ok := r.Victim(); ok {
		t.Fatalf("Victim() on empty replacer should return ok=false")
	}
}

func TestLRUReplacerPinUnpinRoundTrip(t *testing.T) {
	r := NewLRUReplacer(2)
	r.Unpin(10)
	r.Unpin(20)
	r.Pin(10)
	if got := r.Size(); got != 1 {
		t.Fatalf("Size() = %d, want 1", got)
	}
	got, ok := r.Victim()
	if !ok || got != 20 {
		t.Fatalf("Victim() = (%v, %v), want (20, true)", got, ok)
	}
}

func TestLRUReplacerCapacity(t *testing.T) {
	r := NewLRUReplacer(2)
	r.Unpin(1)
	r.Unpin(2)
	r.Unpin(3) // over capacity, no-op

	if got := r.Size(); got != 2 {
		t.Fatalf("Size() = %d, want 2", got)
	}
	got, ok := r.Victim()
	if !ok || got != 1 {
		t.Fatalf("Victim() = (%v, %v), want (1, true)", got, ok)
	}
}
