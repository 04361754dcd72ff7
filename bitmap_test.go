package gonfs

import "testing"

func TestBitmapAllocIsMonotonic(t *testing.T) {
	b := newBitmap(1, 512, 10)
	prev := -1
	for i := 0; i < 10; i++ {
		id, ok := b.alloc()
		if !ok {
			t.Fatalf("alloc %d: expected success", i)
		}
		if id <= prev {
			t.Fatalf("alloc returned %d after %d, expected strictly increasing", id, prev)
		}
		prev = id
	}
}

func TestBitmapAllocRejectsAtCapacity(t *testing.T) {
	b := newBitmap(1, 512, 2)
	if _, ok := b.alloc(); !ok {
		t.Fatal("expected first alloc to succeed")
	}
	if _, ok := b.alloc(); !ok {
		t.Fatal("expected second alloc to succeed")
	}
	if _, ok := b.alloc(); ok {
		t.Fatal("expected third alloc to fail: capacity is 2")
	}
}

func TestBitmapFreeAllowsReuse(t *testing.T) {
	b := newBitmap(1, 512, 4)
	first, _ := b.alloc()
	second, _ := b.alloc()
	b.free(first)

	id, ok := b.alloc()
	if !ok {
		t.Fatal("expected alloc after free to succeed")
	}
	if id != first {
		t.Fatalf("expected freed slot %d to be reused first, got %d", first, id)
	}
	if !b.isSet(second) {
		t.Fatal("second allocation should still be marked used")
	}
}
