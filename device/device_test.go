package device

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenRegularFileFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	if err := os.WriteFile(path, make([]byte, 4096), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	d, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	if d.Size() != 4096 {
		t.Fatalf("size = %d, want 4096", d.Size())
	}
	if d.IOUnit() != defaultIOUnit {
		t.Fatalf("ioUnit = %d, want %d", d.IOUnit(), defaultIOUnit)
	}
}

func TestReadWriteAtUnalignedOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	if err := os.WriteFile(path, make([]byte, 4096), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	d, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	payload := []byte("unaligned write crossing a block boundary")
	const offset = 500 // not a multiple of defaultIOUnit
	if err := d.WriteAt(offset, payload); err != nil {
		t.Fatalf("writeAt: %v", err)
	}

	got, err := d.ReadAt(offset, len(payload))
	if err != nil {
		t.Fatalf("readAt: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestWriteAtPreservesSurroundingBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	seed := make([]byte, 4096)
	for i := range seed {
		seed[i] = 0xAA
	}
	if err := os.WriteFile(path, seed, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	d, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	if err := d.WriteAt(600, []byte("X")); err != nil {
		t.Fatalf("writeAt: %v", err)
	}

	before, err := d.ReadAt(599, 1)
	if err != nil {
		t.Fatalf("readAt before: %v", err)
	}
	if before[0] != 0xAA {
		t.Fatalf("byte before write site was clobbered: got %x", before[0])
	}

	after, err := d.ReadAt(601, 1)
	if err != nil {
		t.Fatalf("readAt after: %v", err)
	}
	if after[0] != 0xAA {
		t.Fatalf("byte after write site was clobbered: got %x", after[0])
	}
}
