package gonfs_test

import (
	"testing"

	"github.com/kmrnb/gonfs"
)

// mockDevice implements gonfs.BlockDevice over an in-memory byte slice: a
// way to inject errors and bad data without a real file or device.
type mockDevice struct {
	data   []byte
	ioUnit uint32
	errAt  int64
	errMsg error
	closed bool
}

func newMockDevice(size int, ioUnit uint32) *mockDevice {
	return &mockDevice{data: make([]byte, size), ioUnit: ioUnit}
}

func (m *mockDevice) ReadAt(offset int64, n int) ([]byte, error) {
	if m.errMsg != nil && offset >= m.errAt {
		return nil, m.errMsg
	}
	out := make([]byte, n)
	if offset >= int64(len(m.data)) {
		return out, nil
	}
	copy(out, m.data[offset:])
	return out, nil
}

func (m *mockDevice) WriteAt(offset int64, src []byte) error {
	if m.errMsg != nil && offset >= m.errAt {
		return m.errMsg
	}
	end := offset + int64(len(src))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[offset:], src)
	return nil
}

func (m *mockDevice) Size() uint64    { return uint64(len(m.data)) }
func (m *mockDevice) IOUnit() uint32  { return m.ioUnit }
func (m *mockDevice) Close() error    { m.closed = true; return nil }

// requiredSize mirrors the layout gonfs.Mount expects: enough blocks for
// the superblock, both bitmaps, the inode table and the data region.
func requiredSize(ioUnit uint32) int {
	const blocks = 1 + 1 + 1 + 514 + 512
	return int(ioUnit) * blocks
}

func TestMountTooSmall(t *testing.T) {
	dev := newMockDevice(1024, 512)
	if _, err := gonfs.Mount(dev); err == nil {
		t.Fatal("expected error mounting an undersized device, got none")
	}
}

func TestMountFormatsFreshDevice(t *testing.T) {
	dev := newMockDevice(requiredSize(512), 512)
	fsys, err := gonfs.Mount(dev)
	if err != nil {
		t.Fatalf("mount fresh device: %v", err)
	}
	attr, err := fsys.Getattr("/")
	if err != nil {
		t.Fatalf("getattr root: %v", err)
	}
	if !attr.Kind.IsDir() {
		t.Fatalf("root is not a directory: %v", attr.Kind)
	}
}

func TestMountSuperblockReadError(t *testing.T) {
	dev := newMockDevice(requiredSize(512), 512)
	dev.errAt = 0
	dev.errMsg = errBoom

	if _, err := gonfs.Mount(dev); err == nil {
		t.Fatal("expected error when the superblock read fails, got none")
	}
}

var errBoom = mockErr("boom")

type mockErr string

func (e mockErr) Error() string { return string(e) }
