// Package device adapts an arbitrary-offset/size read and write API onto a
// driver that only speaks whole-block I/O at block-aligned offsets — the
// block device adapter of spec §4.1. The driver itself is either a real
// block-special file (queried for its capacity and sector size via ioctl,
// the way a genuine storage driver would be) or a regular file used as a
// loopback image, which is the common case in development and tests.
package device

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// defaultIOUnit is used for regular-file-backed images, where there is no
// hardware sector size to query.
const defaultIOUnit = 512

// Device is a block-addressed pseudo-device: seekable, but only willing to
// transfer whole blocks. Open queries (or guesses, for a loopback file) its
// capacity and I/O unit the way the original driver's two ioctls would.
type Device struct {
	f      *os.File
	size   uint64
	ioUnit uint32
}

// Open opens path for read/write, determining its size and I/O unit.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("device: open %q: %w", path, err)
	}

	d := &Device{f: f}
	if err := d.probe(); err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

func (d *Device) probe() error {
	fi, err := d.f.Stat()
	if err != nil {
		return fmt.Errorf("device: stat: %w", err)
	}

	if runtime.GOOS == "linux" && fi.Mode()&os.ModeDevice != 0 {
		if sz, ioSz, ok := probeBlockDevice(d.f); ok {
			d.size = sz
			d.ioUnit = ioSz
			return nil
		}
	}

	// Regular file (or a platform/device we can't ioctl): treat its
	// current length as the device capacity, with a conservative
	// default I/O unit.
	d.size = uint64(fi.Size())
	d.ioUnit = defaultIOUnit
	return nil
}

func probeBlockDevice(f *os.File) (size uint64, ioUnit uint32, ok bool) {
	fd := int(f.Fd())

	sz, err := unix.IoctlGetInt(fd, unix.BLKGETSIZE64)
	if err != nil {
		return 0, 0, false
	}
	ss, err := unix.IoctlGetInt(fd, unix.BLKSSZGET)
	if err != nil || ss <= 0 {
		return 0, 0, false
	}
	return uint64(sz), uint32(ss), true
}

// Size returns the device's total capacity in bytes.
func (d *Device) Size() uint64 { return d.size }

// IOUnit returns the device's block size: the only transfer size the
// underlying driver accepts.
func (d *Device) IOUnit() uint32 { return d.ioUnit }

// Close closes the underlying handle.
func (d *Device) Close() error {
	return d.f.Close()
}

func roundDown(v, unit int64) int64 {
	return (v / unit) * unit
}

func roundUp(v, unit int64) int64 {
	return ((v + unit - 1) / unit) * unit
}

// ReadAt reads n bytes at an arbitrary offset, even though the driver only
// supports whole-block transfers: it rounds the window out to block
// boundaries, reads the aligned blocks sequentially, and slices out the
// requested bytes.
func (d *Device) ReadAt(offset int64, n int) ([]byte, error) {
	block := int64(d.ioUnit)
	alignedOffset := roundDown(offset, block)
	bias := offset - alignedOffset
	alignedLen := roundUp(bias+int64(n), block)

	buf := make([]byte, alignedLen)
	if _, err := d.f.Seek(alignedOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("device: seek: %w", err)
	}
	cur := buf
	for int64(len(cur)) > 0 {
		chunk := cur[:block]
		if _, err := io.ReadFull(d.f, chunk); err != nil {
			return nil, fmt.Errorf("device: read: %w", err)
		}
		cur = cur[block:]
	}

	return buf[bias : bias+int64(n)], nil
}

// WriteAt writes src at an arbitrary offset via read-modify-write: the
// aligned window is read, src is overlaid at its bias, and the whole window
// is written back in block-sized chunks.
func (d *Device) WriteAt(offset int64, src []byte) error {
	block := int64(d.ioUnit)
	alignedOffset := roundDown(offset, block)
	bias := offset - alignedOffset
	alignedLen := roundUp(bias+int64(len(src)), block)

	buf, err := d.ReadAt(alignedOffset, int(alignedLen))
	if err != nil {
		return err
	}
	copy(buf[bias:], src)

	if _, err := d.f.Seek(alignedOffset, io.SeekStart); err != nil {
		return fmt.Errorf("device: seek: %w", err)
	}
	cur := buf
	for int64(len(cur)) > 0 {
		chunk := cur[:block]
		if _, err := d.f.Write(chunk); err != nil {
			return fmt.Errorf("device: write: %w", err)
		}
		cur = cur[block:]
	}
	return nil
}

// ErrTooSmall describes a device smaller than the fixed layout requires.
// This package never returns it, and gonfs.Mount reports that case with
// gonfs.ErrNoSpace instead.
var ErrTooSmall = errors.New("device: too small for filesystem layout")
