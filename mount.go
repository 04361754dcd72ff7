package gonfs

import (
	"fmt"
)

// FS is a mounted filesystem: a device, its on-disk layout offsets, the two
// allocator bitmaps, and the root of the in-memory object graph (spec §4.7).
// Every operation in ops.go hangs off an *FS.
type FS struct {
	dev    BlockDevice
	blockSize uint32

	superblockOffset  uint64
	inodeBitmapOffset uint64
	dataBitmapOffset  uint64
	inodeTableOffset  uint64
	dataRegionOffset  uint64

	inodeMap *bitmap
	dataMap  *bitmap

	root    *Dentry
	szUsage uint64
	mounted bool
}

func layoutOffsets(blockSize uint32) (sb, inoBm, dataBm, inoTable, dataRegion uint64) {
	bs := uint64(blockSize)
	sb = 0
	inoBm = sb + bs*superblockBlocks
	dataBm = inoBm + bs*inodeBitmapBlocks
	inoTable = dataBm + bs*dataBitmapBlocks
	dataRegion = inoTable + bs*inodeTableCapacity
	return
}

// requiredBlocks is the total block count the fixed layout needs, used to
// reject a device too small to hold it.
func requiredBlocks() int {
	return superblockBlocks + inodeBitmapBlocks + dataBitmapBlocks + inodeTableCapacity + dataRegionCapacity
}

// Mount opens the filesystem on dev, formatting it on first use the way the
// original driver does: if the leading bytes don't carry the magic number,
// the device is blank and gets a fresh superblock, empty bitmaps, and a
// root directory written to it before Mount returns (spec §4.7).
func Mount(dev BlockDevice) (*FS, error) {
	blockSize := dev.IOUnit()
	need := uint64(requiredBlocks()) * uint64(blockSize)
	if dev.Size() < need {
		return nil, opErr("mount", "", fmt.Errorf("%w: need %d bytes, have %d", ErrNoSpace, need, dev.Size()))
	}

	sbOff, inoBmOff, dataBmOff, inoTableOff, dataRegionOff := layoutOffsets(blockSize)

	fs := &FS{
		dev:               dev,
		blockSize:         blockSize,
		superblockOffset:  sbOff,
		inodeBitmapOffset: inoBmOff,
		dataBitmapOffset:  dataBmOff,
		inodeTableOffset:  inoTableOff,
		dataRegionOffset:  dataRegionOff,
	}

	raw, err := dev.ReadAt(int64(sbOff), int(blockSize))
	if err != nil {
		return nil, opErr("mount", "", fmt.Errorf("%w: %v", ErrIO, err))
	}
	var sb superblockRecord
	if err := sb.UnmarshalBinary(raw); err == nil && sb.Magic == magic {
		return fs.loadExisting(&sb)
	}
	return fs.formatFresh()
}

func (fs *FS) loadExisting(sb *superblockRecord) (*FS, error) {
	fs.szUsage = sb.SzUsage

	inoRaw, err := fs.dev.ReadAt(int64(fs.inodeBitmapOffset), int(fs.blockSize)*inodeBitmapBlocks)
	if err != nil {
		return nil, opErr("mount", "", fmt.Errorf("%w: %v", ErrIO, err))
	}
	dataRaw, err := fs.dev.ReadAt(int64(fs.dataBitmapOffset), int(fs.blockSize)*dataBitmapBlocks)
	if err != nil {
		return nil, opErr("mount", "", fmt.Errorf("%w: %v", ErrIO, err))
	}
	fs.inodeMap = &bitmap{bits: inoRaw, cap: maxIno}
	fs.dataMap = &bitmap{bits: dataRaw, cap: dataRegionCapacity}

	root := &Dentry{Name: "/", Kind: KindDir, Ino: rootIno}
	inode, err := fs.readInode(root, rootIno)
	if err != nil {
		return nil, err
	}
	root.Inode = inode
	fs.root = root
	fs.mounted = true
	return fs, nil
}

func (fs *FS) formatFresh() (*FS, error) {
	fs.inodeMap = newBitmap(inodeBitmapBlocks, fs.blockSize, maxIno)
	fs.dataMap = newBitmap(dataBitmapBlocks, fs.blockSize, dataRegionCapacity)

	ino, ok := fs.inodeMap.alloc()
	if !ok || ino != rootIno {
		return nil, opErr("mount", "", fmt.Errorf("%w: root inode allocation", ErrNoSpace))
	}
	data, ok := fs.dataMap.alloc()
	if !ok {
		return nil, opErr("mount", "", fmt.Errorf("%w: root data block", ErrNoSpace))
	}

	root := &Dentry{Name: "/", Kind: KindDir, Ino: rootIno, DataIndex: uint32(data)}
	rootInode := &Inode{
		fs:        fs,
		Ino:       rootIno,
		Kind:      KindDir,
		DataIndex: uint32(data),
		Dentry:    root,
	}
	root.Inode = rootInode
	fs.root = root
	fs.mounted = true

	if err := fs.syncInode(rootInode); err != nil {
		return nil, err
	}
	if err := fs.writeSuperblock(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FS) writeSuperblock() error {
	sb := superblockRecord{
		Magic:          magic,
		MapInodeBlocks: inodeBitmapBlocks,
		MapInodeOffset: fs.inodeBitmapOffset,
		MapDataBlocks:  dataBitmapBlocks,
		MapDataOffset:  fs.dataBitmapOffset,
		InodeOffset:    fs.inodeTableOffset,
		DataOffset:     fs.dataRegionOffset,
		SzUsage:        fs.szUsage,
	}
	raw, err := sb.MarshalBinary()
	if err != nil {
		return opErr("mount", "", fmt.Errorf("%w: %v", ErrIO, err))
	}
	if err := fs.dev.WriteAt(int64(fs.superblockOffset), raw); err != nil {
		return opErr("mount", "", fmt.Errorf("%w: %v", ErrIO, err))
	}
	if err := fs.dev.WriteAt(int64(fs.inodeBitmapOffset), fs.inodeMap.bits); err != nil {
		return opErr("mount", "", fmt.Errorf("%w: %v", ErrIO, err))
	}
	if err := fs.dev.WriteAt(int64(fs.dataBitmapOffset), fs.dataMap.bits); err != nil {
		return opErr("mount", "", fmt.Errorf("%w: %v", ErrIO, err))
	}
	return nil
}

// Unmount flushes every live inode reachable from root, writes the
// superblock and bitmaps, and closes the device (spec §4.7). After Unmount
// returns the FS must not be used again.
func (fs *FS) Unmount() error {
	if !fs.mounted {
		return opErr("unmount", "", ErrInval)
	}
	if err := fs.syncInode(fs.root.Inode); err != nil {
		return err
	}
	if err := fs.writeSuperblock(); err != nil {
		return err
	}
	fs.mounted = false
	return fs.dev.Close()
}
