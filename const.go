package gonfs

// Fixed-capacity layout constants. These are the format's ABI: a device
// formatted with one version of this package must mount cleanly under any
// other, so they are never computed from the device's capacity.
const (
	// MaxName is the largest file name this format can store, including
	// the terminating NUL, in both inode records (as a symlink target)
	// and directory-entry records (as a file name).
	MaxName = 128

	// superblockBlocks is the number of blocks the superblock record
	// occupies (always block 0 of the device).
	superblockBlocks = 1

	// inodeBitmapBlocks / dataBitmapBlocks are fixed at one block each.
	inodeBitmapBlocks = 1
	dataBitmapBlocks  = 1

	// inodeTableCapacity / dataRegionCapacity are the fixed inode table
	// and data region sizes, in blocks (one inode per block, one data
	// block per block). The superblock and both bitmaps occupy their own
	// dedicated blocks elsewhere in the layout, ahead of the table.
	inodeTableCapacity = 514
	dataRegionCapacity = 512

	// maxIno is the number of inode numbers the inode bitmap hands out:
	// the inode table holds exactly inodeTableCapacity slots, addressed
	// 0..inodeTableCapacity-1 (spec §3).
	maxIno = inodeTableCapacity

	// rootIno is the fixed inode number of the root directory.
	rootIno = 0

	// magic identifies a device as already formatted for this filesystem.
	magic uint32 = 0x4e465321 // "NFS!"

	// noBlock marks an inode with no data block (reserved; every live
	// inode in this format always has exactly one, but the sentinel is
	// kept for clarity at allocation failure sites).
	noBlock = ^uint32(0)
)
