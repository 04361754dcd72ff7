package gonfs

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// Attr is the subset of inode metadata the FUSE bridge needs to answer
// getattr (spec §4.6). Mtime is always "now": this format does not persist
// timestamps, so utimens is a deliberate no-op and every getattr reports
// the current time. Nlink is always 1 except for root, which reports 2.
// Usage and TotalBlocks are only populated for root: the superblock's
// byte-usage field as loaded at mount (no operation updates it, so it stays
// 0 on a freshly formatted device) and the data region's total block count.
type Attr struct {
	Kind    Kind
	Size    uint64
	Mode    fs.FileMode
	Mtime   time.Time
	Nlink   uint32
	Blksize uint32

	Usage       uint64
	TotalBlocks uint64
}

// DirEntry is one entry returned by Readdir, in child-list order (newest
// first — spec §4.3's head-insertion sibling chain, not alphabetic).
type DirEntry struct {
	Name string
	Kind Kind
}

// Getattr resolves path and reports its kind, size and mode.
func (fs2 *FS) Getattr(path string) (Attr, error) {
	d, isFind, isRoot, err := fs2.resolve(path)
	if err != nil {
		return Attr{}, err
	}
	if !isFind {
		return Attr{}, opErr("getattr", path, ErrNotFound)
	}
	i, err := fs2.resolveDentry(d)
	if err != nil {
		return Attr{}, err
	}

	nlink := uint32(1)
	if isRoot {
		nlink = 2
	}
	attr := Attr{
		Kind:    i.Kind,
		Size:    i.Size,
		Mode:    i.Kind.Mode(),
		Mtime:   time.Now(),
		Nlink:   nlink,
		Blksize: fs2.blockSize,
	}
	if isRoot {
		attr.Usage = fs2.szUsage
		attr.TotalBlocks = dataRegionCapacity
	}
	return attr, nil
}

// Readdir lists the children of the directory at path.
func (fs2 *FS) Readdir(path string) ([]DirEntry, error) {
	d, isFind, _, err := fs2.resolve(path)
	if err != nil {
		return nil, err
	}
	if !isFind {
		return nil, opErr("readdir", path, ErrNotFound)
	}
	i, err := fs2.resolveDentry(d)
	if err != nil {
		return nil, err
	}
	if !i.Kind.IsDir() {
		return nil, opErr("readdir", path, fmt.Errorf("%w: not a directory", ErrInval))
	}

	out := make([]DirEntry, 0, i.DirCnt)
	for cur := i.Children; cur != nil; cur = cur.Sibling {
		out = append(out, DirEntry{Name: cur.Name, Kind: cur.Kind})
	}
	return out, nil
}

// create is the shared body of Mkdir/Mknod/Symlink: resolve the parent
// directory, reject a name that already exists there, allocate an inode
// (and, for directories and regular files, a data block), link it into the
// parent's child list, and eagerly sync both inode and parent so the new
// entry survives an unmount immediately after create.
func (fs2 *FS) create(path string, kind Kind, target string) (*Inode, error) {
	parentDentry, isFind, _, err := fs2.resolve(parentPath(path))
	if err != nil {
		return nil, err
	}
	if !isFind {
		return nil, opErr("create", path, ErrNotFound)
	}
	parent, err := fs2.resolveDentry(parentDentry)
	if err != nil {
		return nil, err
	}
	if !parent.Kind.IsDir() {
		if kind == KindDir {
			return nil, opErr("create", path, ErrUnsupported)
		}
		return nil, opErr("create", path, ErrInval)
	}

	name := lastComponent(path)
	if childNamed(parent, name) != nil {
		return nil, opErr("create", path, ErrExists)
	}

	ino, ok := fs2.inodeMap.alloc()
	if !ok {
		return nil, opErr("create", path, ErrNoSpace)
	}

	var dataIndex uint32
	needsData := kind == KindDir || kind == KindFile
	if needsData {
		block, ok := fs2.dataMap.alloc()
		if !ok {
			fs2.inodeMap.free(ino)
			return nil, opErr("create", path, ErrNoSpace)
		}
		dataIndex = uint32(block)
	}

	d := &Dentry{Name: name, Kind: kind, Ino: uint32(ino), DataIndex: dataIndex}
	i := &Inode{fs: fs2, Ino: uint32(ino), Kind: kind, DataIndex: dataIndex, Dentry: d, Target: target}
	if kind == KindSymlink {
		i.Size = uint64(len(target))
	}
	d.Inode = i

	allocDentry(parent, d)

	if err := fs2.syncInode(i); err != nil {
		return nil, err
	}
	if err := fs2.syncInode(parent); err != nil {
		return nil, err
	}
	return i, nil
}

// Mkdir creates an empty directory at path.
func (fs2 *FS) Mkdir(path string) error {
	_, err := fs2.create(path, KindDir, "")
	return err
}

// Mknod creates an empty regular file at path. The original driver only
// ever creates regular files via mknod (no device nodes, no FIFOs); this
// format has no room to represent anything else.
func (fs2 *FS) Mknod(path string) error {
	_, err := fs2.create(path, KindFile, "")
	return err
}

// Symlink creates a symbolic link at linkPath whose target is target.
func (fs2 *FS) Symlink(target, linkPath string) error {
	_, err := fs2.create(linkPath, KindSymlink, target)
	return err
}

// Readlink returns the target of the symlink at path.
func (fs2 *FS) Readlink(path string) (string, error) {
	d, isFind, _, err := fs2.resolve(path)
	if err != nil {
		return "", err
	}
	if !isFind {
		return "", opErr("readlink", path, ErrNotFound)
	}
	i, err := fs2.resolveDentry(d)
	if err != nil {
		return "", err
	}
	if i.Kind != KindSymlink {
		return "", opErr("readlink", path, ErrInval)
	}
	return i.Target, nil
}

// Read copies up to len(buf) bytes from path starting at offset, returning
// the number of bytes actually copied (0 at end of file). An offset past the
// end of the file fails with ErrSeek.
func (fs2 *FS) Read(path string, buf []byte, offset int64) (int, error) {
	d, isFind, _, err := fs2.resolve(path)
	if err != nil {
		return 0, err
	}
	if !isFind {
		return 0, opErr("read", path, ErrNotFound)
	}
	i, err := fs2.resolveDentry(d)
	if err != nil {
		return 0, err
	}
	if i.Kind.IsDir() {
		return 0, opErr("read", path, ErrIsDir)
	}
	if offset < 0 || uint64(offset) > i.Size {
		return 0, opErr("read", path, ErrSeek)
	}
	n := copy(buf, i.Data[offset:])
	return n, nil
}

// Write writes buf to path at offset, growing the file (up to one block)
// if the write extends past the current size, and syncs the inode
// immediately so content survives a crash between writes (spec §4.6: no
// write-back caching in this single-threaded model).
func (fs2 *FS) Write(path string, buf []byte, offset int64) (int, error) {
	d, isFind, _, err := fs2.resolve(path)
	if err != nil {
		return 0, err
	}
	if !isFind {
		return 0, opErr("write", path, ErrNotFound)
	}
	i, err := fs2.resolveDentry(d)
	if err != nil {
		return 0, err
	}
	if i.Kind.IsDir() {
		return 0, opErr("write", path, ErrIsDir)
	}
	if offset < 0 {
		return 0, opErr("write", path, ErrSeek)
	}

	end := offset + int64(len(buf))
	if end > int64(fs2.blockSize) {
		return 0, opErr("write", path, fmt.Errorf("%w: write exceeds single data block", ErrNoSpace))
	}
	if end > int64(len(i.Data)) {
		grown := make([]byte, end)
		copy(grown, i.Data)
		i.Data = grown
	}
	n := copy(i.Data[offset:], buf)
	if uint64(end) > i.Size {
		i.Size = uint64(end)
	}

	if err := fs2.syncInode(i); err != nil {
		return 0, err
	}
	return n, nil
}

// Truncate sets path's size, zero-extending or discarding trailing bytes.
func (fs2 *FS) Truncate(path string, size uint64) error {
	d, isFind, _, err := fs2.resolve(path)
	if err != nil {
		return err
	}
	if !isFind {
		return opErr("truncate", path, ErrNotFound)
	}
	i, err := fs2.resolveDentry(d)
	if err != nil {
		return err
	}
	if i.Kind.IsDir() {
		return opErr("truncate", path, ErrIsDir)
	}
	if size > uint64(fs2.blockSize) {
		return opErr("truncate", path, ErrNoSpace)
	}

	grown := make([]byte, size)
	copy(grown, i.Data)
	i.Data = grown
	i.Size = size

	return fs2.syncInode(i)
}

// Unlink removes the entry at path. Directories are removed exactly the
// same way as files: the original driver's nfs_rmdir is a literal alias
// for nfs_unlink, with no emptiness check, and this keeps that behavior.
func (fs2 *FS) Unlink(path string) error {
	if path == "/" {
		return opErr("unlink", path, ErrInval)
	}
	parentDentry, isFind, _, err := fs2.resolve(parentPath(path))
	if err != nil {
		return err
	}
	if !isFind {
		return opErr("unlink", path, ErrNotFound)
	}
	parent, err := fs2.resolveDentry(parentDentry)
	if err != nil {
		return err
	}

	name := lastComponent(path)
	target := childNamed(parent, name)
	if target == nil {
		return opErr("unlink", path, ErrNotFound)
	}

	targetInode, err := fs2.resolveDentry(target)
	if err != nil {
		return err
	}
	if err := fs2.dropInode(targetInode); err != nil {
		return err
	}
	if err := dropDentry(parent, target); err != nil {
		return err
	}
	return fs2.syncInode(parent)
}

// Rmdir is an alias of Unlink, matching the original C driver.
func (fs2 *FS) Rmdir(path string) error {
	return fs2.Unlink(path)
}

// Rename moves the entry at from to to, replacing any existing entry at to
// (and releasing its storage first, fixing the original driver's leaked
// data block on overwrite).
func (fs2 *FS) Rename(from, to string) error {
	if from == to {
		return nil
	}
	srcDentry, isFind, isRoot, err := fs2.resolve(from)
	if err != nil {
		return err
	}
	if !isFind || isRoot {
		return opErr("rename", from, ErrNotFound)
	}
	srcParentDentry, _, _, err := fs2.resolve(parentPath(from))
	if err != nil {
		return err
	}
	srcParent, err := fs2.resolveDentry(srcParentDentry)
	if err != nil {
		return err
	}

	dstParentDentry, dstParentFind, _, err := fs2.resolve(parentPath(to))
	if err != nil {
		return err
	}
	if !dstParentFind {
		return opErr("rename", to, ErrNotFound)
	}
	dstParent, err := fs2.resolveDentry(dstParentDentry)
	if err != nil {
		return err
	}

	newName := lastComponent(to)
	if existing := childNamed(dstParent, newName); existing != nil {
		existingInode, err := fs2.resolveDentry(existing)
		if err != nil {
			return err
		}
		if err := fs2.dropInode(existingInode); err != nil {
			return err
		}
		if err := dropDentry(dstParent, existing); err != nil {
			return err
		}
	}

	if err := dropDentry(srcParent, srcDentry); err != nil {
		return err
	}
	srcDentry.Name = newName
	allocDentry(dstParent, srcDentry)

	if err := fs2.syncInode(srcParent); err != nil {
		return err
	}
	if srcParent != dstParent {
		if err := fs2.syncInode(dstParent); err != nil {
			return err
		}
	}
	return nil
}

// Access mask bits, matching the standard F_OK/R_OK/W_OK/X_OK values.
const (
	FOK uint32 = 0
	XOK uint32 = 1
	WOK uint32 = 2
	ROK uint32 = 4
)

// Access is permissive: this format carries no per-entry permission bits,
// so R_OK/W_OK/X_OK succeed regardless of whether path even resolves.
// Only F_OK checks presence, and fails with ACCESS (not NOT_FOUND) on a
// missing path. Preserved deliberately.
func (fs2 *FS) Access(path string, mask uint32) error {
	if mask != FOK {
		return nil
	}
	_, isFind, _, err := fs2.resolve(path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return opErr("access", path, ErrAccess)
		}
		return err
	}
	if !isFind {
		return opErr("access", path, ErrAccess)
	}
	return nil
}

// Utimens is a no-op: this format does not persist timestamps.
func (fs2 *FS) Utimens(path string) error {
	_, isFind, _, err := fs2.resolve(path)
	if err != nil {
		return err
	}
	if !isFind {
		return opErr("utimens", path, ErrNotFound)
	}
	return nil
}

func parentPath(path string) string {
	idx := lastSlash(path)
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

func lastComponent(path string) string {
	idx := lastSlash(path)
	return path[idx+1:]
}

func lastSlash(path string) int {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return i
		}
	}
	return -1
}
