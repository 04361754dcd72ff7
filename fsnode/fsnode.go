// Package fsnode bridges the kernel-facing FUSE callbacks to the
// path-based filesystem core in the gonfs package, using go-fuse v2's
// InodeEmbedder node API.
package fsnode

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/kmrnb/gonfs"
)

// Node is the InodeEmbedder for every entry in the mounted tree. It carries
// no identity of its own beyond what go-fuse's Inode already tracks (the
// kernel-visible tree shape); every operation recomputes its full path via
// Path and dispatches into fsys, which holds the actual object graph.
type Node struct {
	fs.Inode

	fsys *gonfs.FS
}

var (
	_ fs.NodeLookuper   = (*Node)(nil)
	_ fs.NodeMkdirer    = (*Node)(nil)
	_ fs.NodeMknoder    = (*Node)(nil)
	_ fs.NodeUnlinker   = (*Node)(nil)
	_ fs.NodeRmdirer    = (*Node)(nil)
	_ fs.NodeRenamer    = (*Node)(nil)
	_ fs.NodeSymlinker  = (*Node)(nil)
	_ fs.NodeReadlinker = (*Node)(nil)
	_ fs.NodeOpener     = (*Node)(nil)
	_ fs.NodeReader     = (*Node)(nil)
	_ fs.NodeWriter     = (*Node)(nil)
	_ fs.NodeGetattrer  = (*Node)(nil)
	_ fs.NodeSetattrer  = (*Node)(nil)
	_ fs.NodeAccesser   = (*Node)(nil)
	_ fs.NodeReaddirer  = (*Node)(nil)
)

// Root builds the root *Node for a new mount on top of an already-Mounted
// gonfs.FS.
func Root(fsys *gonfs.FS) *Node {
	return &Node{fsys: fsys}
}

// path returns n's full path relative to the mount root, in the "/a/b"
// form every gonfs operation expects.
func (n *Node) path() string {
	p := n.Path(nil)
	if p == "" {
		return "/"
	}
	return "/" + p
}

func childPath(parentPath, name string) string {
	if parentPath == "/" {
		return "/" + name
	}
	return parentPath + "/" + name
}

func fillAttr(out *fuse.Attr, a gonfs.Attr) {
	out.Mode = uint32(a.Mode)
	out.Size = a.Size
	out.Nlink = a.Nlink
	out.Blksize = a.Blksize
	if a.TotalBlocks != 0 {
		out.Blocks = a.TotalBlocks
	}
	sec := uint64(a.Mtime.Unix())
	out.Mtime = sec
	out.Atime = sec
	out.Ctime = sec
}

func (n *Node) newChild(name string, kind gonfs.Kind, out *fuse.EntryOut) *fs.Inode {
	attr := fuse.Attr{Mode: uint32(kind.Mode())}
	out.Attr = attr
	mode := syscall.S_IFREG
	switch kind {
	case gonfs.KindDir:
		mode = syscall.S_IFDIR
	case gonfs.KindSymlink:
		mode = syscall.S_IFLNK
	}
	child := &Node{fsys: n.fsys}
	return n.NewInode(context.Background(), child, fs.StableAttr{Mode: uint32(mode)})
}

func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	attr, err := n.fsys.Getattr(childPath(n.path(), name))
	if err != nil {
		return nil, gonfs.Errno(err)
	}
	fillAttr(&out.Attr, attr)
	return n.newChild(name, attr.Kind, out), 0
}

func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if err := n.fsys.Mkdir(childPath(n.path(), name)); err != nil {
		return nil, gonfs.Errno(err)
	}
	attr, err := n.fsys.Getattr(childPath(n.path(), name))
	if err != nil {
		return nil, gonfs.Errno(err)
	}
	fillAttr(&out.Attr, attr)
	return n.newChild(name, gonfs.KindDir, out), 0
}

func (n *Node) Mknod(ctx context.Context, name string, mode, dev uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if err := n.fsys.Mknod(childPath(n.path(), name)); err != nil {
		return nil, gonfs.Errno(err)
	}
	attr, err := n.fsys.Getattr(childPath(n.path(), name))
	if err != nil {
		return nil, gonfs.Errno(err)
	}
	fillAttr(&out.Attr, attr)
	return n.newChild(name, gonfs.KindFile, out), 0
}

func (n *Node) Symlink(ctx context.Context, target, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	linkPath := childPath(n.path(), name)
	if err := n.fsys.Symlink(target, linkPath); err != nil {
		return nil, gonfs.Errno(err)
	}
	attr, err := n.fsys.Getattr(linkPath)
	if err != nil {
		return nil, gonfs.Errno(err)
	}
	fillAttr(&out.Attr, attr)
	return n.newChild(name, gonfs.KindSymlink, out), 0
}

func (n *Node) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	target, err := n.fsys.Readlink(n.path())
	if err != nil {
		return nil, gonfs.Errno(err)
	}
	return []byte(target), 0
}

func (n *Node) Unlink(ctx context.Context, name string) syscall.Errno {
	return gonfs.Errno(n.fsys.Unlink(childPath(n.path(), name)))
}

func (n *Node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return gonfs.Errno(n.fsys.Rmdir(childPath(n.path(), name)))
}

func (n *Node) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	np, ok := newParent.(*Node)
	if !ok {
		return syscall.EINVAL
	}
	from := childPath(n.path(), name)
	to := childPath(np.path(), newName)
	return gonfs.Errno(n.fsys.Rename(from, to))
}

type fileHandle struct{}

func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return &fileHandle{}, 0, 0
}

func (n *Node) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n2, err := n.fsys.Read(n.path(), dest, off)
	if err != nil {
		return nil, gonfs.Errno(err)
	}
	return fuse.ReadResultData(dest[:n2]), 0
}

func (n *Node) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	written, err := n.fsys.Write(n.path(), data, off)
	if err != nil {
		return 0, gonfs.Errno(err)
	}
	return uint32(written), 0
}

func (n *Node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := n.fsys.Getattr(n.path())
	if err != nil {
		return gonfs.Errno(err)
	}
	fillAttr(&out.Attr, attr)
	return 0
}

func (n *Node) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok {
		if err := n.fsys.Truncate(n.path(), size); err != nil {
			return gonfs.Errno(err)
		}
	}
	attr, err := n.fsys.Getattr(n.path())
	if err != nil {
		return gonfs.Errno(err)
	}
	fillAttr(&out.Attr, attr)
	return 0
}

func (n *Node) Access(ctx context.Context, mask uint32) syscall.Errno {
	return gonfs.Errno(n.fsys.Access(n.path(), mask))
}

type dirStream struct {
	entries []gonfs.DirEntry
	pos     int
}

func (s *dirStream) HasNext() bool { return s.pos < len(s.entries) }

func (s *dirStream) Next() (fuse.DirEntry, syscall.Errno) {
	e := s.entries[s.pos]
	s.pos++
	mode := uint32(syscall.S_IFREG)
	switch e.Kind {
	case gonfs.KindDir:
		mode = syscall.S_IFDIR
	case gonfs.KindSymlink:
		mode = syscall.S_IFLNK
	}
	return fuse.DirEntry{Name: e.Name, Mode: mode}, 0
}

func (s *dirStream) Close() {}

func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := n.fsys.Readdir(n.path())
	if err != nil {
		return nil, gonfs.Errno(err)
	}
	return &dirStream{entries: entries}, 0
}
