package gonfs

import "io/fs"

// Kind represents the type of filesystem object an inode holds. The format
// supports exactly three kinds — directories, regular files and symlinks —
// with no room in the on-disk inode record for device nodes, fifos or
// sockets.
type Kind uint16

const (
	KindDir Kind = iota
	KindFile
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	case KindSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

func (k Kind) IsDir() bool {
	return k == KindDir
}

func (k Kind) IsSymlink() bool {
	return k == KindSymlink
}

// defaultPerm is the fixed permission bits reported for every inode; the
// format carries no per-file permission bits and access control is
// permissive (spec Non-goals: "permissions enforcement").
const defaultPerm = 0777

// Mode returns the fs.FileMode for this kind, including the fixed
// permission bits every inode reports regardless of its on-disk record.
func (k Kind) Mode() fs.FileMode {
	switch k {
	case KindDir:
		return fs.ModeDir | defaultPerm
	case KindSymlink:
		return fs.ModeSymlink | defaultPerm
	default:
		return defaultPerm
	}
}
