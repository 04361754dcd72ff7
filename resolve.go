package gonfs

import "strings"

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sameName compares two names the way entries are compared on disk: both
// truncated to the stored field width, since a name longer than MaxName-1
// was already truncated when it was written (spec §4.5).
func sameName(a, b string) bool {
	if len(a) > MaxName-1 {
		a = a[:MaxName-1]
	}
	if len(b) > MaxName-1 {
		b = b[:MaxName-1]
	}
	return a == b
}

func childNamed(dir *Inode, name string) *Dentry {
	for cur := dir.Children; cur != nil; cur = cur.Sibling {
		if sameName(cur.Name, name) {
			return cur
		}
	}
	return nil
}

// resolve walks path from the root, slash-tokenized, lazily materializing
// each directory's inode as it descends (spec §4.5). It returns:
//
//   - (dentry, true, isRoot, nil)  — the full path was found; dentry names it
//   - (dentry, false, false, nil)  — every component up to the last was
//     found and is a directory, but the final component does not exist;
//     dentry is that parent directory, useful for create operations
//   - (nil, false, false, err)     — an intermediate component is missing,
//     or a non-directory component had further components beneath it
func (fs *FS) resolve(path string) (*Dentry, bool, bool, error) {
	components := splitPath(path)
	if len(components) == 0 {
		return fs.root, true, true, nil
	}

	cur := fs.root
	for idx, name := range components {
		curInode, err := fs.resolveDentry(cur)
		if err != nil {
			return nil, false, false, err
		}
		if !curInode.Kind.IsDir() {
			return nil, false, false, opErr("resolve", path, ErrNotFound)
		}

		child := childNamed(curInode, name)
		if child == nil {
			if idx == len(components)-1 {
				return cur, false, false, nil
			}
			return nil, false, false, opErr("resolve", path, ErrNotFound)
		}
		cur = child
	}

	return cur, true, cur == fs.root, nil
}
