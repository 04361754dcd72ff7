package gonfs

// Dentry is one name in a directory: a (name, kind, inode number, data
// block) tuple plus the links that make up the in-memory object graph
// (spec §4.3). Parent is a weak back-reference (it does not keep the
// parent directory's inode alive); Sibling and Inode are owning.
type Dentry struct {
	Name      string
	Kind      Kind
	Ino       uint32
	DataIndex uint32

	Parent  *Dentry // weak: the directory this entry lives in
	Sibling *Dentry // owning: next entry in Parent's child list

	Inode *Inode // owning: lazily materialized target, nil until resolved
}

// allocDentry links d into parent's child list by head insertion (newest
// first) and bumps parent's live entry count. This is why readdir order is
// not alphabetic: the sibling chain is a stack, not a sorted list, matching
// the original's singly-linked insert-at-head directory implementation.
func allocDentry(parent *Inode, d *Dentry) {
	d.Parent = parent.Dentry
	d.Sibling = parent.Children
	parent.Children = d
	parent.DirCnt++
}

// dropDentry removes d from parent's child list and decrements the live
// entry count. It returns ErrNotFound if d is not actually one of parent's
// children, which should never happen on any call path that looked d up
// via resolve first.
func dropDentry(parent *Inode, d *Dentry) error {
	if parent.Children == d {
		parent.Children = d.Sibling
		d.Sibling = nil
		parent.DirCnt--
		return nil
	}
	for cur := parent.Children; cur != nil; cur = cur.Sibling {
		if cur.Sibling == d {
			cur.Sibling = d.Sibling
			d.Sibling = nil
			parent.DirCnt--
			return nil
		}
	}
	return ErrNotFound
}
