package gonfs

import "fmt"

// Inode is the in-memory, materialized form of an on-disk inode record
// (spec §4.3, §4.4). Dentry is a weak back-reference to the entry that
// named it; Children is the owning head of this directory's sibling chain,
// populated lazily as entries are resolved.
type Inode struct {
	fs *FS

	Ino       uint32
	Kind      Kind
	Size      uint64
	DataIndex uint32

	Dentry   *Dentry // weak
	Children *Dentry // owning, directories only
	DirCnt   uint32

	Target string // symlink target, inline in the inode record
	Data   []byte // data block contents, regular files only
}

func (fs *FS) inodeRecordOffset(ino uint32) int64 {
	return int64(fs.inodeTableOffset) + int64(ino)*int64(fs.blockSize)
}

func (fs *FS) dataBlockOffset(index uint32) int64 {
	return int64(fs.dataRegionOffset) + int64(index)*int64(fs.blockSize)
}

// readInode loads inode number ino from the inode table. parent is the
// dentry this inode is being materialized for (its weak Dentry back-ref).
// Directories additionally read their DirCnt directory-entry records out of
// their data block and materialize one child Dentry per entry, without
// recursing into the children's own inodes (spec §4.4: lazy descent).
func (fs *FS) readInode(parent *Dentry, ino uint32) (*Inode, error) {
	raw, err := fs.dev.ReadAt(fs.inodeRecordOffset(ino), int(fs.blockSize))
	if err != nil {
		return nil, opErr("readInode", parent.Name, fmt.Errorf("%w: %v", ErrIO, err))
	}
	var rec inodeRecord
	if err := rec.unmarshal(raw[:inodeRecordSize()]); err != nil {
		return nil, opErr("readInode", parent.Name, fmt.Errorf("%w: %v", ErrIO, err))
	}

	i := &Inode{
		fs:        fs,
		Ino:       rec.Ino,
		Kind:      Kind(rec.Ftype),
		Size:      rec.Size,
		DataIndex: rec.DataIndex,
		Dentry:    parent,
	}

	switch i.Kind {
	case KindDir:
		entRaw, err := fs.dev.ReadAt(fs.dataBlockOffset(i.DataIndex), int(fs.blockSize))
		if err != nil {
			return nil, opErr("readInode", parent.Name, fmt.Errorf("%w: %v", ErrIO, err))
		}
		entSize := dirEntryRecordSize()
		// Entries are stored in child-list order; inserting them last to
		// first rebuilds the same order, and allocDentry counts DirCnt back
		// up to rec.DirCnt.
		for n := rec.DirCnt; n > 0; n-- {
			start := int(n-1) * entSize
			var ent dirEntryRecord
			if err := ent.unmarshal(entRaw[start : start+entSize]); err != nil {
				return nil, opErr("readInode", parent.Name, fmt.Errorf("%w: %v", ErrIO, err))
			}
			child := &Dentry{
				Name:      bufToName(ent.Name[:]),
				Kind:      Kind(ent.Ftype),
				Ino:       ent.Ino,
				DataIndex: ent.DataIndex,
			}
			allocDentry(i, child)
		}
	case KindFile:
		buf, err := fs.dev.ReadAt(fs.dataBlockOffset(i.DataIndex), int(i.Size))
		if err != nil {
			return nil, opErr("readInode", parent.Name, fmt.Errorf("%w: %v", ErrIO, err))
		}
		i.Data = buf
	case KindSymlink:
		i.Target = bufToName(rec.Target[:])
	}

	return i, nil
}

// resolveDentry returns d's target inode, materializing it from disk on
// first use and caching the result on the dentry.
func (fs *FS) resolveDentry(d *Dentry) (*Inode, error) {
	if d.Inode != nil {
		return d.Inode, nil
	}
	i, err := fs.readInode(d, d.Ino)
	if err != nil {
		return nil, err
	}
	d.Inode = i
	return i, nil
}

// syncInode writes i's inode record back to the table and, for
// directories, writes the current live child list to its data block and
// recurses into every materialized child (spec §4.4). Unresolved children
// are untouched on disk, which is correct: they were never mutated since
// they were last read.
func (fs *FS) syncInode(i *Inode) error {
	rec := inodeRecord{
		Ino:       i.Ino,
		Size:      i.Size,
		Ftype:     uint16(i.Kind),
		DirCnt:    i.DirCnt,
		DataIndex: i.DataIndex,
	}
	if i.Kind == KindSymlink {
		rec.Target = nameToBuf(i.Target)
	}
	if err := fs.dev.WriteAt(fs.inodeRecordOffset(i.Ino), rec.marshal()); err != nil {
		return opErr("syncInode", i.Dentry.Name, fmt.Errorf("%w: %v", ErrIO, err))
	}

	switch i.Kind {
	case KindDir:
		entSize := dirEntryRecordSize()
		buf := make([]byte, int(fs.blockSize))
		n := 0
		for cur := i.Children; cur != nil; cur = cur.Sibling {
			ent := dirEntryRecord{
				Name:      nameToBuf(cur.Name),
				Ftype:     uint16(cur.Kind),
				Ino:       cur.Ino,
				DataIndex: cur.DataIndex,
			}
			start := n * entSize
			copy(buf[start:start+entSize], ent.marshal())
			n++
		}
		if err := fs.dev.WriteAt(fs.dataBlockOffset(i.DataIndex), buf); err != nil {
			return opErr("syncInode", i.Dentry.Name, fmt.Errorf("%w: %v", ErrIO, err))
		}
		for cur := i.Children; cur != nil; cur = cur.Sibling {
			if cur.Inode == nil {
				continue
			}
			if err := fs.syncInode(cur.Inode); err != nil {
				return err
			}
		}
	case KindFile:
		if err := fs.dev.WriteAt(fs.dataBlockOffset(i.DataIndex), i.Data); err != nil {
			return opErr("syncInode", i.Dentry.Name, fmt.Errorf("%w: %v", ErrIO, err))
		}
	}

	return nil
}

// dropInode releases i's on-disk storage: directories recurse into every
// child first (materializing unresolved ones so their blocks are freed
// too), then free their own data block; regular files free their data
// block directly; symlinks have no data block, their target lives inline
// in the inode record. The root inode can never be dropped.
func (fs *FS) dropInode(i *Inode) error {
	if i.Ino == rootIno {
		return opErr("dropInode", "/", ErrInval)
	}

	switch i.Kind {
	case KindDir:
		for cur := i.Children; cur != nil; cur = cur.Sibling {
			child, err := fs.resolveDentry(cur)
			if err != nil {
				return err
			}
			if err := fs.dropInode(child); err != nil {
				return err
			}
		}
		fs.dataMap.free(int(i.DataIndex))
	case KindFile:
		fs.dataMap.free(int(i.DataIndex))
	}

	fs.inodeMap.free(int(i.Ino))
	return nil
}
