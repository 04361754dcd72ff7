package gonfs

import (
	"bytes"
	"encoding/binary"
)

// inodeRecord is the fixed, packed on-disk inode (spec §6): one per block
// of the inode table, field order exactly as specified.
type inodeRecord struct {
	Ino       uint32
	Size      uint64
	Target    [MaxName]byte
	Ftype     uint16
	DirCnt    uint32
	DataIndex uint32
}

func inodeRecordSize() int {
	return 4 + 8 + MaxName + 2 + 4 + 4
}

func (r *inodeRecord) marshal() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, r.Ino)
	binary.Write(buf, binary.LittleEndian, r.Size)
	buf.Write(r.Target[:])
	binary.Write(buf, binary.LittleEndian, r.Ftype)
	binary.Write(buf, binary.LittleEndian, r.DirCnt)
	binary.Write(buf, binary.LittleEndian, r.DataIndex)
	return buf.Bytes()
}

func (r *inodeRecord) unmarshal(data []byte) error {
	rd := bytes.NewReader(data)
	if err := binary.Read(rd, binary.LittleEndian, &r.Ino); err != nil {
		return err
	}
	if err := binary.Read(rd, binary.LittleEndian, &r.Size); err != nil {
		return err
	}
	if _, err := rd.Read(r.Target[:]); err != nil {
		return err
	}
	if err := binary.Read(rd, binary.LittleEndian, &r.Ftype); err != nil {
		return err
	}
	if err := binary.Read(rd, binary.LittleEndian, &r.DirCnt); err != nil {
		return err
	}
	return binary.Read(rd, binary.LittleEndian, &r.DataIndex)
}

// dirEntryRecord is one fixed-size, packed directory entry, stored
// back-to-back in a directory inode's data block (spec §6).
type dirEntryRecord struct {
	Name      [MaxName]byte
	Ftype     uint16
	Ino       uint32
	DataIndex uint32
}

func dirEntryRecordSize() int {
	return MaxName + 2 + 4 + 4
}

func (r *dirEntryRecord) marshal() []byte {
	buf := new(bytes.Buffer)
	buf.Write(r.Name[:])
	binary.Write(buf, binary.LittleEndian, r.Ftype)
	binary.Write(buf, binary.LittleEndian, r.Ino)
	binary.Write(buf, binary.LittleEndian, r.DataIndex)
	return buf.Bytes()
}

func (r *dirEntryRecord) unmarshal(data []byte) error {
	rd := bytes.NewReader(data)
	if _, err := rd.Read(r.Name[:]); err != nil {
		return err
	}
	if err := binary.Read(rd, binary.LittleEndian, &r.Ftype); err != nil {
		return err
	}
	if err := binary.Read(rd, binary.LittleEndian, &r.Ino); err != nil {
		return err
	}
	return binary.Read(rd, binary.LittleEndian, &r.DataIndex)
}

// nameToBuf copies s into a fixed-size, NUL-terminated buffer, truncating
// if necessary to leave room for the terminator (spec §3: "at most MAX_NAME
// bytes including terminator").
func nameToBuf(s string) [MaxName]byte {
	var buf [MaxName]byte
	n := len(s)
	if n > MaxName-1 {
		n = MaxName - 1
	}
	copy(buf[:], s[:n])
	return buf
}

// bufToName reads a NUL-terminated string out of a fixed-size buffer.
func bufToName(buf []byte) string {
	n := bytes.IndexByte(buf, 0)
	if n < 0 {
		n = len(buf)
	}
	return string(buf[:n])
}
