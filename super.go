package gonfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// superblockRecord is the fixed, packed on-disk superblock: eight
// little-endian fields, in this exact order, with no padding. Marshal and
// Unmarshal walk the fields with encoding/binary rather than reflection —
// this record never grows new fields, so a fixed field list reads better
// than a reflect-driven loop over struct tags.
type superblockRecord struct {
	Magic          uint32
	MapInodeBlocks uint32
	MapInodeOffset uint64
	MapDataBlocks  uint32
	MapDataOffset  uint64
	InodeOffset    uint64
	DataOffset     uint64
	SzUsage        uint64
}

func (s *superblockRecord) size() int {
	return 4 + 4 + 8 + 4 + 8 + 8 + 8 + 8
}

func (s *superblockRecord) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	fields := []any{
		s.Magic, s.MapInodeBlocks, s.MapInodeOffset, s.MapDataBlocks,
		s.MapDataOffset, s.InodeOffset, s.DataOffset, s.SzUsage,
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (s *superblockRecord) UnmarshalBinary(data []byte) error {
	if len(data) < s.size() {
		return fmt.Errorf("gonfs: short superblock record (%d bytes)", len(data))
	}
	r := bytes.NewReader(data)
	fields := []any{
		&s.Magic, &s.MapInodeBlocks, &s.MapInodeOffset, &s.MapDataBlocks,
		&s.MapDataOffset, &s.InodeOffset, &s.DataOffset, &s.SzUsage,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}
