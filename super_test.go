package gonfs

import "testing"

func TestSuperblockRoundTrip(t *testing.T) {
	sb := superblockRecord{
		Magic:          magic,
		MapInodeBlocks: 1,
		MapInodeOffset: 512,
		MapDataBlocks:  1,
		MapDataOffset:  1024,
		InodeOffset:    1536,
		DataOffset:     264704,
		SzUsage:        4096,
	}

	raw, err := sb.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got superblockRecord
	if err := got.UnmarshalBinary(raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != sb {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, sb)
	}
}

func TestSuperblockUnmarshalShort(t *testing.T) {
	var got superblockRecord
	if err := got.UnmarshalBinary(make([]byte, 4)); err == nil {
		t.Fatal("expected error unmarshaling a short buffer")
	}
}
