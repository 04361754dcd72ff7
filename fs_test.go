package gonfs_test

import (
	"testing"

	"github.com/kmrnb/gonfs"
)

func mustMount(t *testing.T, dev *mockDevice) *gonfs.FS {
	t.Helper()
	fsys, err := gonfs.Mount(dev)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	return fsys
}

func TestMkdirAndReaddir(t *testing.T) {
	dev := newMockDevice(requiredSize(512), 512)
	fsys := mustMount(t, dev)

	if err := fsys.Mkdir("/a"); err != nil {
		t.Fatalf("mkdir /a: %v", err)
	}
	if err := fsys.Mkdir("/b"); err != nil {
		t.Fatalf("mkdir /b: %v", err)
	}
	if err := fsys.Mkdir("/a"); err == nil {
		t.Fatal("expected error creating /a twice")
	}

	entries, err := fsys.Readdir("/")
	if err != nil {
		t.Fatalf("readdir /: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// Head-insertion means the most recently created entry is listed first.
	if entries[0].Name != "b" || entries[1].Name != "a" {
		t.Fatalf("unexpected entry order: %+v", entries)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	dev := newMockDevice(requiredSize(512), 512)
	fsys := mustMount(t, dev)

	if err := fsys.Mknod("/file.txt"); err != nil {
		t.Fatalf("mknod: %v", err)
	}
	payload := []byte("hello, gonfs")
	n, err := fsys.Write("/file.txt", payload, 0)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("wrote %d bytes, want %d", n, len(payload))
	}

	buf := make([]byte, len(payload))
	n, err = fsys.Read("/file.txt", buf, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:n]) != string(payload) {
		t.Fatalf("read back %q, want %q", buf[:n], payload)
	}
}

func TestPersistenceAcrossRemount(t *testing.T) {
	dev := newMockDevice(requiredSize(512), 512)
	fsys := mustMount(t, dev)

	if err := fsys.Mkdir("/keep"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := fsys.Mknod("/keep/data.bin"); err != nil {
		t.Fatalf("mknod: %v", err)
	}
	if _, err := fsys.Write("/keep/data.bin", []byte("persisted"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := fsys.Unmount(); err != nil {
		t.Fatalf("unmount: %v", err)
	}

	dev.closed = false // simulate a fresh open handle onto the same backing bytes
	remounted, err := gonfs.Mount(dev)
	if err != nil {
		t.Fatalf("remount: %v", err)
	}

	buf := make([]byte, len("persisted"))
	n, err := remounted.Read("/keep/data.bin", buf, 0)
	if err != nil {
		t.Fatalf("read after remount: %v", err)
	}
	if string(buf[:n]) != "persisted" {
		t.Fatalf("got %q after remount, want %q", buf[:n], "persisted")
	}
}

func TestSymlinkReadlink(t *testing.T) {
	dev := newMockDevice(requiredSize(512), 512)
	fsys := mustMount(t, dev)

	if err := fsys.Mknod("/target.txt"); err != nil {
		t.Fatalf("mknod: %v", err)
	}
	if err := fsys.Symlink("/target.txt", "/link"); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	target, err := fsys.Readlink("/link")
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if target != "/target.txt" {
		t.Fatalf("got target %q, want %q", target, "/target.txt")
	}
}

func TestUnlinkAndRmdirAreAliases(t *testing.T) {
	dev := newMockDevice(requiredSize(512), 512)
	fsys := mustMount(t, dev)

	if err := fsys.Mkdir("/dir"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := fsys.Mknod("/dir/inside.txt"); err != nil {
		t.Fatalf("mknod: %v", err)
	}

	// Rmdir removes a non-empty directory without complaint: it is a
	// literal alias for Unlink, matching the original driver.
	if err := fsys.Rmdir("/dir"); err != nil {
		t.Fatalf("rmdir: %v", err)
	}
	if _, err := fsys.Getattr("/dir"); err == nil {
		t.Fatal("expected /dir to be gone")
	}
}

func TestRenameOverwriteReleasesOldTarget(t *testing.T) {
	dev := newMockDevice(requiredSize(512), 512)
	fsys := mustMount(t, dev)

	if err := fsys.Mknod("/old.txt"); err != nil {
		t.Fatalf("mknod old: %v", err)
	}
	if err := fsys.Mknod("/existing.txt"); err != nil {
		t.Fatalf("mknod existing: %v", err)
	}
	if err := fsys.Rename("/old.txt", "/existing.txt"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	entries, err := fsys.Readdir("/")
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "existing.txt" {
		t.Fatalf("unexpected entries after rename: %+v", entries)
	}
}
