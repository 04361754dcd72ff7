// Command gonfs-fuse mounts a gonfs device image at a host mountpoint via
// FUSE. It takes a device path plus a mountpoint, and -debug to log every
// FUSE operation. Flags are parsed with the standard flag package: any
// other flag (such as -o allow_other) is rejected, nothing is passed on to
// go-fuse's own mount-option parsing, and arguments after the mountpoint
// are ignored. -h/--help prints the usage banner and exits.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	fusefs "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/kmrnb/gonfs"
	"github.com/kmrnb/gonfs/device"
	"github.com/kmrnb/gonfs/fsnode"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s --device=<path> <mountpoint>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	devicePath := flag.String("device", "", "path to the backing device or image file")
	debug := flag.Bool("debug", false, "log every FUSE operation")
	flag.Usage = usage
	flag.Parse()

	if *devicePath == "" || flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	mountpoint := flag.Arg(0)

	dev, err := device.Open(*devicePath)
	if err != nil {
		log.Fatalf("gonfs-fuse: %v", err)
	}

	fsys, err := gonfs.Mount(dev)
	if err != nil {
		log.Fatalf("gonfs-fuse: mount: %v", err)
	}

	root := fsnode.Root(fsys)
	server, err := fusefs.Mount(mountpoint, root, &fusefs.Options{
		MountOptions: fuse.MountOptions{
			Debug:      *debug,
			FsName:     "gonfs",
			Name:       "gonfs",
			AllowOther: false,
		},
	})
	if err != nil {
		log.Fatalf("gonfs-fuse: could not mount at %s: %v", mountpoint, err)
	}

	log.Printf("gonfs-fuse: mounted %s at %s", *devicePath, mountpoint)
	server.Wait()

	if err := fsys.Unmount(); err != nil {
		log.Fatalf("gonfs-fuse: unmount: %v", err)
	}
}
