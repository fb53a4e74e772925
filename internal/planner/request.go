package planner

import (
	"github.com/rhinstaller/diskplanner/internal/bootloader"
	"github.com/rhinstaller/diskplanner/internal/device"
)

// Request describes one desired mount point: where it goes, how it
// is formatted, how big it should be, and whether it may live inside
// a container.
type Request struct {
	// Mountpoint is the mount path, empty for swap.
	Mountpoint string

	// FSType is the filesystem type; empty picks the default.
	FSType string

	// Size is the minimum/base size; grown requests start here.
	Size uint64

	// MaxSize limits growth; zero means unlimited.
	MaxSize uint64

	// RequiredSpace gates the request: when nonzero, the request is
	// allocated only if at least this much free space is available.
	RequiredSpace uint64

	Grow bool

	// Btrfs and LV mark the request as eligible to become a btrfs
	// subvolume or an LVM (thin) logical volume under the matching
	// scheme. Boot-related formats keep both unset: they must be raw
	// partitions.
	Btrfs bool
	LV    bool
	Thin  bool

	// Encrypted marks the request as eligible for encryption when
	// the run asks for it.
	Encrypted bool
}

// Profile selects one of the default request sets.
type Profile int

const (
	ProfileServer Profile = iota
	ProfileWorkstation
)

// DefaultPartitioning returns the default mount point requests for a
// profile.
func DefaultPartitioning(profile Profile) []Request {
	if profile == ProfileWorkstation {
		return []Request{
			{
				Mountpoint: "/",
				Size:       1 * device.GiB,
				MaxSize:    50 * device.GiB,
				Grow:       true,
				Btrfs:      true,
				LV:         true,
				Thin:       true,
				Encrypted:  true,
			},
			{
				Mountpoint:    "/home",
				Size:          500 * device.MiB,
				Grow:          true,
				RequiredSpace: 50 * device.GiB,
				Btrfs:         true,
				LV:            true,
				Thin:          true,
				Encrypted:     true,
			},
			{
				FSType:    "swap",
				LV:        true,
				Encrypted: true,
			},
		}
	}
	return []Request{
		{
			Mountpoint: "/",
			Size:       2 * device.GiB,
			MaxSize:    15 * device.GiB,
			Grow:       true,
			Btrfs:      true,
			LV:         true,
			Thin:       true,
			Encrypted:  true,
		},
		{
			FSType:    "swap",
			LV:        true,
			Encrypted: true,
		},
	}
}

// PlatformRequests returns the boot requests the platform needs,
// in the order they should be allocated.
func PlatformRequests(platform bootloader.Platform) []Request {
	var out []Request
	switch platform.Firmware {
	case bootloader.EFI:
		out = append(out, Request{
			Mountpoint: "/boot/efi",
			FSType:     "efi",
			Size:       200 * device.MiB,
			MaxSize:    600 * device.MiB,
			Grow:       true,
		})
	case bootloader.PPC:
		out = append(out, Request{
			FSType: "prepboot",
			Size:   4 * device.MiB,
		})
	default:
		out = append(out, Request{
			FSType: "biosboot",
			Size:   1 * device.MiB,
		})
	}
	out = append(out, Request{
		Mountpoint: "/boot",
		Size:       1 * device.GiB,
	})
	return out
}

// RequestOptions customizes the full request set.
type RequestOptions struct {
	NoHome bool
	NoBoot bool
	NoSwap bool

	// DefaultFSType fills requests without an explicit type.
	DefaultFSType string

	// BootFSType overrides the type of the /boot request.
	BootFSType string
}

// FullRequests combines the platform requests with the profile
// requests, fills in default filesystem types and applies the
// nohome/noboot/noswap filters.
func FullRequests(platform bootloader.Platform, base []Request, opts RequestOptions) []Request {
	combined := append(PlatformRequests(platform), base...)

	out := make([]Request, 0, len(combined))
	for _, req := range combined {
		if opts.NoHome && req.Mountpoint == "/home" {
			continue
		}
		if opts.NoBoot && req.Mountpoint == "/boot" {
			continue
		}
		if opts.NoSwap && req.FSType == "swap" {
			continue
		}
		if req.FSType == "" {
			switch {
			case req.Mountpoint == "/boot" && opts.BootFSType != "":
				req.FSType = opts.BootFSType
			case opts.DefaultFSType != "":
				req.FSType = opts.DefaultFSType
			}
		}
		if req.FSType == "swap" && req.Size == 0 {
			// sized later by the swap suggestion policy
			req.Size = 1 * device.GiB
		}
		out = append(out, req)
	}
	return out
}

// SuggestSwapSize implements the swap sizing policy: scaled from the
// installed memory, optionally extended for hibernation, and capped
// at a tenth of the available disk space when that is known.
func SuggestSwapSize(memory uint64, hibernation bool, diskSpace uint64) uint64 {
	var swap uint64
	switch {
	case memory < 2*device.GiB:
		swap = 2 * memory
	case memory < 8*device.GiB:
		swap = memory
	case memory < 64*device.GiB:
		swap = memory / 2
	default:
		swap = 4 * device.GiB
	}

	if hibernation {
		if memory <= 64*device.GiB {
			swap += memory
		}
	}

	if diskSpace > 0 && !hibernation {
		max := diskSpace / 10
		if swap > max {
			swap = max
		}
	}

	if swap < 64*device.MiB {
		swap = 64 * device.MiB
	}
	return device.AlignUp(swap)
}
