package device

import (
	"math/rand"

	"github.com/google/uuid"
)

// PBKDF holds the parameters of the password-based key derivation
// function used for a LUKS keyslot.
type PBKDF struct {
	Type       string
	MemoryKB   uint
	TimeMS     uint
	Iterations uint
}

// Format describes the formatting of a device: a filesystem, a swap
// area, a LUKS header, an LVM physical volume, a disklabel, or
// nothing at all (zero value).
type Format struct {
	// Type of the format, e.g. "ext4", "xfs", "swap", "luks",
	// "lvmpv", "btrfs", "biosboot", "efi", "prepboot" or
	// "disklabel". An empty string means the device is unformatted.
	Type string

	Mountpoint string
	Label      string
	UUID       string

	// Exists reports whether the format is already present on disk,
	// as opposed to being scheduled for creation.
	Exists bool

	// Hidden formats (multipath or firmware RAID members) must never
	// be reformatted or used for allocation.
	Hidden bool

	// LabelType is the disklabel type ("gpt" or "dos"), only
	// meaningful when Type is "disklabel".
	LabelType string

	// LUKS specific attributes, only meaningful when Type is "luks".
	Passphrase  string
	LUKSVersion string
	Cipher      string
	PBKDF       PBKDF

	CreateOptions string
	MountOptions  string
}

// Clone returns an independent copy of the format.
func (f *Format) Clone() *Format {
	if f == nil {
		return nil
	}
	clone := *f
	return &clone
}

// Mountable reports whether the format can carry a mount point.
func (f *Format) Mountable() bool {
	switch f.Type {
	case "ext2", "ext3", "ext4", "xfs", "btrfs", "vfat", "efi", "f2fs":
		return true
	}
	return false
}

// LinuxNative reports whether the format is a native linux format.
func (f *Format) LinuxNative() bool {
	switch f.Type {
	case "ext2", "ext3", "ext4", "xfs", "btrfs", "f2fs", "swap":
		return true
	}
	return false
}

// IsDiskLabel reports whether the format is a partition table.
func (f *Format) IsDiskLabel() bool {
	return f.Type == "disklabel"
}

// HasKey reports whether a LUKS format has a way of obtaining an
// encryption key. Creation of a keyless LUKS format would fail.
func (f *Format) HasKey() bool {
	return f.Passphrase != ""
}

// GenUUID assigns a random UUID to the format if it has none. The
// rng is passed in so that callers can produce reproducible layouts.
func (f *Format) GenUUID(rng *rand.Rand) {
	if f.UUID != "" {
		return
	}
	id := uuid.Must(newRandomUUIDFromReader(rng))
	f.UUID = id.String()
}

// newRandomUUIDFromReader is uuid.NewRandomFromReader over a
// math/rand source.
func newRandomUUIDFromReader(rng *rand.Rand) (uuid.UUID, error) {
	return uuid.NewRandomFromReader(rng)
}

// RawPartitionOnlyFormats lists format types that must always live
// directly on a raw partition, never inside a container.
var RawPartitionOnlyFormats = []string{"biosboot", "efi", "prepboot", "appleboot", "macefi"}

// NeedsRawPartition reports whether the given format type must be
// allocated as a raw partition.
func NeedsRawPartition(fstype string) bool {
	for _, t := range RawPartitionOnlyFormats {
		if t == fstype {
			return true
		}
	}
	return false
}

// FormatSizeBounds returns the allowable device size range for a
// format type. The second return value is false when the format has
// no size constraints worth checking.
func FormatSizeBounds(fstype string) (minSize uint64, maxSize uint64, ok bool) {
	switch fstype {
	case "ext2", "ext3", "ext4":
		return 2 * MiB, 16 * TiB, true
	case "xfs":
		return 16 * MiB, 500 * TiB, true
	case "vfat", "efi":
		return 1 * MiB, 2 * TiB, true
	case "swap":
		return 1 * MiB, 16 * TiB, true
	case "btrfs":
		return 16 * MiB, 0, true
	}
	return 0, 0, false
}
