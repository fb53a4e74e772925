package check

import "github.com/rhinstaller/diskplanner/internal/device"

// Constraints are the explicit limits a configuration is checked
// against. A zero value in a field disables the related check.
type Constraints struct {
	// MinRAM is the smallest supported amount of installed memory.
	MinRAM uint64

	// LUKS2MinRAM is the extra memory floor when LUKS2 devices are
	// present, to leave room for the key derivation function.
	LUKS2MinRAM uint64

	// MinRootSize is the smallest acceptable size of the root
	// filesystem.
	MinRootSize uint64

	// MinPartitionSizes are recommended sizes per mount point;
	// falling short produces a warning.
	MinPartitionSizes map[string]uint64

	// ReqPartitionSizes are required sizes per mount point; falling
	// short produces an error.
	ReqPartitionSizes map[string]uint64

	// MustBeOnRoot lists paths that may not have their own device.
	MustBeOnRoot []string

	// MustNotBeOnRoot lists mount points that need their own device.
	MustNotBeOnRoot []string

	// MustBeOnLinuxFS lists mount points that need a Linux-native
	// filesystem.
	MustBeOnLinuxFS []string

	// SwapIsRecommended upgrades a missing swap from a note to a
	// warning.
	SwapIsRecommended bool

	// InstalledRAM is the detected memory of the machine; zero skips
	// the memory checks.
	InstalledRAM uint64
}

// DefaultConstraints returns the stock constraint set.
func DefaultConstraints() Constraints {
	return Constraints{
		MinRAM:      320 * device.MiB,
		LUKS2MinRAM: 128 * device.MiB,
		MinRootSize: 250 * device.MiB,
		MinPartitionSizes: map[string]uint64{
			"/usr":  250 * device.MiB,
			"/tmp":  50 * device.MiB,
			"/var":  384 * device.MiB,
			"/home": 100 * device.MiB,
			"/boot": 200 * device.MiB,
		},
		ReqPartitionSizes: map[string]uint64{
			"/boot/efi": 200 * device.MiB,
		},
		MustBeOnRoot: []string{
			"/bin", "/dev", "/sbin", "/etc", "/lib", "/root", "/mnt", "lost+found", "/proc",
		},
		MustNotBeOnRoot: nil,
		MustBeOnLinuxFS: []string{
			"/", "/var", "/tmp", "/usr", "/home", "/usr/share", "/usr/lib",
		},
		SwapIsRecommended: false,
	}
}
