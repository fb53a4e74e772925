package device

// LUKSContainer is the mapped clear-text device on top of a
// LUKS-formatted parent. The parent carries the "luks" format with
// the passphrase; the container carries the inner format (lvmpv,
// btrfs, a filesystem).
type LUKSContainer struct {
	Base
}

// NewLUKSContainer wraps the given device. The container's usable
// size is the parent size minus the LUKS metadata overhead.
func NewLUKSContainer(parent Device) *LUKSContainer {
	size := parent.Size()
	if overhead := LUKSMetadataSize(parent.Format().LUKSVersion); size > overhead {
		size -= overhead
	}
	c := &LUKSContainer{
		Base: NewBase("luks-"+parent.Name(), size),
	}
	c.SetParents([]Device{parent})
	return c
}

func (c *LUKSContainer) Type() string { return "luks/dm-crypt" }

func (c *LUKSContainer) Encrypted() bool { return true }

func (c *LUKSContainer) Resizable() bool { return true }

func (c *LUKSContainer) Path() string { return "/dev/mapper/" + c.Name() }

func (c *LUKSContainer) Clone() Device {
	return &LUKSContainer{Base: c.cloneBase()}
}

// LUKSMetadataSize returns the header overhead for a LUKS version.
func LUKSMetadataSize(version string) uint64 {
	if version == "luks1" {
		// 2 MiB covers the LUKS1 header and key material
		return 2 * MiB
	}
	// 16 MiB is the default size of the LUKS2 header
	return 16 * MiB
}
