// Package device defines the nodes of the storage graph: disks,
// partitions, encrypted containers, LVM and BTRFS devices, and the
// formats they carry.
//
// Devices expose their abilities through small capability interfaces
// (Resizable, Encryptable, Container) that callers query with type
// assertions instead of probing for attributes.
package device

// Device is a node in the storage graph. A device has a stable name
// (unique within one graph), a size in bytes, an existence flag that
// distinguishes devices already on disk from scheduled ones, a format
// descriptor and a list of parent devices it depends on.
type Device interface {
	Name() string
	SetName(name string)

	Size() uint64
	SetSize(size uint64)

	Exists() bool
	SetExists(exists bool)

	// Protected devices must never be destroyed, e.g. a device
	// holding the installation media.
	Protected() bool
	SetProtected(protected bool)

	Format() *Format
	SetFormat(format *Format)

	Parents() []Device
	SetParents(parents []Device)

	// Type is a short identifier of the device variant, e.g.
	// "partition" or "lvmlv". Used in messages and device-tree views.
	Type() string

	IsDisk() bool

	// Clone returns a copy of the device with identical attribute
	// values. Parent references are carried over as-is; the graph
	// copy remaps them onto the cloned nodes afterwards.
	Clone() Device

	// Path is the device node path, e.g. "/dev/sda1".
	Path() string
}

// Resizable is implemented by devices that support scheduling a
// resize action.
type Resizable interface {
	Resizable() bool
}

// Encryptable is implemented by devices that are, or can be, backed
// by an encrypted layer.
type Encryptable interface {
	Encrypted() bool
}

// Container is implemented by aggregation devices (volume groups,
// BTRFS volumes) that own member devices and host volume children.
type Container interface {
	// AutoSize reports whether the container size is a function of
	// its members rather than a fixed value.
	AutoSize() bool

	RaidLevel() string
}

// Base carries the attributes shared by every device variant and
// implements the common part of the Device interface. Concrete
// devices embed it.
type Base struct {
	name      string
	size      uint64
	exists    bool
	protected bool
	format    *Format
	parents   []Device
}

// NewBase initializes the shared attributes. The format starts out
// empty (unformatted) but never nil.
func NewBase(name string, size uint64) Base {
	return Base{
		name:   name,
		size:   size,
		format: &Format{},
	}
}

func (b *Base) Name() string { return b.name }

func (b *Base) SetName(name string) { b.name = name }

func (b *Base) Size() uint64 { return b.size }

func (b *Base) SetSize(size uint64) { b.size = size }

func (b *Base) Exists() bool { return b.exists }

func (b *Base) SetExists(exists bool) { b.exists = exists }

func (b *Base) Protected() bool { return b.protected }

func (b *Base) SetProtected(protected bool) { b.protected = protected }

func (b *Base) Format() *Format { return b.format }

func (b *Base) SetFormat(format *Format) {
	if format == nil {
		format = &Format{}
	}
	b.format = format
}

func (b *Base) Parents() []Device { return b.parents }

func (b *Base) SetParents(parents []Device) { b.parents = parents }

func (b *Base) IsDisk() bool { return false }

func (b *Base) Path() string { return "/dev/" + b.name }

// cloneBase copies the shared attributes. The parents slice is
// duplicated so that remapping one graph never touches another.
func (b *Base) cloneBase() Base {
	clone := *b
	clone.format = b.format.Clone()
	clone.parents = make([]Device, len(b.parents))
	copy(clone.parents, b.parents)
	return clone
}

// Disks returns the disks the device ultimately depends on.
func Disks(d Device) []Device {
	var disks []Device
	seen := map[string]bool{}
	var walk func(Device)
	walk = func(dev Device) {
		if dev.IsDisk() {
			if !seen[dev.Name()] {
				seen[dev.Name()] = true
				disks = append(disks, dev)
			}
			return
		}
		for _, p := range dev.Parents() {
			walk(p)
		}
	}
	walk(d)
	return disks
}

// Ancestors returns the transitive parents of the device, nearest
// first. The device itself is not included.
func Ancestors(d Device) []Device {
	var out []Device
	seen := map[string]bool{}
	var walk func(Device)
	walk = func(dev Device) {
		for _, p := range dev.Parents() {
			if seen[p.Name()] {
				continue
			}
			seen[p.Name()] = true
			out = append(out, p)
			walk(p)
		}
	}
	walk(d)
	return out
}

// DependsOn reports whether the device has other among its
// ancestors.
func DependsOn(d, other Device) bool {
	for _, a := range Ancestors(d) {
		if a == other {
			return true
		}
	}
	return false
}
