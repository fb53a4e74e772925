package device

// DefaultPartitionSize is the base size given to growable partition
// requests before allocation, and the floor a candidate disk's free
// region must clear.
const DefaultPartitionSize = uint64(500 * MiB)

// FallbackPartitionSize is the size implicit container members are
// shrunk to when a raw partition request would not fit next to them.
const FallbackPartitionSize = uint64(256 * MiB)

// Partition is a slice of a disk.
type Partition struct {
	Base

	start     uint64
	allocated bool
	grow      bool
	maxSize   uint64
	bootable  bool
}

// NewPartition creates a partition scheduled on the given disk. The
// partition starts out unallocated; the planner assigns its extent.
func NewPartition(name string, size uint64, parents ...Device) *Partition {
	p := &Partition{
		Base: NewBase(name, size),
	}
	p.SetParents(parents)
	return p
}

func (p *Partition) Type() string { return "partition" }

// Start is the offset of the partition on its disk in bytes. Only
// meaningful once Allocated reports true.
func (p *Partition) Start() uint64 { return p.start }

func (p *Partition) SetStart(start uint64) { p.start = start }

// Allocated reports whether the partition has a concrete extent.
// Existing partitions are always allocated; scheduled ones become
// allocated during planning.
func (p *Partition) Allocated() bool {
	return p.allocated || p.Exists()
}

func (p *Partition) SetAllocated(allocated bool) { p.allocated = allocated }

// Grow marks the partition as growable into remaining free space.
func (p *Partition) Grow() bool { return p.grow }

func (p *Partition) SetGrow(grow bool) { p.grow = grow }

// MaxSize limits growth; zero means unlimited.
func (p *Partition) MaxSize() uint64 { return p.maxSize }

func (p *Partition) SetMaxSize(size uint64) { p.maxSize = size }

func (p *Partition) Bootable() bool { return p.bootable }

func (p *Partition) SetBootable(bootable bool) { p.bootable = bootable }

// Disk returns the disk the partition lives on, or nil if the
// partition floats over a disk set and has not been allocated yet.
func (p *Partition) Disk() Device {
	parents := p.Parents()
	if len(parents) == 1 && parents[0].IsDisk() {
		return parents[0]
	}
	return nil
}

func (p *Partition) Resizable() bool {
	return !p.Format().Hidden
}

func (p *Partition) Clone() Device {
	return &Partition{
		Base:      p.cloneBase(),
		start:     p.start,
		allocated: p.allocated,
		grow:      p.grow,
		maxSize:   p.maxSize,
		bootable:  p.bootable,
	}
}
