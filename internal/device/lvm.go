package device

// LVMExtentSize is the default physical extent size of a volume
// group. Member contributions are rounded down to extent multiples.
const LVMExtentSize = uint64(4 * MiB)

// LVMMetadataSize is the space reserved on each physical volume for
// LVM metadata.
const LVMMetadataSize = uint64(MiB)

// DefaultThinPoolReserve is the fraction of the volume group kept
// free so a thin pool can grow, expressed in percent, with absolute
// bounds.
const (
	DefaultThinPoolReservePercent = 20
	DefaultThinPoolReserveMin     = uint64(1 * GiB)
	DefaultThinPoolReserveMax     = uint64(100 * GiB)
)

// SizePolicy says how a container tracks its size.
type SizePolicy int

const (
	// SizeAuto recomputes the container size from its members.
	SizeAuto SizePolicy = iota
	// SizeFixed keeps an explicitly assigned size.
	SizeFixed
)

// VolumeGroup aggregates physical volumes and hosts logical volumes.
type VolumeGroup struct {
	Base

	sizePolicy      SizePolicy
	raidLevel       string
	thinPoolReserve uint64
}

// NewVolumeGroup creates a volume group over the given members
// (lvmpv-formatted partitions or LUKS containers). Its size is
// recomputed from the members.
func NewVolumeGroup(name string, members ...Device) *VolumeGroup {
	vg := &VolumeGroup{
		Base: NewBase(name, 0),
	}
	vg.SetParents(members)
	vg.SetSize(vg.RecomputeSize())
	return vg
}

func (vg *VolumeGroup) Type() string { return "lvmvg" }

func (vg *VolumeGroup) AutoSize() bool { return vg.sizePolicy == SizeAuto }

func (vg *VolumeGroup) SetSizePolicy(policy SizePolicy) { vg.sizePolicy = policy }

func (vg *VolumeGroup) RaidLevel() string { return vg.raidLevel }

func (vg *VolumeGroup) SetRaidLevel(level string) { vg.raidLevel = level }

// ThinPoolReserve is the space the group keeps free for thin-pool
// growth. Zero when no thin pool was requested.
func (vg *VolumeGroup) ThinPoolReserve() uint64 { return vg.thinPoolReserve }

// ReserveForThinPool sets the reserve to the default fraction of the
// current group size, clamped to the absolute bounds.
func (vg *VolumeGroup) ReserveForThinPool() {
	reserve := vg.Size() / 100 * DefaultThinPoolReservePercent
	if reserve < DefaultThinPoolReserveMin {
		reserve = DefaultThinPoolReserveMin
	}
	if reserve > DefaultThinPoolReserveMax {
		reserve = DefaultThinPoolReserveMax
	}
	if reserve > vg.Size() {
		reserve = vg.Size() / 5
	}
	vg.thinPoolReserve = reserve
}

// RecomputeSize derives the group size from the current members:
// each contributes its size minus LVM metadata, rounded down to a
// whole number of extents.
func (vg *VolumeGroup) RecomputeSize() uint64 {
	var total uint64
	for _, member := range vg.Parents() {
		size := member.Size()
		if size <= LVMMetadataSize {
			continue
		}
		size -= LVMMetadataSize
		total += size - size%LVMExtentSize
	}
	return total
}

func (vg *VolumeGroup) Path() string { return "/dev/" + vg.Name() }

func (vg *VolumeGroup) Clone() Device {
	return &VolumeGroup{
		Base:            vg.cloneBase(),
		sizePolicy:      vg.sizePolicy,
		raidLevel:       vg.raidLevel,
		thinPoolReserve: vg.thinPoolReserve,
	}
}

// LogicalVolume is a volume inside a volume group, optionally a thin
// pool or a thin volume drawing from a pool.
type LogicalVolume struct {
	Base

	grow     bool
	maxSize  uint64
	thinPool bool
	thin     bool
}

// NewLogicalVolume creates a logical volume with the given parent,
// either a volume group or, for thin volumes, a thin pool.
func NewLogicalVolume(name string, size uint64, parent Device) *LogicalVolume {
	lv := &LogicalVolume{
		Base: NewBase(name, size),
	}
	lv.SetParents([]Device{parent})
	return lv
}

func (lv *LogicalVolume) Type() string {
	switch {
	case lv.thinPool:
		return "lvmthinpool"
	case lv.thin:
		return "lvmthinlv"
	}
	return "lvmlv"
}

func (lv *LogicalVolume) Grow() bool { return lv.grow }

func (lv *LogicalVolume) SetGrow(grow bool) { lv.grow = grow }

func (lv *LogicalVolume) MaxSize() uint64 { return lv.maxSize }

func (lv *LogicalVolume) SetMaxSize(size uint64) { lv.maxSize = size }

func (lv *LogicalVolume) ThinPool() bool { return lv.thinPool }

func (lv *LogicalVolume) SetThinPool(pool bool) { lv.thinPool = pool }

func (lv *LogicalVolume) Thin() bool { return lv.thin }

func (lv *LogicalVolume) SetThin(thin bool) { lv.thin = thin }

func (lv *LogicalVolume) Resizable() bool { return !lv.thinPool }

// VolumeGroup returns the group the volume belongs to, walking
// through a thin pool if needed.
func (lv *LogicalVolume) VolumeGroup() *VolumeGroup {
	for _, p := range lv.Parents() {
		switch parent := p.(type) {
		case *VolumeGroup:
			return parent
		case *LogicalVolume:
			return parent.VolumeGroup()
		}
	}
	return nil
}

func (lv *LogicalVolume) Path() string {
	if vg := lv.VolumeGroup(); vg != nil {
		return "/dev/" + vg.Name() + "/" + lv.Name()
	}
	return "/dev/" + lv.Name()
}

func (lv *LogicalVolume) Clone() Device {
	return &LogicalVolume{
		Base:     lv.cloneBase(),
		grow:     lv.grow,
		maxSize:  lv.maxSize,
		thinPool: lv.thinPool,
		thin:     lv.thin,
	}
}
