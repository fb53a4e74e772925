package planner

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rhinstaller/diskplanner/internal/device"
)

// scheduleVolumes builds the container over the implicit member
// partitions and schedules the volume requests inside it: logical
// volumes (plain or thin) for LVM schemes, subvolumes for btrfs.
func (p *Planner) scheduleVolumes(members []*device.Partition, requests []Request) error {
	if !p.Scheme.UsesContainer() || len(members) == 0 {
		return nil
	}

	// encrypted members get their mapped container now, after the
	// member sizes are final
	parents := make([]device.Device, 0, len(members))
	for _, member := range members {
		if member.Format().Type == "luks" {
			luks := device.NewLUKSContainer(member)
			luks.SetFormat(&device.Format{Type: p.Scheme.MemberFormat()})
			if err := p.Tree.CreateDevice(luks); err != nil {
				return &PartitioningError{Msg: err.Error()}
			}
			parents = append(parents, luks)
		} else {
			parents = append(parents, member)
		}
	}

	if p.Scheme == SchemeBtrfs {
		return p.scheduleSubvolumes(parents, requests)
	}
	return p.scheduleLogicalVolumes(parents, requests)
}

func (p *Planner) scheduleLogicalVolumes(parents []device.Device, requests []Request) error {
	vg := device.NewVolumeGroup(p.uniqueName(p.containerName()), parents...)
	if err := p.Tree.CreateDevice(vg); err != nil {
		return &PartitioningError{Msg: err.Error()}
	}
	logrus.Debugf("planner: volume group %q with %s over %d member(s)",
		vg.Name(), device.HumanSize(vg.Size()), len(parents))

	// the thin pool is created lazily with the first thin request
	var pool *device.LogicalVolume

	for _, req := range requests {
		if !req.LV {
			continue
		}
		if req.RequiredSpace > 0 && req.RequiredSpace > vg.Size() {
			logrus.Debugf("planner: skipping volume %q, required space %s exceeds group size",
				req.Mountpoint, device.HumanSize(req.RequiredSpace))
			continue
		}

		var parent device.Device = vg
		thin := p.Scheme == SchemeLVMThin && req.Thin
		if thin {
			if pool == nil {
				pool = device.NewLogicalVolume(p.uniqueName("pool00"), 0, vg)
				pool.SetThinPool(true)
				pool.SetGrow(true)
				vg.ReserveForThinPool()
				if err := p.Tree.CreateDevice(pool); err != nil {
					return &PartitioningError{Msg: err.Error()}
				}
			}
			parent = pool
		}

		lv := device.NewLogicalVolume(p.uniqueName(device.LVName(req.Mountpoint)), req.Size, parent)
		lv.SetGrow(req.Grow)
		lv.SetMaxSize(req.MaxSize)
		lv.SetThin(thin)
		lv.SetFormat(&device.Format{Type: req.FSType, Mountpoint: req.Mountpoint})
		if err := p.Tree.CreateDevice(lv); err != nil {
			return &PartitioningError{Msg: err.Error()}
		}
	}

	// the pool must cover its thin volumes before any growth is
	// distributed
	if pool != nil {
		var total uint64
		for _, child := range p.Tree.Children(pool) {
			if lv, ok := child.(*device.LogicalVolume); ok {
				total += extentAlign(lv.Size())
			}
		}
		pool.SetSize(total)
	}

	return nil
}

func (p *Planner) scheduleSubvolumes(parents []device.Device, requests []Request) error {
	vol := device.NewBtrfsVolume(p.uniqueName(p.containerName()), parents...)
	vol.SetFormat(&device.Format{Type: "btrfs", Label: vol.Name()})
	if err := p.Tree.CreateDevice(vol); err != nil {
		return &PartitioningError{Msg: err.Error()}
	}

	for _, req := range requests {
		if !req.Btrfs {
			continue
		}
		if req.RequiredSpace > 0 && req.RequiredSpace > vol.Size() {
			logrus.Debugf("planner: skipping subvolume %q, required space %s exceeds volume size",
				req.Mountpoint, device.HumanSize(req.RequiredSpace))
			continue
		}
		sv := device.NewBtrfsSubvolume(p.uniqueName(device.SubvolumeName(req.Mountpoint)), req.Size, vol)
		sv.SetFormat(&device.Format{Type: "btrfs", Mountpoint: req.Mountpoint})
		if err := p.Tree.CreateDevice(sv); err != nil {
			return &PartitioningError{Msg: err.Error()}
		}
	}

	return nil
}

// uniqueName appends a numeric suffix until the name is free in the
// tree.
func (p *Planner) uniqueName(base string) string {
	if p.Tree.GetDevice(base) == nil {
		return base
	}
	for n := 0; ; n++ {
		name := fmt.Sprintf("%s%02d", base, n)
		if p.Tree.GetDevice(name) == nil {
			return name
		}
	}
}

// growLVM distributes the free space of every scheduled volume group
// over its growable volumes, and the pool space over thin volumes.
func (p *Planner) growLVM() error {
	for _, d := range p.Tree.Devices() {
		vg, ok := d.(*device.VolumeGroup)
		if !ok {
			continue
		}
		if err := p.growVolumeGroup(vg); err != nil {
			return err
		}
	}
	return nil
}

func (p *Planner) growVolumeGroup(vg *device.VolumeGroup) error {
	var used uint64
	var growable []*device.LogicalVolume
	var pools []*device.LogicalVolume

	for _, child := range p.Tree.Children(vg) {
		lv, ok := child.(*device.LogicalVolume)
		if !ok {
			continue
		}
		used += extentAlign(lv.Size())
		if lv.Grow() && !lv.Exists() {
			growable = append(growable, lv)
		}
		if lv.ThinPool() {
			pools = append(pools, lv)
		}
	}

	if used > vg.Size() {
		return &PartitioningError{
			Msg: fmt.Sprintf("volume group %q is overcommitted (%s requested, %s available)",
				vg.Name(), device.HumanSize(used), device.HumanSize(vg.Size())),
		}
	}

	free := vg.Size() - used
	if reserve := vg.ThinPoolReserve(); reserve > 0 {
		if reserve > free {
			reserve = free
		}
		free -= reserve
	}
	distributeGrowth(growable, free)

	for _, pool := range pools {
		if err := p.growThinPool(vg, pool); err != nil {
			return err
		}
	}
	return nil
}

// growThinPool sizes the thin volumes against the grown pool. The
// pool itself grew with the group; its volumes share its space.
func (p *Planner) growThinPool(vg *device.VolumeGroup, pool *device.LogicalVolume) error {
	var used uint64
	var growable []*device.LogicalVolume

	for _, child := range p.Tree.Children(pool) {
		lv, ok := child.(*device.LogicalVolume)
		if !ok {
			continue
		}
		used += extentAlign(lv.Size())
		if lv.Grow() && !lv.Exists() {
			growable = append(growable, lv)
		}
	}

	if used > pool.Size() {
		return &PartitioningError{
			Msg: fmt.Sprintf("thin pool %q in volume group %q is overcommitted (%s requested, %s available)",
				pool.Name(), vg.Name(), device.HumanSize(used), device.HumanSize(pool.Size())),
		}
	}

	distributeGrowth(growable, pool.Size()-used)
	return nil
}

// distributeGrowth hands out free extents to the volumes in
// proportion to their base sizes, respecting each volume's maximum
// size. Space a capped volume cannot take goes back to the rest.
func distributeGrowth(lvs []*device.LogicalVolume, free uint64) {
	free = extentAlignDown(free)

	for free >= device.LVMExtentSize && len(lvs) > 0 {
		var base uint64
		for _, lv := range lvs {
			base += lv.Size()
		}
		if base == 0 {
			break
		}

		var granted uint64
		var uncapped []*device.LogicalVolume
		for _, lv := range lvs {
			share := extentAlignDown(uint64(float64(free) * float64(lv.Size()) / float64(base)))
			if share > free-granted {
				share = free - granted
			}
			capped := false
			if max := lv.MaxSize(); max > 0 && lv.Size()+share >= max {
				if max > lv.Size() {
					share = extentAlignDown(max - lv.Size())
				} else {
					share = 0
				}
				capped = true
			}
			lv.SetSize(lv.Size() + share)
			granted += share
			if !capped {
				uncapped = append(uncapped, lv)
			}
		}

		free -= granted
		if granted == 0 {
			// rounding stalled, hand the remainder to one volume
			if len(uncapped) > 0 && free >= device.LVMExtentSize {
				lv := uncapped[0]
				lv.SetSize(lv.Size() + free)
			}
			break
		}
		lvs = uncapped
	}
}

func extentAlign(size uint64) uint64 {
	if rem := size % device.LVMExtentSize; rem != 0 {
		size += device.LVMExtentSize - rem
	}
	return size
}

func extentAlignDown(size uint64) uint64 {
	return size - size%device.LVMExtentSize
}
