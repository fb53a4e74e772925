package planner

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/rhinstaller/diskplanner/internal/device"
)

// allocatePartitions assigns concrete extents to all scheduled
// partitions. Fixed-size requests are placed first, growable ones
// after them so growth can claim trailing free space. Placement is
// first-fit over the free regions in ascending disk and offset
// order.
func (p *Planner) allocatePartitions(disks []*device.Disk) error {
	var fixed, growable []*device.Partition
	for _, part := range p.Tree.Partitions() {
		if part.Allocated() {
			continue
		}
		if part.Grow() {
			growable = append(growable, part)
		} else {
			fixed = append(fixed, part)
		}
	}

	for _, part := range append(fixed, growable...) {
		if err := p.placePartition(part, disks); err != nil {
			return err
		}
	}

	p.growPartitions(disks)
	return nil
}

// placePartition finds the first free region that fits the partition
// and pins the partition there. A partition scheduled on a single
// disk stays on that disk; one floating over a disk set takes the
// first disk with room.
func (p *Planner) placePartition(part *device.Partition, disks []*device.Disk) error {
	candidates := disks
	if d := part.Disk(); d != nil {
		if disk, ok := d.(*device.Disk); ok {
			candidates = []*device.Disk{disk}
		}
	}

	for _, disk := range candidates {
		for _, region := range p.Tree.FreeRegions([]*device.Disk{disk}) {
			if region.Size < part.Size() {
				continue
			}
			part.SetParents([]device.Device{disk})
			part.SetStart(region.Start)
			part.SetAllocated(true)
			name := p.nextPartitionName(disk)
			if err := p.Tree.RenameDevice(part, name); err != nil {
				return &PartitioningError{Msg: err.Error()}
			}
			if luks := p.luksChild(part); luks != nil {
				if err := p.Tree.RenameDevice(luks, "luks-"+name); err != nil {
					return &PartitioningError{Msg: err.Error()}
				}
			}
			logrus.Debugf("planner: allocated %q at %s+%s on %s",
				part.Name(), device.HumanSize(part.Start()),
				device.HumanSize(part.Size()), disk.Name())
			return nil
		}
	}

	return &PartitioningError{
		Msg: fmt.Sprintf("unable to allocate a %s partition for %q",
			device.HumanSize(part.Size()), requestLabel(part)),
	}
}

// nextPartitionName returns the first unused partition name on the
// disk, e.g. "vda3".
func (p *Planner) nextPartitionName(disk *device.Disk) string {
	for n := 1; ; n++ {
		name := disk.Name() + strconv.Itoa(n)
		if p.Tree.GetDevice(name) == nil {
			return name
		}
	}
}

// growPartitions extends growable scheduled partitions into the free
// region immediately following them, bounded by their maximum size.
func (p *Planner) growPartitions(disks []*device.Disk) {
	for _, disk := range disks {
		for _, part := range p.Tree.DiskPartitions(disk) {
			if part.Exists() || !part.Allocated() || !part.Grow() {
				continue
			}
			end := part.Start() + part.Size()
			for _, region := range p.Tree.FreeRegions([]*device.Disk{disk}) {
				if region.Start != device.AlignUp(end) {
					continue
				}
				extra := region.Size
				if max := part.MaxSize(); max > 0 && part.Size()+extra > max {
					if max <= part.Size() {
						break
					}
					extra = device.AlignDown(max - part.Size())
				}
				if extra == 0 {
					break
				}
				part.SetSize(part.Size() + extra + (region.Start - end))
				logrus.Debugf("planner: grew %q to %s",
					part.Name(), device.HumanSize(part.Size()))
				p.resizeLUKSChild(part)
				break
			}
		}
	}
}

// luksChild returns the LUKS container sitting directly on the
// device, or nil.
func (p *Planner) luksChild(d device.Device) *device.LUKSContainer {
	for _, child := range p.Tree.Children(d) {
		if luks, ok := child.(*device.LUKSContainer); ok {
			return luks
		}
	}
	return nil
}

// resizeLUKSChild keeps the mapped container in sync with its grown
// parent.
func (p *Planner) resizeLUKSChild(part *device.Partition) {
	luks := p.luksChild(part)
	if luks == nil {
		return
	}
	size := part.Size()
	if overhead := device.LUKSMetadataSize(part.Format().LUKSVersion); size > overhead {
		size -= overhead
	}
	luks.SetSize(size)
}

// requestLabel describes a partition in errors: the mount point when
// it has one, the format type otherwise.
func requestLabel(d device.Device) string {
	if mp := d.Format().Mountpoint; mp != "" {
		return mp
	}
	if t := d.Format().Type; t != "" {
		return t
	}
	return d.Name()
}
