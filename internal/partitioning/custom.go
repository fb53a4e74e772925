package partitioning

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rhinstaller/diskplanner/internal/bootloader"
	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
	"github.com/rhinstaller/diskplanner/internal/planner"
)

// SpecKind is the device kind of one custom specification.
type SpecKind int

const (
	SpecPartition SpecKind = iota
	SpecVolumeGroup
	SpecLogicalVolume
	SpecBtrfsVolume
	SpecBtrfsSubvolume
)

func (k SpecKind) String() string {
	switch k {
	case SpecPartition:
		return "partition"
	case SpecVolumeGroup:
		return "volgroup"
	case SpecLogicalVolume:
		return "logvol"
	case SpecBtrfsVolume:
		return "btrfs"
	case SpecBtrfsSubvolume:
		return "subvolume"
	}
	return "unknown"
}

// CustomSpec is one device in a custom layout. Specs are replayed in
// order, so containers must be listed after their members and
// volumes after their containers.
type CustomSpec struct {
	Kind SpecKind
	Name string

	// Disk pins a partition to a disk; empty takes the first disk
	// with room.
	Disk string

	Size    uint64
	Grow    bool
	MaxSize uint64

	FSType     string
	Mountpoint string
	Label      string

	Encrypted  bool
	Passphrase string

	// Parent names the volume group of a logical volume, the pool of
	// a thin volume, or the volume of a subvolume.
	Parent string

	// Members lists the member devices of a volume group or btrfs
	// volume.
	Members []string

	ThinPool bool
	Thin     bool
}

// CustomConfig is the configuration of a custom run: an optional
// clearing step followed by an ordered device list.
type CustomConfig struct {
	Platform bootloader.Platform
	Clearing DiskInitializationConfig

	Specs []CustomSpec

	SkipBootloader bool
}

// Custom replays an explicit, ordered device list onto the tree.
type Custom struct {
	cfg  CustomConfig
	boot *bootloader.GRUB
}

func NewCustom(cfg CustomConfig) *Custom {
	boot := bootloader.NewGRUB(cfg.Platform)
	boot.SetSkip(cfg.SkipBootloader)
	return &Custom{cfg: cfg, boot: boot}
}

func (c *Custom) Method() Method { return MethodCustom }

func (c *Custom) Bootloader() bootloader.Executor { return c.boot }

func (c *Custom) Configure(t *devicetree.DeviceTree) error {
	if err := ClearPartitions(t, c.cfg.Clearing); err != nil {
		return err
	}
	if err := c.boot.Prepare(t, true); err != nil {
		return err
	}

	for _, spec := range c.cfg.Specs {
		if err := scheduleSpec(t, spec); err != nil {
			return fmt.Errorf("scheduling %s %q: %w", spec.Kind, spec.Name, err)
		}
	}

	return c.boot.Finalize(t)
}

func scheduleSpec(t *devicetree.DeviceTree, spec CustomSpec) error {
	switch spec.Kind {
	case SpecPartition:
		return schedulePartitionSpec(t, spec)
	case SpecVolumeGroup:
		members, err := resolveMembers(t, spec.Members)
		if err != nil {
			return err
		}
		vg := device.NewVolumeGroup(spec.Name, members...)
		return t.CreateDevice(vg)
	case SpecLogicalVolume:
		parent, err := t.Resolve(spec.Parent)
		if err != nil {
			return err
		}
		lv := device.NewLogicalVolume(spec.Name, spec.Size, parent)
		lv.SetGrow(spec.Grow)
		lv.SetMaxSize(spec.MaxSize)
		lv.SetThinPool(spec.ThinPool)
		lv.SetThin(spec.Thin)
		if !spec.ThinPool {
			lv.SetFormat(&device.Format{
				Type:       spec.FSType,
				Mountpoint: spec.Mountpoint,
				Label:      spec.Label,
			})
		}
		return t.CreateDevice(lv)
	case SpecBtrfsVolume:
		members, err := resolveMembers(t, spec.Members)
		if err != nil {
			return err
		}
		vol := device.NewBtrfsVolume(spec.Name, members...)
		vol.SetFormat(&device.Format{Type: "btrfs", Label: spec.Label})
		return t.CreateDevice(vol)
	case SpecBtrfsSubvolume:
		parent, err := t.Resolve(spec.Parent)
		if err != nil {
			return err
		}
		sv := device.NewBtrfsSubvolume(spec.Name, spec.Size, parent)
		sv.SetFormat(&device.Format{Type: "btrfs", Mountpoint: spec.Mountpoint})
		return t.CreateDevice(sv)
	}
	return fmt.Errorf("unknown spec kind %v", spec.Kind)
}

// schedulePartitionSpec creates and immediately places one partition.
func schedulePartitionSpec(t *devicetree.DeviceTree, spec CustomSpec) error {
	disks := t.UsableDisks()
	if spec.Disk != "" {
		d, err := t.Resolve(spec.Disk)
		if err != nil {
			return err
		}
		disk, ok := d.(*device.Disk)
		if !ok {
			return &devicetree.UnknownDeviceError{Spec: spec.Disk}
		}
		disks = []*device.Disk{disk}
	}

	size := spec.Size
	if size == 0 {
		size = device.DefaultPartitionSize
	}

	for _, disk := range disks {
		for _, region := range t.FreeRegions([]*device.Disk{disk}) {
			if region.Size < size {
				continue
			}
			name := spec.Name
			if name == "" {
				name = nextPartitionName(t, disk)
			}
			part := device.NewPartition(name, size, disk)
			part.SetStart(region.Start)
			part.SetAllocated(true)
			part.SetGrow(spec.Grow)
			part.SetMaxSize(spec.MaxSize)
			if spec.Encrypted {
				part.SetFormat(&device.Format{Type: "luks", Passphrase: spec.Passphrase, LUKSVersion: "luks2"})
			} else {
				part.SetFormat(&device.Format{
					Type:       spec.FSType,
					Mountpoint: spec.Mountpoint,
					Label:      spec.Label,
				})
			}
			if err := t.CreateDevice(part); err != nil {
				return err
			}
			if spec.Encrypted {
				luks := device.NewLUKSContainer(part)
				luks.SetFormat(&device.Format{
					Type:       spec.FSType,
					Mountpoint: spec.Mountpoint,
					Label:      spec.Label,
				})
				if err := t.CreateDevice(luks); err != nil {
					return err
				}
			}
			logrus.Debugf("partitioning: placed custom partition %q on %q", part.Name(), disk.Name())
			return nil
		}
	}

	return &planner.NotEnoughFreeSpaceError{
		Msg: fmt.Sprintf("No big enough free space for a %s partition", device.HumanSize(size)),
	}
}

func nextPartitionName(t *devicetree.DeviceTree, disk *device.Disk) string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s%d", disk.Name(), n)
		if t.GetDevice(name) == nil {
			return name
		}
	}
}

func resolveMembers(t *devicetree.DeviceTree, names []string) ([]device.Device, error) {
	members := make([]device.Device, 0, len(names))
	for _, name := range names {
		d, err := t.Resolve(name)
		if err != nil {
			return nil, err
		}
		members = append(members, d)
	}
	return members, nil
}
