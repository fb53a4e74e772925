// Package planner converts mount point requests plus a set of
// candidate disks into concrete scheduled devices: member
// partitions, containers, volumes and raw partitions, allocated
// against the free regions of the disks.
package planner

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/rhinstaller/diskplanner/internal/bootloader"
	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
)

// EncryptionSpec carries the encryption settings of one planning
// run.
type EncryptionSpec struct {
	Encrypted   bool
	Passphrase  string
	Cipher      string
	LUKSVersion string
	PBKDF       device.PBKDF
}

// luksFormat builds the "luks" format for a new encrypted device.
func (e EncryptionSpec) luksFormat() *device.Format {
	version := e.LUKSVersion
	if version == "" {
		version = "luks2"
	}
	return &device.Format{
		Type:        "luks",
		Passphrase:  e.Passphrase,
		LUKSVersion: version,
		Cipher:      e.Cipher,
		PBKDF:       e.PBKDF,
	}
}

// Planner schedules devices for a set of requests on one device
// tree. A planner is used for a single run and not reused.
type Planner struct {
	Tree       *devicetree.DeviceTree
	Boot       bootloader.Executor
	Scheme     Scheme
	Encryption EncryptionSpec

	// DefaultFSType fills volume requests without an explicit type.
	DefaultFSType string

	// ContainerName names the implicit volume group or btrfs volume.
	ContainerName string

	// SelectedDisks restricts the candidate disks to the named ones;
	// empty means all usable disks.
	SelectedDisks []string

	reqCounter int
}

// Plan runs all the allocation passes: candidate selection, implicit
// container members, raw partitions, extent allocation, container
// assembly and volumes, and volume growth.
func (p *Planner) Plan(requests []Request) error {
	usable := 0
	for _, disk := range p.Tree.PartitionedDisks() {
		if !disk.Protected() && !disk.Format().Hidden {
			usable++
		}
	}
	if usable == 0 {
		return &NoDisksError{}
	}

	disks := p.candidateDisks()
	logrus.Debugf("planner: candidate disks: %s", diskNames(disks))

	devs := p.scheduleImplicitPartitions(disks)

	if len(disks) == 0 {
		return &NotEnoughFreeSpaceError{}
	}

	devs, err := p.schedulePartitions(disks, devs, requests)
	if err != nil {
		return err
	}

	if err := p.allocatePartitions(disks); err != nil {
		return err
	}

	if err := p.scheduleVolumes(devs, requests); err != nil {
		return err
	}

	return p.growLVM()
}

// candidateDisks filters the disks usable for allocation: carrying a
// disklabel, not protected, selected (when a selection exists), and
// offering at least one free region that clears the default
// partition size.
func (p *Planner) candidateDisks() []*device.Disk {
	var disks []*device.Disk
	for _, disk := range p.Tree.PartitionedDisks() {
		if disk.Protected() || disk.Format().Hidden {
			continue
		}
		if len(p.SelectedDisks) > 0 && !slices.Contains(p.SelectedDisks, disk.Name()) {
			continue
		}
		for _, region := range p.Tree.FreeRegions([]*device.Disk{disk}) {
			if region.Size > device.DefaultPartitionSize {
				disks = append(disks, disk)
				break
			}
		}
	}
	return disks
}

// scheduleImplicitPartitions schedules one grow-to-fill member
// partition per candidate disk for schemes that build a container.
// The members are not linked into a container yet.
func (p *Planner) scheduleImplicitPartitions(disks []*device.Disk) []*device.Partition {
	var devs []*device.Partition

	if !p.Scheme.UsesContainer() {
		return devs
	}

	for _, disk := range disks {
		part := device.NewPartition(p.nextRequestName(), device.DefaultPartitionSize, disk)
		part.SetGrow(true)
		if p.Encryption.Encrypted {
			part.SetFormat(p.Encryption.luksFormat())
		} else {
			part.SetFormat(&device.Format{Type: p.Scheme.MemberFormat()})
		}
		if err := p.Tree.CreateDevice(part); err != nil {
			// names are generated, collisions cannot happen
			panic(err)
		}
		devs = append(devs, part)
	}

	return devs
}

// schedulePartitions schedules the raw partition requests. Volume
// requests are handled later; bootloader stage1 requests are skipped
// when a suitable device already exists on the boot disk.
func (p *Planner) schedulePartitions(disks []*device.Disk, implicit []*device.Partition, requests []Request) ([]*device.Partition, error) {
	allFree := p.Tree.LargestFreeRegions(disks)
	if len(allFree) == 0 {
		// cannot happen: candidate disks were filtered on free space
		logrus.Errorf("planner: no free space on disks %s", diskNames(disks))
		return implicit, nil
	}

	// requests with a required-space gate are measured against the
	// two largest free regions: growable requests can span at most
	// the combination of the two largest gaps
	free := allFree[0]
	if len(allFree) > 1 {
		free += allFree[1]
	}

	stage1 := p.existingStage1Device()

	for _, req := range requests {
		if req.LV && p.Scheme.UsesLVM() {
			continue
		}
		if req.Btrfs && p.Scheme == SchemeBtrfs {
			continue
		}
		if req.RequiredSpace > 0 && req.RequiredSpace > free {
			logrus.Debugf("planner: skipping %q, required space %s not available",
				req.Mountpoint, device.HumanSize(req.RequiredSpace))
			continue
		}

		switch req.FSType {
		case "efi", "macefi", "prepboot":
			if p.skipBootloader() || stage1 != nil {
				logrus.Infof("planner: skipping unneeded stage1 %s request", req.FSType)
				if stage1 != nil && (req.FSType == "efi" || req.FSType == "macefi") {
					// reuse the existing EFI system partition
					stage1.Format().Mountpoint = "/boot/efi"
				}
				continue
			}
		case "biosboot":
			if !p.needsBiosBoot(stage1) {
				logrus.Infof("planner: skipping unneeded stage1 biosboot request")
				continue
			}
		}

		if req.Size > allFree[0] {
			return nil, &NotEnoughFreeSpaceError{
				Msg: "No big enough free space on disks for automatic partitioning",
			}
		}

		part := device.NewPartition(p.nextRequestName(), req.Size, diskDevices(disks)...)
		part.SetGrow(req.Grow)
		part.SetMaxSize(req.MaxSize)

		encrypted := req.Encrypted && p.Encryption.Encrypted
		if encrypted {
			part.SetFormat(p.Encryption.luksFormat())
		} else {
			part.SetFormat(&device.Format{Type: req.FSType, Mountpoint: req.Mountpoint})
		}
		if err := p.Tree.CreateDevice(part); err != nil {
			return nil, &PartitioningError{Msg: err.Error()}
		}
		if encrypted {
			luks := device.NewLUKSContainer(part)
			luks.SetFormat(&device.Format{Type: req.FSType, Mountpoint: req.Mountpoint})
			if err := p.Tree.CreateDevice(luks); err != nil {
				return nil, &PartitioningError{Msg: err.Error()}
			}
		}

		if p.Scheme.UsesContainer() && len(implicit) > 0 {
			// make sure the new partition fits in some free region
			// together with the smallest implicit member; if not,
			// shrink all members to the fallback size to favor the
			// explicit request over container space
			smallest := implicit[0]
			for _, member := range implicit {
				if member.Size() < smallest.Size() {
					smallest = member
				}
			}
			if req.Size+smallest.Size() > allFree[0] {
				logrus.Debugf("planner: shrinking implicit members to %s to make room for %q",
					device.HumanSize(device.FallbackPartitionSize), req.Mountpoint)
				for _, member := range implicit {
					member.SetSize(device.FallbackPartitionSize)
				}
			}
		}
	}

	return implicit, nil
}

// existingStage1Device finds a device on the boot disk that could
// already serve as the bootloader stage1 target.
func (p *Planner) existingStage1Device() device.Device {
	if p.Boot == nil || p.Boot.Skip() || p.Boot.Stage1Disk() == nil {
		return nil
	}
	bootDisk := p.Boot.Stage1Disk()
	for _, d := range p.Tree.Devices() {
		if d.IsDisk() {
			continue
		}
		if !slices.ContainsFunc(device.Disks(d), func(disk device.Device) bool {
			return disk == device.Device(bootDisk)
		}) {
			continue
		}
		if p.Boot.IsValidStage1Device(d, true) {
			return d
		}
	}
	return nil
}

func (p *Planner) skipBootloader() bool {
	return p.Boot == nil || p.Boot.Skip()
}

// needsBiosBoot reports whether a biosboot partition must be
// allocated: GPT boot disk, bootloader wanted, and no biosboot
// partition present yet.
func (p *Planner) needsBiosBoot(stage1 device.Device) bool {
	if p.skipBootloader() || stage1 != nil {
		return false
	}
	bootDisk := p.Boot.Stage1Disk()
	if bootDisk == nil || bootDisk.LabelType() != "gpt" {
		return false
	}
	for _, part := range p.Tree.DiskPartitions(bootDisk) {
		if part.Format().Type == "biosboot" {
			return false
		}
	}
	return true
}

func (p *Planner) nextRequestName() string {
	p.reqCounter++
	return "req" + strconv.Itoa(p.reqCounter)
}

func (p *Planner) containerName() string {
	if p.ContainerName != "" {
		return p.ContainerName
	}
	return "system"
}

func diskDevices(disks []*device.Disk) []device.Device {
	out := make([]device.Device, len(disks))
	for i, d := range disks {
		out[i] = d
	}
	return out
}

func diskNames(disks []*device.Disk) string {
	names := make([]string, len(disks))
	for i, d := range disks {
		names[i] = d.Name()
	}
	return fmt.Sprintf("%v", names)
}
