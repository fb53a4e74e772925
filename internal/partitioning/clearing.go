package partitioning

import (
	"sort"

	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"

	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
)

// InitializationMode says which existing devices may be removed
// before new ones are scheduled.
type InitializationMode int

const (
	// InitDefault defers to the strategy's own policy.
	InitDefault InitializationMode = iota
	// InitNone keeps all existing devices.
	InitNone
	// InitAll removes everything removable on the selected disks.
	InitAll
	// InitList removes only the explicitly listed devices.
	InitList
	// InitLinux removes devices carrying Linux-native formats.
	InitLinux
)

func (m InitializationMode) String() string {
	switch m {
	case InitNone:
		return "none"
	case InitAll:
		return "all"
	case InitList:
		return "list"
	case InitLinux:
		return "linux"
	}
	return "default"
}

// DiskInitializationConfig describes the clearing step. The config is
// value-typed and not mutated by the clearing pass.
type DiskInitializationConfig struct {
	Mode InitializationMode

	// DrivesToClear restricts clearing to matching disks; glob
	// patterns are allowed. Empty means all disks.
	DrivesToClear []string

	// DevicesToClear lists the devices removed under InitList; glob
	// patterns are allowed.
	DevicesToClear []string

	// InitializeLabels writes a fresh disklabel on cleared and
	// unformatted disks.
	InitializeLabels bool

	// DefaultLabelType overrides the disklabel type written when
	// initializing, empty means GPT.
	DefaultLabelType string

	// FormatUnrecognized treats disks with no recognizable format
	// like empty disks and labels them.
	FormatUnrecognized bool

	// ClearNonExistent extends clearing to devices that are only
	// scheduled; their pending creation is cancelled.
	ClearNonExistent bool
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			// a bad pattern matches only literally
			if pattern == name {
				return true
			}
			continue
		}
		if g.Match(name) {
			return true
		}
	}
	return false
}

// driveSelected reports whether the disk is within the clearing
// scope.
func (c DiskInitializationConfig) driveSelected(disk device.Device) bool {
	if len(c.DrivesToClear) == 0 {
		return true
	}
	return matchAny(c.DrivesToClear, disk.Name())
}

// CanRemove reports whether the device may be cleared away under this
// configuration. Protected devices are never removable.
func (c DiskInitializationConfig) CanRemove(t *devicetree.DeviceTree, d device.Device) bool {
	if d.Protected() {
		return false
	}
	for _, desc := range t.Descendants(d) {
		if desc.Protected() {
			return false
		}
	}

	part, ok := d.(*device.Partition)
	if !ok {
		return false
	}
	disk := part.Disk()
	if disk == nil || !c.driveSelected(disk) {
		return false
	}

	switch c.Mode {
	case InitAll:
		return true
	case InitList:
		return matchAny(c.DevicesToClear, d.Name())
	case InitLinux:
		return linuxContent(t, d)
	}
	return false
}

// linuxContent reports whether the device or anything stacked on it
// carries a Linux-native format.
func linuxContent(t *devicetree.DeviceTree, d device.Device) bool {
	if f := d.Format(); f.LinuxNative() || f.Type == "luks" || f.Type == "lvmpv" {
		return true
	}
	for _, desc := range t.Descendants(d) {
		if f := desc.Format(); f.LinuxNative() || f.Type == "luks" || f.Type == "lvmpv" {
			return true
		}
	}
	return false
}

// CanInitialize reports whether the disk should get a fresh
// disklabel: it is in scope, empty, and either labeling was requested
// or the disk has no recognizable content.
func (c DiskInitializationConfig) CanInitialize(t *devicetree.DeviceTree, disk *device.Disk) bool {
	if disk.Protected() || !c.driveSelected(disk) {
		return false
	}
	if !t.IsEmpty(disk) {
		return false
	}
	if c.InitializeLabels {
		return true
	}
	return c.FormatUnrecognized && !disk.Partitioned()
}

// ClearPartitions removes the clearable devices and initializes the
// emptied disks. Partitions are removed in descending on-disk order
// so later partitions never outlive earlier ones they number after.
func ClearPartitions(t *devicetree.DeviceTree, cfg DiskInitializationConfig) error {
	if cfg.Mode == InitDefault || cfg.Mode == InitNone {
		cfg.Mode = InitNone
	}

	var clearable []*device.Partition
	for _, part := range t.Partitions() {
		if !part.Exists() && !cfg.ClearNonExistent {
			continue
		}
		if cfg.CanRemove(t, part) {
			clearable = append(clearable, part)
		}
	}
	sort.SliceStable(clearable, func(i, j int) bool {
		di, dj := clearable[i].Disk(), clearable[j].Disk()
		if di != dj {
			return di.Name() < dj.Name()
		}
		return clearable[i].Start() > clearable[j].Start()
	})

	for _, part := range clearable {
		logrus.Debugf("partitioning: clearing partition %q", part.Name())
		if err := t.RecursiveRemove(part); err != nil {
			return err
		}
	}

	for _, disk := range t.UsableDisks() {
		if cfg.CanInitialize(t, disk) {
			logrus.Debugf("partitioning: initializing disklabel on %q", disk.Name())
			if err := t.InitializeDisk(disk, cfg.DefaultLabelType); err != nil {
				return err
			}
		}
	}

	return nil
}
