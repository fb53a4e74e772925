package device

import "strings"

// BtrfsVolume aggregates btrfs-formatted members into one volume
// hosting subvolumes.
type BtrfsVolume struct {
	Base

	raidLevel string
}

// NewBtrfsVolume creates a volume over the given members. Its size
// tracks the members (single-profile data).
func NewBtrfsVolume(name string, members ...Device) *BtrfsVolume {
	v := &BtrfsVolume{
		Base: NewBase(name, 0),
	}
	v.SetParents(members)
	v.SetSize(v.RecomputeSize())
	return v
}

func (v *BtrfsVolume) Type() string { return "btrfs volume" }

func (v *BtrfsVolume) AutoSize() bool { return true }

func (v *BtrfsVolume) RaidLevel() string { return v.raidLevel }

func (v *BtrfsVolume) SetRaidLevel(level string) { v.raidLevel = level }

// RecomputeSize derives the volume size from the current members.
func (v *BtrfsVolume) RecomputeSize() uint64 {
	var total uint64
	for _, member := range v.Parents() {
		total += member.Size()
	}
	return total
}

func (v *BtrfsVolume) Clone() Device {
	return &BtrfsVolume{
		Base:      v.cloneBase(),
		raidLevel: v.raidLevel,
	}
}

// BtrfsSubvolume is a named subvolume of a btrfs volume. Subvolumes
// share the space of their volume; the size attribute is the
// nominal request used for reporting.
type BtrfsSubvolume struct {
	Base
}

// NewBtrfsSubvolume creates a subvolume of the given volume.
func NewBtrfsSubvolume(name string, size uint64, volume Device) *BtrfsSubvolume {
	sv := &BtrfsSubvolume{
		Base: NewBase(name, size),
	}
	sv.SetParents([]Device{volume})
	return sv
}

func (sv *BtrfsSubvolume) Type() string { return "btrfs subvolume" }

func (sv *BtrfsSubvolume) Resizable() bool { return true }

func (sv *BtrfsSubvolume) Clone() Device {
	return &BtrfsSubvolume{Base: sv.cloneBase()}
}

// SubvolumeName derives a subvolume name from a mount point, e.g.
// "/" becomes "root" and "/var/log" becomes "var_log".
func SubvolumeName(mountpoint string) string {
	if mountpoint == "/" {
		return "root"
	}
	name := strings.TrimLeft(mountpoint, "/")
	return strings.ReplaceAll(name, "/", "_")
}

// LVName derives a logical volume name from a mount point, e.g. "/"
// becomes "root" and "/home" becomes "home".
func LVName(mountpoint string) string {
	if mountpoint == "" {
		return "swap"
	}
	return SubvolumeName(mountpoint)
}
