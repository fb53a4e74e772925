package device

// Disk is a whole block device usable as an allocation target.
type Disk struct {
	Base

	sectorSize uint64
}

// NewDisk creates a disk of the given size. Disks always exist; the
// installer never creates them.
func NewDisk(name string, size uint64) *Disk {
	d := &Disk{
		Base:       NewBase(name, size),
		sectorSize: DefaultSectorSize,
	}
	d.SetExists(true)
	return d
}

func (d *Disk) IsDisk() bool { return true }

func (d *Disk) Type() string { return "disk" }

func (d *Disk) SectorSize() uint64 {
	if d.sectorSize == 0 {
		return DefaultSectorSize
	}
	return d.sectorSize
}

func (d *Disk) SetSectorSize(size uint64) { d.sectorSize = size }

// Partitioned reports whether the disk carries a disklabel.
func (d *Disk) Partitioned() bool {
	return d.Format().IsDiskLabel()
}

// LabelType returns the disklabel type ("gpt", "dos") or an empty
// string for an unlabeled disk.
func (d *Disk) LabelType() string {
	if !d.Partitioned() {
		return ""
	}
	return d.Format().LabelType
}

func (d *Disk) Clone() Device {
	clone := &Disk{
		Base:       d.cloneBase(),
		sectorSize: d.sectorSize,
	}
	return clone
}
