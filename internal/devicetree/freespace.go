package devicetree

import (
	"sort"

	"github.com/rhinstaller/diskplanner/internal/device"
)

// FreeRegion is one contiguous free extent on a disk.
type FreeRegion struct {
	Disk  *device.Disk
	Start uint64
	Size  uint64
}

// diskHeaderSize is the space reserved at the start of a disk for
// the disklabel and alignment (first usable offset).
const diskHeaderSize = uint64(device.MiB)

// diskFooterSize is the space reserved at the end of a GPT disk for
// the secondary header.
const diskFooterSize = uint64(device.MiB)

// usableRange returns the first and last usable byte offset of the
// disk.
func usableRange(disk *device.Disk) (start uint64, end uint64) {
	start = diskHeaderSize
	end = device.AlignDown(disk.Size())
	if disk.LabelType() != "dos" && end > diskFooterSize {
		end -= diskFooterSize
	}
	return start, end
}

// FreeRegions produces, per disk, the free extents not covered by
// allocated partitions, in ascending disk and offset order. Regions
// shorter than the alignment grain are not reported.
func (t *DeviceTree) FreeRegions(disks []*device.Disk) []FreeRegion {
	var out []FreeRegion
	for _, disk := range disks {
		out = append(out, t.diskFreeRegions(disk)...)
	}
	return out
}

func (t *DeviceTree) diskFreeRegions(disk *device.Disk) []FreeRegion {
	start, end := usableRange(disk)
	if end <= start {
		return nil
	}

	parts := t.DiskPartitions(disk)
	var allocated []*device.Partition
	for _, p := range parts {
		if p.Allocated() {
			allocated = append(allocated, p)
		}
	}
	sort.Slice(allocated, func(i, j int) bool {
		return allocated[i].Start() < allocated[j].Start()
	})

	var regions []FreeRegion
	cursor := start
	for _, p := range allocated {
		if p.Start() > cursor {
			regions = appendRegion(regions, disk, cursor, p.Start()-cursor)
		}
		if partEnd := p.Start() + p.Size(); partEnd > cursor {
			cursor = partEnd
		}
	}
	if end > cursor {
		regions = appendRegion(regions, disk, cursor, end-cursor)
	}
	return regions
}

func appendRegion(regions []FreeRegion, disk *device.Disk, start, size uint64) []FreeRegion {
	alignedStart := device.AlignUp(start)
	if alignedStart >= start+size {
		return regions
	}
	size -= alignedStart - start
	size = device.AlignDown(size)
	if size < device.DefaultGrainBytes {
		return regions
	}
	return append(regions, FreeRegion{Disk: disk, Start: alignedStart, Size: size})
}

// DiskFreeSpace returns the total free space on the given disks.
func (t *DeviceTree) DiskFreeSpace(disks []*device.Disk) uint64 {
	var total uint64
	for _, region := range t.FreeRegions(disks) {
		total += region.Size
	}
	return total
}

// LargestFreeRegions returns the region sizes across the given
// disks, largest first.
func (t *DeviceTree) LargestFreeRegions(disks []*device.Disk) []uint64 {
	var sizes []uint64
	for _, region := range t.FreeRegions(disks) {
		sizes = append(sizes, region.Size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] > sizes[j] })
	return sizes
}
