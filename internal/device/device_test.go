package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignment(t *testing.T) {
	assert.Equal(t, uint64(MiB), AlignUp(1))
	assert.Equal(t, uint64(MiB), AlignUp(MiB))
	assert.Equal(t, uint64(2*MiB), AlignUp(MiB+1))
	assert.Equal(t, uint64(0), AlignDown(MiB-1))
	assert.Equal(t, uint64(MiB), AlignDown(MiB))
	assert.Equal(t, uint64(MiB), AlignDown(2*MiB-1))
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", HumanSize(512))
	assert.Equal(t, "1.0 KiB", HumanSize(1024))
	assert.Equal(t, "1.5 GiB", HumanSize(1536*MiB))
}

func TestFormatCapabilities(t *testing.T) {
	xfs := &Format{Type: "xfs", Mountpoint: "/"}
	assert.True(t, xfs.Mountable())
	assert.True(t, xfs.LinuxNative())
	assert.False(t, xfs.IsDiskLabel())

	vfat := &Format{Type: "vfat"}
	assert.True(t, vfat.Mountable())
	assert.False(t, vfat.LinuxNative())

	swap := &Format{Type: "swap"}
	assert.False(t, swap.Mountable())
	assert.True(t, swap.LinuxNative())

	label := &Format{Type: "disklabel", LabelType: "gpt"}
	assert.True(t, label.IsDiskLabel())

	luks := &Format{Type: "luks"}
	assert.False(t, luks.HasKey())
	luks.Passphrase = "opensesame"
	assert.True(t, luks.HasKey())
}

func TestFormatClone(t *testing.T) {
	orig := &Format{Type: "ext4", Mountpoint: "/home", Label: "home"}
	clone := orig.Clone()
	clone.Mountpoint = "/srv"
	assert.Equal(t, "/home", orig.Mountpoint)

	var nilFormat *Format
	assert.Nil(t, nilFormat.Clone())
}

func TestNeedsRawPartition(t *testing.T) {
	assert.True(t, NeedsRawPartition("biosboot"))
	assert.True(t, NeedsRawPartition("efi"))
	assert.True(t, NeedsRawPartition("prepboot"))
	assert.False(t, NeedsRawPartition("ext4"))
	assert.False(t, NeedsRawPartition("swap"))
}

func TestFormatSizeBounds(t *testing.T) {
	min, max, ok := FormatSizeBounds("ext4")
	require.True(t, ok)
	assert.Equal(t, uint64(2*MiB), min)
	assert.Equal(t, uint64(16*TiB), max)

	_, _, ok = FormatSizeBounds("biosboot")
	assert.False(t, ok)
}

func TestPartitionAllocation(t *testing.T) {
	disk := NewDisk("vda", 10*GiB)
	part := NewPartition("vda1", GiB, disk)

	assert.False(t, part.Allocated())
	part.SetStart(MiB)
	part.SetAllocated(true)
	assert.True(t, part.Allocated())
	assert.Equal(t, disk, part.Disk().(*Disk))

	// existing partitions count as allocated even without the flag
	existing := NewPartition("vda2", GiB, disk)
	existing.SetExists(true)
	assert.True(t, existing.Allocated())
}

func TestPartitionFloatsOverDiskSet(t *testing.T) {
	vda := NewDisk("vda", 10*GiB)
	vdb := NewDisk("vdb", 10*GiB)
	part := NewPartition("req1", GiB, vda, vdb)
	assert.Nil(t, part.Disk())
}

func TestLUKSContainerSize(t *testing.T) {
	disk := NewDisk("vda", 10*GiB)
	part := NewPartition("vda1", GiB, disk)
	part.SetFormat(&Format{Type: "luks", LUKSVersion: "luks2"})

	luks := NewLUKSContainer(part)
	assert.Equal(t, "luks-vda1", luks.Name())
	assert.Equal(t, uint64(GiB-16*MiB), luks.Size())
	assert.Equal(t, "/dev/mapper/luks-vda1", luks.Path())
	assert.True(t, luks.Encrypted())

	part.Format().LUKSVersion = "luks1"
	luks1 := NewLUKSContainer(part)
	assert.Equal(t, uint64(GiB-2*MiB), luks1.Size())
}

func TestVolumeGroupSize(t *testing.T) {
	disk := NewDisk("vda", 10*GiB)
	pv := NewPartition("vda1", GiB+3*MiB, disk)
	pv.SetFormat(&Format{Type: "lvmpv"})

	vg := NewVolumeGroup("system", pv)
	// 1 GiB + 3 MiB member, minus 1 MiB metadata, down to 4 MiB extents
	assert.Equal(t, uint64(GiB), vg.Size())
	assert.True(t, vg.AutoSize())
	assert.Equal(t, "/dev/system", vg.Path())
}

func TestVolumeGroupThinPoolReserve(t *testing.T) {
	disk := NewDisk("vda", 100*GiB)
	pv := NewPartition("vda1", 50*GiB, disk)
	pv.SetFormat(&Format{Type: "lvmpv"})
	vg := NewVolumeGroup("system", pv)

	assert.Zero(t, vg.ThinPoolReserve())
	vg.ReserveForThinPool()
	// 20% of ~50 GiB, within the absolute bounds
	assert.InDelta(t, float64(10*GiB), float64(vg.ThinPoolReserve()), float64(GiB))
}

func TestLogicalVolumeKinds(t *testing.T) {
	disk := NewDisk("vda", 100*GiB)
	pv := NewPartition("vda1", 50*GiB, disk)
	pv.SetFormat(&Format{Type: "lvmpv"})
	vg := NewVolumeGroup("system", pv)

	pool := NewLogicalVolume("pool00", 20*GiB, vg)
	pool.SetThinPool(true)
	assert.Equal(t, "lvmthinpool", pool.Type())
	assert.False(t, pool.Resizable())

	thin := NewLogicalVolume("root", 10*GiB, pool)
	thin.SetThin(true)
	assert.Equal(t, "lvmthinlv", thin.Type())
	assert.Equal(t, vg, thin.VolumeGroup())
	assert.Equal(t, "/dev/system/root", thin.Path())

	plain := NewLogicalVolume("home", 10*GiB, vg)
	assert.Equal(t, "lvmlv", plain.Type())
	assert.True(t, plain.Resizable())
}

func TestMountpointNames(t *testing.T) {
	assert.Equal(t, "root", SubvolumeName("/"))
	assert.Equal(t, "home", SubvolumeName("/home"))
	assert.Equal(t, "var_log", SubvolumeName("/var/log"))
	assert.Equal(t, "swap", LVName(""))
	assert.Equal(t, "root", LVName("/"))
}

func TestDeviceAncestry(t *testing.T) {
	disk := NewDisk("vda", 10*GiB)
	part := NewPartition("vda1", GiB, disk)
	part.SetFormat(&Format{Type: "luks"})
	luks := NewLUKSContainer(part)

	disks := Disks(luks)
	require.Len(t, disks, 1)
	assert.Equal(t, "vda", disks[0].Name())

	assert.True(t, DependsOn(luks, disk))
	assert.True(t, DependsOn(luks, part))
	assert.False(t, DependsOn(part, luks))

	ancestors := Ancestors(luks)
	require.Len(t, ancestors, 2)
	assert.Equal(t, "vda1", ancestors[0].Name())
	assert.Equal(t, "vda", ancestors[1].Name())
}

func TestCloneIndependence(t *testing.T) {
	disk := NewDisk("vda", 10*GiB)
	part := NewPartition("vda1", GiB, disk)
	part.SetFormat(&Format{Type: "xfs", Mountpoint: "/"})

	clone := part.Clone().(*Partition)
	clone.SetSize(2 * GiB)
	clone.Format().Mountpoint = "/srv"

	assert.Equal(t, uint64(GiB), part.Size())
	assert.Equal(t, "/", part.Format().Mountpoint)
	// parent references are carried over and remapped by the graph copy
	assert.Equal(t, part.Parents(), clone.Parents())
}
