package partitioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhinstaller/diskplanner/internal/actions"
	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
)

func usedDiskTree(t *testing.T) *devicetree.DeviceTree {
	t.Helper()
	tree := devicetree.New()
	disk := existingDisk(t, tree, "vda", "gpt", 20*device.GiB)
	existingPartition(t, tree, disk, "vda1", device.MiB, device.GiB,
		&device.Format{Type: "ext4", Exists: true})
	existingPartition(t, tree, disk, "vda2", device.GiB+device.MiB, 2*device.GiB,
		&device.Format{Type: "ntfs", Exists: true})
	return tree
}

func TestClearAllRemovesPartitions(t *testing.T) {
	tree := usedDiskTree(t)

	err := ClearPartitions(tree, DiskInitializationConfig{
		Mode:             InitAll,
		InitializeLabels: true,
	})
	require.NoError(t, err)
	assert.Empty(t, tree.Partitions())

	// later partitions go first so numbering never collides
	destroys := tree.Journal().Find(actions.Destroy, "")
	require.Len(t, destroys, 2)
	assert.Equal(t, "vda1", destroys[0].DeviceName())
	assert.Equal(t, "vda2", destroys[1].DeviceName())

	// the emptied disk gets a fresh disklabel
	formats := tree.Journal().Find(actions.Format, "vda")
	require.Len(t, formats, 1)
	assert.Equal(t, "gpt", formats[0].NewFormat.LabelType)
}

func TestClearNoneKeepsEverything(t *testing.T) {
	tree := usedDiskTree(t)

	require.NoError(t, ClearPartitions(tree, DiskInitializationConfig{Mode: InitNone}))
	assert.Len(t, tree.Partitions(), 2)
	assert.Zero(t, tree.Journal().Len())

	// the default mode is as conservative as none
	require.NoError(t, ClearPartitions(tree, DiskInitializationConfig{}))
	assert.Len(t, tree.Partitions(), 2)
}

func TestClearNonExistentCancelsScheduled(t *testing.T) {
	tree := usedDiskTree(t)
	disk := tree.GetDevice("vda").(*device.Disk)
	scheduled := device.NewPartition("vda3", device.GiB, disk)
	scheduled.SetStart(4 * device.GiB)
	scheduled.SetAllocated(true)
	scheduled.SetFormat(&device.Format{Type: "xfs"})
	require.NoError(t, tree.CreateDevice(scheduled))

	// scheduled-only devices survive a plain clear
	require.NoError(t, ClearPartitions(tree, DiskInitializationConfig{Mode: InitAll}))
	assert.NotNil(t, tree.GetDevice("vda3"))

	require.NoError(t, ClearPartitions(tree, DiskInitializationConfig{
		Mode:             InitAll,
		ClearNonExistent: true,
	}))
	assert.Nil(t, tree.GetDevice("vda3"))
	// the pending create was cancelled, not complemented by a destroy
	assert.Empty(t, tree.Journal().Find(actions.Create, "vda3"))
	assert.Empty(t, tree.Journal().Find(actions.Destroy, "vda3"))
}

func TestClearListMatchesGlobs(t *testing.T) {
	tree := usedDiskTree(t)

	err := ClearPartitions(tree, DiskInitializationConfig{
		Mode:           InitList,
		DevicesToClear: []string{"vda2"},
	})
	require.NoError(t, err)

	assert.NotNil(t, tree.GetDevice("vda1"))
	assert.Nil(t, tree.GetDevice("vda2"))

	tree = usedDiskTree(t)
	err = ClearPartitions(tree, DiskInitializationConfig{
		Mode:           InitList,
		DevicesToClear: []string{"vda*"},
	})
	require.NoError(t, err)
	assert.Empty(t, tree.Partitions())
}

func TestClearLinuxKeepsForeignContent(t *testing.T) {
	tree := usedDiskTree(t)

	err := ClearPartitions(tree, DiskInitializationConfig{Mode: InitLinux})
	require.NoError(t, err)

	assert.Nil(t, tree.GetDevice("vda1"))
	assert.NotNil(t, tree.GetDevice("vda2"))
}

func TestClearLinuxSeesThroughLUKS(t *testing.T) {
	tree := devicetree.New()
	disk := existingDisk(t, tree, "vda", "gpt", 20*device.GiB)
	pv := existingPartition(t, tree, disk, "vda1", device.MiB, 2*device.GiB,
		&device.Format{Type: "luks", LUKSVersion: "luks2", Exists: true})
	luks := device.NewLUKSContainer(pv)
	luks.SetExists(true)
	luks.SetFormat(&device.Format{Type: "lvmpv", Exists: true})
	require.NoError(t, tree.AddDevice(luks))

	err := ClearPartitions(tree, DiskInitializationConfig{Mode: InitLinux})
	require.NoError(t, err)
	assert.Nil(t, tree.GetDevice("vda1"))
	assert.Nil(t, tree.GetDevice("luks-vda1"))
}

func TestClearSkipsProtectedStacks(t *testing.T) {
	tree := usedDiskTree(t)
	part, err := tree.Resolve("vda1")
	require.NoError(t, err)
	luks := device.NewLUKSContainer(part)
	luks.SetExists(true)
	luks.SetProtected(true)
	luks.SetFormat(&device.Format{Type: "xfs", Exists: true})
	require.NoError(t, tree.AddDevice(luks))

	err = ClearPartitions(tree, DiskInitializationConfig{Mode: InitAll})
	require.NoError(t, err)

	// the protected container keeps its partition alive
	assert.NotNil(t, tree.GetDevice("vda1"))
	assert.Nil(t, tree.GetDevice("vda2"))
}

func TestClearScopedToDrives(t *testing.T) {
	tree := usedDiskTree(t)
	vdb := existingDisk(t, tree, "vdb", "gpt", 10*device.GiB)
	existingPartition(t, tree, vdb, "vdb1", device.MiB, device.GiB,
		&device.Format{Type: "ext4", Exists: true})

	err := ClearPartitions(tree, DiskInitializationConfig{
		Mode:             InitAll,
		DrivesToClear:    []string{"vda"},
		InitializeLabels: true,
	})
	require.NoError(t, err)

	assert.Nil(t, tree.GetDevice("vda1"))
	assert.NotNil(t, tree.GetDevice("vdb1"))
	// the out-of-scope disk is not relabeled either
	assert.Empty(t, tree.Journal().Find(actions.Format, "vdb"))
}

func TestClearInitializesUnrecognizedDisks(t *testing.T) {
	tree := devicetree.New()
	existingDisk(t, tree, "vda", "", 20*device.GiB)

	err := ClearPartitions(tree, DiskInitializationConfig{
		Mode:               InitNone,
		FormatUnrecognized: true,
		DefaultLabelType:   "dos",
	})
	require.NoError(t, err)

	formats := tree.Journal().Find(actions.Format, "vda")
	require.Len(t, formats, 1)
	assert.Equal(t, "dos", formats[0].NewFormat.LabelType)
}
