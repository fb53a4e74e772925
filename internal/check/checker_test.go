package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhinstaller/diskplanner/internal/bootloader"
	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
)

func validTree(t *testing.T) *devicetree.DeviceTree {
	t.Helper()
	tree := devicetree.New()
	disk := device.NewDisk("vda", 20*device.GiB)
	disk.SetFormat(&device.Format{Type: "disklabel", LabelType: "gpt", Exists: true})
	require.NoError(t, tree.AddDevice(disk))

	add := func(name string, start, size uint64, format *device.Format) *device.Partition {
		part := device.NewPartition(name, size, disk)
		part.SetStart(start)
		part.SetAllocated(true)
		part.SetExists(true)
		part.SetFormat(format)
		require.NoError(t, tree.AddDevice(part))
		return part
	}
	add("vda1", device.MiB, device.MiB, &device.Format{Type: "biosboot", Exists: true})
	add("vda2", 2*device.MiB, device.GiB, &device.Format{Type: "ext4", Mountpoint: "/boot", Exists: true})
	add("vda3", device.GiB+2*device.MiB, 15*device.GiB, &device.Format{Type: "xfs", Mountpoint: "/", Exists: true})
	add("vda4", 16*device.GiB+2*device.MiB, 2*device.GiB, &device.Format{Type: "swap", UUID: "b67dbb01-dd83-4e2a-9a07-b22e9eba9ee6", Exists: true})
	return tree
}

func finalizedBoot(t *testing.T, tree *devicetree.DeviceTree) *bootloader.GRUB {
	t.Helper()
	boot := bootloader.NewGRUB(bootloader.Platform{Firmware: bootloader.BIOS})
	require.NoError(t, boot.Finalize(tree))
	return boot
}

func TestValidLayoutPasses(t *testing.T) {
	tree := validTree(t)
	st := &State{Tree: tree, Boot: finalizedBoot(t, tree), Constraints: DefaultConstraints()}

	report := NewChecker().Check(st)
	assert.True(t, report.Valid())
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
}

func TestValidationIsIdempotent(t *testing.T) {
	tree := validTree(t)
	st := &State{Tree: tree, Boot: finalizedBoot(t, tree), Constraints: DefaultConstraints()}

	checker := NewChecker()
	first := checker.Check(st)
	second := checker.Check(st)
	assert.Equal(t, first, second)
}

func TestMissingRoot(t *testing.T) {
	tree := devicetree.New()
	st := &State{Tree: tree, Constraints: DefaultConstraints()}
	checker := NewChecker()
	checker.Skip("bootloader")

	report := checker.Check(st)
	assert.False(t, report.Valid())
	found := false
	for _, msg := range report.Errors {
		if msg == "You have not defined a root partition (/), which is required for installation to continue." {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTinyRoot(t *testing.T) {
	tree := validTree(t)
	root, err := tree.Resolve("vda3")
	require.NoError(t, err)
	root.SetSize(100 * device.MiB)

	st := &State{Tree: tree, Boot: finalizedBoot(t, tree), Constraints: DefaultConstraints()}
	report := NewChecker().Check(st)
	assert.False(t, report.Valid())
}

func TestRecommendedSizesWarn(t *testing.T) {
	tree := validTree(t)
	boot, err := tree.Resolve("vda2")
	require.NoError(t, err)
	boot.SetSize(100 * device.MiB)

	st := &State{Tree: tree, Boot: finalizedBoot(t, tree), Constraints: DefaultConstraints()}
	report := NewChecker().Check(st)
	// below the recommendation is a warning, not an error
	assert.True(t, report.Valid())
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "/boot")
	assert.Contains(t, report.Warnings[0], "lower than recommended")
}

func TestRequiredSizesError(t *testing.T) {
	tree := validTree(t)
	esp := device.NewPartition("vda5", 100*device.MiB, tree.GetDevice("vda"))
	esp.SetStart(18 * device.GiB)
	esp.SetAllocated(true)
	esp.SetExists(true)
	esp.SetFormat(&device.Format{Type: "efi", Mountpoint: "/boot/efi", Exists: true})
	require.NoError(t, tree.AddDevice(esp))

	st := &State{Tree: tree, Boot: finalizedBoot(t, tree), Constraints: DefaultConstraints()}
	report := NewChecker().Check(st)
	assert.False(t, report.Valid())
}

func TestGPTBiosBoot(t *testing.T) {
	tree := devicetree.New()
	disk := device.NewDisk("vda", 20*device.GiB)
	disk.SetFormat(&device.Format{Type: "disklabel", LabelType: "gpt", Exists: true})
	require.NoError(t, tree.AddDevice(disk))
	root := device.NewPartition("vda1", 10*device.GiB, disk)
	root.SetStart(device.MiB)
	root.SetAllocated(true)
	root.SetExists(true)
	root.SetFormat(&device.Format{Type: "xfs", Mountpoint: "/", Exists: true})
	require.NoError(t, tree.AddDevice(root))

	boot := bootloader.NewGRUB(bootloader.Platform{Firmware: bootloader.BIOS})
	require.NoError(t, boot.Prepare(tree, true))

	checker := NewChecker()
	checker.Skip("bootloader")
	report := checker.Check(&State{Tree: tree, Boot: boot, Constraints: DefaultConstraints()})

	assert.False(t, report.Valid())
	found := false
	for _, msg := range report.Errors {
		if len(msg) > 0 && msg[:9] == "Your BIOS" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSwapFindings(t *testing.T) {
	tree := validTree(t)
	swap, err := tree.Resolve("vda4")
	require.NoError(t, err)
	require.NoError(t, tree.DestroyDevice(swap))

	st := &State{Tree: tree, Boot: finalizedBoot(t, tree), Constraints: DefaultConstraints()}

	// by default a missing swap is only a note
	report := NewChecker().Check(st)
	assert.True(t, report.Valid())
	assert.Empty(t, report.Warnings)
	assert.NotEmpty(t, report.Info)

	constraints := DefaultConstraints()
	constraints.SwapIsRecommended = true
	st.Constraints = constraints
	report = NewChecker().Check(st)
	assert.True(t, report.Valid())
	assert.NotEmpty(t, report.Warnings)
}

func TestSwapWithoutUUID(t *testing.T) {
	tree := validTree(t)
	swap, err := tree.Resolve("vda4")
	require.NoError(t, err)
	swap.Format().UUID = ""

	st := &State{Tree: tree, Boot: finalizedBoot(t, tree), Constraints: DefaultConstraints()}
	report := NewChecker().Check(st)
	assert.True(t, report.Valid())
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "UUID")
}

func TestMustBeOnLinuxFS(t *testing.T) {
	tree := validTree(t)
	root, err := tree.Resolve("vda3")
	require.NoError(t, err)
	root.SetFormat(&device.Format{Type: "vfat", Mountpoint: "/", Exists: true})

	checker := NewChecker()
	checker.Skip("bootloader")
	report := checker.Check(&State{Tree: tree, Constraints: DefaultConstraints()})
	assert.False(t, report.Valid())
}

func TestMustBeOnRoot(t *testing.T) {
	tree := validTree(t)
	etc := device.NewPartition("vda5", device.GiB, tree.GetDevice("vda"))
	etc.SetStart(18 * device.GiB)
	etc.SetAllocated(true)
	etc.SetExists(true)
	etc.SetFormat(&device.Format{Type: "ext4", Mountpoint: "/etc", Exists: true})
	require.NoError(t, tree.AddDevice(etc))

	st := &State{Tree: tree, Boot: finalizedBoot(t, tree), Constraints: DefaultConstraints()}
	report := NewChecker().Check(st)
	assert.False(t, report.Valid())
	found := false
	for _, msg := range report.Errors {
		if msg == "The mount point /etc must be on the root file system." {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMustNotBeOnRoot(t *testing.T) {
	tree := validTree(t)
	constraints := DefaultConstraints()
	constraints.MustNotBeOnRoot = []string{"/var"}

	st := &State{Tree: tree, Boot: finalizedBoot(t, tree), Constraints: constraints}
	report := NewChecker().Check(st)
	assert.False(t, report.Valid())
}

func TestLUKSWithoutKey(t *testing.T) {
	tree := validTree(t)
	pv := device.NewPartition("vda5", device.GiB, tree.GetDevice("vda"))
	pv.SetStart(18 * device.GiB)
	pv.SetAllocated(true)
	pv.SetFormat(&device.Format{Type: "luks", LUKSVersion: "luks2"})
	require.NoError(t, tree.AddDevice(pv))

	st := &State{Tree: tree, Boot: finalizedBoot(t, tree), Constraints: DefaultConstraints()}
	report := NewChecker().Check(st)
	assert.False(t, report.Valid())
	found := false
	for _, msg := range report.Errors {
		if msg == "Encryption requested for LUKS device vda5 but no encryption key specified for this device." {
			found = true
		}
	}
	assert.True(t, found)

	// with a key the finding disappears
	pv.Format().Passphrase = "opensesame"
	report = NewChecker().Check(st)
	assert.True(t, report.Valid())
}

func TestSkipDisablesCheck(t *testing.T) {
	tree := devicetree.New()
	checker := NewChecker()
	checker.Skip("root")
	checker.Skip("bootloader")

	report := checker.Check(&State{Tree: tree, Constraints: DefaultConstraints()})
	assert.True(t, report.Valid())
}

func TestBuggyCheckAbortsValidation(t *testing.T) {
	checker := NewChecker()
	checker.AddCheck(Check{Name: "explosive", Run: func(st *State, r *Report) {
		panic("boom")
	}})

	tree := validTree(t)
	st := &State{Tree: tree, Boot: finalizedBoot(t, tree), Constraints: DefaultConstraints()}
	// a buggy check is a programming error, not a finding
	assert.Panics(t, func() { checker.Check(st) })
}
