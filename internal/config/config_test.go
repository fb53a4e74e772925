package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhinstaller/diskplanner/internal/bootloader"
	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/partitioning"
	"github.com/rhinstaller/diskplanner/internal/planner"
)

const sampleConfig = `
[storage]
method = "automatic"
scheme = "lvm-thin"
profile = "workstation"
default_fstype = "ext4"
boot_fstype = "xfs"
container_name = "fedora"
selected_disks = ["vda", "vdb"]
nohome = true
noswap = false
memory = 4096
hibernation = true

[encryption]
encrypted = true
passphrase = "opensesame"
luks_version = "luks2"

[clearing]
mode = "linux"
drives = ["vd*"]
initialize_labels = true
clear_non_existent = true

[bootloader]
firmware = "efi"

[checker]
skip = ["swap"]
swap_is_recommended = true
min_root_size = 1024
`

func decodeConfig(t *testing.T, text string) *File {
	t.Helper()
	var c File
	_, err := toml.Decode(text, &c)
	require.NoError(t, err)
	return &c
}

func TestLoadConfigMissingFile(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "no-such.toml"))
	require.NoError(t, err)

	method, err := c.Method()
	require.NoError(t, err)
	assert.Equal(t, partitioning.MethodAutomatic, method)
	assert.Equal(t, bootloader.BIOS, c.Platform().Firmware)
}

func TestLoadConfigFromFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "diskplanner.toml")
	require.NoError(t, os.WriteFile(name, []byte(sampleConfig), 0o600))

	c, err := LoadConfig(name)
	require.NoError(t, err)
	assert.Equal(t, "lvm-thin", c.Storage.Scheme)
	assert.Equal(t, []string{"vda", "vdb"}, c.Storage.SelectedDisks)
}

func TestStrategyConfigTranslation(t *testing.T) {
	c := decodeConfig(t, sampleConfig)

	method, err := c.Method()
	require.NoError(t, err)
	assert.Equal(t, partitioning.MethodAutomatic, method)

	cfg, err := c.StrategyConfig()
	require.NoError(t, err)

	auto := cfg.Automatic
	assert.Equal(t, bootloader.EFI, auto.Platform.Firmware)
	assert.Equal(t, planner.SchemeLVMThin, auto.Scheme)
	assert.Equal(t, planner.ProfileWorkstation, auto.Profile)
	assert.Equal(t, "fedora", auto.ContainerName)
	assert.Equal(t, []string{"vda", "vdb"}, auto.SelectedDisks)
	assert.True(t, auto.Options.NoHome)
	assert.False(t, auto.Options.NoSwap)
	assert.Equal(t, "ext4", auto.Options.DefaultFSType)
	assert.Equal(t, "xfs", auto.Options.BootFSType)
	assert.Equal(t, uint64(4*device.GiB), auto.Memory)
	assert.True(t, auto.Hibernation)

	assert.True(t, auto.Encryption.Encrypted)
	assert.Equal(t, "opensesame", auto.Encryption.Passphrase)

	assert.Equal(t, partitioning.InitLinux, auto.Clearing.Mode)
	assert.Equal(t, []string{"vd*"}, auto.Clearing.DrivesToClear)
	assert.True(t, auto.Clearing.ClearNonExistent)

	// the shared parts carry over to the other strategies
	assert.Equal(t, auto.Platform, cfg.Custom.Platform)
	assert.Equal(t, auto.Clearing, cfg.Custom.Clearing)
	assert.Equal(t, auto.Platform, cfg.Interactive.Platform)
}

func TestClearingModes(t *testing.T) {
	cases := []struct {
		mode string
		want partitioning.InitializationMode
	}{
		{"", partitioning.InitDefault},
		{"default", partitioning.InitDefault},
		{"none", partitioning.InitNone},
		{"all", partitioning.InitAll},
		{"list", partitioning.InitList},
		{"linux", partitioning.InitLinux},
	}
	for _, tc := range cases {
		text := ""
		if tc.mode != "" {
			text = "[clearing]\nmode = \"" + tc.mode + "\""
		}
		cfg, err := decodeConfig(t, text).StrategyConfig()
		require.NoError(t, err)
		assert.Equal(t, tc.want, cfg.Automatic.Clearing.Mode, "mode %q", tc.mode)
	}

	_, err := decodeConfig(t, "[clearing]\nmode = \"everything\"").StrategyConfig()
	var unknown *UnknownValueError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "clearing", unknown.Section)
	assert.Equal(t, "everything", unknown.Value)
}

func TestClearingLabelDefaults(t *testing.T) {
	// clearing modes that remove content relabel by default
	cfg, err := decodeConfig(t, "[clearing]\nmode = \"all\"").StrategyConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Automatic.Clearing.InitializeLabels)

	cfg, err = decodeConfig(t, "[clearing]\nmode = \"none\"").StrategyConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Automatic.Clearing.InitializeLabels)

	// an explicit setting wins over the mode default
	cfg, err = decodeConfig(t, "[clearing]\nmode = \"all\"\ninitialize_labels = false").StrategyConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Automatic.Clearing.InitializeLabels)
}

func TestConstraintOverrides(t *testing.T) {
	c := decodeConfig(t, sampleConfig)
	constraints := c.Constraints()
	assert.True(t, constraints.SwapIsRecommended)
	assert.Equal(t, uint64(device.GiB), constraints.MinRootSize)

	defaults := decodeConfig(t, "").Constraints()
	assert.False(t, defaults.SwapIsRecommended)
	assert.Equal(t, uint64(250*device.MiB), defaults.MinRootSize)
}

func TestDumpConfigRoundTrip(t *testing.T) {
	c := decodeConfig(t, sampleConfig)

	var buf bytes.Buffer
	require.NoError(t, DumpConfig(c, &buf))

	var back File
	_, err := toml.Decode(buf.String(), &back)
	require.NoError(t, err)
	if diff := cmp.Diff(c, &back); diff != "" {
		t.Errorf("config changed over a dump/load cycle:\n%s", diff)
	}
}

const sampleInventory = `
[[disk]]
name = "vda"
size = 20480
label = "gpt"

[[disk.partition]]
name = "vda1"
size = 1024
fstype = "ext4"
uuid = "0b4fe7eb-4da4-4c42-a14c-0df2f04d5f22"

[[disk.partition]]
name = "vda2"
size = 2048
fstype = "ntfs"

[[disk]]
name = "vdb"
size = 10240
protected = true
`

func TestInventoryBuildTree(t *testing.T) {
	var inv Inventory
	_, err := toml.Decode(sampleInventory, &inv)
	require.NoError(t, err)

	tree, err := inv.BuildTree()
	require.NoError(t, err)

	disks := tree.Disks()
	require.Len(t, disks, 2)
	assert.Equal(t, "gpt", disks[0].LabelType())
	assert.Equal(t, uint64(20*device.GiB), disks[0].Size())
	assert.True(t, disks[1].Protected())

	// partitions without explicit starts are packed back to back
	p1, err := tree.Resolve("vda1")
	require.NoError(t, err)
	p2, err := tree.Resolve("vda2")
	require.NoError(t, err)
	assert.Equal(t, uint64(device.MiB), p1.(*device.Partition).Start())
	assert.Equal(t, uint64(device.MiB+device.GiB), p2.(*device.Partition).Start())
	assert.True(t, p1.Exists())

	// resolution by UUID spec works off the inventory data
	byUUID, err := tree.Resolve("UUID=0b4fe7eb-4da4-4c42-a14c-0df2f04d5f22")
	require.NoError(t, err)
	assert.Same(t, p1, byUUID)
}

func TestInventoryRejectsIncompleteEntries(t *testing.T) {
	inv := &Inventory{Disks: []InventoryDisk{{Name: "vda"}}}
	_, err := inv.BuildTree()
	assert.Error(t, err)

	inv = &Inventory{Disks: []InventoryDisk{{
		Name: "vda", SizeMiB: 1024,
		PartitionList: []InventoryPartition{{Name: "vda1"}},
	}}}
	_, err = inv.BuildTree()
	assert.Error(t, err)
}

func TestLoadInventoryMissingFile(t *testing.T) {
	_, err := LoadInventory(filepath.Join(t.TempDir(), "no-such.toml"))
	assert.Error(t, err)
}
