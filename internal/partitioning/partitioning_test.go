package partitioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
)

func existingDisk(t *testing.T, tree *devicetree.DeviceTree, name, label string, size uint64) *device.Disk {
	t.Helper()
	disk := device.NewDisk(name, size)
	if label != "" {
		disk.SetFormat(&device.Format{Type: "disklabel", LabelType: label, Exists: true})
	}
	require.NoError(t, tree.AddDevice(disk))
	return disk
}

func existingPartition(t *testing.T, tree *devicetree.DeviceTree, disk *device.Disk, name string, start, size uint64, format *device.Format) *device.Partition {
	t.Helper()
	part := device.NewPartition(name, size, disk)
	part.SetStart(start)
	part.SetAllocated(true)
	part.SetExists(true)
	part.SetFormat(format)
	require.NoError(t, tree.AddDevice(part))
	return part
}

func TestParseMethod(t *testing.T) {
	for name, want := range map[string]Method{
		"automatic":   MethodAutomatic,
		"auto":        MethodAutomatic,
		"custom":      MethodCustom,
		"manual":      MethodManual,
		"interactive": MethodInteractive,
	} {
		got, err := ParseMethod(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMethod("guided")
	assert.Error(t, err)
}

func TestMethodString(t *testing.T) {
	assert.Equal(t, "automatic", MethodAutomatic.String())
	assert.Equal(t, "interactive", MethodInteractive.String())
	assert.Equal(t, "unknown", Method(42).String())
}

func TestNewDispatchesOnMethod(t *testing.T) {
	for _, method := range []Method{MethodAutomatic, MethodCustom, MethodManual, MethodInteractive} {
		strategy, err := New(method, Config{})
		require.NoError(t, err)
		assert.Equal(t, method, strategy.Method())
	}

	_, err := New(Method(42), Config{})
	assert.Error(t, err)
}
