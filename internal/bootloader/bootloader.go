// Package bootloader defines the bootloader executor contract used
// by the partitioning engine, and a platform-aware default
// implementation. The engine only needs to know where stage1 and
// stage2 may live; installing the bootloader is someone else's job.
package bootloader

import (
	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
)

// ConfigurationError distinguishes bootloader configuration problems
// from generic storage errors, so callers can reset bootloader-only
// state without discarding the whole playground.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// Executor prepares and finalizes the bootloader placement for a
// device tree.
type Executor interface {
	// Prepare selects the boot disk and checks that a bootloader
	// can be set up. With dryRun set it must not require stage
	// devices to exist yet.
	Prepare(tree *devicetree.DeviceTree, dryRun bool) error

	// Finalize resolves the concrete stage1 and stage2 devices.
	Finalize(tree *devicetree.DeviceTree) error

	// Stage1Device is the boot-record target (MBR, biosboot, EFI or
	// PReP partition), nil until finalized.
	Stage1Device() device.Device

	// Stage2Device is the device holding the boot data (/boot, or /
	// when /boot is not separate), nil until finalized.
	Stage2Device() device.Device

	// Stage1Disk is the selected boot disk, nil until prepared.
	Stage1Disk() *device.Disk

	// IsValidStage1Device reports whether the device could serve as
	// the stage1 target. With early set, checks that require the
	// final layout are relaxed.
	IsValidStage1Device(d device.Device, early bool) bool

	// Skip reports that no bootloader should be installed at all.
	Skip() bool

	Errors() []string
	Warnings() []string
}

// Firmware is the platform firmware kind driving stage1 selection.
type Firmware string

const (
	BIOS Firmware = "bios"
	EFI  Firmware = "efi"
	PPC  Firmware = "ppc"
)

// Platform describes the machine the installation targets.
type Platform struct {
	Firmware Firmware
}

// Stage1Format returns the raw-partition format type the platform
// boots from, or an empty string when the boot record lives in the
// MBR.
func (p Platform) Stage1Format() string {
	switch p.Firmware {
	case EFI:
		return "efi"
	case PPC:
		return "prepboot"
	}
	return "biosboot"
}

// WeighsFormat reports whether the platform has a use for the given
// boot format type at all.
func (p Platform) WeighsFormat(fstype string) bool {
	switch p.Firmware {
	case EFI:
		return fstype == "efi"
	case PPC:
		return fstype == "prepboot"
	default:
		return fstype == "biosboot"
	}
}
