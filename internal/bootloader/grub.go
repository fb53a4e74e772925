package bootloader

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
)

// GRUB is the default bootloader executor. It picks the first usable
// disk as the boot disk and resolves stage1/stage2 from the layout.
type GRUB struct {
	platform Platform
	skip     bool

	stage1Disk *device.Disk
	stage1     device.Device
	stage2     device.Device

	errors   []string
	warnings []string
}

// NewGRUB returns an executor for the given platform.
func NewGRUB(platform Platform) *GRUB {
	return &GRUB{platform: platform}
}

// SetSkip disables bootloader installation entirely.
func (g *GRUB) SetSkip(skip bool) { g.skip = skip }

func (g *GRUB) Skip() bool { return g.skip }

func (g *GRUB) Stage1Device() device.Device { return g.stage1 }

func (g *GRUB) Stage2Device() device.Device { return g.stage2 }

func (g *GRUB) Stage1Disk() *device.Disk { return g.stage1Disk }

func (g *GRUB) Errors() []string { return g.errors }

func (g *GRUB) Warnings() []string { return g.warnings }

// Prepare selects the boot disk. In a dry run the stage devices may
// not exist yet; only the disk selection is validated.
func (g *GRUB) Prepare(tree *devicetree.DeviceTree, dryRun bool) error {
	g.errors = nil
	g.warnings = nil

	if g.skip {
		return nil
	}

	// keep an earlier selection if the disk is still around
	if g.stage1Disk != nil && tree.GetDevice(g.stage1Disk.Name()) == g.stage1Disk {
		return nil
	}

	disks := tree.UsableDisks()
	if len(disks) == 0 {
		return &ConfigurationError{Msg: "no usable disk for the bootloader"}
	}
	g.stage1Disk = disks[0]
	logrus.Debugf("bootloader: boot disk is %q (dry run: %v)", g.stage1Disk.Name(), dryRun)
	return nil
}

// Finalize resolves the stage1 and stage2 devices against the final
// layout.
func (g *GRUB) Finalize(tree *devicetree.DeviceTree) error {
	if g.skip {
		return nil
	}
	if err := g.Prepare(tree, false); err != nil {
		return err
	}

	g.stage1 = nil
	for _, d := range tree.Devices() {
		if !g.onBootDisk(d) {
			continue
		}
		if g.IsValidStage1Device(d, false) {
			g.stage1 = d
			break
		}
	}
	if g.stage1 == nil && g.platform.Firmware == BIOS && g.stage1Disk.LabelType() == "dos" {
		// MBR boot record on a msdos-labeled disk
		g.stage1 = g.stage1Disk
	}
	if g.stage1 == nil {
		return &ConfigurationError{
			Msg: fmt.Sprintf("no valid bootloader stage1 target found on disk %q", g.stage1Disk.Name()),
		}
	}

	mounts := tree.Mountpoints()
	g.stage2 = mounts["/boot"]
	if g.stage2 == nil {
		g.stage2 = mounts["/"]
	}
	if g.stage2 == nil {
		return &ConfigurationError{Msg: "you have not created a bootable partition"}
	}
	if !g.stage2.Format().LinuxNative() {
		g.errors = append(g.errors,
			fmt.Sprintf("bootloader stage2 device %q must use a linux file system", g.stage2.Name()))
	}

	logrus.Debugf("bootloader: stage1 %q stage2 %q", g.stage1.Name(), g.stage2.Name())
	return nil
}

func (g *GRUB) onBootDisk(d device.Device) bool {
	if g.stage1Disk == nil {
		return false
	}
	if d == g.stage1Disk {
		return true
	}
	for _, disk := range device.Disks(d) {
		if disk == g.stage1Disk {
			return true
		}
	}
	return false
}

// IsValidStage1Device reports whether the device can carry the boot
// record for the platform. With early set, mountpoint expectations
// are relaxed (the layout is not final yet).
func (g *GRUB) IsValidStage1Device(d device.Device, early bool) bool {
	format := d.Format()
	switch g.platform.Firmware {
	case EFI:
		if format.Type != "efi" {
			return false
		}
		if early {
			return true
		}
		return format.Mountpoint == "" || format.Mountpoint == "/boot/efi"
	case PPC:
		return format.Type == "prepboot"
	default:
		if format.Type == "biosboot" {
			return true
		}
		// the disk MBR is a valid stage1 on msdos labels
		return !early && d == device.Device(g.stage1Disk) && g.stage1Disk.LabelType() == "dos"
	}
}
