package check

import (
	"fmt"

	"github.com/rhinstaller/diskplanner/internal/device"
)

// verifyRoot checks that a root filesystem is planned and that it is
// not unreasonably small.
func verifyRoot(st *State, r *Report) {
	root := st.Tree.RootDevice()
	if root == nil {
		r.AddError("You have not defined a root partition (/), which is required for installation to continue.")
		return
	}
	if min := st.Constraints.MinRootSize; min > 0 && root.Size() < min {
		r.AddError(fmt.Sprintf("Your root partition must be at least %s.",
			device.HumanSize(min)))
	}
}

// verifyPartitionSizes warns about mount points below their
// recommended sizes.
func verifyPartitionSizes(st *State, r *Report) {
	mounts := st.Tree.Mountpoints()
	for mountpoint, min := range st.Constraints.MinPartitionSizes {
		d, ok := mounts[mountpoint]
		if !ok {
			continue
		}
		if d.Size() < min {
			r.AddWarning(fmt.Sprintf("Your %s partition is less than %s which is lower than recommended for a normal installation.",
				mountpoint, device.HumanSize(min)))
		}
	}
}

// verifyPartitionFormatSizes errors out on mount points below their
// required sizes or outside the limits of their filesystem type.
func verifyPartitionFormatSizes(st *State, r *Report) {
	mounts := st.Tree.Mountpoints()
	for mountpoint, req := range st.Constraints.ReqPartitionSizes {
		d, ok := mounts[mountpoint]
		if !ok {
			continue
		}
		if d.Size() < req {
			r.AddError(fmt.Sprintf("Your %s partition is less than %s which is required for installation of this software.",
				mountpoint, device.HumanSize(req)))
		}
	}

	for mountpoint, d := range mounts {
		min, max, ok := device.FormatSizeBounds(d.Format().Type)
		if !ok {
			continue
		}
		if min > 0 && d.Size() < min {
			r.AddError(fmt.Sprintf("Your %s partition is too small for %s formatting (allowable size is %s to %s).",
				mountpoint, d.Format().Type, device.HumanSize(min), device.HumanSize(max)))
		}
		if max > 0 && d.Size() > max {
			r.AddError(fmt.Sprintf("Your %s partition is too large for %s formatting (allowable size is %s to %s).",
				mountpoint, d.Format().Type, device.HumanSize(min), device.HumanSize(max)))
		}
	}
}

// verifyBootloader collects the findings of the bootloader executor.
func verifyBootloader(st *State, r *Report) {
	if st.Boot == nil || st.Boot.Skip() {
		r.AddInfo("Skipping bootloader check.")
		return
	}
	for _, msg := range st.Boot.Errors() {
		r.AddError(msg)
	}
	for _, msg := range st.Boot.Warnings() {
		r.AddWarning(msg)
	}
	if st.Boot.Stage2Device() == nil {
		r.AddError("You have not created a bootable partition.")
	}
}

// verifyGPTBiosBoot checks that a BIOS boot from a GPT disk has its
// biosboot partition. An EFI setup selects a partition as the stage1
// target and passes trivially.
func verifyGPTBiosBoot(st *State, r *Report) {
	if st.Boot == nil || st.Boot.Skip() {
		return
	}
	disk := st.Boot.Stage1Disk()
	if disk == nil || disk.LabelType() != "gpt" {
		return
	}
	if stage1 := st.Boot.Stage1Device(); stage1 != nil && !stage1.IsDisk() {
		return
	}
	for _, part := range st.Tree.DiskPartitions(disk) {
		if part.Format().Type == "biosboot" {
			return
		}
	}
	r.AddError(fmt.Sprintf("Your BIOS-based system needs a special partition to boot from a GPT disk label. To continue, please create a 1MiB 'biosboot' type partition on the %s disk.",
		disk.Name()))
}

// verifySwap notes or warns about a missing swap device.
func verifySwap(st *State, r *Report) {
	if len(st.Tree.Swaps()) > 0 {
		return
	}
	msg := "You have not specified a swap partition. Although not strictly required in all cases, it will significantly improve performance for most installations."
	if st.Constraints.SwapIsRecommended {
		r.AddWarning(msg)
	} else {
		r.AddInfo(msg)
	}
}

// verifySwapUUID warns about preexisting swap devices without a
// UUID, which cannot be referenced reliably at boot.
func verifySwapUUID(st *State, r *Report) {
	for _, d := range st.Tree.Swaps() {
		if d.Exists() && d.Format().UUID == "" {
			r.AddWarning("At least one of your swap devices does not have a UUID, which is common in swap space created using older versions of mkswap. These devices will be referred to by device path in /etc/fstab, which is not ideal since device paths can change under a variety of circumstances.")
			return
		}
	}
}

// verifyMountpointsOnLinuxFS errors out on mount points that need a
// Linux-native filesystem but do not sit on one.
func verifyMountpointsOnLinuxFS(st *State, r *Report) {
	mounts := st.Tree.Mountpoints()
	for _, mountpoint := range st.Constraints.MustBeOnLinuxFS {
		d, ok := mounts[mountpoint]
		if !ok {
			continue
		}
		if !d.Format().LinuxNative() {
			r.AddError(fmt.Sprintf("The mount point %s must be on a linux file system.", mountpoint))
		}
	}
}

// verifyMountpointsOnRoot errors out on paths that must stay on the
// root filesystem but were given their own device.
func verifyMountpointsOnRoot(st *State, r *Report) {
	mounts := st.Tree.Mountpoints()
	for _, mountpoint := range st.Constraints.MustBeOnRoot {
		if _, ok := mounts[mountpoint]; ok {
			r.AddError(fmt.Sprintf("The mount point %s must be on the root file system.", mountpoint))
		}
	}
}

// verifyMountpointsNotOnRoot errors out on mount points that must
// have their own device but do not.
func verifyMountpointsNotOnRoot(st *State, r *Report) {
	mounts := st.Tree.Mountpoints()
	for _, mountpoint := range st.Constraints.MustNotBeOnRoot {
		if _, ok := mounts[mountpoint]; !ok {
			r.AddError(fmt.Sprintf("The mount point %s must not be on the root file system.", mountpoint))
		}
	}
}

// verifyLUKSDevices errors out on new LUKS formats without a key and
// checks the memory floor of the LUKS2 key derivation function.
func verifyLUKSDevices(st *State, r *Report) {
	luks2 := false
	for _, d := range st.Tree.Devices() {
		f := d.Format()
		if f.Type != "luks" {
			continue
		}
		if f.LUKSVersion != "luks1" {
			luks2 = true
		}
		if !f.Exists && !f.HasKey() {
			r.AddError(fmt.Sprintf("Encryption requested for LUKS device %s but no encryption key specified for this device.",
				d.Name()))
		}
	}

	c := st.Constraints
	if luks2 && c.InstalledRAM > 0 && c.LUKS2MinRAM > 0 {
		if c.InstalledRAM < c.MinRAM+c.LUKS2MinRAM {
			r.AddWarning(fmt.Sprintf("The available memory is less than %s which can be too small for LUKS2 format. It may fail.",
				device.HumanSize(c.MinRAM+c.LUKS2MinRAM)))
		}
	}
}
