package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
)

// Inventory describes the disks of the target machine. It stands in
// for a real udev scan. Sizes and offsets are in MiB.
type Inventory struct {
	Disks []InventoryDisk `toml:"disk"`
}

type InventoryDisk struct {
	Name          string               `toml:"name"`
	SizeMiB       uint64               `toml:"size"`
	Label         string               `toml:"label"`
	SectorSize    uint64               `toml:"sector_size"`
	Protected     bool                 `toml:"protected"`
	PartitionList []InventoryPartition `toml:"partition"`
}

type InventoryPartition struct {
	Name       string `toml:"name"`
	StartMiB   uint64 `toml:"start"`
	SizeMiB    uint64 `toml:"size"`
	FSType     string `toml:"fstype"`
	Mountpoint string `toml:"mountpoint"`
	Label      string `toml:"fslabel"`
	UUID       string `toml:"uuid"`
	Bootable   bool   `toml:"bootable"`
	Protected  bool   `toml:"protected"`
}

// LoadInventory reads a disk inventory file.
func LoadInventory(name string) (*Inventory, error) {
	var inv Inventory
	if _, err := toml.DecodeFile(name, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// BuildTree turns the inventory into a scanned device tree: all
// devices exist, nothing is scheduled.
func (inv *Inventory) BuildTree() (*devicetree.DeviceTree, error) {
	tree := devicetree.New()

	for _, d := range inv.Disks {
		if d.Name == "" || d.SizeMiB == 0 {
			return nil, fmt.Errorf("inventory disk needs a name and a size")
		}
		disk := device.NewDisk(d.Name, d.SizeMiB*device.MiB)
		disk.SetProtected(d.Protected)
		if d.SectorSize > 0 {
			disk.SetSectorSize(d.SectorSize)
		}
		if d.Label != "" {
			disk.SetFormat(&device.Format{
				Type:      "disklabel",
				LabelType: d.Label,
				Exists:    true,
			})
		}
		if err := tree.AddDevice(disk); err != nil {
			return nil, err
		}

		cursor := uint64(device.MiB)
		for _, p := range d.PartitionList {
			if p.Name == "" || p.SizeMiB == 0 {
				return nil, fmt.Errorf("inventory partition on %q needs a name and a size", d.Name)
			}
			part := device.NewPartition(p.Name, p.SizeMiB*device.MiB, disk)
			start := p.StartMiB * device.MiB
			if start == 0 {
				start = cursor
			}
			part.SetStart(start)
			part.SetAllocated(true)
			part.SetExists(true)
			part.SetBootable(p.Bootable)
			part.SetProtected(p.Protected)
			part.SetFormat(&device.Format{
				Type:       p.FSType,
				Mountpoint: p.Mountpoint,
				Label:      p.Label,
				UUID:       p.UUID,
				Exists:     p.FSType != "",
			})
			if err := tree.AddDevice(part); err != nil {
				return nil, err
			}
			cursor = start + part.Size()
		}
	}

	return tree, nil
}
