package devicetree

import "github.com/rhinstaller/diskplanner/internal/device"

// Root describes one previously installed operating system found on
// the scanned devices: its name and the devices backing its mount
// points and swap areas.
type Root struct {
	Name   string
	Mounts map[string]device.Device
	Swaps  []device.Device
}

// AddRoot registers a discovered installation.
func (t *DeviceTree) AddRoot(root *Root) {
	t.roots = append(t.roots, root)
}

// Roots returns the registered installations.
func (t *DeviceTree) Roots() []*Root {
	out := make([]*Root, len(t.roots))
	copy(out, t.roots)
	return out
}

// dropRootReferences removes a device from every registered root,
// used when the device is destroyed.
func (t *DeviceTree) dropRootReferences(d device.Device) {
	for _, root := range t.roots {
		for mount, dev := range root.Mounts {
			if dev == d {
				delete(root.Mounts, mount)
			}
		}
		for i, dev := range root.Swaps {
			if dev == d {
				root.Swaps = append(root.Swaps[:i], root.Swaps[i+1:]...)
				break
			}
		}
	}
}
