package devicetree

import "github.com/rhinstaller/diskplanner/internal/device"

// Copy produces a fully independent deep copy of the tree: new
// device instances with the same attribute values, parents remapped
// onto the copies, and the action journal carried over. Speculative
// planning on the copy never aliases the original.
func (t *DeviceTree) Copy() *DeviceTree {
	clone := New()
	mapping := make(map[device.Device]device.Device, len(t.devices))

	for _, d := range t.devices {
		copied := d.Clone()
		mapping[d] = copied
		clone.devices = append(clone.devices, copied)
		clone.index[copied.Name()] = copied
	}

	// remap parent references onto the cloned nodes
	for _, copied := range clone.devices {
		parents := copied.Parents()
		for i, p := range parents {
			if mapped, ok := mapping[p]; ok {
				parents[i] = mapped
			}
		}
	}

	clone.journal = t.journal.Copy(func(d device.Device) device.Device {
		return mapping[d]
	})

	for _, root := range t.roots {
		copied := &Root{
			Name:   root.Name,
			Mounts: make(map[string]device.Device, len(root.Mounts)),
		}
		for mount, d := range root.Mounts {
			if mapped, ok := mapping[d]; ok {
				copied.Mounts[mount] = mapped
			}
		}
		for _, d := range root.Swaps {
			if mapped, ok := mapping[d]; ok {
				copied.Swaps = append(copied.Swaps, mapped)
			}
		}
		clone.roots = append(clone.roots, copied)
	}

	return clone
}
