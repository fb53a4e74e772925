// Package devicetree implements the in-memory model of storage
// devices and their ancestor/descendant relations, together with the
// journal of actions scheduled against them.
//
// The tree is single-writer: planning always happens on an isolated
// copy (the "storage playground"), never on the system-scanned tree.
package devicetree

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rhinstaller/diskplanner/internal/actions"
	"github.com/rhinstaller/diskplanner/internal/device"
)

// DeviceTree is the registry of devices, the relation between them
// and the journal of scheduled actions.
type DeviceTree struct {
	devices []device.Device
	index   map[string]device.Device
	journal *actions.Journal
	roots   []*Root
}

// New returns an empty tree with a fresh journal.
func New() *DeviceTree {
	return &DeviceTree{
		index:   make(map[string]device.Device),
		journal: actions.NewJournal(),
	}
}

// Journal returns the action journal of this tree.
func (t *DeviceTree) Journal() *actions.Journal { return t.journal }

// Devices returns all devices in insertion order.
func (t *DeviceTree) Devices() []device.Device {
	out := make([]device.Device, len(t.devices))
	copy(out, t.devices)
	return out
}

// AddDevice inserts a device node. The name must be unique and the
// parents must already be members of the tree; an insertion that
// would make the device its own ancestor is rejected.
func (t *DeviceTree) AddDevice(d device.Device) error {
	if _, ok := t.index[d.Name()]; ok {
		return &DuplicateNameError{Name: d.Name()}
	}
	for _, p := range d.Parents() {
		if p == d || device.DependsOn(p, d) {
			return &CycleError{Name: d.Name()}
		}
		if _, ok := t.index[p.Name()]; !ok {
			return &UnknownDeviceError{Spec: p.Name()}
		}
	}
	t.devices = append(t.devices, d)
	t.index[d.Name()] = d
	return nil
}

// GetDevice returns the device with the given name, or nil.
func (t *DeviceTree) GetDevice(name string) device.Device {
	return t.index[name]
}

// Resolve looks up a device by name, by content identifier
// ("UUID=..." or "LABEL=...") or by device node path.
func (t *DeviceTree) Resolve(spec string) (device.Device, error) {
	switch {
	case strings.HasPrefix(spec, "UUID="):
		id := strings.TrimPrefix(spec, "UUID=")
		for _, d := range t.devices {
			if d.Format().UUID == id {
				return d, nil
			}
		}
	case strings.HasPrefix(spec, "LABEL="):
		label := strings.TrimPrefix(spec, "LABEL=")
		for _, d := range t.devices {
			if d.Format().Label == label {
				return d, nil
			}
		}
	case strings.HasPrefix(spec, "/dev/"):
		for _, d := range t.devices {
			if d.Path() == spec {
				return d, nil
			}
		}
	default:
		if d, ok := t.index[spec]; ok {
			return d, nil
		}
	}
	return nil, &UnknownDeviceError{Spec: spec}
}

// Children returns the devices that list d among their parents.
func (t *DeviceTree) Children(d device.Device) []device.Device {
	var out []device.Device
	for _, candidate := range t.devices {
		for _, p := range candidate.Parents() {
			if p == d {
				out = append(out, candidate)
				break
			}
		}
	}
	return out
}

// Descendants returns the transitive children of d, depth first.
func (t *DeviceTree) Descendants(d device.Device) []device.Device {
	var out []device.Device
	for _, child := range t.Children(d) {
		out = append(out, child)
		out = append(out, t.Descendants(child)...)
	}
	return out
}

// IsEmpty reports whether the device has no children and either no
// format or only an empty disklabel.
func (t *DeviceTree) IsEmpty(d device.Device) bool {
	if len(t.Children(d)) > 0 {
		return false
	}
	return d.Format().Type == "" || d.Format().IsDiskLabel()
}

// RemoveDevice removes a device node. With recursive unset, a device
// that still has children fails with HasDependentsError. With
// recursive set, descendants are removed bottom-up first; if the
// device or any descendant is protected, the whole removal is
// refused with ProtectedDeviceError and the tree is left unchanged.
func (t *DeviceTree) RemoveDevice(d device.Device, recursive bool) error {
	if d.Protected() {
		return &ProtectedDeviceError{Name: d.Name()}
	}

	children := t.Children(d)
	if !recursive && len(children) > 0 {
		return &HasDependentsError{Name: d.Name()}
	}

	if recursive {
		for _, desc := range t.Descendants(d) {
			if desc.Protected() {
				return &ProtectedDeviceError{Name: desc.Name()}
			}
		}
		// bottom-up: children before parents
		for i := len(children) - 1; i >= 0; i-- {
			if err := t.RemoveDevice(children[i], true); err != nil {
				return err
			}
		}
	}

	t.detach(d)
	return nil
}

func (t *DeviceTree) detach(d device.Device) {
	for i, dev := range t.devices {
		if dev == d {
			t.devices = append(t.devices[:i], t.devices[i+1:]...)
			break
		}
	}
	delete(t.index, d.Name())
	t.dropRootReferences(d)
}

// Disks returns the disk devices in insertion order.
func (t *DeviceTree) Disks() []*device.Disk {
	var out []*device.Disk
	for _, d := range t.devices {
		if disk, ok := d.(*device.Disk); ok {
			out = append(out, disk)
		}
	}
	return out
}

// UsableDisks returns disks that are present, not hidden, not
// protected and have a nonzero size.
func (t *DeviceTree) UsableDisks() []*device.Disk {
	var out []*device.Disk
	for _, disk := range t.Disks() {
		if disk.Protected() || disk.Format().Hidden || disk.Size() == 0 {
			continue
		}
		out = append(out, disk)
	}
	return out
}

// PartitionedDisks returns disks that carry a disklabel.
func (t *DeviceTree) PartitionedDisks() []*device.Disk {
	var out []*device.Disk
	for _, disk := range t.Disks() {
		if disk.Partitioned() {
			out = append(out, disk)
		}
	}
	return out
}

// Partitions returns the partition devices in insertion order.
func (t *DeviceTree) Partitions() []*device.Partition {
	var out []*device.Partition
	for _, d := range t.devices {
		if p, ok := d.(*device.Partition); ok {
			out = append(out, p)
		}
	}
	return out
}

// DiskPartitions returns the partitions placed on the given disk.
func (t *DeviceTree) DiskPartitions(disk device.Device) []*device.Partition {
	var out []*device.Partition
	for _, p := range t.Partitions() {
		if p.Disk() == disk {
			out = append(out, p)
		}
	}
	return out
}

// Mountpoints maps mount points to the devices carrying them.
func (t *DeviceTree) Mountpoints() map[string]device.Device {
	out := make(map[string]device.Device)
	for _, d := range t.devices {
		f := d.Format()
		if f.Mountable() && f.Mountpoint != "" {
			out[f.Mountpoint] = d
		}
	}
	return out
}

// Swaps returns the swap-formatted devices.
func (t *DeviceTree) Swaps() []device.Device {
	var out []device.Device
	for _, d := range t.devices {
		if d.Format().Type == "swap" {
			out = append(out, d)
		}
	}
	return out
}

// RootDevice returns the device mounted at "/", or nil.
func (t *DeviceTree) RootDevice() device.Device {
	return t.Mountpoints()["/"]
}

// RenameDevice changes the device name, keeping the registry
// consistent. The new name must be unique.
func (t *DeviceTree) RenameDevice(d device.Device, name string) error {
	if name == d.Name() {
		return nil
	}
	if _, ok := t.index[name]; ok {
		return &DuplicateNameError{Name: name}
	}
	delete(t.index, d.Name())
	d.SetName(name)
	t.index[name] = d
	return nil
}

// CreateDevice adds the device to the tree and records a create
// action for it.
func (t *DeviceTree) CreateDevice(d device.Device) error {
	if err := t.AddDevice(d); err != nil {
		return err
	}
	t.journal.Schedule(&actions.Action{Kind: actions.Create, Device: d})
	logrus.Debugf("devicetree: scheduled creation of %s %q (%s)",
		d.Type(), d.Name(), device.HumanSize(d.Size()))
	return nil
}

// DestroyDevice removes the device and records the removal. For a
// device that was only scheduled, the pending create action is
// cancelled instead of recording a destroy.
func (t *DeviceTree) DestroyDevice(d device.Device) error {
	if d.Protected() {
		return &ProtectedDeviceError{Name: d.Name()}
	}
	if len(t.Children(d)) > 0 {
		return &HasDependentsError{Name: d.Name()}
	}

	if !d.Exists() {
		if creates := t.journal.Find(actions.Create, d.Name()); len(creates) > 0 {
			if err := t.journal.Remove(creates[0]); err != nil {
				return err
			}
		}
		t.detach(d)
		return nil
	}

	t.detach(d)
	t.journal.Schedule(&actions.Action{Kind: actions.Destroy, Device: d})
	logrus.Debugf("devicetree: scheduled destruction of %s %q", d.Type(), d.Name())
	return nil
}

// RecursiveRemove destroys the device together with its descendants,
// children first. If any descendant is protected the whole operation
// is refused and the tree is left unchanged.
func (t *DeviceTree) RecursiveRemove(d device.Device) error {
	if d.Protected() {
		return &ProtectedDeviceError{Name: d.Name()}
	}
	for _, desc := range t.Descendants(d) {
		if desc.Protected() {
			return &ProtectedDeviceError{Name: desc.Name()}
		}
	}

	children := t.Children(d)
	for i := len(children) - 1; i >= 0; i-- {
		if err := t.RecursiveRemove(children[i]); err != nil {
			return err
		}
	}
	return t.DestroyDevice(d)
}

// ResizeDevice schedules a size change. The device must implement
// the Resizable capability.
func (t *DeviceTree) ResizeDevice(d device.Device, newSize uint64) error {
	r, ok := d.(device.Resizable)
	if !ok || !r.Resizable() {
		return &UnknownDeviceError{Spec: d.Name()}
	}
	d.SetSize(newSize)
	t.journal.Schedule(&actions.Action{Kind: actions.Resize, Device: d, NewSize: newSize})
	return nil
}

// FormatDevice schedules a reformat. Hidden formats are refused.
func (t *DeviceTree) FormatDevice(d device.Device, format *device.Format) error {
	if d.Protected() {
		return &ProtectedDeviceError{Name: d.Name()}
	}
	if d.Format().Hidden {
		return &ProtectedDeviceError{Name: d.Name()}
	}
	d.SetFormat(format)
	t.journal.Schedule(&actions.Action{Kind: actions.Format, Device: d, NewFormat: format})
	return nil
}

// InitializeDisk replaces whatever is on the disk with a fresh
// disklabel of the given type.
func (t *DeviceTree) InitializeDisk(disk *device.Disk, labelType string) error {
	if labelType == "" {
		labelType = "gpt"
	}
	return t.FormatDevice(disk, &device.Format{Type: "disklabel", LabelType: labelType})
}
