package partitioning

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rhinstaller/diskplanner/internal/bootloader"
	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
)

// InteractiveConfig configures an interactive session.
type InteractiveConfig struct {
	Platform       bootloader.Platform
	SkipBootloader bool
}

// Interactive lets a caller edit the playground step by step. Every
// operation is transactional: on failure the tree is restored to the
// state before the operation.
type Interactive struct {
	cfg  InteractiveConfig
	boot *bootloader.GRUB
	tree *devicetree.DeviceTree
}

func NewInteractive(cfg InteractiveConfig) *Interactive {
	boot := bootloader.NewGRUB(cfg.Platform)
	boot.SetSkip(cfg.SkipBootloader)
	return &Interactive{cfg: cfg, boot: boot}
}

func (i *Interactive) Method() Method { return MethodInteractive }

func (i *Interactive) Bootloader() bootloader.Executor { return i.boot }

// Configure binds the strategy to its playground and selects the
// boot disk. The layout itself is built through the operations.
func (i *Interactive) Configure(t *devicetree.DeviceTree) error {
	i.tree = t
	if i.boot.Skip() {
		return nil
	}
	return i.boot.Prepare(t, true)
}

// Tree exposes the playground for inspection between operations.
func (i *Interactive) Tree() *devicetree.DeviceTree { return i.tree }

// transact runs one operation against a snapshot boundary: when the
// operation fails the playground is restored in place, so partial
// changes never leak.
func (i *Interactive) transact(name string, fn func(t *devicetree.DeviceTree) error) error {
	snapshot := i.tree.Copy()
	if err := fn(i.tree); err != nil {
		*i.tree = *snapshot
		logrus.Debugf("partitioning: %s rolled back: %v", name, err)
		return err
	}
	return nil
}

// AddDevice schedules one new device described by the spec.
func (i *Interactive) AddDevice(spec CustomSpec) error {
	return i.transact("add device", func(t *devicetree.DeviceTree) error {
		return scheduleSpec(t, spec)
	})
}

// DestroyDevice removes the named device and everything stacked on
// it. A protected device anywhere in the stack refuses the whole
// removal.
func (i *Interactive) DestroyDevice(name string) error {
	return i.transact("destroy device", func(t *devicetree.DeviceTree) error {
		d, err := t.Resolve(name)
		if err != nil {
			return err
		}
		return t.RecursiveRemove(d)
	})
}

// ResizeDevice schedules a size change on the named device.
func (i *Interactive) ResizeDevice(name string, newSize uint64) error {
	return i.transact("resize device", func(t *devicetree.DeviceTree) error {
		d, err := t.Resolve(name)
		if err != nil {
			return err
		}
		return t.ResizeDevice(d, newSize)
	})
}

// ReformatDevice schedules a reformat of the named device.
func (i *Interactive) ReformatDevice(name, fstype, mountpoint string) error {
	return i.transact("reformat device", func(t *devicetree.DeviceTree) error {
		d, err := t.Resolve(name)
		if err != nil {
			return err
		}
		if mountpoint != "" {
			if err := ValidateMountpoint(t, mountpoint); err != nil {
				return err
			}
		}
		return t.FormatDevice(d, &device.Format{Type: fstype, Mountpoint: mountpoint})
	})
}

// ValidateMountpoint checks a mount point a user typed in: it must be
// an absolute normalized path and must not be claimed twice. "swap"
// is accepted as the conventional non-path value.
func ValidateMountpoint(t *devicetree.DeviceTree, mountpoint string) error {
	if mountpoint == "swap" {
		return nil
	}
	if !strings.HasPrefix(mountpoint, "/") {
		return fmt.Errorf("the mount point %q must start with /", mountpoint)
	}
	if mountpoint != "/" && strings.HasSuffix(mountpoint, "/") {
		return fmt.Errorf("the mount point %q must not end with /", mountpoint)
	}
	if strings.Contains(mountpoint, " ") || strings.Contains(mountpoint, "//") {
		return fmt.Errorf("the mount point %q is not a valid path", mountpoint)
	}
	if _, taken := t.Mountpoints()[mountpoint]; taken {
		return fmt.Errorf("the mount point %q is already in use", mountpoint)
	}
	return nil
}

// ChangeEncryption wraps the named device in a new LUKS container,
// moving its current format inside, or unwraps an unscheduled
// container.
func (i *Interactive) ChangeEncryption(name string, encrypted bool, passphrase string) error {
	return i.transact("change encryption", func(t *devicetree.DeviceTree) error {
		d, err := t.Resolve(name)
		if err != nil {
			return err
		}

		if !encrypted {
			luks := luksChildOf(t, d)
			if luks == nil {
				return nil
			}
			inner := luks.Format().Clone()
			if err := t.DestroyDevice(luks); err != nil {
				return err
			}
			return t.FormatDevice(d, inner)
		}

		if luksChildOf(t, d) != nil {
			return nil
		}
		inner := d.Format().Clone()
		if err := t.FormatDevice(d, &device.Format{
			Type:        "luks",
			Passphrase:  passphrase,
			LUKSVersion: "luks2",
		}); err != nil {
			return err
		}
		luks := device.NewLUKSContainer(d)
		luks.SetFormat(inner)
		return t.CreateDevice(luks)
	})
}

// RenameContainer renames a volume group or btrfs volume.
func (i *Interactive) RenameContainer(name, newName string) error {
	return i.transact("rename container", func(t *devicetree.DeviceTree) error {
		d, err := t.Resolve(name)
		if err != nil {
			return err
		}
		if _, ok := d.(device.Container); !ok {
			return &devicetree.UnknownDeviceError{Spec: name}
		}
		return t.RenameDevice(d, newName)
	})
}

func luksChildOf(t *devicetree.DeviceTree, d device.Device) *device.LUKSContainer {
	for _, child := range t.Children(d) {
		if luks, ok := child.(*device.LUKSContainer); ok {
			return luks
		}
	}
	return nil
}
