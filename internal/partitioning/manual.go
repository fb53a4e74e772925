package partitioning

import (
	"github.com/sirupsen/logrus"

	"github.com/rhinstaller/diskplanner/internal/bootloader"
	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
)

// MountPointSpec assigns an existing device to a mount point,
// optionally reformatting it first. The device is referenced by
// name, by "UUID=..."/"LABEL=..." or by device node path.
type MountPointSpec struct {
	Device     string
	Mountpoint string

	Reformat bool

	// Format is the filesystem type written when reformatting; empty
	// keeps the current type.
	Format string

	FormatOptions string
	MountOptions  string
}

// ManualConfig lists the mount point assignments of a manual run.
type ManualConfig struct {
	Requests []MountPointSpec
}

// Manual maps existing devices to mount points without creating or
// destroying anything.
type Manual struct {
	cfg ManualConfig
}

func NewManual(cfg ManualConfig) *Manual {
	return &Manual{cfg: cfg}
}

func (m *Manual) Method() Method { return MethodManual }

func (m *Manual) Bootloader() bootloader.Executor { return nil }

func (m *Manual) Configure(t *devicetree.DeviceTree) error {
	for _, spec := range m.cfg.Requests {
		d, err := t.Resolve(spec.Device)
		if err != nil {
			return err
		}

		if spec.Reformat {
			fstype := spec.Format
			if fstype == "" {
				fstype = d.Format().Type
			}
			format := &device.Format{
				Type:          fstype,
				Mountpoint:    spec.Mountpoint,
				CreateOptions: spec.FormatOptions,
				MountOptions:  spec.MountOptions,
			}
			if err := t.FormatDevice(d, format); err != nil {
				return err
			}
			logrus.Debugf("partitioning: reformatting %q as %s for %q",
				d.Name(), fstype, spec.Mountpoint)
			continue
		}

		f := d.Format()
		f.Mountpoint = spec.Mountpoint
		f.MountOptions = spec.MountOptions
		logrus.Debugf("partitioning: mounting %q at %q", d.Name(), spec.Mountpoint)
	}
	return nil
}
