// Package actions implements the journal of scheduled storage
// operations: an ordered, appendable, reversible log of create,
// destroy, resize and format records over the device graph.
//
// Scheduling is pure bookkeeping. The graph mutation itself happens
// in the devicetree package, which records what it did here; nothing
// touches real storage until the journal is applied.
package actions

import (
	"fmt"

	"github.com/rhinstaller/diskplanner/internal/device"
)

// Kind is the action variant.
type Kind int

const (
	Create Kind = iota
	Destroy
	Resize
	Format
)

func (k Kind) String() string {
	switch k {
	case Create:
		return "create"
	case Destroy:
		return "destroy"
	case Resize:
		return "resize"
	case Format:
		return "format"
	}
	return "unknown"
}

// Action is an immutable record of one scheduled operation. The
// sequence number is assigned by the journal and increases
// monotonically.
type Action struct {
	Seq    uint64
	Kind   Kind
	Device device.Device

	// NewSize is set for resize actions.
	NewSize uint64

	// NewFormat is set for format actions.
	NewFormat *device.Format
}

// DeviceName is the identity of the action target.
func (a *Action) DeviceName() string {
	return a.Device.Name()
}

// Describe returns a short human readable description, used for
// progress reporting while the journal is applied.
func (a *Action) Describe() string {
	switch a.Kind {
	case Create:
		return fmt.Sprintf("create %s %s", a.Device.Type(), a.Device.Name())
	case Destroy:
		return fmt.Sprintf("destroy %s %s", a.Device.Type(), a.Device.Name())
	case Resize:
		return fmt.Sprintf("resize %s to %s", a.Device.Name(), device.HumanSize(a.NewSize))
	case Format:
		return fmt.Sprintf("format %s as %s", a.Device.Name(), a.NewFormat.Type)
	}
	return fmt.Sprintf("unknown action on %s", a.Device.Name())
}
