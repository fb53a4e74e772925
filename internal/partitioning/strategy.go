package partitioning

import (
	"fmt"

	"github.com/rhinstaller/diskplanner/internal/bootloader"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
)

// Strategy turns a configuration into scheduled storage changes on a
// device tree playground. Configure is repeatable: each call starts
// from the tree it is given, so a service can hand it a fresh copy.
type Strategy interface {
	Method() Method
	Configure(t *devicetree.DeviceTree) error

	// Bootloader returns the executor the strategy configured, for
	// validation. May return nil for strategies that do not touch the
	// bootloader.
	Bootloader() bootloader.Executor
}

// New creates the strategy for a method. The dispatch is a closed
// switch over the Method enum.
func New(method Method, cfg Config) (Strategy, error) {
	switch method {
	case MethodAutomatic:
		return NewAutomatic(cfg.Automatic), nil
	case MethodCustom:
		return NewCustom(cfg.Custom), nil
	case MethodManual:
		return NewManual(cfg.Manual), nil
	case MethodInteractive:
		return NewInteractive(cfg.Interactive), nil
	}
	return nil, fmt.Errorf("unknown partitioning method %v", method)
}

// Config aggregates the per-method configurations so a caller can
// hold one value and create any strategy from it.
type Config struct {
	Automatic   AutomaticConfig
	Custom      CustomConfig
	Manual      ManualConfig
	Interactive InteractiveConfig
}
