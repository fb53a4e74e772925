package devicetree

import "fmt"

// DuplicateNameError reports an attempt to add a device under a name
// that is already registered in the tree.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("device name %q already exists in the tree", e.Name)
}

// UnknownDeviceError reports a device specification that did not
// resolve to any device in the tree.
type UnknownDeviceError struct {
	Spec string
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("unknown or invalid device %q specified", e.Spec)
}

// HasDependentsError reports a non-recursive removal of a device
// that still has children.
type HasDependentsError struct {
	Name string
}

func (e *HasDependentsError) Error() string {
	return fmt.Sprintf("device %q has dependent devices and cannot be removed", e.Name)
}

// ProtectedDeviceError reports a destructive operation that would
// touch a protected device.
type ProtectedDeviceError struct {
	Name string
}

func (e *ProtectedDeviceError) Error() string {
	return fmt.Sprintf("device %q is protected and cannot be destroyed", e.Name)
}

// CycleError reports an insertion that would make a device its own
// ancestor.
type CycleError struct {
	Name string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("adding device %q would introduce a dependency cycle", e.Name)
}
