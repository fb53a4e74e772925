// Package partitioning implements the partitioning strategies: given
// a device tree playground, each strategy turns its configuration
// into scheduled storage changes.
package partitioning

import "fmt"

// Method selects a partitioning strategy. The set is closed; new
// methods are added here, not discovered at runtime.
type Method int

const (
	MethodAutomatic Method = iota
	MethodCustom
	MethodManual
	MethodInteractive
)

func (m Method) String() string {
	switch m {
	case MethodAutomatic:
		return "automatic"
	case MethodCustom:
		return "custom"
	case MethodManual:
		return "manual"
	case MethodInteractive:
		return "interactive"
	}
	return "unknown"
}

// ParseMethod converts a configuration value into a Method.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "automatic", "auto":
		return MethodAutomatic, nil
	case "custom":
		return MethodCustom, nil
	case "manual":
		return MethodManual, nil
	case "interactive":
		return MethodInteractive, nil
	}
	return MethodAutomatic, fmt.Errorf("unknown partitioning method %q", name)
}
