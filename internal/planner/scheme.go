package planner

import "fmt"

// Scheme is the high level partitioning policy.
type Scheme int

const (
	SchemePlain Scheme = iota
	SchemeBtrfs
	SchemeLVM
	SchemeLVMThin
)

func (s Scheme) String() string {
	switch s {
	case SchemePlain:
		return "plain"
	case SchemeBtrfs:
		return "btrfs"
	case SchemeLVM:
		return "lvm"
	case SchemeLVMThin:
		return "lvm-thin"
	}
	return "unknown"
}

// ParseScheme converts a configuration value into a Scheme.
func ParseScheme(name string) (Scheme, error) {
	switch name {
	case "plain":
		return SchemePlain, nil
	case "btrfs":
		return SchemeBtrfs, nil
	case "lvm":
		return SchemeLVM, nil
	case "lvm-thin", "lvm_thinp", "lvmthin":
		return SchemeLVMThin, nil
	}
	return SchemePlain, fmt.Errorf("unknown partitioning scheme %q", name)
}

// UsesLVM reports whether the scheme allocates logical volumes.
func (s Scheme) UsesLVM() bool {
	return s == SchemeLVM || s == SchemeLVMThin
}

// UsesContainer reports whether the scheme needs implicit member
// partitions aggregated into a container.
func (s Scheme) UsesContainer() bool {
	return s != SchemePlain
}

// MemberFormat is the format type of the container member devices.
func (s Scheme) MemberFormat() string {
	if s.UsesLVM() {
		return "lvmpv"
	}
	return "btrfs"
}
