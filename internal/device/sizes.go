package device

import "fmt"

const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
	TiB = 1024 * GiB
)

const (
	// DefaultSectorSize is the default sector size in bytes
	DefaultSectorSize = 512

	// DefaultGrainBytes is the default alignment grain for partition
	// extents (1 MiB, matching the usual disk tooling defaults).
	DefaultGrainBytes = uint64(MiB)
)

// AlignUp aligns the given size in bytes to the next grain boundary,
// if it is not already aligned.
func AlignUp(size uint64) uint64 {
	grain := DefaultGrainBytes
	if size%grain == 0 {
		return size
	}
	return ((size + grain) / grain) * grain
}

// AlignDown aligns the given size in bytes to the previous grain
// boundary.
func AlignDown(size uint64) uint64 {
	return size - size%DefaultGrainBytes
}

// HumanSize formats a byte count using binary units.
func HumanSize(size uint64) string {
	units := []string{"B", "KiB", "MiB", "GiB", "TiB"}
	value := float64(size)
	idx := 0
	for value >= 1024 && idx < len(units)-1 {
		value /= 1024
		idx++
	}
	if idx == 0 {
		return fmt.Sprintf("%d B", size)
	}
	return fmt.Sprintf("%.1f %s", value, units[idx])
}
