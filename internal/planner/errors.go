package planner

// NoDisksError reports that no usable disk is available at all.
type NoDisksError struct {
	Msg string
}

func (e *NoDisksError) Error() string {
	if e.Msg == "" {
		return "No usable disks selected"
	}
	return e.Msg
}

// NotEnoughFreeSpaceError reports insufficient aggregate free space
// for the requested layout. Recoverable: the caller may pick other
// disks or another scheme.
type NotEnoughFreeSpaceError struct {
	Msg string
}

func (e *NotEnoughFreeSpaceError) Error() string {
	if e.Msg == "" {
		return "Not enough free space on disks for automatic partitioning"
	}
	return e.Msg
}

// PartitioningError is a generic scheduling failure, e.g. a
// constraint violated in the middle of a pass.
type PartitioningError struct {
	Msg string
}

func (e *PartitioningError) Error() string { return e.Msg }
