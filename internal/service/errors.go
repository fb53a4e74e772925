package service

import "fmt"

// UnavailableStorageError reports that no device tree has been
// scanned or set yet.
type UnavailableStorageError struct{}

func (e *UnavailableStorageError) Error() string {
	return "The storage model is not available"
}

// StorageConfigurationError wraps a failure of a partitioning
// strategy: the configuration cannot be turned into a valid layout.
type StorageConfigurationError struct {
	Err error
}

func (e *StorageConfigurationError) Error() string {
	return fmt.Sprintf("storage configuration failed: %v", e.Err)
}

func (e *StorageConfigurationError) Unwrap() error { return e.Err }

// BootloaderConfigurationError wraps a bootloader-specific failure
// during configuration.
type BootloaderConfigurationError struct {
	Err error
}

func (e *BootloaderConfigurationError) Error() string {
	return fmt.Sprintf("bootloader configuration failed: %v", e.Err)
}

func (e *BootloaderConfigurationError) Unwrap() error { return e.Err }

// InvalidStorageError refuses an apply: the planned layout did not
// pass validation. The primary tree is left untouched.
type InvalidStorageError struct {
	Findings []string
}

func (e *InvalidStorageError) Error() string {
	if len(e.Findings) == 0 {
		return "The planned storage configuration is not valid"
	}
	return "The planned storage configuration is not valid: " + e.Findings[0]
}
